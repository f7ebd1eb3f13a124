package openai

import (
	"strconv"
	"strings"
)

// coerceSchema walks a JSON-Schema-like tree and normalizes the handful of
// fields OpenAI-family backends are strict about: lower-cased type
// strings, and numeric-constraint fields coerced from strings to numbers
// when parseable. Everything else passes through unchanged.
func coerceSchema(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			switch k {
			case "type":
				if s, ok := val.(string); ok {
					out[k] = strings.ToLower(s)
					continue
				}
			case "minimum", "maximum", "multipleOf":
				if s, ok := val.(string); ok {
					if f, err := strconv.ParseFloat(s, 64); err == nil {
						out[k] = f
						continue
					}
				}
			case "minLength", "maxLength", "minItems", "maxItems":
				if s, ok := val.(string); ok {
					if n, err := strconv.Atoi(s); err == nil {
						out[k] = n
						continue
					}
				}
			}
			out[k] = coerceSchema(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = coerceSchema(val)
		}
		return out
	default:
		return v
	}
}
