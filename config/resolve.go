package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/descriptor"
)

// ResolvedModel is the field-wise merge of a descriptor's DefaultModel and
// a record's modelOverrides entry.
type ResolvedModel struct {
	DisplayName         string               `json:"displayName"`
	ContextWindow        int                  `json:"contextWindow"`
	MaxOutputTokens      int                  `json:"maxOutputTokens"`
	SupportedModalities  []string             `json:"supportedModalities"`
	Features             descriptor.Features `json:"features"`
}

// ResolveAPIKey resolves a record's apiKey field. A value beginning with
// "$" is treated as the name of an environment variable; if that variable
// is unset, a warning is logged and the empty string is returned so the
// transport layer fails later with a clear auth error.
func ResolveAPIKey(record *UserProviderRecord, logger zerolog.Logger) string {
	raw := record.APIKey
	if !strings.HasPrefix(raw, "$") {
		return raw
	}

	envName := strings.TrimPrefix(raw, "$")
	val, ok := os.LookupEnv(envName)
	if !ok {
		logger.Warn().Str("provider", record.ID).Str("envVar", envName).
			Msg("apiKey references an environment variable that is not set")
		return ""
	}
	return val
}

// ResolveModelConfig merges descriptor.DefaultModels[modelID] with
// record.ModelOverrides[modelID]. It returns nil, nil when modelID is in
// neither the descriptor's catalogue nor the record's enabled models.
func ResolveModelConfig(d *descriptor.Descriptor, record *UserProviderRecord, modelID string) (*ResolvedModel, error) {
	def, inCatalogue := d.DefaultModels[modelID]
	if !inCatalogue && !record.HasModel(modelID) {
		return nil, nil
	}

	baseMap, err := toMap(def)
	if err != nil {
		return nil, err
	}

	override := record.ModelOverrides[modelID]
	merged := deepMerge(baseMap, override)

	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	var out ResolvedModel
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveProviderSetting consults providerOverrides[key], then falls back
// to def. It is used for "timeout" and "maxRetries"; numeric overrides of
// 0 are respected, since a present key with value 0 is distinguishable
// from an absent key.
func ResolveProviderSetting[T any](record *UserProviderRecord, key string, def T) T {
	if record.ProviderOverrides == nil {
		return def
	}
	raw, ok := record.ProviderOverrides[key]
	if !ok || raw == nil {
		return def
	}

	// JSON-decoded numbers arrive as float64; coerce through JSON so that
	// int- and float-typed T both work regardless of the override's
	// original JSON type.
	buf, err := json.Marshal(raw)
	if err != nil {
		return def
	}
	var val T
	if err := json.Unmarshal(buf, &val); err != nil {
		return def
	}
	return val
}

// ResolveHeaders builds the header map for one request: Content-Type,
// then the descriptor's required headers with "{apiKey}" substituted, then
// any providerOverrides.customHeaders overlay.
func ResolveHeaders(d *descriptor.Descriptor, record *UserProviderRecord, logger zerolog.Logger) map[string]string {
	headers := map[string]string{"Content-Type": "application/json"}

	apiKey := ResolveAPIKey(record, logger)
	for k, v := range d.RequestHeaders.Required {
		headers[k] = strings.ReplaceAll(v, "{apiKey}", apiKey)
	}

	if custom, ok := record.ProviderOverrides["customHeaders"]; ok {
		if m, ok := custom.(map[string]any); ok {
			for k, v := range m {
				if s, ok := v.(string); ok {
					headers[k] = s
				}
			}
		}
	}

	return headers
}

// ResolveTimeout is a convenience wrapper around ResolveProviderSetting for
// the "timeout" setting (milliseconds).
func ResolveTimeout(record *UserProviderRecord, defaultMS int) int {
	return ResolveProviderSetting(record, "timeout", defaultMS)
}

// ResolveMaxRetries is a convenience wrapper around ResolveProviderSetting
// for the "maxRetries" setting. Nothing at the transport layer currently
// retries on this value; it is resolved here so it can be attached to a
// request logger as diagnostic context.
func ResolveMaxRetries(record *UserProviderRecord, defaultRetries int) int {
	return ResolveProviderSetting(record, "maxRetries", defaultRetries)
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
