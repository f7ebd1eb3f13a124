// Package descriptor loads and caches adapter descriptors: the static JSON
// files that declare one backend's wire format, endpoints, parameter
// names, response paths, and default model catalogue.
package descriptor

import "encoding/json"

// Descriptor is the parsed shape of an adapters/<type>/config.json file.
//
// Response paths are kept as plain strings, not resolved into accessor
// structs, on purpose - wire responses are walked generically by package
// wire at translation time, never modeled with named fields.
type Descriptor struct {
	AdapterType      string                  `json:"adapterType"`
	Endpoints        Endpoints               `json:"endpoints"`
	ParameterMapping ParameterMapping         `json:"parameterMapping"`
	ResponseMapping  ResponseMapping          `json:"responseMapping"`
	TokenCounting    TokenCounting            `json:"tokenCounting"`
	ErrorHandling    ErrorHandling            `json:"errorHandling"`
	RequestHeaders   RequestHeaders           `json:"requestHeaders"`
	DefaultModels    map[string]DefaultModel  `json:"defaultModels"`
}

// Endpoints maps a logical endpoint name to a URL path suffix.
type Endpoints struct {
	Chat      string `json:"chat"`
	Embedding string `json:"embedding,omitempty"`
}

// ParameterMapping maps a canonical generation-parameter name to the wire
// parameter name.
type ParameterMapping struct {
	Temperature      string `json:"temperature,omitempty"`
	TopP             string `json:"topP,omitempty"`
	MaxOutputTokens  string `json:"maxOutputTokens,omitempty"`
	StopSequences    string `json:"stopSequences,omitempty"`
	PresencePenalty  string `json:"presencePenalty,omitempty"`
	FrequencyPenalty string `json:"frequencyPenalty,omitempty"`
}

// UsagePaths holds the (possibly arithmetic-expression) paths for the
// token-usage triple.
type UsagePaths struct {
	PromptTokens     string `json:"promptTokens"`
	CompletionTokens string `json:"completionTokens"`
	TotalTokens      string `json:"totalTokens"`
}

// StreamingPaths holds the response paths used while consuming a
// server-sent-events stream.
type StreamingPaths struct {
	Delta          string `json:"delta"`
	ToolCallsDelta string `json:"toolCallsDelta"`
	FinishReason   string `json:"finishReason"`
}

// ResponseMapping holds the dotted/bracketed JSON paths locating fields in
// a non-streaming or streaming wire response.
type ResponseMapping struct {
	Content      string         `json:"content"`
	FinishReason string         `json:"finishReason"`
	Usage        UsagePaths     `json:"usage"`
	Streaming    StreamingPaths `json:"streaming"`
}

// FallbackEstimation holds the weights for the descriptor's offline
// token-count heuristic. None of them is read: the estimate is a fixed
// 4 characters per token, whatever baseRatio says.
type FallbackEstimation struct {
	BaseRatio         float64 `json:"baseRatio"`
	ChineseWeight     float64 `json:"chineseWeight"`
	CodeWeight        float64 `json:"codeWeight"`
	SpecialCharWeight float64 `json:"specialCharWeight"`
}

// TokenCounting declares how countTokens should be implemented for this
// adapter type.
type TokenCounting struct {
	Method             string             `json:"method"` // "response_usage" | "estimation"
	FallbackEstimation FallbackEstimation `json:"fallbackEstimation"`
}

// ErrorHandling declares which HTTP status codes mean what, and where in
// an error body the human-readable message lives.
type ErrorHandling struct {
	AuthErrorStatus  []int  `json:"authErrorStatus"`
	RateLimitStatus  []int  `json:"rateLimitStatus"`
	QuotaErrorStatus []int  `json:"quotaErrorStatus"`
	ErrorMessagePath string `json:"errorMessagePath"`
}

// RequestHeaders declares headers to send; values may contain the
// template placeholder "{apiKey}".
type RequestHeaders struct {
	Required map[string]string `json:"required"`
	Optional map[string]string `json:"optional"`
}

// Features declares which capabilities a model supports.
type Features struct {
	Streaming       bool `json:"streaming"`
	FunctionCalling bool `json:"functionCalling"`
	Vision          bool `json:"vision"`
}

// DefaultModel is the descriptor's shipped catalogue entry for one model.
type DefaultModel struct {
	DisplayName         string   `json:"displayName"`
	ContextWindow       int      `json:"contextWindow"`
	MaxOutputTokens     int      `json:"maxOutputTokens"`
	SupportedModalities []string `json:"supportedModalities"`
	Features            Features `json:"features"`
}

// Validate checks presence of the required top-level keys.
func (d *Descriptor) Validate() error {
	switch {
	case d.Endpoints.Chat == "":
		return errMissing("endpoints.chat")
	case d.ResponseMapping.Content == "":
		return errMissing("responseMapping.content")
	case d.ResponseMapping.FinishReason == "":
		return errMissing("responseMapping.finishReason")
	case d.ResponseMapping.Usage.PromptTokens == "":
		return errMissing("responseMapping.usage.promptTokens")
	case d.ResponseMapping.Usage.CompletionTokens == "":
		return errMissing("responseMapping.usage.completionTokens")
	case d.ResponseMapping.Usage.TotalTokens == "":
		return errMissing("responseMapping.usage.totalTokens")
	case d.TokenCounting.Method == "":
		return errMissing("tokenCounting.method")
	case len(d.DefaultModels) == 0:
		return errMissing("defaultModels")
	}
	return nil
}

func errMissing(key string) error {
	return &missingKeyError{key: key}
}

type missingKeyError struct{ key string }

func (e *missingKeyError) Error() string { return "missing required key: " + e.key }

// parse decodes raw descriptor JSON.
func parse(raw []byte) (*Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
