// Package canonical defines the vendor-independent request/response
// vocabulary the chat loop speaks. Every adapter translates between this
// shape and its own wire format; nothing outside the wire/* packages should
// ever need to know what a "choice" or a "content block" looks like on the
// backend.
package canonical

// Role identifies who produced a Content entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// FinishReason is the vendor-independent stop reason.
type FinishReason string

const (
	FinishStop      FinishReason = "STOP"
	FinishMaxTokens FinishReason = "MAX_TOKENS"
	FinishSafety    FinishReason = "SAFETY"
	FinishOther     FinishReason = "OTHER"
)

// Content is one turn of the conversation: a role plus an ordered list of
// parts. A model-role Content may mix text and tool-call parts; a user-role
// Content may mix text, inline binary, and tool-response parts.
type Content struct {
	Role  Role
	Parts []Part
}

// Part is a tagged union: TextPart | InlineDataPart | ToolCallPart |
// ToolResponsePart. The private marker method keeps the union closed to
// this package.
type Part interface {
	isPart()
}

// TextPart carries plain text.
type TextPart struct {
	Text string
}

func (TextPart) isPart() {}

// InlineDataPart carries inline binary data (e.g. an image) as a MIME type
// plus the raw bytes. Data is not a base64 string; translators base64-encode
// it when building wire bodies.
type InlineDataPart struct {
	MIMEType string
	Data     []byte
}

func (InlineDataPart) isPart() {}

// IsImage reports whether this inline data should be treated as an image
// for the purposes of multi-part message construction.
func (p InlineDataPart) IsImage() bool {
	return len(p.MIMEType) >= 6 && p.MIMEType[:6] == "image/"
}

// ToolCallPart is a model-issued function invocation.
type ToolCallPart struct {
	ID   string
	Name string
	Args map[string]any
}

func (ToolCallPart) isPart() {}

// ToolResponsePart is the host's answer to a prior ToolCallPart, bound by
// ID to the call it answers.
type ToolResponsePart struct {
	ID       string
	Response any
}

func (ToolResponsePart) isPart() {}

// GenerateConfig carries generation parameters and, optionally, the tools
// and response-format hints for one request.
type GenerateConfig struct {
	Temperature       *float64
	TopP              *float64
	MaxOutputTokens   *int
	StopSequences     []string
	PresencePenalty   *float64
	FrequencyPenalty  *float64
	ResponseMIMEType  string
	Tools             []Tool
}

// Request is the canonical content-generation request.
type Request struct {
	Model              string
	SystemInstruction  string
	Contents           []Content
	Config             GenerateConfig
}

// Usage is the canonical token-usage triple.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is one non-streaming canonical content-generation result.
type Response struct {
	Content      Content
	FinishReason FinishReason
	Usage        Usage
}

// StreamChunk is one element of a canonical streaming sequence. FinishReason
// is empty until the terminal chunk.
type StreamChunk struct {
	Parts        []Part
	FinishReason FinishReason
	Usage        *Usage
}

// CountTokensResult is the result of CountTokens.
type CountTokensResult struct {
	TotalTokens int
}

// Embedding is a single embedding vector.
type Embedding struct {
	Values []float64
}

// EmbedResult is the result of Embed.
type EmbedResult struct {
	Embeddings []Embedding
}
