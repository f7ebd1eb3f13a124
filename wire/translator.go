// Package wire declares the interface each adapter's canonical-to-wire
// translator fulfils, and the shared streaming-delta shape the
// accumulator consumes. Concrete wire formats live in sibling packages:
// wire/openai, wire/anthropic.
package wire

import "github.com/loomcode/loomcode/canonical"

// RequestOptions carries request-shaping context that the canonical.Request
// itself does not hold - it is derived from the resolved model config, not
// the request.
type RequestOptions struct {
	Stream         bool
	SupportsVision bool
}

// ToolCallDelta is one decoded wire tool_calls delta entry, prior to
// accumulation.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// StreamDelta is one decoded streaming chunk.
type StreamDelta struct {
	Text           string
	ToolCallDeltas []ToolCallDelta
	HasFinish      bool
	FinishReason   canonical.FinishReason
	Usage          *canonical.Usage
}

// Translator converts between the canonical request/response vocabulary
// and one backend's wire format. Each adapter type supplies its own
// implementation, constructed from that type's descriptor.
type Translator interface {
	BuildChatRequest(req *canonical.Request, opts RequestOptions) ([]byte, error)
	ParseChatResponse(body []byte) (*canonical.Response, error)
	ParseStreamChunk(raw []byte) (*StreamDelta, error)
	BuildEmbedRequest(text string) ([]byte, error)
	ParseEmbedResponse(body []byte) (*canonical.EmbedResult, error)
}
