// Package llm binds a descriptor, a resolved provider record, a wire
// translator, and an HTTP transport into the canonical ContentGenerator
// contract the chat loop consumes. Dispatch happens on an open,
// descriptor-driven adapterType string, and every branch constructs the
// same generic Adapter rather than a per-vendor type.
package llm

import (
	"context"

	"github.com/loomcode/loomcode/canonical"
)

// Generator is the canonical ContentGenerator contract. PromptID is an
// optional request-correlation id threaded into adapter logging; an empty
// string is valid, and the transport then mints a fresh id for that request.
type Generator interface {
	GenerateContent(ctx context.Context, req *canonical.Request, promptID string) (*canonical.Response, error)
	GenerateContentStream(ctx context.Context, req *canonical.Request, promptID string) (<-chan canonical.StreamChunk, <-chan error)
	CountTokens(ctx context.Context, req *canonical.Request) (*canonical.CountTokensResult, error)
	EmbedContent(ctx context.Context, req *canonical.Request) (*canonical.EmbedResult, error)
}
