package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/config"
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/transport"
	"github.com/loomcode/loomcode/wire"
)

// Adapter is the one Generator implementation for every registered
// adapterType: the descriptor and translator supply the vendor-specific
// behaviour, so nothing here branches on which backend it is talking to.
type Adapter struct {
	descriptor *descriptor.Descriptor
	record     *config.UserProviderRecord
	transport  *transport.Transport
	logger     zerolog.Logger
}

func (a *Adapter) requestOptions(req *canonical.Request) wire.RequestOptions {
	opts := wire.RequestOptions{}
	model, err := config.ResolveModelConfig(a.descriptor, a.record, req.Model)
	if err == nil && model != nil {
		opts.SupportsVision = model.Features.Vision
	}
	return opts
}

// GenerateContent issues one non-streaming request. promptID is forwarded
// to the transport for log correlation.
func (a *Adapter) GenerateContent(ctx context.Context, req *canonical.Request, promptID string) (*canonical.Response, error) {
	return a.transport.Generate(ctx, req, a.requestOptions(req), promptID)
}

// GenerateContentStream issues one streaming request.
func (a *Adapter) GenerateContentStream(ctx context.Context, req *canonical.Request, promptID string) (<-chan canonical.StreamChunk, <-chan error) {
	return a.transport.GenerateStream(ctx, req, a.requestOptions(req), promptID)
}

// CountTokens estimates or measures the token cost of req.
func (a *Adapter) CountTokens(ctx context.Context, req *canonical.Request) (*canonical.CountTokensResult, error) {
	return a.transport.CountTokens(ctx, req)
}

// EmbedContent embeds the text content of req.
func (a *Adapter) EmbedContent(ctx context.Context, req *canonical.Request) (*canonical.EmbedResult, error) {
	return a.transport.Embed(ctx, req)
}
