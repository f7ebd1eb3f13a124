// Package stream implements the stateful reassembly of tool-call fragments
// delivered across streaming chunks. An Accumulator is owned by one stream
// iterator, not by the adapter, so two concurrent streams from the same
// adapter never share state.
package stream

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/wire"
)

type pendingCall struct {
	id              string
	name            string
	argumentsBuffer string
}

// Accumulator reassembles tool-call fragments keyed by the wire index they
// arrived on. Its lifetime is exactly one stream.
type Accumulator struct {
	pending map[int]*pendingCall
	order   []int
	logger  zerolog.Logger
}

// New creates an empty Accumulator.
func New(logger zerolog.Logger) *Accumulator {
	return &Accumulator{pending: make(map[int]*pendingCall), logger: logger}
}

// Feed applies one decoded StreamDelta and returns the canonical chunk it
// produces, if any. A chunk bearing only accumulating tool-call fragments,
// no text, no usage, and no finish reason produces no canonical chunk
// (nil, false) - it is pure state accumulation. A trailing usage-only
// delta (no text, no tool-call fragments, no finish reason - the shape
// OpenAI sends for include_usage after the finish_reason chunk) still
// emits a chunk, since otherwise the usage it carries would never reach
// the caller.
func (a *Accumulator) Feed(delta *wire.StreamDelta) (*canonical.StreamChunk, bool) {
	var parts []canonical.Part
	if delta.Text != "" {
		parts = append(parts, canonical.TextPart{Text: delta.Text})
	}

	for _, tcd := range delta.ToolCallDeltas {
		pc, ok := a.pending[tcd.Index]
		if !ok {
			pc = &pendingCall{}
			a.pending[tcd.Index] = pc
			a.order = append(a.order, tcd.Index)
		}
		if tcd.ID != "" {
			pc.id = tcd.ID
		}
		if tcd.Name != "" {
			pc.name = tcd.Name
		}
		pc.argumentsBuffer += tcd.Arguments
	}

	if !delta.HasFinish {
		if len(parts) == 0 && delta.Usage == nil {
			return nil, false
		}
		chunk := &canonical.StreamChunk{Parts: parts}
		if delta.Usage != nil {
			chunk.Usage = delta.Usage
		}
		return chunk, true
	}

	for _, idx := range a.order {
		pc := a.pending[idx]
		args := map[string]any{}
		if pc.argumentsBuffer != "" {
			if err := json.Unmarshal([]byte(pc.argumentsBuffer), &args); err != nil {
				a.logger.Warn().Err(err).Str("toolCallId", pc.id).Msg("tool call arguments did not parse as JSON; emitting empty args")
				args = map[string]any{}
			}
		}
		parts = append(parts, canonical.ToolCallPart{ID: pc.id, Name: pc.name, Args: args})
	}

	a.pending = make(map[int]*pendingCall)
	a.order = nil

	chunk := &canonical.StreamChunk{Parts: parts, FinishReason: delta.FinishReason}
	if delta.Usage != nil {
		chunk.Usage = delta.Usage
	}
	return chunk, true
}
