package stream

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/wire"
)

func TestAccumulator_ToolCallStreamingReassembly(t *testing.T) {
	acc := New(zerolog.Nop())

	chunks := []*wire.StreamDelta{
		{ToolCallDeltas: []wire.ToolCallDelta{{Index: 0, ID: "t1", Name: "runShell"}}},
		{ToolCallDeltas: []wire.ToolCallDelta{{Index: 0, Arguments: `{"cmd":`}}},
		{ToolCallDeltas: []wire.ToolCallDelta{{Index: 0, Arguments: `"ls"}`}}},
	}

	for i, c := range chunks {
		chunk, emitted := acc.Feed(c)
		if emitted {
			t.Fatalf("chunk %d emitted a canonical chunk prematurely: %+v", i, chunk)
		}
	}

	terminal, emitted := acc.Feed(&wire.StreamDelta{HasFinish: true, FinishReason: canonical.FinishStop})
	if !emitted {
		t.Fatal("terminal chunk did not emit")
	}
	if len(terminal.Parts) != 1 {
		t.Fatalf("len(parts) = %d, want 1", len(terminal.Parts))
	}
	tc, ok := terminal.Parts[0].(canonical.ToolCallPart)
	if !ok {
		t.Fatalf("parts[0] is %T, want ToolCallPart", terminal.Parts[0])
	}
	if tc.ID != "t1" || tc.Name != "runShell" || tc.Args["cmd"] != "ls" {
		t.Errorf("tool call = %+v, want {t1 runShell {cmd:ls}}", tc)
	}
	if terminal.FinishReason != canonical.FinishStop {
		t.Errorf("FinishReason = %v, want STOP", terminal.FinishReason)
	}
}

// TestAccumulator_EmptyToolCallsDeltaWithFinishReason checks that an
// empty tool_calls delta alongside a finish_reason still emits a
// terminal chunk carrying just the reason.
func TestAccumulator_EmptyToolCallsDeltaWithFinishReason(t *testing.T) {
	acc := New(zerolog.Nop())

	chunk, emitted := acc.Feed(&wire.StreamDelta{HasFinish: true, FinishReason: canonical.FinishStop})
	if !emitted {
		t.Fatal("expected a terminal chunk to be emitted")
	}
	if len(chunk.Parts) != 0 {
		t.Errorf("Parts = %+v, want empty", chunk.Parts)
	}
	if chunk.FinishReason != canonical.FinishStop {
		t.Errorf("FinishReason = %v, want STOP", chunk.FinishReason)
	}
}

func TestAccumulator_EmptyStringArgumentsYieldEmptyArgsMap(t *testing.T) {
	acc := New(zerolog.Nop())
	acc.Feed(&wire.StreamDelta{ToolCallDeltas: []wire.ToolCallDelta{{Index: 0, ID: "t1", Name: "noop"}}})

	chunk, emitted := acc.Feed(&wire.StreamDelta{HasFinish: true, FinishReason: canonical.FinishStop})
	if !emitted {
		t.Fatal("expected terminal emission")
	}
	tc := chunk.Parts[0].(canonical.ToolCallPart)
	if tc.Args == nil || len(tc.Args) != 0 {
		t.Errorf("Args = %+v, want empty non-nil map", tc.Args)
	}
}

func TestAccumulator_TextDeltaEmitsImmediately(t *testing.T) {
	acc := New(zerolog.Nop())
	chunk, emitted := acc.Feed(&wire.StreamDelta{Text: "hel"})
	if !emitted {
		t.Fatal("expected immediate emission of a text delta")
	}
	if len(chunk.Parts) != 1 || chunk.Parts[0].(canonical.TextPart).Text != "hel" {
		t.Errorf("Parts = %+v", chunk.Parts)
	}
	if chunk.FinishReason != "" {
		t.Errorf("FinishReason = %v, want empty for a non-terminal chunk", chunk.FinishReason)
	}
}

// TestAccumulator_DistinctIndicesEachEmittedOnce checks that the emitted
// tool-call part count equals the count of distinct indices observed,
// each emitted exactly once.
func TestAccumulator_DistinctIndicesEachEmittedOnce(t *testing.T) {
	acc := New(zerolog.Nop())
	acc.Feed(&wire.StreamDelta{ToolCallDeltas: []wire.ToolCallDelta{
		{Index: 0, ID: "t1", Name: "a"},
		{Index: 1, ID: "t2", Name: "b"},
	}})
	acc.Feed(&wire.StreamDelta{ToolCallDeltas: []wire.ToolCallDelta{{Index: 0, Arguments: "{}"}}})

	chunk, emitted := acc.Feed(&wire.StreamDelta{HasFinish: true, FinishReason: canonical.FinishStop})
	if !emitted {
		t.Fatal("expected terminal emission")
	}
	if len(chunk.Parts) != 2 {
		t.Fatalf("len(parts) = %d, want 2", len(chunk.Parts))
	}
	seen := map[string]bool{}
	for _, p := range chunk.Parts {
		tc := p.(canonical.ToolCallPart)
		if seen[tc.ID] {
			t.Errorf("tool call %q emitted more than once", tc.ID)
		}
		seen[tc.ID] = true
	}
}

// TestAccumulator_TrailingUsageOnlyDeltaStillEmits covers the shape OpenAI
// sends for include_usage: a chunk after the finish_reason chunk with no
// text, no tool-call fragments, and no finish reason, carrying only
// usage. Without special-casing it, Feed's "no parts, no finish" check
// would discard it and the usage would never reach the caller.
func TestAccumulator_TrailingUsageOnlyDeltaStillEmits(t *testing.T) {
	acc := New(zerolog.Nop())

	terminal, emitted := acc.Feed(&wire.StreamDelta{HasFinish: true, FinishReason: canonical.FinishStop})
	if !emitted {
		t.Fatal("expected terminal emission")
	}
	if terminal.Usage != nil {
		t.Fatalf("terminal.Usage = %+v, want nil before the trailing usage chunk arrives", terminal.Usage)
	}

	usage := &canonical.Usage{PromptTokens: 5, CompletionTokens: 3, TotalTokens: 8}
	chunk, emitted := acc.Feed(&wire.StreamDelta{Usage: usage})
	if !emitted {
		t.Fatal("expected the trailing usage-only delta to emit a chunk")
	}
	if len(chunk.Parts) != 0 {
		t.Errorf("Parts = %+v, want empty", chunk.Parts)
	}
	if chunk.Usage == nil || *chunk.Usage != *usage {
		t.Errorf("Usage = %+v, want %+v", chunk.Usage, usage)
	}
}
