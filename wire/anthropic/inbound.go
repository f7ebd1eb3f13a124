package anthropic

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/providererr"
	"github.com/loomcode/loomcode/wire"
)

// finishReasonTable maps Anthropic's stop_reason values to the canonical
// set. "tool_use" is mapped for completeness even though this stub never
// produces ToolCallPart entries.
var finishReasonTable = map[string]canonical.FinishReason{
	"end_turn":      canonical.FinishStop,
	"stop_sequence": canonical.FinishStop,
	"tool_use":      canonical.FinishStop,
	"max_tokens":    canonical.FinishMaxTokens,
}

func mapFinishReason(wireReason string) canonical.FinishReason {
	if fr, ok := finishReasonTable[wireReason]; ok {
		return fr
	}
	return canonical.FinishOther
}

func evalUsagePath(body []byte, expr string) int {
	if expr == "" {
		return 0
	}
	total := 0
	for _, op := range strings.Split(expr, "+") {
		path := strings.TrimSpace(op)
		if path == "" {
			continue
		}
		total += int(gjson.GetBytes(body, path).Int())
	}
	return total
}

// ParseChatResponse translates a non-streaming Anthropic Messages response
// into a canonical response. Only text content blocks are extracted;
// tool_use blocks are left unread until this stub grows tool support.
func (t *Translator) ParseChatResponse(body []byte) (*canonical.Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, &providererr.MalformedResponse{Reason: "response body is not valid JSON"}
	}

	rm := t.d.ResponseMapping

	var parts []canonical.Part
	if text := gjson.GetBytes(body, rm.Content).String(); text != "" {
		parts = append(parts, canonical.TextPart{Text: text})
	}

	stopReason := gjson.GetBytes(body, rm.FinishReason)
	if !stopReason.Exists() {
		return nil, &providererr.MalformedResponse{Path: rm.FinishReason, Reason: "path not present in response"}
	}

	usage := canonical.Usage{
		PromptTokens:     evalUsagePath(body, rm.Usage.PromptTokens),
		CompletionTokens: evalUsagePath(body, rm.Usage.CompletionTokens),
		TotalTokens:      evalUsagePath(body, rm.Usage.TotalTokens),
	}

	return &canonical.Response{
		Content:      canonical.Content{Role: canonical.RoleModel, Parts: parts},
		FinishReason: mapFinishReason(stopReason.String()),
		Usage:        usage,
	}, nil
}

// ParseStreamChunk decodes one Anthropic streaming event payload. Only
// text_delta content is read; content_block_start/stop tool-use framing is
// left to a future round of work on this adapter.
func (t *Translator) ParseStreamChunk(raw []byte) (*wire.StreamDelta, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &providererr.MalformedResponse{Reason: "stream chunk is not valid JSON"}
	}

	sp := t.d.ResponseMapping.Streaming
	delta := &wire.StreamDelta{}

	if sp.Delta != "" {
		delta.Text = gjson.GetBytes(raw, sp.Delta).String()
	}

	if sp.FinishReason != "" {
		fr := gjson.GetBytes(raw, sp.FinishReason)
		if fr.Exists() && fr.Type != gjson.Null && fr.String() != "" {
			delta.HasFinish = true
			delta.FinishReason = mapFinishReason(fr.String())
		}
	}

	return delta, nil
}

// ParseEmbedResponse is unreachable in practice for the same reason
// BuildEmbedRequest is.
func (t *Translator) ParseEmbedResponse(body []byte) (*canonical.EmbedResult, error) {
	return nil, &providererr.OperationUnsupported{Operation: "embed", AdapterType: t.d.AdapterType}
}
