package openai

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/providererr"
	"github.com/loomcode/loomcode/wire"
)

// finishReasonTable is the fixed wire-to-canonical finish-reason mapping.
var finishReasonTable = map[string]canonical.FinishReason{
	"stop":           canonical.FinishStop,
	"tool_calls":     canonical.FinishStop,
	"length":         canonical.FinishMaxTokens,
	"content_filter": canonical.FinishSafety,
}

func mapFinishReason(wireReason string) canonical.FinishReason {
	if fr, ok := finishReasonTable[wireReason]; ok {
		return fr
	}
	return canonical.FinishOther
}

// evalUsagePath resolves a usage path expression, which may be a sum of
// several dotted paths joined by "+". Missing operands count as 0.
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

// siblingPath swaps the final segment of a dotted path for a new one, e.g.
// "choices.0.message.content" -> "choices.0.message.tool_calls".
func siblingPath(path, newLeaf string) string {
	idx := strings.LastIndex(path, ".")
	if idx == -1 {
		return newLeaf
	}
	return path[:idx+1] + newLeaf
}

// ParseChatResponse translates a non-streaming OpenAI-shaped chat response
// into a canonical response.
func (t *Translator) ParseChatResponse(body []byte) (*canonical.Response, error) {
	if !gjson.ValidBytes(body) {
		return nil, &providererr.MalformedResponse{Reason: "response body is not valid JSON"}
	}

	rm := t.d.ResponseMapping

	finishResult := gjson.GetBytes(body, rm.FinishReason)
	if !finishResult.Exists() {
		return nil, &providererr.MalformedResponse{Path: rm.FinishReason, Reason: "path not present in response"}
	}

	var parts []canonical.Part

	contentResult := gjson.GetBytes(body, rm.Content)
	if contentResult.Exists() && contentResult.String() != "" {
		parts = append(parts, canonical.TextPart{Text: contentResult.String()})
	}

	toolCallsResult := gjson.GetBytes(body, siblingPath(rm.Content, "tool_calls"))
	for i, tc := range toolCallsResult.Array() {
		parts = append(parts, decodeToolCall(tc, i))
	}

	usage := canonical.Usage{
		PromptTokens:     evalUsagePath(body, rm.Usage.PromptTokens),
		CompletionTokens: evalUsagePath(body, rm.Usage.CompletionTokens),
		TotalTokens:      evalUsagePath(body, rm.Usage.TotalTokens),
	}

	return &canonical.Response{
		Content:      canonical.Content{Role: canonical.RoleModel, Parts: parts},
		FinishReason: mapFinishReason(finishResult.String()),
		Usage:        usage,
	}, nil
}

// decodeToolCall decodes one wire tool_calls array entry. Unparseable
// arguments become an empty args map rather than a hard failure.
func decodeToolCall(tc gjson.Result, index int) canonical.ToolCallPart {
	id := tc.Get("id").String()
	if id == "" {
		id = "call_" + strconv.Itoa(index)
	}

	args := map[string]any{}
	if raw := tc.Get("function.arguments").String(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			args = map[string]any{}
		}
	}

	return canonical.ToolCallPart{
		ID:   id,
		Name: tc.Get("function.name").String(),
		Args: args,
	}
}

// ParseStreamChunk decodes one SSE data-line payload into a StreamDelta,
// leaving accumulation to package stream.
func (t *Translator) ParseStreamChunk(raw []byte) (*wire.StreamDelta, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &providererr.MalformedResponse{Reason: "stream chunk is not valid JSON"}
	}

	sp := t.d.ResponseMapping.Streaming
	delta := &wire.StreamDelta{}

	if sp.Delta != "" {
		delta.Text = gjson.GetBytes(raw, sp.Delta).String()
	}

	if sp.ToolCallsDelta != "" {
		for i, tc := range gjson.GetBytes(raw, sp.ToolCallsDelta).Array() {
			idx := i
			if v := tc.Get("index"); v.Exists() {
				idx = int(v.Int())
			}
			delta.ToolCallDeltas = append(delta.ToolCallDeltas, wire.ToolCallDelta{
				Index:     idx,
				ID:        tc.Get("id").String(),
				Name:      tc.Get("function.name").String(),
				Arguments: tc.Get("function.arguments").String(),
			})
		}
	}

	if sp.FinishReason != "" {
		fr := gjson.GetBytes(raw, sp.FinishReason)
		if fr.Exists() && fr.Type != gjson.Null {
			delta.HasFinish = true
			delta.FinishReason = mapFinishReason(fr.String())
		}
	}

	rm := t.d.ResponseMapping
	if gjson.GetBytes(raw, "usage").Exists() {
		delta.Usage = &canonical.Usage{
			PromptTokens:     evalUsagePath(raw, rm.Usage.PromptTokens),
			CompletionTokens: evalUsagePath(raw, rm.Usage.CompletionTokens),
			TotalTokens:      evalUsagePath(raw, rm.Usage.TotalTokens),
		}
	}

	return delta, nil
}

// ParseEmbedResponse extracts the single embedding vector from an OpenAI
// embeddings response.
func (t *Translator) ParseEmbedResponse(body []byte) (*canonical.EmbedResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, &providererr.MalformedResponse{Reason: "embedding response is not valid JSON"}
	}

	result := gjson.GetBytes(body, "data.0.embedding")
	if !result.Exists() {
		return nil, &providererr.MalformedResponse{Path: "data.0.embedding", Reason: "path not present in response"}
	}

	values := make([]float64, 0, len(result.Array()))
	for _, v := range result.Array() {
		values = append(values, v.Float())
	}

	return &canonical.EmbedResult{Embeddings: []canonical.Embedding{{Values: values}}}, nil
}
