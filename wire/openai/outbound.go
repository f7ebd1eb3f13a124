package openai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/wire"
)

// jsonModeInstruction is appended to the last user message's text whenever
// the caller asks for application/json output. No descriptor setting turns
// this rewrite off; it is applied alongside response_format.
const jsonModeInstruction = "\n\nRespond with strictly valid JSON only - no prose, no markdown code fences."

// BuildChatRequest translates a canonical request into an OpenAI-shaped
// chat-completions wire body.
func (t *Translator) BuildChatRequest(req *canonical.Request, opts wire.RequestOptions) ([]byte, error) {
	body := []byte(`{}`)

	body, err := sjson.SetBytes(body, "model", req.Model)
	if err != nil {
		return nil, err
	}

	messages, err := t.buildMessages(req, opts)
	if err != nil {
		return nil, err
	}
	msgRaw, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetRawBytes(body, "messages", msgRaw); err != nil {
		return nil, err
	}

	if len(req.Config.Tools) > 0 {
		toolsRaw, err := json.Marshal(t.buildTools(req.Config.Tools))
		if err != nil {
			return nil, err
		}
		if body, err = sjson.SetRawBytes(body, "tools", toolsRaw); err != nil {
			return nil, err
		}
	}

	body = t.applyParameters(body, req.Config)

	if req.Config.ResponseMIMEType == "application/json" {
		if body, err = sjson.SetBytes(body, "response_format.type", "json_object"); err != nil {
			return nil, err
		}
	}

	if opts.Stream {
		if body, err = sjson.SetBytes(body, "stream", true); err != nil {
			return nil, err
		}
	}

	return body, nil
}

func (t *Translator) buildMessages(req *canonical.Request, opts wire.RequestOptions) ([]map[string]any, error) {
	contents := req.Contents
	if req.Config.ResponseMIMEType == "application/json" {
		contents = appendJSONInstruction(contents)
	}

	var out []map[string]any
	if req.SystemInstruction != "" {
		out = append(out, map[string]any{"role": "system", "content": req.SystemInstruction})
	}

	for _, c := range contents {
		msgs, err := t.buildContentMessages(c, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, msgs...)
	}
	return out, nil
}

// appendJSONInstruction returns a copy of contents with the JSON-mode
// instruction appended to the last user message's last text part (or a new
// text part, if that message carries none). The input slice and its parts
// are never mutated in place.
func appendJSONInstruction(contents []canonical.Content) []canonical.Content {
	out := make([]canonical.Content, len(contents))
	copy(out, contents)

	lastUser := -1
	for i := range out {
		if out[i].Role == canonical.RoleUser {
			lastUser = i
		}
	}
	if lastUser == -1 {
		return out
	}

	parts := make([]canonical.Part, len(out[lastUser].Parts))
	copy(parts, out[lastUser].Parts)

	lastText := -1
	for i, p := range parts {
		if _, ok := p.(canonical.TextPart); ok {
			lastText = i
		}
	}
	if lastText == -1 {
		parts = append(parts, canonical.TextPart{Text: jsonModeInstruction})
	} else {
		tp := parts[lastText].(canonical.TextPart)
		tp.Text += jsonModeInstruction
		parts[lastText] = tp
	}

	out[lastUser] = canonical.Content{Role: out[lastUser].Role, Parts: parts}
	return out
}

// buildContentMessages translates one canonical content entry into wire
// messages. The first case that applies decides the output: tool-response
// parts become one tool message each; otherwise a model entry with tool
// calls becomes a single assistant tool-call message; otherwise the entry
// becomes one user/assistant text-and-image message. Parts that do not
// belong to the chosen case (e.g. text beside tool responses) are not sent.
func (t *Translator) buildContentMessages(c canonical.Content, opts wire.RequestOptions) ([]map[string]any, error) {
	var toolResponses []canonical.ToolResponsePart
	var toolCalls []canonical.ToolCallPart
	var texts []string
	var images []canonical.InlineDataPart

	for _, p := range c.Parts {
		switch v := p.(type) {
		case canonical.ToolResponsePart:
			toolResponses = append(toolResponses, v)
		case canonical.ToolCallPart:
			toolCalls = append(toolCalls, v)
		case canonical.TextPart:
			texts = append(texts, v.Text)
		case canonical.InlineDataPart:
			images = append(images, v)
		}
	}

	if len(toolResponses) > 0 {
		out := make([]map[string]any, 0, len(toolResponses))
		for _, tr := range toolResponses {
			content, err := stringifyToolResponse(tr.Response)
			if err != nil {
				return nil, err
			}
			out = append(out, map[string]any{
				"role":         "tool",
				"tool_call_id": tr.ID,
				"content":      content,
			})
		}
		return out, nil
	}

	if c.Role == canonical.RoleModel && len(toolCalls) > 0 {
		var content any
		if len(texts) > 0 {
			content = strings.Join(texts, "")
		}

		wireCalls := make([]map[string]any, len(toolCalls))
		for i, tc := range toolCalls {
			id := tc.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i)
			}
			args, err := json.Marshal(tc.Args)
			if err != nil {
				return nil, err
			}
			wireCalls[i] = map[string]any{
				"id":   id,
				"type": "function",
				"function": map[string]any{
					"name":      tc.Name,
					"arguments": string(args),
				},
			}
		}

		return []map[string]any{{
			"role":       "assistant",
			"content":    content,
			"tool_calls": wireCalls,
		}}, nil
	}

	role := "user"
	if c.Role == canonical.RoleModel {
		role = "assistant"
	}

	hasImage := false
	for _, img := range images {
		if img.IsImage() {
			hasImage = true
			break
		}
	}

	if hasImage && opts.SupportsVision {
		parts := make([]map[string]any, 0, len(texts)+len(images))
		for _, txt := range texts {
			parts = append(parts, map[string]any{"type": "text", "text": txt})
		}
		for _, img := range images {
			if !img.IsImage() {
				continue
			}
			url := fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
			parts = append(parts, map[string]any{
				"type":      "image_url",
				"image_url": map[string]any{"url": url},
			})
		}
		return []map[string]any{{"role": role, "content": parts}}, nil
	}

	return []map[string]any{{"role": role, "content": strings.Join(texts, "")}}, nil
}

func stringifyToolResponse(resp any) (string, error) {
	if s, ok := resp.(string); ok {
		return s, nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (t *Translator) buildTools(tools []canonical.Tool) []map[string]any {
	decls := canonical.NormalizeTools(tools)
	out := make([]map[string]any, len(decls))
	for i, d := range decls {
		out[i] = map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        d.Name,
				"description": d.Description,
				"parameters":  coerceSchema(d.Parameters),
			},
		}
	}
	return out
}

func (t *Translator) applyParameters(body []byte, cfg canonical.GenerateConfig) []byte {
	pm := t.d.ParameterMapping

	set := func(path string, val any) {
		if path == "" {
			return
		}
		if next, err := sjson.SetBytes(body, path, val); err == nil {
			body = next
		}
	}

	if cfg.Temperature != nil {
		set(pm.Temperature, *cfg.Temperature)
	}
	if cfg.TopP != nil {
		set(pm.TopP, *cfg.TopP)
	}
	if cfg.MaxOutputTokens != nil {
		set(pm.MaxOutputTokens, *cfg.MaxOutputTokens)
	}
	if len(cfg.StopSequences) > 0 {
		set(pm.StopSequences, cfg.StopSequences)
	}
	if cfg.PresencePenalty != nil {
		set(pm.PresencePenalty, *cfg.PresencePenalty)
	}
	if cfg.FrequencyPenalty != nil {
		set(pm.FrequencyPenalty, *cfg.FrequencyPenalty)
	}

	return body
}

// BuildEmbedRequest translates a flattened content string into an embedding
// wire body using the hard-coded legacy embedding model.
func (t *Translator) BuildEmbedRequest(text string) ([]byte, error) {
	body := []byte(`{}`)
	body, err := sjson.SetBytes(body, "model", embeddingModel)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "input", text)
}
