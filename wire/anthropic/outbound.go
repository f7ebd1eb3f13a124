package anthropic

import (
	"encoding/base64"
	"encoding/json"

	"github.com/tidwall/sjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/providererr"
	"github.com/loomcode/loomcode/wire"
)

const defaultMaxTokens = 1024

// BuildChatRequest builds an Anthropic Messages request body. Tool
// declarations and tool-call/tool-response parts are out of scope for
// this translator and raise OperationUnsupported rather than silently
// dropping the caller's intent.
func (t *Translator) BuildChatRequest(req *canonical.Request, opts wire.RequestOptions) ([]byte, error) {
	if len(req.Config.Tools) > 0 {
		return nil, &providererr.OperationUnsupported{Operation: "tool declarations", AdapterType: t.d.AdapterType}
	}

	body := []byte(`{}`)
	body, err := sjson.SetBytes(body, "model", req.Model)
	if err != nil {
		return nil, err
	}
	if req.SystemInstruction != "" {
		if body, err = sjson.SetBytes(body, "system", req.SystemInstruction); err != nil {
			return nil, err
		}
	}

	maxTokens := defaultMaxTokens
	if req.Config.MaxOutputTokens != nil {
		maxTokens = *req.Config.MaxOutputTokens
	}
	if body, err = sjson.SetBytes(body, "max_tokens", maxTokens); err != nil {
		return nil, err
	}

	messages, err := t.buildMessages(req.Contents)
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

	return t.applyParameters(body, req.Config)
}

func (t *Translator) buildMessages(contents []canonical.Content) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(contents))
	for _, c := range contents {
		role := "user"
		if c.Role == canonical.RoleModel {
			role = "assistant"
		}
		blocks, err := t.buildContentBlocks(c.Parts)
		if err != nil {
			return nil, err
		}
		out = append(out, map[string]any{"role": role, "content": blocks})
	}
	return out, nil
}

func (t *Translator) buildContentBlocks(parts []canonical.Part) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case canonical.TextPart:
			out = append(out, map[string]any{"type": "text", "text": v.Text})
		case canonical.InlineDataPart:
			if !v.IsImage() {
				continue
			}
			out = append(out, map[string]any{
				"type": "image",
				"source": map[string]any{
					"type":       "base64",
					"media_type": v.MIMEType,
					"data":       base64.StdEncoding.EncodeToString(v.Data),
				},
			})
		case canonical.ToolCallPart, canonical.ToolResponsePart:
			return nil, &providererr.OperationUnsupported{Operation: "tool calls", AdapterType: t.d.AdapterType}
		}
	}
	return out, nil
}

func (t *Translator) applyParameters(body []byte, cfg canonical.GenerateConfig) ([]byte, error) {
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
	if len(cfg.StopSequences) > 0 {
		set(pm.StopSequences, cfg.StopSequences)
	}
	return body, nil
}

// BuildEmbedRequest is unreachable in practice: the Anthropic Messages API
// has no embeddings endpoint, and transport guards on
// descriptor.Endpoints.Embedding being empty before ever calling this.
func (t *Translator) BuildEmbedRequest(text string) ([]byte, error) {
	return nil, &providererr.OperationUnsupported{Operation: "embed", AdapterType: t.d.AdapterType}
}
