package openai

import (
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/loomcode/loomcode/canonical"
	"github.com/loomcode/loomcode/descriptor"
	"github.com/loomcode/loomcode/wire"
)

func testTranslator() *Translator {
	return New(&descriptor.Descriptor{
		ParameterMapping: descriptor.ParameterMapping{
			Temperature:      "temperature",
			TopP:             "top_p",
			MaxOutputTokens:  "max_tokens",
			StopSequences:    "stop",
			PresencePenalty:  "presence_penalty",
			FrequencyPenalty: "frequency_penalty",
		},
	})
}

func TestBuildChatRequest_ToolResponseRoundTrip(t *testing.T) {
	req := &canonical.Request{
		Model: "m1",
		Contents: []canonical.Content{
			{Role: canonical.RoleUser, Parts: []canonical.Part{
				canonical.ToolResponsePart{ID: "t1", Response: map[string]any{"ok": true}},
			}},
		},
	}

	body, err := testTranslator().BuildChatRequest(req, wire.RequestOptions{})
	if err != nil {
		t.Fatalf("BuildChatRequest() error = %v", err)
	}

	msgs := gjson.GetBytes(body, "messages").Array()
	if len(msgs) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Get("role").String() != "tool" {
		t.Errorf("role = %q, want tool", m.Get("role").String())
	}
	if m.Get("tool_call_id").String() != "t1" {
		t.Errorf("tool_call_id = %q, want t1", m.Get("tool_call_id").String())
	}
	if m.Get("content").String() != `{"ok":true}` {
		t.Errorf("content = %q, want %q", m.Get("content").String(), `{"ok":true}`)
	}
}

func TestBuildChatRequest_SchemaCoercion(t *testing.T) {
	req := &canonical.Request{
		Model: "m1",
		Contents: []canonical.Content{
			{Role: canonical.RoleUser, Parts: []canonical.Part{canonical.TextPart{Text: "hi"}}},
		},
		Config: canonical.GenerateConfig{
			Tools: []canonical.Tool{
				canonical.DirectTool{Declaration: canonical.ToolDeclaration{
					Name: "setCount",
					Parameters: map[string]any{
						"type": "OBJECT",
						"properties": map[string]any{
							"count": map[string]any{"type": "INTEGER", "minimum": "5"},
						},
					},
				}},
			},
		},
	}

	body, err := testTranslator().BuildChatRequest(req, wire.RequestOptions{})
	if err != nil {
		t.Fatalf("BuildChatRequest() error = %v", err)
	}

	tool := gjson.GetBytes(body, "tools.0")
	if got := tool.Get("function.parameters.type").String(); got != "object" {
		t.Errorf("parameters.type = %q, want object", got)
	}
	count := tool.Get("function.parameters.properties.count")
	if got := count.Get("type").String(); got != "integer" {
		t.Errorf("count.type = %q, want integer", got)
	}
	minVal := count.Get("minimum")
	if minVal.Type != gjson.Number {
		t.Errorf("count.minimum type = %v, want Number", minVal.Type)
	}
	if minVal.Float() != 5 {
		t.Errorf("count.minimum = %v, want 5", minVal.Float())
	}
}

func TestBuildChatRequest_JSONResponseMode(t *testing.T) {
	req := &canonical.Request{
		Model: "m1",
		Contents: []canonical.Content{
			{Role: canonical.RoleUser, Parts: []canonical.Part{canonical.TextPart{Text: "give me data"}}},
		},
		Config: canonical.GenerateConfig{ResponseMIMEType: "application/json"},
	}

	body, err := testTranslator().BuildChatRequest(req, wire.RequestOptions{})
	if err != nil {
		t.Fatalf("BuildChatRequest() error = %v", err)
	}

	if got := gjson.GetBytes(body, "response_format.type").String(); got != "json_object" {
		t.Errorf("response_format.type = %q, want json_object", got)
	}

	lastMsg := gjson.GetBytes(body, "messages.0.content").String()
	if !strings.HasPrefix(lastMsg, "give me data") || lastMsg == "give me data" {
		t.Errorf("last user message %q does not demand strict JSON", lastMsg)
	}
}

func TestBuildChatRequest_ModelToolCallMessage(t *testing.T) {
	req := &canonical.Request{
		Model: "m1",
		Contents: []canonical.Content{
			{Role: canonical.RoleModel, Parts: []canonical.Part{
				canonical.ToolCallPart{ID: "t1", Name: "readFile", Args: map[string]any{"path": "/x"}},
			}},
		},
	}

	body, err := testTranslator().BuildChatRequest(req, wire.RequestOptions{})
	if err != nil {
		t.Fatalf("BuildChatRequest() error = %v", err)
	}

	m := gjson.GetBytes(body, "messages.0")
	if m.Get("role").String() != "assistant" {
		t.Errorf("role = %q, want assistant", m.Get("role").String())
	}
	tc := m.Get("tool_calls.0")
	if tc.Get("id").String() != "t1" || tc.Get("function.name").String() != "readFile" {
		t.Errorf("tool_calls.0 = %v", tc)
	}
	if tc.Get("function.arguments").String() != `{"path":"/x"}` {
		t.Errorf("arguments = %q", tc.Get("function.arguments").String())
	}
}

func TestBuildChatRequest_Parameters(t *testing.T) {
	temp := 0.5
	maxTok := 100
	req := &canonical.Request{
		Model: "m1",
		Contents: []canonical.Content{
			{Role: canonical.RoleUser, Parts: []canonical.Part{canonical.TextPart{Text: "hi"}}},
		},
		Config: canonical.GenerateConfig{
			Temperature:     &temp,
			MaxOutputTokens: &maxTok,
			StopSequences:   []string{"END"},
		},
	}

	body, err := testTranslator().BuildChatRequest(req, wire.RequestOptions{})
	if err != nil {
		t.Fatalf("BuildChatRequest() error = %v", err)
	}

	if gjson.GetBytes(body, "temperature").Float() != 0.5 {
		t.Errorf("temperature = %v, want 0.5", gjson.GetBytes(body, "temperature").Float())
	}
	if gjson.GetBytes(body, "max_tokens").Int() != 100 {
		t.Errorf("max_tokens = %v, want 100", gjson.GetBytes(body, "max_tokens").Int())
	}
	if gjson.GetBytes(body, "stop.0").String() != "END" {
		t.Errorf("stop.0 = %q, want END", gjson.GetBytes(body, "stop.0").String())
	}
}
