package descriptor

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/loomcode/loomcode/providererr"
)

func TestLoad_FromEmbeddedFallback(t *testing.T) {
	l := NewLoader(nil, zerolog.Nop())

	d, err := l.Load("openai")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.AdapterType != "openai" {
		t.Errorf("AdapterType = %q, want %q", d.AdapterType, "openai")
	}
	if d.Endpoints.Chat == "" {
		t.Error("Endpoints.Chat is empty")
	}
}

func TestLoad_UnknownAdapterType(t *testing.T) {
	l := NewLoader(nil, zerolog.Nop())

	_, err := l.Load("does-not-exist")
	var notFound *providererr.DescriptorNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("Load() error = %v, want *providererr.DescriptorNotFound", err)
	}
}

func TestLoad_FilesystemOverrideWinsOverEmbedded(t *testing.T) {
	dir := t.TempDir()
	overrideDir := filepath.Join(dir, "openai")
	if err := os.MkdirAll(overrideDir, 0o755); err != nil {
		t.Fatal(err)
	}

	custom := map[string]any{
		"adapterType": "openai",
		"endpoints":   map[string]any{"chat": "/v1/custom-chat"},
		"responseMapping": map[string]any{
			"content":      "choices.0.message.content",
			"finishReason": "choices.0.finish_reason",
			"usage": map[string]any{
				"promptTokens":     "usage.prompt_tokens",
				"completionTokens": "usage.completion_tokens",
				"totalTokens":      "usage.prompt_tokens + usage.completion_tokens",
			},
		},
		"tokenCounting": map[string]any{"method": "estimation"},
		"defaultModels": map[string]any{"x": map[string]any{}},
	}
	raw, err := json.Marshal(custom)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(overrideDir, "config.json"), raw, 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader([]string{dir}, zerolog.Nop())
	d, err := l.Load("openai")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if d.Endpoints.Chat != "/v1/custom-chat" {
		t.Errorf("Endpoints.Chat = %q, want override value", d.Endpoints.Chat)
	}
}

func TestLoad_InvalidDescriptorMissingRequiredKey(t *testing.T) {
	dir := t.TempDir()
	overrideDir := filepath.Join(dir, "broken")
	if err := os.MkdirAll(overrideDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(overrideDir, "config.json"), []byte(`{"adapterType":"broken"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader([]string{dir}, zerolog.Nop())
	_, err := l.Load("broken")
	var invalid *providererr.DescriptorInvalid
	if !errors.As(err, &invalid) {
		t.Fatalf("Load() error = %v, want *providererr.DescriptorInvalid", err)
	}
}

func TestLoad_CachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	overrideDir := filepath.Join(dir, "openai")
	if err := os.MkdirAll(overrideDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(overrideDir, "config.json")
	write := func(chatPath string) {
		custom := map[string]any{
			"adapterType": "openai",
			"endpoints":   map[string]any{"chat": chatPath},
			"responseMapping": map[string]any{
				"content":      "choices.0.message.content",
				"finishReason": "choices.0.finish_reason",
				"usage": map[string]any{
					"promptTokens":     "usage.prompt_tokens",
					"completionTokens": "usage.completion_tokens",
					"totalTokens":      "usage.prompt_tokens + usage.completion_tokens",
				},
			},
			"tokenCounting": map[string]any{"method": "estimation"},
			"defaultModels": map[string]any{"x": map[string]any{}},
		}
		raw, _ := json.Marshal(custom)
		_ = os.WriteFile(path, raw, 0o644)
	}
	write("/v1/first")

	l := NewLoader([]string{dir}, zerolog.Nop())
	d1, err := l.Load("openai")
	if err != nil {
		t.Fatal(err)
	}

	write("/v1/second")
	d2, err := l.Load("openai")
	if err != nil {
		t.Fatal(err)
	}
	if d1.Endpoints.Chat != d2.Endpoints.Chat {
		t.Errorf("expected cached descriptor to be reused, got %q then %q", d1.Endpoints.Chat, d2.Endpoints.Chat)
	}

	d3, err := l.Reload("openai")
	if err != nil {
		t.Fatal(err)
	}
	if d3.Endpoints.Chat != "/v1/second" {
		t.Errorf("Reload() Endpoints.Chat = %q, want %q", d3.Endpoints.Chat, "/v1/second")
	}
}
