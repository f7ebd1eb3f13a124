package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/loomcode/loomcode/providererr"
)

func writeSettingsFile(t *testing.T, content map[string]any) string {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSettings_RoundTrip(t *testing.T) {
	path := writeSettingsFile(t, map[string]any{
		"selectedAuthType": "custom-provider",
		"currentProvider":  "my-openai",
		"currentModel":     "gpt-4o",
		"customProviders": map[string]any{
			"my-openai": map[string]any{
				"id":          "my-openai",
				"name":        "My OpenAI",
				"adapterType": "openai",
				"baseUrl":     "https://api.openai.com/v1",
				"apiKey":      "$OPENAI_API_KEY",
				"models":      []string{"gpt-4o", "gpt-4o-mini"},
			},
		},
	})

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if !s.UsesCustomProvider() {
		t.Error("UsesCustomProvider() = false, want true")
	}

	rec, err := s.CurrentRecord()
	if err != nil {
		t.Fatalf("CurrentRecord() error = %v", err)
	}
	if rec.AdapterType != "openai" {
		t.Errorf("AdapterType = %q, want %q", rec.AdapterType, "openai")
	}
	if err := s.ValidateCurrentModel(rec); err != nil {
		t.Errorf("ValidateCurrentModel() error = %v", err)
	}
}

func TestCurrentRecord_NotConfigured(t *testing.T) {
	s := &Settings{}
	_, err := s.CurrentRecord()
	var notConfigured *providererr.ProviderNotConfigured
	if !errors.As(err, &notConfigured) {
		t.Fatalf("CurrentRecord() error = %v, want *providererr.ProviderNotConfigured", err)
	}
}

func TestCurrentRecord_UnknownProviderID(t *testing.T) {
	s := &Settings{CurrentProvider: "ghost", CustomProviders: map[string]UserProviderRecord{}}
	_, err := s.CurrentRecord()
	var notConfigured *providererr.ProviderNotConfigured
	if !errors.As(err, &notConfigured) {
		t.Fatalf("CurrentRecord() error = %v, want *providererr.ProviderNotConfigured", err)
	}
}

func TestValidateCurrentModel_Rejected(t *testing.T) {
	s := &Settings{CurrentModel: "not-enabled"}
	rec := &UserProviderRecord{ID: "p1", Models: []string{"gpt-4o"}}

	err := s.ValidateCurrentModel(rec)
	var notAvailable *providererr.ModelNotAvailable
	if !errors.As(err, &notAvailable) {
		t.Fatalf("ValidateCurrentModel() error = %v, want *providererr.ModelNotAvailable", err)
	}
}

func TestValidateCurrentModel_EmptyIsAllowed(t *testing.T) {
	s := &Settings{}
	rec := &UserProviderRecord{ID: "p1", Models: []string{"gpt-4o"}}
	if err := s.ValidateCurrentModel(rec); err != nil {
		t.Errorf("ValidateCurrentModel() error = %v, want nil for empty currentModel", err)
	}
}
