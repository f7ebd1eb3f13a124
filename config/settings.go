package config

import (
	"encoding/json"
	"os"

	"github.com/loomcode/loomcode/providererr"
)

// AuthTypeCustomProvider is the selectedAuthType value that routes the
// chat loop to this core.
const AuthTypeCustomProvider = "custom-provider"

// Settings is the subset of the persisted settings file this core reads.
// It never writes the file - that remains the UI's responsibility.
type Settings struct {
	SelectedAuthType string                        `json:"selectedAuthType"`
	CurrentProvider  string                         `json:"currentProvider"`
	CurrentModel     string                         `json:"currentModel"`
	CustomProviders  map[string]UserProviderRecord `json:"customProviders"`
}

// LoadSettings reads and parses the settings file at path.
func LoadSettings(path string) (*Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UsesCustomProvider reports whether this core should handle generation
// for the current session.
func (s *Settings) UsesCustomProvider() bool {
	return s.SelectedAuthType == AuthTypeCustomProvider
}

// CurrentRecord resolves currentProvider to its record, returning
// providererr.ProviderNotConfigured when currentProvider is unset or does
// not name a known record.
func (s *Settings) CurrentRecord() (*UserProviderRecord, error) {
	if s.CurrentProvider == "" {
		return nil, &providererr.ProviderNotConfigured{}
	}
	rec, ok := s.CustomProviders[s.CurrentProvider]
	if !ok {
		return nil, &providererr.ProviderNotConfigured{ProviderID: s.CurrentProvider}
	}
	return &rec, nil
}

// ValidateCurrentModel enforces the invariant that currentModel, when
// present, must appear in the referenced provider's models.
func (s *Settings) ValidateCurrentModel(record *UserProviderRecord) error {
	if s.CurrentModel == "" {
		return nil
	}
	if !record.HasModel(s.CurrentModel) {
		return &providererr.ModelNotAvailable{ProviderID: record.ID, ModelID: s.CurrentModel}
	}
	return nil
}
