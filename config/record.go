// Package config implements the layered configuration resolver and the
// persisted-settings reader. It generalizes a closed set of compiled-in
// providers to an open, descriptor-driven set of adapter types and
// user-editable records.
package config

import "time"

// UserProviderRecord is a user's per-provider configuration entry,
// persisted in the settings file under customProviders.
type UserProviderRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AdapterType string `json:"adapterType"`

	BaseURL string `json:"baseUrl"`
	// APIKey is either a literal value or "$ENV_NAME" referencing an
	// environment variable. Resolve it with ResolveAPIKey, never read it
	// directly.
	APIKey string `json:"apiKey"`

	// Models is the ordered list of enabled model ids; Models[0] is the
	// default model for this provider.
	Models []string `json:"models"`

	// ModelOverrides is a per-model partial override of the descriptor's
	// DefaultModel entry. Kept as a raw map (not a typed struct) so that an
	// explicit JSON null in an override field can be distinguished from a
	// field the user simply didn't set.
	ModelOverrides map[string]map[string]any `json:"modelOverrides,omitempty"`

	// ProviderOverrides holds timeout, maxRetries, customHeaders, and any
	// other provider-level overrides.
	ProviderOverrides map[string]any `json:"providerOverrides,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultModel returns the record's configured default model id (the
// first entry in Models), or "" if none are enabled.
func (r *UserProviderRecord) DefaultModel() string {
	if len(r.Models) == 0 {
		return ""
	}
	return r.Models[0]
}

// HasModel reports whether modelID is in the record's enabled models.
func (r *UserProviderRecord) HasModel(modelID string) bool {
	for _, m := range r.Models {
		if m == modelID {
			return true
		}
	}
	return false
}
