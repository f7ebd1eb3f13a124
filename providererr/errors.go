// Package providererr defines the error taxonomy adapters surface to the
// chat loop. Each kind is a distinct type so callers can branch with
// errors.As instead of matching on message text.
package providererr

import "fmt"

// DescriptorNotFound is raised when no descriptor file exists for an
// adapterType at any searched location.
type DescriptorNotFound struct {
	AdapterType string
}

func (e *DescriptorNotFound) Error() string {
	return fmt.Sprintf("providererr: no adapter descriptor found for type %q", e.AdapterType)
}

// DescriptorInvalid is raised when a descriptor file exists but fails to
// parse or is missing a required top-level key.
type DescriptorInvalid struct {
	AdapterType string
	Reason      string
}

func (e *DescriptorInvalid) Error() string {
	return fmt.Sprintf("providererr: adapter descriptor %q is invalid: %s", e.AdapterType, e.Reason)
}

// UnknownAdapterType is raised when a provider record names an adapterType
// that has no registered constructor.
type UnknownAdapterType struct {
	AdapterType string
}

func (e *UnknownAdapterType) Error() string {
	return fmt.Sprintf("providererr: unknown adapter type %q", e.AdapterType)
}

// ProviderNotConfigured is raised when currentProvider is absent or does
// not resolve to a record.
type ProviderNotConfigured struct {
	ProviderID string
}

func (e *ProviderNotConfigured) Error() string {
	if e.ProviderID == "" {
		return "providererr: no current provider configured"
	}
	return fmt.Sprintf("providererr: provider %q is not configured", e.ProviderID)
}

// ModelNotAvailable is raised when currentModel does not appear in the
// referenced provider's enabled models.
type ModelNotAvailable struct {
	ProviderID string
	ModelID    string
}

func (e *ModelNotAvailable) Error() string {
	return fmt.Sprintf("providererr: model %q is not enabled for provider %q", e.ModelID, e.ProviderID)
}

// HTTPError wraps a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	StatusText string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("providererr: backend returned HTTP %d %s: %s", e.StatusCode, e.StatusText, e.Message)
	}
	return fmt.Sprintf("providererr: backend returned HTTP %d %s", e.StatusCode, e.StatusText)
}

// AuthError specializes HTTPError for statuses the descriptor marks as
// authentication failures.
type AuthError struct {
	*HTTPError
}

// Unwrap exposes the embedded HTTPError to errors.As and errors.Is.
func (e *AuthError) Unwrap() error { return e.HTTPError }

// RateLimited specializes HTTPError for statuses the descriptor marks as
// rate-limit or quota failures.
type RateLimited struct {
	*HTTPError
}

// Unwrap exposes the embedded HTTPError to errors.As and errors.Is.
func (e *RateLimited) Unwrap() error { return e.HTTPError }

// Timeout is raised when a request is aborted by its resolved timeout, or
// when the transport classifies a transport-layer error as a timeout.
type Timeout struct {
	Phase      string // "request" or "stream-setup"
	TimeoutMS  int
	Remediation string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("providererr: %s timed out after %dms\n%s", e.Phase, e.TimeoutMS, e.Remediation)
}

// MalformedResponse is raised when a response body cannot be parsed, or a
// required responseMapping path is missing.
type MalformedResponse struct {
	Path   string
	Reason string
}

func (e *MalformedResponse) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("providererr: malformed response at path %q: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("providererr: malformed response: %s", e.Reason)
}

// OperationUnsupported is raised when an operation has no corresponding
// endpoint in the descriptor (e.g. embed() with no endpoints.embedding).
type OperationUnsupported struct {
	Operation   string
	AdapterType string
}

func (e *OperationUnsupported) Error() string {
	return fmt.Sprintf("providererr: operation %q is not supported by adapter %q", e.Operation, e.AdapterType)
}

// RemediationTimeout is the multi-line guidance attached to Timeout errors.
const RemediationTimeout = `request timed out. Try one of:
  - reduce the size of the request (fewer/shorter messages, less context)
  - raise the provider's configured timeout
  - check network connectivity to the provider's baseUrl
  - switch to streaming mode, which surfaces partial output sooner`
