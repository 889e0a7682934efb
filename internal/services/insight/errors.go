package insight

import (
	"errors"
	"fmt"

	"github.com/mingmanhk/deepticker/internal/models"
)

// ErrProviderUnconfigured means the requested provider has no stored
// credential. Analysis is never attempted silently without one.
var ErrProviderUnconfigured = errors.New("provider has no stored credential")

// ErrNoProviderSelected means no provider was requested and the default
// provider is not credentialed, so selection stays empty until the
// user chooses.
var ErrNoProviderSelected = errors.New("no provider selected")

// RequestError wraps a transport or HTTP failure from a provider.
// Retry only happens on explicit user action, never automatically.
type RequestError struct {
	Provider models.ProviderID
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("provider %s request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ParseError means the provider's response could not be coerced into
// the requested insight variant. Raw preserves the provider text for
// diagnostics; it is never replaced with fabricated structured data.
type ParseError struct {
	Provider models.ProviderID
	Kind     models.InsightKind
	Raw      string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response into %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
