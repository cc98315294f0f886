// internal/rules/errors.go
package rules

import (
	"fmt"

	"github.com/solatis/vesmapper/internal/types"
)

// ConfigurationError reports a node that reached validation or translation
// with no registry entry, an unresolvable tag, or a shape the translator
// cannot handle. Translation aborts on the first one; no partial output is
// returned.
type ConfigurationError struct {
	Node   string // offending node, e.g. "rule r1 action a2 (regex)"
	Reason string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error at %s: %s", e.Node, e.Reason)
}

// Unwrap returns types.ErrConfiguration.
func (e *ConfigurationError) Unwrap() error {
	return types.ErrConfiguration
}

func configErrorf(node, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Node: node, Reason: fmt.Sprintf(format, args...)}
}

// InvalidDocumentError is returned when translation is requested for a
// document that fails validation.
type InvalidDocumentError struct {
	Diagnostics *Diagnostics
}

// Error implements the error interface.
func (e *InvalidDocumentError) Error() string {
	if e.Diagnostics == nil || e.Diagnostics.Len() == 0 {
		return types.ErrInvalidDocument.Error()
	}
	return fmt.Sprintf("%s: %v", types.ErrInvalidDocument, e.Diagnostics.Err())
}

// Unwrap returns types.ErrInvalidDocument.
func (e *InvalidDocumentError) Unwrap() error {
	return types.ErrInvalidDocument
}
