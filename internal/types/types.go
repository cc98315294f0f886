// Package types provides the mapping-rules document model shared across
// vesmapper components.
//
// Documents arrive as JSON from the artifact store or an import request and
// are decoded into closed tagged unions (BaseCondition, Action). Decoding
// rejects documents that are not well-shaped (unknown actionType, malformed
// JSON); everything else, including empty required fields, is left for the
// validator in internal/rules to report as diagnostics.
package types

import "sort"

// VESCatalog maps a VES schema version to the set of event types it supports.
// Populated by a catalog provider; read-only once handed to the validator.
type VESCatalog map[string]map[string]struct{}

// Add registers eventType under version.
func (c VESCatalog) Add(version, eventType string) {
	set, ok := c[version]
	if !ok {
		set = make(map[string]struct{})
		c[version] = set
	}
	set[eventType] = struct{}{}
}

// Has reports whether the catalog lists eventType for version.
func (c VESCatalog) Has(version, eventType string) bool {
	set, ok := c[version]
	if !ok {
		return false
	}
	_, ok = set[eventType]
	return ok
}

// HasVersion reports whether the catalog knows version at all.
func (c VESCatalog) HasVersion(version string) bool {
	_, ok := c[version]
	return ok
}

// Versions returns the sorted versions in the catalog.
func (c VESCatalog) Versions() []string {
	out := make([]string, 0, len(c))
	for v := range c {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// EventTypes returns the sorted event types supported by version.
func (c VESCatalog) EventTypes(version string) []string {
	set := c[version]
	out := make([]string, 0, len(set))
	for et := range set {
		out = append(out, et)
	}
	sort.Strings(out)
	return out
}

// Resource limits enforced by the validator and translator.
const (
	// MaxConditionDepth bounds condition-group nesting. Deeper trees are
	// rejected so recursion depth stays bounded for hostile input.
	MaxConditionDepth = 64

	// MaxRulesPerDocument bounds the number of rules in one document.
	MaxRulesPerDocument = 4096

	// MaxDocumentSize limits the encoded document accepted by the decoder.
	MaxDocumentSize = 4 * 1024 * 1024
)
