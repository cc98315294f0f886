package types

import (
	"github.com/google/uuid"
)

// NewRuleUID generates a UUIDv7 rule identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRuleUID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseRuleUID validates a rule identifier.
// Rejects malformed UUIDs so imported documents cannot smuggle arbitrary keys.
func ParseRuleUID(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// RegenerateUIDs assigns a fresh UID to every rule, keeping rule order.
// Used on import so an imported document never collides with rule UIDs of
// the document it replaces.
func (m *MappingRules) RegenerateUIDs() {
	if m.Rules == nil {
		return
	}
	fresh := NewRuleSet()
	for _, r := range m.Rules.Values() {
		r.UID = NewRuleUID()
		fresh.Set(r.UID, r)
	}
	m.Rules = fresh
}
