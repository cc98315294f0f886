package types

/*
 * Mapping-rules document model.
 *
 * A MappingRules document holds an optional top-level filter and an ordered
 * set of rules. Each rule gates a flat list of actions behind an optional
 * condition tree.
 *
 * Key types:
 *   - MappingRules: the full rule-editor document for one component parameter
 *   - RuleSet: insertion-ordered uid -> Rule map
 *   - Rule: one condition + actions unit
 *   - BaseCondition: closed union of *Condition (leaf) and *ConditionGroup
 *
 * Tree-shaped by construction: decoding never produces shared or cyclic nodes.
 */

// MappingRules is the rule-editor document for one configuration parameter.
type MappingRules struct {
	Version      string        // VES schema version
	EventType    string        // VES event type
	NotifyID     string        // optional SNMP notify OID, carried through untouched
	EntryPhase   string        // synthetic entry phase name
	PublishPhase string        // synthetic publish phase name
	Filter       BaseCondition // optional top-level gate (nil = none)
	Rules        *RuleSet
}

// IsGrouped reports whether any rule declares a group id.
func (m *MappingRules) IsGrouped() bool {
	if m.Rules == nil {
		return false
	}
	for _, r := range m.Rules.Values() {
		if r.GroupID != "" {
			return true
		}
	}
	return false
}

// Rule is one condition + actions unit.
type Rule struct {
	UID         string
	Description string
	Phase       string        // required iff GroupID is set
	GroupID     string        // empty = ungrouped
	Condition   BaseCondition // nil = unconditional
	Actions     []Action
}

// IsConditional reports whether the rule is gated by a condition.
func (r *Rule) IsConditional() bool {
	return r.Condition != nil
}

// BaseCondition is either a leaf *Condition or a *ConditionGroup.
type BaseCondition interface {
	conditionNode()
	// NodeID returns the editor-assigned id of the node (may be empty).
	NodeID() string
}

// Condition is a leaf comparison: left <operator> right[...].
type Condition struct {
	ID              string
	Left            string
	Operator        string
	Right           []string
	EmptyIsAssigned bool
}

func (*Condition) conditionNode() {}

// NodeID implements BaseCondition.
func (c *Condition) NodeID() string { return c.ID }

// ConditionGroup combines two or more child conditions.
type ConditionGroup struct {
	ID       string
	Type     string // group combinator tag (All, Any, Not, ...)
	Children []BaseCondition
}

func (*ConditionGroup) conditionNode() {}

// NodeID implements BaseCondition.
func (g *ConditionGroup) NodeID() string { return g.ID }

// RuleSet is an insertion-ordered map of rule uid to rule.
// Order matters for ungrouped translation and for group discovery order.
type RuleSet struct {
	keys  []string
	rules map[string]*Rule
}

// NewRuleSet returns an empty RuleSet.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[string]*Rule)}
}

// Set inserts or replaces the rule under uid. Replacing keeps the original position.
func (s *RuleSet) Set(uid string, r *Rule) {
	if _, ok := s.rules[uid]; !ok {
		s.keys = append(s.keys, uid)
	}
	s.rules[uid] = r
}

// Get returns the rule stored under uid.
func (s *RuleSet) Get(uid string) (*Rule, bool) {
	r, ok := s.rules[uid]
	return r, ok
}

// Delete removes uid, preserving the order of the remaining rules.
func (s *RuleSet) Delete(uid string) {
	if _, ok := s.rules[uid]; !ok {
		return
	}
	delete(s.rules, uid)
	for i, k := range s.keys {
		if k == uid {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns rule uids in insertion order.
func (s *RuleSet) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Values returns rules in insertion order.
func (s *RuleSet) Values() []*Rule {
	if s == nil {
		return nil
	}
	out := make([]*Rule, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, s.rules[k])
	}
	return out
}
