// internal/rules/validate.go
package rules

import (
	"strconv"
	"strings"

	"github.com/solatis/vesmapper/internal/types"
)

/*
 * Rule validation.
 *
 * Walks a document and records every finding into a Diagnostics accumulator.
 * Validation is total: it never stops at the first failure, so the editor can
 * show all problems at once. Every validate function returns the AND of its
 * own checks and its children's results, and always visits all children.
 *
 * Nesting beyond the configured depth is reported once as
 * CONDITION_DEPTH_EXCEEDED and the subtree is not descended, keeping
 * recursion bounded for hostile input.
 */

// Validator checks mapping-rules documents. Stateless; safe for concurrent use.
type Validator struct {
	registry *Registry
	maxDepth int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithValidatorMaxDepth overrides the condition nesting limit.
func WithValidatorMaxDepth(depth int) ValidatorOption {
	return func(v *Validator) {
		if depth > 0 {
			v.maxDepth = depth
		}
	}
}

// NewValidator creates a validator backed by the default registry.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{
		registry: defaultRegistry,
		maxDepth: types.MaxConditionDepth,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateCondition validates a condition tree rooted at c.
func (v *Validator) ValidateCondition(c types.BaseCondition, diags *Diagnostics) bool {
	return v.validateCondition(c, 1, diags)
}

func (v *Validator) validateCondition(c types.BaseCondition, depth int, diags *Diagnostics) bool {
	if c == nil {
		diags.Add(CodeMissingConditionItem, "condition", "empty condition")
		return false
	}
	if depth > v.maxDepth {
		diags.Add(CodeConditionDepthExceeded, "condition", strconv.Itoa(v.maxDepth))
		return false
	}
	h, err := v.registry.condition(c)
	if err != nil {
		diags.fault(err)
		return false
	}
	return h.validate(v, c, depth, diags)
}

func validateLeafCondition(_ *Validator, c types.BaseCondition, _ int, diags *Diagnostics) bool {
	cond, _ := c.(*types.Condition)
	if cond == nil {
		diags.Add(CodeMissingConditionItem, "condition", "empty condition")
		return false
	}
	ok := true

	if strings.TrimSpace(cond.Left) == "" {
		diags.Add(CodeMissingOperand, "left", "left")
		ok = false
	}

	op, found := LookupOperator(cond.Operator)
	if !found {
		diags.Add(CodeInvalidOperator, "operator", cond.Operator)
		ok = false
	}

	// Unresolvable operators still get their right operand checked.
	if !found || !op.IsUnary() {
		if !nonEmptyAll(cond.Right) {
			diags.Add(CodeMissingOperand, "right", "right")
			ok = false
		}
	}
	return ok
}

func validateConditionGroup(v *Validator, c types.BaseCondition, depth int, diags *Diagnostics) bool {
	group, _ := c.(*types.ConditionGroup)
	if group == nil {
		diags.Add(CodeMissingConditionItem, "condition", "empty condition")
		return false
	}
	ok := true

	if _, found := LookupConditionType(group.Type); !found {
		diags.Add(CodeInvalidGroupCondition, "type", group.Type)
		ok = false
	}
	if len(group.Children) < 2 {
		diags.Add(CodeMissingConditionItem, "children", group.ID)
		ok = false
	}
	for _, child := range group.Children {
		ok = v.validateCondition(child, depth+1, diags) && ok
	}
	return ok
}

// ValidateAction validates one action.
func (v *Validator) ValidateAction(a types.Action, diags *Diagnostics) bool {
	if a == nil {
		diags.Add(CodeMissingActionField, "action", "action", "unknown", "")
		return false
	}
	h, err := v.registry.action(ActionType(a.Base().ActionType))
	if err != nil {
		diags.fault(err)
		return false
	}
	return h.validate(v, a, diags)
}

// ValidateRule validates one rule: its condition, phase/group pairing,
// description and every action.
func (v *Validator) ValidateRule(r *types.Rule, diags *Diagnostics) bool {
	if r == nil {
		diags.Add(CodeInvalidRuleFormat, "rule", "empty rule")
		return false
	}
	ok := true

	if r.IsConditional() {
		ok = v.validateCondition(r.Condition, 1, diags) && ok
	}
	if r.GroupID != "" && strings.TrimSpace(r.Phase) == "" {
		diags.Add(CodeInvalidRuleFormat, "phase", "phase is required when groupId is set")
		ok = false
	}
	if strings.TrimSpace(r.Description) == "" {
		diags.Add(CodeMissingRuleDesc, "description")
		ok = false
	}
	if len(r.Actions) == 0 {
		diags.Add(CodeMissingAction, "actions", r.UID)
		ok = false
	}
	for _, a := range r.Actions {
		ok = v.ValidateAction(a, diags) && ok
	}
	return ok
}

// ValidateMappingRules validates a whole document. When catalog is non-nil
// the document's VES coordinates are checked against it (the import path);
// a nil catalog skips that check.
func (v *Validator) ValidateMappingRules(doc *types.MappingRules, catalog types.VESCatalog, diags *Diagnostics) bool {
	if doc == nil {
		diags.Add(CodeInvalidRuleFormat, "mappingRules", "empty document")
		return false
	}
	ok := true

	if catalog != nil {
		if doc.Version == "" || doc.EventType == "" || !catalog.Has(doc.Version, doc.EventType) {
			diags.Add(CodeVESSchemaNotFound, "version", doc.Version, doc.EventType)
			ok = false
		}
	}
	if strings.TrimSpace(doc.EntryPhase) == "" || strings.TrimSpace(doc.PublishPhase) == "" {
		diags.Add(CodeInvalidRuleFormat, "phase", "entry and publish phases are required")
		ok = false
	}
	if doc.Filter != nil {
		ok = v.validateCondition(doc.Filter, 1, diags) && ok
	}

	rules := doc.Rules.Values()
	if len(rules) == 0 {
		diags.Add(CodeInvalidRuleFormat, "rules", "no rules")
		ok = false
	}
	ok = validatePhaseDefinitions(rules, diags) && ok
	for _, r := range rules {
		ok = v.ValidateRule(r, diags) && ok
	}
	return ok
}

// ValidateRuleForDocument validates a single rule about to be saved into doc,
// including the phase/group consistency it must keep with the other rules.
// A rule whose uid already exists in doc replaces it for the check.
func (v *Validator) ValidateRuleForDocument(doc *types.MappingRules, r *types.Rule, diags *Diagnostics) bool {
	ok := v.ValidateRule(r, diags)
	if doc == nil || r == nil {
		return ok
	}

	merged := make([]*types.Rule, 0, doc.Rules.Len()+1)
	replaced := false
	for _, existing := range doc.Rules.Values() {
		if existing.UID == r.UID {
			merged = append(merged, r)
			replaced = true
			continue
		}
		merged = append(merged, existing)
	}
	if !replaced {
		merged = append(merged, r)
	}
	return validatePhaseDefinitions(merged, diags) && ok
}

// validatePhaseDefinitions checks that either every rule declares a group
// (and each group has exactly one phase), or none does and phases are
// declared by all rules or by none.
func validatePhaseDefinitions(rules []*types.Rule, diags *Diagnostics) bool {
	var grouped, phased int
	for _, r := range rules {
		if r == nil {
			continue
		}
		if r.GroupID != "" {
			grouped++
		}
		if r.Phase != "" {
			phased++
		}
	}

	n := len(rules)
	valid := true
	switch {
	case grouped == 0:
		valid = phased == 0 || phased == n
	case grouped < n:
		valid = false
	default:
		groupPhase := make(map[string]string, n)
		for _, r := range rules {
			if r.Phase == "" {
				// Reported per rule by ValidateRule.
				continue
			}
			p, seen := groupPhase[r.GroupID]
			if !seen {
				groupPhase[r.GroupID] = r.Phase
				continue
			}
			if p != r.Phase {
				valid = false
				break
			}
		}
	}

	if !valid {
		diags.Add(CodeInvalidRuleFormat, "phase", "invalid phase definitions")
	}
	return valid
}

func nonEmptyAll(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, s := range values {
		if strings.TrimSpace(s) == "" {
			return false
		}
	}
	return true
}
