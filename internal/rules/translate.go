// internal/rules/translate.go
package rules

import (
	"github.com/solatis/vesmapper/internal/types"
)

/*
 * Rule translation.
 *
 * Compiles a validated MappingRules document into the phase-linked Pipeline
 * consumed by the downstream engine.
 *
 * Translation workflow:
 *   1. Translate each rule: condition -> Filter, actions -> folded Processors
 *   2. Assemble rule translations in insertion order (ungrouped) or by group
 *      discovery order, threading RunPhase on each new phase (grouped)
 *   3. Prepend the synthetic entry translation gated by the top-level filter
 *   4. Append RunPhase(publishPhase) to the last translation
 *
 * Leaf conditions have two encodings. At the top of a rule (direct path) a
 * multi-value operand on an operator without an always-multi encoding
 * becomes an Or group of single-value filters. Inside a group (child path)
 * it uses the operator's multi-value sibling class when one exists.
 *
 * Group flattening splices immediate child groups of the same class into the
 * parent, so AND(AND(a,b),c) and AND(a,b,c) translate identically. Children
 * are translated before the splice, so flattening composes bottom-up.
 *
 * The exported entry points validate their input first and refuse anything
 * with a finding, naming the first offending node in a ConfigurationError.
 * Anything the compiler itself cannot handle is also a ConfigurationError
 * and aborts the whole call; no partial Pipeline is returned.
 */

// DefaultRulePhase is the phase of ungrouped rules that declare none.
const DefaultRulePhase = "snmp_map"

// Translator compiles documents into pipelines. Stateless; safe for
// concurrent use.
type Translator struct {
	registry  *Registry
	validator *Validator
	maxDepth  int
}

// TranslatorOption configures a Translator.
type TranslatorOption func(*Translator)

// WithTranslatorMaxDepth overrides the condition nesting limit.
func WithTranslatorMaxDepth(depth int) TranslatorOption {
	return func(t *Translator) {
		if depth > 0 {
			t.maxDepth = depth
		}
	}
}

// NewTranslator creates a translator backed by the default registry.
func NewTranslator(opts ...TranslatorOption) *Translator {
	t := &Translator{
		registry: defaultRegistry,
		maxDepth: types.MaxConditionDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.validator = &Validator{registry: t.registry, maxDepth: t.maxDepth}
	return t
}

// Translate validates doc and compiles it into a Pipeline. A document with
// any validation finding is refused with a *ConfigurationError.
func (t *Translator) Translate(doc *types.MappingRules) (*Pipeline, error) {
	if err := t.checkDocument(doc); err != nil {
		return nil, err
	}
	return t.translate(doc)
}

// checkDocument validates doc and reports its first finding, attributed to
// the rule that carries it when there is one.
func (t *Translator) checkDocument(doc *types.MappingRules) error {
	if doc == nil {
		return configErrorf("mappingRules", "nil document")
	}
	diags := &Diagnostics{}
	t.validator.ValidateMappingRules(doc, nil, diags)
	if err := diags.Fault(); err != nil {
		return err
	}
	if diags.Len() == 0 {
		return nil
	}
	for _, r := range doc.Rules.Values() {
		if err := t.checkRule(r); err != nil {
			return err
		}
	}
	return rejectInput("mappingRules", diags)
}

func (t *Translator) checkRule(r *types.Rule) error {
	node := "rule"
	if r != nil {
		node = "rule " + r.UID
	}
	diags := &Diagnostics{}
	t.validator.ValidateRule(r, diags)
	if err := diags.Fault(); err != nil {
		return err
	}
	return rejectInput(node, diags)
}

// rejectInput turns the first finding in diags into a ConfigurationError
// under node, or returns nil when there is none.
func rejectInput(node string, diags *Diagnostics) error {
	if diags.Len() == 0 {
		return nil
	}
	d := diags.Items[0]
	if d.OffendingField != "" {
		node += " " + d.OffendingField
	}
	if n := diags.Len(); n > 1 {
		return configErrorf(node, "invalid input: %s (and %d more)", d.Message(), n-1)
	}
	return configErrorf(node, "invalid input: %s", d.Message())
}

// translate compiles a document that has already passed validation.
func (t *Translator) translate(doc *types.MappingRules) (*Pipeline, error) {
	if doc == nil {
		return nil, configErrorf("mappingRules", "nil document")
	}
	if doc.EntryPhase == "" || doc.PublishPhase == "" {
		return nil, configErrorf("mappingRules", "entry and publish phases are required")
	}
	rules := doc.Rules.Values()
	if len(rules) == 0 {
		return nil, configErrorf("mappingRules", "no rules to translate")
	}

	var (
		processing []*RuleTranslation
		firstPhase string
		err        error
	)
	if doc.IsGrouped() {
		processing, firstPhase, err = t.translateGrouped(rules)
	} else {
		processing, firstPhase, err = t.translateUngrouped(rules)
	}
	if err != nil {
		return nil, err
	}

	entry := &RuleTranslation{
		Phase:      doc.EntryPhase,
		Processors: []Processor{RunPhase(firstPhase)},
	}
	if doc.Filter != nil {
		if entry.Filter, err = t.translateDirect(doc.Filter); err != nil {
			return nil, err
		}
	}

	pipeline := &Pipeline{Processing: make([]*RuleTranslation, 0, len(processing)+1)}
	pipeline.Processing = append(pipeline.Processing, entry)
	pipeline.Processing = append(pipeline.Processing, processing...)

	last := pipeline.Processing[len(pipeline.Processing)-1]
	last.Processors = append(last.Processors, RunPhase(doc.PublishPhase))

	return pipeline, nil
}

func (t *Translator) translateUngrouped(rules []*types.Rule) ([]*RuleTranslation, string, error) {
	out := make([]*RuleTranslation, 0, len(rules))
	for _, r := range rules {
		rt, err := t.translateRule(r)
		if err != nil {
			return nil, "", err
		}
		out = append(out, rt)
	}
	return out, out[0].Phase, nil
}

type ruleGroup struct {
	id    string
	rules []*types.Rule
}

// groupRules partitions rules by groupId in first-appearance order.
func groupRules(rules []*types.Rule) []*ruleGroup {
	var groups []*ruleGroup
	index := make(map[string]*ruleGroup)
	for _, r := range rules {
		g, ok := index[r.GroupID]
		if !ok {
			g = &ruleGroup{id: r.GroupID}
			index[r.GroupID] = g
			groups = append(groups, g)
		}
		g.rules = append(g.rules, r)
	}
	return groups
}

func (t *Translator) translateGrouped(rules []*types.Rule) ([]*RuleTranslation, string, error) {
	groups := groupRules(rules)
	out := make([]*RuleTranslation, 0, len(rules))
	usedPhases := make(map[string]struct{}, len(groups))

	for i, g := range groups {
		phase := g.rules[0].Phase
		if phase == "" {
			return nil, "", configErrorf("group "+g.id, "group has no phase")
		}
		if _, used := usedPhases[phase]; i > 0 && !used {
			tail := out[len(out)-1]
			tail.Processors = append(tail.Processors, RunPhase(phase))
		}
		usedPhases[phase] = struct{}{}

		for _, r := range g.rules {
			rt, err := t.translateRule(r)
			if err != nil {
				return nil, "", err
			}
			out = append(out, rt)
		}
	}
	return out, groups[0].rules[0].Phase, nil
}

// TranslateRule validates one rule and compiles it into a RuleTranslation.
func (t *Translator) TranslateRule(r *types.Rule) (*RuleTranslation, error) {
	if err := t.checkRule(r); err != nil {
		return nil, err
	}
	return t.translateRule(r)
}

func (t *Translator) translateRule(r *types.Rule) (*RuleTranslation, error) {
	if r == nil {
		return nil, configErrorf("rule", "nil rule")
	}
	phase := r.Phase
	if phase == "" {
		phase = DefaultRulePhase
	}
	rt := &RuleTranslation{Phase: phase}

	if r.IsConditional() {
		f, err := t.translateDirect(r.Condition)
		if err != nil {
			return nil, err
		}
		rt.Filter = f
	}

	procs, err := t.translateActions(r.Actions)
	if err != nil {
		return nil, err
	}
	rt.Processors = procs
	return rt, nil
}

// TranslateCondition validates a condition tree and compiles it using the
// direct encoding for a top-level leaf.
func (t *Translator) TranslateCondition(c types.BaseCondition) (Filter, error) {
	diags := &Diagnostics{}
	t.validator.ValidateCondition(c, diags)
	if err := diags.Fault(); err != nil {
		return nil, err
	}
	if err := rejectInput("condition", diags); err != nil {
		return nil, err
	}
	return t.translateDirect(c)
}

// translateDirect translates a condition that gates a rule or the entry
// phase. Leaves use the direct encoding; groups go through the registry.
func (t *Translator) translateDirect(c types.BaseCondition) (Filter, error) {
	if leaf, ok := c.(*types.Condition); ok && leaf != nil {
		return translateDirectLeaf(leaf)
	}
	return t.translateCondition(c, 1)
}

// translateCondition dispatches a node through the registry.
func (t *Translator) translateCondition(c types.BaseCondition, depth int) (Filter, error) {
	if c == nil {
		return nil, configErrorf("condition", "nil condition node")
	}
	if depth > t.maxDepth {
		return nil, configErrorf("condition "+c.NodeID(), "nesting exceeds maximum depth %d", t.maxDepth)
	}
	h, err := t.registry.condition(c)
	if err != nil {
		return nil, err
	}
	return h.translate(t, c, depth)
}

// translateDirectLeaf encodes a leaf that is not nested in a group.
func translateDirectLeaf(c *types.Condition) (Filter, error) {
	op, ok := LookupOperator(c.Operator)
	if !ok {
		return nil, configErrorf(leafNode(c), "unknown operator %q", c.Operator)
	}
	switch {
	case op.IsUnary():
		return &UnaryFilter{Class: op.Class(), Field: c.Left, EmptyIsAssigned: c.EmptyIsAssigned}, nil
	case len(c.Right) == 0:
		return nil, configErrorf(leafNode(c), "operator %s requires a right operand", op)
	case op.AlwaysMulti():
		return multiFilter(op, c), nil
	case len(c.Right) == 1:
		return &FieldFilter{Class: op.Class(), Field: c.Left, Value: c.Right[0]}, nil
	default:
		return anyOf(op, c), nil
	}
}

// translateLeafCondition encodes a leaf nested inside a group.
func translateLeafCondition(_ *Translator, bc types.BaseCondition, _ int) (Filter, error) {
	c, _ := bc.(*types.Condition)
	if c == nil {
		return nil, configErrorf("condition", "nil leaf condition")
	}
	op, ok := LookupOperator(c.Operator)
	if !ok {
		return nil, configErrorf(leafNode(c), "unknown operator %q", c.Operator)
	}
	switch {
	case op.IsUnary():
		return &UnaryFilter{Class: op.Class(), Field: c.Left, EmptyIsAssigned: c.EmptyIsAssigned}, nil
	case len(c.Right) == 0:
		return nil, configErrorf(leafNode(c), "operator %s requires a right operand", op)
	case len(c.Right) == 1 && !op.AlwaysMulti():
		return &FieldFilter{Class: op.Class(), Field: c.Left, Value: c.Right[0]}, nil
	}
	if _, ok := op.ModifiedType(); ok {
		return multiFilter(op, c), nil
	}
	// No multi-value sibling: fall back to the direct encoding.
	return anyOf(op, c), nil
}

func translateConditionGroup(t *Translator, bc types.BaseCondition, depth int) (Filter, error) {
	g, _ := bc.(*types.ConditionGroup)
	if g == nil {
		return nil, configErrorf("condition", "nil condition group")
	}
	ct, ok := LookupConditionType(g.Type)
	if !ok {
		return nil, configErrorf("conditionGroup "+g.ID, "unknown group type %q", g.Type)
	}
	children := make([]Filter, 0, len(g.Children))
	for _, child := range g.Children {
		f, err := t.translateCondition(child, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, f)
	}
	return &FilterGroup{Class: ct.Class(), Filters: flatten(ct.Class(), children)}, nil
}

// flatten splices immediate children that are groups of class into the
// result, one level deep. Groups of another class are kept as they are.
func flatten(class string, children []Filter) []Filter {
	out := make([]Filter, 0, len(children))
	for _, f := range children {
		if g, ok := f.(*FilterGroup); ok && g.Class == class {
			out = append(out, g.Filters...)
			continue
		}
		out = append(out, f)
	}
	return out
}

func multiFilter(op OperatorType, c *types.Condition) *MultiFieldFilter {
	mod, _ := op.ModifiedType()
	values := make([]string, len(c.Right))
	copy(values, c.Right)
	return &MultiFieldFilter{Class: mod.Class(), Field: c.Left, Values: values}
}

// anyOf expands a multi-value operand into an Or of single-value filters.
func anyOf(op OperatorType, c *types.Condition) *FilterGroup {
	filters := make([]Filter, 0, len(c.Right))
	for _, v := range c.Right {
		filters = append(filters, &FieldFilter{Class: op.Class(), Field: c.Left, Value: v})
	}
	return &FilterGroup{Class: CondAny.Class(), Filters: filters}
}

func leafNode(c *types.Condition) string {
	if c.ID != "" {
		return "condition " + c.ID
	}
	return "condition " + c.Left
}
