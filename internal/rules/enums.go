// internal/rules/enums.go
package rules

import (
	"strings"

	"github.com/solatis/vesmapper/internal/types"
)

/*
 * DSL tag enumerations.
 *
 * Maps editor tags (operator names, group combinators, action kinds) to the
 * filter/processor class names understood by the downstream engine.
 *
 * Operators carry a "modified type": the multi-value sibling of the same
 * semantic operator (Equals -> OneOf). An operator whose modified type is
 * itself (OneOf, NotOneOf) always takes the multi-value encoding. Operators
 * with no sibling have no multi-value encoding at all.
 *
 * Tables are package-level and never mutated after init; safe for concurrent
 * readers.
 */

// OperatorType identifies a leaf-condition operator.
type OperatorType int

const (
	OpUnspecified OperatorType = iota
	OpEquals
	OpNotEqual
	OpStartsWith
	OpEndsWith
	OpContains
	OpNotContains
	OpOneOf
	OpNotOneOf
	OpAssigned
	OpUnassigned
)

type operatorInfo struct {
	class    string
	modified OperatorType // OpUnspecified = no multi-value sibling
	unary    bool
}

var operatorTable = map[OperatorType]operatorInfo{
	OpEquals:      {class: "Equals", modified: OpOneOf},
	OpNotEqual:    {class: "NotEqual", modified: OpNotOneOf},
	OpStartsWith:  {class: "StartsWith"},
	OpEndsWith:    {class: "EndsWith"},
	OpContains:    {class: "Contains"},
	OpNotContains: {class: "NotContains"},
	OpOneOf:       {class: "OneOf", modified: OpOneOf},
	OpNotOneOf:    {class: "NotOneOf", modified: OpNotOneOf},
	OpAssigned:    {class: "Assigned", unary: true},
	OpUnassigned:  {class: "Unassigned", unary: true},
}

// operatorNames maps normalized DSL names (see normalizeTag) to operators.
var operatorNames = map[string]OperatorType{
	"equals":      OpEquals,
	"equal":       OpEquals,
	"eq":          OpEquals,
	"notequal":    OpNotEqual,
	"notequals":   OpNotEqual,
	"ne":          OpNotEqual,
	"startswith":  OpStartsWith,
	"endswith":    OpEndsWith,
	"contains":    OpContains,
	"notcontains": OpNotContains,
	"oneof":       OpOneOf,
	"in":          OpOneOf,
	"notoneof":    OpNotOneOf,
	"notin":       OpNotOneOf,
	"assigned":    OpAssigned,
	"unassigned":  OpUnassigned,
}

// normalizeTag lower-cases s and strips spaces, underscores and hyphens so
// "Not Equal", "NOT_EQUAL" and "not-equal" resolve identically.
func normalizeTag(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LookupOperator resolves a DSL operator name.
func LookupOperator(name string) (OperatorType, bool) {
	op, ok := operatorNames[normalizeTag(name)]
	return op, ok
}

// Class returns the output filter class for the operator.
func (op OperatorType) Class() string {
	return operatorTable[op].class
}

// ModifiedType returns the multi-value sibling, if any.
func (op OperatorType) ModifiedType() (OperatorType, bool) {
	m := operatorTable[op].modified
	return m, m != OpUnspecified
}

// IsUnary reports whether the operator takes no right operand.
func (op OperatorType) IsUnary() bool {
	return operatorTable[op].unary
}

// AlwaysMulti reports whether the operator's modified type is itself, so the
// multi-value encoding is used even for a single right operand.
func (op OperatorType) AlwaysMulti() bool {
	m, ok := op.ModifiedType()
	return ok && m == op
}

// String returns the output class name.
func (op OperatorType) String() string {
	if c := op.Class(); c != "" {
		return c
	}
	return "Unspecified"
}

// ConditionType identifies a condition-group combinator.
type ConditionType int

const (
	CondUnspecified ConditionType = iota
	CondAll
	CondAny
	CondNot
)

var conditionClasses = map[ConditionType]string{
	CondAll: "And",
	CondAny: "Or",
	CondNot: "Not",
}

var conditionNames = map[string]ConditionType{
	"all": CondAll,
	"and": CondAll,
	"any": CondAny,
	"or":  CondAny,
	"not": CondNot,
}

// LookupConditionType resolves a DSL group combinator.
func LookupConditionType(name string) (ConditionType, bool) {
	ct, ok := conditionNames[normalizeTag(name)]
	return ct, ok
}

// Class returns the output filter class for the combinator.
func (ct ConditionType) Class() string {
	return conditionClasses[ct]
}

// String returns the output class name.
func (ct ConditionType) String() string {
	if c := ct.Class(); c != "" {
		return c
	}
	return "Unspecified"
}

// ActionType identifies an action kind. Values are the actionType tags.
type ActionType string

// AllActionTypes lists every supported action kind in registry order.
var AllActionTypes = []ActionType{
	types.ActionTypeCopy,
	types.ActionTypeConcat,
	types.ActionTypeRegex,
	types.ActionTypeMap,
	types.ActionTypeClear,
	types.ActionTypeDateFormatter,
	types.ActionTypeReplaceText,
	types.ActionTypeLogEvent,
	types.ActionTypeLogText,
	types.ActionTypeStringTransform,
	types.ActionTypeTopoSearch,
	types.ActionTypeHpMetric,
}

// ConditionShape distinguishes leaf conditions from groups for registry dispatch.
type ConditionShape int

const (
	ShapeLeaf ConditionShape = iota
	ShapeGroup
)

// String returns the shape name.
func (s ConditionShape) String() string {
	switch s {
	case ShapeLeaf:
		return "condition"
	case ShapeGroup:
		return "conditionGroup"
	default:
		return "unknown"
	}
}

// shapeOf returns the registry key for a condition node.
func shapeOf(c types.BaseCondition) (ConditionShape, bool) {
	switch c.(type) {
	case *types.Condition:
		return ShapeLeaf, true
	case *types.ConditionGroup:
		return ShapeGroup, true
	default:
		return 0, false
	}
}
