// internal/rules/registry.go
package rules

import (
	"github.com/solatis/vesmapper/internal/types"
)

/*
 * Type registry.
 *
 * One immutable table maps each condition shape and each action kind to its
 * {validate, translate} pair, so every node type's behavior lives in exactly
 * one place. Built once by newRegistry; never mutated afterwards, so the
 * shared default registry is safe for concurrent use.
 *
 * A missing entry is a ConfigurationError, not a diagnostic: the document
 * model is a closed union, so reaching it means the table is out of date.
 * TestRegistry_Complete asserts every ActionType and shape is registered.
 */

type conditionValidateFunc func(v *Validator, c types.BaseCondition, depth int, diags *Diagnostics) bool

type conditionTranslateFunc func(t *Translator, c types.BaseCondition, depth int) (Filter, error)

type conditionHandler struct {
	validate  conditionValidateFunc
	translate conditionTranslateFunc
}

type actionValidateFunc func(v *Validator, a types.Action, diags *Diagnostics) bool

type actionTranslateFunc func(t *Translator, a types.Action) (Processor, error)

type actionHandler struct {
	validate  actionValidateFunc
	translate actionTranslateFunc
	// mergeable actions produce a Set processor that may be merged into the
	// still-open Set processor of a preceding mergeable action.
	mergeable bool
}

// Registry maps DSL node tags to their validator and translator.
type Registry struct {
	conditions map[ConditionShape]conditionHandler
	actions    map[ActionType]actionHandler
}

func newRegistry() *Registry {
	return &Registry{
		conditions: map[ConditionShape]conditionHandler{
			ShapeLeaf:  {validate: validateLeafCondition, translate: translateLeafCondition},
			ShapeGroup: {validate: validateConditionGroup, translate: translateConditionGroup},
		},
		actions: map[ActionType]actionHandler{
			types.ActionTypeCopy:            {validate: validateCopy, translate: translateCopy, mergeable: true},
			types.ActionTypeConcat:          {validate: validateConcat, translate: translateConcat, mergeable: true},
			types.ActionTypeRegex:           {validate: validateRegex, translate: translateRegex},
			types.ActionTypeMap:             {validate: validateMap, translate: translateMap},
			types.ActionTypeClear:           {validate: validateClear, translate: translateClear},
			types.ActionTypeDateFormatter:   {validate: validateDateFormatter, translate: translateDateFormatter},
			types.ActionTypeReplaceText:     {validate: validateReplaceText, translate: translateReplaceText},
			types.ActionTypeLogEvent:        {validate: validateLogEvent, translate: translateLogEvent},
			types.ActionTypeLogText:         {validate: validateLogText, translate: translateLogText},
			types.ActionTypeStringTransform: {validate: validateStringTransform, translate: translateStringTransform},
			types.ActionTypeTopoSearch:      {validate: validateTopoSearch, translate: translateTopoSearch},
			types.ActionTypeHpMetric:        {validate: validateHpMetric, translate: translateHpMetric},
		},
	}
}

// defaultRegistry is shared read-only by every Validator and Translator.
var defaultRegistry = newRegistry()

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// condition returns the handler for a condition node.
func (r *Registry) condition(c types.BaseCondition) (conditionHandler, error) {
	shape, ok := shapeOf(c)
	if !ok {
		return conditionHandler{}, configErrorf("condition", "unsupported condition node %T", c)
	}
	h, ok := r.conditions[shape]
	if !ok {
		return conditionHandler{}, configErrorf("condition", "no handler registered for %s", shape)
	}
	return h, nil
}

// action returns the handler for an action kind.
func (r *Registry) action(at ActionType) (actionHandler, error) {
	h, ok := r.actions[at]
	if !ok {
		return actionHandler{}, configErrorf("action", "no handler registered for action type %q", string(at))
	}
	return h, nil
}

// HasAction reports whether at is registered.
func (r *Registry) HasAction(at ActionType) bool {
	_, ok := r.actions[at]
	return ok
}

// HasShape reports whether shape is registered.
func (r *Registry) HasShape(shape ConditionShape) bool {
	_, ok := r.conditions[shape]
	return ok
}

// asAction narrows an action to its concrete variant. A mismatch between the
// actionType tag and the variant is a ConfigurationError.
func asAction[T types.Action](a types.Action) (T, error) {
	v, ok := a.(T)
	if !ok {
		var zero T
		return zero, configErrorf(actionNode(a), "action type %q carried by %T", a.Base().ActionType, a)
	}
	return v, nil
}

func actionNode(a types.Action) string {
	b := a.Base()
	return "action " + b.ID + " (" + b.ActionType + ")"
}
