// internal/rules/diagnostics.go
package rules

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a validation failure. Codes are part of the editor's
// compatibility surface and must not be renamed.
type ErrorCode string

// Structural errors: a required field is missing or empty.
const (
	CodeMissingOperand        ErrorCode = "MISSING_OPERAND"
	CodeMissingConditionItem  ErrorCode = "MISSING_CONDITION_ITEM"
	CodeMissingActionField    ErrorCode = "MISSING_ACTION_FIELD"
	CodeMissingConcatValue    ErrorCode = "MISSING_CONCAT_VALUE"
	CodeMissingClearValue     ErrorCode = "MISSING_CLEAR_VALUE"
	CodeMissingEntry          ErrorCode = "MISSING_ENTRY"
	CodeMissingDefaultValue   ErrorCode = "MISSING_DEFAULT_VALUE"
	CodeMissingDateField      ErrorCode = "MISSING_DATE_FIELD"
	CodeMissingReplaceField   ErrorCode = "MISSING_REPLACE_FIELD"
	CodeMissingSearchField    ErrorCode = "MISSING_SEARCH_FIELD"
	CodeMissingEnrichFields   ErrorCode = "MISSING_ENRICH_FIELDS"
	CodeMissingTransformField ErrorCode = "MISSING_TRANSFORM_FIELD"
	CodeMissingLogField       ErrorCode = "MISSING_LOG_FIELD"
	CodeMissingMetric         ErrorCode = "MISSING_METRIC"
	CodeMissingAction         ErrorCode = "MISSING_ACTION"
	CodeMissingRuleDesc       ErrorCode = "MISSING_RULE_DESCRIPTION"
)

// Reference errors: a tag does not resolve.
const (
	CodeInvalidOperator       ErrorCode = "INVALID_OPERATOR"
	CodeInvalidGroupCondition ErrorCode = "INVALID_GROUP_CONDITION"
)

// Semantic errors.
const (
	CodeInvalidRuleFormat      ErrorCode = "INVALID_RULE_FORMAT"
	CodeVESSchemaNotFound      ErrorCode = "VES_SCHEMA_NOT_FOUND"
	CodeDuplicateKey           ErrorCode = "DUPLICATE_KEY"
	CodeConditionDepthExceeded ErrorCode = "CONDITION_DEPTH_EXCEEDED"
)

// messageTemplates renders %1, %2, ... from Diagnostic.ContextVariables.
var messageTemplates = map[ErrorCode]string{
	CodeMissingOperand:         "Please fill all condition operands (%1)",
	CodeMissingConditionItem:   "A condition group requires at least two items (%1)",
	CodeMissingActionField:     "Please fill the %1 field of %2 action %3",
	CodeMissingConcatValue:     "Concat action %1 requires at least two values",
	CodeMissingClearValue:      "Clear action %1 requires at least one non-empty field",
	CodeMissingEntry:           "Please fill all entries of the %1 table of action %2",
	CodeMissingDefaultValue:    "Please fill the default value of map action %1",
	CodeMissingDateField:       "Please fill the %1 field of date formatter action %2",
	CodeMissingReplaceField:    "Please fill the %1 field of replace text action %2",
	CodeMissingSearchField:     "Please fill the %1 field of topology search action %2",
	CodeMissingEnrichFields:    "Topology search action %1 requires enrich fields or updates",
	CodeMissingTransformField:  "Please fill the %1 field of string transform action %2",
	CodeMissingLogField:        "Please fill the %1 field of log action %2",
	CodeMissingMetric:          "Please select a metric for action %1",
	CodeMissingAction:          "Rule %1 requires at least one action",
	CodeMissingRuleDesc:        "Please enter a rule description",
	CodeInvalidOperator:        "Invalid operator %1",
	CodeInvalidGroupCondition:  "Invalid condition group type %1",
	CodeInvalidRuleFormat:      "Invalid rule format: %1",
	CodeVESSchemaNotFound:      "VES schema version %1 with event type %2 not found",
	CodeDuplicateKey:           "Duplicate key %1 in %2 table of action %3",
	CodeConditionDepthExceeded: "Condition nesting exceeds maximum depth of %1",
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	ErrorCode        ErrorCode `json:"errorCode"`
	OffendingField   string    `json:"offendingField,omitempty"`
	ContextVariables []string  `json:"contextVariables,omitempty"`
}

// Message renders the human-readable message for the diagnostic.
func (d Diagnostic) Message() string {
	tmpl, ok := messageTemplates[d.ErrorCode]
	if !ok {
		return string(d.ErrorCode)
	}
	// One pass over the template: substituted values are never rescanned.
	// Higher indices come first so %10 is matched before %1.
	pairs := make([]string, 0, 2*len(d.ContextVariables))
	for i := len(d.ContextVariables); i >= 1; i-- {
		pairs = append(pairs, fmt.Sprintf("%%%d", i), d.ContextVariables[i-1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// String returns a formatted diagnostic string.
func (d Diagnostic) String() string {
	msg := fmt.Sprintf("[%s] %s", d.ErrorCode, d.Message())
	if d.OffendingField != "" {
		return d.OffendingField + ": " + msg
	}
	return msg
}

// Diagnostics accumulates findings in discovery order.
//
// Faults are ConfigurationErrors hit while validating. They are not
// user-facing and never serialized; callers check Fault after validation and
// fail the operation.
type Diagnostics struct {
	Items  []Diagnostic
	faults []error
}

// fault records a configuration error.
func (d *Diagnostics) fault(err error) {
	d.faults = append(d.faults, err)
}

// Fault returns the configuration errors recorded during validation, or nil.
func (d *Diagnostics) Fault() error {
	return errors.Join(d.faults...)
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(code ErrorCode, field string, context ...string) {
	d.Items = append(d.Items, Diagnostic{
		ErrorCode:        code,
		OffendingField:   field,
		ContextVariables: context,
	})
}

// Len returns the number of diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.Items)
}

// HasCode reports whether any diagnostic carries code.
func (d *Diagnostics) HasCode(code ErrorCode) bool {
	for _, item := range d.Items {
		if item.ErrorCode == code {
			return true
		}
	}
	return false
}

// Count returns how many diagnostics carry code.
func (d *Diagnostics) Count(code ErrorCode) int {
	n := 0
	for _, item := range d.Items {
		if item.ErrorCode == code {
			n++
		}
	}
	return n
}

// Merge appends all diagnostics of other.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.Items = append(d.Items, other.Items...)
	d.faults = append(d.faults, other.faults...)
}

// Err returns a combined error from all diagnostics, or nil if there are none.
func (d *Diagnostics) Err() error {
	if len(d.Items) == 0 {
		return nil
	}
	parts := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		parts = append(parts, item.String())
	}
	return errors.New(strings.Join(parts, "; "))
}
