package types

import "strings"

// Action type tags as they appear in the actionType field.
const (
	ActionTypeCopy            = "copy"
	ActionTypeConcat          = "concat"
	ActionTypeRegex           = "regex"
	ActionTypeMap             = "map"
	ActionTypeClear           = "clear"
	ActionTypeDateFormatter   = "dateFormatter"
	ActionTypeReplaceText     = "replaceText"
	ActionTypeLogEvent        = "logEvent"
	ActionTypeLogText         = "logText"
	ActionTypeStringTransform = "stringTransform"
	ActionTypeTopoSearch      = "topoSearch"
	ActionTypeHpMetric        = "hpMetric"
)

// Action is the closed union of rule actions. Every variant shares the
// id/actionType/target spine exposed through Base.
type Action interface {
	Base() *ActionBase
}

// ActionBase is the spine common to all actions.
type ActionBase struct {
	ID         string
	ActionType string
	Target     string
}

// Base implements Action.
func (b *ActionBase) Base() *ActionBase { return b }

// MapEntry is one key/value pair of a map or updates table. Kept as a list so
// duplicate keys survive decoding and can be reported.
type MapEntry struct {
	Key   string
	Value string
}

// CopyAction copies a value (literal or field reference) into target.
type CopyAction struct {
	ActionBase
	FromValue string
}

// ConcatAction concatenates two or more values into target.
type ConcatAction struct {
	ActionBase
	FromValues []string
}

// FromValue returns the concatenated source expression.
func (a *ConcatAction) FromValue() string {
	return strings.Join(a.FromValues, "")
}

// RegexAction extracts text from fromValue into target using regexValue.
type RegexAction struct {
	ActionBase
	FromValue  string
	RegexValue string
}

// MapTable is the lookup table of a MapAction.
type MapTable struct {
	Values      []MapEntry
	HaveDefault bool
	Default     string
}

// MapAction maps fromValue through a lookup table into target.
type MapAction struct {
	ActionBase
	FromValue string
	Map       MapTable
}

// ClearAction removes one or more fields from the event.
type ClearAction struct {
	ActionBase
	FromValues []string
}

// DateFormatterAction reformats a timestamp field.
type DateFormatterAction struct {
	ActionBase
	FromValue  string
	FromFormat string
	FromTz     string
	ToFormat   string
	ToTz       string
}

// ReplaceTextAction replaces occurrences of find with replace in fromValue.
type ReplaceTextAction struct {
	ActionBase
	FromValue string
	Find      string
	Replace   string
}

// LogEventAction logs the whole event under title.
type LogEventAction struct {
	ActionBase
	Title string
}

// LogTextAction logs free text.
type LogTextAction struct {
	ActionBase
	Name  string
	Level string
	Text  string
}

// StringTransformAction changes case and/or trims startValue into target.
type StringTransformAction struct {
	ActionBase
	TargetCase string
	Trim       bool
	StartValue string
}

// TopoSearchAction looks up topology data and enriches or updates the event.
type TopoSearchAction struct {
	ActionBase
	SearchField  string
	SearchValue  string
	SearchFilter *Condition // optional
	Enrich       bool       // true: enrich with EnrichFields; false: apply Updates
	EnrichFields []string
	EnrichPrefix string
	Updates      []MapEntry
}

// HpMetricAction selects a metric parser for the event.
type HpMetricAction struct {
	ActionBase
	SelectedHpMetric string
}
