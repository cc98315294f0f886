// internal/rules/ir.go
package rules

import (
	"bytes"
	"encoding/json"
)

/*
 * Pipeline IR consumed by the downstream event-processing engine.
 *
 * Field names, struct field order and the ordering of "processing" and of
 * every updates table are part of the compatibility surface. Encoding is
 * plain encoding/json over these structs; OrderedMap preserves insertion
 * order where a Go map would sort keys.
 */

// Filter classes and processor classes emitted by the translator.
const (
	ClassSet             = "Set"
	ClassExtractText     = "ExtractText"
	ClassMapAlarmValues  = "MapAlarmValues"
	ClassClear           = "Clear"
	ClassDateFormatter   = "DateFormatter"
	ClassReplaceText     = "ReplaceText"
	ClassLogEvent        = "LogEvent"
	ClassLogText         = "LogText"
	ClassStringTransform = "StringTransform"
	ClassTopologySearch  = "TopologySearch"
	ClassHpMetric        = "HpMetric"
	ClassRunPhase        = "RunPhase"
)

// Pipeline is the translated document.
type Pipeline struct {
	Processing []*RuleTranslation `json:"processing"`
}

// RuleTranslation is one phase-tagged entry of the pipeline.
type RuleTranslation struct {
	Phase      string      `json:"phase"`
	Filter     Filter      `json:"filter"` // nil encodes as null
	Processors []Processor `json:"processors"`
}

// Filter is translated IR for a condition.
type Filter interface {
	FilterClass() string
}

// FieldFilter compares a field against one value.
type FieldFilter struct {
	Class string `json:"class"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// FilterClass implements Filter.
func (f *FieldFilter) FilterClass() string { return f.Class }

// MultiFieldFilter compares a field against a list of values.
type MultiFieldFilter struct {
	Class  string   `json:"class"`
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// FilterClass implements Filter.
func (f *MultiFieldFilter) FilterClass() string { return f.Class }

// UnaryFilter tests field presence.
type UnaryFilter struct {
	Class           string `json:"class"`
	Field           string `json:"field"`
	EmptyIsAssigned bool   `json:"emptyIsAssigned"`
}

// FilterClass implements Filter.
func (f *UnaryFilter) FilterClass() string { return f.Class }

// FilterGroup combines nested filters.
type FilterGroup struct {
	Class   string   `json:"class"`
	Filters []Filter `json:"filters"`
}

// FilterClass implements Filter.
func (f *FilterGroup) FilterClass() string { return f.Class }

// Processor is one translated unit of IR.
type Processor interface {
	ProcessorClass() string
}

// SetProcessor assigns values to fields. Successive copy/concat actions merge
// into one SetProcessor.
type SetProcessor struct {
	Class   string      `json:"class"`
	Updates *OrderedMap `json:"updates"`
}

// ProcessorClass implements Processor.
func (p *SetProcessor) ProcessorClass() string { return p.Class }

// ExtractTextProcessor extracts regex matches from value into field.
type ExtractTextProcessor struct {
	Class string `json:"class"`
	Field string `json:"field"`
	Value string `json:"value"`
	Regex string `json:"regex"`
}

// ProcessorClass implements Processor.
func (p *ExtractTextProcessor) ProcessorClass() string { return p.Class }

// MapAlarmValuesProcessor maps value through a lookup table into field.
type MapAlarmValuesProcessor struct {
	Class     string      `json:"class"`
	Field     string      `json:"field"`
	Value     string      `json:"value"`
	MapValues *OrderedMap `json:"mapValues"`
	Default   *string     `json:"default,omitempty"`
}

// ProcessorClass implements Processor.
func (p *MapAlarmValuesProcessor) ProcessorClass() string { return p.Class }

// ClearProcessor removes fields.
type ClearProcessor struct {
	Class  string   `json:"class"`
	Fields []string `json:"fields"`
}

// ProcessorClass implements Processor.
func (p *ClearProcessor) ProcessorClass() string { return p.Class }

// DateFormatterProcessor reformats a timestamp.
type DateFormatterProcessor struct {
	Class      string `json:"class"`
	FromFormat string `json:"fromFormat"`
	FromTz     string `json:"fromTz"`
	ToField    string `json:"toField"`
	ToFormat   string `json:"toFormat"`
	ToTz       string `json:"toTz"`
	Value      string `json:"value"`
}

// ProcessorClass implements Processor.
func (p *DateFormatterProcessor) ProcessorClass() string { return p.Class }

// ReplaceTextProcessor replaces text within a field.
type ReplaceTextProcessor struct {
	Class   string `json:"class"`
	Field   string `json:"field"`
	Find    string `json:"find"`
	Replace string `json:"replace"`
}

// ProcessorClass implements Processor.
func (p *ReplaceTextProcessor) ProcessorClass() string { return p.Class }

// LogEventProcessor logs the event.
type LogEventProcessor struct {
	Class string `json:"class"`
	Title string `json:"title"`
}

// ProcessorClass implements Processor.
func (p *LogEventProcessor) ProcessorClass() string { return p.Class }

// LogTextProcessor logs free text.
type LogTextProcessor struct {
	Class    string `json:"class"`
	LogLevel string `json:"logLevel"`
	LogName  string `json:"logName"`
	LogText  string `json:"logText"`
}

// ProcessorClass implements Processor.
func (p *LogTextProcessor) ProcessorClass() string { return p.Class }

// StringTransformProcessor changes case and trims a value into a field.
type StringTransformProcessor struct {
	Class       string `json:"class"`
	TargetCase  string `json:"targetCase"`
	IsTrim      bool   `json:"isTrim"`
	StartValue  string `json:"startValue"`
	TargetField string `json:"targetField"`
}

// ProcessorClass implements Processor.
func (p *StringTransformProcessor) ProcessorClass() string { return p.Class }

// EnrichSpec lists the topology fields copied into the event.
type EnrichSpec struct {
	Fields []string `json:"fields"`
	Prefix string   `json:"prefix"`
}

// TopologySearchProcessor looks up topology data.
type TopologySearchProcessor struct {
	Class        string      `json:"class"`
	SearchField  string      `json:"searchField"`
	SearchValue  string      `json:"searchValue"`
	SearchFilter Filter      `json:"searchFilter,omitempty"`
	Enrich       *EnrichSpec `json:"enrich,omitempty"`
	Updates      *OrderedMap `json:"updates,omitempty"`
}

// ProcessorClass implements Processor.
func (p *TopologySearchProcessor) ProcessorClass() string { return p.Class }

// HpMetricProcessor selects a metric parser.
type HpMetricProcessor struct {
	Class  string `json:"class"`
	Parser string `json:"parser"`
}

// ProcessorClass implements Processor.
func (p *HpMetricProcessor) ProcessorClass() string { return p.Class }

// RunPhaseProcessor transfers control to another phase.
type RunPhaseProcessor struct {
	Class string `json:"class"`
	Phase string `json:"phase"`
}

// ProcessorClass implements Processor.
func (p *RunPhaseProcessor) ProcessorClass() string { return p.Class }

// RunPhase returns a RunPhase instruction for phase.
func RunPhase(phase string) *RunPhaseProcessor {
	return &RunPhaseProcessor{Class: ClassRunPhase, Phase: phase}
}

// OrderedMap is a string map that encodes keys in insertion order.
// Setting an existing key replaces its value in place.
type OrderedMap struct {
	keys   []string
	values map[string]string
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{values: make(map[string]string)}
}

// Set stores value under key.
func (m *OrderedMap) Set(key, value string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *OrderedMap) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns keys in insertion order.
func (m *OrderedMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int {
	return len(m.keys)
}

// MarshalJSON implements json.Marshaler.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
