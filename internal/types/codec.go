package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

/*
 * JSON codec for mapping-rules documents.
 *
 * Wire structs mirror the editor's JSON; conversion to the domain unions
 * happens here so the rest of the system never sees raw JSON.
 *
 * Discriminators:
 *   - condition: an object with a non-null "children" array is a group,
 *     otherwise a leaf
 *   - action: the "actionType" tag selects the variant
 *
 * The "rules" object is decoded token by token so key order is preserved and
 * repeated uids are reported instead of silently overwritten.
 */

type wireDocument struct {
	Version      string          `json:"version"`
	EventType    string          `json:"eventType"`
	NotifyID     string          `json:"notifyId,omitempty"`
	EntryPhase   string          `json:"entryPhase"`
	PublishPhase string          `json:"publishPhase"`
	Filter       json.RawMessage `json:"filter,omitempty"`
	Rules        json.RawMessage `json:"rules"`
}

type wireRule struct {
	UID         string            `json:"uid"`
	Description string            `json:"description"`
	Phase       string            `json:"phase,omitempty"`
	GroupID     string            `json:"groupId,omitempty"`
	Condition   json.RawMessage   `json:"condition,omitempty"`
	Actions     []json.RawMessage `json:"actions"`
}

type wireCondition struct {
	ID              string            `json:"id,omitempty"`
	Left            string            `json:"left,omitempty"`
	Operator        string            `json:"operator,omitempty"`
	Right           []string          `json:"right,omitempty"`
	EmptyIsAssigned bool              `json:"emptyIsAssigned,omitempty"`
	Type            string            `json:"type,omitempty"`
	Children        *[]*wireCondition `json:"children,omitempty"`
}

type wireMapEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type wireMapTable struct {
	Values      []wireMapEntry `json:"values"`
	HaveDefault bool           `json:"haveDefault,omitempty"`
	Default     string         `json:"default,omitempty"`
}

type wireAction struct {
	ID               string          `json:"id"`
	ActionType       string          `json:"actionType"`
	Target           string          `json:"target,omitempty"`
	FromValue        string          `json:"fromValue,omitempty"`
	FromValues       []string        `json:"fromValues,omitempty"`
	RegexValue       string          `json:"regexValue,omitempty"`
	Map              *wireMapTable   `json:"map,omitempty"`
	FromFormat       string          `json:"fromFormat,omitempty"`
	FromTz           string          `json:"fromTz,omitempty"`
	ToFormat         string          `json:"toFormat,omitempty"`
	ToTz             string          `json:"toTz,omitempty"`
	Find             string          `json:"find,omitempty"`
	Replace          string          `json:"replace,omitempty"`
	Title            string          `json:"title,omitempty"`
	Name             string          `json:"name,omitempty"`
	Level            string          `json:"level,omitempty"`
	Text             string          `json:"text,omitempty"`
	TargetCase       string          `json:"targetCase,omitempty"`
	Trim             bool            `json:"trim,omitempty"`
	StartValue       string          `json:"startValue,omitempty"`
	SearchField      string          `json:"searchField,omitempty"`
	SearchValue      string          `json:"searchValue,omitempty"`
	SearchFilter     json.RawMessage `json:"searchFilter,omitempty"`
	Enrich           bool            `json:"enrich,omitempty"`
	EnrichFields     []string        `json:"enrichFields,omitempty"`
	EnrichPrefix     string          `json:"enrichPrefix,omitempty"`
	Updates          []wireMapEntry  `json:"updates,omitempty"`
	SelectedHpMetric string          `json:"selectedHpMetric,omitempty"`
}

// DecodeMappingRules parses an encoded document.
// Returns ErrDocumentTooLarge before parsing oversized input.
func DecodeMappingRules(data []byte) (*MappingRules, error) {
	if len(data) > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}
	var m MappingRules
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MappingRules) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	filter, err := decodeOptionalCondition(w.Filter)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	rules, err := decodeRuleSet(w.Rules)
	if err != nil {
		return fmt.Errorf("rules: %w", err)
	}

	*m = MappingRules{
		Version:      w.Version,
		EventType:    w.EventType,
		NotifyID:     w.NotifyID,
		EntryPhase:   w.EntryPhase,
		PublishPhase: w.PublishPhase,
		Filter:       filter,
		Rules:        rules,
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Rules are written in insertion order.
func (m *MappingRules) MarshalJSON() ([]byte, error) {
	var filter json.RawMessage
	if m.Filter != nil {
		b, err := json.Marshal(encodeCondition(m.Filter))
		if err != nil {
			return nil, err
		}
		filter = b
	}

	var rules bytes.Buffer
	rules.WriteByte('{')
	for i, r := range m.Rules.Values() {
		if i > 0 {
			rules.WriteByte(',')
		}
		key, err := json.Marshal(r.UID)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(encodeRule(r))
		if err != nil {
			return nil, err
		}
		rules.Write(key)
		rules.WriteByte(':')
		rules.Write(body)
	}
	rules.WriteByte('}')

	return json.Marshal(wireDocument{
		Version:      m.Version,
		EventType:    m.EventType,
		NotifyID:     m.NotifyID,
		EntryPhase:   m.EntryPhase,
		PublishPhase: m.PublishPhase,
		Filter:       filter,
		Rules:        rules.Bytes(),
	})
}

// decodeRuleSet walks the rules object token by token to keep key order.
func decodeRuleSet(data json.RawMessage) (*RuleSet, error) {
	set := NewRuleSet()
	if len(data) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return set, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		uid, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected rule uid, got %v", keyTok)
		}
		if _, exists := set.Get(uid); exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRuleUID, uid)
		}
		if set.Len() >= MaxRulesPerDocument {
			return nil, ErrTooManyRules
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("rule %s: %w", uid, err)
		}
		r, err := decodeRule(raw)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", uid, err)
		}
		// The object key is authoritative; the embedded uid is informational.
		r.UID = uid
		set.Set(uid, r)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return set, nil
}

func decodeRule(data json.RawMessage) (*Rule, error) {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}

	cond, err := decodeOptionalCondition(w.Condition)
	if err != nil {
		return nil, fmt.Errorf("condition: %w", err)
	}

	actions := make([]Action, 0, len(w.Actions))
	for i, raw := range w.Actions {
		a, err := decodeAction(raw)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		actions = append(actions, a)
	}

	return &Rule{
		UID:         w.UID,
		Description: w.Description,
		Phase:       w.Phase,
		GroupID:     w.GroupID,
		Condition:   cond,
		Actions:     actions,
	}, nil
}

func isAbsent(data json.RawMessage) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeOptionalCondition(data json.RawMessage) (BaseCondition, error) {
	if isAbsent(data) {
		return nil, nil
	}
	return decodeCondition(data)
}

// decodeCondition selects leaf or group by the presence of "children".
// The whole tree is parsed in one pass; conversion then rejects trees nested
// deeper than MaxConditionDepth.
func decodeCondition(data json.RawMessage) (BaseCondition, error) {
	var w wireCondition
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return conditionFromWire(&w, 1)
}

func conditionFromWire(w *wireCondition, depth int) (BaseCondition, error) {
	if depth > MaxConditionDepth {
		return nil, fmt.Errorf("%w: deeper than %d levels", ErrConditionTooDeep, MaxConditionDepth)
	}
	if w.Children == nil {
		return &Condition{
			ID:              w.ID,
			Left:            w.Left,
			Operator:        w.Operator,
			Right:           w.Right,
			EmptyIsAssigned: w.EmptyIsAssigned,
		}, nil
	}

	children := *w.Children
	group := &ConditionGroup{
		ID:       w.ID,
		Type:     w.Type,
		Children: make([]BaseCondition, 0, len(children)),
	}
	for i, cw := range children {
		if cw == nil {
			return nil, fmt.Errorf("children[%d]: %w", i, ErrMalformedCondition)
		}
		child, err := conditionFromWire(cw, depth+1)
		if err != nil {
			return nil, fmt.Errorf("children[%d]: %w", i, err)
		}
		group.Children = append(group.Children, child)
	}
	return group, nil
}

func decodeEntries(in []wireMapEntry) []MapEntry {
	if in == nil {
		return nil
	}
	out := make([]MapEntry, len(in))
	for i, e := range in {
		out[i] = MapEntry{Key: e.Key, Value: e.Value}
	}
	return out
}

func decodeAction(data json.RawMessage) (Action, error) {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	base := ActionBase{ID: w.ID, ActionType: w.ActionType, Target: w.Target}

	switch w.ActionType {
	case ActionTypeCopy:
		return &CopyAction{ActionBase: base, FromValue: w.FromValue}, nil
	case ActionTypeConcat:
		return &ConcatAction{ActionBase: base, FromValues: w.FromValues}, nil
	case ActionTypeRegex:
		return &RegexAction{ActionBase: base, FromValue: w.FromValue, RegexValue: w.RegexValue}, nil
	case ActionTypeMap:
		a := &MapAction{ActionBase: base, FromValue: w.FromValue}
		if w.Map != nil {
			a.Map = MapTable{
				Values:      decodeEntries(w.Map.Values),
				HaveDefault: w.Map.HaveDefault,
				Default:     w.Map.Default,
			}
		}
		return a, nil
	case ActionTypeClear:
		return &ClearAction{ActionBase: base, FromValues: w.FromValues}, nil
	case ActionTypeDateFormatter:
		return &DateFormatterAction{
			ActionBase: base,
			FromValue:  w.FromValue,
			FromFormat: w.FromFormat,
			FromTz:     w.FromTz,
			ToFormat:   w.ToFormat,
			ToTz:       w.ToTz,
		}, nil
	case ActionTypeReplaceText:
		return &ReplaceTextAction{ActionBase: base, FromValue: w.FromValue, Find: w.Find, Replace: w.Replace}, nil
	case ActionTypeLogEvent:
		return &LogEventAction{ActionBase: base, Title: w.Title}, nil
	case ActionTypeLogText:
		return &LogTextAction{ActionBase: base, Name: w.Name, Level: w.Level, Text: w.Text}, nil
	case ActionTypeStringTransform:
		return &StringTransformAction{
			ActionBase: base,
			TargetCase: w.TargetCase,
			Trim:       w.Trim,
			StartValue: w.StartValue,
		}, nil
	case ActionTypeTopoSearch:
		a := &TopoSearchAction{
			ActionBase:   base,
			SearchField:  w.SearchField,
			SearchValue:  w.SearchValue,
			Enrich:       w.Enrich,
			EnrichFields: w.EnrichFields,
			EnrichPrefix: w.EnrichPrefix,
			Updates:      decodeEntries(w.Updates),
		}
		if !isAbsent(w.SearchFilter) {
			cond, err := decodeCondition(w.SearchFilter)
			if err != nil {
				return nil, fmt.Errorf("searchFilter: %w", err)
			}
			leaf, ok := cond.(*Condition)
			if !ok {
				return nil, fmt.Errorf("searchFilter: %w", ErrMalformedCondition)
			}
			a.SearchFilter = leaf
		}
		return a, nil
	case ActionTypeHpMetric:
		return &HpMetricAction{ActionBase: base, SelectedHpMetric: w.SelectedHpMetric}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, w.ActionType)
	}
}

func encodeRule(r *Rule) wireRule {
	w := wireRule{
		UID:         r.UID,
		Description: r.Description,
		Phase:       r.Phase,
		GroupID:     r.GroupID,
		Actions:     make([]json.RawMessage, 0, len(r.Actions)),
	}
	if r.Condition != nil {
		// Marshalling plain wire structs cannot fail.
		w.Condition, _ = json.Marshal(encodeCondition(r.Condition))
	}
	for _, a := range r.Actions {
		b, _ := json.Marshal(encodeAction(a))
		w.Actions = append(w.Actions, b)
	}
	return w
}

func encodeCondition(c BaseCondition) *wireCondition {
	switch n := c.(type) {
	case *Condition:
		return &wireCondition{
			ID:              n.ID,
			Left:            n.Left,
			Operator:        n.Operator,
			Right:           n.Right,
			EmptyIsAssigned: n.EmptyIsAssigned,
		}
	case *ConditionGroup:
		children := make([]*wireCondition, 0, len(n.Children))
		for _, child := range n.Children {
			children = append(children, encodeCondition(child))
		}
		return &wireCondition{ID: n.ID, Type: n.Type, Children: &children}
	default:
		return &wireCondition{}
	}
}

func encodeEntries(in []MapEntry) []wireMapEntry {
	if in == nil {
		return nil
	}
	out := make([]wireMapEntry, len(in))
	for i, e := range in {
		out[i] = wireMapEntry{Key: e.Key, Value: e.Value}
	}
	return out
}

func encodeAction(a Action) wireAction {
	b := a.Base()
	w := wireAction{ID: b.ID, ActionType: b.ActionType, Target: b.Target}

	switch v := a.(type) {
	case *CopyAction:
		w.FromValue = v.FromValue
	case *ConcatAction:
		w.FromValues = v.FromValues
	case *RegexAction:
		w.FromValue = v.FromValue
		w.RegexValue = v.RegexValue
	case *MapAction:
		w.FromValue = v.FromValue
		w.Map = &wireMapTable{
			Values:      encodeEntries(v.Map.Values),
			HaveDefault: v.Map.HaveDefault,
			Default:     v.Map.Default,
		}
	case *ClearAction:
		w.FromValues = v.FromValues
	case *DateFormatterAction:
		w.FromValue = v.FromValue
		w.FromFormat = v.FromFormat
		w.FromTz = v.FromTz
		w.ToFormat = v.ToFormat
		w.ToTz = v.ToTz
	case *ReplaceTextAction:
		w.FromValue = v.FromValue
		w.Find = v.Find
		w.Replace = v.Replace
	case *LogEventAction:
		w.Title = v.Title
	case *LogTextAction:
		w.Name = v.Name
		w.Level = v.Level
		w.Text = v.Text
	case *StringTransformAction:
		w.TargetCase = v.TargetCase
		w.Trim = v.Trim
		w.StartValue = v.StartValue
	case *TopoSearchAction:
		w.SearchField = v.SearchField
		w.SearchValue = v.SearchValue
		w.Enrich = v.Enrich
		w.EnrichFields = v.EnrichFields
		w.EnrichPrefix = v.EnrichPrefix
		w.Updates = encodeEntries(v.Updates)
		if v.SearchFilter != nil {
			w.SearchFilter, _ = json.Marshal(encodeCondition(v.SearchFilter))
		}
	case *HpMetricAction:
		w.SelectedHpMetric = v.SelectedHpMetric
	}
	return w
}
