package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"
)

const sampleDocument = `{
	"version": "4.1",
	"eventType": "fault",
	"notifyId": "1.3.6.1.4.1.74.2.46.12.1.1",
	"entryPhase": "snmp_map",
	"publishPhase": "map_publish",
	"filter": {"left": "${event.type}", "operator": "equals", "right": ["trap"]},
	"rules": {
		"zeta": {
			"uid": "ignored",
			"description": "first",
			"phase": "p1",
			"groupId": "g1",
			"condition": {"id": "c1", "type": "Any", "children": [
				{"left": "${a}", "operator": "oneOf", "right": ["1", "2"]},
				{"left": "${b}", "operator": "assigned", "emptyIsAssigned": true}
			]},
			"actions": [
				{"id": "a1", "actionType": "copy", "target": "event.x", "fromValue": "${y}"},
				{"id": "a2", "actionType": "map", "target": "event.sev", "fromValue": "${s}",
				 "map": {"values": [{"key": "1", "value": "CRITICAL"}, {"key": "1", "value": "MAJOR"}], "haveDefault": true, "default": "MINOR"}},
				{"id": "a3", "actionType": "topoSearch", "searchField": "f", "searchValue": "v",
				 "searchFilter": {"left": "type", "operator": "equals", "right": ["pnf"]},
				 "updates": [{"key": "k", "value": "v"}]}
			]
		},
		"alpha": {
			"description": "second",
			"phase": "p2",
			"groupId": "g2",
			"actions": [{"id": "a4", "actionType": "hpMetric", "selectedHpMetric": "cpu"}]
		}
	}
}`

func TestDecodeMappingRules(t *testing.T) {
	doc, err := DecodeMappingRules([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("DecodeMappingRules() error = %v", err)
	}

	if doc.Version != "4.1" || doc.EventType != "fault" {
		t.Errorf("coordinates = (%q, %q), want (4.1, fault)", doc.Version, doc.EventType)
	}
	if doc.EntryPhase != "snmp_map" || doc.PublishPhase != "map_publish" {
		t.Errorf("phases = (%q, %q)", doc.EntryPhase, doc.PublishPhase)
	}
	if _, ok := doc.Filter.(*Condition); !ok {
		t.Errorf("Filter = %T, want *Condition", doc.Filter)
	}

	if got, want := doc.Rules.Keys(), []string{"zeta", "alpha"}; !slices.Equal(got, want) {
		t.Errorf("rule order = %v, want %v", got, want)
	}

	first, _ := doc.Rules.Get("zeta")
	if first.UID != "zeta" {
		t.Errorf("UID = %q, want object key zeta", first.UID)
	}
	g, ok := first.Condition.(*ConditionGroup)
	if !ok {
		t.Fatalf("Condition = %T, want *ConditionGroup", first.Condition)
	}
	if g.Type != "Any" || len(g.Children) != 2 {
		t.Errorf("group = %s with %d children", g.Type, len(g.Children))
	}
	if c := g.Children[1].(*Condition); !c.EmptyIsAssigned {
		t.Error("EmptyIsAssigned = false, want true")
	}

	if len(first.Actions) != 3 {
		t.Fatalf("len(Actions) = %d, want 3", len(first.Actions))
	}
	m, ok := first.Actions[1].(*MapAction)
	if !ok {
		t.Fatalf("Actions[1] = %T, want *MapAction", first.Actions[1])
	}
	// Duplicate keys survive decoding for the validator to report.
	if len(m.Map.Values) != 2 || !m.Map.HaveDefault || m.Map.Default != "MINOR" {
		t.Errorf("map = %+v", m.Map)
	}
	ts, ok := first.Actions[2].(*TopoSearchAction)
	if !ok || ts.SearchFilter == nil || ts.SearchFilter.Left != "type" {
		t.Errorf("Actions[2] = %+v, want topo search with leaf filter", first.Actions[2])
	}
}

func TestDecodeMappingRules_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			"unknown action type",
			`{"rules": {"r1": {"actions": [{"id": "a", "actionType": "teleport"}]}}}`,
			ErrUnknownActionType,
		},
		{
			"duplicate uid",
			`{"rules": {"r1": {"actions": []}, "r1": {"actions": []}}}`,
			ErrDuplicateRuleUID,
		},
		{
			"null child",
			`{"rules": {"r1": {"condition": {"type": "All", "children": [null, {"left": "a"}]}}}}`,
			ErrMalformedCondition,
		},
		{
			"group search filter",
			`{"rules": {"r1": {"actions": [{"id": "a", "actionType": "topoSearch",
				"searchFilter": {"type": "All", "children": [{"left": "a"}, {"left": "b"}]}}]}}}`,
			ErrMalformedCondition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMappingRules([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeMappingRules() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := DecodeMappingRules([]byte(`{"rules": [`)); err == nil {
		t.Error("DecodeMappingRules(malformed) error = nil")
	}
}

func TestDecodeMappingRules_EmptyChildrenIsGroup(t *testing.T) {
	doc, err := DecodeMappingRules([]byte(`{"rules": {"r1": {"condition": {"type": "All", "children": []}}}}`))
	if err != nil {
		t.Fatalf("DecodeMappingRules() error = %v", err)
	}
	r, _ := doc.Rules.Get("r1")
	g, ok := r.Condition.(*ConditionGroup)
	if !ok || len(g.Children) != 0 {
		t.Errorf("Condition = %#v, want empty group", r.Condition)
	}

	// A null children value is treated like an absent one.
	doc, err = DecodeMappingRules([]byte(`{"rules": {"r1": {"condition": {"type": "All", "children": null}}}}`))
	if err != nil {
		t.Fatalf("DecodeMappingRules(null children) error = %v", err)
	}
	r, _ = doc.Rules.Get("r1")
	if _, ok := r.Condition.(*Condition); !ok {
		t.Errorf("Condition = %T, want *Condition", r.Condition)
	}
}

// nestedConditionDocument builds a rule whose condition is an All chain
// depth levels deep, ending in a leaf.
func nestedConditionDocument(depth int) []byte {
	var b strings.Builder
	b.WriteString(`{"rules": {"r1": {"condition": `)
	for i := 1; i < depth; i++ {
		b.WriteString(`{"type": "All", "children": [{"left": "${a}", "operator": "equals", "right": ["1"]}, `)
	}
	b.WriteString(`{"left": "${a}", "operator": "assigned"}`)
	for i := 1; i < depth; i++ {
		b.WriteString(`]}`)
	}
	b.WriteString(`}}}`)
	return []byte(b.String())
}

func TestDecodeMappingRules_ConditionDepth(t *testing.T) {
	if _, err := DecodeMappingRules(nestedConditionDocument(MaxConditionDepth)); err != nil {
		t.Fatalf("depth %d: error = %v", MaxConditionDepth, err)
	}

	_, err := DecodeMappingRules(nestedConditionDocument(MaxConditionDepth + 1))
	if !errors.Is(err, ErrConditionTooDeep) {
		t.Errorf("depth %d: error = %v, want ErrConditionTooDeep", MaxConditionDepth+1, err)
	}

	// Deep hostile input fails fast instead of re-parsing every level.
	start := time.Now()
	_, err = DecodeMappingRules(nestedConditionDocument(4000))
	if !errors.Is(err, ErrConditionTooDeep) {
		t.Errorf("depth 4000: error = %v, want ErrConditionTooDeep", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("depth 4000 took %v", elapsed)
	}
}

func TestDecodeMappingRules_Limits(t *testing.T) {
	big := bytes.Repeat([]byte(" "), MaxDocumentSize+1)
	if _, err := DecodeMappingRules(big); !errors.Is(err, ErrDocumentTooLarge) {
		t.Errorf("oversized error = %v, want ErrDocumentTooLarge", err)
	}

	var b strings.Builder
	b.WriteString(`{"rules": {`)
	for i := 0; i <= MaxRulesPerDocument; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `"r%d": {}`, i)
	}
	b.WriteString(`}}`)
	if _, err := DecodeMappingRules([]byte(b.String())); !errors.Is(err, ErrTooManyRules) {
		t.Errorf("too many rules error = %v, want ErrTooManyRules", err)
	}
}

func TestMappingRules_RoundTripKeepsOrder(t *testing.T) {
	doc, err := DecodeMappingRules([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("DecodeMappingRules() error = %v", err)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if strings.Index(string(encoded), `"zeta"`) > strings.Index(string(encoded), `"alpha"`) {
		t.Errorf("encoded rule order changed: %s", encoded)
	}

	again, err := DecodeMappingRules(encoded)
	if err != nil {
		t.Fatalf("DecodeMappingRules(encoded) error = %v", err)
	}
	reencoded, err := json.Marshal(again)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !bytes.Equal(encoded, reencoded) {
		t.Errorf("re-encoding differs:\n%s\n%s", encoded, reencoded)
	}
}

func TestRuleSet(t *testing.T) {
	s := NewRuleSet()
	s.Set("b", &Rule{UID: "b"})
	s.Set("a", &Rule{UID: "a"})
	s.Set("c", &Rule{UID: "c"})
	s.Set("b", &Rule{UID: "b", Description: "replaced"})

	if got := s.Keys(); !slices.Equal(got, []string{"b", "a", "c"}) {
		t.Errorf("Keys() = %v", got)
	}
	if r, _ := s.Get("b"); r.Description != "replaced" {
		t.Errorf("Get(b).Description = %q", r.Description)
	}
	s.Delete("a")
	if got := s.Keys(); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Keys() after Delete = %v", got)
	}

	var nilSet *RuleSet
	if nilSet.Len() != 0 || nilSet.Values() != nil {
		t.Error("nil RuleSet is not empty")
	}
}

func TestVESCatalog(t *testing.T) {
	c := VESCatalog{}
	c.Add("4.1", "measurement")
	c.Add("4.1", "fault")

	if !c.Has("4.1", "fault") || c.Has("4.1", "syslog") || c.Has("5.0", "fault") {
		t.Error("Has() mismatch")
	}
	if !c.HasVersion("4.1") || c.HasVersion("5.0") {
		t.Error("HasVersion() mismatch")
	}
	c.Add("10.0", "syslog")
	if got := c.Versions(); !slices.Equal(got, []string{"10.0", "4.1"}) {
		t.Errorf("Versions() = %v", got)
	}
	if got := c.EventTypes("4.1"); !slices.Equal(got, []string{"fault", "measurement"}) {
		t.Errorf("EventTypes() = %v", got)
	}
}

func TestRegenerateUIDs(t *testing.T) {
	doc, err := DecodeMappingRules([]byte(sampleDocument))
	if err != nil {
		t.Fatalf("DecodeMappingRules() error = %v", err)
	}
	doc.RegenerateUIDs()

	keys := doc.Rules.Keys()
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d", len(keys))
	}
	for _, k := range keys {
		if _, err := ParseRuleUID(k); err != nil {
			t.Errorf("ParseRuleUID(%q) error = %v", k, err)
		}
	}
	if r, _ := doc.Rules.Get(keys[0]); r.Description != "first" {
		t.Errorf("order changed: first rule = %q", r.Description)
	}
}
