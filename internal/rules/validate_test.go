package rules

import (
	"math/bits"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/vesmapper/internal/types"
)

func TestValidate_ValidDocument(t *testing.T) {
	doc := document(
		rule("r1", copyAction("a1", "event.x", "${y}")),
		rule("r2", concatAction("a2", "event.z", "${a}", "-", "${b}")),
	)
	doc.Filter = leaf("event.commonEventHeader.domain", "equals", "fault")

	diags := &Diagnostics{}
	if !NewValidator().ValidateMappingRules(doc, testCatalog(), diags) {
		t.Fatalf("ValidateMappingRules() = false, diagnostics: %v", diags.Items)
	}
	if diags.Len() != 0 {
		t.Errorf("diagnostics = %v, want none", diags.Items)
	}
}

func TestValidate_EmptyRuleSet(t *testing.T) {
	diags := &Diagnostics{}
	if NewValidator().ValidateMappingRules(document(), nil, diags) {
		t.Fatal("ValidateMappingRules() = true, want false")
	}
	if diags.Len() != 1 || !diags.HasCode(CodeInvalidRuleFormat) {
		t.Fatalf("diagnostics = %v, want one INVALID_RULE_FORMAT", diags.Items)
	}
	if got := diags.Items[0].OffendingField; got != "rules" {
		t.Errorf("OffendingField = %q, want rules", got)
	}
}

func TestValidate_LeafCondition(t *testing.T) {
	tests := []struct {
		name  string
		cond  *types.Condition
		codes []ErrorCode
	}{
		{"valid", leaf("a", "equals", "1"), nil},
		{"unary needs no right", leaf("a", "assigned"), nil},
		{"missing left", leaf("", "equals", "1"), []ErrorCode{CodeMissingOperand}},
		{"missing right", leaf("a", "equals"), []ErrorCode{CodeMissingOperand}},
		{"blank right value", leaf("a", "oneOf", "x", " "), []ErrorCode{CodeMissingOperand}},
		{"unknown operator", leaf("a", "gt", "1"), []ErrorCode{CodeInvalidOperator}},
		{
			"everything wrong",
			leaf("", "gt"),
			[]ErrorCode{CodeMissingOperand, CodeInvalidOperator, CodeMissingOperand},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}
			ok := NewValidator().ValidateCondition(tt.cond, diags)
			if ok != (len(tt.codes) == 0) {
				t.Errorf("ValidateCondition() = %v, want %v", ok, len(tt.codes) == 0)
			}
			if diags.Len() != len(tt.codes) {
				t.Fatalf("diagnostics = %v, want codes %v", diags.Items, tt.codes)
			}
			for i, code := range tt.codes {
				if diags.Items[i].ErrorCode != code {
					t.Errorf("Items[%d].ErrorCode = %v, want %v", i, diags.Items[i].ErrorCode, code)
				}
			}
		})
	}
}

func TestValidate_GroupVisitsAllChildren(t *testing.T) {
	cond := group("All",
		leaf("", "equals", "1"),
		group("Any",
			leaf("b", "bogus", "2"),
			leaf("c", "equals"),
		),
		group("Xor", leaf("d", "assigned")),
	)

	diags := &Diagnostics{}
	if NewValidator().ValidateCondition(cond, diags) {
		t.Fatal("ValidateCondition() = true, want false")
	}
	// missing left, bogus operator, missing right, bad group type, too few children
	if diags.Len() != 5 {
		t.Fatalf("len(diagnostics) = %d, want 5: %v", diags.Len(), diags.Items)
	}
	if !diags.HasCode(CodeInvalidGroupCondition) {
		t.Error("missing INVALID_GROUP_CONDITION")
	}
	if !diags.HasCode(CodeMissingConditionItem) {
		t.Error("missing MISSING_CONDITION_ITEM")
	}
}

func TestValidate_DepthExceeded(t *testing.T) {
	var cond types.BaseCondition = leaf("a", "equals", "1")
	for i := 0; i < 10; i++ {
		cond = group("All", cond, leaf("b", "equals", "2"))
	}

	diags := &Diagnostics{}
	if NewValidator(WithValidatorMaxDepth(5)).ValidateCondition(cond, diags) {
		t.Fatal("ValidateCondition() = true, want false")
	}
	if !diags.HasCode(CodeConditionDepthExceeded) {
		t.Errorf("diagnostics = %v, want CONDITION_DEPTH_EXCEEDED", diags.Items)
	}

	diags = &Diagnostics{}
	if !NewValidator().ValidateCondition(cond, diags) {
		t.Errorf("ValidateCondition() with default depth = false: %v", diags.Items)
	}
}

func TestValidate_Actions(t *testing.T) {
	tests := []struct {
		name   string
		action types.Action
		codes  []ErrorCode
	}{
		{"copy valid", copyAction("a", "t", "f"), nil},
		{"copy missing target and from", copyAction("a", "", ""), []ErrorCode{CodeMissingActionField, CodeMissingActionField}},
		{"copy missing id", copyAction("", "t", "f"), []ErrorCode{CodeMissingActionField}},
		{"concat one value", concatAction("a", "t", "x"), []ErrorCode{CodeMissingConcatValue}},
		{"concat blank value", concatAction("a", "t", "x", ""), []ErrorCode{CodeMissingConcatValue}},
		{"regex missing regex", regexAction("a", "t", "f", ""), []ErrorCode{CodeMissingActionField}},
		{"map empty", mapAction("a", "t", "f"), []ErrorCode{CodeMissingEntry}},
		{"map blank entry", mapAction("a", "t", "f", types.MapEntry{Key: "k"}), []ErrorCode{CodeMissingEntry}},
		{
			"clear empty",
			&types.ClearAction{ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeClear}},
			[]ErrorCode{CodeMissingClearValue},
		},
		{
			"date formatter missing tz",
			&types.DateFormatterAction{
				ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeDateFormatter, Target: "t"},
				FromValue:  "f", FromFormat: "ff", ToFormat: "tf",
			},
			[]ErrorCode{CodeMissingDateField, CodeMissingDateField},
		},
		{
			"replace text missing find",
			&types.ReplaceTextAction{
				ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeReplaceText},
				FromValue:  "f", Replace: "r",
			},
			[]ErrorCode{CodeMissingReplaceField},
		},
		{
			"log event missing title",
			&types.LogEventAction{ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeLogEvent}},
			[]ErrorCode{CodeMissingLogField},
		},
		{
			"log text missing text",
			&types.LogTextAction{ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeLogText}, Name: "n"},
			[]ErrorCode{CodeMissingLogField},
		},
		{
			"string transform missing all",
			&types.StringTransformAction{ActionBase: types.ActionBase{ID: "a", ActionType: types.ActionTypeStringTransform}},
			[]ErrorCode{CodeMissingTransformField, CodeMissingTransformField, CodeMissingTransformField},
		},
		{"hp metric missing", hpMetricAction("a", ""), []ErrorCode{CodeMissingMetric}},
		{"hp metric valid", hpMetricAction("a", "cpu"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}
			ok := NewValidator().ValidateAction(tt.action, diags)
			if ok != (len(tt.codes) == 0) {
				t.Errorf("ValidateAction() = %v, want %v", ok, len(tt.codes) == 0)
			}
			if diags.Len() != len(tt.codes) {
				t.Fatalf("diagnostics = %v, want codes %v", diags.Items, tt.codes)
			}
			for i, code := range tt.codes {
				if diags.Items[i].ErrorCode != code {
					t.Errorf("Items[%d].ErrorCode = %v, want %v", i, diags.Items[i].ErrorCode, code)
				}
			}
			if diags.Fault() != nil {
				t.Errorf("Fault() = %v, want nil", diags.Fault())
			}
		})
	}
}

func TestValidate_MapDuplicateKey(t *testing.T) {
	a := mapAction("m1", "t", "f",
		types.MapEntry{Key: "1", Value: "CRITICAL"},
		types.MapEntry{Key: "2", Value: "MAJOR"},
		types.MapEntry{Key: "1", Value: "MINOR"},
		types.MapEntry{Key: "1", Value: "WARNING"},
	)

	diags := &Diagnostics{}
	if NewValidator().ValidateAction(a, diags) {
		t.Fatal("ValidateAction() = true, want false")
	}
	if diags.Count(CodeDuplicateKey) != 1 {
		t.Fatalf("DUPLICATE_KEY count = %d, want 1: %v", diags.Count(CodeDuplicateKey), diags.Items)
	}
	d := diags.Items[0]
	if d.ContextVariables[0] != "1" {
		t.Errorf("duplicate key context = %q, want %q", d.ContextVariables[0], "1")
	}
	if got, want := d.Message(), "Duplicate key 1 in map table of action m1"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
}

func TestValidate_MapDefault(t *testing.T) {
	entries := []types.MapEntry{{Key: "1", Value: "CRITICAL"}}

	flaggedMissing := mapAction("m1", "t", "f", entries...)
	flaggedMissing.Map.HaveDefault = true

	unflaggedPresent := mapAction("m2", "t", "f", entries...)
	unflaggedPresent.Map.Default = "NORMAL"

	withDefault := mapAction("m3", "t", "f", entries...)
	withDefault.Map.HaveDefault = true
	withDefault.Map.Default = "NORMAL"

	tests := []struct {
		action *types.MapAction
		code   ErrorCode
	}{
		{flaggedMissing, CodeMissingDefaultValue},
		{unflaggedPresent, CodeInvalidRuleFormat},
		{withDefault, ""},
	}
	for _, tt := range tests {
		diags := &Diagnostics{}
		NewValidator().ValidateAction(tt.action, diags)
		if tt.code == "" {
			if diags.Len() != 0 {
				t.Errorf("%s: diagnostics = %v, want none", tt.action.ID, diags.Items)
			}
			continue
		}
		if !diags.HasCode(tt.code) {
			t.Errorf("%s: diagnostics = %v, want %v", tt.action.ID, diags.Items, tt.code)
		}
	}
}

func TestValidate_TopoSearch(t *testing.T) {
	base := types.ActionBase{ID: "ts", ActionType: types.ActionTypeTopoSearch}

	tests := []struct {
		name   string
		action *types.TopoSearchAction
		codes  []ErrorCode
	}{
		{
			"enrich valid",
			&types.TopoSearchAction{ActionBase: base, SearchField: "f", SearchValue: "v", Enrich: true, EnrichFields: []string{"a"}},
			nil,
		},
		{
			"enrich without fields",
			&types.TopoSearchAction{ActionBase: base, SearchField: "f", SearchValue: "v", Enrich: true},
			[]ErrorCode{CodeMissingEnrichFields},
		},
		{
			"updates empty",
			&types.TopoSearchAction{ActionBase: base, SearchField: "f", SearchValue: "v"},
			[]ErrorCode{CodeMissingEnrichFields},
		},
		{
			"updates duplicate",
			&types.TopoSearchAction{
				ActionBase: base, SearchField: "f", SearchValue: "v",
				Updates: []types.MapEntry{{Key: "k", Value: "1"}, {Key: "k", Value: "2"}},
			},
			[]ErrorCode{CodeDuplicateKey},
		},
		{
			"missing search fields and bad filter",
			&types.TopoSearchAction{
				ActionBase:   base,
				SearchFilter: leaf("x", "equals"),
				Enrich:       true, EnrichFields: []string{"a"},
			},
			[]ErrorCode{CodeMissingSearchField, CodeMissingSearchField, CodeMissingOperand},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}
			NewValidator().ValidateAction(tt.action, diags)
			if diags.Len() != len(tt.codes) {
				t.Fatalf("diagnostics = %v, want codes %v", diags.Items, tt.codes)
			}
			for i, code := range tt.codes {
				if diags.Items[i].ErrorCode != code {
					t.Errorf("Items[%d].ErrorCode = %v, want %v", i, diags.Items[i].ErrorCode, code)
				}
			}
		})
	}
}

func TestValidate_Rule(t *testing.T) {
	r := &types.Rule{UID: "r1", GroupID: "g1"}

	diags := &Diagnostics{}
	if NewValidator().ValidateRule(r, diags) {
		t.Fatal("ValidateRule() = true, want false")
	}
	for _, code := range []ErrorCode{CodeInvalidRuleFormat, CodeMissingRuleDesc, CodeMissingAction} {
		if !diags.HasCode(code) {
			t.Errorf("diagnostics = %v, missing %v", diags.Items, code)
		}
	}
}

func TestValidate_PhaseDefinitions(t *testing.T) {
	tests := []struct {
		name  string
		rules []*types.Rule
		valid bool
	}{
		{"no phases", []*types.Rule{rule("r1", copyAction("a", "t", "f")), rule("r2", copyAction("a", "t", "f"))}, true},
		{
			"all phased ungrouped",
			[]*types.Rule{phased(rule("r1", copyAction("a", "t", "f")), "", "p1"), phased(rule("r2", copyAction("a", "t", "f")), "", "p2")},
			true,
		},
		{
			"some phased ungrouped",
			[]*types.Rule{phased(rule("r1", copyAction("a", "t", "f")), "", "p1"), rule("r2", copyAction("a", "t", "f"))},
			false,
		},
		{
			"all grouped",
			[]*types.Rule{phased(rule("r1", copyAction("a", "t", "f")), "A", "p1"), phased(rule("r2", copyAction("a", "t", "f")), "B", "p2")},
			true,
		},
		{
			"some grouped",
			[]*types.Rule{phased(rule("r1", copyAction("a", "t", "f")), "A", "p1"), phased(rule("r2", copyAction("a", "t", "f")), "", "p1")},
			false,
		},
		{
			"group spans phases",
			[]*types.Rule{phased(rule("r1", copyAction("a", "t", "f")), "A", "p1"), phased(rule("r2", copyAction("a", "t", "f")), "A", "p2")},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}
			ok := NewValidator().ValidateMappingRules(document(tt.rules...), nil, diags)
			if ok != tt.valid {
				t.Errorf("ValidateMappingRules() = %v, want %v: %v", ok, tt.valid, diags.Items)
			}
			found := false
			for _, d := range diags.Items {
				if d.ErrorCode == CodeInvalidRuleFormat && len(d.ContextVariables) > 0 &&
					d.ContextVariables[0] == "invalid phase definitions" {
					found = true
				}
			}
			if found == tt.valid {
				t.Errorf("invalid phase definitions reported = %v, want %v", found, !tt.valid)
			}
		})
	}
}

func TestValidate_VESSchema(t *testing.T) {
	tests := []struct {
		version, eventType string
		valid              bool
	}{
		{"4.1", "fault", true},
		{"4.1", "syslog", false},
		{"9.9", "fault", false},
		{"", "", false},
	}
	for _, tt := range tests {
		doc := document(rule("r1", copyAction("a", "t", "f")))
		doc.Version = tt.version
		doc.EventType = tt.eventType

		diags := &Diagnostics{}
		NewValidator().ValidateMappingRules(doc, testCatalog(), diags)
		if got := diags.HasCode(CodeVESSchemaNotFound); got == tt.valid {
			t.Errorf("(%q, %q) VES_SCHEMA_NOT_FOUND = %v, want %v", tt.version, tt.eventType, got, !tt.valid)
		}
	}

	// A nil catalog skips the schema check.
	doc := document(rule("r1", copyAction("a", "t", "f")))
	doc.Version = "9.9"
	diags := &Diagnostics{}
	if !NewValidator().ValidateMappingRules(doc, nil, diags) {
		t.Errorf("ValidateMappingRules(nil catalog) = false: %v", diags.Items)
	}
}

func TestValidate_RuleForDocument(t *testing.T) {
	doc := document(
		phased(rule("r1", copyAction("a", "t", "f")), "A", "p1"),
		phased(rule("r2", copyAction("a", "t", "f")), "B", "p2"),
	)

	// Joining group A under another phase splits the group.
	incoming := phased(rule("r3", copyAction("a", "t", "f")), "A", "p2")
	diags := &Diagnostics{}
	if NewValidator().ValidateRuleForDocument(doc, incoming, diags) {
		t.Errorf("ValidateRuleForDocument() = true, want false")
	}

	// Replacing r1 with a different phase is fine: it is A's only rule.
	replacement := phased(rule("r1", copyAction("a", "t", "f")), "A", "p3")
	diags = &Diagnostics{}
	if !NewValidator().ValidateRuleForDocument(doc, replacement, diags) {
		t.Errorf("ValidateRuleForDocument() = false: %v", diags.Items)
	}

	// An ungrouped rule cannot join a grouped document.
	diags = &Diagnostics{}
	if NewValidator().ValidateRuleForDocument(doc, rule("r4", copyAction("a", "t", "f")), diags) {
		t.Errorf("ValidateRuleForDocument() = true, want false")
	}
}

// Property-based test: validation reports every fault, not just the first
func TestValidate_PropertyTotality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("one diagnostic per injected fault", prop.ForAll(
		func(n int, descMask, targetMask uint8) bool {
			var rules []*types.Rule
			for i := 0; i < n; i++ {
				target := "event.t"
				if targetMask&(1<<i) != 0 {
					target = ""
				}
				r := rule(string(rune('a'+i)), copyAction("act", target, "${x}"))
				if descMask&(1<<i) != 0 {
					r.Description = ""
				}
				rules = append(rules, r)
			}

			used := uint8(1<<n - 1)
			want := bits.OnesCount8(descMask&used) + bits.OnesCount8(targetMask&used)

			diags := &Diagnostics{}
			ok := NewValidator().ValidateMappingRules(document(rules...), nil, diags)
			return diags.Len() == want && ok == (want == 0)
		},
		gen.IntRange(1, 8),
		gen.UInt8(),
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// Property-based test: validation never panics on arbitrary condition trees
func TestValidate_PropertyNeverPanics(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	operators := []string{"equals", "oneOf", "assigned", "bogus", ""}
	groupTypes := []string{"All", "Any", "Not", "Xor", ""}

	properties.Property("validation is total over arbitrary trees", prop.ForAll(
		func(depth, width, seed int) bool {
			var build func(d int) types.BaseCondition
			build = func(d int) types.BaseCondition {
				seed = seed*1103515245 + 12345
				if d == 0 || seed%3 == 0 {
					right := []string{}
					if seed%2 == 0 {
						right = append(right, "v")
					}
					return leaf("f", operators[pick(seed, len(operators))], right...)
				}
				g := group(groupTypes[pick(seed, len(groupTypes))])
				for i := 0; i < width; i++ {
					g.Children = append(g.Children, build(d-1))
				}
				return g
			}
			cond := build(depth)

			defer func() {
				if r := recover(); r != nil {
					t.Errorf("ValidateCondition() panicked: %v", r)
				}
			}()
			diags := &Diagnostics{}
			NewValidator(WithValidatorMaxDepth(4)).ValidateCondition(cond, diags)
			return diags.Fault() == nil
		},
		gen.IntRange(0, 6),
		gen.IntRange(0, 3),
		gen.Int(),
	))

	properties.TestingRun(t)
}

func pick(seed, n int) int {
	return int(uint(seed) % uint(n))
}
