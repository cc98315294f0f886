package rules

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDiagnostic_Message(t *testing.T) {
	d := Diagnostic{
		ErrorCode:        CodeVESSchemaNotFound,
		OffendingField:   "version",
		ContextVariables: []string{"4.1", "syslog"},
	}
	if got, want := d.Message(), "VES schema version 4.1 with event type syslog not found"; got != want {
		t.Errorf("Message() = %q, want %q", got, want)
	}
	if got := d.String(); !strings.HasPrefix(got, "version: [VES_SCHEMA_NOT_FOUND]") {
		t.Errorf("String() = %q", got)
	}
}

func TestDiagnostic_MessageKeepsPlaceholderText(t *testing.T) {
	tests := []struct {
		name string
		d    Diagnostic
		want string
	}{
		{
			"later value holds %1",
			Diagnostic{ErrorCode: CodeMissingActionField, ContextVariables: []string{"target", "copy", "id%1"}},
			"Please fill the target field of copy action id%1",
		},
		{
			"earlier value holds %2",
			Diagnostic{ErrorCode: CodeVESSchemaNotFound, ContextVariables: []string{"%2", "fault"}},
			"VES schema version %2 with event type fault not found",
		},
		{
			"missing variable left as is",
			Diagnostic{ErrorCode: CodeVESSchemaNotFound, ContextVariables: []string{"4.1"}},
			"VES schema version 4.1 with event type %2 not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiagnostic_EveryCodeHasTemplate(t *testing.T) {
	codes := []ErrorCode{
		CodeMissingOperand, CodeMissingConditionItem, CodeMissingActionField,
		CodeMissingConcatValue, CodeMissingClearValue, CodeMissingEntry,
		CodeMissingDefaultValue, CodeMissingDateField, CodeMissingReplaceField,
		CodeMissingSearchField, CodeMissingEnrichFields, CodeMissingTransformField,
		CodeMissingLogField, CodeMissingMetric, CodeMissingAction, CodeMissingRuleDesc,
		CodeInvalidOperator, CodeInvalidGroupCondition, CodeInvalidRuleFormat,
		CodeVESSchemaNotFound, CodeDuplicateKey, CodeConditionDepthExceeded,
	}
	for _, code := range codes {
		if _, ok := messageTemplates[code]; !ok {
			t.Errorf("no message template for %s", code)
		}
	}
}

func TestDiagnostics_JSON(t *testing.T) {
	var diags Diagnostics
	diags.Add(CodeMissingAction, "actions", "r1")

	got, err := json.Marshal(diags.Items)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	want := `[{"errorCode":"MISSING_ACTION","offendingField":"actions","contextVariables":["r1"]}]`
	if string(got) != want {
		t.Errorf("JSON = %s, want %s", got, want)
	}
}

func TestDiagnostics_MergeAndErr(t *testing.T) {
	var a, b Diagnostics
	if a.Err() != nil {
		t.Errorf("Err() on empty = %v, want nil", a.Err())
	}
	a.Add(CodeMissingRuleDesc, "description")
	b.Add(CodeMissingAction, "actions", "r1")
	b.fault(configErrorf("x", "boom"))

	a.Merge(&b)
	if a.Len() != 2 {
		t.Errorf("Len() = %d, want 2", a.Len())
	}
	if a.Fault() == nil {
		t.Error("Fault() = nil after merging a fault")
	}
	if !strings.Contains(a.Err().Error(), "MISSING_ACTION") {
		t.Errorf("Err() = %v, want MISSING_ACTION", a.Err())
	}
}
