// internal/rules/validate_actions.go
package rules

import (
	"strings"

	"github.com/solatis/vesmapper/internal/types"
)

// Per-kind action validators, registered in registry.go.

// validateBase checks the id and, for field-producing kinds, the target.
func validateBase(a types.Action, needsTarget bool, diags *Diagnostics) bool {
	b := a.Base()
	ok := true
	if strings.TrimSpace(b.ID) == "" {
		diags.Add(CodeMissingActionField, "id", "id", b.ActionType, b.ID)
		ok = false
	}
	if needsTarget && strings.TrimSpace(b.Target) == "" {
		diags.Add(CodeMissingActionField, "target", "target", b.ActionType, b.ID)
		ok = false
	}
	return ok
}

func requireFromValue(a types.Action, fromValue string, diags *Diagnostics) bool {
	if strings.TrimSpace(fromValue) != "" {
		return true
	}
	b := a.Base()
	diags.Add(CodeMissingActionField, "fromValue", "fromValue", b.ActionType, b.ID)
	return false
}

// requireFields reports code once for each named field whose value is blank.
// fields alternates name, value.
func requireFields(code ErrorCode, id string, diags *Diagnostics, fields ...string) bool {
	ok := true
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			diags.Add(code, fields[i], fields[i], id)
			ok = false
		}
	}
	return ok
}

// validateEntries checks a key/value table for blank keys or values
// (reported once) and duplicate keys (reported once per key).
func validateEntries(table, id string, entries []types.MapEntry, diags *Diagnostics) bool {
	ok := true
	blank := false
	seen := make(map[string]int, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Key) == "" || strings.TrimSpace(e.Value) == "" {
			blank = true
		}
		seen[e.Key]++
		if seen[e.Key] == 2 {
			diags.Add(CodeDuplicateKey, table, e.Key, table, id)
			ok = false
		}
	}
	if blank {
		diags.Add(CodeMissingEntry, table, table, id)
		ok = false
	}
	return ok
}

func validateCopy(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.CopyAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, true, diags)
	return requireFromValue(act, act.FromValue, diags) && ok
}

func validateConcat(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.ConcatAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, true, diags)
	if len(act.FromValues) < 2 || !nonEmptyAll(act.FromValues) {
		diags.Add(CodeMissingConcatValue, "fromValues", act.ID)
		ok = false
	}
	return ok
}

func validateRegex(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.RegexAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, true, diags)
	ok = requireFromValue(act, act.FromValue, diags) && ok
	if strings.TrimSpace(act.RegexValue) == "" {
		diags.Add(CodeMissingActionField, "regexValue", "regexValue", act.ActionType, act.ID)
		ok = false
	}
	return ok
}

func validateMap(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.MapAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, true, diags)
	ok = requireFromValue(act, act.FromValue, diags) && ok
	if len(act.Map.Values) == 0 {
		diags.Add(CodeMissingEntry, "map", "map", act.ID)
		ok = false
	} else {
		ok = validateEntries("map", act.ID, act.Map.Values, diags) && ok
	}

	switch {
	case act.Map.HaveDefault && strings.TrimSpace(act.Map.Default) == "":
		diags.Add(CodeMissingDefaultValue, "defaultValue", act.ID)
		ok = false
	case !act.Map.HaveDefault && act.Map.Default != "":
		diags.Add(CodeInvalidRuleFormat, "defaultValue", "default value set without haveDefault on action "+act.ID)
		ok = false
	}
	return ok
}

func validateClear(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.ClearAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	if !nonEmptyAll(act.FromValues) {
		diags.Add(CodeMissingClearValue, "fromValues", act.ID)
		ok = false
	}
	return ok
}

func validateDateFormatter(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.DateFormatterAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, true, diags)
	ok = requireFromValue(act, act.FromValue, diags) && ok
	return requireFields(CodeMissingDateField, act.ID, diags,
		"fromFormat", act.FromFormat,
		"fromTz", act.FromTz,
		"toFormat", act.ToFormat,
		"toTz", act.ToTz,
	) && ok
}

func validateReplaceText(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.ReplaceTextAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	return requireFields(CodeMissingReplaceField, act.ID, diags,
		"fromValue", act.FromValue,
		"find", act.Find,
		"replace", act.Replace,
	) && ok
}

func validateLogEvent(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.LogEventAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	return requireFields(CodeMissingLogField, act.ID, diags, "title", act.Title) && ok
}

func validateLogText(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.LogTextAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	return requireFields(CodeMissingLogField, act.ID, diags, "text", act.Text) && ok
}

func validateStringTransform(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.StringTransformAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	return requireFields(CodeMissingTransformField, act.ID, diags,
		"targetCase", act.TargetCase,
		"target", act.Target,
		"startValue", act.StartValue,
	) && ok
}

func validateTopoSearch(v *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.TopoSearchAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	ok = requireFields(CodeMissingSearchField, act.ID, diags,
		"searchField", act.SearchField,
		"searchValue", act.SearchValue,
	) && ok

	if act.SearchFilter != nil {
		ok = v.validateCondition(act.SearchFilter, 1, diags) && ok
	}

	if act.Enrich {
		if !nonEmptyAll(act.EnrichFields) {
			diags.Add(CodeMissingEnrichFields, "enrichFields", act.ID)
			ok = false
		}
		return ok
	}
	if len(act.Updates) == 0 {
		diags.Add(CodeMissingEnrichFields, "updates", act.ID)
		return false
	}
	return validateEntries("updates", act.ID, act.Updates, diags) && ok
}

func validateHpMetric(_ *Validator, a types.Action, diags *Diagnostics) bool {
	act, err := asAction[*types.HpMetricAction](a)
	if err != nil {
		diags.fault(err)
		return false
	}
	ok := validateBase(act, false, diags)
	if strings.TrimSpace(act.SelectedHpMetric) == "" {
		diags.Add(CodeMissingMetric, "selectedHpMetric", act.ID)
		ok = false
	}
	return ok
}
