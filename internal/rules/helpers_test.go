package rules

import (
	"github.com/solatis/vesmapper/internal/types"
)

// Test builders for documents, conditions and actions.

func leaf(left, op string, right ...string) *types.Condition {
	return &types.Condition{Left: left, Operator: op, Right: right}
}

func group(typ string, children ...types.BaseCondition) *types.ConditionGroup {
	return &types.ConditionGroup{Type: typ, Children: children}
}

func copyAction(id, target, from string) *types.CopyAction {
	return &types.CopyAction{
		ActionBase: types.ActionBase{ID: id, ActionType: types.ActionTypeCopy, Target: target},
		FromValue:  from,
	}
}

func concatAction(id, target string, from ...string) *types.ConcatAction {
	return &types.ConcatAction{
		ActionBase: types.ActionBase{ID: id, ActionType: types.ActionTypeConcat, Target: target},
		FromValues: from,
	}
}

func regexAction(id, target, from, regex string) *types.RegexAction {
	return &types.RegexAction{
		ActionBase: types.ActionBase{ID: id, ActionType: types.ActionTypeRegex, Target: target},
		FromValue:  from,
		RegexValue: regex,
	}
}

func hpMetricAction(id, metric string) *types.HpMetricAction {
	return &types.HpMetricAction{
		ActionBase:       types.ActionBase{ID: id, ActionType: types.ActionTypeHpMetric},
		SelectedHpMetric: metric,
	}
}

func mapAction(id, target, from string, entries ...types.MapEntry) *types.MapAction {
	return &types.MapAction{
		ActionBase: types.ActionBase{ID: id, ActionType: types.ActionTypeMap, Target: target},
		FromValue:  from,
		Map:        types.MapTable{Values: entries},
	}
}

func rule(uid string, actions ...types.Action) *types.Rule {
	return &types.Rule{UID: uid, Description: "rule " + uid, Actions: actions}
}

func phased(r *types.Rule, groupID, phase string) *types.Rule {
	r.GroupID = groupID
	r.Phase = phase
	return r
}

func document(rules ...*types.Rule) *types.MappingRules {
	set := types.NewRuleSet()
	for _, r := range rules {
		set.Set(r.UID, r)
	}
	return &types.MappingRules{
		Version:      "4.1",
		EventType:    "fault",
		EntryPhase:   "start",
		PublishPhase: "end",
		Rules:        set,
	}
}

func testCatalog() types.VESCatalog {
	c := types.VESCatalog{}
	c.Add("4.1", "fault")
	c.Add("4.1", "measurement")
	c.Add("5.4", "fault")
	return c
}

// runPhases returns the RunPhase targets in a processor list, in order.
func runPhases(procs []Processor) []string {
	var out []string
	for _, p := range procs {
		if rp, ok := p.(*RunPhaseProcessor); ok {
			out = append(out, rp.Phase)
		}
	}
	return out
}
