// internal/rules/translate_actions.go
package rules

import (
	"github.com/solatis/vesmapper/internal/types"
)

// foldStep is one translated action awaiting the merge fold.
type foldStep struct {
	processor Processor
	mergeable bool
}

// fold reduces translated actions to the processor list. open is the Set
// processor still accepting merges (nil when the window is closed). A
// mergeable step merges its updates into open when possible, otherwise it
// is emitted and becomes the new open processor; any other step is emitted
// and closes the window.
func fold(open *SetProcessor, steps []foldStep) []Processor {
	out := make([]Processor, 0, len(steps))
	for _, step := range steps {
		set, isSet := step.processor.(*SetProcessor)
		if !step.mergeable || !isSet {
			out = append(out, step.processor)
			open = nil
			continue
		}
		if open != nil {
			for _, k := range set.Updates.Keys() {
				v, _ := set.Updates.Get(k)
				open.Updates.Set(k, v)
			}
			continue
		}
		out = append(out, set)
		open = set
	}
	return out
}

// translateActions translates each action and folds the result.
func (t *Translator) translateActions(actions []types.Action) ([]Processor, error) {
	steps := make([]foldStep, 0, len(actions))
	for _, a := range actions {
		if a == nil {
			return nil, configErrorf("action", "nil action")
		}
		h, err := t.registry.action(ActionType(a.Base().ActionType))
		if err != nil {
			return nil, err
		}
		p, err := h.translate(t, a)
		if err != nil {
			return nil, err
		}
		steps = append(steps, foldStep{processor: p, mergeable: h.mergeable})
	}
	return fold(nil, steps), nil
}

func newSet(field, value string) *SetProcessor {
	updates := NewOrderedMap()
	updates.Set(field, value)
	return &SetProcessor{Class: ClassSet, Updates: updates}
}

func translateCopy(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.CopyAction](a)
	if err != nil {
		return nil, err
	}
	return newSet(act.Target, act.FromValue), nil
}

func translateConcat(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.ConcatAction](a)
	if err != nil {
		return nil, err
	}
	return newSet(act.Target, act.FromValue()), nil
}

func translateRegex(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.RegexAction](a)
	if err != nil {
		return nil, err
	}
	return &ExtractTextProcessor{
		Class: ClassExtractText,
		Field: act.Target,
		Value: act.FromValue,
		Regex: act.RegexValue,
	}, nil
}

func translateMap(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.MapAction](a)
	if err != nil {
		return nil, err
	}
	values := NewOrderedMap()
	for _, e := range act.Map.Values {
		values.Set(e.Key, e.Value)
	}
	p := &MapAlarmValuesProcessor{
		Class:     ClassMapAlarmValues,
		Field:     act.Target,
		Value:     act.FromValue,
		MapValues: values,
	}
	if act.Map.HaveDefault {
		def := act.Map.Default
		p.Default = &def
	}
	return p, nil
}

func translateClear(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.ClearAction](a)
	if err != nil {
		return nil, err
	}
	fields := make([]string, len(act.FromValues))
	copy(fields, act.FromValues)
	return &ClearProcessor{Class: ClassClear, Fields: fields}, nil
}

func translateDateFormatter(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.DateFormatterAction](a)
	if err != nil {
		return nil, err
	}
	return &DateFormatterProcessor{
		Class:      ClassDateFormatter,
		FromFormat: act.FromFormat,
		FromTz:     act.FromTz,
		ToField:    act.Target,
		ToFormat:   act.ToFormat,
		ToTz:       act.ToTz,
		Value:      act.FromValue,
	}, nil
}

func translateReplaceText(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.ReplaceTextAction](a)
	if err != nil {
		return nil, err
	}
	return &ReplaceTextProcessor{
		Class:   ClassReplaceText,
		Field:   act.FromValue,
		Find:    act.Find,
		Replace: act.Replace,
	}, nil
}

func translateLogEvent(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.LogEventAction](a)
	if err != nil {
		return nil, err
	}
	return &LogEventProcessor{Class: ClassLogEvent, Title: act.Title}, nil
}

func translateLogText(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.LogTextAction](a)
	if err != nil {
		return nil, err
	}
	return &LogTextProcessor{
		Class:    ClassLogText,
		LogLevel: act.Level,
		LogName:  act.Name,
		LogText:  act.Text,
	}, nil
}

func translateStringTransform(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.StringTransformAction](a)
	if err != nil {
		return nil, err
	}
	return &StringTransformProcessor{
		Class:       ClassStringTransform,
		TargetCase:  act.TargetCase,
		IsTrim:      act.Trim,
		StartValue:  act.StartValue,
		TargetField: act.Target,
	}, nil
}

func translateTopoSearch(t *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.TopoSearchAction](a)
	if err != nil {
		return nil, err
	}
	p := &TopologySearchProcessor{
		Class:       ClassTopologySearch,
		SearchField: act.SearchField,
		SearchValue: act.SearchValue,
	}
	if act.SearchFilter != nil {
		// The search filter is a single leaf, encoded as a group child.
		if p.SearchFilter, err = translateLeafCondition(t, act.SearchFilter, 1); err != nil {
			return nil, err
		}
	}
	if act.Enrich {
		fields := make([]string, len(act.EnrichFields))
		copy(fields, act.EnrichFields)
		p.Enrich = &EnrichSpec{Fields: fields, Prefix: act.EnrichPrefix}
		return p, nil
	}
	updates := NewOrderedMap()
	for _, e := range act.Updates {
		updates.Set(e.Key, e.Value)
	}
	p.Updates = updates
	return p, nil
}

func translateHpMetric(_ *Translator, a types.Action) (Processor, error) {
	act, err := asAction[*types.HpMetricAction](a)
	if err != nil {
		return nil, err
	}
	return &HpMetricProcessor{Class: ClassHpMetric, Parser: act.SelectedHpMetric}, nil
}
