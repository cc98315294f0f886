package rules

import (
	"errors"
	"log/slog"

	"github.com/solatis/vesmapper/internal/types"
)

// Engine composes the validator and translator behind the caller flow used by
// the CLI and the gRPC service: validate, then translate only valid documents.
// Safe for concurrent use; it holds no per-call state.
type Engine struct {
	validator  *Validator
	translator *Translator
	logger     *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	maxDepth int
	logger   *slog.Logger
}

// WithMaxConditionDepth sets the condition nesting limit for both validation
// and translation.
func WithMaxConditionDepth(depth int) EngineOption {
	return func(o *engineOptions) {
		o.maxDepth = depth
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine creates a new rules engine instance.
func NewEngine(opts ...EngineOption) *Engine {
	o := engineOptions{maxDepth: types.MaxConditionDepth}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		validator:  NewValidator(WithValidatorMaxDepth(o.maxDepth)),
		translator: NewTranslator(WithTranslatorMaxDepth(o.maxDepth)),
		logger:     logger.With("component", "rules"),
	}
}

// Validator returns the engine's validator.
func (e *Engine) Validator() *Validator {
	return e.validator
}

// Validate checks doc and returns every finding. A nil catalog skips the VES
// schema check. The error is non-nil only for a ConfigurationError.
func (e *Engine) Validate(doc *types.MappingRules, catalog types.VESCatalog) (*Diagnostics, error) {
	diags := &Diagnostics{}
	e.validator.ValidateMappingRules(doc, catalog, diags)
	if err := diags.Fault(); err != nil {
		e.logger.Error("validation aborted", "error", err)
		return nil, err
	}
	return diags, nil
}

// ValidateRule checks a single rule about to be saved into doc.
func (e *Engine) ValidateRule(doc *types.MappingRules, r *types.Rule) (*Diagnostics, error) {
	diags := &Diagnostics{}
	e.validator.ValidateRuleForDocument(doc, r, diags)
	if err := diags.Fault(); err != nil {
		e.logger.Error("rule validation aborted", "error", err)
		return nil, err
	}
	return diags, nil
}

// Translate validates doc and compiles it into a Pipeline. Invalid documents
// are refused with an *InvalidDocumentError carrying the diagnostics.
func (e *Engine) Translate(doc *types.MappingRules) (*Pipeline, error) {
	diags, err := e.Validate(doc, nil)
	if err != nil {
		return nil, err
	}
	if diags.Len() > 0 {
		return nil, &InvalidDocumentError{Diagnostics: diags}
	}

	pipeline, err := e.translator.translate(doc)
	if err != nil {
		var cfgErr *ConfigurationError
		if errors.As(err, &cfgErr) {
			e.logger.Error("translation failed", "node", cfgErr.Node, "reason", cfgErr.Reason)
		} else {
			e.logger.Error("translation failed", "error", err)
		}
		return nil, err
	}

	e.logger.Debug("translated mapping rules",
		"version", doc.Version,
		"event_type", doc.EventType,
		"rules", doc.Rules.Len(),
		"entries", len(pipeline.Processing))
	return pipeline, nil
}

// Import validates doc against catalog and assigns fresh rule UIDs in place.
// Invalid documents are refused with an *InvalidDocumentError and left
// unmodified.
func (e *Engine) Import(doc *types.MappingRules, catalog types.VESCatalog) (*types.MappingRules, error) {
	if catalog == nil {
		return nil, types.ErrCatalogUnavailable
	}
	diags, err := e.Validate(doc, catalog)
	if err != nil {
		return nil, err
	}
	if diags.Len() > 0 {
		return nil, &InvalidDocumentError{Diagnostics: diags}
	}
	doc.RegenerateUIDs()
	e.logger.Debug("imported mapping rules",
		"version", doc.Version,
		"event_type", doc.EventType,
		"rules", doc.Rules.Len())
	return doc, nil
}
