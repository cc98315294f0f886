// Package api implements the gRPC mapping-rules service: validation,
// translation and import of VES mapping-rules documents.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solatis/vesmapper/internal/core/catalog"
	"github.com/solatis/vesmapper/internal/rules"
	"github.com/solatis/vesmapper/internal/types"
)

// Service implements MappingRulesServer.
// Thin orchestration layer delegating to the rules engine and catalog.
type Service struct {
	engine  *rules.Engine
	catalog catalog.Provider // nil skips the VES schema check on Validate
	metrics *Metrics
	logger  *slog.Logger
}

var _ MappingRulesServer = (*Service)(nil)

// NewService creates service instance with dependencies. catalog, metrics and
// logger may be nil.
func NewService(engine *rules.Engine, provider catalog.Provider, metrics *Metrics, logger *slog.Logger) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engine:  engine,
		catalog: provider,
		metrics: metrics,
		logger:  logger.With("component", "api"),
	}, nil
}

// Validate reports every diagnostic of the document. An invalid document is
// not an RPC error; the report carries valid=false.
func (s *Service) Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	doc, err := decode(req)
	if err != nil {
		return nil, toStatus(err)
	}

	var vesCatalog types.VESCatalog
	if s.catalog != nil {
		if vesCatalog, err = s.catalog.AvailableVersionsAndEventTypes(ctx); err != nil {
			return nil, toStatus(err)
		}
	}

	diags, err := s.engine.Validate(doc, vesCatalog)
	if err != nil {
		return nil, toStatus(err)
	}
	s.metrics.recordDiagnostics(diagnosticCodes(diags))

	report, err := diagnosticsReport(diags)
	if err != nil {
		return nil, toStatus(err)
	}
	return report, nil
}

// Translate returns the pipeline JSON of a valid document.
func (s *Service) Translate(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	doc, err := decode(req)
	if err != nil {
		return nil, toStatus(err)
	}

	pipeline, err := s.engine.Translate(doc)
	if err != nil {
		s.recordInvalid(err)
		return nil, toStatus(err)
	}

	out, err := json.Marshal(pipeline)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to encode pipeline: %w", err))
	}
	s.metrics.recordPipeline(len(pipeline.Processing))
	return wrapperspb.String(string(out)), nil
}

// Import validates the document against the catalog and returns it with
// fresh rule UIDs.
func (s *Service) Import(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	doc, err := decode(req)
	if err != nil {
		return nil, toStatus(err)
	}
	if s.catalog == nil {
		return nil, toStatus(fmt.Errorf("%w: import requires a catalog", types.ErrCatalogUnavailable))
	}

	vesCatalog, err := s.catalog.AvailableVersionsAndEventTypes(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	imported, err := s.engine.Import(doc, vesCatalog)
	if err != nil {
		s.recordInvalid(err)
		return nil, toStatus(err)
	}

	out, err := json.Marshal(imported)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to encode document: %w", err))
	}
	s.logger.InfoContext(ctx, "imported mapping rules",
		"version", imported.Version,
		"event_type", imported.EventType,
		"rules", imported.Rules.Len())
	return wrapperspb.String(string(out)), nil
}

func (s *Service) recordInvalid(err error) {
	var invalid *rules.InvalidDocumentError
	if errors.As(err, &invalid) {
		s.metrics.recordDiagnostics(diagnosticCodes(invalid.Diagnostics))
	}
}

func decode(req *wrapperspb.StringValue) (*types.MappingRules, error) {
	doc, err := types.DecodeMappingRules([]byte(req.GetValue()))
	if err != nil {
		return nil, &decodeError{err: err}
	}
	return doc, nil
}

func diagnosticCodes(d *rules.Diagnostics) []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, d.Len())
	for _, item := range d.Items {
		out = append(out, string(item.ErrorCode))
	}
	return out
}

// diagnosticsReport renders d as {"valid": bool, "diagnostics": [...]}.
func diagnosticsReport(d *rules.Diagnostics) (*structpb.Struct, error) {
	items := []any{}
	if d != nil {
		for _, item := range d.Items {
			vars := make([]any, 0, len(item.ContextVariables))
			for _, v := range item.ContextVariables {
				vars = append(vars, v)
			}
			items = append(items, map[string]any{
				"errorCode":        string(item.ErrorCode),
				"offendingField":   item.OffendingField,
				"contextVariables": vars,
				"message":          item.Message(),
			})
		}
	}
	return structpb.NewStruct(map[string]any{
		"valid":       len(items) == 0,
		"diagnostics": items,
	})
}
