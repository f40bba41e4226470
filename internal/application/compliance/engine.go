package compliance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
	"github.com/bryanwahyu/automaton-compliance/internal/metrics"
)

const defaultMaxConcurrency = 8

// CatalogProvider hands out the loaded requirement catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

// Engine runs a compliance check: it selects the documents that apply to a
// jurisdiction and classifies every requirement in them concurrently.
type Engine struct {
	catalog        CatalogProvider
	analyzer       *Analyzer
	maxConcurrency int
	logger         *zap.Logger
	metrics        *metrics.Metrics
}

type EngineOption func(e *Engine)

// WithMaxConcurrency caps the number of in-flight oracle calls per check.
func WithMaxConcurrency(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxConcurrency = n
		}
	}
}

func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = logging.OrNop(l) }
}

func WithEngineMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

func NewEngine(catalog CatalogProvider, analyzer *Analyzer, opts ...EngineOption) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog provider is required")
	}
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}
	e := &Engine{
		catalog:        catalog,
		analyzer:       analyzer,
		maxConcurrency: defaultMaxConcurrency,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check classifies every requirement of the documents applicable to
// jurisdiction. Only structural failures are returned as errors: an unusable
// catalog, a missing prompt template, or cancellation of ctx. A cancelled check
// discards whatever partial results were collected.
func (e *Engine) Check(ctx context.Context, report domain.TestReport, jurisdiction string) (domain.Results, error) {
	start := time.Now()

	cat, err := e.catalog.Catalog(ctx)
	if err != nil {
		e.incCheck("catalog_error")
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	if !e.analyzer.prompts.Has(PromptKeyAnalysis) {
		e.incCheck("template_error")
		return nil, fmt.Errorf("%w: %q", domain.ErrPromptTemplateMissing, PromptKeyAnalysis)
	}
	payload, err := serializeReport(report)
	if err != nil {
		e.incCheck("invalid_report")
		return nil, err
	}

	categories := domain.ResolveCategories(jurisdiction)
	docs := cat.Select(categories)

	slots := make([][]domain.AnalysisResult, len(docs))
	pending := 0
	for i, doc := range docs {
		slots[i] = make([]domain.AnalysisResult, len(doc.Requirements))
		pending += len(doc.Requirements)
	}

	e.logger.Info("starting compliance check",
		zap.String("jurisdiction", jurisdiction),
		zap.Strings("categories", categories.Slice()),
		zap.Int("documents", len(docs)),
		zap.Int("requirements", pending),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)

dispatch:
	for i, doc := range docs {
		for j, req := range doc.Requirements {
			if gctx.Err() != nil {
				break dispatch
			}
			if derived := domain.DeriveCategory(req.ID); derived != doc.Category {
				e.logger.Warn("requirement id prefix disagrees with document category",
					zap.String("doc_id", doc.DocID),
					zap.String("requirement_id", req.ID),
					zap.String("document_category", doc.Category),
					zap.String("derived_category", derived),
				)
				if e.metrics != nil {
					e.metrics.IncCategoryMismatch()
				}
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				slots[i][j] = e.analyzer.analyze(gctx, payload, req, jurisdiction, doc.Category)
				return nil
			})
		}
	}

	waitErr := g.Wait()
	if err := ctx.Err(); err != nil {
		e.incCheck("cancelled")
		return nil, err
	}
	if waitErr != nil {
		e.incCheck("cancelled")
		return nil, waitErr
	}

	results := make(domain.Results, len(docs))
	for i, doc := range docs {
		if len(slots[i]) == 0 {
			continue
		}
		results[doc.DocID] = slots[i]
	}

	e.incCheck("ok")
	e.logger.Info("compliance check finished",
		zap.Int("documents", len(results)),
		zap.Int("results", results.Total()),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

func (e *Engine) incCheck(outcome string) {
	if e.metrics != nil {
		e.metrics.IncCheck(outcome)
	}
}
