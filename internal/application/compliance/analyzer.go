package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
	"github.com/bryanwahyu/automaton-compliance/internal/metrics"
)

// PromptKeyAnalysis is the template rendered once per requirement.
const PromptKeyAnalysis = "compliance_analysis"

const defaultCallTimeout = 60 * time.Second

// Analyzer classifies single requirements through the oracle. It never returns
// an error: every failure is turned into a needs_review result.
type Analyzer struct {
	oracle  ai.Oracle
	prompts domain.PromptRepository
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type AnalyzerOption func(a *Analyzer)

// WithCallTimeout bounds every oracle invocation.
func WithCallTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.timeout = d
		}
	}
}

func WithAnalyzerLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) { a.logger = logging.OrNop(l) }
}

func WithAnalyzerMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) { a.metrics = m }
}

func NewAnalyzer(oracle ai.Oracle, prompts domain.PromptRepository, opts ...AnalyzerOption) (*Analyzer, error) {
	if oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if prompts == nil {
		return nil, errors.New("prompt repository is required")
	}
	a := &Analyzer{
		oracle:  oracle,
		prompts: prompts,
		timeout: defaultCallTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze classifies one requirement. The result category is derived from the
// requirement id prefix.
func (a *Analyzer) Analyze(ctx context.Context, report domain.TestReport, req domain.Requirement, jurisdiction string) domain.AnalysisResult {
	category := domain.DeriveCategory(req.ID)
	payload, err := serializeReport(report)
	if err != nil {
		return a.fallback(req, category, err)
	}
	return a.analyze(ctx, payload, req, jurisdiction, category)
}

func (a *Analyzer) analyze(ctx context.Context, payload string, req domain.Requirement, jurisdiction, category string) domain.AnalysisResult {
	prompt, err := a.prompts.Render(PromptKeyAnalysis, map[string]string{
		"test_report":             payload,
		"location":                jurisdiction,
		"requirement_id":          req.ID,
		"requirement_description": req.Description,
	})
	if err != nil {
		return a.fallback(req, category, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	raw, err := a.oracle.Invoke(callCtx, prompt)
	if a.metrics != nil {
		a.metrics.ObserveOracle(time.Since(start))
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("oracle call timed out after %s: %w", a.timeout, err)
		}
		return a.fallback(req, category, err)
	}

	c, err := domain.ParseClassification(raw)
	if err != nil {
		return a.fallback(req, category, err)
	}
	return a.result(req, category, c.Normalize())
}

func (a *Analyzer) fallback(req domain.Requirement, category string, cause error) domain.AnalysisResult {
	a.logger.Warn("requirement analysis failed",
		zap.String("requirement_id", req.ID),
		zap.Bool("quota_exceeded", errors.Is(cause, ai.ErrQuotaExceeded)),
		zap.Error(cause),
	)
	return a.result(req, category, domain.FallbackClassification(cause))
}

func (a *Analyzer) result(req domain.Requirement, category string, c domain.Classification) domain.AnalysisResult {
	if a.metrics != nil {
		a.metrics.IncAnalysis(string(c.Status))
	}
	return domain.AnalysisResult{
		RequirementID:    req.ID,
		Category:         category,
		Status:           c.Status,
		ConfidenceScore:  c.ConfidenceScore,
		Explanation:      c.Explanation,
		SuggestedActions: c.SuggestedActions,
	}
}

func serializeReport(report domain.TestReport) (string, error) {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidReport, err)
	}
	return string(b), nil
}
