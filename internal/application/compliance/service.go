package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/application"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
)

// Checker runs the engine part of a compliance check.
type Checker interface {
	Check(ctx context.Context, report domain.TestReport, jurisdiction string) (domain.Results, error)
}

// Service implements use-cases untuk compliance check.
// Reports wajib, Artifacts dan Events opsional (best-effort).
type Service struct {
	Engine    Checker
	Reports   domain.ReportRepository
	Artifacts domain.ArtifactStore
	Events    domain.EventPublisher
	Clock     application.Clock
	Logger    *zap.Logger
}

// CheckCommand untuk trigger compliance check
type CheckCommand struct {
	TenantID     string            `json:"tenant_id"`
	Subject      string            `json:"subject"`
	Jurisdiction string            `json:"jurisdiction"`
	TestReport   domain.TestReport `json:"test_report"`
}

// subjectKeys are probed in order when the command does not name a subject.
var subjectKeys = []string{"subject", "id", "name", "build", "commit"}

const unknownSubject = "unknown"

// RunCheck → jalanin engine, bikin report, simpan, upload artifact, publish event
func (s *Service) RunCheck(ctx context.Context, cmd CheckCommand) (*domain.Report, error) {
	log := logging.OrNop(s.Logger)

	if strings.TrimSpace(cmd.TenantID) == "" {
		return nil, fmt.Errorf("%w: tenant is required", domain.ErrInvalidReport)
	}
	if strings.TrimSpace(cmd.Jurisdiction) == "" {
		return nil, fmt.Errorf("%w: jurisdiction is required", domain.ErrInvalidReport)
	}
	if len(cmd.TestReport) == 0 {
		return nil, fmt.Errorf("%w: test report is empty", domain.ErrInvalidReport)
	}

	results, err := s.Engine.Check(ctx, cmd.TestReport, cmd.Jurisdiction)
	if err != nil {
		return nil, err
	}

	now := s.now()
	report := domain.Summarize(results, domain.Metadata{
		ReportID:        uuid.NewString(),
		TenantID:        cmd.TenantID,
		SubjectIdentity: subjectOf(cmd),
		Jurisdiction:    cmd.Jurisdiction,
		Categories:      domain.ResolveCategories(cmd.Jurisdiction).Slice(),
		Timestamp:       now,
	})

	if err := s.Reports.Save(ctx, cmd.TenantID, &report); err != nil {
		return nil, fmt.Errorf("save report: %w", err)
	}

	if s.Artifacts != nil {
		key := fmt.Sprintf("%s/reports/%s.json", cmd.TenantID, report.Metadata.ReportID)
		if url, err := s.Artifacts.PutJSON(ctx, key, report); err != nil {
			log.Warn("report artifact upload failed", zap.String("report_id", report.Metadata.ReportID), zap.Error(err))
		} else {
			log.Debug("report artifact uploaded", zap.String("url", url))
		}
	}
	if s.Events != nil {
		if err := s.Events.PublishReport(ctx, &report); err != nil {
			log.Warn("report event publish failed", zap.String("report_id", report.Metadata.ReportID), zap.Error(err))
		}
	}

	log.Info("compliance report generated",
		zap.String("tenant", cmd.TenantID),
		zap.String("report_id", report.Metadata.ReportID),
		zap.Int("total", report.Summary.Total),
		zap.Float64("compliance_rate", report.Summary.ComplianceRate),
	)
	return &report, nil
}

// Get → ambil satu report lengkap
func (s *Service) Get(ctx context.Context, tenant, id string) (*domain.Report, error) {
	return s.Reports.Get(ctx, tenant, id)
}

// Latest → list report terbaru
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.ReportRecord, error) {
	return s.Reports.Latest(ctx, tenant, limit)
}

// Summary → rekap N hari terakhir
func (s *Service) Summary(ctx context.Context, tenant string, days int) (domain.TenantSummary, error) {
	return s.Reports.Summary(ctx, tenant, days)
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func subjectOf(cmd CheckCommand) string {
	if v := strings.TrimSpace(cmd.Subject); v != "" {
		return v
	}
	for _, k := range subjectKeys {
		if v, ok := cmd.TestReport[k]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprint(v)); s != "" {
				return s
			}
		}
	}
	return unknownSubject
}
