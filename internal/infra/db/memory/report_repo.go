package memory

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

// ReportRepository keeps reports in process memory. Dipakai kalau
// database.driver kosong (dev, CLI); isi hilang saat restart.
type ReportRepository struct {
	mu      sync.RWMutex
	reports map[string]map[string]*domain.Report // tenant -> id -> report
	now     func() time.Time
}

func NewReportRepository() *ReportRepository {
	return &ReportRepository{
		reports: map[string]map[string]*domain.Report{},
		now:     time.Now,
	}
}

var _ domain.ReportRepository = (*ReportRepository)(nil)

func (r *ReportRepository) Save(_ context.Context, tenant string, rep *domain.Report) error {
	if rep == nil || rep.Metadata.ReportID == "" {
		return fmt.Errorf("save report: missing id")
	}
	cp := *rep
	if cp.Metadata.Timestamp.IsZero() {
		cp.Metadata.Timestamp = r.now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	byID, ok := r.reports[tenant]
	if !ok {
		byID = map[string]*domain.Report{}
		r.reports[tenant] = byID
	}
	byID[cp.Metadata.ReportID] = &cp
	return nil
}

// Get returns sql.ErrNoRows for unknown ids so callers treat it like the SQL repos.
func (r *ReportRepository) Get(_ context.Context, tenant, id string) (*domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[tenant][id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, sql.ErrNoRows)
	}
	cp := *rep
	return &cp, nil
}

func (r *ReportRepository) Latest(_ context.Context, tenant string, limit int) ([]*domain.ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	out := []*domain.ReportRecord{}
	for _, rep := range r.sorted(tenant) {
		if len(out) == limit {
			break
		}
		rec := domain.RecordOf(tenant, rep)
		out = append(out, &rec)
	}
	return out, nil
}

func (r *ReportRepository) Summary(_ context.Context, tenant string, sinceDays int) (domain.TenantSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := r.now().AddDate(0, 0, -sinceDays)

	var s domain.TenantSummary
	var rateSum float64
	for _, rep := range r.sorted(tenant) {
		if rep.Metadata.Timestamp.Before(cut) {
			continue
		}
		s.Reports++
		rateSum += rep.Summary.ComplianceRate
		s.NonCompliant += rep.Summary.NonCompliant
		s.NeedsReview += rep.Summary.NeedsReview
	}
	if s.Reports > 0 {
		s.AvgComplianceRate = math.Round(rateSum/float64(s.Reports)*100) / 100
	}
	return s, nil
}

// sorted newest first
func (r *ReportRepository) sorted(tenant string) []*domain.Report {
	r.mu.RLock()
	list := make([]*domain.Report, 0, len(r.reports[tenant]))
	for _, rep := range r.reports[tenant] {
		list = append(list, rep)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].Metadata.Timestamp.After(list[j].Metadata.Timestamp)
	})
	return list
}
