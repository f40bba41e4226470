package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
)

type ReportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

var _ domain.ReportRepository = (*ReportRepository)(nil)

// Save insert/update report; report_json kolom JSONB, dikirim sebagai text
func (r *ReportRepository) Save(ctx context.Context, tenant string, rep *domain.Report) error {
	const q = `
INSERT INTO compliance_reports
(id, tenant_id, subject, jurisdiction, created_at,
 total, compliant, non_compliant, needs_review, errors, compliance_rate,
 report_json)
VALUES ($1,$2,$3,$4,$5,
        $6,$7,$8,$9,$10,$11,
        $12)
ON CONFLICT (id) DO UPDATE SET
 total = EXCLUDED.total, compliant = EXCLUDED.compliant, non_compliant = EXCLUDED.non_compliant,
 needs_review = EXCLUDED.needs_review, errors = EXCLUDED.errors,
 compliance_rate = EXCLUDED.compliance_rate, report_json = EXCLUDED.report_json;
`
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	created := rep.Metadata.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	s := rep.Summary

	_, err = r.db.ExecContext(ctx, q,
		rep.Metadata.ReportID, stringOrDash(tenant), stringOrDash(rep.Metadata.SubjectIdentity),
		stringOrDash(rep.Metadata.Jurisdiction), created,
		s.Total, s.Compliant, s.NonCompliant, s.NeedsReview, s.Errors, s.ComplianceRate,
		string(payload),
	)
	return err
}

// Get by ID + Tenant
func (r *ReportRepository) Get(ctx context.Context, tenant, id string) (*domain.Report, error) {
	const q = `
SELECT report_json
FROM compliance_reports
WHERE tenant_id=$1 AND id=$2 LIMIT 1;
`
	var payload []byte
	if err := r.db.QueryRowContext(ctx, q, tenant, id).Scan(&payload); err != nil {
		return nil, err
	}
	var rep domain.Report
	if err := json.Unmarshal(payload, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &rep, nil
}

// Latest reports per tenant
func (r *ReportRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.ReportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, tenant_id, subject, jurisdiction, created_at,
       total, compliant, non_compliant, needs_review, errors, compliance_rate
FROM compliance_reports
WHERE tenant_id=$1 ORDER BY created_at DESC LIMIT $2;
`
	rows, err := r.db.QueryContext(ctx, q, tenant, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.ReportRecord{}
	for rows.Next() {
		var rec domain.ReportRecord
		s := &rec.Summary
		if err := rows.Scan(
			&rec.ID, &rec.TenantID, &rec.Subject, &rec.Jurisdiction, &rec.CreatedAt,
			&s.Total, &s.Compliant, &s.NonCompliant, &s.NeedsReview, &s.Errors, &s.ComplianceRate,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// Summary rekap report sejak N hari
func (r *ReportRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.TenantSummary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := time.Now().AddDate(0, 0, -sinceDays)

	const q = `
SELECT COUNT(*) AS reports,
       COALESCE(AVG(compliance_rate),0) AS avg_rate,
       COALESCE(SUM(non_compliant),0)   AS non_compliant,
       COALESCE(SUM(needs_review),0)    AS needs_review
FROM compliance_reports
WHERE tenant_id=$1 AND created_at >= $2;
`
	var s domain.TenantSummary
	if err := r.db.QueryRowContext(ctx, q, tenant, cut).Scan(&s.Reports, &s.AvgComplianceRate, &s.NonCompliant, &s.NeedsReview); err != nil {
		return domain.TenantSummary{}, err
	}
	s.AvgComplianceRate = roundRate(s.AvgComplianceRate)
	return s, nil
}
