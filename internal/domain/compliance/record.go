package compliance

import "time"

// ReportRecord is the indexed row stored for every report.
type ReportRecord struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	Subject      string    `json:"subject"`
	Jurisdiction string    `json:"jurisdiction"`
	CreatedAt    time.Time `json:"created_at"`
	Summary      Summary   `json:"summary"`
}

// TenantSummary rekap report N hari terakhir
type TenantSummary struct {
	Reports           int     `json:"reports"`
	AvgComplianceRate float64 `json:"avg_compliance_rate"`
	NonCompliant      int     `json:"non_compliant"`
	NeedsReview       int     `json:"needs_review"`
}

// RecordOf projects a report onto its indexed row.
func RecordOf(tenant string, r *Report) ReportRecord {
	return ReportRecord{
		ID:           r.Metadata.ReportID,
		TenantID:     tenant,
		Subject:      r.Metadata.SubjectIdentity,
		Jurisdiction: r.Metadata.Jurisdiction,
		CreatedAt:    r.Metadata.Timestamp,
		Summary:      r.Summary,
	}
}
