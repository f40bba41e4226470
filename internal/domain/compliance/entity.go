package compliance

import (
	"time"
)

// Status enum
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusNonCompliant Status = "non_compliant"
	StatusNeedsReview  Status = "needs_review"
	StatusError        Status = "error"
)

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusCompliant, StatusNonCompliant, StatusNeedsReview, StatusError:
		return true
	}
	return false
}

// AnalysisKind labels reports produced by the engine.
const AnalysisKind = "compliance_analysis"

// Requirement is a single checkable clause of a compliance document.
type Requirement struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Document groups requirements under one regulatory category.
type Document struct {
	DocID        string        `json:"doc_id"`
	Title        string        `json:"title"`
	Category     string        `json:"category"`
	Version      string        `json:"version"`
	Requirements []Requirement `json:"requirements"`
}

// TestReport is the caller-supplied report under evaluation. Its shape is opaque
// to the engine; it is serialized verbatim into every prompt.
type TestReport map[string]any

// AnalysisResult is the classification of one requirement in one run.
type AnalysisResult struct {
	RequirementID    string   `json:"requirement_id"`
	Category         string   `json:"category"`
	Status           Status   `json:"status"`
	ConfidenceScore  float64  `json:"confidence_score"`
	Explanation      string   `json:"explanation"`
	SuggestedActions []string `json:"suggested_actions"`
}

// Results maps doc_id to the ordered results of that document.
type Results map[string][]AnalysisResult

// Total counts every result across all documents.
func (r Results) Total() int {
	n := 0
	for _, list := range r {
		n += len(list)
	}
	return n
}

// Summary value object
type Summary struct {
	Total          int     `json:"total"`
	Compliant      int     `json:"compliant"`
	NonCompliant   int     `json:"non_compliant"`
	NeedsReview    int     `json:"needs_review"`
	Errors         int     `json:"errors"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// Metadata describes who and what a report is about.
type Metadata struct {
	ReportID        string    `json:"report_id"`
	TenantID        string    `json:"tenant_id,omitempty"`
	SubjectIdentity string    `json:"subject_identity"`
	Jurisdiction    string    `json:"jurisdiction"`
	Categories      []string  `json:"categories,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	AnalysisKind    string    `json:"analysis_kind"`
}

// Aggregate Root: Report
type Report struct {
	Metadata          Metadata           `json:"metadata"`
	Summary           Summary            `json:"summary"`
	DocumentSummaries map[string]Summary `json:"document_summaries"`
	DetailedResults   Results            `json:"detailed_results"`
}
