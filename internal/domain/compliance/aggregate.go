package compliance

import (
	"math"
	"sort"
)

// Summarize builds the final report from the collected results. It is pure:
// calling it twice with the same input yields equal reports.
func Summarize(results Results, meta Metadata) Report {
	if meta.AnalysisKind == "" {
		meta.AnalysisKind = AnalysisKind
	}

	docIDs := make([]string, 0, len(results))
	for id := range results {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var overall Summary
	perDoc := make(map[string]Summary, len(results))
	detailed := make(Results, len(results))

	for _, id := range docIDs {
		list := results[id]
		var s Summary
		for _, r := range list {
			tally(&s, r.Status)
			tally(&overall, r.Status)
		}
		s.ComplianceRate = complianceRate(s.Compliant, s.Total)
		perDoc[id] = s

		cp := make([]AnalysisResult, len(list))
		copy(cp, list)
		detailed[id] = cp
	}
	overall.ComplianceRate = complianceRate(overall.Compliant, overall.Total)

	return Report{
		Metadata:          meta,
		Summary:           overall,
		DocumentSummaries: perDoc,
		DetailedResults:   detailed,
	}
}

// tally counts one status; anything outside the known set counts as needs_review.
func tally(s *Summary, st Status) {
	s.Total++
	switch st {
	case StatusCompliant:
		s.Compliant++
	case StatusNonCompliant:
		s.NonCompliant++
	case StatusError:
		s.Errors++
	default:
		s.NeedsReview++
	}
}

func complianceRate(compliant, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(compliant)/float64(total)*100*100) / 100
}
