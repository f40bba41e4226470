package compliance

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// DefaultExplanation is used when the oracle omits an explanation.
const DefaultExplanation = "No explanation provided"

// Classification is the structured judgment extracted from oracle output.
type Classification struct {
	Status           Status   `json:"status"`
	ConfidenceScore  float64  `json:"confidence_score"`
	Explanation      string   `json:"explanation"`
	SuggestedActions []string `json:"suggested_actions"`
}

// rawClassification keeps every field optional so defaults can be applied.
type rawClassification struct {
	Status           *string  `json:"status"`
	ConfidenceScore  *float64 `json:"confidence_score"`
	Explanation      *string  `json:"explanation"`
	SuggestedActions []string `json:"suggested_actions"`
}

// ParseClassification decodes the substring between the first '{' and the last
// '}' of raw. Missing fields get their defaults. Any failure wraps ErrParse.
func ParseClassification(raw string) (Classification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return Classification{}, fmt.Errorf("%w: no JSON object in response", ErrParse)
	}

	var rc rawClassification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &rc); err != nil {
		return Classification{}, fmt.Errorf("%w: %v", ErrParse, err)
	}

	c := Classification{
		Status:           StatusNeedsReview,
		ConfidenceScore:  0.0,
		Explanation:      DefaultExplanation,
		SuggestedActions: []string{},
	}
	if rc.Status != nil {
		c.Status = Status(*rc.Status)
	}
	if rc.ConfidenceScore != nil {
		c.ConfidenceScore = *rc.ConfidenceScore
	}
	if rc.Explanation != nil {
		c.Explanation = *rc.Explanation
	}
	if rc.SuggestedActions != nil {
		c.SuggestedActions = rc.SuggestedActions
	}
	return c, nil
}

// FallbackClassification is the deterministic result used when a requirement
// could not be classified.
func FallbackClassification(cause error) Classification {
	msg := "unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return Classification{
		Status:           StatusNeedsReview,
		ConfidenceScore:  0.0,
		Explanation:      "Error during analysis: " + msg,
		SuggestedActions: []string{"Review manually due to analysis error"},
	}
}

// Normalize lower-cases the status, maps unknown statuses to needs_review and
// clamps the confidence into [0,1].
func (c Classification) Normalize() Classification {
	c.Status = Status(strings.ToLower(strings.TrimSpace(string(c.Status))))
	if !c.Status.Valid() {
		c.Status = StatusNeedsReview
	}
	switch {
	case c.ConfidenceScore < 0 || math.IsNaN(c.ConfidenceScore):
		c.ConfidenceScore = 0
	case c.ConfidenceScore > 1:
		c.ConfidenceScore = 1
	}
	if c.SuggestedActions == nil {
		c.SuggestedActions = []string{}
	}
	return c
}
