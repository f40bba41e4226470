package middleware

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	tenantPattern       = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)
	jurisdictionPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z _-]{0,63}$`)
)

// ValidateTenantID validates tenant ID format
func ValidateTenantID(tenant string) error {
	if tenant == "" {
		return fmt.Errorf("tenant ID cannot be empty")
	}
	// Allow alphanumeric, dash, underscore (max 64 chars)
	if !tenantPattern.MatchString(tenant) {
		return fmt.Errorf("invalid tenant ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateJurisdiction accepts region names or codes such as "EU", "IN" or
// "European Union". Unknown jurisdictions are valid; they resolve to the common
// category only.
func ValidateJurisdiction(j string) error {
	j = strings.TrimSpace(j)
	if j == "" {
		return fmt.Errorf("jurisdiction cannot be empty")
	}
	if !jurisdictionPattern.MatchString(j) {
		return fmt.Errorf("invalid jurisdiction format (letters, space, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateReportID validates report ID format (UUID)
func ValidateReportID(id string) error {
	if id == "" {
		return fmt.Errorf("report ID cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid report ID format")
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidateDays validates days parameter
func ValidateDays(days int) int {
	if days <= 0 {
		return 7 // default
	}
	if days > 365 {
		return 365 // max 1 year
	}
	return days
}
