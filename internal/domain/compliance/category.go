package compliance

import (
	"sort"
	"strings"
)

const (
	CategoryCommon = "common"
	CategoryGDPR   = "gdpr"
	CategoryDPDP   = "dpdp"
)

// jurisdictionCategories maps upper-cased jurisdiction codes to the extra
// category they enable on top of "common".
var jurisdictionCategories = map[string]string{
	"EU":     CategoryGDPR,
	"UK":     CategoryGDPR,
	"EUROPE": CategoryGDPR,
	"INDIA":  CategoryDPDP,
	"IN":     CategoryDPDP,
}

// CategorySet is an unordered set of category tags.
type CategorySet map[string]struct{}

// NewCategorySet builds a set from the given tags.
func NewCategorySet(tags ...string) CategorySet {
	s := make(CategorySet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s CategorySet) Contains(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Slice returns the tags sorted alphabetically.
func (s CategorySet) Slice() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// ResolveCategories maps a jurisdiction to the categories that apply to it.
// The result always contains "common"; unknown jurisdictions yield only that.
func ResolveCategories(jurisdiction string) CategorySet {
	set := NewCategorySet(CategoryCommon)
	if extra, ok := jurisdictionCategories[strings.ToUpper(strings.TrimSpace(jurisdiction))]; ok {
		set[extra] = struct{}{}
	}
	return set
}

// DeriveCategory returns the lower-cased prefix of a requirement id before its
// first separator, or the whole id when there is none.
func DeriveCategory(requirementID string) string {
	id := strings.TrimSpace(requirementID)
	if i := strings.IndexAny(id, ".:-"); i >= 0 {
		id = id[:i]
	}
	return strings.ToLower(id)
}
