// Package feature computes the point-in-time attrition features. For every
// eligible term T, course and major history is read only from terms strictly
// before T (major counts include T itself), so no row can leak information
// from the term it is predicting.
package feature

import (
	"sort"
	"strings"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// Policy controls term eligibility and section classification.
type Policy struct {
	// CenturyMarker is the leading letter of eligible term codes.
	CenturyMarker string `yaml:"century_marker" validate:"len=1"`
	// StartYear is the first calendar year of eligible terms.
	StartYear int `yaml:"start_year" validate:"gte=1900"`
	// Seasons lists the eligible season letters (fall/spring by default).
	Seasons string `yaml:"seasons" validate:"required"`
	// DevSectionPrefix marks developmental-education sections.
	DevSectionPrefix string `yaml:"dev_section_prefix" validate:"required"`
	// OnlineSectionMarker marks remote/online sections.
	OnlineSectionMarker string `yaml:"online_section_marker" validate:"required"`
}

// DefaultPolicy returns fall/spring terms from 2017 onward.
func DefaultPolicy() Policy {
	return Policy{
		CenturyMarker:       "B",
		StartYear:           2017,
		Seasons:             "QC",
		DevSectionPrefix:    "0",
		OnlineSectionMarker: "NT",
	}
}

// Eligible reports whether t is a term the pipeline builds features for.
func (p Policy) Eligible(t model.TermCode) bool {
	if !t.Valid() {
		return false
	}
	if p.CenturyMarker != "" && t.Century() != p.CenturyMarker[0] {
		return false
	}
	return t.Year() >= p.StartYear && strings.IndexByte(p.Seasons, t.Season()) >= 0
}

// IsDev reports whether section is a developmental-education section.
func (p Policy) IsDev(section string) bool {
	return strings.HasPrefix(section, p.DevSectionPrefix)
}

// IsInternet reports whether section is delivered online.
func (p Policy) IsInternet(section string) bool {
	return strings.Contains(section, p.OnlineSectionMarker)
}

// EligibleTerms returns the sorted distinct eligible term codes found in
// courses, plus the distinct malformed codes that were skipped.
func (p Policy) EligibleTerms(courses []model.CourseRecord) (terms []model.TermCode, malformed []string) {
	seen := make(map[model.TermCode]struct{})
	bad := make(map[string]struct{})
	for _, c := range courses {
		if _, ok := seen[c.TermCode]; ok {
			continue
		}
		seen[c.TermCode] = struct{}{}
		if !c.TermCode.Valid() {
			bad[string(c.TermCode)] = struct{}{}
			continue
		}
		if p.Eligible(c.TermCode) {
			terms = append(terms, c.TermCode)
		}
	}
	sort.Slice(terms, func(i, j int) bool { return terms[i] < terms[j] })
	for code := range bad {
		malformed = append(malformed, code)
	}
	sort.Strings(malformed)
	return terms, malformed
}
