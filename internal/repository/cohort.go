package repository

import (
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// cohortCTE returns the "terms" and "sids" common table expressions shared by
// every cohort query, followed by rest. Parameters $1..$3 are the start year,
// end year and summer flag; rest numbers its own parameters from $4.
//
// terms holds the regular calendar terms in the window. sids holds every
// student enrolled in one of them, with demographics.
func cohortCTE(f model.CohortFilter, rest string) (string, []any) {
	q := `
WITH terms AS (
	SELECT tc.term_calendar_id
		, tc.term AS term_code
		, tc.text_term AS term
	FROM term_calendar tc
	WHERE tc.text_term NOT LIKE '%Flx%'
		AND tc.text_term NOT LIKE '%Qtr%'
		AND tc.text_term NOT LIKE '%wk%'
		AND ($3 OR tc.text_term NOT LIKE 'Summer%')
		AND tc.term_calendar_id <> 0
		AND EXTRACT(YEAR FROM tc.term_start_date) BETWEEN $1 AND $2
),
sids AS (
	SELECT DISTINCT s.student_id
		, g.display_text AS ethnicity
		, sd.gender
		, sd.is_hispanic
	FROM sr_academic sra
	JOIN student s ON sra.student_uid = s.student_uid
	JOIN student_demographics sd ON s.student_uid = sd.student_uid
	LEFT JOIN glossary g ON sd.ethnic_origin_id = g.unique_id
	WHERE sra.term_calendar_id IN (SELECT term_calendar_id FROM terms)
)
` + rest
	return q, []any{f.StartYear, f.EndYear, f.IncludeSummer}
}
