package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// EnrollmentRepository reads targets, demographics and course history.
type EnrollmentRepository struct {
	db Querier
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(db Querier) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Targets returns one row per (student, term): 1 when any course that term
// was graded W.
func (r *EnrollmentRepository) Targets(ctx context.Context, f model.CohortFilter) ([]model.Target, error) {
	q, args := cohortCTE(f, `
SELECT s.student_id
	, tc.term AS term_code
	, CASE WHEN SUM(CASE WHEN sra.grade = 'W' THEN 1 ELSE 0 END) > 0 THEN 1 ELSE 0 END AS target
FROM sr_academic sra
JOIN term_calendar tc ON sra.term_calendar_id = tc.term_calendar_id
JOIN student s ON sra.student_uid = s.student_uid
WHERE sra.term_calendar_id IN (SELECT term_calendar_id FROM terms)
GROUP BY s.student_id, tc.term
ORDER BY tc.term, s.student_id`)

	return collect(ctx, r.db, q, args, func(rows pgx.Rows) (model.Target, error) {
		var t model.Target
		var term string
		err := rows.Scan(&t.StudentID, &term, &t.Target)
		t.TermCode = model.TermCode(term)
		return t, err
	})
}

// Students returns the demographics of every cohort student. Missing values
// are reported as "unknown".
func (r *EnrollmentRepository) Students(ctx context.Context, f model.CohortFilter) ([]model.Student, error) {
	q, args := cohortCTE(f, `
SELECT student_id, ethnicity, gender, is_hispanic
FROM sids
ORDER BY student_id`)

	return collect(ctx, r.db, q, args, func(rows pgx.Rows) (model.Student, error) {
		var (
			s                           model.Student
			ethnicity, gender, hispanic *string
		)
		err := rows.Scan(&s.StudentID, &ethnicity, &gender, &hispanic)
		s.Ethnicity = deref(ethnicity)
		s.Gender = deref(gender)
		s.IsHispanic = deref(hispanic)
		s.FillUnknown()
		return s, err
	})
}

// Courses returns every started course section taken by cohort students,
// across all terms. Rows whose age cannot be computed (no birth date on
// file) are left out and counted in skipped.
func (r *EnrollmentRepository) Courses(ctx context.Context, f model.CohortFilter) (courses []model.CourseRecord, skipped int, err error) {
	q, args := cohortCTE(f, `
SELECT tc.text_term AS term
	, tc.term AS term_code
	, s.student_id
	, sro.department, sro.course_id, sro.section, sro.credits
	, COALESCE(sra.grade, '') AS grade
	, EXTRACT(YEAR FROM sro.start_date)::int - EXTRACT(YEAR FROM s.birth_date)::int AS age
	, CASE WHEN fp.display_text LIKE '%Full%' THEN 1 ELSE 0 END AS is_full_time
FROM sr_academic sra
JOIN sr_offer sro ON sra.sr_offer_id = sro.sr_offer_id
JOIN term_calendar tc ON tc.term_calendar_id = sra.term_calendar_id
JOIN student s ON s.student_uid = sra.student_uid
JOIN student_status ss ON sra.student_uid = ss.student_uid AND sra.term_calendar_id = ss.term_calendar_id
JOIN glossary fp ON fp.unique_id = ss.ftpt_status_id
WHERE sro.start_date IS NOT NULL
	AND sro.section IS NOT NULL
	AND LENGTH(tc.term) = 4
	AND sro.start_date <= CURRENT_DATE
	AND s.student_id IN (SELECT student_id FROM sids)
ORDER BY tc.term, s.student_id`)

	return collectPartial(ctx, r.db, q, args, func(rows pgx.Rows) (model.CourseRecord, error) {
		var (
			c    model.CourseRecord
			term string
			age  *int
		)
		if err := rows.Scan(&c.Term, &term, &c.StudentID, &c.Department, &c.CourseID, &c.Section,
			&c.Credits, &c.Grade, &age, &c.IsFullTime); err != nil {
			return c, err
		}
		if age == nil {
			return c, errIncompleteRow
		}
		c.TermCode = model.TermCode(term)
		c.Age = *age
		return c, nil
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
