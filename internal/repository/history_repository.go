package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// HistoryRepository reads major, attendance and GPA history of the cohort.
type HistoryRepository struct {
	db Querier
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db Querier) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Majors returns each student's declared major per term, paired with the
// previous term's major. A student's first term reports its own major as
// the previous one.
func (r *HistoryRepository) Majors(ctx context.Context, f model.CohortFilter) ([]model.MajorRecord, error) {
	q, args := cohortCTE(f, `
SELECT DISTINCT s.student_id
	, tc.term AS term_code
	, mm.major_minor_name AS major
	, LAG(mm.major_minor_name, 1, mm.major_minor_name) OVER (PARTITION BY s.student_id ORDER BY tc.term) AS last_major
FROM student_status ss
JOIN student s ON s.student_uid = ss.student_uid
JOIN term_calendar tc ON ss.term_calendar_id = tc.term_calendar_id
JOIN student_program sp ON ss.student_status_id = sp.student_status_id
JOIN major_minor mm ON sp.major_program_id = mm.major_minor_id
WHERE SUBSTRING(tc.term FROM 2 FOR 2)::int BETWEEN ($4::int - $5::int) % 100 AND $4::int % 100
	AND LENGTH(tc.term) = 4
	AND tc.text_term NOT LIKE '%wk%'
	AND mm.major_minor_name <> ''
	AND s.student_id IN (SELECT student_id FROM sids)
ORDER BY term_code, s.student_id`)
	args = append(args, f.EndYear, f.MajorLookbackYears)

	return collect(ctx, r.db, q, args, func(rows pgx.Rows) (model.MajorRecord, error) {
		var m model.MajorRecord
		var term string
		err := rows.Scan(&m.StudentID, &term, &m.Major, &m.LastMajor)
		m.TermCode = model.TermCode(term)
		return m, err
	})
}

// Attendance returns, for every (student, term, week), the running share of
// attendance records through that week that were absences.
func (r *HistoryRepository) Attendance(ctx context.Context, f model.CohortFilter) ([]model.AttendanceRecord, error) {
	q, args := cohortCTE(f, `
SELECT DISTINCT student_id
	, term_code
	, week_number
	, (1.0 * SUM(is_absent) OVER w) / (1.0 * COUNT(*) OVER w) AS percentage_of_absence
FROM (
	SELECT s.student_id
		, tc.term AS term_code
		, CASE WHEN sa.comment LIKE '%abs%' THEN 1 ELSE 0 END AS is_absent
		, (sa.sa_date - sro.start_date) / 7 + 1 AS week_number
	FROM student_attendance sa
	JOIN sr_offer sro ON sa.sr_offer_id = sro.sr_offer_id
	JOIN student s ON sa.student_uid = s.student_uid
	JOIN term_calendar tc ON tc.term_calendar_id = sa.term_calendar_id
	WHERE sa.sa_date BETWEEN sro.start_date AND sro.end_date
		AND LENGTH(tc.term) = 4
		AND tc.text_term NOT LIKE '%wk%'
		AND s.student_id IN (SELECT student_id FROM sids)
) d
WINDOW w AS (PARTITION BY student_id, term_code ORDER BY week_number)
ORDER BY term_code, student_id, week_number`)

	return collect(ctx, r.db, q, args, func(rows pgx.Rows) (model.AttendanceRecord, error) {
		var a model.AttendanceRecord
		var term string
		err := rows.Scan(&a.StudentID, &term, &a.WeekNumber, &a.PercentageOfAbsence)
		a.TermCode = model.TermCode(term)
		return a, err
	})
}

// GPA returns the term and cumulative GPA of the previous term, 0 for a
// student's first term.
func (r *HistoryRepository) GPA(ctx context.Context, f model.CohortFilter) ([]model.GPARecord, error) {
	q, args := cohortCTE(f, `
SELECT s.student_id
	, tc.term AS term_code
	, LAG(g.term_gpa, 1, 0) OVER (PARTITION BY s.student_id ORDER BY tc.term) AS term_gpa_last
	, LAG(g.cum_gpa, 1, 0) OVER (PARTITION BY s.student_id ORDER BY tc.term) AS cum_gpa_last
FROM student_cumulative_gpa g
JOIN student s ON g.student_uid = s.student_uid
JOIN term_calendar tc ON g.term_calendar_id = tc.term_calendar_id
WHERE s.student_id IN (SELECT student_id FROM sids)
	AND LENGTH(tc.term) = 4
	AND tc.text_term NOT LIKE '%wk%'
ORDER BY s.student_id, tc.term`)

	return collect(ctx, r.db, q, args, func(rows pgx.Rows) (model.GPARecord, error) {
		var g model.GPARecord
		var term string
		err := rows.Scan(&g.StudentID, &term, &g.TermGPALast, &g.CumGPALast)
		g.TermCode = model.TermCode(term)
		return g, err
	})
}
