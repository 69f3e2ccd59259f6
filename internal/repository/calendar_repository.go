package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// CalendarRepository reads the running term's calendar.
type CalendarRepository struct {
	db Querier
}

// NewCalendarRepository creates a new CalendarRepository.
func NewCalendarRepository(db Querier) *CalendarRepository {
	return &CalendarRepository{db: db}
}

// Weeks returns the current week number of each section type (first letter
// of the section code) still running in the term named termText. Sections
// without a code or start date have no week and are left out.
func (r *CalendarRepository) Weeks(ctx context.Context, termText string) ([]model.WeekMarker, error) {
	const q = `
SELECT DISTINCT LEFT(sro.section, 1) AS week_type
	, (CURRENT_DATE - sro.start_date) / 7 + 1 AS week_number
FROM sr_offer sro
JOIN term_calendar tc ON tc.term_calendar_id = sro.term_calendar_id
WHERE tc.text_term = $1
	AND sro.section IS NOT NULL
	AND sro.section <> ''
	AND sro.start_date IS NOT NULL
	AND sro.end_date >= CURRENT_DATE
ORDER BY week_type, week_number`

	return collect(ctx, r.db, q, []any{termText}, func(rows pgx.Rows) (model.WeekMarker, error) {
		var w model.WeekMarker
		err := rows.Scan(&w.WeekType, &w.WeekNumber)
		return w, err
	})
}
