package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// EnrollmentReader reads registration-level extracts.
type EnrollmentReader interface {
	Targets(ctx context.Context, f model.CohortFilter) ([]model.Target, error)
	Students(ctx context.Context, f model.CohortFilter) ([]model.Student, error)
	Courses(ctx context.Context, f model.CohortFilter) ([]model.CourseRecord, int, error)
}

// HistoryReader reads per-term history extracts.
type HistoryReader interface {
	Majors(ctx context.Context, f model.CohortFilter) ([]model.MajorRecord, error)
	Attendance(ctx context.Context, f model.CohortFilter) ([]model.AttendanceRecord, error)
	GPA(ctx context.Context, f model.CohortFilter) ([]model.GPARecord, error)
}

// CalendarReader reads the running term's calendar.
type CalendarReader interface {
	Weeks(ctx context.Context, termText string) ([]model.WeekMarker, error)
}

// ExtractService pulls the raw tables out of the SIS.
type ExtractService struct {
	enrollment EnrollmentReader
	history    HistoryReader
	calendar   CalendarReader
	log        zerolog.Logger
}

// NewExtractService creates a new ExtractService.
func NewExtractService(enrollment EnrollmentReader, history HistoryReader, calendar CalendarReader, log zerolog.Logger) *ExtractService {
	return &ExtractService{
		enrollment: enrollment,
		history:    history,
		calendar:   calendar,
		log:        log.With().Str("component", "extract_service").Logger(),
	}
}

// Fetch reads one entity for the cohort described by f.
func (s *ExtractService) Fetch(ctx context.Context, entity dataset.Entity, f model.CohortFilter) (dataset.Table, error) {
	switch entity {
	case dataset.EntityTargets:
		rows, err := s.enrollment.Targets(ctx, f)
		return dataset.TargetTable(rows), err
	case dataset.EntityStudents:
		rows, err := s.enrollment.Students(ctx, f)
		return dataset.StudentTable(rows), err
	case dataset.EntityCourses:
		rows, skipped, err := s.enrollment.Courses(ctx, f)
		if skipped > 0 {
			s.log.Warn().Int("skipped", skipped).Msg("Skipped course rows without a birth date")
		}
		return dataset.CourseTable(rows), err
	case dataset.EntityMajors:
		rows, err := s.history.Majors(ctx, f)
		return dataset.MajorTable(rows), err
	case dataset.EntityAttendance:
		rows, err := s.history.Attendance(ctx, f)
		return dataset.AttendanceTable(rows), err
	case dataset.EntityGPA:
		rows, err := s.history.GPA(ctx, f)
		return dataset.GPATable(rows), err
	case dataset.EntityTerms:
		rows, err := s.calendar.Weeks(ctx, f.CurrentTermText)
		return dataset.WeekTable(rows), err
	default:
		return nil, fmt.Errorf("%w: %q", dataset.ErrUnknownEntity, entity)
	}
}

// Run fetches each entity and writes it to dir as <entity>.csv. The terms
// extract is skipped when f names no current term. The first failure stops
// the run.
func (s *ExtractService) Run(ctx context.Context, dir string, entities []dataset.Entity, f model.CohortFilter) ([]string, error) {
	s.log.Info().
		Int("start_year", f.StartYear).
		Int("end_year", f.EndYear).
		Str("dir", dir).
		Msg("Extraction started")

	var written []string
	for _, e := range entities {
		if e == dataset.EntityTerms && f.CurrentTermText == "" {
			s.log.Warn().Msg("CURR_TERM_TEXT not set, skipping terms extract")
			continue
		}

		start := time.Now()
		t, err := s.Fetch(ctx, e, f)
		if err != nil {
			return written, fmt.Errorf("fetch %s: %w", e, err)
		}
		path, err := dataset.WriteFile(dir, t)
		if err != nil {
			return written, err
		}
		written = append(written, path)

		s.log.Info().
			Str("entity", string(e)).
			Int("rows", t.Len()).
			Dur("took", time.Since(start)).
			Msg("Extracted")
	}
	return written, nil
}
