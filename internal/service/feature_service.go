package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/feature"
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// FeatureService turns the raw extracts into the cleaned training table.
type FeatureService struct {
	rawDir       string
	processedDir string
	policy       feature.Policy
	registry     RunRegistry
	log          zerolog.Logger
	now          func() time.Time
}

// NewFeatureService creates a new FeatureService.
func NewFeatureService(rawDir, processedDir string, policy feature.Policy, registry RunRegistry, log zerolog.Logger) *FeatureService {
	if registry == nil {
		registry = NoopRegistry{}
	}
	return &FeatureService{
		rawDir:       rawDir,
		processedDir: processedDir,
		policy:       policy,
		registry:     registry,
		log:          log.With().Str("component", "feature_service").Logger(),
		now:          time.Now,
	}
}

// Preprocess builds cleaned-<week>.csv from the raw directory, using the
// attendance figures as of week.
func (s *FeatureService) Preprocess(ctx context.Context, week int) (report *RunReport, err error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: got %d", feature.ErrInvalidWeek, week)
	}

	release, err := s.registry.Acquire(ctx, week)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			s.log.Warn().Err(rerr).Int("week", week).Msg("Failed to release run lock")
		}
	}()

	start := s.now()
	report = NewRunReport(week, start)
	log := s.log.With().Str("run_id", report.ID).Int("week", week).Logger()
	log.Info().Str("raw_dir", s.rawDir).Msg("Preprocess started")

	tables, loads, err := dataset.LoadRaw(s.rawDir)
	if err != nil {
		return nil, fmt.Errorf("load raw tables: %w", err)
	}
	report.Loads = loads
	for _, st := range loads {
		ev := log.Debug()
		if st.Skipped > 0 {
			ev = log.Warn().Str("first_error", st.FirstError)
		}
		ev.Str("table", st.Table).
			Int("read", st.Read).
			Int("kept", st.Kept).
			Int("skipped", st.Skipped).
			Msg("Table loaded")
	}

	weeks, err := dataset.LoadWeeks(s.rawDir)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read current term weeks")
	}
	report.CurrentWeeks = weeks
	if latest := latestWeek(weeks); latest > 0 && week > latest {
		log.Warn().Int("current_week", latest).Msg("Cutoff week is past the running term's current week")
	}

	res, err := feature.Build(tables, week, s.policy)
	if err != nil {
		return nil, err
	}
	if len(res.MalformedTerms) > 0 {
		log.Warn().Strs("term_codes", res.MalformedTerms).Msg("Excluded malformed term codes")
	}
	if res.DuplicateAttendance > 0 {
		log.Warn().Int("duplicates", res.DuplicateAttendance).Msg("Duplicate attendance keys at cutoff week, kept first")
	}
	report.TermCounts = res.TermCounts()
	for _, tc := range report.TermCounts {
		log.Debug().
			Str("term", string(tc.Term)).
			Int("courses", tc.Courses).
			Int("majors", tc.Majors).
			Msg("Term aggregated")
	}
	for _, st := range res.Report.Stages {
		ev := log.Info()
		if st.Dropped > 0 {
			ev = log.Warn()
		}
		ev.Str("stage", st.Stage).
			Int("input", st.Input).
			Int("matched", st.Matched).
			Int("dropped", st.Dropped).
			Float64("drop_rate", st.DropRate()).
			Msg("Join stage")
	}

	out, err := dataset.WriteFileAs(dataset.CleanedPath(s.processedDir, week), dataset.FeatureTable("cleaned", res.Rows))
	if err != nil {
		return nil, err
	}

	report.Output = out
	report.Rows = len(res.Rows)
	report.Terms = res.Terms
	report.MalformedTerms = res.MalformedTerms
	report.DuplicateAttendance = res.DuplicateAttendance
	report.Join = res.Report
	report.Duration = s.now().Sub(start)

	if err := s.registry.Publish(ctx, report); err != nil {
		log.Warn().Err(err).Msg("Failed to publish run report")
	}

	log.Info().
		Str("output", out).
		Int("rows", report.Rows).
		Int("terms", len(report.Terms)).
		Int("dropped", res.Report.Dropped()).
		Dur("duration", report.Duration).
		Msg("Preprocess finished")
	return report, nil
}

func latestWeek(weeks []model.WeekMarker) int {
	n := 0
	for _, w := range weeks {
		n = max(n, w.WeekNumber)
	}
	return n
}
