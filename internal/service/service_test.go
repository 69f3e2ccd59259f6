package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcedu/attrition-pipeline/internal/dataset"
	"github.com/gcedu/attrition-pipeline/internal/feature"
	"github.com/gcedu/attrition-pipeline/internal/model"
)

// ─── Fakes ─────────────────────────────────────────────────────────────

type fakeRegistry struct {
	acquireErr error
	acquired   []int
	released   int
	published  []*RunReport
}

func (f *fakeRegistry) Acquire(_ context.Context, week int) (func(context.Context) error, error) {
	if f.acquireErr != nil {
		return nil, f.acquireErr
	}
	f.acquired = append(f.acquired, week)
	return func(context.Context) error { f.released++; return nil }, nil
}

func (f *fakeRegistry) Publish(_ context.Context, r *RunReport) error {
	f.published = append(f.published, r)
	return nil
}

type fakeSIS struct {
	tables  model.Tables
	weeks   []model.WeekMarker
	skipped int
	err     error
	calls   []string
}

func (f *fakeSIS) Targets(context.Context, model.CohortFilter) ([]model.Target, error) {
	f.calls = append(f.calls, "targets")
	return f.tables.Targets, f.err
}

func (f *fakeSIS) Students(context.Context, model.CohortFilter) ([]model.Student, error) {
	f.calls = append(f.calls, "students")
	return f.tables.Students, f.err
}

func (f *fakeSIS) Courses(context.Context, model.CohortFilter) ([]model.CourseRecord, int, error) {
	f.calls = append(f.calls, "courses")
	return f.tables.Courses, f.skipped, f.err
}

func (f *fakeSIS) Majors(context.Context, model.CohortFilter) ([]model.MajorRecord, error) {
	f.calls = append(f.calls, "majors")
	return f.tables.Majors, f.err
}

func (f *fakeSIS) Attendance(context.Context, model.CohortFilter) ([]model.AttendanceRecord, error) {
	f.calls = append(f.calls, "attendance")
	return f.tables.Attendance, f.err
}

func (f *fakeSIS) GPA(context.Context, model.CohortFilter) ([]model.GPARecord, error) {
	f.calls = append(f.calls, "gpa")
	return f.tables.GPA, f.err
}

func (f *fakeSIS) Weeks(_ context.Context, termText string) ([]model.WeekMarker, error) {
	f.calls = append(f.calls, "weeks:"+termText)
	return f.weeks, f.err
}

func sampleTables() model.Tables {
	course := func(id string, term model.TermCode, dept, num, grade string) model.CourseRecord {
		return model.CourseRecord{Term: "t", TermCode: term, StudentID: id, Department: dept, CourseID: num, Section: "A1", Credits: 3, Grade: grade, Age: 20, IsFullTime: 1}
	}
	return model.Tables{
		Courses: []model.CourseRecord{
			course("1", "B17Q", "MATH", "101", "W"),
			course("1", "B18C", "MATH", "101", "B"),
			course("2", "B18C", "ENG", "101", "A"),
		},
		Majors: []model.MajorRecord{
			{StudentID: "1", TermCode: "B17Q", Major: "Art", LastMajor: "Art"},
			{StudentID: "1", TermCode: "B18C", Major: "Art", LastMajor: "Art"},
			{StudentID: "2", TermCode: "B18C", Major: "Biology", LastMajor: "Biology"},
		},
		GPA: []model.GPARecord{
			{StudentID: "1", TermCode: "B17Q"},
			{StudentID: "1", TermCode: "B18C", TermGPALast: 2, CumGPALast: 2},
			{StudentID: "2", TermCode: "B18C"},
		},
		Attendance: []model.AttendanceRecord{
			{StudentID: "1", TermCode: "B17Q", WeekNumber: 3, PercentageOfAbsence: 0.1},
			{StudentID: "1", TermCode: "B18C", WeekNumber: 3, PercentageOfAbsence: 0.2},
			{StudentID: "2", TermCode: "B18C", WeekNumber: 3, PercentageOfAbsence: 0},
		},
		Students: []model.Student{
			{StudentID: "1", Ethnicity: "Asian", Gender: "F", IsHispanic: "False"},
			{StudentID: "2", Ethnicity: "White", Gender: "M", IsHispanic: "True"},
		},
		Targets: []model.Target{
			{StudentID: "1", TermCode: "B17Q", Target: 1},
			{StudentID: "1", TermCode: "B18C", Target: 0},
			{StudentID: "2", TermCode: "B18C", Target: 0},
		},
	}
}

func writeRaw(t *testing.T, dir string, tables model.Tables) {
	t.Helper()
	for _, tb := range []dataset.Table{
		dataset.CourseTable(tables.Courses),
		dataset.MajorTable(tables.Majors),
		dataset.GPATable(tables.GPA),
		dataset.AttendanceTable(tables.Attendance),
		dataset.StudentTable(tables.Students),
		dataset.TargetTable(tables.Targets),
	} {
		_, err := dataset.WriteFile(dir, tb)
		require.NoError(t, err)
	}
}

// ─── FeatureService ────────────────────────────────────────────────────

func TestFeatureService_Preprocess(t *testing.T) {
	raw, processed := t.TempDir(), t.TempDir()
	writeRaw(t, raw, sampleTables())
	reg := &fakeRegistry{}

	svc := NewFeatureService(raw, processed, feature.DefaultPolicy(), reg, zerolog.Nop())
	report, err := svc.Preprocess(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, []model.TermCode{"B17Q", "B18C"}, report.Terms)
	assert.Equal(t, []feature.TermCount{
		{Term: "B17Q", Courses: 1, Majors: 1},
		{Term: "B18C", Courses: 2, Majors: 2},
	}, report.TermCounts)
	assert.Empty(t, report.MalformedTerms)
	assert.Empty(t, report.CurrentWeeks)
	assert.Equal(t, dataset.CleanedPath(processed, 3), report.Output)
	assert.Equal(t, 0, report.Join.Dropped())
	assert.Len(t, report.Loads, 6)
	assert.NotEmpty(t, report.ID)

	assert.Equal(t, []int{3}, reg.acquired)
	assert.Equal(t, 1, reg.released)
	require.Len(t, reg.published, 1)
	assert.Same(t, report, reg.published[0])

	f, err := os.Open(report.Output)
	require.NoError(t, err)
	defer f.Close()
	rows, _, err := dataset.ReadFeatures(f)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.TermCode("B17Q"), rows[0].TermCode)
	assert.Equal(t, 1.0, rows[1].PercentageOfHistDrop)
	assert.Equal(t, 1.0, rows[1].PercentageOfRepeats)
	assert.Equal(t, "2", rows[2].StudentID)
}

func TestFeatureService_ReportsMalformedCourseTerms(t *testing.T) {
	raw, processed := t.TempDir(), t.TempDir()
	tables := sampleTables()
	bad := tables.Courses[0]
	bad.TermCode = "FALL"
	tables.Courses = append(tables.Courses, bad)
	writeRaw(t, raw, tables)

	var buf bytes.Buffer
	svc := NewFeatureService(raw, processed, feature.DefaultPolicy(), NoopRegistry{}, zerolog.New(&buf))
	report, err := svc.Preprocess(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"FALL"}, report.MalformedTerms)
	assert.Zero(t, report.Loads[0].Skipped)
	assert.Equal(t, 3, report.Rows)
	assert.Contains(t, buf.String(), "Excluded malformed term codes")
}

func TestFeatureService_ComparesCutoffWithCurrentWeeks(t *testing.T) {
	raw, processed := t.TempDir(), t.TempDir()
	writeRaw(t, raw, sampleTables())
	weeks := []model.WeekMarker{{WeekType: "A", WeekNumber: 2}, {WeekType: "0", WeekNumber: 1}}
	_, err := dataset.WriteFile(raw, dataset.WeekTable(weeks))
	require.NoError(t, err)

	var buf bytes.Buffer
	svc := NewFeatureService(raw, processed, feature.DefaultPolicy(), NoopRegistry{}, zerolog.New(&buf))
	report, err := svc.Preprocess(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, weeks, report.CurrentWeeks)
	assert.Contains(t, buf.String(), "Cutoff week is past the running term's current week")
	assert.Contains(t, buf.String(), `"current_week":2`)

	buf.Reset()
	_, err = svc.Preprocess(context.Background(), 2)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Cutoff week is past")
}

func TestFeatureService_LockHeld(t *testing.T) {
	reg := &fakeRegistry{acquireErr: ErrRunInProgress}
	svc := NewFeatureService(t.TempDir(), t.TempDir(), feature.DefaultPolicy(), reg, zerolog.Nop())

	_, err := svc.Preprocess(context.Background(), 2)
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestFeatureService_InvalidWeek(t *testing.T) {
	reg := &fakeRegistry{}
	svc := NewFeatureService(t.TempDir(), t.TempDir(), feature.DefaultPolicy(), reg, zerolog.Nop())

	_, err := svc.Preprocess(context.Background(), 0)
	assert.ErrorIs(t, err, feature.ErrInvalidWeek)
	assert.Empty(t, reg.acquired)
}

func TestFeatureService_MissingRawReleasesLock(t *testing.T) {
	reg := &fakeRegistry{}
	svc := NewFeatureService(t.TempDir(), t.TempDir(), feature.DefaultPolicy(), reg, zerolog.Nop())

	_, err := svc.Preprocess(context.Background(), 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, reg.released)
	assert.Empty(t, reg.published)
}

// ─── ExtractService ────────────────────────────────────────────────────

func TestExtractService_Run(t *testing.T) {
	dir := t.TempDir()
	sis := &fakeSIS{tables: sampleTables(), weeks: []model.WeekMarker{{WeekType: "A", WeekNumber: 5}}}
	svc := NewExtractService(sis, sis, sis, zerolog.Nop())

	f := model.CohortFilter{StartYear: 2017, EndYear: 2018, CurrentTermText: "Spring 2018"}
	written, err := svc.Run(context.Background(), dir, dataset.Entities, f)
	require.NoError(t, err)
	assert.Len(t, written, len(dataset.Entities))
	assert.Contains(t, sis.calls, "weeks:Spring 2018")

	tables, _, err := dataset.LoadRaw(dir)
	require.NoError(t, err)
	assert.Equal(t, sampleTables().Courses, tables.Courses)
	assert.Equal(t, sampleTables().Targets, tables.Targets)
}

func TestExtractService_SkipsTermsWithoutCurrentTerm(t *testing.T) {
	sis := &fakeSIS{tables: sampleTables()}
	svc := NewExtractService(sis, sis, sis, zerolog.Nop())

	written, err := svc.Run(context.Background(), t.TempDir(), []dataset.Entity{dataset.EntityTerms, dataset.EntityStudents}, model.CohortFilter{})
	require.NoError(t, err)
	assert.Len(t, written, 1)
	assert.Equal(t, []string{"students"}, sis.calls)
}

func TestExtractService_StopsOnError(t *testing.T) {
	boom := errors.New("connection reset")
	sis := &fakeSIS{err: boom}
	svc := NewExtractService(sis, sis, sis, zerolog.Nop())

	written, err := svc.Run(context.Background(), t.TempDir(), dataset.Entities, model.CohortFilter{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, written)
	assert.Len(t, sis.calls, 1)
}

func TestExtractService_ReportsSkippedCourseRows(t *testing.T) {
	var buf bytes.Buffer
	sis := &fakeSIS{tables: sampleTables(), skipped: 2}
	svc := NewExtractService(sis, sis, sis, zerolog.New(&buf))

	written, err := svc.Run(context.Background(), t.TempDir(), []dataset.Entity{dataset.EntityCourses}, model.CohortFilter{})
	require.NoError(t, err)
	require.Len(t, written, 1)
	assert.Contains(t, buf.String(), "Skipped course rows without a birth date")
	assert.Contains(t, buf.String(), `"skipped":2`)
}

func TestExtractService_UnknownEntity(t *testing.T) {
	sis := &fakeSIS{}
	svc := NewExtractService(sis, sis, sis, zerolog.Nop())

	_, err := svc.Fetch(context.Background(), dataset.Entity("canvas"), model.CohortFilter{})
	assert.ErrorIs(t, err, dataset.ErrUnknownEntity)
}

// ─── SplitService ──────────────────────────────────────────────────────

func TestSplitService_Split(t *testing.T) {
	dir := t.TempDir()
	rows := []model.FeatureRow{
		{StudentID: "1", TermCode: "B17Q", Ethnicity: "Asian", Gender: "F", IsHispanic: "False", Target: 1},
		{StudentID: "2", TermCode: "B17Q", Ethnicity: "White", Gender: "M", IsHispanic: "False", Target: 0},
		{StudentID: "1", TermCode: "B18C", Ethnicity: "Asian", Gender: "F", IsHispanic: "False", Target: 0},
		{StudentID: "2", TermCode: "B18Q", Ethnicity: "White", Gender: "M", IsHispanic: "False", Target: 0},
	}
	_, err := dataset.WriteFileAs(dataset.CleanedPath(dir, 4), dataset.FeatureTable("cleaned", rows))
	require.NoError(t, err)

	sum, err := NewSplitService(dir, zerolog.Nop()).Split(context.Background(), 4, "B18C", "B18Q")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TrainRows)
	assert.Equal(t, 1, sum.ValidRows)
	assert.Equal(t, 1, sum.TestRows)
	assert.InDelta(t, 1.0, sum.ScalePosWeight, 1e-9)

	for _, name := range []string{"train.csv", "valid.csv", "test.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestSplitService_MissingCleanedTable(t *testing.T) {
	_, err := NewSplitService(t.TempDir(), zerolog.Nop()).Split(context.Background(), 9, "B18C", "B18Q")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ─── Run reports ───────────────────────────────────────────────────────

func TestNewRunReport(t *testing.T) {
	now := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	a, b := NewRunReport(2, now), NewRunReport(2, now)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, now, a.StartedAt)
	assert.Equal(t, 2, a.Week)
}

func TestNoopRegistry(t *testing.T) {
	var reg RunRegistry = NoopRegistry{}
	release, err := reg.Acquire(context.Background(), 1)
	require.NoError(t, err)
	assert.NoError(t, release(context.Background()))
	assert.NoError(t, reg.Publish(context.Background(), &RunReport{}))
}
