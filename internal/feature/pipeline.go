package feature

import (
	"errors"
	"fmt"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// ErrInvalidWeek is returned when the attendance cutoff is not a positive week.
var ErrInvalidWeek = errors.New("week number must be >= 1")

// Result is the output of Build.
type Result struct {
	Rows []model.FeatureRow
	// Terms are the eligible terms features were computed for.
	Terms []model.TermCode
	// MalformedTerms are the distinct course term codes that failed validation.
	// Their rows are left out of every feature.
	MalformedTerms []string
	// CourseBatches and MajorBatches are the per-term aggregates in term order.
	CourseBatches []TermBatch[model.CourseFeatures]
	MajorBatches  []TermBatch[model.MajorFeatures]
	// DuplicateAttendance counts repeated (student, term) rows at the cutoff week.
	DuplicateAttendance int
	Report              JoinReport
}

// TermCount is the number of per-term aggregate rows built for a term.
type TermCount struct {
	Term    model.TermCode `json:"term"`
	Courses int            `json:"courses"`
	Majors  int            `json:"majors"`
}

// TermCounts lists the course and major aggregate sizes of every eligible
// term, in term order. A zero count marks a term the join will drop.
func (r *Result) TermCounts() []TermCount {
	idx := make(map[model.TermCode]int, len(r.Terms))
	out := make([]TermCount, len(r.Terms))
	for i, t := range r.Terms {
		idx[t] = i
		out[i].Term = t
	}
	for _, b := range r.CourseBatches {
		if i, ok := idx[b.Term]; ok {
			out[i].Courses = len(b.Rows)
		}
	}
	for _, b := range r.MajorBatches {
		if i, ok := idx[b.Term]; ok {
			out[i].Majors = len(b.Rows)
		}
	}
	return out
}

// Build runs the full feature computation over tables with the attendance
// cutoff week.
func Build(tables model.Tables, week int, p Policy) (*Result, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}

	terms, malformed := p.EligibleTerms(tables.Courses)
	courses := tables.Courses
	if len(malformed) > 0 {
		courses = wellFormed(courses)
	}
	courseBatches := AggregateCourses(courses, terms, p)
	majorBatches := AggregateMajors(tables.Majors, terms)
	absence, dupes := AttendanceAt(tables.Attendance, week)

	rows, report := Assemble(JoinInputs{
		Courses:  Concat(courseBatches),
		Majors:   Concat(majorBatches),
		GPA:      tables.GPA,
		Absence:  absence,
		Students: tables.Students,
		Targets:  tables.Targets,
	})

	return &Result{
		Rows:                rows,
		Terms:               terms,
		MalformedTerms:      malformed,
		CourseBatches:       courseBatches,
		MajorBatches:        majorBatches,
		DuplicateAttendance: dupes,
		Report:              report,
	}, nil
}

func wellFormed(rows []model.CourseRecord) []model.CourseRecord {
	out := make([]model.CourseRecord, 0, len(rows))
	for _, r := range rows {
		if r.TermCode.Valid() {
			out = append(out, r)
		}
	}
	return out
}
