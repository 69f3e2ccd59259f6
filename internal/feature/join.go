package feature

import (
	"sort"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// Join stage names, in assembly order.
const (
	StageMajor       = "major"
	StageGPA         = "gpa"
	StageAttendance  = "attendance"
	StageDemographic = "demographics"
	StageTarget      = "target"
)

// StageReport counts the rows entering a join stage and how many survived.
type StageReport struct {
	Stage   string `json:"stage"`
	Input   int    `json:"input"`
	Matched int    `json:"matched"`
	Dropped int    `json:"dropped"`
}

// DropRate is the share of input rows dropped at this stage.
func (s StageReport) DropRate() float64 {
	if s.Input == 0 {
		return 0
	}
	return float64(s.Dropped) / float64(s.Input)
}

// JoinReport records the inner-join losses of one assembly.
type JoinReport struct {
	Stages []StageReport `json:"stages"`
}

// Dropped is the total number of rows dropped across all stages.
func (r JoinReport) Dropped() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Dropped
	}
	return n
}

func (r *JoinReport) record(stage string, input, matched int) {
	r.Stages = append(r.Stages, StageReport{
		Stage:   stage,
		Input:   input,
		Matched: matched,
		Dropped: input - matched,
	})
}

// JoinInputs are the per-source tables of Assemble.
type JoinInputs struct {
	Courses  []model.CourseFeatures
	Majors   []model.MajorFeatures
	GPA      []model.GPARecord
	Absence  map[model.Key]float64
	Students []model.Student
	Targets  []model.Target
}

// Assemble inner-joins the feature sources into training rows. A course row
// without a match in every other source is dropped; each stage's loss is
// recorded in the returned report. Output is sorted by (TermCode, StudentID).
func Assemble(in JoinInputs) ([]model.FeatureRow, JoinReport) {
	var report JoinReport

	majors := make(map[model.Key]model.MajorFeatures, len(in.Majors))
	for _, m := range in.Majors {
		majors[model.Key{StudentID: m.StudentID, TermCode: m.TermCode}] = m
	}
	gpa := make(map[model.Key]model.GPARecord, len(in.GPA))
	for _, g := range in.GPA {
		k := model.Key{StudentID: g.StudentID, TermCode: g.TermCode}
		if _, ok := gpa[k]; !ok {
			gpa[k] = g
		}
	}
	students := make(map[string]model.Student, len(in.Students))
	for _, s := range in.Students {
		if _, ok := students[s.StudentID]; !ok {
			students[s.StudentID] = s
		}
	}
	targets := make(map[model.Key]int, len(in.Targets))
	for _, t := range in.Targets {
		k := model.Key{StudentID: t.StudentID, TermCode: t.TermCode}
		if _, ok := targets[k]; !ok {
			targets[k] = t.Target
		}
	}

	rows := make([]model.FeatureRow, 0, len(in.Courses))
	for _, c := range in.Courses {
		rows = append(rows, model.FeatureRow{
			StudentID:            c.StudentID,
			TermCode:             c.TermCode,
			Attempted:            c.Attempted,
			Full:                 c.Full,
			Age:                  c.Age,
			Dev:                  c.Dev,
			Internet:             c.Internet,
			PercentageOfRepeats:  c.PercentageOfRepeats,
			PercentageOfHistDrop: c.PercentageOfHistDrop,
		})
	}

	rows = joinStage(&report, StageMajor, rows, func(r *model.FeatureRow) bool {
		m, ok := majors[r.Key()]
		if ok {
			r.MajorChangedFromLast = m.MajorChangedFromLast
			r.NumberOfMajors = m.NumberOfMajors
			r.NumberOfUniqueMajors = m.NumberOfUniqueMajors
		}
		return ok
	})
	rows = joinStage(&report, StageGPA, rows, func(r *model.FeatureRow) bool {
		g, ok := gpa[r.Key()]
		if ok {
			r.TermGPALast = g.TermGPALast
			r.CumGPALast = g.CumGPALast
		}
		return ok
	})
	rows = joinStage(&report, StageAttendance, rows, func(r *model.FeatureRow) bool {
		a, ok := in.Absence[r.Key()]
		if ok {
			r.PercentageOfAbsence = a
		}
		return ok
	})
	rows = joinStage(&report, StageDemographic, rows, func(r *model.FeatureRow) bool {
		s, ok := students[r.StudentID]
		if ok {
			r.Ethnicity = s.Ethnicity
			r.Gender = s.Gender
			r.IsHispanic = s.IsHispanic
		}
		return ok
	})
	rows = joinStage(&report, StageTarget, rows, func(r *model.FeatureRow) bool {
		t, ok := targets[r.Key()]
		if ok {
			r.Target = t
		}
		return ok
	})

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TermCode != rows[j].TermCode {
			return rows[i].TermCode < rows[j].TermCode
		}
		return rows[i].StudentID < rows[j].StudentID
	})
	return rows, report
}

// joinStage keeps the rows for which match fills in the joined columns.
func joinStage(report *JoinReport, stage string, rows []model.FeatureRow, match func(*model.FeatureRow) bool) []model.FeatureRow {
	kept := rows[:0]
	for i := range rows {
		if match(&rows[i]) {
			kept = append(kept, rows[i])
		}
	}
	report.record(stage, len(rows), len(kept))
	return kept
}
