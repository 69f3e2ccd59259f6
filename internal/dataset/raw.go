package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// Entity names a raw extract. The name doubles as the CSV file stem.
type Entity string

const (
	EntityTargets    Entity = "targets"
	EntityStudents   Entity = "students"
	EntityCourses    Entity = "course_history"
	EntityMajors     Entity = "major_history"
	EntityAttendance Entity = "attendance_history"
	EntityGPA        Entity = "gpa_history"
	EntityTerms      Entity = "terms"
)

// ErrUnknownEntity is returned for an entity name outside Entities.
var ErrUnknownEntity = errors.New("unknown entity")

// Entities lists every raw extract in extraction order.
var Entities = []Entity{
	EntityTargets,
	EntityStudents,
	EntityAttendance,
	EntityMajors,
	EntityCourses,
	EntityGPA,
	EntityTerms,
}

// ParseEntity resolves an entity name.
func ParseEntity(s string) (Entity, error) {
	for _, e := range Entities {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEntity, s)
}

// Path returns the raw file of e inside dir.
func (e Entity) Path(dir string) string {
	return filepath.Join(dir, string(e)+".csv")
}

var (
	targetHeader     = []string{"StudentID", "TermCode", "Target"}
	studentHeader    = []string{"StudentID", "Ethnicity", "Gender", "IsHispanic"}
	courseHeader     = []string{"Term", "TermCode", "StudentID", "Department", "CourseID", "Section", "Credits", "Grade", "Age", "IsFullTime"}
	majorHeader      = []string{"StudentID", "TermCode", "Major", "LastMajor"}
	attendanceHeader = []string{"StudentID", "TermCode", "WeekNumber", "PercentageOfAbsence"}
	gpaHeader        = []string{"StudentID", "TermCode", "TermGPALast", "CumGPALast"}
	termHeader       = []string{"WeekType", "WeekNumber"}
)

// ─── Targets ───────────────────────────────────────────────────────────

func TargetTable(rows []model.Target) Table {
	return NewTable(string(EntityTargets), targetHeader, rows, func(t model.Target) []string {
		return []string{t.StudentID, string(t.TermCode), strconv.Itoa(t.Target)}
	})
}

func ReadTargets(r io.Reader) ([]model.Target, LoadStats, error) {
	return readCSV(r, string(EntityTargets), targetHeader, func(rec record) (model.Target, error) {
		target, err := rec.integer("Target")
		if err != nil {
			return model.Target{}, err
		}
		return model.Target{
			StudentID: rec.str("StudentID"),
			TermCode:  model.TermCode(rec.str("TermCode")),
			Target:    target,
		}, nil
	})
}

// ─── Students ──────────────────────────────────────────────────────────

func StudentTable(rows []model.Student) Table {
	return NewTable(string(EntityStudents), studentHeader, rows, func(s model.Student) []string {
		return []string{s.StudentID, s.Ethnicity, s.Gender, s.IsHispanic}
	})
}

// ReadStudents decodes demographics, filling missing values with "unknown".
func ReadStudents(r io.Reader) ([]model.Student, LoadStats, error) {
	return readCSV(r, string(EntityStudents), []string{"StudentID"}, func(rec record) (model.Student, error) {
		s := model.Student{
			StudentID:  rec.str("StudentID"),
			Ethnicity:  rec.str("Ethnicity"),
			Gender:     rec.str("Gender"),
			IsHispanic: rec.str("IsHispanic"),
		}
		s.FillUnknown()
		return s, nil
	})
}

// ─── Course history ────────────────────────────────────────────────────

func CourseTable(rows []model.CourseRecord) Table {
	return NewTable(string(EntityCourses), courseHeader, rows, func(c model.CourseRecord) []string {
		return []string{
			c.Term, string(c.TermCode), c.StudentID, c.Department, c.CourseID, c.Section,
			formatFloat(c.Credits), c.Grade, strconv.Itoa(c.Age), strconv.Itoa(c.IsFullTime),
		}
	})
}

func ReadCourses(r io.Reader) ([]model.CourseRecord, LoadStats, error) {
	return readCSV(r, string(EntityCourses), courseHeader[1:], func(rec record) (model.CourseRecord, error) {
		c := model.CourseRecord{
			Term:       rec.str("Term"),
			TermCode:   model.TermCode(rec.str("TermCode")),
			StudentID:  rec.str("StudentID"),
			Department: rec.str("Department"),
			CourseID:   rec.str("CourseID"),
			Section:    rec.str("Section"),
			Grade:      rec.str("Grade"),
		}
		var err error
		if c.Credits, err = rec.num("Credits"); err != nil {
			return c, err
		}
		if c.Age, err = rec.integer("Age"); err != nil {
			return c, err
		}
		if c.IsFullTime, err = rec.integer("IsFullTime"); err != nil {
			return c, err
		}
		return c, nil
	})
}

// ─── Major history ─────────────────────────────────────────────────────

func MajorTable(rows []model.MajorRecord) Table {
	return NewTable(string(EntityMajors), majorHeader, rows, func(m model.MajorRecord) []string {
		return []string{m.StudentID, string(m.TermCode), m.Major, m.LastMajor}
	})
}

func ReadMajors(r io.Reader) ([]model.MajorRecord, LoadStats, error) {
	return readCSV(r, string(EntityMajors), majorHeader, func(rec record) (model.MajorRecord, error) {
		return model.MajorRecord{
			StudentID: rec.str("StudentID"),
			TermCode:  model.TermCode(rec.str("TermCode")),
			Major:     rec.str("Major"),
			LastMajor: rec.str("LastMajor"),
		}, nil
	})
}

// ─── Attendance history ────────────────────────────────────────────────

func AttendanceTable(rows []model.AttendanceRecord) Table {
	return NewTable(string(EntityAttendance), attendanceHeader, rows, func(a model.AttendanceRecord) []string {
		return []string{a.StudentID, string(a.TermCode), strconv.Itoa(a.WeekNumber), formatFloat(a.PercentageOfAbsence)}
	})
}

func ReadAttendance(r io.Reader) ([]model.AttendanceRecord, LoadStats, error) {
	return readCSV(r, string(EntityAttendance), attendanceHeader, func(rec record) (model.AttendanceRecord, error) {
		a := model.AttendanceRecord{
			StudentID: rec.str("StudentID"),
			TermCode:  model.TermCode(rec.str("TermCode")),
		}
		var err error
		if a.WeekNumber, err = rec.integer("WeekNumber"); err != nil {
			return a, err
		}
		if a.PercentageOfAbsence, err = rec.num("PercentageOfAbsence"); err != nil {
			return a, err
		}
		return a, nil
	})
}

// ─── GPA history ───────────────────────────────────────────────────────

func GPATable(rows []model.GPARecord) Table {
	return NewTable(string(EntityGPA), gpaHeader, rows, func(g model.GPARecord) []string {
		return []string{g.StudentID, string(g.TermCode), formatFloat(g.TermGPALast), formatFloat(g.CumGPALast)}
	})
}

func ReadGPA(r io.Reader) ([]model.GPARecord, LoadStats, error) {
	return readCSV(r, string(EntityGPA), gpaHeader, func(rec record) (model.GPARecord, error) {
		g := model.GPARecord{
			StudentID: rec.str("StudentID"),
			TermCode:  model.TermCode(rec.str("TermCode")),
		}
		var err error
		if g.TermGPALast, err = rec.num("TermGPALast"); err != nil {
			return g, err
		}
		if g.CumGPALast, err = rec.num("CumGPALast"); err != nil {
			return g, err
		}
		return g, nil
	})
}

// ─── Current-term weeks ────────────────────────────────────────────────

func WeekTable(rows []model.WeekMarker) Table {
	return NewTable(string(EntityTerms), termHeader, rows, func(w model.WeekMarker) []string {
		return []string{w.WeekType, strconv.Itoa(w.WeekNumber)}
	})
}

func ReadWeeks(r io.Reader) ([]model.WeekMarker, LoadStats, error) {
	return readCSV(r, string(EntityTerms), termHeader, func(rec record) (model.WeekMarker, error) {
		n, err := rec.integer("WeekNumber")
		return model.WeekMarker{WeekType: rec.str("WeekType"), WeekNumber: n}, err
	})
}

// LoadWeeks reads the current-term weeks from dir. A missing file yields no
// weeks.
func LoadWeeks(dir string) ([]model.WeekMarker, error) {
	f, err := os.Open(EntityTerms.Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", EntityTerms, err)
	}
	defer f.Close()
	weeks, _, err := ReadWeeks(f)
	return weeks, err
}

// ─── Directory loader ──────────────────────────────────────────────────

// LoadRaw reads the six feature inputs from dir.
func LoadRaw(dir string) (model.Tables, []LoadStats, error) {
	var (
		tables model.Tables
		stats  []LoadStats
	)
	load := func(e Entity, read func(io.Reader) (LoadStats, error)) error {
		f, err := os.Open(e.Path(dir))
		if err != nil {
			return fmt.Errorf("open %s: %w", e, err)
		}
		defer f.Close()
		s, err := read(f)
		if err != nil {
			return err
		}
		stats = append(stats, s)
		return nil
	}

	steps := []struct {
		entity Entity
		read   func(io.Reader) (LoadStats, error)
	}{
		{EntityCourses, func(r io.Reader) (s LoadStats, err error) {
			tables.Courses, s, err = ReadCourses(r)
			return
		}},
		{EntityMajors, func(r io.Reader) (s LoadStats, err error) {
			tables.Majors, s, err = ReadMajors(r)
			return
		}},
		{EntityGPA, func(r io.Reader) (s LoadStats, err error) {
			tables.GPA, s, err = ReadGPA(r)
			return
		}},
		{EntityAttendance, func(r io.Reader) (s LoadStats, err error) {
			tables.Attendance, s, err = ReadAttendance(r)
			return
		}},
		{EntityStudents, func(r io.Reader) (s LoadStats, err error) {
			tables.Students, s, err = ReadStudents(r)
			return
		}},
		{EntityTargets, func(r io.Reader) (s LoadStats, err error) {
			tables.Targets, s, err = ReadTargets(r)
			return
		}},
	}
	for _, step := range steps {
		if err := load(step.entity, step.read); err != nil {
			return model.Tables{}, stats, err
		}
	}
	return tables, stats, nil
}
