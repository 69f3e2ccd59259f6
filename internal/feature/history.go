package feature

import (
	"sort"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// courseHistory indexes course rows by student (sorted by term) and by term.
type courseHistory struct {
	byStudent map[string][]model.CourseRecord
	byTerm    map[model.TermCode][]model.CourseRecord
}

func newCourseHistory(rows []model.CourseRecord) *courseHistory {
	h := &courseHistory{
		byStudent: make(map[string][]model.CourseRecord),
		byTerm:    make(map[model.TermCode][]model.CourseRecord),
	}
	for _, r := range rows {
		h.byStudent[r.StudentID] = append(h.byStudent[r.StudentID], r)
		h.byTerm[r.TermCode] = append(h.byTerm[r.TermCode], r)
	}
	for id := range h.byStudent {
		rs := h.byStudent[id]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].TermCode < rs[j].TermCode })
	}
	return h
}

// before returns the student's rows with TermCode < t.
func (h *courseHistory) before(studentID string, t model.TermCode) []model.CourseRecord {
	rs := h.byStudent[studentID]
	n := sort.Search(len(rs), func(i int) bool { return rs[i].TermCode >= t })
	return rs[:n]
}

// in returns every row of term t.
func (h *courseHistory) in(t model.TermCode) []model.CourseRecord {
	return h.byTerm[t]
}

// majorHistory indexes major rows the same way.
type majorHistory struct {
	byStudent map[string][]model.MajorRecord
	byTerm    map[model.TermCode][]model.MajorRecord
}

func newMajorHistory(rows []model.MajorRecord) *majorHistory {
	h := &majorHistory{
		byStudent: make(map[string][]model.MajorRecord),
		byTerm:    make(map[model.TermCode][]model.MajorRecord),
	}
	for _, r := range rows {
		h.byStudent[r.StudentID] = append(h.byStudent[r.StudentID], r)
		h.byTerm[r.TermCode] = append(h.byTerm[r.TermCode], r)
	}
	for id := range h.byStudent {
		rs := h.byStudent[id]
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].TermCode < rs[j].TermCode })
	}
	return h
}

// through returns the student's rows with TermCode <= t.
func (h *majorHistory) through(studentID string, t model.TermCode) []model.MajorRecord {
	rs := h.byStudent[studentID]
	n := sort.Search(len(rs), func(i int) bool { return rs[i].TermCode > t })
	return rs[:n]
}

func (h *majorHistory) in(t model.TermCode) []model.MajorRecord {
	return h.byTerm[t]
}
