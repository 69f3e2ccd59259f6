package feature

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

// AggregateCourses computes the course features of every student enrolled
// in each of terms. terms must be sorted ascending; one batch is returned per
// term, in the same order.
func AggregateCourses(rows []model.CourseRecord, terms []model.TermCode, p Policy) []TermBatch[model.CourseFeatures] {
	h := newCourseHistory(rows)
	batches := make([]TermBatch[model.CourseFeatures], 0, len(terms))
	for _, t := range terms {
		batches = append(batches, TermBatch[model.CourseFeatures]{
			Term: t,
			Rows: aggregateTerm(h, t, p),
		})
	}
	return batches
}

func aggregateTerm(h *courseHistory, t model.TermCode, p Policy) []model.CourseFeatures {
	current := groupByStudent(h.in(t))
	ids := make([]string, 0, len(current))
	for id := range current {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.CourseFeatures, 0, len(ids))
	for _, id := range ids {
		prior := h.before(id, t)
		f := enrollmentAttributes(current[id], p)
		f.StudentID = id
		f.TermCode = t
		f.PercentageOfHistDrop = histDropRate(prior)
		f.PercentageOfRepeats = repeatRate(current[id], prior)
		out = append(out, f)
	}
	return out
}

func groupByStudent(rows []model.CourseRecord) map[string][]model.CourseRecord {
	g := make(map[string][]model.CourseRecord)
	for _, r := range rows {
		g[r.StudentID] = append(g[r.StudentID], r)
	}
	return g
}

// enrollmentAttributes aggregates what is observable at the start of the
// term from its own enrollments.
func enrollmentAttributes(rows []model.CourseRecord, p Policy) model.CourseFeatures {
	var f model.CourseFeatures
	for i, r := range rows {
		f.Attempted += r.Credits
		if i == 0 || r.IsFullTime > f.Full {
			f.Full = r.IsFullTime
		}
		if i == 0 || r.Age > f.Age {
			f.Age = r.Age
		}
		if p.IsDev(r.Section) {
			f.Dev++
		}
		if p.IsInternet(r.Section) {
			f.Internet++
		}
	}
	return f
}

// histDropRate is the mean of IsW over prior rows; no history means a rate
// of zero.
func histDropRate(prior []model.CourseRecord) float64 {
	if len(prior) == 0 {
		return 0
	}
	xs := make([]float64, len(prior))
	for i, r := range prior {
		if r.IsW() {
			xs[i] = 1
		}
	}
	return stat.Mean(xs, nil)
}

// repeatRate is the share of current enrollments whose course was already
// taken in an earlier term.
func repeatRate(current, prior []model.CourseRecord) float64 {
	if len(current) == 0 || len(prior) == 0 {
		return 0
	}
	taken := make(map[string]struct{}, len(prior))
	for _, r := range prior {
		taken[r.Course()] = struct{}{}
	}
	xs := make([]float64, len(current))
	for i, r := range current {
		if _, ok := taken[r.Course()]; ok {
			xs[i] = 1
		}
	}
	return stat.Mean(xs, nil)
}
