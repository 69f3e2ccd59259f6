package feature

import "github.com/gcedu/attrition-pipeline/internal/model"

func course(id string, term model.TermCode, dept, num, section, grade string, credits float64) model.CourseRecord {
	return model.CourseRecord{
		StudentID:  id,
		TermCode:   term,
		Department: dept,
		CourseID:   num,
		Section:    section,
		Grade:      grade,
		Credits:    credits,
		Age:        20,
		IsFullTime: 1,
	}
}

func major(id string, term model.TermCode, m, last string) model.MajorRecord {
	return model.MajorRecord{StudentID: id, TermCode: term, Major: m, LastMajor: last}
}

func findCourse(batches []TermBatch[model.CourseFeatures], id string, term model.TermCode) (model.CourseFeatures, bool) {
	for _, b := range batches {
		if b.Term != term {
			continue
		}
		for _, r := range b.Rows {
			if r.StudentID == id {
				return r, true
			}
		}
	}
	return model.CourseFeatures{}, false
}

func findMajor(batches []TermBatch[model.MajorFeatures], id string, term model.TermCode) (model.MajorFeatures, bool) {
	for _, b := range batches {
		if b.Term != term {
			continue
		}
		for _, r := range b.Rows {
			if r.StudentID == id {
				return r, true
			}
		}
	}
	return model.MajorFeatures{}, false
}
