package feature

import "github.com/gcedu/attrition-pipeline/internal/model"

// AttendanceAt returns the absence ratio per (student, term) as of week.
// Rows for other weeks are ignored. When a key repeats, the first row wins
// and the repeat is counted in duplicates.
func AttendanceAt(rows []model.AttendanceRecord, week int) (absence map[model.Key]float64, duplicates int) {
	absence = make(map[model.Key]float64)
	for _, r := range rows {
		if r.WeekNumber != week {
			continue
		}
		k := model.Key{StudentID: r.StudentID, TermCode: r.TermCode}
		if _, ok := absence[k]; ok {
			duplicates++
			continue
		}
		absence[k] = r.PercentageOfAbsence
	}
	return absence, duplicates
}
