package model

// AttendanceRecord is the running absence ratio of a student as of a given
// week of a term.
type AttendanceRecord struct {
	StudentID           string   `csv:"StudentID" validate:"required"`
	TermCode            TermCode `csv:"TermCode" validate:"termcode"`
	WeekNumber          int      `csv:"WeekNumber" validate:"gte=1"`
	PercentageOfAbsence float64  `csv:"PercentageOfAbsence" validate:"gte=0,lte=1"`
}

// WeekMarker reports the current week of a running term per section type.
type WeekMarker struct {
	WeekType   string `csv:"WeekType"`
	WeekNumber int    `csv:"WeekNumber"`
}
