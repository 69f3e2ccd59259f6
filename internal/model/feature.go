package model

// CourseFeatures are the per-term course aggregates of one student.
type CourseFeatures struct {
	StudentID            string
	TermCode             TermCode
	Attempted            float64
	Full                 int
	Age                  int
	Dev                  int
	Internet             int
	PercentageOfRepeats  float64
	PercentageOfHistDrop float64
}

// MajorFeatures are the per-term major-volatility aggregates of one student.
type MajorFeatures struct {
	StudentID            string
	TermCode             TermCode
	MajorChangedFromLast int
	NumberOfMajors       int
	NumberOfUniqueMajors int
}

// FeatureRow is one row of the training table.
type FeatureRow struct {
	StudentID            string   `csv:"StudentID"`
	Attempted            float64  `csv:"Attempted"`
	Full                 int      `csv:"Full"`
	Age                  int      `csv:"Age"`
	Dev                  int      `csv:"Dev"`
	Internet             int      `csv:"Internet"`
	PercentageOfRepeats  float64  `csv:"PercentageOfRepeats"`
	PercentageOfHistDrop float64  `csv:"PercentageOfHistDrop"`
	TermCode             TermCode `csv:"TermCode"`
	MajorChangedFromLast int      `csv:"MajorChangedFromLast"`
	NumberOfMajors       int      `csv:"NumberOfMajors"`
	NumberOfUniqueMajors int      `csv:"NumberOfUniqueMajors"`
	TermGPALast          float64  `csv:"TermGPALast"`
	CumGPALast           float64  `csv:"CumGPALast"`
	PercentageOfAbsence  float64  `csv:"PercentageOfAbsence"`
	Ethnicity            string   `csv:"Ethnicity"`
	Gender               string   `csv:"Gender"`
	IsHispanic           string   `csv:"IsHispanic"`
	Target               int      `csv:"Target"`
}

// Key returns the (student, term) key of the row.
func (r FeatureRow) Key() Key {
	return Key{StudentID: r.StudentID, TermCode: r.TermCode}
}

// Tables bundles the flat per-entity inputs of the feature pipeline.
type Tables struct {
	Students   []Student
	Courses    []CourseRecord
	Majors     []MajorRecord
	Attendance []AttendanceRecord
	GPA        []GPARecord
	Targets    []Target
}
