package model

// WithdrawalGrade marks a course the student withdrew from.
const WithdrawalGrade = "W"

// CourseRecord is one enrollment of a student in a section during a term.
// Malformed term codes load as-is so the feature build can report them.
type CourseRecord struct {
	Term       string   `csv:"Term"`
	TermCode   TermCode `csv:"TermCode" validate:"required"`
	StudentID  string   `csv:"StudentID" validate:"required"`
	Department string   `csv:"Department"`
	CourseID   string   `csv:"CourseID"`
	Section    string   `csv:"Section"`
	Credits    float64  `csv:"Credits" validate:"gte=0"`
	Grade      string   `csv:"Grade"`
	Age        int      `csv:"Age"`
	IsFullTime int      `csv:"IsFullTime" validate:"oneof=0 1"`
}

// Course returns the course identifier (department + course number).
func (c CourseRecord) Course() string {
	return c.Department + c.CourseID
}

// IsW reports whether the enrollment ended in a withdrawal.
func (c CourseRecord) IsW() bool {
	return c.Grade == WithdrawalGrade
}

// Key returns the (student, term) key of the record.
func (c CourseRecord) Key() Key {
	return Key{StudentID: c.StudentID, TermCode: c.TermCode}
}
