package model

// MajorRecord is a student's active program in a term. LastMajor is the
// previous term's major (equal to Major for the first recorded term).
type MajorRecord struct {
	StudentID string   `csv:"StudentID" validate:"required"`
	TermCode  TermCode `csv:"TermCode" validate:"termcode"`
	Major     string   `csv:"Major" validate:"required"`
	LastMajor string   `csv:"LastMajor"`
}

// Changed reports whether the major differs from the previous term's.
func (m MajorRecord) Changed() bool {
	return m.Major != m.LastMajor
}
