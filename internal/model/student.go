package model

// UnknownDemographic fills demographic fields missing from the source.
const UnknownDemographic = "unknown"

// Student is the immutable demographic snapshot of a student.
type Student struct {
	StudentID  string `csv:"StudentID" validate:"required"`
	Ethnicity  string `csv:"Ethnicity"`
	Gender     string `csv:"Gender"`
	IsHispanic string `csv:"IsHispanic"`
}

// FillUnknown replaces empty demographic fields with UnknownDemographic.
func (s *Student) FillUnknown() {
	if s.Ethnicity == "" {
		s.Ethnicity = UnknownDemographic
	}
	if s.Gender == "" {
		s.Gender = UnknownDemographic
	}
	if s.IsHispanic == "" {
		s.IsHispanic = UnknownDemographic
	}
}

// Target is the per-term withdrawal label: 1 when the student received a W
// in any course that term.
type Target struct {
	StudentID string   `csv:"StudentID" validate:"required"`
	TermCode  TermCode `csv:"TermCode" validate:"termcode"`
	Target    int      `csv:"Target" validate:"oneof=0 1"`
}
