package model

// GPARecord carries the GPA snapshots of the term before TermCode. The
// current term's GPA is never present.
type GPARecord struct {
	StudentID   string   `csv:"StudentID" validate:"required"`
	TermCode    TermCode `csv:"TermCode" validate:"termcode"`
	TermGPALast float64  `csv:"TermGPALast" validate:"gte=0"`
	CumGPALast  float64  `csv:"CumGPALast" validate:"gte=0"`
}
