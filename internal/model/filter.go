package model

// CohortFilter bounds which terms and students the extraction queries read.
type CohortFilter struct {
	// StartYear and EndYear bound the term calendar by term start date.
	StartYear int
	EndYear   int
	// IncludeSummer keeps summer terms in the cohort window.
	IncludeSummer bool
	// MajorLookbackYears limits major history to the last N years.
	MajorLookbackYears int
	// CurrentTermText is the calendar text of the running term (e.g.
	// "Fall 2023"), used to report its current week.
	CurrentTermText string
}
