package model

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidTermCode is returned when a term code does not match the
// <century><yy><season> shape, e.g. "B17Q".
var ErrInvalidTermCode = errors.New("invalid term code")

var termCodePattern = regexp.MustCompile(`^[A-Z][0-9]{2}[A-Z]$`)

// TermCode identifies an academic term. Codes sort chronologically as plain
// strings: century marker, two-digit year, season letter.
type TermCode string

// ParseTermCode validates s and returns it as a TermCode.
func ParseTermCode(s string) (TermCode, error) {
	if !termCodePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTermCode, s)
	}
	return TermCode(s), nil
}

// Valid reports whether t has the expected shape.
func (t TermCode) Valid() bool {
	return termCodePattern.MatchString(string(t))
}

// Century returns the leading century marker ('A' = 1900s, 'B' = 2000s).
func (t TermCode) Century() byte {
	if len(t) == 0 {
		return 0
	}
	return t[0]
}

// Season returns the trailing season letter.
func (t TermCode) Season() byte {
	if len(t) == 0 {
		return 0
	}
	return t[len(t)-1]
}

// Year returns the calendar year encoded in the term code, or 0 when the
// code is malformed.
func (t TermCode) Year() int {
	if !t.Valid() {
		return 0
	}
	yy, _ := strconv.Atoi(string(t[1:3]))
	return 1900 + int(t.Century()-'A')*100 + yy
}

// Before reports whether t is strictly earlier than other.
func (t TermCode) Before(other TermCode) bool {
	return t < other
}

func (t TermCode) String() string {
	return string(t)
}

// Key addresses a per-student per-term row.
type Key struct {
	StudentID string
	TermCode  TermCode
}
