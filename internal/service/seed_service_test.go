package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcedu/attrition-pipeline/internal/model"
)

type countingMirror struct {
	truncated int
	terms     []string
	students  int
	noBirth   int
	offers    int
	noSection int
	enrolled  int
	statuses  int
	marks     int
	gpas      int
	grades    map[string]int
}

func (m *countingMirror) Truncate(context.Context) error { m.truncated++; return nil }

func (m *countingMirror) CreateTerm(_ context.Context, _ int, code, _ string, _ time.Time) error {
	m.terms = append(m.terms, code)
	return nil
}

func (m *countingMirror) CreateGlossary(context.Context, int, string) error { return nil }
func (m *countingMirror) CreateMajor(context.Context, int, string) error    { return nil }

func (m *countingMirror) CreateStudent(_ context.Context, _ int, _ string, birth *time.Time, _, _ string, _ int) error {
	m.students++
	if birth == nil {
		m.noBirth++
	}
	return nil
}

func (m *countingMirror) CreateOffer(_ context.Context, _, _ int, _, _ string, section *string, _ float64, _, _ time.Time) error {
	m.offers++
	if section == nil {
		m.noSection++
	}
	return nil
}

func (m *countingMirror) Enroll(_ context.Context, _, _, _ int, grade string) error {
	m.enrolled++
	if m.grades == nil {
		m.grades = make(map[string]int)
	}
	m.grades[grade]++
	return nil
}

func (m *countingMirror) SetStatus(context.Context, int, int, int, int) error {
	m.statuses++
	return nil
}

func (m *countingMirror) RecordAttendance(context.Context, int, int, int, time.Time, string) error {
	m.marks++
	return nil
}

func (m *countingMirror) RecordGPA(context.Context, int, int, float64, float64) error {
	m.gpas++
	return nil
}

func TestSeedService_Seed(t *testing.T) {
	m := &countingMirror{}
	opts := SeedOptions{Students: 120, FirstYear: 2017, LastYear: 2019, AttendanceWeeks: 2, Seed: 7}

	sum, err := NewSeedService(m, zerolog.Nop()).Seed(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 1, m.truncated)
	assert.Equal(t, []string{"B17C", "B17M", "B17Q", "B18C", "B18M", "B18Q", "B19C", "B19M", "B19Q"}, m.terms)
	assert.Equal(t, 120, m.students)
	assert.Equal(t, 2, m.noBirth)
	assert.Equal(t, 9*(len(seedCatalog)+1), m.offers)
	assert.Equal(t, 9, m.noSection)
	assert.Equal(t, sum.Offers, m.offers)
	assert.Equal(t, sum.Enrollments, m.enrolled)
	assert.Equal(t, sum.Withdrawals, m.grades["W"])
	assert.Equal(t, 2*m.enrolled, m.marks)
	assert.Equal(t, m.statuses, m.gpas)
	assert.Positive(t, m.enrolled)
}

func TestSeedService_Deterministic(t *testing.T) {
	opts := SeedOptions{Students: 25, FirstYear: 2017, LastYear: 2018, AttendanceWeeks: 1, Seed: 42}

	a, err := NewSeedService(&countingMirror{}, zerolog.Nop()).Seed(context.Background(), opts)
	require.NoError(t, err)
	b, err := NewSeedService(&countingMirror{}, zerolog.Nop()).Seed(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSeedService_InvalidOptions(t *testing.T) {
	_, err := NewSeedService(&countingMirror{}, zerolog.Nop()).Seed(context.Background(), SeedOptions{Students: 0, FirstYear: 2017, LastYear: 2018})
	assert.Error(t, err)

	_, err = NewSeedService(&countingMirror{}, zerolog.Nop()).Seed(context.Background(), SeedOptions{Students: 5, FirstYear: 2019, LastYear: 2018})
	assert.Error(t, err)
}

func TestSeedService_TermCodesSortChronologically(t *testing.T) {
	m := &countingMirror{}
	opts := SeedOptions{Students: 1, FirstYear: 2017, LastYear: 2020, Seed: 1}
	_, err := NewSeedService(m, zerolog.Nop()).Seed(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, sort.StringsAreSorted(m.terms), "calendar order %v", m.terms)
	for _, code := range m.terms {
		_, err := model.ParseTermCode(code)
		assert.NoError(t, err, code)
	}
}
