package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

// MirrorWriter writes into the development SIS mirror.
type MirrorWriter interface {
	Truncate(ctx context.Context) error
	CreateTerm(ctx context.Context, id int, code, text string, start time.Time) error
	CreateGlossary(ctx context.Context, id int, text string) error
	CreateMajor(ctx context.Context, id int, name string) error
	CreateStudent(ctx context.Context, uid int, studentID string, birth *time.Time, gender, hispanic string, ethnicityID int) error
	CreateOffer(ctx context.Context, id, termID int, dept, course string, section *string, credits float64, start, end time.Time) error
	Enroll(ctx context.Context, uid, offerID, termID int, grade string) error
	SetStatus(ctx context.Context, uid, termID, ftptID, majorID int) error
	RecordAttendance(ctx context.Context, uid, offerID, termID int, day time.Time, comment string) error
	RecordGPA(ctx context.Context, uid, termID int, termGPA, cumGPA float64) error
}

// SeedOptions sizes the synthetic cohort.
type SeedOptions struct {
	Students  int
	FirstYear int
	LastYear  int
	// AttendanceWeeks is how many weeks of marks each section gets.
	AttendanceWeeks int
	Seed            uint64
}

// SeedSummary counts what Seed wrote.
type SeedSummary struct {
	Terms       int
	Students    int
	Offers      int
	Enrollments int
	Withdrawals int
	Marks       int
}

const (
	glossaryFullTime = 100
	glossaryPartTime = 101

	// Every noBirthDateEvery-th student has no birth date on file.
	noBirthDateEvery = 50
)

var (
	seedEthnicities = []string{"Asian", "Black or African American", "White", "Two or More Races"}
	seedMajors      = []string{"Nursing", "Business Administration", "Computer Science", "Liberal Arts", "Biology"}
	seedCatalog     = []struct {
		dept, course string
		credits      float64
	}{
		{"MATH", "101", 3}, {"ENG", "101", 3}, {"BIO", "110", 4},
		{"HIST", "201", 3}, {"CSC", "120", 3}, {"PSY", "101", 3}, {"MATH", "090", 3},
	}
	// seedUnscheduled is offered every term without a section code, like an
	// independent study nobody has scheduled yet.
	seedUnscheduled = struct {
		dept, course string
		credits      float64
	}{"IND", "299", 1}
	seedGrades = []string{"A", "B", "C", "D", "F"}
	gradePoint = map[string]float64{"A": 4, "B": 3, "C": 2, "D": 1, "F": 0}
)

type seedTerm struct {
	id    int
	code  string
	text  string
	start time.Time
}

const summerLetter = 'M'

// seedSeasons are listed in calendar order within a year. Their letters sort
// the same way, so term codes compare chronologically.
var seedSeasons = []struct {
	letter, name string
	month        time.Month
	day          int
}{
	{"C", "Spring", time.January, 15},
	{string(summerLetter), "Summer", time.June, 1},
	{"Q", "Fall", time.August, 25},
}

// SeedService fills the SIS mirror with a reproducible synthetic cohort.
type SeedService struct {
	mirror MirrorWriter
	log    zerolog.Logger
}

// NewSeedService creates a new SeedService.
func NewSeedService(mirror MirrorWriter, log zerolog.Logger) *SeedService {
	return &SeedService{
		mirror: mirror,
		log:    log.With().Str("component", "seed_service").Logger(),
	}
}

// Seed replaces the mirror contents with a synthetic cohort.
func (s *SeedService) Seed(ctx context.Context, opts SeedOptions) (*SeedSummary, error) {
	if opts.Students < 1 || opts.LastYear < opts.FirstYear || opts.FirstYear < 2000 {
		return nil, fmt.Errorf("invalid seed options: %+v", opts)
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	sum := &SeedSummary{}

	if err := s.mirror.Truncate(ctx); err != nil {
		return nil, fmt.Errorf("truncate mirror: %w", err)
	}

	terms, err := s.seedCalendar(ctx, opts)
	if err != nil {
		return nil, err
	}
	sum.Terms = len(terms)

	if err := s.seedLookups(ctx); err != nil {
		return nil, err
	}

	// offers[term index][catalog index] is the section id.
	offers := make([][]int, len(terms))
	nextOffer := 1
	for ti, t := range terms {
		offers[ti] = make([]int, len(seedCatalog))
		for ci, c := range seedCatalog {
			section := "A1"
			switch {
			case c.course < "100":
				section = "01A"
			case ci%3 == 0:
				section = "1NT"
			}
			end := t.start.AddDate(0, 0, 7*15)
			if err := s.mirror.CreateOffer(ctx, nextOffer, t.id, c.dept, c.course, &section, c.credits, t.start, end); err != nil {
				return nil, fmt.Errorf("create offer: %w", err)
			}
			offers[ti][ci] = nextOffer
			nextOffer++
			sum.Offers++
		}

		u := seedUnscheduled
		if err := s.mirror.CreateOffer(ctx, nextOffer, t.id, u.dept, u.course, nil, u.credits, t.start, t.start.AddDate(0, 0, 7*15)); err != nil {
			return nil, fmt.Errorf("create offer: %w", err)
		}
		nextOffer++
		sum.Offers++
	}

	for i := 0; i < opts.Students; i++ {
		if err := s.seedStudent(ctx, rng, i, terms, offers, opts, sum); err != nil {
			return nil, err
		}
		sum.Students++
		if (i+1)%50 == 0 {
			s.log.Info().Int("students", i+1).Msg("Seeding...")
		}
	}

	s.log.Info().
		Int("terms", sum.Terms).
		Int("students", sum.Students).
		Int("enrollments", sum.Enrollments).
		Int("withdrawals", sum.Withdrawals).
		Int("attendance_marks", sum.Marks).
		Msg("Seed completed")
	return sum, nil
}

func (s *SeedService) seedCalendar(ctx context.Context, opts SeedOptions) ([]seedTerm, error) {
	var terms []seedTerm
	for year := opts.FirstYear; year <= opts.LastYear; year++ {
		for _, season := range seedSeasons {
			t := seedTerm{
				id:    len(terms) + 1,
				code:  fmt.Sprintf("B%02d%s", year%100, season.letter),
				text:  fmt.Sprintf("%s %d", season.name, year),
				start: time.Date(year, season.month, season.day, 0, 0, 0, 0, time.UTC),
			}
			if err := s.mirror.CreateTerm(ctx, t.id, t.code, t.text, t.start); err != nil {
				return nil, fmt.Errorf("create term %s: %w", t.code, err)
			}
			terms = append(terms, t)
		}
	}
	return terms, nil
}

func (s *SeedService) seedLookups(ctx context.Context) error {
	for i, e := range seedEthnicities {
		if err := s.mirror.CreateGlossary(ctx, i+1, e); err != nil {
			return fmt.Errorf("create ethnicity: %w", err)
		}
	}
	if err := s.mirror.CreateGlossary(ctx, glossaryFullTime, "Full Time"); err != nil {
		return fmt.Errorf("create status: %w", err)
	}
	if err := s.mirror.CreateGlossary(ctx, glossaryPartTime, "Part Time"); err != nil {
		return fmt.Errorf("create status: %w", err)
	}
	for i, m := range seedMajors {
		if err := s.mirror.CreateMajor(ctx, i+1, m); err != nil {
			return fmt.Errorf("create major: %w", err)
		}
	}
	return nil
}

func (s *SeedService) seedStudent(ctx context.Context, rng *rand.Rand, i int, terms []seedTerm, offers [][]int, opts SeedOptions, sum *SeedSummary) error {
	uid := i + 1
	studentID := fmt.Sprintf("%07d", 1000000+i)
	birth := new(time.Time)
	*birth = time.Date(opts.FirstYear-18-rng.IntN(12), time.Month(1+rng.IntN(12)), 1+rng.IntN(28), 0, 0, 0, 0, time.UTC)
	if (i+1)%noBirthDateEvery == 0 {
		birth = nil
	}
	gender := "F"
	if rng.IntN(2) == 0 {
		gender = "M"
	}
	hispanic := "False"
	if rng.IntN(4) == 0 {
		hispanic = "True"
	}
	if err := s.mirror.CreateStudent(ctx, uid, studentID, birth, gender, hispanic, 1+rng.IntN(len(seedEthnicities))); err != nil {
		return fmt.Errorf("create student %s: %w", studentID, err)
	}

	major := 1 + rng.IntN(len(seedMajors))
	var points, credits float64
	for ti := rng.IntN(len(terms)); ti < len(terms); ti++ {
		t := terms[ti]
		if t.code[3] == summerLetter && rng.IntN(10) >= 3 {
			continue
		}

		if rng.IntN(100) < 15 {
			major = 1 + rng.IntN(len(seedMajors))
		}
		load := 2 + rng.IntN(3)
		ftpt := glossaryPartTime
		if load >= 4 {
			ftpt = glossaryFullTime
		}
		if err := s.mirror.SetStatus(ctx, uid, t.id, ftpt, major); err != nil {
			return fmt.Errorf("set status: %w", err)
		}

		var termPoints, termCredits float64
		for _, ci := range rng.Perm(len(seedCatalog))[:load] {
			grade := seedGrades[rng.IntN(len(seedGrades))]
			if rng.IntN(100) < 12 {
				grade = "W"
				sum.Withdrawals++
			}
			offer := offers[ti][ci]
			if err := s.mirror.Enroll(ctx, uid, offer, t.id, grade); err != nil {
				return fmt.Errorf("enroll: %w", err)
			}
			sum.Enrollments++

			if gp, ok := gradePoint[grade]; ok {
				termPoints += gp * seedCatalog[ci].credits
				termCredits += seedCatalog[ci].credits
			}

			for w := 0; w < opts.AttendanceWeeks; w++ {
				comment := "present"
				if rng.IntN(100) < 10 {
					comment = "absent"
				}
				if err := s.mirror.RecordAttendance(ctx, uid, offer, t.id, t.start.AddDate(0, 0, 7*w+1), comment); err != nil {
					return fmt.Errorf("record attendance: %w", err)
				}
				sum.Marks++
			}
		}

		var termGPA float64
		if termCredits > 0 {
			termGPA = termPoints / termCredits
		}
		points += termPoints
		credits += termCredits
		var cumGPA float64
		if credits > 0 {
			cumGPA = points / credits
		}
		if err := s.mirror.RecordGPA(ctx, uid, t.id, round2(termGPA), round2(cumGPA)); err != nil {
			return fmt.Errorf("record gpa: %w", err)
		}

		// Some students stop out for good after a term.
		if rng.IntN(100) < 8 {
			break
		}
	}
	return nil
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
