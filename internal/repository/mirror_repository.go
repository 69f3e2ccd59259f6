package repository

import (
	"context"
	"time"
)

// MirrorRepository writes into the development mirror of the SIS. It is used
// by the seed tool and end-to-end tests, never by extraction.
type MirrorRepository struct {
	db Querier
}

// NewMirrorRepository creates a new MirrorRepository.
func NewMirrorRepository(db Querier) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// Truncate empties every mirror table.
func (r *MirrorRepository) Truncate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `TRUNCATE student_cumulative_gpa, student_attendance, student_program,
		major_minor, student_status, sr_academic, sr_offer, student_demographics, student,
		glossary, term_calendar RESTART IDENTITY CASCADE`)
	return err
}

// CreateTerm inserts a calendar term.
func (r *MirrorRepository) CreateTerm(ctx context.Context, id int, code, text string, start time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO term_calendar (term_calendar_id, term, text_term, term_start_date) VALUES ($1, $2, $3, $4)`,
		id, code, text, start,
	)
	return err
}

// CreateGlossary inserts a lookup value (ethnicity or full/part-time status).
func (r *MirrorRepository) CreateGlossary(ctx context.Context, id int, text string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO glossary (unique_id, display_text) VALUES ($1, $2)`, id, text)
	return err
}

// CreateMajor inserts a major.
func (r *MirrorRepository) CreateMajor(ctx context.Context, id int, name string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO major_minor (major_minor_id, major_minor_name) VALUES ($1, $2)`, id, name)
	return err
}

// CreateStudent inserts a student and their demographics. A nil birth leaves
// birth_date NULL.
func (r *MirrorRepository) CreateStudent(ctx context.Context, uid int, studentID string, birth *time.Time, gender, hispanic string, ethnicityID int) error {
	if _, err := r.db.Exec(ctx,
		`INSERT INTO student (student_uid, student_id, birth_date) VALUES ($1, $2, $3)`,
		uid, studentID, birth,
	); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_demographics (student_uid, gender, is_hispanic, ethnic_origin_id) VALUES ($1, $2, $3, $4)`,
		uid, gender, hispanic, ethnicityID,
	)
	return err
}

// CreateOffer inserts a course section. A nil section leaves the code NULL.
func (r *MirrorRepository) CreateOffer(ctx context.Context, id, termID int, dept, course string, section *string, credits float64, start, end time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sr_offer (sr_offer_id, term_calendar_id, department, course_id, section, credits, start_date, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, termID, dept, course, section, credits, start, end,
	)
	return err
}

// Enroll records a student's registration in a section with its grade.
func (r *MirrorRepository) Enroll(ctx context.Context, uid, offerID, termID int, grade string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sr_academic (student_uid, sr_offer_id, term_calendar_id, grade) VALUES ($1, $2, $3, $4)`,
		uid, offerID, termID, grade,
	)
	return err
}

// SetStatus records a student's load and declared major for a term.
func (r *MirrorRepository) SetStatus(ctx context.Context, uid, termID, ftptID, majorID int) error {
	_, err := r.db.Exec(ctx,
		`WITH st AS (
			INSERT INTO student_status (student_uid, term_calendar_id, ftpt_status_id)
			VALUES ($1, $2, $3)
			RETURNING student_status_id
		)
		INSERT INTO student_program (student_status_id, major_program_id)
		SELECT student_status_id, $4 FROM st`,
		uid, termID, ftptID, majorID,
	)
	return err
}

// RecordAttendance inserts one attendance mark. A comment containing "abs"
// counts as an absence.
func (r *MirrorRepository) RecordAttendance(ctx context.Context, uid, offerID, termID int, day time.Time, comment string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_attendance (student_uid, sr_offer_id, term_calendar_id, sa_date, comment) VALUES ($1, $2, $3, $4, $5)`,
		uid, offerID, termID, day, comment,
	)
	return err
}

// RecordGPA inserts a student's term and cumulative GPA.
func (r *MirrorRepository) RecordGPA(ctx context.Context, uid, termID int, termGPA, cumGPA float64) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO student_cumulative_gpa (student_uid, term_calendar_id, term_gpa, cum_gpa) VALUES ($1, $2, $3, $4)`,
		uid, termID, termGPA, cumGPA,
	)
	return err
}
