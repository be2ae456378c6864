package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/enrollment"
)

const enrollmentColumns = `id, student_id, course_id, progress, status, enrolled_at, last_accessed, completed_at`

type enrollmentRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	CourseID     string    `db:"course_id"`
	Progress     int       `db:"progress"`
	Status       string    `db:"status"`
	EnrolledAt   time.Time `db:"enrolled_at"`
	LastAccessed time.Time `db:"last_accessed"`
	CompletedAt  null.Time `db:"completed_at"`
}

type completedLessonRow struct {
	EnrollmentID string       `db:"enrollment_id"`
	LessonID     string       `db:"lesson_id"`
	CompletedAt  time.Time    `db:"completed_at"`
	Score        null.Float64 `db:"score"`
}

func newEnrollmentRow(enr enrollment.Enrollment) enrollmentRow {
	row := enrollmentRow{
		ID:           enr.ID,
		StudentID:    enr.StudentID,
		CourseID:     enr.CourseID,
		Progress:     enr.Progress,
		Status:       enr.Status,
		EnrolledAt:   enr.EnrolledAt.UTC(),
		LastAccessed: enr.LastAccessed.UTC(),
	}
	if enr.CompletedAt != nil {
		row.CompletedAt = null.TimeFrom(enr.CompletedAt.UTC())
	}
	return row
}

func (r enrollmentRow) enrollment(lessons []completedLessonRow) enrollment.Enrollment {
	enr := enrollment.Enrollment{
		ID:               r.ID,
		StudentID:        r.StudentID,
		CourseID:         r.CourseID,
		CompletedLessons: make([]enrollment.CompletedLesson, 0, len(lessons)),
		Progress:         r.Progress,
		Status:           r.Status,
		EnrolledAt:       r.EnrolledAt.UTC(),
		LastAccessed:     r.LastAccessed.UTC(),
	}
	if r.CompletedAt.Valid {
		t := r.CompletedAt.Time.UTC()
		enr.CompletedAt = &t
	}
	for _, l := range lessons {
		enr.CompletedLessons = append(enr.CompletedLessons, enrollment.CompletedLesson{
			LessonID:    l.LessonID,
			CompletedAt: l.CompletedAt.UTC(),
			Score:       l.Score.Ptr(),
		})
	}
	return enr
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enrollment.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	enr.ID = uuid.New().String()
	q := `INSERT INTO enrollment (` + enrollmentColumns + `)
		VALUES (:id, :student_id, :course_id, :progress, :status, :enrolled_at, :last_accessed, :completed_at)`
	row := newEnrollmentRow(enr)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if constraint, ok := uniqueConstraint(err); ok && constraint == "enrollment_student_course_key" {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return row.enrollment(nil), nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	if !validIDs(studentID, courseID) {
		return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
	}
	var row enrollmentRow
	q := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE student_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, studentID, courseID); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotEnrolled, "finding enrollment")
	}
	lessons, err := queryCompletedLessons(ctx, repo.db, row.ID)
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	return row.enrollment(lessons[row.ID]), nil
}

// UpdateEnrollment locks the enrollment row (SELECT ... FOR UPDATE) for the duration of the transaction.
func (repo *enrollmentRepository) UpdateEnrollment(
	ctx context.Context,
	studentID, courseID string,
	fn func(*enrollment.Enrollment) error,
) (enrollment.Enrollment, error) {
	if !validIDs(studentID, courseID) {
		return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
	}

	var updated enrollment.Enrollment
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row enrollmentRow
		q := `SELECT ` + enrollmentColumns + ` FROM enrollment WHERE student_id = $1 AND course_id = $2 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, studentID, courseID); err != nil {
			return trapNoRowsErr(err, enrollment.ErrNotEnrolled, "locking enrollment")
		}
		lessons, err := queryCompletedLessons(ctx, tx, row.ID)
		if err != nil {
			return err
		}

		enr := row.enrollment(lessons[row.ID])
		stored := make(map[string]bool, len(enr.CompletedLessons))
		for _, cl := range enr.CompletedLessons {
			stored[cl.LessonID] = true
		}
		if err = fn(&enr); err != nil {
			return err
		}
		enr.ID, enr.StudentID, enr.CourseID = row.ID, row.StudentID, row.CourseID

		// completed lessons are append-only
		for _, cl := range enr.CompletedLessons {
			if stored[cl.LessonID] {
				continue
			}
			_, err = tx.NamedExecContext(ctx, `INSERT INTO completed_lesson (enrollment_id, lesson_id, completed_at, score)
				VALUES (:enrollment_id, :lesson_id, :completed_at, :score)
				ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`,
				completedLessonRow{
					EnrollmentID: enr.ID,
					LessonID:     cl.LessonID,
					CompletedAt:  cl.CompletedAt.UTC(),
					Score:        null.Float64FromPtr(cl.Score),
				})
			if err != nil {
				return errors.Wrap(err, "inserting completed lesson")
			}
		}

		_, err = tx.NamedExecContext(ctx, `UPDATE enrollment
			SET progress = :progress, status = :status, last_accessed = :last_accessed, completed_at = :completed_at
			WHERE id = :id`, newEnrollmentRow(enr))
		if err != nil {
			return errors.Wrap(err, "updating enrollment")
		}
		updated = enr
		return nil
	})
	if err != nil {
		return enrollment.Enrollment{}, err
	}
	return updated, nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	var conds []string
	var args []interface{}
	if filter.CourseID != "" {
		if _, err := uuid.Parse(filter.CourseID); err != nil {
			return []enrollment.Enrollment{}, nil
		}
		conds = append(conds, "course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		if _, err := uuid.Parse(filter.StudentID); err != nil {
			return []enrollment.Enrollment{}, nil
		}
		conds = append(conds, "student_id = ?")
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}

	q := `SELECT ` + enrollmentColumns + ` FROM enrollment`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY enrolled_at, id`

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	lessons, err := queryCompletedLessons(ctx, repo.db, ids...)
	if err != nil {
		return nil, err
	}

	enrollments := make([]enrollment.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrollments = append(enrollments, r.enrollment(lessons[r.ID]))
	}
	return enrollments, nil
}

// queryCompletedLessons returns the completed lessons of the enrollments, by enrollment id, in completion order.
func queryCompletedLessons(ctx context.Context, db sqlx.ExtContext, enrollmentIDs ...string) (map[string][]completedLessonRow, error) {
	byEnrollment := make(map[string][]completedLessonRow, len(enrollmentIDs))
	if len(enrollmentIDs) == 0 {
		return byEnrollment, nil
	}

	q, args, err := sqlx.In(`SELECT enrollment_id, lesson_id, completed_at, score FROM completed_lesson
		WHERE enrollment_id IN (?) ORDER BY completed_at, lesson_id`, enrollmentIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building completed lessons query")
	}
	var rows []completedLessonRow
	if err = sqlx.SelectContext(ctx, db, &rows, db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying completed lessons")
	}
	for _, r := range rows {
		byEnrollment[r.EnrollmentID] = append(byEnrollment[r.EnrollmentID], r)
	}
	return byEnrollment, nil
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
