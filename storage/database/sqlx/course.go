package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/elimu/core/course"
)

type courseRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	Category     string      `db:"category"`
	InstructorID null.String `db:"instructor_id"`
	CreatedAt    time.Time   `db:"created_at"`
}

type lessonRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Title     string    `db:"title"`
	Order     int       `db:"order"`
	CreatedAt time.Time `db:"created_at"`
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	crs.CreatedAt = crs.CreatedAt.UTC()
	row := courseRow{
		ID:           crs.ID,
		Title:        crs.Title,
		Category:     crs.Category,
		InstructorID: null.NewString(crs.InstructorID, crs.InstructorID != ""),
		CreatedAt:    crs.CreatedAt,
	}
	q := `INSERT INTO course (id, title, category, instructor_id, created_at)
		VALUES (:id, :title, :category, :instructor_id, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	if _, err := repo.GetCourse(ctx, lsn.CourseID); err != nil {
		return course.Lesson{}, err
	}
	lsn.ID = uuid.New().String()
	lsn.CreatedAt = lsn.CreatedAt.UTC()
	q := `INSERT INTO lesson (id, course_id, title, "order", created_at)
		VALUES (:id, :course_id, :title, :order, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, lessonRow(lsn)); err != nil {
		return course.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return lsn, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrCourseNotFound
	}
	var row courseRow
	q := `SELECT id, title, category, instructor_id, created_at FROM course WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrCourseNotFound, "finding course")
	}
	return course.Course{
		ID:           row.ID,
		Title:        row.Title,
		Category:     row.Category,
		InstructorID: row.InstructorID.String,
		CreatedAt:    row.CreatedAt.UTC(),
	}, nil
}

func (repo *courseRepository) GetLesson(ctx context.Context, id string) (course.Lesson, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	var row lessonRow
	q := `SELECT id, course_id, title, "order", created_at FROM lesson WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound, "finding lesson")
	}
	row.CreatedAt = row.CreatedAt.UTC()
	return course.Lesson(row), nil
}

func (repo *courseRepository) CountLessons(ctx context.Context, courseID string) (int, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return 0, nil
	}
	var count sql.NullInt64
	if err := repo.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM lesson WHERE course_id = $1`, courseID); err != nil {
		return 0, errors.Wrap(err, "counting lessons")
	}
	return int(count.Int64), nil
}
