package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
)

var (
	ErrCourseNotFound = core.NewNotFoundError("course not found")
	ErrLessonNotFound = core.NewNotFoundError("lesson not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		// CountLessons returns the current number of lessons of a course.
		CountLessons(ctx context.Context, courseID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Seed creates a course and its lessons in order.
func (svc *Service) Seed(ctx context.Context, nc NewCourse) (Course, []Lesson, error) {
	now := time.Now().UTC()
	crs, err := svc.repo.CreateCourse(ctx, Course{
		Title:        nc.Title,
		Category:     nc.Category,
		InstructorID: nc.InstructorID,
		CreatedAt:    now,
	})
	if err != nil {
		return Course{}, nil, errors.Wrap(err, "creating course")
	}

	lessons := make([]Lesson, 0, len(nc.Lessons))
	for i, title := range nc.Lessons {
		lsn, err := svc.repo.CreateLesson(ctx, Lesson{
			CourseID:  crs.ID,
			Title:     title,
			Order:     i + 1,
			CreatedAt: now,
		})
		if err != nil {
			return Course{}, nil, errors.Wrap(err, "creating lesson")
		}
		lessons = append(lessons, lsn)
	}
	return crs, lessons, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) CountLessons(ctx context.Context, courseID string) (int, error) {
	return svc.repo.CountLessons(ctx, courseID)
}
