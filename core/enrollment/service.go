package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/completion"
	"github.com/trezcool/elimu/core/course"
)

var (
	// errors
	ErrNotEnrolled       = core.NewClientError("not enrolled in this course")
	ErrAlreadyEnrolled   = core.NewClientError("already enrolled in this course")
	ErrEnrollmentDropped = core.NewClientError("enrollment has been dropped")
	ErrCourseCompleted   = core.NewClientError("course already completed")
	errUnknownStatus     = core.NewClientError("unknown enrollment status")
)

type (
	Repository interface {
		// CreateEnrollment fails with ErrAlreadyEnrolled if the (student, course) pair is taken.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
		// UpdateEnrollment loads the enrollment of (studentID, courseID), applies fn and stores the result
		// as one atomic step: concurrent updates of the same enrollment are serialized.
		// Completed lessons are append-only. An error from fn aborts the update and is returned as-is.
		UpdateEnrollment(ctx context.Context, studentID, courseID string, fn func(*Enrollment) error) (Enrollment, error)
		QueryEnrollments(ctx context.Context, filter Filter) ([]Enrollment, error)
	}

	// Service tracks enrollments and the lessons completed within them.
	Service struct {
		repo     Repository
		courses  course.Repository
		notifier core.Notifier
		logger   core.Logger
		now      func() time.Time
	}
)

func NewService(repo Repository, courses course.Repository, notifier core.Notifier, logger core.Logger) *Service {
	return &Service{
		repo:     repo,
		courses:  courses,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func checkArgs(checkers ...vala.Checker) error {
	if err := vala.BeginValidation().Validate(checkers...).Check(); err != nil {
		return core.NewValidationError(err)
	}
	return nil
}

func (svc *Service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(courseID, "courseID"),
	); err != nil {
		return Enrollment{}, err
	}

	if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
		return Enrollment{}, err
	}

	now := svc.now()
	return svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:        studentID,
		CourseID:         courseID,
		CompletedLessons: []CompletedLesson{},
		Progress:         0,
		Status:           completion.StatusEnrolled,
		EnrolledAt:       now,
		LastAccessed:     now,
	})
}

// RecordLessonCompletion adds lessonID to the completed lessons of the student's enrollment and recomputes
// its progress against the current lesson count of the course.
// Completing an already completed lesson only refreshes LastAccessed.
func (svc *Service) RecordLessonCompletion(
	ctx context.Context,
	studentID, courseID, lessonID string,
	score *float64,
) (CompletionResult, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(courseID, "courseID"),
		vala.StringNotEmpty(lessonID, "lessonID"),
	); err != nil {
		return CompletionResult{}, err
	}

	lsn, err := svc.courses.GetLesson(ctx, lessonID)
	if err != nil {
		return CompletionResult{}, err
	}
	if lsn.CourseID != courseID {
		return CompletionResult{}, course.ErrLessonNotFound
	}
	total, err := svc.courses.CountLessons(ctx, courseID)
	if err != nil {
		return CompletionResult{}, errors.Wrap(err, "counting lessons")
	}

	var res CompletionResult
	var added bool
	enr, err := svc.repo.UpdateEnrollment(ctx, studentID, courseID, func(enr *Enrollment) error {
		if enr.Status == completion.StatusDropped {
			return ErrEnrollmentDropped
		}

		now := svc.now()
		enr.LastAccessed = now
		if enr.HasCompleted(lessonID) {
			return nil
		}

		wasComplete := enr.Status == completion.StatusCompleted
		enr.CompletedLessons = append(enr.CompletedLessons, CompletedLesson{
			LessonID:    lessonID,
			CompletedAt: now,
			Score:       score,
		})
		enr.Progress = completion.Progress(len(enr.CompletedLessons), total)
		// completed is terminal, lessons added afterwards only move the progress
		if !wasComplete {
			enr.Status = completion.StatusFor(enr.Progress)
		}
		if completion.IsComplete(enr.Progress) && !wasComplete {
			res.JustCompletedCourse = true
			if enr.CompletedAt == nil {
				enr.CompletedAt = &now
			}
		}
		added = true
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}

	res.Progress = enr.Progress
	res.CompletedCount = len(enr.CompletedLessons)
	res.TotalCount = total

	if added {
		svc.publish(courseID, ProgressEvent{
			StudentID:        studentID,
			CourseID:         courseID,
			Progress:         res.Progress,
			CompletedLessons: res.CompletedCount,
			TotalLessons:     total,
		})
	}
	return res, nil
}

// publish never fails the caller: notifications are best-effort.
func (svc *Service) publish(topic string, payload interface{}) {
	if svc.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(fmt.Sprintf("publishing progress on %q: %v", topic, r))
		}
	}()
	svc.notifier.Publish(topic, payload)
}

func (svc *Service) GetProgress(ctx context.Context, studentID, courseID string) (Progress, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(courseID, "courseID"),
	); err != nil {
		return Progress{}, err
	}

	enr, err := svc.repo.GetEnrollment(ctx, studentID, courseID)
	if err != nil {
		return Progress{}, err
	}
	total, err := svc.courses.CountLessons(ctx, courseID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "counting lessons")
	}

	return Progress{
		Progress:         enr.Progress,
		CompletedLessons: enr.CompletedLessons,
		TotalLessons:     total,
		Status:           enr.Status,
		LastAccessed:     enr.LastAccessed,
	}, nil
}

// Drop moves an enrollment to the terminal dropped status. Completed enrollments cannot be dropped.
func (svc *Service) Drop(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	if err := checkArgs(
		vala.StringNotEmpty(studentID, "studentID"),
		vala.StringNotEmpty(courseID, "courseID"),
	); err != nil {
		return Enrollment{}, err
	}

	return svc.repo.UpdateEnrollment(ctx, studentID, courseID, func(enr *Enrollment) error {
		if enr.Status == completion.StatusCompleted {
			return ErrCourseCompleted
		}
		enr.Status = completion.StatusDropped
		enr.LastAccessed = svc.now()
		return nil
	})
}

func (svc *Service) QueryEnrollments(ctx context.Context, filter Filter) ([]Enrollment, error) {
	filter.Status = core.CleanString(filter.Status, true /* lower */)
	switch filter.Status {
	case "", completion.StatusEnrolled, completion.StatusInProgress, completion.StatusCompleted, completion.StatusDropped:
	default:
		return nil, errUnknownStatus
	}
	return svc.repo.QueryEnrollments(ctx, filter)
}

// CourseSummary aggregates the enrollments of a course. AverageProgress is rounded half-up.
func (svc *Service) CourseSummary(ctx context.Context, courseID string) (CourseSummary, error) {
	if _, err := svc.courses.GetCourse(ctx, courseID); err != nil {
		return CourseSummary{}, err
	}
	total, err := svc.courses.CountLessons(ctx, courseID)
	if err != nil {
		return CourseSummary{}, errors.Wrap(err, "counting lessons")
	}
	enrollments, err := svc.repo.QueryEnrollments(ctx, Filter{CourseID: courseID})
	if err != nil {
		return CourseSummary{}, errors.Wrap(err, "querying enrollments")
	}

	sum := CourseSummary{
		CourseID:     courseID,
		TotalLessons: total,
		Students:     len(enrollments),
		Enrollments:  make([]StudentProgress, 0, len(enrollments)),
	}
	var progressSum int
	for _, enr := range enrollments {
		switch enr.Status {
		case completion.StatusCompleted:
			sum.Completed++
		case completion.StatusInProgress:
			sum.InProgress++
		case completion.StatusDropped:
			sum.Dropped++
		}
		progressSum += enr.Progress
		sum.Enrollments = append(sum.Enrollments, StudentProgress{
			StudentID:        enr.StudentID,
			Progress:         enr.Progress,
			Status:           enr.Status,
			CompletedLessons: len(enr.CompletedLessons),
			EnrolledAt:       enr.EnrolledAt,
			LastAccessed:     enr.LastAccessed,
			CompletedAt:      enr.CompletedAt,
		})
	}
	if n := len(enrollments); n > 0 {
		sum.AverageProgress = (2*progressSum + n) / (2 * n)
	}
	return sum, nil
}
