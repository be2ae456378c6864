package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/elimu/core/enrollment"
)

type enrollmentRepository struct {
	db *enrollmentTable
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enrollment.Repository {
	return &enrollmentRepository{db: db.enrollment}
}

// copyEnrollment detaches the returned value from the stored one.
func copyEnrollment(enr enrollment.Enrollment) enrollment.Enrollment {
	enr.CompletedLessons = append(make([]enrollment.CompletedLesson, 0, len(enr.CompletedLessons)), enr.CompletedLessons...)
	if enr.CompletedAt != nil {
		t := *enr.CompletedAt
		enr.CompletedAt = &t
	}
	return enr
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := pairKey{studentID: enr.StudentID, courseID: enr.CourseID}
	if _, ok := repo.db.table[key]; ok {
		return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
	}
	enr.ID = uuid.New().String()
	enr = copyEnrollment(enr)
	repo.db.table[key] = &enr
	return copyEnrollment(enr), nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if enr, ok := repo.db.table[pairKey{studentID: studentID, courseID: courseID}]; ok {
		return copyEnrollment(*enr), nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
}

func (repo *enrollmentRepository) UpdateEnrollment(
	ctx context.Context,
	studentID, courseID string,
	fn func(*enrollment.Enrollment) error,
) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	key := pairKey{studentID: studentID, courseID: courseID}
	stored, ok := repo.db.table[key]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotEnrolled
	}

	enr := copyEnrollment(*stored)
	if err := fn(&enr); err != nil {
		return enrollment.Enrollment{}, err
	}
	// identity is immutable
	enr.ID, enr.StudentID, enr.CourseID = stored.ID, stored.StudentID, stored.CourseID
	enr = copyEnrollment(enr)
	repo.db.table[key] = &enr
	return copyEnrollment(enr), nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.Filter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	enrollments := make([]enrollment.Enrollment, 0)
	for _, enr := range repo.db.table {
		if filter.CourseID != "" && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && enr.StudentID != filter.StudentID {
			continue
		}
		if filter.Status != "" && enr.Status != filter.Status {
			continue
		}
		enrollments = append(enrollments, copyEnrollment(*enr))
	}
	sort.Slice(enrollments, func(i, j int) bool {
		return enrollments[i].EnrolledAt.Before(enrollments[j].EnrolledAt)
	})
	return enrollments, nil
}
