package enrollment

import (
	"time"
)

type CompletedLesson struct {
	LessonID    string    `json:"lesson_id"`
	CompletedAt time.Time `json:"completed_at"` // UTC
	Score       *float64  `json:"score,omitempty"`
}

// Enrollment is a student's progress record for one course. There is at most one per (student, course).
type Enrollment struct {
	ID               string            `json:"id"`
	StudentID        string            `json:"student_id"`
	CourseID         string            `json:"course_id"`
	CompletedLessons []CompletedLesson `json:"completed_lessons"`
	Progress         int               `json:"progress"`
	Status           string            `json:"status"`
	EnrolledAt       time.Time         `json:"enrolled_at"`   // UTC
	LastAccessed     time.Time         `json:"last_accessed"` // UTC
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

func (e *Enrollment) HasCompleted(lessonID string) bool {
	for _, cl := range e.CompletedLessons {
		if cl.LessonID == lessonID {
			return true
		}
	}
	return false
}

// CompletionResult is the outcome of a lesson completion.
type CompletionResult struct {
	Progress            int  `json:"progress"`
	CompletedCount      int  `json:"completed_lessons"`
	TotalCount          int  `json:"total_lessons"`
	JustCompletedCourse bool `json:"course_completed"`
}

// Progress is the read-only projection of an Enrollment.
type Progress struct {
	Progress         int               `json:"progress"`
	CompletedLessons []CompletedLesson `json:"completed_lessons"`
	TotalLessons     int               `json:"total_lessons"`
	Status           string            `json:"status"`
	LastAccessed     time.Time         `json:"last_accessed"`
}

// ProgressEvent is published on the course topic after each new lesson completion.
type ProgressEvent struct {
	StudentID        string `json:"student_id"`
	CourseID         string `json:"course_id"`
	Progress         int    `json:"progress"`
	CompletedLessons int    `json:"completed_lessons"`
	TotalLessons     int    `json:"total_lessons"`
}

// Filter is AND-ed; empty fields are ignored.
type Filter struct {
	CourseID  string `query:"course_id"`
	StudentID string `query:"student_id"`
	Status    string `query:"status"`
}

type StudentProgress struct {
	StudentID        string     `json:"student_id"`
	Progress         int        `json:"progress"`
	Status           string     `json:"status"`
	CompletedLessons int        `json:"completed_lessons"`
	EnrolledAt       time.Time  `json:"enrolled_at"`
	LastAccessed     time.Time  `json:"last_accessed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// CourseSummary is the instructor view of a course's enrollments.
type CourseSummary struct {
	CourseID        string            `json:"course_id"`
	TotalLessons    int               `json:"total_lessons"`
	Students        int               `json:"students"`
	Completed       int               `json:"completed"`
	InProgress      int               `json:"in_progress"`
	Dropped         int               `json:"dropped"`
	AverageProgress int               `json:"average_progress"`
	Enrollments     []StudentProgress `json:"enrollments"`
}
