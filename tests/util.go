package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email string,
	roles []string,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr, err := repo.CreateUser(ctx(), user.User{
		Name:      name,
		Email:     email,
		Roles:     roles,
		IsActive:  true,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse creates a course of instructorID with nLessons lessons.
func CreateCourse(t *testing.T, repo course.Repository, title, instructorID string, nLessons int) (course.Course, []course.Lesson) {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(ctx(), course.Course{
		Title:        title,
		Category:     "General",
		InstructorID: instructorID,
		CreatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	lessons := make([]course.Lesson, 0, nLessons)
	for i := 1; i <= nLessons; i++ {
		lsn, err := repo.CreateLesson(ctx(), course.Lesson{
			CourseID:  crs.ID,
			Title:     fmt.Sprintf("%s - Lesson %d", title, i),
			Order:     i,
			CreatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateCourse() failed: %v", err)
		}
		lessons = append(lessons, lsn)
	}
	return crs, lessons
}

type Event struct {
	Topic   string
	Payload interface{}
}

// Notifier records published events.
type Notifier struct {
	mu     sync.Mutex
	events []Event
}

var _ core.Notifier = (*Notifier)(nil)

func (n *Notifier) Publish(topic string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Event{Topic: topic, Payload: payload})
}

func (n *Notifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// Logger records messages logged at Error level and above.
type Logger struct {
	mu   sync.Mutex
	errs []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) Debug(msg string, args ...interface{}) {}
func (l *Logger) Info(msg string, args ...interface{})  {}
func (l *Logger) Warn(msg string, args ...interface{})  {}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func (l *Logger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errs...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.Error(msg, args...)
}

func ctx() context.Context { return context.Background() }
