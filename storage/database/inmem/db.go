// Package inmemdb implements the repositories in memory, with the same unique constraints as the SQL schema.
package inmemdb

import (
	"sync"

	"github.com/trezcool/elimu/core/certificate"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
)

type (
	DB struct {
		user        *userTable
		course      *courseTable
		enrollment  *enrollmentTable
		certificate *certificateTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		courses map[string]*course.Course
		lessons map[string]*course.Lesson
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[pairKey]*enrollment.Enrollment
	}

	certificateTable struct {
		sync.RWMutex
		table map[pairKey]*certificate.Certificate
	}

	// pairKey is the natural key (student, course)
	pairKey struct {
		studentID string
		courseID  string
	}
)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		course:      &courseTable{courses: make(map[string]*course.Course), lessons: make(map[string]*course.Lesson)},
		enrollment:  &enrollmentTable{table: make(map[pairKey]*enrollment.Enrollment)},
		certificate: &certificateTable{table: make(map[pairKey]*certificate.Certificate)},
	}
}
