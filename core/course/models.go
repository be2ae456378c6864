package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/elimu/core"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	InstructorID string    `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type Lesson struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewCourse is only used to seed courses: content management is handled elsewhere.
type NewCourse struct {
	Title        string   `json:"title" validate:"notblank"`
	Category     string   `json:"category"`
	InstructorID string   `json:"instructor_id" validate:"required,uuid"`
	Lessons      []string `json:"lessons" validate:"dive,notblank"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Category = core.CleanString(nc.Category)
	for i, l := range nc.Lessons {
		nc.Lessons[i] = core.CleanString(l)
	}
	return validate.Struct(nc)
}
