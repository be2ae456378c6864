package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/course"
)

func (cli *commandLine) seedCourse(title, category, instructorEmail string, nLessons int) error {
	ctx := context.Background()
	instructor, err := cli.usrRepo.GetUserByEmail(ctx, core.CleanString(instructorEmail, true /* lower */))
	if err != nil {
		return err
	}

	nc := course.NewCourse{
		Title:        title,
		Category:     category,
		InstructorID: instructor.ID,
		Lessons:      make([]string, 0, nLessons),
	}
	for i := 1; i <= nLessons; i++ {
		nc.Lessons = append(nc.Lessons, fmt.Sprintf("Lesson %d", i))
	}
	if err = nc.Validate(cli.validate); err != nil {
		return err
	}

	crs, lessons, err := cli.courseSvc.Seed(ctx, nc)
	if err != nil {
		return errors.Wrap(err, "seeding course")
	}
	fmt.Fprintf(cli.out, "course created: %s (%d lessons)\n", crs.ID, len(lessons))
	for _, lsn := range lessons {
		fmt.Fprintf(cli.out, "  %d. %s %s\n", lsn.Order, lsn.ID, lsn.Title)
	}
	return nil
}
