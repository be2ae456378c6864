package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
)

type instructorApi struct {
	courseSvc     *course.Service
	enrollmentSvc *enrollment.Service
}

func registerInstructorAPI(g *echo.Group, jwt echo.MiddlewareFunc, courseSvc *course.Service, enrollmentSvc *enrollment.Service) {
	api := instructorApi{courseSvc: courseSvc, enrollmentSvc: enrollmentSvc}

	ig := g.Group("/instructor", jwt, instructorMiddleware())
	ig.GET("/courses/:id/progress", api.courseProgress)
	ig.GET("/enrollments", api.enrollments)
}

// courseOwnerOrAdmin checks that the context user teaches courseID.
func (api *instructorApi) courseOwnerOrAdmin(ctx echo.Context, courseID string) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	crs, err := api.courseSvc.Get(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	if !claims.IsAdmin && crs.InstructorID != claims.Subject {
		return errHttpForbidden
	}
	return nil
}

// Handlers

func (api *instructorApi) courseProgress(ctx echo.Context) error {
	courseID := ctx.Param("id")
	if err := api.courseOwnerOrAdmin(ctx, courseID); err != nil {
		return err
	}
	sum, err := api.enrollmentSvc.CourseSummary(ctx.Request().Context(), courseID)
	if err != nil {
		return errors.Wrap(err, "summarizing course")
	}
	return ctx.JSON(http.StatusOK, sum)
}

// enrollments lists the enrollments of a course: ?course_id=&status=&student_id=
func (api *instructorApi) enrollments(ctx echo.Context) error {
	var filter enrollment.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to enrollment.Filter")
	}
	if filter.CourseID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "course_id is required")
	}
	if err := api.courseOwnerOrAdmin(ctx, filter.CourseID); err != nil {
		return err
	}
	enrollments, err := api.enrollmentSvc.QueryEnrollments(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrollments)
}
