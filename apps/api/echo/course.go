package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
)

type courseApi struct {
	svc           *course.Service
	enrollmentSvc *enrollment.Service
	validate      *validator.Validate
}

type CourseResponse struct {
	course.Course
	Lessons []course.Lesson `json:"lessons"`
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *course.Service,
	enrollmentSvc *enrollment.Service,
	validate *validator.Validate,
) {
	api := courseApi{svc: svc, enrollmentSvc: enrollmentSvc, validate: validate}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, instructorMiddleware())
	cg.GET("/:id", api.retrieve)

	student := studentMiddleware()
	cg.POST("/:id/enroll", api.enroll, student)
	cg.GET("/:id/progress", api.progress, student)
	cg.POST("/:id/drop", api.drop, student)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}

	// instructors can only create their own courses
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if !claims.IsAdmin || data.InstructorID == "" {
		data.InstructorID = claims.Subject
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	crs, lessons, err := api.svc.Seed(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Course: crs, Lessons: lessons})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	enr, err := api.enrollmentSvc.Enroll(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) progress(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	prog, err := api.enrollmentSvc.GetProgress(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, prog)
}

func (api *courseApi) drop(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	enr, err := api.enrollmentSvc.Drop(ctx.Request().Context(), claims.Subject, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "dropping course")
	}
	return ctx.JSON(http.StatusOK, enr)
}
