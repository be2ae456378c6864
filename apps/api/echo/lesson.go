package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/certificate"
	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/core/enrollment"
)

type lessonApi struct {
	courseSvc      *course.Service
	enrollmentSvc  *enrollment.Service
	certificateSvc *certificate.Service
	logger         core.Logger
}

type CompleteLessonRequest struct {
	Score *float64 `json:"score"`
}

type CompleteLessonResponse struct {
	enrollment.CompletionResult
	Certificate *certificate.Certificate `json:"certificate,omitempty"`
}

func registerLessonAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	courseSvc *course.Service,
	enrollmentSvc *enrollment.Service,
	certificateSvc *certificate.Service,
	logger core.Logger,
) {
	api := lessonApi{
		courseSvc:      courseSvc,
		enrollmentSvc:  enrollmentSvc,
		certificateSvc: certificateSvc,
		logger:         logger,
	}

	lg := g.Group("/lessons", jwt)
	lg.POST("/:id/complete", api.complete, studentMiddleware())
}

// Handlers

// complete records a lesson completion and issues the certificate when it completes the course.
// A failed issuance does not fail the request: the reconciler issues it later.
func (api *lessonApi) complete(ctx echo.Context) error {
	var data CompleteLessonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteLessonRequest")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	lsn, err := api.courseSvc.GetLesson(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding lesson")
	}
	res, err := api.enrollmentSvc.RecordLessonCompletion(reqCtx, claims.Subject, lsn.CourseID, lsn.ID, data.Score)
	if err != nil {
		return errors.Wrap(err, "recording lesson completion")
	}

	resp := CompleteLessonResponse{CompletionResult: res}
	if res.JustCompletedCourse {
		cert, _, err := api.certificateSvc.IssueIfEligible(reqCtx, claims.Subject, lsn.CourseID)
		if err != nil {
			api.logger.Error(
				fmt.Sprintf("issuing certificate: %v", err),
				err,
				map[string]interface{}{"student_id": claims.Subject, "course_id": lsn.CourseID},
			)
		} else {
			resp.Certificate = &cert
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}
