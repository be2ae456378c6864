package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core/course"
	"github.com/trezcool/elimu/services/notify"
)

type websocketApi struct {
	hub       *notify.Hub
	courseSvc *course.Service
	secretKey string
}

func registerWebsocketAPI(g *echo.Group, hub *notify.Hub, courseSvc *course.Service, secretKey string) {
	if hub == nil {
		return
	}
	api := websocketApi{hub: hub, courseSvc: courseSvc, secretKey: secretKey}

	// browsers cannot set headers on websocket handshakes: the token may be sent as ?token=
	g.GET("/ws/courses/:id", api.courseProgress)
}

func (api *websocketApi) token(ctx echo.Context) string {
	if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ctx.QueryParam("token")
}

// Handlers

// courseProgress streams the progress events of a course.
func (api *websocketApi) courseProgress(ctx echo.Context) error {
	raw := api.token(ctx)
	if raw == "" {
		return errUnauthorized
	}
	if _, err := parseToken(raw, api.secretKey); err != nil {
		return err
	}

	crs, err := api.courseSvc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course")
	}

	// the handshake response is already written when the upgrade fails
	if err = api.hub.ServeWS(ctx.Response(), ctx.Request(), crs.ID); err != nil {
		ctx.Logger().Warn(err)
	}
	return nil
}
