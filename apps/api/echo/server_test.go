package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/services/notify"
	"github.com/trezcool/elimu/tests"
)

func TestServer_home(t *testing.T) {
	app := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	rec = app.do(req, rec)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Elimu API!", rec.Body.String())
}

func TestServer_cors(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodOptions, "/v1/certificates/mine")
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec = app.do(req, rec)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req, rec = newRequest(http.MethodGet, "/v1/certificates/verify/VC-NOPE")
	req.Header.Set("Origin", "http://evil.test")
	rec = app.do(req, rec)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_errorHandler(t *testing.T) {
	app := setup(t)
	app.server.app.GET("/boom", func(ctx echo.Context) error {
		return errors.Wrap(core.NewShutdownError("integrity issue"), "doing things")
	})

	req, rec := newRequest(http.MethodGet, "/boom")
	rec = app.do(req, rec)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "Internal Server Error"}`, rec.Body.String())
	assert.Len(t, app.logger.Errors(), 1)

	select {
	case <-app.server.ShutdownSignal():
	case <-time.After(time.Second):
		t.Fatal("shutdown not signaled")
	}
}

func TestServer_websocket(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	crs, lessons := testutil.CreateCourse(t, app.courseRepo, "Go", tutor.ID, 2)
	_, err := app.enrSvc.Enroll(ctx, student.ID, crs.ID)
	require.NoError(t, err)

	srv := httptest.NewServer(app.server)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/courses/" + crs.ID

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+getToken(t, tutor, app.conf), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.Subscribers(crs.ID) == 1 }, time.Second, 10*time.Millisecond)

	_, err = app.enrSvc.RecordLessonCompletion(ctx, student.ID, crs.ID, lessons[0].ID, nil)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var msg notify.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, notify.EventProgressUpdate, msg.Event)
	var event enrollment.ProgressEvent
	require.NoError(t, json.Unmarshal(msg.Data, &event))
	assert.Equal(t, enrollment.ProgressEvent{
		StudentID:        student.ID,
		CourseID:         crs.ID,
		Progress:         50,
		CompletedLessons: 1,
		TotalLessons:     2,
	}, event)
}

func TestServer_Shutdown_closesStreams(t *testing.T) {
	app := setup(t)
	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	crs, _ := testutil.CreateCourse(t, app.courseRepo, "Go", tutor.ID, 1)

	srv := httptest.NewServer(app.server)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws/courses/" + crs.ID

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+getToken(t, tutor, app.conf), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.hub.Subscribers(crs.ID) == 1 }, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, app.server.Shutdown(ctx))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Equal(t, 0, app.hub.Subscribers(crs.ID))
}
