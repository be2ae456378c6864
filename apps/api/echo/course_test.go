package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/completion"
	"github.com/trezcool/elimu/core/enrollment"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func Test_courseApi_create(t *testing.T) {
	app := setup(t)
	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	tutorToken := getToken(t, tutor, app.conf)

	app.runTests(t, []httpTest{
		{
			name:     "student",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title": "Go"}`),
			token:    getToken(t, student, app.conf),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "blank title",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title": "  ", "lessons": ["intro", ""]}`),
			token:    tutorToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title": "this field cannot be blank", "lessons[1]": "this field cannot be blank"}`),
		},
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", tutorToken,
		[]byte(`{"title": " Go 101 ", "category": "Programming", "instructor_id": "someone", "lessons": ["Intro", "Types"]}`))
	rec = app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CourseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Go 101", resp.Title)
	assert.Equal(t, tutor.ID, resp.InstructorID, "instructors create their own courses")
	require.Len(t, resp.Lessons, 2)
	assert.Equal(t, "Types", resp.Lessons[1].Title)
	assert.Equal(t, 2, resp.Lessons[1].Order)
}

func Test_courseApi_enrollment(t *testing.T) {
	app := setup(t)
	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	crs, lessons := testutil.CreateCourse(t, app.courseRepo, "Go", tutor.ID, 4)
	token := getToken(t, student, app.conf)

	app.runTests(t, []httpTest{
		{
			name:     "progress before enrolling",
			method:   http.MethodGet,
			path:     "/v1/courses/" + crs.ID + "/progress",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"}),
		},
		{
			name:     "complete before enrolling",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + lessons[0].ID + "/complete",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"}),
		},
		{
			name:     "enroll in unknown course",
			method:   http.MethodPost,
			path:     "/v1/courses/" + uuid.New().String() + "/enroll",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{name: "enroll", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll", token: token, wantCode: http.StatusCreated},
		{
			name:     "enroll twice",
			method:   http.MethodPost,
			path:     "/v1/courses/" + crs.ID + "/enroll",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "already enrolled in this course"}),
		},
		{
			name:     "unknown lesson",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + uuid.New().String() + "/complete",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		},
		{
			name:     "complete lesson 1",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + lessons[0].ID + "/complete",
			body:     []byte(`{"score": 87.5}`),
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"progress": 25, "completed_lessons": 1, "total_lessons": 4, "course_completed": false}`),
		},
		{
			name:     "complete lesson 1 again",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + lessons[0].ID + "/complete",
			token:    token,
			wantCode: http.StatusOK,
			wantData: []byte(`{"progress": 25, "completed_lessons": 1, "total_lessons": 4, "course_completed": false}`),
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress", token)
	rec = app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var prog enrollment.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prog))
	assert.Equal(t, 25, prog.Progress)
	assert.Equal(t, completion.StatusInProgress, prog.Status)
	require.Len(t, prog.CompletedLessons, 1)
	require.NotNil(t, prog.CompletedLessons[0].Score)
	assert.Equal(t, 87.5, *prog.CompletedLessons[0].Score)
	assert.WithinDuration(t, time.Now(), prog.LastAccessed, time.Minute)

	// the last lesson completes the course and issues the certificate inline
	for _, lsn := range lessons[1:3] {
		req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/"+lsn.ID+"/complete", token)
		require.Equal(t, http.StatusOK, app.do(req, rec).Code)
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/lessons/"+lessons[3].ID+"/complete", token)
	rec = app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp CompleteLessonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 100, resp.Progress)
	assert.True(t, resp.JustCompletedCourse)
	require.NotNil(t, resp.Certificate)
	assert.Equal(t, student.ID, resp.Certificate.StudentID)

	app.runTests(t, []httpTest{
		{
			name:     "completed courses cannot be dropped",
			method:   http.MethodPost,
			path:     "/v1/courses/" + crs.ID + "/drop",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "course already completed"}),
		},
		{
			name:     "certificate already issued",
			method:   http.MethodPost,
			path:     "/v1/certificates/generate/" + crs.ID,
			token:    token,
			wantCode: http.StatusOK,
		},
	})
	assert.Empty(t, app.logger.Errors())
}

func Test_courseApi_drop(t *testing.T) {
	app := setup(t)
	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	crs, lessons := testutil.CreateCourse(t, app.courseRepo, "Go", tutor.ID, 2)
	token := getToken(t, student, app.conf)

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", token)
	require.Equal(t, http.StatusCreated, app.do(req, rec).Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/drop", token)
	rec = app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code)
	var enr enrollment.Enrollment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	assert.Equal(t, completion.StatusDropped, enr.Status)

	app.runTests(t, []httpTest{
		{
			name:     "complete a dropped course",
			method:   http.MethodPost,
			path:     "/v1/lessons/" + lessons[0].ID + "/complete",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "enrollment has been dropped"}),
		},
	})
}
