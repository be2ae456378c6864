package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core/certificate"
	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func Test_certificateApi(t *testing.T) {
	app := setup(t)
	ctx := context.Background()

	tutor := testutil.CreateUser(t, app.usrRepo, "Tutor", "tutor@test.cd", []string{user.RoleInstructor})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	crs, lessons := testutil.CreateCourse(t, app.courseRepo, "Go", tutor.ID, 2)
	other, _ := testutil.CreateCourse(t, app.courseRepo, "Rust", tutor.ID, 1)
	studentToken := getToken(t, student, app.conf)

	_, err := app.enrSvc.Enroll(ctx, student.ID, crs.ID)
	require.NoError(t, err)
	_, err = app.enrSvc.RecordLessonCompletion(ctx, student.ID, crs.ID, lessons[0].ID, nil)
	require.NoError(t, err)

	genPath := "/v1/certificates/generate/" + crs.ID

	app.runTests(t, []httpTest{
		{
			name:     "no token",
			method:   http.MethodPost,
			path:     genPath,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "not a student",
			method:   http.MethodPost,
			path:     genPath,
			token:    getToken(t, tutor, app.conf),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "course not completed",
			method:   http.MethodPost,
			path:     genPath,
			token:    studentToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "course not completed yet"}),
		},
		{
			name:     "not enrolled",
			method:   http.MethodPost,
			path:     "/v1/certificates/generate/" + other.ID,
			token:    studentToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "not enrolled in this course"}),
		},
		{
			name:     "unknown course",
			method:   http.MethodPost,
			path:     "/v1/certificates/generate/" + uuid.New().String(),
			token:    studentToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name:     "verify unknown code",
			method:   http.MethodGet,
			path:     "/v1/certificates/verify/VC-UNKNOWN",
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "certificate not found"}),
		},
		{
			name:     "no certificates yet",
			method:   http.MethodGet,
			path:     "/v1/certificates/mine",
			token:    studentToken,
			wantCode: http.StatusOK,
			wantData: []byte(`[]`),
		},
	})

	_, err = app.enrSvc.RecordLessonCompletion(ctx, student.ID, crs.ID, lessons[1].ID, nil)
	require.NoError(t, err)

	// first generation creates, the next ones return the same certificate
	req, rec := newAuthRequest(http.MethodPost, genPath, studentToken)
	rec = app.do(req, rec)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created CertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, student.ID, created.StudentID)
	assert.Equal(t, tutor.ID, created.InstructorID)
	assert.Equal(t, "http://localhost:3000/verify-certificate/"+created.VerificationCode, created.VerificationURL)
	assert.Equal(t, created.VerificationURL, created.QRPayload)

	req, rec = newAuthRequest(http.MethodPost, genPath, studentToken)
	rec = app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var again CertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, created.CertificateID, again.CertificateID)
	assert.Equal(t, created.VerificationCode, again.VerificationCode)

	app.runTests(t, []httpTest{
		{
			name:     "verify",
			method:   http.MethodGet,
			path:     "/v1/certificates/verify/" + created.VerificationCode,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, certificate.PublicView{
				CertificateID:    created.CertificateID,
				StudentName:      "Student",
				CourseTitle:      "Go",
				Category:         "General",
				InstructorName:   "Tutor",
				CompletionDate:   created.CompletionDate,
				IssueDate:        created.IssueDate,
				VerificationCode: created.VerificationCode,
				Valid:            true,
			}),
		},
		{
			name:     "verify with certificate id",
			method:   http.MethodGet,
			path:     "/v1/certificates/verify/" + created.CertificateID,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "mine",
			method:   http.MethodGet,
			path:     "/v1/certificates/mine",
			token:    studentToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, []CertificateResponse{created}),
		},
	})
}
