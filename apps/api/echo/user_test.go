package echoapi

import (
	"net/http"
	"testing"

	"github.com/trezcool/elimu/core/user"
	"github.com/trezcool/elimu/tests"
)

func Test_userApi(t *testing.T) {
	app := setup(t)
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "admin@test.cd", []string{user.RoleAdmin})
	student := testutil.CreateUser(t, app.usrRepo, "Student", "student@test.cd", []string{user.RoleStudent})
	adminToken := getToken(t, admin, app.conf)

	app.runTests(t, []httpTest{
		{name: "me: no token", method: http.MethodGet, path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "me", method: http.MethodGet, path: "/v1/users/me", token: getToken(t, student, app.conf), wantCode: http.StatusOK, wantData: marchallObj(t, student)},
		{
			name:     "create: not admin",
			method:   http.MethodPost,
			path:     "/v1/users",
			body:     []byte(`{"name": "New", "email": "new@test.cd"}`),
			token:    getToken(t, student, app.conf),
			wantCode: http.StatusForbidden,
		},
		{
			name:     "create: invalid",
			method:   http.MethodPost,
			path:     "/v1/users",
			body:     []byte(`{"name": "", "email": "lol", "roles": ["king:"]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name": "this field cannot be blank", "email": "email must be a valid email address", "roles": "invalid roles"}`),
		},
		{
			name:     "create: email taken",
			method:   http.MethodPost,
			path:     "/v1/users",
			body:     []byte(`{"name": "Again", "email": " Student@test.cd "}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email": "a user with this email already exists"}`),
		},
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/users",
			body:     []byte(`{"name": "New", "email": "new@test.cd", "roles": ["student:"]}`),
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
	})
}
