package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/user"
)

func Test_userApi_userLogin(t *testing.T) {
	ts := setupTest(t)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "LordOfTheRings", []string{user.RoleStudent}, true)
	naughty := createUser(t, ts.userSvc, "N Dog", "ndoggy", "ndog@test.cd", "LordOfTheRings", []string{user.RoleStudent}, false)

	tests := []httpTest{
		{
			name: "required fields", wantCode: http.StatusBadRequest,
			body: marchallObj(t, LoginRequest{}),
			wantData: errJSON(t, core.ErrCodeValidation, "invalid input", issueDetails(
				map[string]string{"field": "username", "message": "this field is required"},
				map[string]string{"field": "password", "message": "this field is required"},
			)),
		},
		{
			name: "unknown user", wantCode: http.StatusUnauthorized,
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "LordOfTheRings"}),
			wantData: errJSON(t, core.ErrCodeInvalidCredentials, "authentication failed", nil),
		},
		{
			name: "wrong password", wantCode: http.StatusUnauthorized,
			body:     marchallObj(t, LoginRequest{Username: student.Username, Password: "nope"}),
			wantData: errJSON(t, core.ErrCodeInvalidCredentials, "authentication failed", nil),
		},
		{
			name: "deactivated account", wantCode: http.StatusForbidden, fwdFor: "192.0.2.11",
			body:     marchallObj(t, LoginRequest{Username: naughty.Username, Password: "LordOfTheRings"}),
			wantData: errJSON(t, core.ErrCodeForbidden, "account deactivated", nil),
		},
		{
			name: "login by username", wantCode: http.StatusOK, fwdFor: "192.0.2.11",
			body: marchallObj(t, LoginRequest{Username: student.Username, Password: "LordOfTheRings"}),
		},
		{
			name: "login by email", wantCode: http.StatusOK, fwdFor: "192.0.2.11",
			body: marchallObj(t, LoginRequest{Username: student.Email, Password: "LordOfTheRings"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"
		if tt.fwdFor == "" {
			tt.fwdFor = "192.0.2.10"
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			req.Header.Set("X-Forwarded-For", tt.fwdFor)
			ts.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_userRefreshToken(t *testing.T) {
	ts := setupTest(t)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	naughty := createUser(t, ts.userSvc, "N Dog", "ndoggy", "ndog@test.cd", "", []string{user.RoleStudent}, false)

	now := time.Now()
	unrefreshableClaims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   student.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		OrigIssuedAt: now.Add(-2 * core.Conf.Server.JWTRefreshExpirationDelta).Unix(), // older than threshold
		Username:     student.Username,
		Roles:        student.Roles,
	}
	unrefreshableToken, err := GenerateToken(unrefreshableClaims)
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized,
			wantData: errJSON(t, core.ErrCodeUnauthorized, "missing or malformed jwt", nil),
		},
		{
			name: "inactive user not allowed", token: getToken(t, naughty), wantCode: http.StatusForbidden,
			wantData: errJSON(t, core.ErrCodeForbidden, "account deactivated", nil),
		},
		{
			name: "refresh period expired", token: unrefreshableToken, wantCode: http.StatusForbidden,
			wantData: errJSON(t, core.ErrCodeForbidden, "refresh has expired", nil),
		},
		{name: "token refreshed", token: getToken(t, student), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/token-refresh"
		tt.fwdFor = "192.0.2.20"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			req.Header.Set("X-Forwarded-For", tt.fwdFor)
			ts.app.ServeHTTP(rec, req)

			// cannot guess the new token, just check that it is not empty
			if tt.wantCode == http.StatusOK {
				require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
				var respData LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &respData))
				assert.NotEmpty(t, respData.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_mustChangePasswordGate(t *testing.T) {
	ts := setupTest(t)

	flagged, err := ts.userSvc.Create(context.Background(), user.NewUser{
		Name:               "Fresh",
		Username:           "freshman",
		Email:              "fresh@test.cd",
		Password:           "Temp1234!",
		MustChangePassword: true,
		Roles:              []string{user.RoleStudent},
	})
	require.NoError(t, err)
	token := getToken(t, flagged)

	// everything but the password change is blocked
	tt := httpTest{
		method: http.MethodGet, path: "/v1/users/" + flagged.ID, token: token, fwdFor: "192.0.2.30",
		wantCode: http.StatusForbidden,
		wantData: errJSON(t, core.ErrCodeMustChangePassword, "password change required before any other action", nil),
	}
	runHTTPTest(t, ts.app, tt)

	// the password change endpoint itself is reachable
	body := marchallObj(t, user.ChangeUserPassword{OldPassword: "Temp1234!", Password: "LordOfTheRings", PasswordConfirm: "LordOfTheRings"})
	req, rec := newAuthRequest(http.MethodPut, "/v1/users/password", token, body)
	req.Header.Set("X-Forwarded-For", "192.0.2.30")
	ts.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// flag cleared, access restored
	refreshed, err := ts.userSvc.GetByID(context.Background(), flagged.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.MustChangePassword)

	tt = httpTest{
		method: http.MethodGet, path: "/v1/users/" + flagged.ID, token: getToken(t, refreshed), fwdFor: "192.0.2.30",
		wantCode: http.StatusOK,
	}
	runHTTPTest(t, ts.app, tt)
}

func Test_userApi_userCreate(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	newUsr := func(uname, email string, roles ...string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            "New User",
			Username:        uname,
			Email:           email,
			Password:        "LordOfTheRings",
			PasswordConfirm: "LordOfTheRings",
			Roles:           roles,
		})
	}

	tests := []httpTest{
		{
			name: "auth required", wantCode: http.StatusUnauthorized,
			wantData: errJSON(t, core.ErrCodeUnauthorized, "missing or malformed jwt", nil),
		},
		{
			name: "admin required", token: getToken(t, student), wantCode: http.StatusForbidden,
			wantData: errJSON(t, core.ErrCodeForbidden, "permission denied", nil),
		},
		{
			name: "duplicate username", token: adminToken, body: newUsr("heroic", "other@test.cd"),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeValidation, "a user with this username already exists", issueDetails(
				map[string]string{"field": "username", "message": "a user with this username already exists"},
			)),
		},
		{
			name: "cannot grant roles above own", token: adminToken, body: newUsr("owner1", "owner@test.cd", user.RoleAdminOwner),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeValidation, "invalid input", issueDetails(
				map[string]string{"field": "roles", "message": noPermsToSetRolesErr},
			)),
		},
		{
			name: "created", token: adminToken, body: newUsr("mentor1", "mentor@test.cd", user.RoleMentor),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/register"
		tt.fwdFor = "192.0.2.40"

		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, ts.app, tt)
		})
	}
}

func Test_userApi_userRetrieveUpdateDestroy(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := createUser(t, ts.userSvc, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	notFound := errJSON(t, core.ErrCodeNotFound, "not found", nil)
	forbidden := errJSON(t, core.ErrCodeForbidden, "permission denied", nil)

	tests := []httpTest{
		{
			name: "retrieve self", method: http.MethodGet, path: "/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusOK,
		},
		{
			name: "cannot retrieve others", method: http.MethodGet, path: "/v1/users/" + other.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "admin retrieves anyone", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusOK,
		},
		{
			name: "update own name", method: http.MethodPut, path: "/v1/users/" + student.ID, token: studentToken,
			body: marchallObj(t, user.UpdateUser{Name: "Hero Reborn"}), wantCode: http.StatusOK,
		},
		{
			name: "cannot update own roles", method: http.MethodPut, path: "/v1/users/" + student.ID, token: studentToken,
			body:     marchallObj(t, user.UpdateUser{Roles: []string{user.RoleAdmin}}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "delete needs admin", method: http.MethodDelete, path: "/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "admin cannot delete self", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "admin deletes others", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "deleted user is gone", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
	}
	for _, tt := range tests {
		tt.fwdFor = "192.0.2.50"
		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, ts.app, tt)
		})
	}
}

func Test_userApi_userQueryRoles(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)

	tt := httpTest{
		method: http.MethodGet, path: "/v1/users/roles", token: getToken(t, admin), fwdFor: "192.0.2.60",
		wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles),
	}
	runHTTPTest(t, ts.app, tt)
}
