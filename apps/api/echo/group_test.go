package echoapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/user"
)

func Test_groupApi_crud(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	grp, err := ts.groupSvc.Create(context.Background(), group.NewGroup{Name: "L2 Math", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	forbidden := errJSON(t, core.ErrCodeForbidden, "permission denied", nil)

	tests := []httpTest{
		{
			name: "create needs admin", method: http.MethodPost, path: "/v1/groups", token: getToken(t, student),
			body:     marchallObj(t, group.NewGroup{Name: "L1 Info", AcademicYear: "2025/2026"}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "create", method: http.MethodPost, path: "/v1/groups", token: adminToken,
			body:     marchallObj(t, group.NewGroup{Name: "L1 Info", AcademicYear: "2025/2026"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "academic year format", method: http.MethodPost, path: "/v1/groups", token: adminToken,
			body:     marchallObj(t, group.NewGroup{Name: "L1 Info", AcademicYear: "2026"}),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeValidation, "invalid input", issueDetails(
				map[string]string{"field": "academic_year", "message": "academic_year must be 9 characters in length"},
			)),
		},
		{
			name: "query", method: http.MethodGet, path: "/v1/groups", token: getToken(t, student),
			wantCode: http.StatusOK,
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/groups/" + grp.ID, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, grp),
		},
		{
			name: "retrieve unknown", method: http.MethodGet, path: "/v1/groups/nope", token: adminToken,
			wantCode: http.StatusNotFound, wantData: errJSON(t, core.ErrCodeNotFound, "not found", nil),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/groups/" + grp.ID, token: adminToken,
			body: marchallObj(t, group.UpdateGroup{Name: "L2 Mathematics"}), wantCode: http.StatusOK,
		},
		{
			name: "destroy", method: http.MethodDelete, path: "/v1/groups/" + grp.ID, token: adminToken,
			wantCode: http.StatusNoContent,
		},
		{
			name: "destroyed group is gone", method: http.MethodGet, path: "/v1/groups/" + grp.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: errJSON(t, core.ErrCodeNotFound, "not found", nil),
		},
	}
	for _, tt := range tests {
		tt.fwdFor = "192.0.2.70"
		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, ts.app, tt)
		})
	}
}

func Test_groupApi_members(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	adminToken := getToken(t, admin)

	grp, err := ts.groupSvc.Create(context.Background(), group.NewGroup{Name: "L1 Info", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	tests := []httpTest{
		{
			name: "add requires user ids", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/members",
			token: adminToken, body: marchallObj(t, group.AddMembersRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeValidation, "invalid input", issueDetails(
				map[string]string{"field": "user_ids", "message": "this field is required"},
			)),
		},
		{
			name: "add unknown user", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/members",
			token: adminToken, body: marchallObj(t, group.AddMembersRequest{UserIDs: []string{"nope"}}),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeBadRequest, "referenced record does not exist", nil),
		},
		{
			name: "add member", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/members",
			token: adminToken, body: marchallObj(t, group.AddMembersRequest{UserIDs: []string{student.ID}}),
			wantCode: http.StatusNoContent,
		},
		{
			name: "list members", method: http.MethodGet, path: "/v1/groups/" + grp.ID + "/members",
			token:    getToken(t, student),
			wantCode: http.StatusOK,
			wantData: marchallList(t, group.Member{UserID: student.ID, Name: student.Name, Username: student.Username, Email: student.Email}),
		},
		{
			name: "remove member", method: http.MethodDelete, path: "/v1/groups/" + grp.ID + "/members",
			token: adminToken, body: marchallObj(t, group.AddMembersRequest{UserIDs: []string{student.ID}}),
			wantCode: http.StatusNoContent,
		},
		{
			name: "list after removal", method: http.MethodGet, path: "/v1/groups/" + grp.ID + "/members",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
	}
	for _, tt := range tests {
		tt.fwdFor = "192.0.2.71"
		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, ts.app, tt)
		})
	}
}
