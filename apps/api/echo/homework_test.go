package echoapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/core/user"
)

func Test_homeworkApi_crud(t *testing.T) {
	ts := setupTest(t)
	admin := createUser(t, ts.userSvc, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	lecturer := createUser(t, ts.userSvc, "Prof", "professor", "prof@test.cd", "", []string{user.RoleLecturer}, true)
	student := createUser(t, ts.userSvc, "Hero", "heroic", "hero@test.cd", "", []string{user.RoleStudent}, true)
	lecturerToken := getToken(t, lecturer)

	grp, err := ts.groupSvc.Create(context.Background(), group.NewGroup{Name: "L1 Info", AcademicYear: "2025/2026"})
	require.NoError(t, err)

	hw, err := ts.homeworkSvc.Create(context.Background(), grp.ID, homework.NewHomework{
		Title: "Chapter 3 exercises",
		DueAt: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	forbidden := errJSON(t, core.ErrCodeForbidden, "permission denied", nil)
	dueAt := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	tests := []httpTest{
		{
			name: "create needs staff", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/homework",
			token:    getToken(t, student),
			body:     marchallObj(t, homework.NewHomework{Title: "Nope", DueAt: dueAt}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "lecturer creates", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/homework",
			token:    lecturerToken,
			body:     marchallObj(t, homework.NewHomework{Title: "Term paper", DueAt: dueAt}),
			wantCode: http.StatusCreated,
		},
		{
			name: "admin creates", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/homework",
			token:    getToken(t, admin),
			body:     marchallObj(t, homework.NewHomework{Title: "Group project", DueAt: dueAt}),
			wantCode: http.StatusCreated,
		},
		{
			name: "due date must be in the future", method: http.MethodPost, path: "/v1/groups/" + grp.ID + "/homework",
			token:    lecturerToken,
			body:     marchallObj(t, homework.NewHomework{Title: "Late", DueAt: time.Now().Add(-time.Hour)}),
			wantCode: http.StatusBadRequest,
			wantData: errJSON(t, core.ErrCodeValidation, "invalid input", issueDetails(
				map[string]string{"field": "due_at", "message": "due date must be in the future"},
			)),
		},
		{
			name: "students can list", method: http.MethodGet, path: "/v1/groups/" + grp.ID + "/homework",
			token: getToken(t, student), wantCode: http.StatusOK,
		},
		{
			name: "retrieve", method: http.MethodGet, path: "/v1/homework/" + hw.ID,
			token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallObj(t, hw),
		},
		{
			name: "update needs staff", method: http.MethodPut, path: "/v1/homework/" + hw.ID,
			token:    getToken(t, student),
			body:     marchallObj(t, homework.UpdateHomework{Title: "Edited"}),
			wantCode: http.StatusForbidden, wantData: forbidden,
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/homework/" + hw.ID,
			token: lecturerToken, body: marchallObj(t, homework.UpdateHomework{Title: "Chapter 3 and 4 exercises"}),
			wantCode: http.StatusOK,
		},
		{
			name: "destroy", method: http.MethodDelete, path: "/v1/homework/" + hw.ID,
			token: lecturerToken, wantCode: http.StatusNoContent,
		},
		{
			name: "destroyed homework is gone", method: http.MethodGet, path: "/v1/homework/" + hw.ID,
			token: lecturerToken, wantCode: http.StatusNotFound,
			wantData: errJSON(t, core.ErrCodeNotFound, "not found", nil),
		},
	}
	for _, tt := range tests {
		tt.fwdFor = "192.0.2.80"
		t.Run(tt.name, func(t *testing.T) {
			runHTTPTest(t, ts.app, tt)
		})
	}
}
