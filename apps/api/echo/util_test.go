package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/core/user"
	emailsvc "github.com/darasa-app/darasa/services/email"
	logsvc "github.com/darasa-app/darasa/services/logger"
	inmemdb "github.com/darasa-app/darasa/storage/database/inmem"
)

type testServer struct {
	app         Server
	userSvc     user.Service
	groupSvc    group.Service
	homeworkSvc homework.Service
}

func setupTest(t *testing.T) *testServer {
	t.Helper()
	core.Conf.TestMode = true

	db := inmemdb.NewDB()
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(inmemdb.NewUserRepository(db), mailSvc)
	grpSvc := group.NewService(inmemdb.NewGroupRepository(db))
	hwSvc := homework.NewService(inmemdb.NewHomeworkRepository(db))

	app := NewServer(&Options{
		DisableReqLogs: true,
		Logger:         logsvc.NewStdLogger(log.New(io.Discard, "", 0)),
		UserSvc:        usrSvc,
		GroupSvc:       grpSvc,
		HomeworkSvc:    hwSvc,
	})
	return &testServer{app: app, userSvc: usrSvc, groupSvc: grpSvc, homeworkSvc: hwSvc}
}

func createUser(t *testing.T, svc user.Service, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	if pwd == "" {
		pwd = "Test1234!"
	}
	usr, err := svc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	if !isActive {
		usr, err = svc.Update(context.Background(), usr.ID, user.UpdateUser{IsActive: &isActive})
		if err != nil {
			t.Fatalf("createUser(): %v", err)
		}
	}
	return usr
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	fwdFor   string // X-Forwarded-For
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = make([]interface{}, 0) // "[]", not "null"
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

// errJSON renders the uniform error envelope for expected failure bodies.
func errJSON(t *testing.T, code core.ErrorCode, msg string, details map[string]interface{}) []byte {
	t.Helper()
	return marchallObj(t, errorEnvelope{Error: newErrorBody(code, msg, details)})
}

func issueDetails(issues ...map[string]string) map[string]interface{} {
	all := make([]map[string]string, 0, len(issues))
	all = append(all, issues...)
	return map[string]interface{}{"issues": all}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTest(t *testing.T, app Server, tt httpTest) {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	if tt.fwdFor != "" {
		req.Header.Set("X-Forwarded-For", tt.fwdFor)
	}
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
}
