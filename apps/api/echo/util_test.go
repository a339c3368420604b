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
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/core/user"
	"github.com/trezcool/shulesite/services/email"
	"github.com/trezcool/shulesite/services/logger"
	"github.com/trezcool/shulesite/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testFixture struct {
	app  Server
	conf *core.Config

	usrRepo     user.Repository
	usrSvc      *user.Service
	contentSvc  *content.Service
	postSvc     *post.Service
	staffSvc    *staff.Service
	settingsSvc *settings.Service
	mailSvc     core.EmailService
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:  true,
		AppName:   "shulesite",
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testFixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed, %v", err)
	}

	conf := testConfig()
	cache := core.NewNopCache()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	fix := &testFixture{
		conf:        conf,
		usrRepo:     dummydb.NewUserRepository(db),
		contentSvc:  content.NewService(db, dummydb.NewContentRepository(db), cache),
		postSvc:     post.NewService(dummydb.NewPostRepository(db)),
		staffSvc:    staff.NewService(db, dummydb.NewStaffRepository(db)),
		settingsSvc: settings.NewService(dummydb.NewSettingsRepository(db), cache),
		mailSvc:     mailSvc,
	}
	fix.usrSvc = user.NewService(conf, fix.usrRepo, mailSvc)

	fix.app = NewServer(&Options{
		Conf:           conf,
		Logger:         logsvc.NewConsoleLogger(log.New(io.Discard, "", 0)),
		DisableReqLogs: true,
		UserSvc:        fix.usrSvc,
		ContentSvc:     fix.contentSvc,
		PostSvc:        fix.postSvc,
		StaffSvc:       fix.staffSvc,
		SettingsSvc:    fix.settingsSvc,
		MailSvc:        mailSvc,
		Cache:          cache,
	})
	return fix
}

func (fix *testFixture) createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	active := isActive
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  &active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed, %v", err)
		}
	}
	usr, err := fix.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed, %v", err)
	}
	return usr
}

func (fix *testFixture) editorToken(t *testing.T) string {
	usr := fix.createUser(t, "Editor", "editor", "editor@test.cd", "", []string{user.RoleEditor}, true)
	return getToken(t, fix.conf, usr)
}

func (fix *testFixture) adminToken(t *testing.T) string {
	usr := fix.createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	return getToken(t, fix.conf, usr)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed, %v", err)
	}
	return token
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed, %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed, %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
