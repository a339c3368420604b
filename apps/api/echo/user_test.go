package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shulesite/core/user"
	"github.com/trezcool/shulesite/services/email"
)

func Test_userApi_login(t *testing.T) {
	fix := setup(t)

	fix.createUser(t, "Editor", "editor", "editor@test.cd", "LolC@t123", []string{user.RoleEditor}, true)
	fix.createUser(t, "Gone", "gone", "gone@test.cd", "LolC@t123", nil, false)

	tests := []httpTest{
		{
			name: "empty payload",
			body: marchallObj(t, LoginRequest{}), wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user",
			body: marchallObj(t, LoginRequest{Username: "lol", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid credentials"}),
		},
		{
			name: "wrong password",
			body: marchallObj(t, LoginRequest{Username: "editor", Password: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account",
			body: marchallObj(t, LoginRequest{Username: "gone", Password: "LolC@t123"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "login with username",
			body: marchallObj(t, LoginRequest{Username: "editor", Password: "LolC@t123"}),
			wantCode: http.StatusOK,
		},
		{
			name: "login with email",
			body: marchallObj(t, LoginRequest{Username: "EDITOR@test.cd", Password: "LolC@t123"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			fix.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var resp LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.NotEmpty(t, resp.Token)
				return
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			} else {
				assert.Equal(t, tt.wantCode, rec.Code)
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	fix := setup(t)
	token := fix.editorToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	req, rec = newRequest(http.MethodPost, "/v1/users/token-refresh")
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func Test_userApi_adminGuard(t *testing.T) {
	fix := setup(t)
	editorToken := fix.editorToken(t)
	adminToken := fix.adminToken(t)

	// editors manage content, not users
	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/users", editorToken)
	fix.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/users", adminToken)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/users/roles", adminToken)
	fix.app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, user.Roles)}, rec)
}

func Test_userApi_create(t *testing.T) {
	fix := setup(t)
	adminToken := fix.adminToken(t)

	body := marchallObj(t, user.NewUser{
		Name:            "New Editor",
		Username:        "neweditor",
		Email:           "neweditor@test.cd",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
		Roles:           []string{user.RoleEditor},
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/admin/users", adminToken, body)
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "neweditor", created.Username)
	assert.Empty(t, created.PasswordHash) // never serialized

	// an admin cannot grant a role above their own
	body = marchallObj(t, user.NewUser{
		Name:            "Sneaky",
		Username:        "sneaky",
		Email:           "sneaky@test.cd",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
		Roles:           []string{user.RoleAdminOwner},
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/users", adminToken, body)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), errNoPermsToSetRoles)

	// duplicate username
	body = marchallObj(t, user.NewUser{
		Name:            "Dup",
		Username:        "neweditor",
		Email:           "dup@test.cd",
		Password:        "LolC@t123",
		PasswordConfirm: "LolC@t123",
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/users", adminToken, body)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func Test_userApi_destroy(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	admin := fix.createUser(t, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, fix.conf, admin)
	victim := fix.createUser(t, "Victim", "victim", "victim@test.cd", "", nil, true)

	// self-delete is forbidden
	req, rec := newAuthRequest(http.MethodDelete, "/v1/admin/users/"+admin.ID, adminToken)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// same through the bulk endpoint
	req, rec = newAuthRequest(http.MethodDelete, "/v1/admin/users?id="+victim.ID+"&id="+admin.ID, adminToken)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// deleting someone else works
	req, rec = newAuthRequest(http.MethodDelete, "/v1/admin/users/"+victim.ID, adminToken)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := fix.usrSvc.GetByID(ctx, victim.ID)
	assert.Error(t, err)

	// unknown id 404s
	req, rec = newAuthRequest(http.MethodDelete, "/v1/admin/users/nope", adminToken)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_userApi_passwordReset(t *testing.T) {
	fix := setup(t)
	emailsvc.ClearSentMessages()

	usr := fix.createUser(t, "Editor", "editor", "editor@test.cd", "LolC@t123", []string{user.RoleEditor}, true)

	body := marchallObj(t, PasswordResetRequest{Email: usr.Email})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Contains(t, emailsvc.SentMessages[0].Subject, "Password reset")

	// unknown emails get the same response and no mail
	emailsvc.ClearSentMessages()
	body = marchallObj(t, PasswordResetRequest{Email: "ghost@test.cd"})
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", body)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, emailsvc.SentMessages)
	assert.True(t, strings.Contains(rec.Body.String(), "If the email address supplied"))
}
