package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/stocktrack/internal/model"
	"github.com/example/stocktrack/internal/store"
)

type fakeUserAdmin struct {
	users   []model.User
	user    *model.User
	byIDErr error
	updErr  error
	delErr  error

	gotID     int64
	gotUpdate store.UserUpdate
}

func (f *fakeUserAdmin) List(ctx context.Context) ([]model.User, error) {
	return f.users, nil
}

func (f *fakeUserAdmin) ByID(ctx context.Context, id int64) (*model.User, error) {
	f.gotID = id
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.user, nil
}

func (f *fakeUserAdmin) Update(ctx context.Context, id int64, u store.UserUpdate) error {
	f.gotID, f.gotUpdate = id, u
	return f.updErr
}

func (f *fakeUserAdmin) Delete(ctx context.Context, id int64) error {
	f.gotID = id
	return f.delErr
}

func TestListUsers_NoPasswordHashInResponse(t *testing.T) {
	admin := &fakeUserAdmin{users: []model.User{
		{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: "$2a$12$secret", Role: "admin"},
	}}
	h := NewUserHandlers(admin)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	w := httptest.NewRecorder()
	h.ListUsers(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "secret")

	var got []UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestGetUser_NotFound(t *testing.T) {
	h := NewUserHandlers(&fakeUserAdmin{byIDErr: store.ErrUserNotFound})

	req := httptest.NewRequest(http.MethodGet, "/users/99", nil)
	w := httptest.NewRecorder()
	h.GetUser(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateUser_HashesPassword(t *testing.T) {
	admin := &fakeUserAdmin{}
	h := NewUserHandlers(admin)

	body := `{"password": "new-password-1"}`
	req := httptest.NewRequest(http.MethodPut, "/users/4", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.UpdateUser(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), admin.gotID)
	require.NotNil(t, admin.gotUpdate.PasswordHash)
	// The plaintext must never reach the store.
	assert.NotEqual(t, "new-password-1", *admin.gotUpdate.PasswordHash)
	assert.True(t, strings.HasPrefix(*admin.gotUpdate.PasswordHash, "$2a$"))
}

func TestUpdateUser_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{not json`},
		{"empty update", `{}`},
		{"blank username", `{"username": "  "}`},
		{"short password", `{"password": "short"}`},
		{"unknown role", `{"role": "superuser"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandlers(&fakeUserAdmin{})

			req := httptest.NewRequest(http.MethodPut, "/users/4", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.UpdateUser(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestUpdateUser_Duplicate(t *testing.T) {
	h := NewUserHandlers(&fakeUserAdmin{updErr: store.ErrDuplicate})

	body := `{"username": "taken"}`
	req := httptest.NewRequest(http.MethodPut, "/users/4", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.UpdateUser(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteUser(t *testing.T) {
	admin := &fakeUserAdmin{}
	h := NewUserHandlers(admin)

	req := asUser(httptest.NewRequest(http.MethodDelete, "/users/4", nil), 1, "admin")
	w := httptest.NewRecorder()
	h.DeleteUser(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(4), admin.gotID)
}

func TestDeleteUser_Self(t *testing.T) {
	h := NewUserHandlers(&fakeUserAdmin{})

	req := asUser(httptest.NewRequest(http.MethodDelete, "/users/1", nil), 1, "admin")
	w := httptest.NewRecorder()
	h.DeleteUser(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteUser_NotFound(t *testing.T) {
	h := NewUserHandlers(&fakeUserAdmin{delErr: store.ErrUserNotFound})

	req := asUser(httptest.NewRequest(http.MethodDelete, "/users/99", nil), 1, "admin")
	w := httptest.NewRecorder()
	h.DeleteUser(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
