package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newAuthServer stands in for the hosted auth endpoints: password grant,
// user lookup, users table, logout.
func newAuthServer(t *testing.T, password string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))

		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			var creds struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds.Password != password {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error_description":"Invalid login credentials"}`))
				return
			}
			w.Write([]byte(`{"access_token":"tok-1","refresh_token":"ref-1","token_type":"bearer","expires_in":3600}`))
		case "/auth/v1/user":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			w.Write([]byte(`{"id":"u-1","email":"owner@example.com","role":"authenticated"}`))
		case "/rest/v1/users":
			assert.Equal(t, "id=eq.u-1", r.URL.RawQuery)
			w.Write([]byte(`[{"id":"u-1","email":"owner@example.com","username":"owner","approved":true}]`))
		case "/auth/v1/signup":
			var body struct {
				Email    string            `json:"email"`
				Password string            `json:"password"`
				Data     map[string]string `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body.Email == "taken@example.com" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				w.Write([]byte(`{"msg":"User already registered"}`))
				return
			}
			assert.Equal(t, "New Staff", body.Data["name"])
			w.Write([]byte(`{"user":{"id":"u-2","email":"` + body.Email + `","role":"authenticated"}}`))
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T, srv *httptest.Server) *Service {
	t.Helper()
	svc, err := NewService(Config{BaseURL: srv.URL, AnonKey: "anon-key"})
	require.NoError(t, err)
	return svc
}

func TestNewServiceMissingConfig(t *testing.T) {
	_, err := NewService(Config{AnonKey: "anon-key"})
	assert.ErrorIs(t, err, ErrMissingConfig)

	_, err = NewService(Config{BaseURL: "https://example.supabase.co"})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestLoginSuccess(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	user, err := svc.Login(context.Background(), "owner@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.True(t, svc.IsAuthenticated())

	data, err := svc.FetchUserData(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner", data.Username)
	assert.True(t, data.Approved)
}

func TestLoginRejected(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	_, err := svc.Login(context.Background(), "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, err.Error(), "Invalid login credentials")
	assert.False(t, svc.IsAuthenticated())
}

func TestSessionRequiredBeforeLogin(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	_, err := svc.CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = svc.FetchUserData(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSignUpSuccess(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	user, err := svc.SignUp(context.Background(), "new@example.com", "hunter2", "New Staff")
	require.NoError(t, err)
	assert.Equal(t, "u-2", user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.False(t, svc.IsAuthenticated(), "signing up must not start a session")
}

func TestSignUpRejected(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	_, err := svc.SignUp(context.Background(), "taken@example.com", "hunter2", "New Staff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User already registered")
}

func TestLogoutClearsSession(t *testing.T) {
	svc := newTestService(t, newAuthServer(t, "hunter2"))

	_, err := svc.Login(context.Background(), "owner@example.com", "hunter2")
	require.NoError(t, err)

	assert.True(t, svc.Logout(context.Background()))
	assert.False(t, svc.IsAuthenticated())

	// Logging out twice is a no-op.
	assert.True(t, svc.Logout(context.Background()))
}
