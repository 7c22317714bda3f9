// Package auth wraps the hosted Supabase auth and REST endpoints used for
// user sign-in. It holds the current session in memory; there is no token
// refresh or persistence, matching the desktop tool's one-session-per-run
// usage.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"butcherdesk/internal/logger"
)

// Common auth errors
var (
	// ErrMissingConfig is returned when the Supabase URL or anon key is
	// not configured.
	ErrMissingConfig = errors.New("missing Supabase URL or anon key")

	// ErrNotAuthenticated is returned by session-dependent calls before a
	// successful login.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrLoginFailed is returned when the credentials are rejected.
	ErrLoginFailed = errors.New("login failed")
)

// Session is the token bundle returned by the password grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// User is the authenticated user's identity record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserData is the application-level user row from the users table.
type UserData struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Approved bool   `json:"approved"`
}

// Config holds the hosted auth endpoint settings.
type Config struct {
	// BaseURL is the Supabase project URL.
	BaseURL string

	// AnonKey is the public API key sent with every request.
	AnonKey string

	// Timeout bounds each request. Default: 15 seconds.
	Timeout time.Duration
}

// Service is a stateful auth client holding the current session.
type Service struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        zerolog.Logger

	session *Session
	user    *User
}

// NewService builds an auth Service. It returns ErrMissingConfig before any
// I/O when the endpoint settings are incomplete.
func NewService(cfg Config) (*Service, error) {
	if cfg.BaseURL == "" || cfg.AnonKey == "" {
		return nil, ErrMissingConfig
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Service{
		baseURL:    cfg.BaseURL,
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("auth"),
	}, nil
}

// SignUp registers a new account with the auth backend and returns the new
// user's identity. The account starts unapproved; the caller creates the
// application's user row and an administrator approves it later.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*User, error) {
	const op = "SignUp"

	payload, err := json.Marshal(map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/signup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.anonKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			ErrorDescription string `json:"error_description"`
			Message          string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		reason := body.ErrorDescription
		if reason == "" {
			reason = body.Message
		}
		s.log.Warn().Int("status", resp.StatusCode).Str("reason", reason).Msg("Sign up rejected")
		if reason != "" {
			return nil, fmt.Errorf("%s: sign up failed: %s", op, reason)
		}
		return nil, fmt.Errorf("%s: sign up failed with status %d", op, resp.StatusCode)
	}

	// The signup response nests the identity under "user" when a session is
	// issued and returns it bare when email confirmation is pending.
	var body struct {
		User
		Nested *User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", op, err)
	}
	user := body.User
	if body.Nested != nil {
		user = *body.Nested
	}
	if user.ID == "" {
		return nil, fmt.Errorf("%s: response carried no user id", op)
	}

	s.log.Info().Str("user_id", user.ID).Msg("Sign up successful")
	return &user, nil
}

// Login authenticates with email and password and loads the user record.
func (s *Service) Login(ctx context.Context, email, password string) (*User, error) {
	const op = "Login"

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	url := s.baseURL + "/auth/v1/token?grant_type=password"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.anonKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			ErrorDescription string `json:"error_description"`
			Message          string `json:"msg"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		reason := body.ErrorDescription
		if reason == "" {
			reason = body.Message
		}
		s.log.Warn().Int("status", resp.StatusCode).Str("reason", reason).Msg("Login rejected")
		if reason != "" {
			return nil, fmt.Errorf("%s: %w: %s", op, ErrLoginFailed, reason)
		}
		return nil, fmt.Errorf("%s: %w", op, ErrLoginFailed)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("%s: decoding session: %w", op, err)
	}
	s.session = &session

	user, err := s.CurrentUser(ctx)
	if err != nil {
		s.session = nil
		return nil, err
	}
	s.user = user

	s.log.Info().Str("user_id", user.ID).Msg("Login successful")
	return user, nil
}

// CurrentUser fetches the identity record for the active session.
func (s *Service) CurrentUser(ctx context.Context) (*User, error) {
	const op = "CurrentUser"

	if s.session == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%s: decoding user: %w", op, err)
	}
	return &user, nil
}

// FetchUserData loads the application's user row for userID.
func (s *Service) FetchUserData(ctx context.Context, userID string) (*UserData, error) {
	const op = "FetchUserData"

	if s.session == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}

	url := fmt.Sprintf("%s/rest/v1/users?id=eq.%s", s.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var users []UserData
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, fmt.Errorf("%s: decoding user data: %w", op, err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%s: user %s not found", op, userID)
	}
	return &users[0], nil
}

// Logout ends the hosted session. The local session is cleared even when the
// request fails, so the caller is always signed out afterwards.
func (s *Service) Logout(ctx context.Context) bool {
	const op = "Logout"

	if s.session == nil {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		s.clearSession()
		return true
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	s.clearSession()
	if err != nil {
		s.log.Warn().Err(err).Str("op", op).Msg("Logout request failed, session cleared locally")
		return true
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK
}

// IsAuthenticated reports whether a login has completed.
func (s *Service) IsAuthenticated() bool {
	return s.session != nil && s.user != nil
}

func (s *Service) authorize(req *http.Request) {
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+s.session.AccessToken)
}

func (s *Service) clearSession() {
	s.session = nil
	s.user = nil
}
