// Package session holds the client's credential state: whether the user
// is logged in, who they are, and their bearer token.
//
// A Session is an explicit object with an Init/Teardown lifecycle. It is
// created once and passed to whatever needs identity; there is no
// package-level state.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogoutTimeout bounds the remote logout call. After it expires the local
// state is cleared as if the call had succeeded.
const LogoutTimeout = 5 * time.Second

const (
	msgInvalidCredentials = "Invalid credentials"
	msgRegistrationFailed = "Registration failed"
	msgNetworkError       = "Network error. Please try again."
)

// User is the identity attached to a session.
type User struct {
	Email string
}

// Result is the outcome of Login and Signup.
type Result struct {
	Success bool
	Error   string
	Data    map[string]any
}

// Session is safe for concurrent use.
type Session struct {
	store         Store
	creds         Credentials
	logoutTimeout time.Duration

	mu       sync.RWMutex
	loggedIn bool
	user     *User
	token    string
}

// Option configures a Session.
type Option func(*Session)

// WithLogoutTimeout overrides LogoutTimeout.
func WithLogoutTimeout(d time.Duration) Option {
	return func(s *Session) { s.logoutTimeout = d }
}

// New creates a logged-out session. Call Init to hydrate it from store.
func New(store Store, creds Credentials, opts ...Option) *Session {
	s := &Session{
		store:         store,
		creds:         creds,
		logoutTimeout: LogoutTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores state from durable storage: a stored token means logged
// in, and the stored email (if any) becomes the user.
func (s *Session) Init() {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.store.Get(KeyAuthToken)
	if !ok || token == "" {
		return
	}
	s.loggedIn = true
	s.token = token
	if email, ok := s.store.Get(KeyUserEmail); ok && email != "" {
		s.user = &User{Email: email}
	}
}

// Teardown drops the in-memory state. Durable storage is left alone, so
// a later Init restores the same session.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// LoggedIn reports whether the session holds credentials.
func (s *Session) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

// User returns the current identity.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Token returns the bearer token, or "" when there is none.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Login authenticates against the credential service.
func (s *Session) Login(ctx context.Context, email, password string) Result {
	reply, err := s.creds.Login(ctx, email, password)
	return s.complete("login", email, reply, err, msgInvalidCredentials)
}

// Signup registers a new account and logs it in.
func (s *Session) Signup(ctx context.Context, email, password string) Result {
	reply, err := s.creds.Signup(ctx, email, password)
	return s.complete("signup", email, reply, err, msgRegistrationFailed)
}

func (s *Session) complete(op, email string, reply Reply, err error, fallback string) Result {
	if err != nil {
		slog.Error(op+" error", slog.String("error", err.Error()))
		return Result{Success: false, Error: msgNetworkError}
	}

	if !reply.OK {
		msg := reply.Message
		if msg == "" {
			msg = fallback
		}
		return Result{Success: false, Error: msg}
	}

	s.mu.Lock()
	s.loggedIn = true
	s.user = &User{Email: email}
	if reply.Token != "" {
		s.token = reply.Token
	}
	s.mu.Unlock()

	if reply.Token != "" {
		if err := s.store.Set(KeyAuthToken, reply.Token); err != nil {
			slog.Error("failed to persist token", slog.String("error", err.Error()))
		}
		if err := s.store.Set(KeyUserEmail, email); err != nil {
			slog.Error("failed to persist user email", slog.String("error", err.Error()))
		}
	}

	return Result{Success: true, Data: reply.Data}
}

// Logout revokes the token remotely (bounded by the logout timeout) and
// then, whatever happened, wipes every auth related key from durable
// storage and resets the in-memory state.
func (s *Session) Logout(ctx context.Context) {
	token, _ := s.store.Get(KeyAuthToken)

	if token != "" {
		callCtx, cancel := context.WithTimeout(ctx, s.logoutTimeout)
		if err := s.creds.Logout(callCtx, token); err != nil {
			slog.Error("logout error", slog.String("error", err.Error()))
		}
		cancel()
	}

	for _, key := range s.store.Keys() {
		if isAuthKey(key) {
			if err := s.store.Delete(key); err != nil {
				slog.Error("failed to remove key", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
	}

	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
}

// reset clears in-memory state. Callers hold s.mu.
func (s *Session) reset() {
	s.loggedIn = false
	s.user = nil
	s.token = ""
}

func isAuthKey(key string) bool {
	return strings.Contains(key, "auth") || key == "user" || key == "token" || key == KeyUserEmail
}
