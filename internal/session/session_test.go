package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aanand-mishra/schools-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCreds struct {
	reply     session.Reply
	err       error
	logoutErr error
	block     bool
	loggedOut []string
}

func (f *fakeCreds) Login(context.Context, string, string) (session.Reply, error) {
	return f.reply, f.err
}

func (f *fakeCreds) Signup(context.Context, string, string) (session.Reply, error) {
	return f.reply, f.err
}

func (f *fakeCreds) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.logoutErr
}

func TestInit_HydratesFromStore(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.KeyAuthToken, "tok"))
	require.NoError(t, store.Set(session.KeyUserEmail, "a@b.com"))

	s := session.New(store, &fakeCreds{})
	assert.False(t, s.LoggedIn(), "nothing is read before Init")

	s.Init()
	assert.True(t, s.LoggedIn())
	assert.Equal(t, "tok", s.Token())
	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "a@b.com", user.Email)

	s.Teardown()
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())
	_, stillStored := store.Get(session.KeyAuthToken)
	assert.True(t, stillStored, "teardown leaves durable storage alone")
}

func TestInit_NoTokenStaysLoggedOut(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.KeyUserEmail, "a@b.com"))

	s := session.New(store, &fakeCreds{})
	s.Init()

	assert.False(t, s.LoggedIn())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestLogin_SuccessPersistsToken(t *testing.T) {
	store := session.NewMemoryStore()
	creds := &fakeCreds{reply: session.Reply{OK: true, Token: "jwt", Data: map[string]any{"token": "jwt"}}}
	s := session.New(store, creds)

	res := s.Login(context.Background(), "a@b.com", "pw")

	assert.True(t, res.Success)
	assert.Equal(t, "jwt", res.Data["token"])
	assert.True(t, s.LoggedIn())
	assert.Equal(t, "jwt", s.Token())
	tok, _ := store.Get(session.KeyAuthToken)
	email, _ := store.Get(session.KeyUserEmail)
	assert.Equal(t, "jwt", tok)
	assert.Equal(t, "a@b.com", email)
}

func TestLogin_SuccessWithoutTokenDoesNotPersist(t *testing.T) {
	store := session.NewMemoryStore()
	s := session.New(store, &fakeCreds{reply: session.Reply{OK: true}})

	res := s.Signup(context.Background(), "a@b.com", "pw")

	assert.True(t, res.Success)
	assert.True(t, s.LoggedIn())
	assert.Empty(t, store.Keys())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name   string
		creds  *fakeCreds
		signup bool
		want   string
	}{
		{"service message", &fakeCreds{reply: session.Reply{Message: "Account locked"}}, false, "Account locked"},
		{"login fallback", &fakeCreds{reply: session.Reply{}}, false, "Invalid credentials"},
		{"signup fallback", &fakeCreds{reply: session.Reply{}}, true, "Registration failed"},
		{"unreachable", &fakeCreds{err: errors.New("dial tcp: refused")}, false, "Network error. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := session.New(session.NewMemoryStore(), tt.creds)

			var res session.Result
			if tt.signup {
				res = s.Signup(context.Background(), "a@b.com", "pw")
			} else {
				res = s.Login(context.Background(), "a@b.com", "pw")
			}

			assert.False(t, res.Success)
			assert.Equal(t, tt.want, res.Error)
			assert.False(t, s.LoggedIn())
		})
	}
}

func TestLogout_ClearsAuthKeysEvenWhenRemoteFails(t *testing.T) {
	store := session.NewMemoryStore()
	for k, v := range map[string]string{
		session.KeyAuthToken: "tok",
		session.KeyUserEmail: "a@b.com",
		"user":               "{}",
		"token":              "old",
		"oauthState":         "x",
		"theme":              "dark",
	} {
		require.NoError(t, store.Set(k, v))
	}
	creds := &fakeCreds{logoutErr: errors.New("500")}
	s := session.New(store, creds)
	s.Init()

	s.Logout(context.Background())

	assert.Equal(t, []string{"tok"}, creds.loggedOut)
	assert.Equal(t, []string{"theme"}, store.Keys())
	assert.False(t, s.LoggedIn())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestLogout_WithoutTokenSkipsRemoteCall(t *testing.T) {
	creds := &fakeCreds{}
	s := session.New(session.NewMemoryStore(), creds)

	s.Logout(context.Background())

	assert.Empty(t, creds.loggedOut)
}

func TestLogout_TimeoutBoundsRemoteCall(t *testing.T) {
	store := session.NewMemoryStore()
	require.NoError(t, store.Set(session.KeyAuthToken, "tok"))
	creds := &fakeCreds{block: true}
	s := session.New(store, creds, session.WithLogoutTimeout(50*time.Millisecond))
	s.Init()

	start := time.Now()
	s.Logout(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, s.LoggedIn())
	assert.Empty(t, store.Keys())
}

func TestHTTPCredentials(t *testing.T) {
	logoutAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "right" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Wrong password"}`))
				return
			}
			w.Write([]byte(`{"token":"jwt-1"}`))
		case "/api/auth/register":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"token":"jwt-2"}`))
		case "/api/auth/logout":
			logoutAuth <- r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	creds := session.NewHTTPCredentials(srv.URL, srv.Client())
	ctx := context.Background()

	reply, err := creds.Login(ctx, "a@b.com", "right")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "jwt-1", reply.Token)

	reply, err = creds.Login(ctx, "a@b.com", "wrong")
	require.NoError(t, err)
	assert.False(t, reply.OK)
	assert.Equal(t, "Wrong password", reply.Message)

	reply, err = creds.Signup(ctx, "new@b.com", "pw")
	require.NoError(t, err)
	assert.True(t, reply.OK)
	assert.Equal(t, "jwt-2", reply.Token)

	require.NoError(t, creds.Logout(ctx, "jwt-1"))
	assert.Equal(t, "Bearer jwt-1", <-logoutAuth)

	srv.Client().CloseIdleConnections()
}

func TestFileStore_PersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yaml")

	fs1, err := session.OpenFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, fs1.Keys())
	require.NoError(t, fs1.Set(session.KeyAuthToken, "tok"))
	require.NoError(t, fs1.Set(session.KeyUserEmail, "a@b.com"))
	require.NoError(t, fs1.Delete("missing"))

	fs2, err := session.OpenFileStore(path)
	require.NoError(t, err)
	v, ok := fs2.Get(session.KeyAuthToken)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
	assert.Equal(t, []string{session.KeyAuthToken, session.KeyUserEmail}, fs2.Keys())

	require.NoError(t, fs2.Delete(session.KeyAuthToken))
	fs3, err := session.OpenFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, []string{session.KeyUserEmail}, fs3.Keys())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- not\n- a map\n"), 0o600))

	_, err := session.OpenFileStore(path)
	assert.Error(t, err)
}
