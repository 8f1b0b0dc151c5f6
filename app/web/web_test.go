package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabwad/hris/app/auth"
	"github.com/cabwad/hris/app/web/persistence"
)

// testEnv is a server backed by sqlite store with an admin and a staff account
type testEnv struct {
	srv        *Server
	store      *persistence.Store
	handler    http.Handler
	admin      persistence.User
	staff      persistence.User
	adminToken string
	staffToken string
}

func newTestEnv(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()
	store, err := persistence.New(persistence.EngineSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := Config{Store: store, Tokens: auth.NewTokens("secret", "hris-test", 5*time.Minute, time.Hour),
		Version: "test", DriveFolder: "root-folder", LoginRate: 100}
	for _, opt := range opts {
		opt(&cfg)
	}
	srv, err := New(cfg)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) }

	env := &testEnv{srv: srv, store: store, handler: srv.routes()}
	env.admin = env.addUser(t, auth.NewUserParams{Email: "admin@cabwad.com", Birthdate: "1980-01-02",
		FirstName: "Ana", LastName: "Reyes", Admin: true})
	env.staff = env.addUser(t, auth.NewUserParams{Email: "staff@cabwad.com", Birthdate: "1990-05-06",
		FirstName: "Ben", LastName: "Santos"})
	env.adminToken = env.token(t, env.admin)
	env.staffToken = env.token(t, env.staff)
	return env
}

func (e *testEnv) addUser(t *testing.T, p auth.NewUserParams) persistence.User {
	t.Helper()
	u, err := auth.NewUser(p)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateUser(context.Background(), &u))
	return u
}

func (e *testEnv) token(t *testing.T, u persistence.User) string {
	t.Helper()
	access, err := e.srv.tokens.Access(u.ID)
	require.NoError(t, err)
	return access
}

// do sends request to the server, body is encoded as JSON unless it is a string
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addEmployee(t *testing.T, emp persistence.Employee) persistence.Employee {
	t.Helper()
	emp.IsActive = true
	if emp.AppointmentStatus == "" {
		emp.AppointmentStatus = persistence.StatusPermanent
	}
	require.NoError(t, e.store.CreateEmployee(context.Background(), &emp))
	return emp
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func TestNew(t *testing.T) {
	store, err := persistence.New(persistence.EngineSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()
	tokens := auth.NewTokens("secret", "hris", time.Minute, time.Hour)

	t.Run("defaults", func(t *testing.T) {
		srv, err := New(Config{Store: store, Tokens: tokens})
		require.NoError(t, err)
		assert.Equal(t, int64(32*1024*1024), srv.maxBody)
		assert.InDelta(t, 1.0, srv.loginRate, 0.0001)
		assert.Nil(t, srv.backups)
		assert.Nil(t, srv.filler)
	})

	t.Run("store required", func(t *testing.T) {
		_, err := New(Config{Tokens: tokens})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "store is required")
	})

	t.Run("tokens required", func(t *testing.T) {
		_, err := New(Config{Store: store})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "tokens are required")
	})
}

func TestServer_Routes(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ping", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/ping", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
		assert.Equal(t, "hris", rec.Header().Get("App-Name"))
	})

	t.Run("metrics", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/metrics", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})

	t.Run("protected routes require token", func(t *testing.T) {
		for _, path := range []string{"/api/account/me", "/api/employee/list", "/api/pds/E1", "/api/service-record/",
			"/api/backup/"} {
			rec := env.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "token_not_valid", path)
		}
	})

	t.Run("admin routes reject staff", func(t *testing.T) {
		for _, path := range []string{"/api/account/list", "/api/employee/list", "/api/employee/count", "/api/backup/"} {
			rec := env.do(t, http.MethodGet, path, env.staffToken, nil)
			assert.Equal(t, http.StatusForbidden, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "You do not have permission", path)
		}
	})

	t.Run("trailing slash", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/account/login/", "",
			map[string]string{"username": "reyes1980", "password": "1980-01-02"})
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		for _, path := range []string{"/api/employee/count/", "/api/employee/count", "/api/account/me/",
			"/api/backup/", "/api/service-record/"} {
			rec = env.do(t, http.MethodGet, path, env.adminToken, nil)
			assert.NotEqual(t, http.StatusNotFound, rec.Code, path)
		}
		rec = env.do(t, http.MethodGet, "/api/employee/count/", env.adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "total_permanent")
	})

	t.Run("no cache headers on api", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/account/me", env.staffToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
	})
}

func TestServer_Run(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_purgeTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.store.BlacklistToken(ctx, "old", env.srv.now().Add(-time.Hour)))
	require.NoError(t, env.store.BlacklistToken(ctx, "fresh", env.srv.now().Add(time.Hour)))

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		env.srv.purgeTokens(cctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		old, err := env.store.IsTokenBlacklisted(ctx, "old")
		return err == nil && !old
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	fresh, err := env.store.IsTokenBlacklisted(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, fresh)
}
