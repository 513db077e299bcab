package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/shared"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type recorded struct {
	Method string
	Path   string
	Header http.Header
	Body   string
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	handler  http.HandlerFunc
}

func (b *backend) last() recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

func newBackend(t *testing.T, h http.HandlerFunc) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{handler: h}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		b.mu.Lock()
		b.requests = append(b.requests, recorded{Method: r.Method, Path: r.URL.EscapedPath() + queryOf(r), Header: r.Header.Clone(), Body: string(body)})
		b.mu.Unlock()
		b.handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func queryOf(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return ""
	}
	return "?" + r.URL.RawQuery
}

func newClient(t *testing.T, server string, token string) *api.Client {
	t.Helper()
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	cfg := &config.ConsoleConfig{Server: server, APIPrefix: "/api", Timeout: config.DefaultTimeout}
	return api.New(cfg, staticToken(token), lg, "test")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestErrorMessage(t *testing.T) {
	testTable := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{
			name:     "Error Field",
			status:   404,
			body:     `{"error":"script not found"}`,
			expected: "script not found",
		},
		{
			name:     "Message Field",
			status:   400,
			body:     `{"message":"name is required"}`,
			expected: "name is required",
		},
		{
			name:     "Error Wins Over Message",
			status:   400,
			body:     `{"error":"bad id","message":"ignored"}`,
			expected: "bad id",
		},
		{
			name:     "Unparseable Body",
			status:   500,
			body:     `<html>Internal Server Error</html>`,
			expected: "HTTP error! status: 500",
		},
		{
			name:     "No Known Field",
			status:   502,
			body:     `{"detail":"upstream"}`,
			expected: "HTTP error! status: 502",
		},
		{
			name:     "Non String Error Field",
			status:   400,
			body:     `{"error":42,"message":"bad request body"}`,
			expected: "bad request body",
		},
		{
			name:     "Array Body",
			status:   500,
			body:     `["boom"]`,
			expected: "HTTP error! status: 500",
		},
		{
			name:     "Empty Body",
			status:   401,
			body:     ``,
			expected: "HTTP error! status: 401",
		},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			result := api.ErrorMessage(tt.status, []byte(tt.body))
			if result != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestNotFoundSurfacesBackendMessage(t *testing.T) {
	_, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "script not found"})
	})
	c := newClient(t, srv.URL, "tok")

	res := c.DeleteScript(context.Background(), 42)
	require.False(t, res.Ok())
	assert.Equal(t, "script not found", res.Message())
	assert.Equal(t, http.StatusNotFound, res.Status())
	assert.EqualError(t, res.Err(), "script not found")
}

func TestUnparseableServerError(t *testing.T) {
	_, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	c := newClient(t, srv.URL, "tok")

	res := c.ListScripts(context.Background())
	require.False(t, res.Ok())
	assert.Equal(t, "HTTP error! status: 500", res.Message())
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newClient(t, url, "")
	res := c.ListTasks(context.Background())
	require.False(t, res.Ok())
	assert.Equal(t, 0, res.Status())
	assert.NotEmpty(t, res.Message())
}

func TestHeaders(t *testing.T) {
	testTable := []struct {
		name  string
		token string
		auth  string
	}{
		{
			name:  "With Token",
			token: "abc.def",
			auth:  "Bearer abc.def",
		},
		{
			name:  "Without Token",
			token: "",
			auth:  "",
		},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, []shared.Script{})
			})
			c := newClient(t, srv.URL, tt.token)

			res := c.ListScripts(context.Background())
			require.True(t, res.Ok(), res.Message())

			req := b.last()
			assert.Equal(t, tt.auth, req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
			assert.True(t, strings.HasPrefix(req.Header.Get("User-Agent"), "schedctl/test"))
		})
	}
}

func TestTokenReadPerRequest(t *testing.T) {
	b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []shared.Task{})
	})

	tokens := &mutableToken{}
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	c := api.New(&config.ConsoleConfig{Server: srv.URL, APIPrefix: "/api", Timeout: config.DefaultTimeout}, tokens, lg, "test")

	c.ListTasks(context.Background())
	assert.Equal(t, "", b.last().Header.Get("Authorization"))

	tokens.set("fresh")
	c.ListTasks(context.Background())
	assert.Equal(t, "Bearer fresh", b.last().Header.Get("Authorization"))
}

type mutableToken struct {
	mu  sync.Mutex
	tok string
}

func (m *mutableToken) set(tok string) {
	m.mu.Lock()
	m.tok = tok
	m.mu.Unlock()
}

func (m *mutableToken) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tok
}

func TestRoutes(t *testing.T) {
	b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	c := newClient(t, srv.URL, "tok")
	ctx := context.Background()

	testTable := []struct {
		name   string
		call   func() error
		method string
		path   string
	}{
		{"Create Script", func() error { return c.CreateScript(ctx, shared.Script{Name: "a"}).Err() }, "POST", "/api/scripts"},
		{"Update Script", func() error { return c.UpdateScript(ctx, 3, shared.Script{Name: "a"}).Err() }, "PUT", "/api/scripts/3"},
		{"Delete Script", func() error { return c.DeleteScript(ctx, 3).Err() }, "DELETE", "/api/scripts/3"},
		{"Run Script", func() error { return c.RunScript(ctx, 3).Err() }, "POST", "/api/scripts/3/run"},
		{"List Tasks For Script", func() error { return c.ListTasksForScript(ctx, 3).Err() }, "GET", "/api/tasks?script_id=3"},
		{"Add Task", func() error { return c.AddTask(ctx, shared.ManualTask{Name: "n"}).Err() }, "POST", "/api/tasks"},
		{"Delete Task", func() error { return c.DeleteTask(ctx, 9).Err() }, "DELETE", "/api/tasks/9"},
		{"Rerun Task", func() error { return c.RerunTask(ctx, 9).Err() }, "POST", "/api/tasks/9/rerun"},
		{"Toggle Task", func() error { return c.ToggleTask(ctx, "nightly backup").Err() }, "POST", "/api/tasks/nightly%20backup/toggle"},
		{"Change Password", func() error { return c.ChangePassword(ctx, "old", "new").Err() }, "POST", "/api/auth/change-password"},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			req := b.last()
			assert.Equal(t, tt.method, req.Method)
			assert.Equal(t, tt.path, req.Path)
		})
	}
}

func TestUpdateScriptSendsFullRecord(t *testing.T) {
	b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 7, "name": "backup", "type": "python"})
	})
	c := newClient(t, srv.URL, "tok")

	res := c.UpdateScript(context.Background(), 7, shared.Script{Name: "backup", Content: "print(1)", Type: shared.ScriptPython, Schedule: "0 * * * *"})
	require.True(t, res.Ok(), res.Message())
	assert.Equal(t, int64(7), res.Value().ID)

	var sent shared.Script
	require.NoError(t, json.Unmarshal([]byte(b.last().Body), &sent))
	assert.Equal(t, int64(7), sent.ID)
	assert.Equal(t, "print(1)", sent.Content)
	assert.Equal(t, "0 * * * *", sent.Schedule)
	assert.Equal(t, shared.ScriptPython, sent.Type)
}

func TestListScriptsDecodes(t *testing.T) {
	_, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"hello","content":"echo hi","schedule":"","type":"shell","last_run":"2024-03-01T10:00:00Z"}]`))
	})
	c := newClient(t, srv.URL, "tok")

	scripts, err := c.ListScripts(context.Background()).Unwrap()
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "hello", scripts[0].Name)
	assert.True(t, scripts[0].Manual())
	require.NotNil(t, scripts[0].LastRun)
}

func TestListNullBody(t *testing.T) {
	_, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})
	c := newClient(t, srv.URL, "tok")

	tasks, err := c.ListTasks(context.Background()).Unwrap()
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Len(t, tasks, 0)
}

func TestLogin(t *testing.T) {
	testTable := []struct {
		name     string
		status   int
		body     interface{}
		ok       bool
		expected string
	}{
		{
			name:   "Success",
			status: http.StatusOK,
			body:   shared.LoginResponse{Token: "jwt", User: shared.User{ID: 1, Username: "admin"}},
			ok:     true,
		},
		{
			name:     "Bad Credentials",
			status:   http.StatusUnauthorized,
			body:     map[string]string{"error": "invalid credentials"},
			expected: "invalid credentials",
		},
		{
			name:     "Missing Token",
			status:   http.StatusOK,
			body:     map[string]interface{}{"user": map[string]interface{}{"id": 1, "username": "admin"}},
			expected: "login response did not include a token",
		},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			c := newClient(t, srv.URL, "")

			res := c.Login(context.Background(), "admin", "secret")
			assert.Equal(t, tt.ok, res.Ok())
			assert.Equal(t, tt.expected, res.Message())
			assert.Equal(t, "/api/auth/login", b.last().Path)
			assert.JSONEq(t, `{"username":"admin","password":"secret"}`, b.last().Body)
			if tt.ok {
				assert.Equal(t, "jwt", res.Value().Token)
				assert.Equal(t, "admin", res.Value().User.Username)
			}
		})
	}
}

func TestRateLimitWaitsInsteadOfFailing(t *testing.T) {
	b, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})

	lg := logrus.New()
	lg.SetOutput(io.Discard)
	cfg := &config.ConsoleConfig{Server: srv.URL, APIPrefix: "/api", Timeout: config.DefaultTimeout, RateLimit: 1}
	client := api.New(cfg, staticToken(""), lg, "test")

	ctx := context.Background()
	start := time.Now()
	tasks := client.ListTasks(ctx)
	scripts := client.ListScripts(ctx)

	require.True(t, tasks.Ok(), tasks.Message())
	require.True(t, scripts.Ok(), scripts.Message())
	assert.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.requests, 2)
}

func TestRateLimitHonoursContext(t *testing.T) {
	_, srv := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})

	lg := logrus.New()
	lg.SetOutput(io.Discard)
	cfg := &config.ConsoleConfig{Server: srv.URL, APIPrefix: "/api", Timeout: config.DefaultTimeout, RateLimit: 0.1}
	client := api.New(cfg, staticToken(""), lg, "test")

	require.True(t, client.ListTasks(context.Background()).Ok())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := client.ListScripts(ctx)
	assert.False(t, res.Ok())
	assert.Equal(t, 0, res.Status())
}
