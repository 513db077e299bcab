package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/amidaware/schedctl/console/api"
	"github.com/amidaware/schedctl/console/config"
	"github.com/amidaware/schedctl/console/dashboard"
	"github.com/amidaware/schedctl/console/notify"
	"github.com/amidaware/schedctl/shared"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTask(t *testing.T) {
	testTable := []struct {
		name       string
		status     int
		body       interface{}
		expected   string
		listCalled bool
		wantErr    string
	}{
		{
			name:     "Single Task Endpoint",
			status:   http.StatusOK,
			body:     shared.Task{ID: 5, Name: "direct"},
			expected: "direct",
		},
		{
			name:       "Not Found Falls Back To List",
			status:     http.StatusNotFound,
			body:       map[string]string{"error": "not found"},
			expected:   "from-list",
			listCalled: true,
		},
		{
			name:       "Method Not Allowed Falls Back To List",
			status:     http.StatusMethodNotAllowed,
			body:       map[string]string{"error": "method not allowed"},
			expected:   "from-list",
			listCalled: true,
		},
		{
			name:    "Unauthorized Is Reported",
			status:  http.StatusUnauthorized,
			body:    map[string]string{"error": "invalid token"},
			wantErr: "invalid token",
		},
		{
			name:    "Server Error Is Reported",
			status:  http.StatusInternalServerError,
			body:    map[string]string{"message": "database is locked"},
			wantErr: "database is locked",
		},
	}

	for _, tt := range testTable {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			listed := false
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				switch r.URL.Path {
				case "/api/tasks":
					mu.Lock()
					listed = true
					mu.Unlock()
					_ = json.NewEncoder(w).Encode([]shared.Task{{ID: 5, Name: "from-list"}})
				default:
					w.WriteHeader(tt.status)
					_ = json.NewEncoder(w).Encode(tt.body)
				}
			}))
			defer srv.Close()

			client, dash, n := newTaskLookup(srv.URL)
			task, err := lookupTask(context.Background(), client, dash, n, 5)

			mu.Lock()
			assert.Equal(t, tt.listCalled, listed)
			mu.Unlock()

			if tt.wantErr != "" {
				var apiErr *api.Error
				require.True(t, errors.As(err, &apiErr), "expected *api.Error, got %v", err)
				assert.Equal(t, tt.status, apiErr.Status)
				assert.Equal(t, tt.wantErr, apiErr.Message)
				toasts := n.Active()
				require.Len(t, toasts, 1)
				assert.Equal(t, notify.KindError, toasts[0].Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, task.Name)
		})
	}
}

func TestLookupTaskTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, dash, n := newTaskLookup(url)
	_, err := lookupTask(context.Background(), client, dash, n, 5)

	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr), "expected *api.Error, got %v", err)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, dashboard.PhaseIdle, dash.State().TasksPhase)
}

func newTaskLookup(server string) (*api.Client, *dashboard.Dashboard, *notify.Notifier) {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	cfg := &config.ConsoleConfig{Server: server, APIPrefix: "/api", Timeout: config.DefaultTimeout}
	client := api.New(cfg, nil, lg, "test")
	n := notify.New(lg)
	return client, dashboard.New(client, n, lg), n
}
