package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/amidaware/schedctl/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedctl_api_requests_total",
			Help: "Backend API requests by operation and HTTP status (0 = transport failure)",
		},
		[]string{"operation", "code"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedctl_api_request_duration_seconds",
			Help:    "Backend API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	PollTicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "schedctl_poll_ticks_total",
			Help: "Task list refreshes triggered by the polling timer",
		},
	)

	PollInterval = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "schedctl_poll_interval_seconds",
			Help: "Currently selected task refresh interval, 0 when polling is off",
		},
	)

	TasksByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "schedctl_tasks",
			Help: "Tasks in the latest snapshot by status",
		},
		[]string{"status"},
	)

	Registry = prometheus.NewRegistry()
)

func init() {
	Registry.MustRegister(
		APIRequestsTotal,
		APIRequestDuration,
		PollTicksTotal,
		PollInterval,
		TasksByStatus,
	)
}

// Timer measures one API call
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveRequest records the outcome of an API call started at t
func (t *Timer) ObserveRequest(operation string, code int) {
	APIRequestDuration.WithLabelValues(operation).Observe(t.Duration().Seconds())
	APIRequestsTotal.WithLabelValues(operation, strconv.Itoa(code)).Inc()
}

// ObserveTasks replaces the per status gauge with the counts of a fresh snapshot
func ObserveTasks(tasks []shared.Task) {
	TasksByStatus.Reset()
	for _, t := range tasks {
		TasksByStatus.WithLabelValues(string(t.Status)).Inc()
	}
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
