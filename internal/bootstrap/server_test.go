package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/csrf"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Domenick1991/ticketbari/config"
)

func TestProtect(t *testing.T) {
	var field string
	pages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		field = string(csrf.TemplateField(r))
		w.WriteHeader(http.StatusOK)
	})
	h := Protect(config.HTTPConfig{CSRFKey: strings.Repeat("k", 32)}, pages)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, field, `name="gorilla.csrf.Token"`)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProbe_ReportsFailingDependency(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	s := &Servers{health: health.NewServer()}
	healthy := make(chan bool, 4)
	var fail atomic.Bool
	fail.Store(true)
	o := options{
		checks: map[string]Check{"redis": func(context.Context) error {
			defer func() { healthy <- !fail.Load() }()
			if fail.Load() {
				return errors.New("connection refused")
			}
			return nil
		}},
		checkInterval: time.Second,
		clock:         clk,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.probe(ctx, o)

	require.False(t, <-healthy)
	require.Eventually(t, func() bool {
		resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_NOT_SERVING
	}, time.Second, 10*time.Millisecond)

	fail.Store(false)
	require.NoError(t, clk.WaitAdvance(time.Second, time.Second, 1))
	require.True(t, <-healthy)
	require.Eventually(t, func() bool {
		resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
	}, time.Second, 10*time.Millisecond)
}
