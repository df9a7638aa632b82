package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/juju/clock"
	"github.com/juju/loggo/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Domenick1991/ticketbari/config"
)

var logger = loggo.GetLogger("ticketbari.bootstrap")

// Worker runs until ctx is canceled. A worker returning early with an
// error stops the process.
type Worker func(ctx context.Context) error

// Check probes a dependency for the health service.
type Check func(ctx context.Context) error

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	health     *health.Server
	conn       *grpc.ClientConn
}

type options struct {
	workers       []Worker
	checks        map[string]Check
	checkInterval time.Duration
	clock         clock.Clock
}

type Option func(*options)

func WithWorker(w Worker) Option {
	return func(o *options) {
		o.workers = append(o.workers, w)
	}
}

// WithCheck adds a dependency probe. The service reports NOT_SERVING while
// any probe fails.
func WithCheck(name string, c Check) Option {
	return func(o *options) {
		o.checks[name] = c
	}
}

func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// Run serves the pages, metrics and health endpoints on the HTTP address
// and the gRPC health service on the gRPC address. It blocks until ctx is
// canceled or a server or worker fails.
func Run(ctx context.Context, cfg *config.Config, pages http.Handler, opts ...Option) error {
	o := options{checks: map[string]Check{}, checkInterval: 15 * time.Second, clock: clock.WallClock}
	for _, opt := range opts {
		opt(&o)
	}

	s, err := newServers(ctx, cfg, pages)
	if err != nil {
		return err
	}
	defer s.conn.Close()

	errCh := make(chan error, 2+len(o.workers))

	// gRPC health
	lis, err := net.Listen("tcp", cfg.GRPC.Address)
	if err != nil {
		return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
	}
	go func() { errCh <- s.grpcServer.Serve(lis) }()

	// pages + metrics + healthz
	go func() { errCh <- s.httpServer.ListenAndServe() }()

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for _, w := range o.workers {
		go func() {
			if err := w(workCtx); err != nil && workCtx.Err() == nil {
				errCh <- err
			}
		}()
	}
	go s.probe(workCtx, o)

	logger.Infof("serving pages on %s, health on %s", cfg.HTTP.Address, cfg.GRPC.Address)

	select {
	case err := <-errCh:
		s.health.Shutdown()
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServers(ctx context.Context, cfg *config.Config, pages http.Handler) (*Servers, error) {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	conn, err := grpc.NewClient(cfg.GRPC.Address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial health service: %w", err)
	}
	gateway := runtime.NewServeMux(runtime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))

	handler := http.NewServeMux()
	handler.Handle("/healthz", gateway)
	handler.Handle("/metrics", promhttp.Handler())
	handler.Handle("/", Protect(cfg.HTTP, pages))

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	return &Servers{
		grpcServer: grpcSrv,
		httpServer: httpSrv,
		health:     healthSrv,
		conn:       conn,
	}, nil
}

// Protect wraps the pages with CSRF checks on every unsafe method.
func Protect(cfg config.HTTPConfig, pages http.Handler) http.Handler {
	return csrf.Protect(
		[]byte(cfg.CSRFKey),
		csrf.Secure(cfg.SecureCookie),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	)(pages)
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	logger.Warningf("csrf check failed on %s %s: %v", r.Method, r.URL.Path, csrf.FailureReason(r))
	http.Error(w, "Your form expired. Go back, reload the page and try again.", http.StatusForbidden)
}

// probe runs the dependency checks and publishes the overall status.
func (s *Servers) probe(ctx context.Context, o options) {
	for {
		status := healthpb.HealthCheckResponse_SERVING
		for name, check := range o.checks {
			checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := check(checkCtx)
			cancel()
			if err != nil {
				logger.Warningf("health check %s: %v", name, err)
				status = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		s.health.SetServingStatus("", status)

		select {
		case <-ctx.Done():
			return
		case <-o.clock.After(o.checkInterval):
		}
	}
}
