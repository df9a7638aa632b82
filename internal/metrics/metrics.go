package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	backendRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbari_backend_request_duration_seconds",
			Help:    "Duration of REST API calls by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	pageRequests = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketbari_page_request_duration_seconds",
			Help:    "Duration of page requests by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	guardDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_guard_decisions_total",
			Help: "Route guard outcomes",
		},
		[]string{"guard", "decision"},
	)

	staleResults = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketbari_browser_stale_results_total",
			Help: "Ticket list responses discarded because a newer query superseded them",
		},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_cache_invalidations_total",
			Help: "List cache invalidations by scope and origin",
		},
		[]string{"scope", "origin"},
	)

	mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketbari_mutations_total",
			Help: "Form and action mutations by name and outcome",
		},
		[]string{"name", "outcome"},
	)
)

func ObserveBackend(method, path string, status int, d time.Duration) {
	backendRequests.WithLabelValues(method, Route(path), strconv.Itoa(status)).Observe(d.Seconds())
}

// ObservePage records a served page. route is the router pattern, not the
// raw path.
func ObservePage(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	pageRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func GuardDecision(guard, decision string) {
	guardDecisions.WithLabelValues(guard, decision).Inc()
}

func StaleResult() {
	staleResults.Inc()
}

func CacheInvalidated(scope, origin string) {
	cacheInvalidations.WithLabelValues(scope, origin).Inc()
}

func Mutation(name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	mutations.WithLabelValues(name, outcome).Inc()
}

// Route collapses identifiers out of an API path so label cardinality stays
// bounded: /tickets/abc123 becomes /tickets/:id.
func Route(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) <= 1 {
		return path
	}
	keep := 1
	switch parts[0] {
	case "admin", "bookings", "vendor":
		keep = 2
		if parts[0] == "admin" && len(parts) > 2 && parts[1] != "advertise-tickets" {
			keep = 3
		}
	case "tickets":
		if len(parts) > 2 && parts[1] == "vendor" {
			keep = 2
		}
	case "user":
		if parts[1] == "role" {
			return path
		}
	}
	if keep >= len(parts) {
		return path
	}
	return "/" + strings.Join(parts[:keep], "/") + "/:id"
}
