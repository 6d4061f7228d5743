package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeLimited = "limited"
)

var (
	// UserOperations counts service operations by outcome. Failures carry the
	// error kind as outcome.
	UserOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitable",
			Name:      "user_operations_total",
			Help:      "Total number of user service operations",
		},
		[]string{"operation", "outcome"},
	)

	// HTTPRequests counts served requests by route template and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitable",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	// LoginAttempts counts login attempts by outcome.
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitable",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	once sync.Once
)

// Init registers all collectors with the default registry. Safe to call more
// than once.
func Init() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(UserOperations)
		prometheus.DefaultRegisterer.Register(HTTPRequests)
		prometheus.DefaultRegisterer.Register(LoginAttempts)
	})
}
