package apiclient

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Outcome label values.
const (
	OutcomeSuccess         = "success"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeNetworkError    = "network_error"
	OutcomeRejected        = "rejected"
	OutcomeError           = "error"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_api_requests_total",
			Help: "Total number of storefront API calls by outcome",
		},
		[]string{"operation", "outcome"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_api_request_duration_seconds",
			Help:    "Storefront API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apperrors.ErrUnauthenticated):
		return OutcomeUnauthenticated
	case errors.Is(err, apperrors.ErrNetwork):
		return OutcomeNetworkError
	case errors.Is(err, apperrors.ErrRemoteRejected):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

func observe(op string, err error, elapsed time.Duration) {
	apiRequestsTotal.WithLabelValues(op, outcome(err)).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}
