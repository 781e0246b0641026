package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sale module. Tracks registration
// outcomes and the critical-path duration of the sale transaction.
type Metrics struct {
	SalesRegistered      prometheus.Counter
	SaleFailures         *prometheus.CounterVec
	RegisterSaleDuration prometheus.Histogram
}

// New creates a new Metrics instance with all sale module metrics registered.
func New() *Metrics {
	return &Metrics{
		SalesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tienda_sales_registered_total",
			Help: "Total number of successfully registered sales",
		}),
		SaleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tienda_sale_failures_total",
			Help: "Failed sale registrations by reason",
		}, []string{"reason"}),
		RegisterSaleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tienda_register_sale_duration_seconds",
			Help:    "Duration of RegisterSale operations (validation through commit)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRegistered records a successful sale registration.
func (m *Metrics) IncrementRegistered() {
	m.SalesRegistered.Inc()
}

// IncrementFailure records a failed registration with its reason.
func (m *Metrics) IncrementFailure(reason string) {
	m.SaleFailures.WithLabelValues(reason).Inc()
}

// ObserveRegisterSale records the duration of a RegisterSale operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRegisterSale(start time.Time) {
	m.RegisterSaleDuration.Observe(time.Since(start).Seconds())
}
