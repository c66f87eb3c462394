package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ComputeTotal counts charge computations by trade side, instrument, and outcome.
	ComputeTotal *prometheus.CounterVec
	// ComputeNegativeNetTotal counts computations whose net amount came out negative.
	ComputeNegativeNetTotal prometheus.Counter
	// ComputeOddLotTotal counts computations that raised the odd-lot advisory.
	ComputeOddLotTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ComputeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compute_total",
			Help:      "Count of charge computation outcomes.",
		}, []string{"type", "instrument", "result"})
		ComputeNegativeNetTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compute_negative_net_total",
			Help:      "Number of computations whose net amount was negative.",
		})
		ComputeOddLotTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compute_odd_lot_total",
			Help:      "Number of computations that flagged an odd-lot quantity.",
		})

		mustRegisterCollector(reg, ComputeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ComputeTotal = v
			}
		})
		mustRegisterCollector(reg, ComputeNegativeNetTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ComputeNegativeNetTotal = v
			}
		})
		mustRegisterCollector(reg, ComputeOddLotTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				ComputeOddLotTotal = v
			}
		})
	})
}
