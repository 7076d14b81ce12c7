package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DashboardMetrics times admin statistics aggregation.
type DashboardMetrics struct {
	duration *prometheus.HistogramVec
}

// NewDashboardMetrics registers dashboard_stats_duration_seconds.
func NewDashboardMetrics(reg prometheus.Registerer) *DashboardMetrics {
	if reg == nil {
		return &DashboardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_stats_duration_seconds",
		Help:    "Time spent aggregating admin dashboard statistics.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"outcome"})
	reg.MustRegister(duration)
	return &DashboardMetrics{duration: duration}
}

// ObserveStats records one aggregation. outcome is "ok" or "error".
func (d *DashboardMetrics) ObserveStats(elapsed time.Duration, err error) {
	if d == nil || d.duration == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	d.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
