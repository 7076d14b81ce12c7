package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CronJobMetrics tracks maintenance job runs.
type CronJobMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewCronJobMetrics registers cron_job_runs_total and cron_job_duration_seconds.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Maintenance job runs by outcome.",
	}, []string{"job", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Maintenance job wall time.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"job"})
	reg.MustRegister(runs, duration)
	return &CronJobMetrics{runs: runs, duration: duration}
}

func (c *CronJobMetrics) ObserveDuration(job string, elapsed time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(elapsed.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) { c.inc(job, "ok") }

func (c *CronJobMetrics) IncFailure(job string) { c.inc(job, "error") }

func (c *CronJobMetrics) inc(job, outcome string) {
	if c == nil || c.runs == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), outcome).Inc()
}
