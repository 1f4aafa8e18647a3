// Package jobmetrics instruments background job runs.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerDefault sync.Once
	sharedMetrics   *Metrics
)

// Metrics holds the collectors for job runs. The zero value is unusable;
// build one with NewMetrics.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers job collectors on registerer. A nil registerer
// selects the process-wide default registry; that variant is built once
// and shared, since registering the same collectors twice panics.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerDefault.Do(func() {
			sharedMetrics = newMetrics(prometheus.DefaultRegisterer)
		})
		return sharedMetrics
	}
	return newMetrics(registerer)
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_jobs_total",
			Help: "Job executions by job name and status.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhive_jobs_failures_total",
			Help: "Failed job executions by job name.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhive_job_duration_seconds",
			Help:    "Job execution duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration)
	return m
}

// Tracker times one job run from Track to End.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of the named job. Safe on a nil receiver so
// handlers can instrument unconditionally.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run's duration and outcome, passing err through so it
// can wrap a handler's return value.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	t.metrics.observe(t.job, time.Since(t.start), err)
	return err
}

func (m *Metrics) observe(job string, elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
		m.failures.WithLabelValues(job).Inc()
	}
	m.runs.WithLabelValues(job, status).Inc()
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
}
