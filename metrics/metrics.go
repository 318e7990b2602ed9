// Package metrics exports pool statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/tickforge/jobpool/core"
)

// Collector exposes a pool's point-in-time statistics as gauges. It
// reads Pool.Stats on every scrape and holds no state of its own.
type Collector struct {
	pool *core.Pool

	poolSize         *prometheus.Desc
	activeWorkers    *prometheus.Desc
	queuedJobs       *prometheus.Desc
	pendingCallbacks *prometheus.Desc
}

// NewCollector creates a collector for the given pool. Register it
// with a prometheus.Registerer to expose the metrics.
func NewCollector(pool *core.Pool) *Collector {
	return &Collector{
		pool: pool,
		poolSize: prometheus.NewDesc(
			"jobpool_workers",
			"Configured, fixed number of workers in the pool.",
			nil, nil,
		),
		activeWorkers: prometheus.NewDesc(
			"jobpool_active_workers",
			"Number of workers currently executing a job.",
			nil, nil,
		),
		queuedJobs: prometheus.NewDesc(
			"jobpool_queued_jobs",
			"Jobs accepted but not yet started, summed across workers.",
			nil, nil,
		),
		pendingCallbacks: prometheus.NewDesc(
			"jobpool_pending_callbacks",
			"Callback thunks queued and awaiting a host drain.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.poolSize
	ch <- c.activeWorkers
	ch <- c.queuedJobs
	ch <- c.pendingCallbacks
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.poolSize, prometheus.GaugeValue, float64(s.PoolSize))
	ch <- prometheus.MustNewConstMetric(c.activeWorkers, prometheus.GaugeValue, float64(s.ActiveWorkers))
	ch <- prometheus.MustNewConstMetric(c.queuedJobs, prometheus.GaugeValue, float64(s.QueuedJobs))
	ch <- prometheus.MustNewConstMetric(c.pendingCallbacks, prometheus.GaugeValue, float64(s.PendingCallbacks))
}

// Recorder counts terminal job outcomes by mode. Wire it to a pool
// with core.WithObserver(rec.Observe); observers run on worker
// goroutines and CounterVec is safe for that.
type Recorder struct {
	jobs      *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// NewRecorder creates a recorder with zero-initialized counters.
func NewRecorder() *Recorder {
	r := &Recorder{
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobpool_jobs_total",
				Help: "Total jobs that reached a terminal outcome.",
			},
			[]string{"mode", "outcome"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobpool_job_duration_seconds",
				Help:    "Time from submission to terminal outcome, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
	}

	// Pre-initialize label combinations so they appear in /metrics
	// with value 0 from startup, rather than only after first
	// observation.
	for _, mode := range []core.Mode{core.ModeSync, core.ModeAsync, core.ModeSyncStream, core.ModeAsyncStream} {
		for _, outcome := range []core.Outcome{core.OutcomeCompleted, core.OutcomeFailed, core.OutcomeCancelled} {
			r.jobs.WithLabelValues(mode.String(), outcome.String())
		}
	}

	return r
}

// Observe records a terminal job outcome.
func (r *Recorder) Observe(ev core.JobEvent) {
	r.jobs.WithLabelValues(ev.Mode.String(), ev.Outcome.String()).Inc()
	r.durations.WithLabelValues(ev.Mode.String()).Observe(ev.Duration.Seconds())
}

// Describe implements prometheus.Collector.
func (r *Recorder) Describe(ch chan<- *prometheus.Desc) {
	r.jobs.Describe(ch)
	r.durations.Describe(ch)
}

// Collect implements prometheus.Collector.
func (r *Recorder) Collect(ch chan<- prometheus.Metric) {
	r.jobs.Collect(ch)
	r.durations.Collect(ch)
}
