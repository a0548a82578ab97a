package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsScheduled       prometheus.Counter
	jobsUnscheduled     *prometheus.CounterVec
	offersSent          prometheus.Counter
	offersFailed        prometheus.Counter
	fallbackAttempts    prometheus.Counter
	preflightFailures   prometheus.Counter
	batchDuration       prometheus.Histogram
	candidatesEvaluated prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Counter, prometheus.Histogram, prometheus.Histogram) {
	sched := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batch_jobs_scheduled_total",
		Help: "Jobs that received a proposal during batch scheduling",
	})
	unsched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_jobs_unscheduled_total",
		Help: "Jobs that could not be scheduled, by reason",
	}, []string{"reason"})
	sent := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "offers_sent_total",
		Help: "Offers successfully submitted",
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "offers_failed_total",
		Help: "Proposals that exhausted every candidate at submission",
	})
	fb := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "offer_fallback_attempts_total",
		Help: "Delivery attempts made against fallback candidates",
	})
	pf := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preflight_failures_total",
		Help: "Proposals failing the authoritative preflight re-check",
	})
	dur := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_run_duration_seconds",
		Help:    "Wall time of a batch scheduling run",
		Buckets: prometheus.DefBuckets,
	})
	cand := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "batch_candidates_per_job",
		Help:    "Ranked candidates evaluated per job",
		Buckets: []float64{1, 2, 3, 4, 6, 8, 12},
	})
	return sched, unsched, sent, failed, fb, pf, dur, cand
}

func init() {
	jobsScheduled, jobsUnscheduled, offersSent, offersFailed, fallbackAttempts, preflightFailures, batchDuration, candidatesEvaluated = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduling metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(jobsScheduled, jobsUnscheduled, offersSent, offersFailed,
		fallbackAttempts, preflightFailures, batchDuration, candidatesEvaluated)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	jobsScheduled, jobsUnscheduled, offersSent, offersFailed, fallbackAttempts, preflightFailures, batchDuration, candidatesEvaluated = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
