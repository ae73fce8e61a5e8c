// Package metrics holds the Prometheus collectors for submissions and
// background jobs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess      = "success"
	OutcomePersistError = "persist_error"
	OutcomeNotifyError  = "notify_error"
	OutcomeFolderError  = "folder_error"
	OutcomeUploadError  = "upload_error"
	OutcomeUpdateError  = "update_error"
	OutcomeLedgerError  = "ledger_error"
)

type Metrics struct {
	submissions   *prometheus.CounterVec
	jobs          *prometheus.CounterVec
	uploadedFiles prometheus.Counter
	jobDuration   prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_submissions_total",
			Help: "Settlement submissions by request outcome.",
		}, []string{"outcome"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_background_jobs_total",
			Help: "Background folder, upload and ledger jobs by outcome.",
		}, []string{"outcome"}),
		uploadedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_uploaded_files_total",
			Help: "Attachments uploaded to the file store.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "settlement_background_duration_seconds",
			Help:    "Duration of background jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
	reg.MustRegister(m.submissions, m.jobs, m.uploadedFiles, m.jobDuration)
	return m
}

func (m *Metrics) Submission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// JobFinished records a background job outcome and its duration.
func (m *Metrics) JobFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(outcome).Inc()
	m.jobDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) FilesUploaded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadedFiles.Add(float64(n))
}
