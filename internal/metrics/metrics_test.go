package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Submission(OutcomeSuccess)
	m.Submission(OutcomeSuccess)
	m.Submission(OutcomeNotifyError)
	m.JobFinished(OutcomeUploadError, 2*time.Second)
	m.FilesUploaded(3)
	m.FilesUploaded(0)

	assert.Equal(t, 2.0, promtest.ToFloat64(m.submissions.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.submissions.WithLabelValues(OutcomeNotifyError)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.jobs.WithLabelValues(OutcomeUploadError)))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.uploadedFiles))
	assert.Equal(t, 1, promtest.CollectAndCount(m.jobDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Submission(OutcomeSuccess)
		m.JobFinished(OutcomeSuccess, time.Second)
		m.FilesUploaded(1)
	})
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
