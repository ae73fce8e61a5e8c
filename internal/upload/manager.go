// Package upload runs the post-response stage of a settlement submission:
// folder resolution, attachment upload, record update and ledger append.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/settlement-form/backend/internal/drive"
	"github.com/settlement-form/backend/internal/ledger"
	"github.com/settlement-form/backend/internal/metrics"
	"github.com/settlement-form/backend/internal/models"
)

// Status represents the background job status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusResolving Status = "resolving"
	StatusUploading Status = "uploading"
	StatusRecording Status = "recording"
	StatusAppending Status = "appending"
	StatusComplete  Status = "complete"
	StatusError     Status = "error"
)

// Terminal reports whether no further transitions follow.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Job tracks the background stage of one submission.
type Job struct {
	ID              string     `json:"id" msgpack:"id"`
	SettlementID    string     `json:"settlementId" msgpack:"settlementId"`
	Project         string     `json:"project" msgpack:"project"`
	AttachmentCount int        `json:"attachmentCount" msgpack:"attachmentCount"`
	Status          Status     `json:"status" msgpack:"status"`
	FolderID        string     `json:"folderId,omitempty" msgpack:"folderId,omitempty"`
	Files           []string   `json:"files" msgpack:"files"`
	Error           string     `json:"error,omitempty" msgpack:"error,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" msgpack:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty" msgpack:"completedAt,omitempty"`
}

func (j *Job) clone() *Job {
	c := *j
	c.Files = append([]string{}, j.Files...)
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

// FileRecorder is the slice of the record store the stage writes through.
type FileRecorder interface {
	UpdateFiles(ctx context.Context, id string, files []string) error
}

// Options configures a Manager.
type Options struct {
	ParentFolderID    string
	Timeout           time.Duration
	UploadConcurrency int
	Metrics           *metrics.Metrics
	Logger            *slog.Logger
}

// Manager handles async background jobs.
type Manager struct {
	jobs map[string]*Job
	mu   sync.RWMutex
	wg   sync.WaitGroup

	drive   drive.Service
	records FileRecorder
	ledger  ledger.Appender

	parentID    string
	timeout     time.Duration
	concurrency int
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewManager creates a new background stage manager.
func NewManager(d drive.Service, records FileRecorder, l ledger.Appender, opts Options) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		jobs:        make(map[string]*Job),
		drive:       d,
		records:     records,
		ledger:      l,
		parentID:    opts.ParentFolderID,
		timeout:     opts.Timeout,
		concurrency: opts.UploadConcurrency,
		metrics:     opts.Metrics,
		logger:      opts.Logger.With("component", "upload"),
	}
}

// StartJob begins async processing for rec. The record is copied, so the
// caller keeps ownership of its own value. The returned job is a snapshot.
func (m *Manager) StartJob(rec *models.Settlement, attachments []models.Attachment) *Job {
	job := &Job{
		ID:              uuid.New().String(),
		SettlementID:    rec.ID,
		Project:         rec.Project,
		AttachmentCount: len(attachments),
		Status:          StatusPending,
		Files:           []string{},
		CreatedAt:       time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := job.clone()
	m.mu.Unlock()

	m.wg.Add(1)
	go m.processJob(job, rec.Clone(), attachments)

	return snapshot
}

// GetJob returns a copy of the job.
func (m *Manager) GetJob(id string) (*Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// ActiveJobs counts jobs that have not reached a terminal status.
func (m *Manager) ActiveJobs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, job := range m.jobs {
		if !job.Status.Terminal() {
			n++
		}
	}
	return n
}

// Wait blocks until every started job has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// WaitContext is Wait bounded by ctx.
func (m *Manager) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) processJob(job *Job, rec *models.Settlement, attachments []models.Attachment) {
	defer m.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	start := time.Now()
	log := m.logger.With("job", job.ID, "settlement", rec.ID, "project", rec.Project)
	log.Debug("background stage started", "attachments", len(attachments))

	m.setStatus(job, StatusResolving)
	folderID, err := drive.ResolveFolder(ctx, m.drive, rec.Project, m.parentID)
	if err != nil {
		m.fail(job, log, metrics.OutcomeFolderError, start, err)
		return
	}
	m.mu.Lock()
	job.FolderID = folderID
	m.mu.Unlock()

	m.setStatus(job, StatusUploading)
	fileIDs, err := drive.UploadFiles(ctx, m.drive, folderID, attachments, m.concurrency)
	if err != nil {
		m.fail(job, log, metrics.OutcomeUploadError, start, err)
		return
	}
	m.metrics.FilesUploaded(len(fileIDs))

	m.setStatus(job, StatusRecording)
	if err := m.records.UpdateFiles(ctx, rec.ID, fileIDs); err != nil {
		m.fail(job, log, metrics.OutcomeUpdateError, start, fmt.Errorf("update record files: %w", err))
		return
	}
	rec.Files = fileIDs
	m.mu.Lock()
	job.Files = append([]string{}, fileIDs...)
	m.mu.Unlock()

	m.setStatus(job, StatusAppending)
	if err := m.ledger.Append(ctx, rec); err != nil {
		m.fail(job, log, metrics.OutcomeLedgerError, start, err)
		return
	}

	m.markJobComplete(job)
	m.metrics.JobFinished(metrics.OutcomeSuccess, time.Since(start))
	log.Info("background stage complete", "folder", folderID, "files", len(fileIDs), "elapsed", time.Since(start))
}

func (m *Manager) setStatus(job *Job, status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Status = status
}

func (m *Manager) markJobComplete(job *Job) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job.Status = StatusComplete
	now := time.Now()
	job.CompletedAt = &now
}

func (m *Manager) fail(job *Job, log *slog.Logger, outcome string, start time.Time, err error) {
	m.mu.Lock()
	stage := job.Status
	job.Status = StatusError
	job.Error = err.Error()
	now := time.Now()
	job.CompletedAt = &now
	m.mu.Unlock()

	m.metrics.JobFinished(outcome, time.Since(start))
	log.Error("background stage failed", "stage", stage, "error", err)
}

// CleanupOldJobs removes finished jobs older than maxAge.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}
