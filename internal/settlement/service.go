// Package settlement sequences the side effects of one form submission.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/settlement-form/backend/internal/metrics"
	"github.com/settlement-form/backend/internal/models"
	"github.com/settlement-form/backend/internal/notify"
	"github.com/settlement-form/backend/internal/records"
	"github.com/settlement-form/backend/internal/upload"
)

var (
	// ErrPersist marks a failure to create the record.
	ErrPersist = errors.New("persist settlement")
	// ErrNotify marks a failure to send the confirmation. The record exists.
	ErrNotify = errors.New("send confirmation")
)

// Background starts the post-response stage for a stored record.
type Background interface {
	StartJob(rec *models.Settlement, attachments []models.Attachment) *upload.Job
}

// Service is the submission entry point.
type Service struct {
	records    records.Store
	notifier   notify.Notifier
	background Background
	template   notify.Template
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithTemplate(t notify.Template) Option {
	return func(s *Service) { s.template = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(store records.Store, notifier notify.Notifier, background Background, opts ...Option) *Service {
	s := &Service{
		records:    store,
		notifier:   notifier,
		background: background,
		template:   notify.DefaultTemplate,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "settlement")
	return s
}

// Submit persists the form, emails the confirmation and hands the record to
// the background stage. The returned snapshot always has an empty file list.
//
// A persistence failure stops before any other side effect. A notification
// failure leaves the stored record in place and starts no background job.
func (s *Service) Submit(ctx context.Context, form models.Form, attachments []models.Attachment) (*models.Settlement, *upload.Job, error) {
	rec := models.NewSettlement(form)
	if err := s.records.Create(ctx, rec); err != nil {
		s.metrics.Submission(metrics.OutcomePersistError)
		s.logger.Error("failed to save settlement", "project", form.Project, "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	snapshot := rec.Clone()

	msg := s.template.Confirmation(snapshot, attachments)
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.metrics.Submission(metrics.OutcomeNotifyError)
		s.logger.Error("failed to send confirmation", "settlement", rec.ID, "to", msg.To, "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrNotify, err)
	}

	job := s.background.StartJob(rec, attachments)
	s.metrics.Submission(metrics.OutcomeSuccess)
	s.logger.Info("settlement submitted",
		"settlement", rec.ID, "project", rec.Project, "attachments", len(attachments), "job", job.ID)

	return snapshot, job, nil
}

// Get returns the stored record.
func (s *Service) Get(ctx context.Context, id string) (*models.Settlement, error) {
	return s.records.Get(ctx, id)
}
