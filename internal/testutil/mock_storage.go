// mock_storage.go - Mock collaborators for orchestration tests
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/settlement-form/backend/internal/drive"
	"github.com/settlement-form/backend/internal/ledger"
	"github.com/settlement-form/backend/internal/models"
	"github.com/settlement-form/backend/internal/notify"
	"github.com/settlement-form/backend/internal/records"
)

// MockRecords implements records.Store in memory
type MockRecords struct {
	mu      sync.RWMutex
	records map[string]*models.Settlement

	CreateErr error
	UpdateErr error

	CreateCalls int
	UpdateCalls int
}

// NewMockRecords creates an empty record store
func NewMockRecords() *MockRecords {
	return &MockRecords{records: make(map[string]*models.Settlement)}
}

func (m *MockRecords) Create(_ context.Context, s *models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	s.ID = generateTestID("rec")
	s.CreatedAt = time.Now().UTC()
	m.records[s.ID] = s.Clone()
	return nil
}

func (m *MockRecords) UpdateFiles(_ context.Context, id string, files []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	rec, ok := m.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", records.ErrNotFound, id)
	}
	rec.Files = append([]string{}, files...)
	return nil
}

func (m *MockRecords) Get(_ context.Context, id string) (*models.Settlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", records.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (m *MockRecords) Close() error { return nil }

// Counts returns create and update call counts
func (m *MockRecords) Counts() (creates, updates int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CreateCalls, m.UpdateCalls
}

// MockNotifier records every message it is asked to send
type MockNotifier struct {
	mu   sync.Mutex
	Err  error
	Sent []notify.Message
}

func (m *MockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, msg)
	return m.Err
}

// Calls returns the number of Send calls
func (m *MockNotifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// MockDrive implements drive.Service with per-attachment latency and failure injection
type MockDrive struct {
	mu      sync.Mutex
	folders map[string][2]string // id -> name, parent
	files   map[string]string    // id -> attachment name

	// Delays and Failures are keyed by attachment name
	Delays   map[string]time.Duration
	Failures map[string]error
	FindErr  error

	FindCalls         int
	CreateFolderCalls int
	CreateFileCalls   int
	Completed         []string // attachment names in completion order
}

// NewMockDrive creates an empty drive
func NewMockDrive() *MockDrive {
	return &MockDrive{
		folders:  make(map[string][2]string),
		files:    make(map[string]string),
		Delays:   make(map[string]time.Duration),
		Failures: make(map[string]error),
	}
}

func (m *MockDrive) FindFolders(_ context.Context, name, parentID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindCalls++
	if m.FindErr != nil {
		return nil, m.FindErr
	}
	var ids []string
	for id, f := range m.folders {
		if f[0] == name && f[1] == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MockDrive) CreateFolder(_ context.Context, name, parentID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateFolderCalls++
	id := generateTestID("folder")
	m.folders[id] = [2]string{name, parentID}
	return id, nil
}

func (m *MockDrive) CreateFile(ctx context.Context, folderID string, a models.Attachment) (string, error) {
	m.mu.Lock()
	m.CreateFileCalls++
	delay := m.Delays[a.Name]
	failure := m.Failures[a.Name]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if failure != nil {
		return "", failure
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.folders[folderID]; !ok {
		return "", errors.New("folder not found")
	}
	id := "file-" + a.Name
	m.files[id] = a.Name
	m.Completed = append(m.Completed, a.Name)
	return id, nil
}

// AddFolder seeds an existing folder
func (m *MockDrive) AddFolder(id, name, parentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.folders[id] = [2]string{name, parentID}
}

// FolderCount returns the number of folders
func (m *MockDrive) FolderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.folders)
}

// CompletionOrder returns attachment names in the order uploads finished
func (m *MockDrive) CompletionOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Completed...)
}

// MockLedger keeps appended records in memory
type MockLedger struct {
	mu   sync.Mutex
	Err  error
	Rows []*models.Settlement
}

func (m *MockLedger) Append(_ context.Context, rec *models.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Rows = append(m.Rows, rec.Clone())
	return nil
}

// RowCount returns the number of appended rows
func (m *MockLedger) RowCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Rows)
}

// LastRow returns the most recent row, or nil
func (m *MockLedger) LastRow() *models.Settlement {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Rows) == 0 {
		return nil
	}
	return m.Rows[len(m.Rows)-1]
}

// Ensure mocks implement their interfaces
var (
	_ records.Store   = (*MockRecords)(nil)
	_ notify.Notifier = (*MockNotifier)(nil)
	_ drive.Service   = (*MockDrive)(nil)
	_ ledger.Appender = (*MockLedger)(nil)
)

var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID(prefix string) string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("%s-%d", prefix, testIDCounter)
}
