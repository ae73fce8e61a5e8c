// Package storage implements a directory-backed drive used when no cloud
// credentials are configured.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/settlement-form/backend/internal/drive"
	"github.com/settlement-form/backend/internal/models"
)

const indexFile = "index.msgpack"

var _ drive.Service = (*LocalStore)(nil)

// LocalStore keeps each folder as a directory named by its id and each file
// under its folder. Folder and file metadata live in a msgpack index at the root.
type LocalStore struct {
	mu      sync.RWMutex
	rootDir string
	folders map[string]*models.FolderInfo
	files   map[string]*models.FileInfo
}

type index struct {
	Folders map[string]*models.FolderInfo `msgpack:"folders"`
	Files   map[string]*models.FileInfo   `msgpack:"files"`
}

// NewLocalStore creates a LocalStore rooted at rootDir, loading an existing index.
func NewLocalStore(rootDir string) (*LocalStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("creating drive directory: %w", err)
	}

	s := &LocalStore{
		rootDir: rootDir,
		folders: make(map[string]*models.FolderInfo),
		files:   make(map[string]*models.FileInfo),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// FindFolders returns matching folder ids, oldest first.
func (s *LocalStore) FindFolders(ctx context.Context, name, parentID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.FolderInfo
	for _, f := range s.folders {
		if f.Name == name && f.ParentID == parentID {
			matches = append(matches, f)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})

	ids := make([]string, len(matches))
	for i, f := range matches {
		ids[i] = f.ID
	}
	return ids, nil
}

// CreateFolder creates a folder directory and records it in the index.
func (s *LocalStore) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.New().String()
	if err := os.MkdirAll(filepath.Join(s.rootDir, id), 0755); err != nil {
		return "", fmt.Errorf("creating folder: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.folders[id] = &models.FolderInfo{
		ID:        id,
		Name:      name,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}
	if err := s.persistLocked(); err != nil {
		delete(s.folders, id)
		return "", err
	}
	return id, nil
}

// CreateFile writes the attachment bytes into folderID.
func (s *LocalStore) CreateFile(ctx context.Context, folderID string, a models.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	_, ok := s.folders[folderID]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("folder not found: %s", folderID)
	}

	id := uuid.New().String()
	path := filepath.Join(s.rootDir, folderID, id)
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[id] = &models.FileInfo{
		ID:         id,
		Name:       a.Name,
		FolderID:   folderID,
		MIMEType:   a.MIMEType,
		Size:       int64(len(a.Data)),
		UploadedAt: time.Now(),
	}
	if err := s.persistLocked(); err != nil {
		delete(s.files, id)
		os.Remove(path)
		return "", err
	}
	return id, nil
}

// GetFile retrieves file metadata by id.
func (s *LocalStore) GetFile(id string) (*models.FileInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[id]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", id)
	}
	return info, nil
}

// GetFilePath returns the path of a stored file.
func (s *LocalStore) GetFilePath(id string) (string, error) {
	info, err := s.GetFile(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.rootDir, info.FolderID, id), nil
}

func (s *LocalStore) load() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading drive index: %w", err)
	}

	var idx index
	if err := msgpack.Unmarshal(data, &idx); err != nil {
		return fmt.Errorf("decoding drive index: %w", err)
	}
	if idx.Folders != nil {
		s.folders = idx.Folders
	}
	if idx.Files != nil {
		s.files = idx.Files
	}
	return nil
}

// persistLocked rewrites the index atomically. Caller holds s.mu.
func (s *LocalStore) persistLocked() error {
	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(index{Folders: s.folders, Files: s.files}); err != nil {
		return fmt.Errorf("encoding drive index: %w", err)
	}

	path := filepath.Join(s.rootDir, indexFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing drive index: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing drive index: %w", err)
	}
	return nil
}
