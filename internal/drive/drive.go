// Package drive resolves per-project folders in a cloud file store and
// uploads attachments into them.
package drive

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/settlement-form/backend/internal/models"
)

// Service is the file store capability the resolver and uploader need.
type Service interface {
	// FindFolders lists ids of folders named exactly name directly under parentID.
	// Order is whatever the backend returns.
	FindFolders(ctx context.Context, name, parentID string) ([]string, error)

	// CreateFolder creates a folder under parentID and returns its id.
	CreateFolder(ctx context.Context, name, parentID string) (string, error)

	// CreateFile stores one attachment in folderID and returns the file id.
	CreateFile(ctx context.Context, folderID string, a models.Attachment) (string, error)
}

// ResolveFolder returns the id of the folder named projectName under parentID,
// creating it when none exists. With several matches the first listed wins.
//
// Two concurrent first submissions for the same project can both miss and
// both create; duplicate folders are tolerated rather than locked against.
func ResolveFolder(ctx context.Context, svc Service, projectName, parentID string) (string, error) {
	ids, err := svc.FindFolders(ctx, projectName, parentID)
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", projectName, err)
	}
	if len(ids) > 0 {
		return ids[0], nil
	}

	id, err := svc.CreateFolder(ctx, projectName, parentID)
	if err != nil {
		return "", fmt.Errorf("create folder %q: %w", projectName, err)
	}
	return id, nil
}

// UploadFiles uploads every attachment into folderID concurrently and returns
// the file ids in input order. Any failure fails the batch; uploads that already
// finished are left in place. limit caps in-flight uploads, 0 means unlimited.
func UploadFiles(ctx context.Context, svc Service, folderID string, attachments []models.Attachment, limit int) ([]string, error) {
	ids := make([]string, len(attachments))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, a := range attachments {
		g.Go(func() error {
			id, err := svc.CreateFile(gctx, folderID, a)
			if err != nil {
				return fmt.Errorf("upload %q: %w", a.Name, err)
			}
			ids[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ids, nil
}
