package drive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/settlement-form/backend/internal/models"
)

const folderMIMEType = "application/vnd.google-apps.folder"

var _ Service = (*Google)(nil)

// Google implements Service on the Drive v3 API.
type Google struct {
	files *gdrive.FilesService
}

// NewGoogle authenticates with a service account credentials file.
func NewGoogle(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*Google, error) {
	base := []option.ClientOption{option.WithScopes(gdrive.DriveScope)}
	if credentialsFile != "" {
		base = append(base, option.WithCredentialsFile(credentialsFile))
	}

	srv, err := gdrive.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create drive client: %w", err)
	}
	return &Google{files: srv.Files}, nil
}

// FindFolders queries non-trashed folders by exact name and parent.
func (g *Google) FindFolders(ctx context.Context, name, parentID string) ([]string, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), escapeQuery(name), folderMIMEType)

	res, err := g.files.List().
		Q(q).
		Fields("files(id, name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		ids = append(ids, f.Id)
	}
	return ids, nil
}

// CreateFolder creates a folder under parentID.
func (g *Google) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	f, err := g.files.Create(&gdrive.File{
		Name:     name,
		MimeType: folderMIMEType,
		Parents:  []string{parentID},
	}).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// CreateFile uploads the attachment bytes as a new file in folderID.
func (g *Google) CreateFile(ctx context.Context, folderID string, a models.Attachment) (string, error) {
	call := g.files.Create(&gdrive.File{
		Name:    a.Name,
		Parents: []string{folderID},
	})

	var mediaOpts []googleapi.MediaOption
	if a.MIMEType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(a.MIMEType))
	}

	f, err := call.Media(bytes.NewReader(a.Data), mediaOpts...).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", err
	}
	return f.Id, nil
}

// escapeQuery escapes a value for a single-quoted Drive query literal.
func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
