package models

import "time"

// FolderInfo represents a folder in the local drive store.
type FolderInfo struct {
	ID        string    `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name"`
	ParentID  string    `json:"parentId" msgpack:"parentId"`
	CreatedAt time.Time `json:"createdAt" msgpack:"createdAt"`
}

// FileInfo represents metadata about an uploaded file.
type FileInfo struct {
	ID         string    `json:"id" msgpack:"id"`
	Name       string    `json:"name" msgpack:"name"`
	FolderID   string    `json:"folderId" msgpack:"folderId"`
	MIMEType   string    `json:"mimeType" msgpack:"mimeType"`
	Size       int64     `json:"size" msgpack:"size"`
	UploadedAt time.Time `json:"uploadedAt" msgpack:"uploadedAt"`
}
