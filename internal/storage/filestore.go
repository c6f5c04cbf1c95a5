// Package storage defines the file storage collaborator used by attachment
// handling.
package storage

import "context"

// StoredFile describes a persisted file.
type StoredFile struct {
	FileName string
	Path     string
}

// FileStore stores and removes attachment payloads.
type FileStore interface {
	Store(ctx context.Context, data []byte, filename, mimeType, folder string) (StoredFile, error)
	Delete(ctx context.Context, path string) error
}
