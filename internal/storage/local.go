package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// localStore writes files under a base directory, one subfolder per usage.
type localStore struct {
	basePath string
}

// NewLocalStore creates a disk-backed FileStore rooted at basePath.
func NewLocalStore(basePath string) FileStore {
	return &localStore{basePath: basePath}
}

func (s *localStore) Store(ctx context.Context, data []byte, filename, mimeType, folder string) (StoredFile, error) {
	dir := filepath.Join(s.basePath, filepath.Clean(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("create storage folder: %w", err)
	}
	// Stored name is unique; the original name lives in attachment metadata.
	stored := uuid.NewString() + sanitizedExt(filename)
	path := filepath.Join(dir, stored)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return StoredFile{}, fmt.Errorf("write file: %w", err)
	}
	return StoredFile{FileName: stored, Path: path}, nil
}

func (s *localStore) Delete(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func sanitizedExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		return ""
	}
	return ext
}
