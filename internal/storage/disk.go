package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Content types accepted for photo uploads, with their file extensions.
var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrUnsupportedType rejects uploads that are not a known image type.
var ErrUnsupportedType = fmt.Errorf("unsupported content type")

// DiskStore writes photo files under a root directory, one uuid-named file
// per photo.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save streams an upload to disk and returns the storage path (relative to
// the root) and the byte count written.
func (s *DiskStore) Save(r io.Reader, contentType string) (string, int64, error) {
	ext, ok := photoExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(s.root, name))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create photo file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return "", 0, fmt.Errorf("failed to write photo file: %w", err)
	}
	return name, n, nil
}

// Open returns a reader for a stored photo.
func (s *DiskStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.root, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("failed to open photo %s: %w", path, err)
	}
	return f, nil
}

// Delete removes a stored photo. Missing files are not an error, so a
// record can always be cleaned up.
func (s *DiskStore) Delete(path string) error {
	err := os.Remove(filepath.Join(s.root, filepath.Base(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete photo %s: %w", path, err)
	}
	return nil
}
