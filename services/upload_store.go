package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadStore stages uploaded documents on disk for the duration of an
// ingestion.
type UploadStore struct {
	Dir string // absolute path of the staging directory
}

// NewUploadStore creates dir if needed and returns a store rooted there.
func NewUploadStore(dir string) (*UploadStore, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not determine absolute path for upload dir: %w", err)
	}
	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("could not create upload dir: %w", err)
	}
	return &UploadStore{Dir: absPath}, nil
}

// sanitizeFilename keeps only the base name of an uploaded file and places it
// in a fresh subdirectory, so client-supplied names cannot escape the staging
// directory or collide while the document keeps its original name.
func (u *UploadStore) sanitizeFilename(filename string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid filename %q", filename)
	}
	if strings.ToLower(filepath.Ext(base)) != ".pdf" {
		return "", fmt.Errorf("%w: filename must end with .pdf", ErrExtraction)
	}
	cleanPath := filepath.Join(u.Dir, uuid.New().String(), base)
	if !strings.HasPrefix(cleanPath, u.Dir+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid filename, attempts to escape upload directory")
	}
	return cleanPath, nil
}

// Save copies r into the staging directory and returns the staged path.
func (u *UploadStore) Save(filename string, r io.Reader) (string, error) {
	path, err := u.sanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	if err := os.Mkdir(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		os.Remove(filepath.Dir(path))
		return "", fmt.Errorf("failed to create staged file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		u.Remove(path)
		return "", fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		u.Remove(path)
		return "", fmt.Errorf("failed to close staged file: %w", err)
	}
	return path, nil
}

// Remove deletes a staged file and its staging subdirectory. Paths outside
// the staging directory are ignored.
func (u *UploadStore) Remove(path string) error {
	if !strings.HasPrefix(path, u.Dir+string(os.PathSeparator)) {
		return nil
	}
	if err := os.Remove(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != u.Dir {
		return os.Remove(dir)
	}
	return nil
}
