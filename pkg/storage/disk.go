package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore persists uploaded images and exposes them by URL only.
type ImageStore interface {
	Save(file *multipart.FileHeader) (string, error)
}

// DiskImageStore writes uploaded images to a local directory and builds
// public URLs from the externally reachable base URL. The directory is
// expected to be served statically under /uploads.
type DiskImageStore struct {
	dir     string
	baseURL string
}

// NewDiskImageStore creates the upload directory if needed.
func NewDiskImageStore(dir, baseURL string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &DiskImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Save stores the uploaded file under a fresh name, keeping only the original
// extension, and returns its fully-qualified URL.
func (s *DiskImageStore) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.New().String() + filepath.Ext(file.Filename)
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	return s.baseURL + "/uploads/" + name, nil
}
