// Package storage keeps attachment bytes on the local filesystem.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"civic311-be/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type LocalStore struct {
	dir     string
	maxSize int64
	allowed map[string]struct{}
}

// NewLocalStore creates dir if needed. allowed holds extensions without the
// leading dot.
func NewLocalStore(dir string, maxSize int64, allowed []string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	set := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		set[strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))] = struct{}{}
	}
	return &LocalStore{dir: dir, maxSize: maxSize, allowed: set}, nil
}

// Save validates and writes the upload under a fresh uuid name that keeps the
// original extension.
func (s *LocalStore) Save(ctx context.Context, originalName string, r io.Reader) (models.StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := s.allowed[strings.TrimPrefix(ext, ".")]; !ok || ext == "" {
		return models.StoredFile{}, fmt.Errorf("%w: file type %q is not allowed", models.ErrInvalidArgument, ext)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return models.StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return models.StoredFile{}, fmt.Errorf("%w: file exceeds %d bytes", models.ErrInvalidArgument, s.maxSize)
	}
	if len(data) == 0 {
		return models.StoredFile{}, fmt.Errorf("%w: file is empty", models.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return models.StoredFile{}, err
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return models.StoredFile{}, fmt.Errorf("write upload: %w", err)
	}

	return models.StoredFile{
		Name:     name,
		Path:     path,
		Size:     int64(len(data)),
		MimeType: mimetype.Detect(data).String(),
	}, nil
}

// Open returns the stored bytes. The name must be one produced by Save.
func (s *LocalStore) Open(name string) (io.ReadCloser, error) {
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("%w: bad file name", models.ErrInvalidArgument)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: file %s", models.ErrNotFound, name)
	}
	return f, err
}

func (s *LocalStore) Remove(name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("%w: bad file name", models.ErrInvalidArgument)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
