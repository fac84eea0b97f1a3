// Package imagestore keeps uploaded place and user images on local disk.
package imagestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/louisbranch/places/internal/platform/errors"
	"github.com/louisbranch/places/internal/platform/id"
)

// MaxBytes is the largest accepted upload.
const MaxBytes = 500000

// DefaultPrefix is the public path prefix of stored image refs.
const DefaultPrefix = "uploads/images"

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpeg",
}

var (
	// ErrInvalidImage is returned for uploads that are not PNG or JPEG.
	ErrInvalidImage = apperrors.WithMetadata(apperrors.CodeInvalidInput, "Invalid mime type!", map[string]string{"Field": "image"})
	// ErrImageTooLarge is returned for uploads above MaxBytes.
	ErrImageTooLarge = apperrors.WithMetadata(apperrors.CodeInvalidInput, "File too large!", map[string]string{"Field": "image"})
)

// DiskStore writes images under Dir and hands out refs under Prefix.
type DiskStore struct {
	dir         string
	prefix      string
	idGenerator func() (string, error)
}

// NewDiskStore creates dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("image dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DiskStore{dir: dir, prefix: DefaultPrefix, idGenerator: id.NewID}, nil
}

// Dir returns the directory images are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save stores the image read from r and returns its ref.
func (s *DiskStore) Save(ctx context.Context, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(data) > MaxBytes {
		return "", ErrImageTooLarge
	}
	ext, ok := extensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrInvalidImage
	}

	name, err := s.idGenerator()
	if err != nil {
		return "", fmt.Errorf("generate image name: %w", err)
	}
	name += ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path.Join(s.prefix, name), nil
}

// Delete removes the image behind ref. Missing files are not an error.
func (s *DiskStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.fileName(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func (s *DiskStore) fileName(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	name, ok := strings.CutPrefix(ref, s.prefix+"/")
	if !ok || name == "" || name != path.Base(name) || name == ".." || strings.Contains(name, `\`) {
		return "", fmt.Errorf("image ref %q is outside %s", ref, s.prefix)
	}
	return name, nil
}
