package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store is the blob storage collaborator.
type Store interface {
	Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) (string, error)
	PublicURL(bucket, key string) string
}

var ErrInvalidKey = errors.New("invalid object key")

// DiskStore keeps objects under Root/<bucket>/<key> and serves them from
// BaseURL/<bucket>/<key>.
type DiskStore struct {
	Root    string
	BaseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) resolve(bucket, key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(bucket, "/") || bucket == "" {
		return "", ErrInvalidKey
	}
	abs := filepath.Join(s.Root, bucket, filepath.FromSlash(clean))
	root := filepath.Clean(filepath.Join(s.Root, bucket))
	if !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return abs, nil
}

func (s *DiskStore) Upload(ctx context.Context, bucket, key string, r io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dest, err := s.resolve(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", err
	}
	dst, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer dst.Close()
	if _, err := io.Copy(dst, r); err != nil {
		_ = os.Remove(dest)
		return "", err
	}
	return key, nil
}

func (s *DiskStore) PublicURL(bucket, key string) string {
	return s.BaseURL + "/" + bucket + "/" + strings.TrimLeft(key, "/")
}

// Open returns the stored object for serving.
func (s *DiskStore) Open(bucket, key string) (*os.File, error) {
	p, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Delete removes a stored object. Missing objects are not an error.
func (s *DiskStore) Delete(bucket, key string) error {
	p, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
