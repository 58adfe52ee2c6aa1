package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Staging holds uploaded-but-not-submitted attachments on local disk. Each
// staged file is addressed by a preview handle that can be revoked once.
type Staging struct {
	dir     string
	maxSize int64

	mu      sync.Mutex
	handles map[string]string
}

func NewStaging(dir string, maxSize int64) (*Staging, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Staging{dir: dir, maxSize: maxSize, handles: make(map[string]string)}, nil
}

func (s *Staging) Dir() string { return s.dir }

var ErrFileTooLarge = errors.New("file too large")

// Save copies r into a new staged file.
func (s *Staging) Save(name, contentType string, r io.Reader) (File, error) {
	dst, err := os.CreateTemp(s.dir, "stage-*"+filepath.Ext(name))
	if err != nil {
		return File{}, err
	}
	defer dst.Close()

	limit := s.maxSize
	if limit <= 0 {
		limit = 1 << 62
	}
	n, err := io.Copy(dst, io.LimitReader(r, limit+1))
	if err == nil && n > limit {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = os.Remove(dst.Name())
		return File{}, err
	}
	return File{Name: name, ContentType: contentType, Size: n, Path: dst.Name()}, nil
}

// Create registers a preview handle for a staged file.
func (s *Staging) Create(f File) (string, error) {
	if _, err := os.Stat(f.Path); err != nil {
		return "", err
	}
	h := uuid.NewString()
	s.mu.Lock()
	s.handles[h] = f.Path
	s.mu.Unlock()
	return h, nil
}

// Lookup resolves a live handle to its staged path.
func (s *Staging) Lookup(handle string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.handles[handle]
	return p, ok
}

// Revoke drops the handle and deletes the staged file. Unknown handles are ignored.
func (s *Staging) Revoke(handle string) {
	s.mu.Lock()
	p, ok := s.handles[handle]
	delete(s.handles, handle)
	s.mu.Unlock()
	if ok {
		_ = os.Remove(p)
	}
}

// Live reports how many handles are still outstanding.
func (s *Staging) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
