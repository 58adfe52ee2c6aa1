package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrCaptureUnavailable is returned when a recording device cannot be acquired.
var ErrCaptureUnavailable = errors.New("camera or microphone unavailable")

// Capture is an in-progress recording. Release must be safe to call after
// Finish and more than once.
type Capture interface {
	Write(p []byte) (int, error)
	Finish() (File, error)
	Release()
}

// Capturer acquires recording devices.
type Capturer interface {
	Open(ctx context.Context) (Capture, error)
}

// StreamCapturer records streamed chunks into a staging directory. The
// device is exclusive: a second Open fails until the first is released.
type StreamCapturer struct {
	dir         string
	contentType string

	mu   sync.Mutex
	held bool
}

func NewStreamCapturer(dir, contentType string) *StreamCapturer {
	if contentType == "" {
		contentType = "video/webm"
	}
	return &StreamCapturer{dir: dir, contentType: contentType}
}

func (c *StreamCapturer) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		return nil, fmt.Errorf("%w: device busy", ErrCaptureUnavailable)
	}
	f, err := os.CreateTemp(c.dir, "capture-*.webm")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}
	c.held = true
	return &streamCapture{owner: c, file: f}, nil
}

func (c *StreamCapturer) release() {
	c.mu.Lock()
	c.held = false
	c.mu.Unlock()
}

type streamCapture struct {
	owner *StreamCapturer

	mu       sync.Mutex
	file     *os.File
	size     int64
	finished bool
	released bool
}

func (s *streamCapture) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.released {
		return 0, errors.New("capture closed")
	}
	n, err := s.file.Write(p)
	s.size += int64(n)
	return n, err
}

func (s *streamCapture) Finish() (File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished || s.released {
		return File{}, errors.New("capture closed")
	}
	s.finished = true
	if err := s.file.Close(); err != nil {
		return File{}, err
	}
	if s.size == 0 {
		return File{}, errors.New("empty recording")
	}
	return File{
		Name:        "recording.webm",
		ContentType: s.owner.contentType,
		Size:        s.size,
		Path:        s.file.Name(),
	}, nil
}

// Release frees the device. An unfinished or failed recording is deleted.
func (s *streamCapture) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return
	}
	s.released = true
	if !s.finished {
		_ = s.file.Close()
		_ = os.Remove(s.file.Name())
	} else if s.size == 0 {
		_ = os.Remove(s.file.Name())
	}
	s.owner.release()
}
