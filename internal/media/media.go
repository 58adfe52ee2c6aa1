// Package media stages, captures and uploads the photo and video
// attachments that drivers add to a vehicle pre-check.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the attachment type recorded next to each uploaded URL.
type Kind string

const (
	Video Kind = "video"
	Image Kind = "image"
)

// Valid reports whether k is one of the known attachment kinds.
func (k Kind) Valid() bool {
	return k == Video || k == Image
}

// File is a locally staged blob waiting to be uploaded.
type File struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Path        string `json:"-"`
}

// Ext returns the lower-cased extension of the original file name without
// the dot, falling back to one derived from the content type.
func (f File) Ext() string {
	if e := strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), "."); e != "" {
		return e
	}
	switch {
	case strings.HasPrefix(f.ContentType, "video/webm"):
		return "webm"
	case strings.HasPrefix(f.ContentType, "video/mp4"):
		return "mp4"
	case strings.HasPrefix(f.ContentType, "image/png"):
		return "png"
	case strings.HasPrefix(f.ContentType, "image/"):
		return "jpg"
	case strings.HasPrefix(f.ContentType, "video/"):
		return "mp4"
	}
	return "bin"
}

// Item is one attachment queued for upload.
type Item struct {
	Kind Kind
	File File
}

// URL is the durable reference stored in vehicle_pre_checks.media_urls.
type URL struct {
	Type Kind   `json:"type"`
	URL  string `json:"url"`
}
