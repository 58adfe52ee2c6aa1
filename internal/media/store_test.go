package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	key, err := s.Upload(context.Background(), "vehicle-documents", "pre-checks/1/x.jpg", strings.NewReader("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got := s.PublicURL("vehicle-documents", key); got != "http://localhost:8080/files/vehicle-documents/pre-checks/1/x.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
	f, err := s.Open("vehicle-documents", key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	b, _ := io.ReadAll(f)
	if string(b) != "img" {
		t.Fatalf("expected body img, got %q", b)
	}
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	s, _ := NewDiskStore(t.TempDir(), "")
	if _, err := s.Upload(context.Background(), "../etc", "x", strings.NewReader(""), ""); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected invalid key for bucket traversal, got %v", err)
	}
	// cleaned keys stay inside the bucket
	if _, err := s.Upload(context.Background(), "b", "../../x.txt", strings.NewReader("z"), ""); err != nil {
		t.Fatalf("expected cleaned key to be stored, got %v", err)
	}
	if _, err := s.Open("b", "x.txt"); err != nil {
		t.Fatalf("expected cleaned key inside bucket: %v", err)
	}
}
