package media

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeStore struct {
	mu     sync.Mutex
	fail   map[string]bool
	keys   []string
	bodies map[string]string
}

func (f *fakeStore) Upload(_ context.Context, bucket, key string, r io.Reader, _ string) (string, error) {
	b, _ := io.ReadAll(r)
	if f.fail[string(b)] {
		return "", errors.New("boom")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[key] = string(b)
	return key, nil
}

func (f *fakeStore) PublicURL(bucket, key string) string {
	return "https://cdn.test/" + bucket + "/" + key
}

func stageFile(t *testing.T, dir, name, body string) File {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return File{Name: name, ContentType: "image/jpeg", Size: int64(len(body)), Path: p}
}

func TestUploadAllDropsFailuresAndKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{fail: map[string]bool{"second": true}}
	up := NewUploader(store, "vehicle-documents")

	items := []Item{
		{Kind: Video, File: stageFile(t, dir, "a.webm", "first")},
		{Kind: Image, File: stageFile(t, dir, "b.jpg", "second")},
		{Kind: Image, File: stageFile(t, dir, "c.png", "third")},
	}
	got := up.UploadAll(context.Background(), items, "pre-checks/12")
	if len(got) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(got))
	}
	if got[0].Type != Video || !strings.HasSuffix(got[0].URL, ".webm") {
		t.Fatalf("unexpected first url %+v", got[0])
	}
	if got[1].Type != Image || !strings.HasSuffix(got[1].URL, ".png") {
		t.Fatalf("unexpected second url %+v", got[1])
	}
}

func TestUploadAllSameNameNoCollision(t *testing.T) {
	dir := t.TempDir()
	store := &fakeStore{}
	up := NewUploader(store, "vehicle-documents")
	fixed := time.UnixMilli(1700000000000)
	up.now = func() time.Time { return fixed }

	a := stageFile(t, dir, "photo.jpg", "one")
	b := stageFile(t, t.TempDir(), "photo.jpg", "two")
	got := up.UploadAll(context.Background(), []Item{{Kind: Image, File: a}, {Kind: Image, File: b}}, "pre-checks")
	if len(got) != 2 {
		t.Fatalf("expected 2 urls, got %d", len(got))
	}
	if got[0].URL == got[1].URL {
		t.Fatalf("expected distinct urls, got %s twice", got[0].URL)
	}
	re := regexp.MustCompile(`^pre-checks/1700000000000_[01]_[0-9a-f]{10}\.jpg$`)
	for _, k := range store.keys {
		if !re.MatchString(k) {
			t.Fatalf("unexpected key shape %q", k)
		}
	}
}

func TestUploadAllEmpty(t *testing.T) {
	up := NewUploader(&fakeStore{}, "b")
	if got := up.UploadAll(context.Background(), nil, "x"); got != nil {
		t.Fatalf("expected nil for no items, got %v", got)
	}
}

func TestObjectKey(t *testing.T) {
	ts := time.UnixMilli(42)
	if got := ObjectKey("/a/b/", ts, 3, "rnd", "mp4"); got != "a/b/42_3_rnd.mp4" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := ObjectKey("", ts, 0, "rnd", "jpg"); got != "42_0_rnd.jpg" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestFileExtFallback(t *testing.T) {
	cases := map[File]string{
		{Name: "IMG.JPEG"}:              "jpeg",
		{ContentType: "video/webm"}:     "webm",
		{ContentType: "image/png"}:      "png",
		{ContentType: "application/x"}: "bin",
	}
	for f, want := range cases {
		if got := f.Ext(); got != want {
			t.Fatalf("%+v: expected %s, got %s", f, want, got)
		}
	}
}
