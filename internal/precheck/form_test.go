package precheck

import (
	"context"
	"errors"
	"testing"

	"school_transport/internal/media"
)

type countingPreviews struct {
	created map[string]string
	revoked map[string]int
}

func newCountingPreviews() *countingPreviews {
	return &countingPreviews{created: map[string]string{}, revoked: map[string]int{}}
}

func (p *countingPreviews) Create(f media.File) (string, error) {
	h := f.Name
	p.created[h] = f.Path
	return h, nil
}

func (p *countingPreviews) Revoke(h string) { p.revoked[h]++ }

type stubCapture struct {
	data      []byte
	finishErr error
	released  int
}

func (c *stubCapture) Write(p []byte) (int, error) {
	c.data = append(c.data, p...)
	return len(p), nil
}

func (c *stubCapture) Finish() (media.File, error) {
	if c.finishErr != nil {
		return media.File{}, c.finishErr
	}
	return media.File{Name: "rec.webm", ContentType: "video/webm", Size: int64(len(c.data))}, nil
}

func (c *stubCapture) Release() { c.released++ }

type stubCapturer struct {
	capture *stubCapture
	err     error
}

func (s *stubCapturer) Open(context.Context) (media.Capture, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.capture, nil
}

type stubUploader struct {
	calls int
	fail  map[string]bool
}

func (u *stubUploader) UploadAll(_ context.Context, items []media.Item, prefix string) []media.URL {
	u.calls++
	var out []media.URL
	for _, it := range items {
		if u.fail[it.File.Name] {
			continue
		}
		out = append(out, media.URL{Type: it.Kind, URL: prefix + "/" + it.File.Name})
	}
	return out
}

func completeForm(t *testing.T, f *Form) {
	t.Helper()
	for _, field := range Fields {
		if _, err := f.Toggle(field); err != nil {
			t.Fatalf("toggle %s: %v", field, err)
		}
	}
}

func TestChecklistHasEighteenItems(t *testing.T) {
	if len(Fields) != 18 {
		t.Fatalf("expected 18 checklist fields, got %d", len(Fields))
	}
	seen := map[Field]bool{}
	for _, f := range Fields {
		if seen[f] {
			t.Fatalf("duplicate field %s", f)
		}
		seen[f] = true
	}
}

func TestCompletionGateAllCombinations(t *testing.T) {
	n := len(Fields)
	for mask := 0; mask < 1<<n; mask++ {
		var c Checklist
		for i, f := range Fields {
			_ = c.Set(f, mask&(1<<i) != 0)
		}
		want := mask == (1<<n)-1
		if c.Complete() != want {
			t.Fatalf("mask %b: expected complete=%v", mask, want)
		}
	}
}

func TestCompletionGateSingleFlip(t *testing.T) {
	for _, f := range Fields {
		form := NewForm(nil, nil)
		completeForm(t, form)
		if !form.AllChecksComplete() {
			t.Fatalf("expected gate open with all items ticked")
		}
		if _, err := form.Toggle(f); err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if form.AllChecksComplete() {
			t.Fatalf("expected gate closed after unticking %s", f)
		}
	}
}

func TestToggleAffectsOnlyOneField(t *testing.T) {
	form := NewForm(nil, nil)
	v, err := form.Toggle(BrakesOK)
	if err != nil || !v {
		t.Fatalf("expected brakes ticked, got %v %v", v, err)
	}
	c := form.Checklist()
	for _, f := range Fields {
		got, _ := c.Get(f)
		if got != (f == BrakesOK) {
			t.Fatalf("field %s unexpectedly %v", f, got)
		}
	}
	if _, err := form.Toggle("steering_ok"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestRemoveMediaRevokesOnce(t *testing.T) {
	pv := newCountingPreviews()
	form := NewForm(pv, nil)
	if _, err := form.SelectImageFiles([]media.File{{Name: "a"}, {Name: "b"}}); err != nil {
		t.Fatalf("select: %v", err)
	}
	if err := form.RemoveMedia(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	left := form.Media()
	if len(left) != 1 || left[0].Name != "b" {
		t.Fatalf("expected only b left, got %+v", left)
	}
	if pv.revoked["a"] != 1 || pv.revoked["b"] != 0 {
		t.Fatalf("unexpected revocations %v", pv.revoked)
	}
	form.Close()
	form.Close()
	if pv.revoked["a"] != 1 || pv.revoked["b"] != 1 {
		t.Fatalf("expected teardown to revoke b exactly once, got %v", pv.revoked)
	}
}

func TestSelectIsAppendOnly(t *testing.T) {
	form := NewForm(nil, nil)
	_, _ = form.SelectVideoFile(media.File{Name: "v"})
	_, _ = form.SelectImageFiles([]media.File{{Name: "i1"}})
	_, _ = form.SelectImageFiles([]media.File{{Name: "i2"}})
	got := form.Media()
	if len(got) != 3 || got[0].Kind != media.Video || got[2].Name != "i2" {
		t.Fatalf("unexpected media %+v", got)
	}
	if err := form.RemoveMedia(3); !errors.Is(err, ErrMediaIndex) {
		t.Fatalf("expected index error, got %v", err)
	}
}

func TestSubmitRequiresGate(t *testing.T) {
	form := NewForm(nil, nil)
	up := &stubUploader{}
	if _, err := form.Submit(context.Background(), up, "p"); !errors.Is(err, ErrIncomplete) {
		t.Fatalf("expected ErrIncomplete, got %v", err)
	}
	if up.calls != 0 || form.State() != Editing {
		t.Fatalf("expected no upload and form still editing")
	}
}

func TestSubmitPartialUploadTolerance(t *testing.T) {
	form := NewForm(newCountingPreviews(), nil)
	completeForm(t, form)
	_, _ = form.SelectImageFiles([]media.File{{Name: "1"}, {Name: "2"}, {Name: "3"}})
	up := &stubUploader{fail: map[string]bool{"2": true}}

	data, err := form.Submit(context.Background(), up, "pre-checks")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(data.MediaURLs) != 2 || data.MediaURLs[0].URL != "pre-checks/1" || data.MediaURLs[1].URL != "pre-checks/3" {
		t.Fatalf("unexpected media urls %+v", data.MediaURLs)
	}
	if form.State() != Completed {
		t.Fatalf("expected completed, got %s", form.State())
	}
	if _, err := form.Submit(context.Background(), up, "pre-checks"); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected second submit refused, got %v", err)
	}
}

func TestSubmitNoMedia(t *testing.T) {
	form := NewForm(nil, nil)
	completeForm(t, form)
	up := &stubUploader{}
	data, err := form.Submit(context.Background(), up, "x")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if data.MediaURLs != nil {
		t.Fatalf("expected nil media urls, got %v", data.MediaURLs)
	}
	if up.calls != 0 {
		t.Fatalf("expected no upload for empty media")
	}
	if !data.Complete() || data.Notes != "" || data.IssuesFound != "" {
		t.Fatalf("unexpected data %+v", data)
	}
}

func TestRecordingLifecycle(t *testing.T) {
	capture := &stubCapture{}
	form := NewForm(nil, &stubCapturer{capture: capture})
	if err := form.StartRecording(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := form.StartRecording(context.Background()); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected already recording, got %v", err)
	}
	if err := form.Cancel(); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected cancel refused while recording, got %v", err)
	}
	if _, err := form.Toggle(HornOK); err != nil {
		t.Fatalf("expected checklist editable while recording: %v", err)
	}
	_ = form.WriteRecording([]byte("frames"))
	a, err := form.StopRecording()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if a.Kind != media.Video || a.Size != 6 {
		t.Fatalf("unexpected attachment %+v", a)
	}
	if capture.released != 1 || form.State() != Editing {
		t.Fatalf("expected device released and form editing")
	}
}

func TestStopRecordingReleasesOnFailure(t *testing.T) {
	capture := &stubCapture{finishErr: errors.New("encoder crashed")}
	form := NewForm(nil, &stubCapturer{capture: capture})
	_ = form.StartRecording(context.Background())
	if _, err := form.StopRecording(); err == nil {
		t.Fatalf("expected finalize error")
	}
	if capture.released != 1 {
		t.Fatalf("expected release despite failure, got %d", capture.released)
	}
	if form.State() != Editing || len(form.Media()) != 0 {
		t.Fatalf("expected editing with no media")
	}
}

func TestStartRecordingDenied(t *testing.T) {
	form := NewForm(nil, &stubCapturer{err: media.ErrCaptureUnavailable})
	_, _ = form.Toggle(TyresOK)
	if err := form.StartRecording(context.Background()); !errors.Is(err, media.ErrCaptureUnavailable) {
		t.Fatalf("expected capability error, got %v", err)
	}
	if form.State() != Editing {
		t.Fatalf("expected editing, got %s", form.State())
	}
	if v, _ := form.Checklist().Get(TyresOK); !v {
		t.Fatalf("expected checklist preserved after denial")
	}
}

func TestCancelDiscardsState(t *testing.T) {
	pv := newCountingPreviews()
	form := NewForm(pv, nil)
	completeForm(t, form)
	_, _ = form.SelectImageFiles([]media.File{{Name: "x"}})
	if err := form.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if form.State() != Cancelled || form.AllChecksComplete() || len(form.Media()) != 0 {
		t.Fatalf("expected discarded state")
	}
	if pv.revoked["x"] != 1 {
		t.Fatalf("expected preview revoked on cancel")
	}
	if _, err := form.Toggle(TyresOK); !errors.Is(err, ErrNotEditable) {
		t.Fatalf("expected cancelled form not editable, got %v", err)
	}
}
