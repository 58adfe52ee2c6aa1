package precheck

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"school_transport/internal/media"
)

// State is the single authoritative state of a Form.
type State string

const (
	Editing    State = "editing"
	Recording  State = "recording"
	Submitting State = "submitting"
	Completed  State = "completed"
	Cancelled  State = "cancelled"
)

var (
	ErrUnknownField      = errors.New("unknown checklist field")
	ErrNotEditable       = errors.New("pre-check is not editable")
	ErrNotRecording      = errors.New("no recording in progress")
	ErrAlreadyRecording  = errors.New("recording already in progress")
	ErrIncomplete        = errors.New("all checklist items must be completed")
	ErrAlreadySubmitting = errors.New("pre-check is already being submitted")
	ErrMediaIndex        = errors.New("media index out of range")
	ErrInvalidMediaKind  = errors.New("invalid media kind")
	ErrRecordingInFlight = errors.New("stop the recording first")
)

// Previews issues and revokes local preview handles for staged files.
type Previews interface {
	Create(f media.File) (string, error)
	Revoke(handle string)
}

// BatchUploader uploads every queued item, dropping the ones that fail.
type BatchUploader interface {
	UploadAll(ctx context.Context, items []media.Item, prefix string) []media.URL
}

// Attachment is one queued media item as shown to the driver.
type Attachment struct {
	ID      string     `json:"id"`
	Kind    media.Kind `json:"kind"`
	Name    string     `json:"name"`
	Size    int64      `json:"size"`
	Preview string     `json:"preview"`

	file media.File
}

// Data is what a completed pre-check hands to the session orchestrator.
type Data struct {
	Checklist
	Notes       string      `json:"notes"`
	IssuesFound string      `json:"issues_found"`
	MediaURLs   []media.URL `json:"media_urls,omitempty"`
}

// Form holds the checklist, free text and queued attachments until submit.
type Form struct {
	previews Previews
	capturer media.Capturer

	mu          sync.Mutex
	state       State
	checklist   Checklist
	notes       string
	issuesFound string
	media       []Attachment
	capture     media.Capture
}

func NewForm(previews Previews, capturer media.Capturer) *Form {
	return &Form{previews: previews, capturer: capturer, state: Editing}
}

// checklist edits and attachment changes are allowed while recording
func editable(s State) bool {
	return s == Editing || s == Recording
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Checklist() Checklist {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checklist
}

// AllChecksComplete is the submit gate.
func (f *Form) AllChecksComplete() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checklist.Complete()
}

// Toggle flips exactly one checklist item and returns its new value.
func (f *Form) Toggle(field Field) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !editable(f.state) {
		return false, ErrNotEditable
	}
	cur, err := f.checklist.Get(field)
	if err != nil {
		return false, err
	}
	_ = f.checklist.Set(field, !cur)
	return !cur, nil
}

func (f *Form) SetNotes(notes, issuesFound string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !editable(f.state) {
		return ErrNotEditable
	}
	f.notes = notes
	f.issuesFound = issuesFound
	return nil
}

// StartRecording acquires the capture device. On denial the form stays in Editing.
func (f *Form) StartRecording(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Editing:
	case Recording:
		return ErrAlreadyRecording
	default:
		return ErrNotEditable
	}
	if f.capturer == nil {
		return media.ErrCaptureUnavailable
	}
	c, err := f.capturer.Open(ctx)
	if err != nil {
		return err
	}
	f.capture = c
	f.state = Recording
	return nil
}

// WriteRecording appends captured bytes to the in-progress recording.
func (f *Form) WriteRecording(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Recording || f.capture == nil {
		return ErrNotRecording
	}
	_, err := f.capture.Write(p)
	return err
}

// StopRecording finalizes the capture into one video attachment. The device
// is released on every path and the form returns to Editing.
func (f *Form) StopRecording() (Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Recording || f.capture == nil {
		return Attachment{}, ErrNotRecording
	}
	c := f.capture
	f.capture = nil
	f.state = Editing
	defer c.Release()

	file, err := c.Finish()
	if err != nil {
		return Attachment{}, fmt.Errorf("finalize recording: %w", err)
	}
	return f.appendLocked(media.Video, file)
}

// SelectVideoFile appends one uploaded video.
func (f *Form) SelectVideoFile(file media.File) (Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !editable(f.state) {
		return Attachment{}, ErrNotEditable
	}
	return f.appendLocked(media.Video, file)
}

// SelectImageFiles appends each image in order. Existing attachments are kept.
func (f *Form) SelectImageFiles(files []media.File) ([]Attachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !editable(f.state) {
		return nil, ErrNotEditable
	}
	out := make([]Attachment, 0, len(files))
	for _, file := range files {
		a, err := f.appendLocked(media.Image, file)
		if err != nil {
			return out, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *Form) appendLocked(kind media.Kind, file media.File) (Attachment, error) {
	if !kind.Valid() {
		return Attachment{}, ErrInvalidMediaKind
	}
	var handle string
	if f.previews != nil {
		h, err := f.previews.Create(file)
		if err != nil {
			return Attachment{}, fmt.Errorf("create preview: %w", err)
		}
		handle = h
	}
	a := Attachment{
		ID:      uuid.NewString(),
		Kind:    kind,
		Name:    file.Name,
		Size:    file.Size,
		Preview: handle,
		file:    file,
	}
	f.media = append(f.media, a)
	return a, nil
}

// Media returns a snapshot of the queued attachments.
func (f *Form) Media() []Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Attachment, len(f.media))
	copy(out, f.media)
	return out
}

// RemoveMedia drops exactly one attachment and revokes its preview.
func (f *Form) RemoveMedia(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !editable(f.state) {
		return ErrNotEditable
	}
	if index < 0 || index >= len(f.media) {
		return ErrMediaIndex
	}
	removed := f.media[index]
	f.media = append(f.media[:index:index], f.media[index+1:]...)
	f.revoke(removed)
	return nil
}

func (f *Form) revoke(a Attachment) {
	if f.previews != nil && a.Preview != "" {
		f.previews.Revoke(a.Preview)
	}
}

// Submit uploads all queued media and returns the finalized pre-check.
// Items that fail to upload are left out of MediaURLs.
func (f *Form) Submit(ctx context.Context, uploader BatchUploader, prefix string) (Data, error) {
	f.mu.Lock()
	switch {
	case f.state == Submitting:
		f.mu.Unlock()
		return Data{}, ErrAlreadySubmitting
	case f.state == Recording:
		f.mu.Unlock()
		return Data{}, ErrRecordingInFlight
	case f.state != Editing:
		f.mu.Unlock()
		return Data{}, ErrNotEditable
	case !f.checklist.Complete():
		f.mu.Unlock()
		return Data{}, ErrIncomplete
	}
	f.state = Submitting
	data := Data{Checklist: f.checklist, Notes: f.notes, IssuesFound: f.issuesFound}
	items := make([]media.Item, 0, len(f.media))
	for _, a := range f.media {
		items = append(items, media.Item{Kind: a.Kind, File: a.file})
	}
	f.mu.Unlock()

	if len(items) > 0 && uploader != nil {
		data.MediaURLs = uploader.UploadAll(ctx, items, prefix)
		if len(data.MediaURLs) < len(items) {
			logrus.WithFields(logrus.Fields{
				"queued":   len(items),
				"uploaded": len(data.MediaURLs),
			}).Warn("pre-check submitted with some media dropped")
		}
	}
	if len(data.MediaURLs) == 0 {
		data.MediaURLs = nil
	}

	f.mu.Lock()
	f.state = Completed
	f.releaseLocked()
	f.mu.Unlock()
	return data, nil
}

// Cancel discards everything. It is refused while recording or submitting.
func (f *Form) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Editing {
		return ErrNotEditable
	}
	f.state = Cancelled
	f.checklist = Checklist{}
	f.notes, f.issuesFound = "", ""
	f.releaseLocked()
	return nil
}

// Close tears the form down from any state, stopping a live capture and
// revoking every outstanding preview. It is idempotent.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		// Submit releases everything once its uploads finish
		return
	}
	if f.state == Editing || f.state == Recording {
		f.state = Cancelled
	}
	f.releaseLocked()
}

func (f *Form) releaseLocked() {
	if f.capture != nil {
		f.capture.Release()
		f.capture = nil
	}
	for _, a := range f.media {
		f.revoke(a)
	}
	f.media = nil
}
