// Package kiosk keeps the server side of each driver's scan-to-start view:
// one orchestrator plus, for AM starts, one pre-check form.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"school_transport/internal/media"
	"school_transport/internal/precheck"
	"school_transport/internal/session"
)

var (
	ErrWorkspaceNotFound = errors.New("kiosk workspace not found")
	ErrNoPreCheck        = errors.New("no pre-check in progress")
)

// CapturerFactory builds the recording device for a new pre-check form.
type CapturerFactory func() media.Capturer

// Workspace is one scanned token's view.
type Workspace struct {
	ID        string
	CreatedAt time.Time

	orch     *session.Orchestrator
	previews precheck.Previews
	capturer CapturerFactory
	uploader precheck.BatchUploader

	mu       sync.Mutex
	form     *precheck.Form
	lastSeen time.Time
}

func (w *Workspace) Orchestrator() *session.Orchestrator { return w.orch }

func (w *Workspace) touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// ChooseSession picks AM or PM. AM opens a fresh pre-check form.
func (w *Workspace) ChooseSession(ctx context.Context, t session.Type) (session.Decision, error) {
	dec, err := w.orch.ChooseSessionType(ctx, t)
	if err != nil {
		return dec, err
	}
	if dec.PreCheckRequired {
		var capt media.Capturer
		if w.capturer != nil {
			capt = w.capturer()
		}
		w.mu.Lock()
		if w.form != nil {
			w.form.Close()
		}
		w.form = precheck.NewForm(w.previews, capt)
		w.mu.Unlock()
	}
	return dec, nil
}

// PreCheck returns the active form.
func (w *Workspace) PreCheck() (*precheck.Form, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form == nil {
		return nil, ErrNoPreCheck
	}
	return w.form, nil
}

// SubmitPreCheck uploads the form's media, then starts the AM session and
// records the pre-check against it.
func (w *Workspace) SubmitPreCheck(ctx context.Context) (*session.StartedSession, precheck.Data, error) {
	form, err := w.PreCheck()
	if err != nil {
		return nil, precheck.Data{}, err
	}
	prefix := "pre-checks"
	if d := w.orch.Driver(); d != nil {
		prefix = fmt.Sprintf("pre-checks/%d", d.ID)
	}
	data, err := form.Submit(ctx, w.uploader, prefix)
	if err != nil {
		return nil, precheck.Data{}, err
	}

	w.mu.Lock()
	if w.form == form {
		w.form = nil
	}
	w.mu.Unlock()

	started, err := w.orch.StartSessionAfterPreCheck(ctx, data)
	return started, data, err
}

// CancelPreCheck discards the form; no session is started.
func (w *Workspace) CancelPreCheck() error {
	form, err := w.PreCheck()
	if err != nil {
		return err
	}
	if err := form.Cancel(); err != nil {
		return err
	}
	w.mu.Lock()
	if w.form == form {
		w.form = nil
	}
	w.mu.Unlock()
	return w.orch.CancelPreCheck()
}

// Close releases everything the workspace holds.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form != nil {
		w.form.Close()
		w.form = nil
	}
}

// Registry owns every open workspace.
type Registry struct {
	backend  session.Backend
	notifier session.Notifier
	previews precheck.Previews
	capturer CapturerFactory
	uploader precheck.BatchUploader
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

type Deps struct {
	Backend  session.Backend
	Notifier session.Notifier
	Previews precheck.Previews
	Capturer CapturerFactory
	Uploader precheck.BatchUploader
}

func NewRegistry(d Deps) *Registry {
	return &Registry{
		backend:    d.Backend,
		notifier:   d.Notifier,
		previews:   d.Previews,
		capturer:   d.Capturer,
		uploader:   d.Uploader,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Open resolves a scanned token. Resolution failures do not create a workspace.
func (r *Registry) Open(ctx context.Context, token string) (*Workspace, error) {
	orch := session.NewOrchestrator(r.backend, r.notifier)
	if _, err := orch.LoadDriver(ctx, token); err != nil {
		return nil, err
	}
	now := r.now()
	w := &Workspace{
		ID:        uuid.NewString(),
		CreatedAt: now,
		orch:      orch,
		previews:  r.previews,
		capturer:  r.capturer,
		uploader:  r.uploader,
		lastSeen:  now,
	}
	r.mu.Lock()
	r.workspaces[w.ID] = w
	r.mu.Unlock()
	return w, nil
}

// Get looks up a workspace and marks it as recently used.
func (r *Registry) Get(id string) (*Workspace, error) {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	r.mu.Unlock()
	if !ok {
		return nil, ErrWorkspaceNotFound
	}
	w.touch(r.now())
	return w, nil
}

// Close tears a workspace down.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	w, ok := r.workspaces[id]
	delete(r.workspaces, id)
	r.mu.Unlock()
	if !ok {
		return ErrWorkspaceNotFound
	}
	w.Close()
	return nil
}

// Sweep closes workspaces idle for longer than maxIdle and returns how many.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var stale []*Workspace
	r.mu.Lock()
	for id, w := range r.workspaces {
		if w.idleSince().Before(cutoff) {
			stale = append(stale, w)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()
	for _, w := range stale {
		w.Close()
	}
	if len(stale) > 0 {
		logrus.WithField("count", len(stale)).Info("reaped idle kiosk workspaces")
	}
	return len(stale)
}

// Len returns the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// CloseAll tears down every workspace, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := r.workspaces
	r.workspaces = make(map[string]*Workspace)
	r.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}
