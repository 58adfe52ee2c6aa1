package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"school_transport/internal/precheck"
)

// State is the orchestrator's single authoritative state.
type State string

const (
	LoadingDriver    State = "loading_driver"
	ResolveFailed    State = "resolve_failed"
	Ready            State = "ready"
	ChoosingPreCheck State = "choosing_precheck"
	StartingSession  State = "starting_session"
	Started          State = "started"
	Failed           State = "failed"
)

// StartedSession describes a newly created route session.
type StartedSession struct {
	SessionID     uint   `json:"session_id"`
	SessionType   Type   `json:"session_type"`
	Message       string `json:"message,omitempty"`
	PreCheckSaved bool   `json:"precheck_saved"`
}

// Decision is the outcome of choosing a session half.
type Decision struct {
	PreCheckRequired bool            `json:"precheck_required"`
	Started          *StartedSession `json:"started,omitempty"`
}

// Orchestrator owns one scanned token for the lifetime of a kiosk view.
type Orchestrator struct {
	backend  Backend
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	state    State
	token    string
	driver   *Driver
	active   []ActiveSession
	pending  Type
	lastErr  error
	reported map[uint]bool
}

func NewOrchestrator(backend Backend, notifier Notifier) *Orchestrator {
	return &Orchestrator{
		backend:  backend,
		notifier: notifier,
		now:      time.Now,
		state:    LoadingDriver,
		reported: make(map[uint]bool),
	}
}

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Driver returns the resolved driver, or nil before a successful load.
func (o *Orchestrator) Driver() *Driver {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.driver == nil {
		return nil
	}
	d := *o.driver
	return &d
}

func (o *Orchestrator) ActiveSessions() []ActiveSession {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ActiveSession, len(o.active))
	copy(out, o.active)
	return out
}

// LastError is the most recent user-visible failure.
func (o *Orchestrator) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// LoadDriver resolves token into a driver with its route, vehicle and active
// sessions. Calling it again after a failure retries from scratch.
func (o *Orchestrator) LoadDriver(ctx context.Context, token string) (*Driver, error) {
	o.mu.Lock()
	if o.state == StartingSession {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.state = LoadingDriver
	o.driver = nil
	o.active = nil
	o.pending = ""
	o.mu.Unlock()

	d, err := o.backend.DriverByToken(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrDriverNotFound) {
			logrus.WithError(err).Error("driver lookup failed")
		}
		o.fail(ResolveFailed, err)
		return nil, err
	}
	active, err := o.backend.ActiveSessions(ctx, d.ID)
	if err != nil {
		logrus.WithError(err).WithField("driver_id", d.ID).Error("loading active sessions failed")
		o.fail(ResolveFailed, err)
		return nil, err
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.token = token
	o.driver = &d
	o.active = active
	o.lastErr = nil
	o.state = Ready
	out := d
	return &out, nil
}

func (o *Orchestrator) fail(s State, err error) {
	o.mu.Lock()
	o.state = s
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) canChoose() bool {
	return o.state == Ready || o.state == Started || o.state == Failed
}

// ChooseSessionType applies the AM/PM rule: AM waits for a completed
// pre-check, PM starts straight away and reuses the morning's check.
func (o *Orchestrator) ChooseSessionType(ctx context.Context, t Type) (Decision, error) {
	if !t.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
	o.mu.Lock()
	if o.driver == nil {
		o.mu.Unlock()
		return Decision{}, ErrNotReady
	}
	if !o.canChoose() {
		o.mu.Unlock()
		return Decision{}, ErrBusy
	}
	if t == AM {
		o.pending = AM
		o.state = ChoosingPreCheck
		o.mu.Unlock()
		return Decision{PreCheckRequired: true}, nil
	}
	o.pending = ""
	o.mu.Unlock()

	started, err := o.startSession(ctx, PM, nil)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Started: started}, nil
}

// CancelPreCheck abandons a pending AM start without calling the backend.
func (o *Orchestrator) CancelPreCheck() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != ChoosingPreCheck {
		return ErrNoPendingPreCheck
	}
	o.pending = ""
	o.state = Ready
	return nil
}

// StartSessionAfterPreCheck starts the pending AM session and then records
// the pre-check against the new session id.
func (o *Orchestrator) StartSessionAfterPreCheck(ctx context.Context, data precheck.Data) (*StartedSession, error) {
	o.mu.Lock()
	if o.state != ChoosingPreCheck || o.pending != AM {
		o.mu.Unlock()
		return nil, ErrNoPendingPreCheck
	}
	o.pending = ""
	o.mu.Unlock()
	return o.startSession(ctx, AM, &data)
}

func (o *Orchestrator) startSession(ctx context.Context, t Type, data *precheck.Data) (*StartedSession, error) {
	o.mu.Lock()
	if o.state == StartingSession {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	if o.driver == nil {
		o.mu.Unlock()
		return nil, ErrNotReady
	}
	o.state = StartingSession
	token := o.token
	driver := *o.driver
	o.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"driver_id": driver.ID, "session_type": t})

	res, err := o.backend.StartRouteSession(ctx, token, t)
	if err != nil {
		log.WithError(err).Error("start route session call failed")
		o.fail(Failed, err)
		return nil, err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = res.Message
		}
		perr := &ProcedureError{Message: msg}
		log.WithField("error", msg).Warn("start route session rejected")
		o.fail(Failed, perr)
		return nil, perr
	}
	if res.SessionID == 0 {
		err := fmt.Errorf("%w: success without session_id", ErrMalformedResponse)
		o.fail(Failed, err)
		return nil, err
	}

	started := &StartedSession{SessionID: res.SessionID, SessionType: t, Message: res.Message}
	log = log.WithField("session_id", res.SessionID)

	if data != nil {
		now := o.now()
		var vehicleID *uint
		if driver.Vehicle != nil {
			id := driver.Vehicle.ID
			vehicleID = &id
		}
		rec := PreCheckRecord{
			RouteSessionID: res.SessionID,
			SessionType:    t,
			DriverID:       driver.ID,
			VehicleID:      vehicleID,
			Data:           *data,
			CheckDate:      now,
			CompletedAt:    now,
		}
		// the session stays started even if the pre-check row is lost
		if err := o.backend.InsertPreCheck(ctx, rec); err != nil {
			log.WithError(err).Error("pre-check insert failed after session start")
		} else {
			started.PreCheckSaved = true
		}
	}

	active, err := o.backend.ActiveSessions(ctx, driver.ID)
	if err != nil {
		log.WithError(err).Warn("refreshing active sessions failed")
	}

	o.mu.Lock()
	if err == nil {
		o.active = active
	} else {
		o.active = append(o.active, ActiveSession{ID: res.SessionID, SessionType: t, StartedAt: o.now()})
	}
	o.state = Started
	o.lastErr = nil
	o.mu.Unlock()

	log.Info("route session started")
	o.notify(Event{Kind: EventStarted, SessionID: res.SessionID, DriverID: driver.ID, SessionType: t})
	return started, nil
}

func (o *Orchestrator) ownsSessionLocked(id uint) (ActiveSession, bool) {
	for _, s := range o.active {
		if s.ID == id {
			return s, true
		}
	}
	return ActiveSession{}, false
}

// EndSession closes one of the driver's active sessions. confirmed must be
// true; ending is irreversible for the driver.
func (o *Orchestrator) EndSession(ctx context.Context, sessionID uint, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	o.mu.Lock()
	if o.driver == nil {
		o.mu.Unlock()
		return ErrNotReady
	}
	sess, ok := o.ownsSessionLocked(sessionID)
	driverID := o.driver.ID
	o.mu.Unlock()
	if !ok {
		return ErrUnknownSession
	}

	if err := o.backend.EndRouteSession(ctx, driverID, sessionID); err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("ending route session failed")
		return err
	}

	o.mu.Lock()
	kept := o.active[:0]
	for _, s := range o.active {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	o.active = kept
	o.mu.Unlock()

	o.notify(Event{Kind: EventEnded, SessionID: sessionID, DriverID: driverID, SessionType: sess.SessionType})
	return nil
}

// ReportBreakdown raises a breakdown incident once per session for the
// lifetime of this orchestrator. The guard is not persisted.
func (o *Orchestrator) ReportBreakdown(ctx context.Context, sessionID uint, description, location string) error {
	o.mu.Lock()
	if o.driver == nil {
		o.mu.Unlock()
		return ErrNotReady
	}
	if _, ok := o.ownsSessionLocked(sessionID); !ok {
		o.mu.Unlock()
		return ErrUnknownSession
	}
	if o.reported[sessionID] {
		o.mu.Unlock()
		return ErrAlreadyReported
	}
	driverID := o.driver.ID
	o.mu.Unlock()

	err := o.backend.ReportBreakdown(ctx, Breakdown{RouteSessionID: sessionID, Description: description, Location: location})
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Error("breakdown report failed")
		return err
	}

	o.mu.Lock()
	o.reported[sessionID] = true
	o.mu.Unlock()
	o.notify(Event{Kind: EventBreakdown, SessionID: sessionID, DriverID: driverID})
	return nil
}

// BreakdownReported reports whether this view already raised a breakdown.
func (o *Orchestrator) BreakdownReported(sessionID uint) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reported[sessionID]
}

func (o *Orchestrator) notify(e Event) {
	if o.notifier == nil {
		return
	}
	if e.At.IsZero() {
		e.At = o.now()
	}
	o.notifier.Notify(e)
}
