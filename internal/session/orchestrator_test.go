package session

import (
	"context"
	"errors"
	"testing"

	"school_transport/internal/precheck"
)

type fakeBackend struct {
	calls       []string
	driver      Driver
	driverErr   error
	active      []ActiveSession
	startResult StartResult
	startErr    error
	preCheckErr error
	preChecks   []PreCheckRecord
	ended       []uint
	breakdowns  []Breakdown
}

func (f *fakeBackend) DriverByToken(_ context.Context, token string) (Driver, error) {
	f.calls = append(f.calls, "driver")
	if f.driverErr != nil {
		return Driver{}, f.driverErr
	}
	d := f.driver
	d.Token = token
	return d, nil
}

func (f *fakeBackend) ActiveSessions(context.Context, uint) ([]ActiveSession, error) {
	return f.active, nil
}

func (f *fakeBackend) StartRouteSession(_ context.Context, _ string, t Type) (StartResult, error) {
	f.calls = append(f.calls, "start:"+string(t))
	if f.startErr != nil {
		return StartResult{}, f.startErr
	}
	if f.startResult.Success {
		f.active = append(f.active, ActiveSession{ID: f.startResult.SessionID, SessionType: t})
	}
	return f.startResult, nil
}

func (f *fakeBackend) InsertPreCheck(_ context.Context, rec PreCheckRecord) error {
	f.calls = append(f.calls, "precheck")
	f.preChecks = append(f.preChecks, rec)
	return f.preCheckErr
}

func (f *fakeBackend) EndRouteSession(_ context.Context, _ uint, id uint) error {
	f.calls = append(f.calls, "end")
	f.ended = append(f.ended, id)
	return nil
}

func (f *fakeBackend) ReportBreakdown(_ context.Context, b Breakdown) error {
	f.calls = append(f.calls, "breakdown")
	f.breakdowns = append(f.breakdowns, b)
	return nil
}

type recordingNotifier struct{ events []Event }

func (r *recordingNotifier) Notify(e Event) { r.events = append(r.events, e) }

func allTrue() precheck.Data {
	var d precheck.Data
	for _, f := range precheck.Fields {
		_ = d.Set(f, true)
	}
	return d
}

func loaded(t *testing.T, b *fakeBackend) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(b, nil)
	if _, err := o.LoadDriver(context.Background(), "tok"); err != nil {
		t.Fatalf("load: %v", err)
	}
	b.calls = nil
	return o
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		driver:      Driver{ID: 7, EmployeeID: "E-7", Name: "Sam", Vehicle: &VehicleInfo{ID: 3, Registration: "AB12 CDE"}},
		startResult: StartResult{Success: true, SessionID: 99, Message: "Session started"},
	}
}

func TestLoadDriverNotFoundThenRetry(t *testing.T) {
	b := newBackend()
	b.driverErr = ErrDriverNotFound
	o := NewOrchestrator(b, nil)
	if _, err := o.LoadDriver(context.Background(), "bad"); !errors.Is(err, ErrDriverNotFound) {
		t.Fatalf("expected DRIVER_NOT_FOUND, got %v", err)
	}
	if o.State() != ResolveFailed {
		t.Fatalf("expected resolve_failed, got %s", o.State())
	}
	if _, err := o.ChooseSessionType(context.Background(), PM); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}
	b.driverErr = nil
	if _, err := o.LoadDriver(context.Background(), "good"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if o.State() != Ready {
		t.Fatalf("expected ready after retry, got %s", o.State())
	}
}

func TestDriverWithoutRouteIsReady(t *testing.T) {
	b := newBackend()
	b.driver.Route = nil
	b.driver.Vehicle = nil
	o := loaded(t, b)
	d := o.Driver()
	if d.Route != nil || d.Vehicle != nil {
		t.Fatalf("expected nil route and vehicle")
	}
	if _, err := o.ChooseSessionType(context.Background(), PM); err != nil {
		t.Fatalf("expected PM start without route, got %v", err)
	}
}

func TestAMRequiresPreCheckBeforeStart(t *testing.T) {
	b := newBackend()
	o := loaded(t, b)
	dec, err := o.ChooseSessionType(context.Background(), AM)
	if err != nil {
		t.Fatalf("choose: %v", err)
	}
	if !dec.PreCheckRequired || dec.Started != nil {
		t.Fatalf("expected pre-check required, got %+v", dec)
	}
	if len(b.calls) != 0 {
		t.Fatalf("expected no backend calls before pre-check, got %v", b.calls)
	}
	if o.State() != ChoosingPreCheck {
		t.Fatalf("expected choosing_precheck, got %s", o.State())
	}

	started, err := o.StartSessionAfterPreCheck(context.Background(), allTrue())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(b.calls) != 2 || b.calls[0] != "start:AM" || b.calls[1] != "precheck" {
		t.Fatalf("expected start then precheck, got %v", b.calls)
	}
	if b.preChecks[0].RouteSessionID != 99 || b.preChecks[0].SessionType != AM {
		t.Fatalf("unexpected pre-check record %+v", b.preChecks[0])
	}
	if b.preChecks[0].VehicleID == nil || *b.preChecks[0].VehicleID != 3 {
		t.Fatalf("expected vehicle id on pre-check")
	}
	if !b.preChecks[0].Data.Complete() || b.preChecks[0].Data.MediaURLs != nil {
		t.Fatalf("unexpected pre-check data %+v", b.preChecks[0].Data)
	}
	if !started.PreCheckSaved || started.SessionID != 99 {
		t.Fatalf("unexpected started %+v", started)
	}
}

func TestPMNeverTouchesPreCheck(t *testing.T) {
	b := newBackend()
	o := loaded(t, b)
	// leave an AM flow half-done first
	if _, err := o.ChooseSessionType(context.Background(), AM); err != nil {
		t.Fatalf("choose AM: %v", err)
	}
	if err := o.CancelPreCheck(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	dec, err := o.ChooseSessionType(context.Background(), PM)
	if err != nil {
		t.Fatalf("choose PM: %v", err)
	}
	if dec.PreCheckRequired || dec.Started == nil {
		t.Fatalf("expected PM to start directly, got %+v", dec)
	}
	if len(b.calls) != 1 || b.calls[0] != "start:PM" {
		t.Fatalf("expected exactly one start call, got %v", b.calls)
	}
	if _, err := o.StartSessionAfterPreCheck(context.Background(), allTrue()); !errors.Is(err, ErrNoPendingPreCheck) {
		t.Fatalf("expected no pending pre-check, got %v", err)
	}
	if len(b.preChecks) != 0 {
		t.Fatalf("expected zero pre-check inserts")
	}
}

func TestStartFailureSkipsPreCheck(t *testing.T) {
	b := newBackend()
	b.startResult = StartResult{Success: false, Error: "An active AM session already exists"}
	o := loaded(t, b)
	_, _ = o.ChooseSessionType(context.Background(), AM)
	_, err := o.StartSessionAfterPreCheck(context.Background(), allTrue())
	var perr *ProcedureError
	if !errors.As(err, &perr) || perr.Message != "An active AM session already exists" {
		t.Fatalf("expected verbatim procedure error, got %v", err)
	}
	if len(b.preChecks) != 0 {
		t.Fatalf("expected no pre-check insert after failed start")
	}
	if o.State() != Failed {
		t.Fatalf("expected failed, got %s", o.State())
	}
	// the view stays interactive
	b.startResult = StartResult{Success: true, SessionID: 5}
	if _, err := o.ChooseSessionType(context.Background(), PM); err != nil {
		t.Fatalf("expected retryable state, got %v", err)
	}
}

func TestPreCheckInsertFailureKeepsSession(t *testing.T) {
	b := newBackend()
	b.preCheckErr = errors.New("insert failed")
	n := &recordingNotifier{}
	o := NewOrchestrator(b, n)
	_, _ = o.LoadDriver(context.Background(), "tok")
	_, _ = o.ChooseSessionType(context.Background(), AM)
	started, err := o.StartSessionAfterPreCheck(context.Background(), allTrue())
	if err != nil {
		t.Fatalf("expected session start to succeed, got %v", err)
	}
	if started.PreCheckSaved {
		t.Fatalf("expected precheck_saved=false")
	}
	if o.State() != Started || len(o.ActiveSessions()) != 1 {
		t.Fatalf("expected started with one active session")
	}
	if len(n.events) != 1 || n.events[0].Kind != EventStarted {
		t.Fatalf("expected one started event, got %+v", n.events)
	}
}

func TestMalformedSuccess(t *testing.T) {
	b := newBackend()
	b.startResult = StartResult{Success: true}
	o := loaded(t, b)
	if _, err := o.ChooseSessionType(context.Background(), PM); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected malformed response, got %v", err)
	}
}

func TestEndSessionNeedsConfirmation(t *testing.T) {
	b := newBackend()
	b.active = []ActiveSession{{ID: 40, SessionType: AM}}
	o := loaded(t, b)
	if err := o.EndSession(context.Background(), 40, false); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if len(b.ended) != 0 {
		t.Fatalf("expected no end call without confirmation")
	}
	if err := o.EndSession(context.Background(), 41, true); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected unknown session, got %v", err)
	}
	if err := o.EndSession(context.Background(), 40, true); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(o.ActiveSessions()) != 0 {
		t.Fatalf("expected no active sessions after end")
	}
}

func TestBreakdownGuardedPerSession(t *testing.T) {
	b := newBackend()
	b.active = []ActiveSession{{ID: 40, SessionType: AM}}
	o := loaded(t, b)
	if err := o.ReportBreakdown(context.Background(), 40, "flat tyre", "A38"); err != nil {
		t.Fatalf("report: %v", err)
	}
	if err := o.ReportBreakdown(context.Background(), 40, "flat tyre", "A38"); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("expected duplicate guard, got %v", err)
	}
	if len(b.breakdowns) != 1 || b.breakdowns[0].RouteSessionID != 40 {
		t.Fatalf("unexpected breakdowns %+v", b.breakdowns)
	}
	// a fresh view has no memory of the earlier report
	o2 := loaded(t, b)
	if o2.BreakdownReported(40) {
		t.Fatalf("expected fresh orchestrator to have no guard")
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType("am"); err != nil || got != AM {
		t.Fatalf("expected AM, got %s %v", got, err)
	}
	if _, err := ParseType("noon"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected invalid type, got %v", err)
	}
}
