// Package session drives the QR-scan to route-session-start flow for one
// driver at the kiosk.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"school_transport/internal/precheck"
)

// Type is the half-day a route session covers.
type Type string

const (
	AM Type = "AM"
	PM Type = "PM"
)

func (t Type) Valid() bool { return t == AM || t == PM }

// ParseType accepts AM or PM in any case.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case AM, PM:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
}

var (
	ErrDriverNotFound       = errors.New("DRIVER_NOT_FOUND")
	ErrInvalidType          = errors.New("invalid session type")
	ErrMalformedResponse    = errors.New("malformed backend response")
	ErrNotReady             = errors.New("driver not loaded")
	ErrBusy                 = errors.New("another action is in progress")
	ErrNoPendingPreCheck    = errors.New("no AM session is waiting on a pre-check")
	ErrConfirmationRequired = errors.New("ending a session must be confirmed")
	ErrAlreadyReported      = errors.New("breakdown already reported for this session")
	ErrUnknownSession       = errors.New("session does not belong to this driver")
)

// ProcedureError carries the start procedure's own failure message.
type ProcedureError struct {
	Message string
}

func (e *ProcedureError) Error() string { return e.Message }

// RouteInfo is the driver's assigned route as the kiosk shows it.
type RouteInfo struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	SchoolName string `json:"school_name,omitempty"`
}

// VehicleInfo is the vehicle assigned through the route.
type VehicleInfo struct {
	ID           uint   `json:"id"`
	Registration string `json:"registration"`
	Make         string `json:"make,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Driver is a resolved QR token. Route and Vehicle are nil when unassigned.
type Driver struct {
	ID         uint         `json:"id"`
	EmployeeID string       `json:"employee_id"`
	Name       string       `json:"name"`
	Token      string       `json:"-"`
	Route      *RouteInfo   `json:"route"`
	Vehicle    *VehicleInfo `json:"vehicle"`
}

// ActiveSession is a started, not yet ended route session.
type ActiveSession struct {
	ID          uint      `json:"id"`
	SessionType Type      `json:"session_type"`
	RouteID     *uint     `json:"route_id,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// StartResult is the typed result of the start procedure.
type StartResult struct {
	Success   bool   `json:"success"`
	SessionID uint   `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PreCheckRecord is the row written after a successful AM start.
type PreCheckRecord struct {
	RouteSessionID uint
	SessionType    Type
	DriverID       uint
	VehicleID      *uint
	Data           precheck.Data
	CheckDate      time.Time
	CompletedAt    time.Time
}

// Breakdown is an urgent incident raised during an active session.
type Breakdown struct {
	RouteSessionID uint   `json:"route_session_id"`
	Description    string `json:"description"`
	Location       string `json:"location"`
}

// Backend is the persistence collaborator the orchestrator needs.
type Backend interface {
	DriverByToken(ctx context.Context, token string) (Driver, error)
	ActiveSessions(ctx context.Context, driverID uint) ([]ActiveSession, error)
	StartRouteSession(ctx context.Context, token string, t Type) (StartResult, error)
	InsertPreCheck(ctx context.Context, rec PreCheckRecord) error
	EndRouteSession(ctx context.Context, driverID, sessionID uint) error
	ReportBreakdown(ctx context.Context, b Breakdown) error
}

// EventKind names a live-board notification.
type EventKind string

const (
	EventStarted   EventKind = "session_started"
	EventEnded     EventKind = "session_ended"
	EventBreakdown EventKind = "breakdown_reported"
)

// Event is published to the live board after each state-changing call.
type Event struct {
	Kind        EventKind `json:"kind"`
	SessionID   uint      `json:"session_id"`
	DriverID    uint      `json:"driver_id"`
	SessionType Type      `json:"session_type,omitempty"`
	At          time.Time `json:"at"`
}

// Notifier receives events without blocking the caller.
type Notifier interface {
	Notify(Event)
}
