// Package tardiness validates and files driver lateness reports.
package tardiness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"school_transport/internal/session"
)

// Reason is the closed set of lateness causes.
type Reason string

const (
	Traffic        Reason = "traffic"
	VehicleIssue   Reason = "vehicle_issue"
	Weather        Reason = "weather"
	RoadClosure    Reason = "road_closure"
	PassengerDelay Reason = "passenger_delay"
	Other          Reason = "other"
)

// Reasons lists every accepted reason.
var Reasons = []Reason{Traffic, VehicleIssue, Weather, RoadClosure, PassengerDelay, Other}

// ReasonTag is the validator oneof expression for Reason.
const ReasonTag = "oneof=traffic vehicle_issue weather road_closure passenger_delay other"

var (
	ErrReasonRequired = errors.New("please select a reason for the delay")
	ErrInvalidReason  = errors.New("unknown tardiness reason")
	ErrInvalidReport  = errors.New("invalid tardiness report")
)

// Report is one lateness notice. SessionID is optional.
type Report struct {
	DriverID    uint         `json:"driverId" validate:"required"`
	RouteID     *uint        `json:"routeId"`
	SessionID   *uint        `json:"routeSessionId"`
	SessionType session.Type `json:"sessionType" validate:"required,oneof=AM PM"`
	Reason      Reason       `json:"reason"`
	Notes       string       `json:"additionalNotes" validate:"max=1000"`
}

// Sink persists a validated report.
type Sink interface {
	InsertTardiness(ctx context.Context, r Report) (uint, error)
}

// SessionRoutes resolves the route a specific session is running on.
type SessionRoutes interface {
	SessionRoute(ctx context.Context, sessionID uint) (*uint, error)
}

type Reporter struct {
	sink     Sink
	sessions SessionRoutes
	validate *validator.Validate
}

func NewReporter(sink Sink, sessions SessionRoutes) *Reporter {
	return &Reporter{sink: sink, sessions: sessions, validate: validator.New()}
}

// Validate checks a report without touching the backend.
func (r *Reporter) Validate(rep Report) error {
	reason := Reason(strings.TrimSpace(string(rep.Reason)))
	if reason == "" {
		return ErrReasonRequired
	}
	if err := r.validate.Var(string(reason), ReasonTag); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidReason, rep.Reason)
	}
	if err := r.validate.Struct(rep); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReport, err)
	}
	return nil
}

// Report validates and files rep. When a session is given, its route wins
// over the driver's assigned route.
func (r *Reporter) Report(ctx context.Context, rep Report) (uint, error) {
	rep.Reason = Reason(strings.TrimSpace(string(rep.Reason)))
	if err := r.Validate(rep); err != nil {
		return 0, err
	}
	if rep.SessionID != nil && r.sessions != nil {
		routeID, err := r.sessions.SessionRoute(ctx, *rep.SessionID)
		if err != nil {
			return 0, fmt.Errorf("resolve session route: %w", err)
		}
		if routeID != nil {
			rep.RouteID = routeID
		}
	}
	id, err := r.sink.InsertTardiness(ctx, rep)
	if err != nil {
		logrus.WithError(err).WithField("driver_id", rep.DriverID).Error("tardiness insert failed")
		return 0, err
	}
	return id, nil
}
