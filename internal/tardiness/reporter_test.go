package tardiness

import (
	"context"
	"errors"
	"testing"

	"school_transport/internal/session"
)

type recordingSink struct {
	reports []Report
}

func (s *recordingSink) InsertTardiness(_ context.Context, r Report) (uint, error) {
	s.reports = append(s.reports, r)
	return uint(len(s.reports)), nil
}

type staticRoutes map[uint]uint

func (m staticRoutes) SessionRoute(_ context.Context, id uint) (*uint, error) {
	r, ok := m[id]
	if !ok {
		return nil, errors.New("no session")
	}
	return &r, nil
}

func uintp(v uint) *uint { return &v }

func TestEmptyReasonNeverReachesSink(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, nil)
	_, err := r.Report(context.Background(), Report{DriverID: 1, SessionType: session.AM, Reason: ""})
	if !errors.Is(err, ErrReasonRequired) {
		t.Fatalf("expected reason required, got %v", err)
	}
	if len(sink.reports) != 0 {
		t.Fatalf("expected no insert")
	}
}

func TestUnknownReasonRejected(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, nil)
	if _, err := r.Report(context.Background(), Report{DriverID: 1, SessionType: session.PM, Reason: "overslept"}); !errors.Is(err, ErrInvalidReason) {
		t.Fatalf("expected invalid reason, got %v", err)
	}
	if len(sink.reports) != 0 {
		t.Fatalf("expected no insert")
	}
}

func TestAllReasonsAccepted(t *testing.T) {
	if len(Reasons) != 6 {
		t.Fatalf("expected six reasons, got %d", len(Reasons))
	}
	r := NewReporter(&recordingSink{}, nil)
	for _, reason := range Reasons {
		if err := r.Validate(Report{DriverID: 1, SessionType: session.AM, Reason: reason}); err != nil {
			t.Fatalf("reason %s rejected: %v", reason, err)
		}
	}
}

func TestSessionRouteOverridesAssignedRoute(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, staticRoutes{50: 9})
	_, err := r.Report(context.Background(), Report{
		DriverID:    1,
		RouteID:     uintp(2),
		SessionID:   uintp(50),
		SessionType: session.AM,
		Reason:      Traffic,
	})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if got := *sink.reports[0].RouteID; got != 9 {
		t.Fatalf("expected covering route 9, got %d", got)
	}
}

func TestStandaloneKeepsAssignedRoute(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, staticRoutes{})
	if _, err := r.Report(context.Background(), Report{DriverID: 1, RouteID: uintp(2), SessionType: session.PM, Reason: Weather, Notes: "snow"}); err != nil {
		t.Fatalf("report: %v", err)
	}
	if *sink.reports[0].RouteID != 2 || sink.reports[0].Notes != "snow" {
		t.Fatalf("unexpected report %+v", sink.reports[0])
	}
}
