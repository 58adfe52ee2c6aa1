package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"school_transport/internal/models"
	"school_transport/internal/session"
)

func TestDecodeStartResult(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		malformed bool
		want      session.StartResult
	}{
		{
			name: "success",
			raw:  `{"success":true,"session_id":42,"message":"AM session started"}`,
			want: session.StartResult{Success: true, SessionID: 42, Message: "AM session started"},
		},
		{
			name: "procedure failure",
			raw:  `{"success":false,"error":"An active AM session already exists"}`,
			want: session.StartResult{Error: "An active AM session already exists"},
		},
		{name: "empty", raw: ``, malformed: true},
		{name: "not json", raw: `ok`, malformed: true},
		{name: "missing success", raw: `{"session_id":1}`, malformed: true},
		{name: "success without id", raw: `{"success":true}`, malformed: true},
		{name: "success with zero id", raw: `{"success":true,"session_id":0}`, malformed: true},
		{name: "failure without reason", raw: `{"success":false}`, malformed: true},
		{name: "wrong id type", raw: `{"success":true,"session_id":"42"}`, malformed: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeStartResult([]byte(tc.raw))
			if tc.malformed {
				if !errors.Is(err, session.ErrMalformedResponse) {
					t.Fatalf("expected ErrMalformedResponse, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestDecodeBreakdownResult(t *testing.T) {
	res, err := DecodeBreakdownResult([]byte(`{"success":true,"breakdown_id":9}`))
	if err != nil || !res.Success || res.BreakdownID != 9 {
		t.Fatalf("expected breakdown 9, got %+v %v", res, err)
	}
	res, err = DecodeBreakdownResult([]byte(`{"success":false,"error":"Route session has already ended"}`))
	if err != nil || res.Success || res.Error == "" {
		t.Fatalf("expected procedure failure, got %+v %v", res, err)
	}
	if _, err := DecodeBreakdownResult([]byte(`{"success":true}`)); !errors.Is(err, session.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestToSessionDriverProjectsRouteAndVehicle(t *testing.T) {
	d := models.Driver{EmployeeID: "D-1", FirstName: "Sam", Surname: "Hill", QRToken: "tok"}
	d.ID = 5
	if got := toSessionDriver(d); got.Route != nil || got.Vehicle != nil || got.Name != "Sam Hill" {
		t.Fatalf("expected unassigned driver, got %+v", got)
	}

	r := &models.Route{Name: "North Loop", School: &models.School{Name: "Hillside"}, Vehicle: &models.Vehicle{Registration: "AB12 CDE", Make: "Ford", VehicleModel: "Transit"}}
	r.ID = 3
	r.Vehicle.ID = 8
	d.AssignedRoute = r

	got := toSessionDriver(d)
	if got.Route == nil || got.Route.ID != 3 || got.Route.SchoolName != "Hillside" {
		t.Fatalf("unexpected route %+v", got.Route)
	}
	if got.Vehicle == nil || got.Vehicle.ID != 8 || got.Vehicle.Model != "Transit" {
		t.Fatalf("unexpected vehicle %+v", got.Vehicle)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("expected pgconn 23505 to match")
	}
	if !IsUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatal("expected pq 23505 to match")
	}
	if IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("expected foreign key violation not to match")
	}
	if IsUniqueViolation(nil) {
		t.Fatal("expected nil not to match")
	}
}
