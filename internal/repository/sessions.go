package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"school_transport/internal/media"
	"school_transport/internal/models"
	"school_transport/internal/session"
)

// DriverByToken resolves an active driver's QR token together with the
// assigned route, its school and its vehicle.
func (s *Store) DriverByToken(ctx context.Context, token string) (session.Driver, error) {
	var d models.Driver
	err := s.db.WithContext(ctx).
		Preload("AssignedRoute.School").
		Preload("AssignedRoute.Vehicle").
		Where("qr_token = ? AND active", token).
		First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return session.Driver{}, session.ErrDriverNotFound
	}
	if err != nil {
		return session.Driver{}, fmt.Errorf("driver by token: %w", err)
	}
	return toSessionDriver(d), nil
}

func toSessionDriver(d models.Driver) session.Driver {
	out := session.Driver{
		ID:         d.ID,
		EmployeeID: d.EmployeeID,
		Name:       d.FullName(),
		Token:      d.QRToken,
	}
	if r := d.AssignedRoute; r != nil {
		out.Route = &session.RouteInfo{ID: r.ID, Name: r.Name}
		if r.School != nil {
			out.Route.SchoolName = r.School.Name
		}
		if v := r.Vehicle; v != nil {
			out.Vehicle = &session.VehicleInfo{
				ID:           v.ID,
				Registration: v.Registration,
				Make:         v.Make,
				Model:        v.VehicleModel,
			}
		}
	}
	return out
}

func (s *Store) ActiveSessions(ctx context.Context, driverID uint) ([]session.ActiveSession, error) {
	var rows []models.RouteSession
	if err := s.db.WithContext(ctx).
		Where("driver_id = ? AND ended_at IS NULL", driverID).
		Order("started_at").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("active sessions: %w", err)
	}
	out := make([]session.ActiveSession, 0, len(rows))
	for _, r := range rows {
		out = append(out, session.ActiveSession{
			ID:          r.ID,
			SessionType: session.Type(r.SessionType),
			RouteID:     r.RouteID,
			StartedAt:   r.StartedAt,
		})
	}
	return out, nil
}

// StartRouteSession calls start_route_session and decodes its json result.
func (s *Store) StartRouteSession(ctx context.Context, token string, t session.Type) (session.StartResult, error) {
	raw, err := s.callJSON(ctx, "SELECT start_route_session(?, ?)::text", token, string(t))
	if err != nil {
		return session.StartResult{}, fmt.Errorf("start_route_session: %w", err)
	}
	return DecodeStartResult(raw)
}

func (s *Store) InsertPreCheck(ctx context.Context, rec session.PreCheckRecord) error {
	row := models.VehiclePreCheck{
		RouteSessionID: rec.RouteSessionID,
		SessionType:    string(rec.SessionType),
		DriverID:       rec.DriverID,
		VehicleID:      rec.VehicleID,
		Checklist:      rec.Data.Checklist,
		Notes:          rec.Data.Notes,
		IssuesFound:    rec.Data.IssuesFound,
		MediaURLs:      datatypes.NewJSONSlice(rec.Data.MediaURLs),
		CheckDate:      datatypes.Date(rec.CheckDate),
		CompletedAt:    rec.CompletedAt,
	}
	if row.MediaURLs == nil {
		row.MediaURLs = datatypes.JSONSlice[media.URL]{}
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert pre-check: %w", err)
	}
	return nil
}

// EndRouteSession stamps ended_at on one of the driver's open sessions.
func (s *Store) EndRouteSession(ctx context.Context, driverID, sessionID uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.RouteSession{}).
		Where("id = ? AND driver_id = ? AND ended_at IS NULL", sessionID, driverID).
		Update("ended_at", time.Now())
	if res.Error != nil {
		return fmt.Errorf("end route session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return session.ErrUnknownSession
	}
	return nil
}

func (s *Store) ReportBreakdown(ctx context.Context, b session.Breakdown) error {
	raw, err := s.callJSON(ctx,
		"SELECT report_vehicle_breakdown(?, ?, ?)::text",
		b.RouteSessionID, b.Description, b.Location)
	if err != nil {
		return fmt.Errorf("report_vehicle_breakdown: %w", err)
	}
	res, err := DecodeBreakdownResult(raw)
	if err != nil {
		return err
	}
	if !res.Success {
		return &session.ProcedureError{Message: res.Error}
	}
	return nil
}

// SessionRoute returns the route a session runs on, nil when it has none.
func (s *Store) SessionRoute(ctx context.Context, sessionID uint) (*uint, error) {
	var rs models.RouteSession
	err := s.db.WithContext(ctx).Select("id", "route_id").First(&rs, sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rs.RouteID, nil
}

func (s *Store) callJSON(ctx context.Context, query string, args ...any) ([]byte, error) {
	var raw *string
	if err := s.db.WithContext(ctx).Raw(query, args...).Row().Scan(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return []byte(*raw), nil
}

type startWire struct {
	Success   *bool  `json:"success"`
	SessionID *uint  `json:"session_id"`
	Message   string `json:"message"`
	Error     string `json:"error"`
}

// DecodeStartResult turns the procedure's json into a StartResult. Anything
// that is not a well formed success or failure is ErrMalformedResponse.
func DecodeStartResult(raw []byte) (session.StartResult, error) {
	var w startWire
	if len(raw) == 0 {
		return session.StartResult{}, fmt.Errorf("%w: empty result", session.ErrMalformedResponse)
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return session.StartResult{}, fmt.Errorf("%w: %v", session.ErrMalformedResponse, err)
	}
	if w.Success == nil {
		return session.StartResult{}, fmt.Errorf("%w: missing success", session.ErrMalformedResponse)
	}
	res := session.StartResult{Success: *w.Success, Message: w.Message, Error: w.Error}
	if res.Success {
		if w.SessionID == nil || *w.SessionID == 0 {
			return session.StartResult{}, fmt.Errorf("%w: success without session_id", session.ErrMalformedResponse)
		}
		res.SessionID = *w.SessionID
		return res, nil
	}
	if res.Error == "" && res.Message == "" {
		return session.StartResult{}, fmt.Errorf("%w: failure without error", session.ErrMalformedResponse)
	}
	return res, nil
}

// BreakdownResult is report_vehicle_breakdown's json result.
type BreakdownResult struct {
	Success     bool   `json:"success"`
	BreakdownID uint   `json:"breakdown_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

func DecodeBreakdownResult(raw []byte) (BreakdownResult, error) {
	var w struct {
		Success     *bool  `json:"success"`
		BreakdownID uint   `json:"breakdown_id"`
		Error       string `json:"error"`
	}
	if err := json.Unmarshal(raw, &w); err != nil || w.Success == nil {
		return BreakdownResult{}, fmt.Errorf("%w: breakdown result %q", session.ErrMalformedResponse, raw)
	}
	if *w.Success && w.BreakdownID == 0 {
		return BreakdownResult{}, fmt.Errorf("%w: success without breakdown_id", session.ErrMalformedResponse)
	}
	return BreakdownResult{Success: *w.Success, BreakdownID: w.BreakdownID, Error: w.Error}, nil
}

var _ session.Backend = (*Store)(nil)
