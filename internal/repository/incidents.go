package repository

import (
	"context"
	"fmt"
	"time"

	"school_transport/internal/audit"
	"school_transport/internal/models"
	"school_transport/internal/tardiness"
)

func (s *Store) InsertTardiness(ctx context.Context, r tardiness.Report) (uint, error) {
	row := models.TardinessReport{
		DriverID:        r.DriverID,
		RouteID:         r.RouteID,
		RouteSessionID:  r.SessionID,
		SessionType:     string(r.SessionType),
		Reason:          string(r.Reason),
		AdditionalNotes: r.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert tardiness report: %w", err)
	}
	return row.ID, nil
}

func (s *Store) WriteAudit(ctx context.Context, e audit.Entry) error {
	at := e.At
	if at.IsZero() {
		at = time.Now()
	}
	row := models.AuditLog{
		TableName: e.TableName,
		RecordID:  e.RecordID,
		Action:    string(e.Action),
		ActorID:   e.ActorID,
		CreatedAt: at,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

var (
	_ tardiness.Sink          = (*Store)(nil)
	_ tardiness.SessionRoutes = (*Store)(nil)
	_ audit.Sink              = (*Store)(nil)
)
