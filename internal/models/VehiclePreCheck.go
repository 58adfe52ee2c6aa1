package models

import (
	"time"

	"gorm.io/datatypes"

	"school_transport/internal/media"
	"school_transport/internal/precheck"
)

// VehiclePreCheck is written once per AM session after it has started.
type VehiclePreCheck struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	RouteSessionID uint   `json:"route_session_id" gorm:"uniqueIndex:idx_precheck_session;not null"`
	SessionType    string `json:"session_type" gorm:"uniqueIndex:idx_precheck_session;type:varchar(2);not null"`
	DriverID       uint   `json:"driver_id" gorm:"index"`
	VehicleID      *uint  `json:"vehicle_id" gorm:"index"`

	precheck.Checklist `gorm:"embedded"`

	Notes       string                         `json:"notes"`
	IssuesFound string                         `json:"issues_found"`
	MediaURLs   datatypes.JSONSlice[media.URL] `json:"media_urls" gorm:"type:jsonb"`
	CheckDate   datatypes.Date                 `json:"check_date"`
	CompletedAt time.Time                      `json:"completed_at"`
	CreatedAt   time.Time                      `json:"created_at"`
	UpdatedAt   time.Time                      `json:"updated_at"`
}
