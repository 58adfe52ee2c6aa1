package models

import (
	"time"

	"gorm.io/datatypes"
)

// RouteSession is one AM or PM run. Created only by start_route_session.
type RouteSession struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	DriverID    uint           `json:"driver_id" gorm:"index;not null"`
	Driver      *Driver        `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	RouteID     *uint          `json:"route_id" gorm:"index"`
	Route       *Route         `json:"route,omitempty" gorm:"foreignKey:RouteID"`
	VehicleID   *uint          `json:"vehicle_id"`
	SessionType string         `json:"session_type" gorm:"type:varchar(2);not null"`
	SessionDate datatypes.Date `json:"session_date" gorm:"not null"`
	StartedAt   time.Time      `json:"started_at" gorm:"not null"`
	EndedAt     *time.Time     `json:"ended_at"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (s RouteSession) Active() bool { return s.EndedAt == nil }
