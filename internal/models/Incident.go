package models

import "time"

type TardinessReport struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	DriverID        uint      `json:"driver_id" gorm:"index;not null"`
	RouteID         *uint     `json:"route_id" gorm:"index"`
	RouteSessionID  *uint     `json:"route_session_id" gorm:"index"`
	SessionType     string    `json:"session_type" gorm:"type:varchar(2)"`
	Reason          string    `json:"reason" gorm:"not null"`
	AdditionalNotes string    `json:"additional_notes"`
	CreatedAt       time.Time `json:"created_at"`
}

type VehicleBreakdown struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	RouteSessionID uint       `json:"route_session_id" gorm:"index;not null"`
	VehicleID      *uint      `json:"vehicle_id"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	ResolvedAt     *time.Time `json:"resolved_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TableName string    `json:"table_name" gorm:"column:table_name;index"`
	RecordID  string    `json:"record_id" gorm:"index"`
	Action    string    `json:"action"`
	ActorID   *uint     `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}
