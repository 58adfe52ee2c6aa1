package models

import (
	"gorm.io/gorm"
)

// Route is a fixed school run. The vehicle is assigned to the route and
// drivers reach it through their assigned route.
type Route struct {
	gorm.Model

	Name        string   `json:"name" gorm:"not null"`
	Description string   `json:"description"`
	SchoolID    *uint    `json:"school_id" gorm:"index"`
	School      *School  `json:"school,omitempty" gorm:"foreignKey:SchoolID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	VehicleID   *uint    `json:"vehicle_id" gorm:"index"`
	Vehicle     *Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`

	// LINESTRING in WKB; the API speaks GeoJSON
	Geometry []byte `json:"-" gorm:"type:bytea"`

	Stops []RouteStop `json:"stops,omitempty" gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
