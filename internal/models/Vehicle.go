package models

import (
	"time"

	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	Registration    string     `json:"registration" gorm:"uniqueIndex;not null"`
	FleetNumber     string     `json:"fleet_number"`
	Make            string     `json:"make"`
	VehicleModel    string     `json:"model" gorm:"column:model"`
	Seats           int        `json:"seats"`
	WheelchairSeats int        `json:"wheelchair_seats"`
	MOTExpiry       *time.Time `json:"mot_expiry" gorm:"type:date"`
	InsuranceExpiry *time.Time `json:"insurance_expiry" gorm:"type:date"`
	TaxExpiry       *time.Time `json:"tax_expiry" gorm:"type:date"`
	InService       bool       `json:"in_service" gorm:"not null"`
	Documents       []Document `json:"documents,omitempty" gorm:"many2many:vehicle_documents;"`
}
