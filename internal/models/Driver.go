package models

import (
	"time"

	"gorm.io/gorm"
)

type Driver struct {
	gorm.Model
	EmployeeID       string     `json:"employee_id" gorm:"uniqueIndex;not null"`
	FirstName        string     `json:"first_name"`
	Surname          string     `json:"surname"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email"`
	LicenseNumber    string     `json:"license_number"`
	LicenseExpiry    *time.Time `json:"license_expiry" gorm:"type:date"`
	DBSNumber        string     `json:"dbs_number"`
	DBSExpiry        *time.Time `json:"dbs_expiry" gorm:"type:date"`
	QRToken          string     `json:"qr_token" gorm:"uniqueIndex;not null"`
	AssignedRouteID  *uint      `json:"assigned_route_id" gorm:"index"`
	AssignedRoute    *Route     `json:"assigned_route,omitempty" gorm:"foreignKey:AssignedRouteID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	Active           bool       `json:"active" gorm:"not null"`
	Documents        []Document `json:"documents,omitempty" gorm:"many2many:driver_documents;"`
}

func (d Driver) FullName() string {
	if d.Surname == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.Surname
}
