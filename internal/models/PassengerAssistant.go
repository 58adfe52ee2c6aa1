package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PassengerAssistant rides along to supervise pupils.
type PassengerAssistant struct {
	gorm.Model
	EmployeeID      string         `json:"employee_id" gorm:"uniqueIndex;not null"`
	FirstName       string         `json:"first_name"`
	Surname         string         `json:"surname"`
	Phone           string         `json:"phone"`
	DBSNumber       string         `json:"dbs_number"`
	DBSExpiry       *time.Time     `json:"dbs_expiry" gorm:"type:date"`
	FirstAidExpiry  *time.Time     `json:"first_aid_expiry" gorm:"type:date"`
	Certifications  pq.StringArray `json:"certifications" gorm:"type:text[]"`
	AssignedRouteID *uint          `json:"assigned_route_id" gorm:"index"`
	Documents       []Document     `json:"documents,omitempty" gorm:"many2many:assistant_documents;joinForeignKey:AssistantID"`
}
