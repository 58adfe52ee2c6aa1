package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type School struct {
	gorm.Model
	Name        string         `json:"name" gorm:"not null"`
	Address     string         `json:"address"`
	Phone       string         `json:"phone"`
	ContactName string         `json:"contact_name"`
	YearGroups  pq.StringArray `json:"year_groups" gorm:"type:text[]"`
	Routes      []Route        `json:"routes,omitempty" gorm:"foreignKey:SchoolID"`
}
