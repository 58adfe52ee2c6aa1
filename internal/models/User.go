package models

import "gorm.io/gorm"

// User is a dashboard operator. Drivers do not log in; they scan a QR token.
type User struct {
	gorm.Model
	Name     string `json:"name"`
	Email    string `json:"email" gorm:"unique;not null"`
	Password string `json:"-"`
	Role     string `json:"role"` // "admin", "coordinator"
}
