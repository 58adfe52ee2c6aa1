package models

import (
	"time"

	"gorm.io/gorm"
)

// Document is an uploaded certificate or file. Ownership lives in the
// driver_documents, assistant_documents and vehicle_documents link tables.
type Document struct {
	gorm.Model
	DocType     string     `json:"doc_type" gorm:"index"`
	FileName    string     `json:"file_name"`
	StoragePath string     `json:"storage_path"`
	FileURL     string     `json:"file_url"`
	ContentType string     `json:"content_type"`
	Size        int64      `json:"size"`
	ExpiryDate  *time.Time `json:"expiry_date" gorm:"type:date"`
	UploadedBy  *uint      `json:"uploaded_by"`
}

type DriverDocument struct {
	DriverID   uint `gorm:"primaryKey"`
	DocumentID uint `gorm:"primaryKey"`
	CreatedAt  time.Time
}

type AssistantDocument struct {
	AssistantID uint `gorm:"primaryKey"`
	DocumentID  uint `gorm:"primaryKey"`
	CreatedAt   time.Time
}

type VehicleDocument struct {
	VehicleID  uint `gorm:"primaryKey"`
	DocumentID uint `gorm:"primaryKey"`
	CreatedAt  time.Time
}
