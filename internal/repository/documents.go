package repository

import (
	"context"
	"fmt"

	"school_transport/internal/documents"
	"school_transport/internal/models"
)

func (s *Store) OwnerExists(ctx context.Context, owner documents.Owner, id uint) (bool, error) {
	var model any
	switch owner {
	case documents.Drivers:
		model = &models.Driver{}
	case documents.Assistants:
		model = &models.PassengerAssistant{}
	case documents.Vehicles:
		model = &models.Vehicle{}
	default:
		return false, fmt.Errorf("unknown owner %q", owner)
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) error {
	return s.db.WithContext(ctx).Create(doc).Error
}

func (s *Store) LinkDocument(ctx context.Context, owner documents.Owner, ownerID, docID uint) error {
	var link any
	switch owner {
	case documents.Drivers:
		link = &models.DriverDocument{DriverID: ownerID, DocumentID: docID}
	case documents.Assistants:
		link = &models.AssistantDocument{AssistantID: ownerID, DocumentID: docID}
	case documents.Vehicles:
		link = &models.VehicleDocument{VehicleID: ownerID, DocumentID: docID}
	default:
		return fmt.Errorf("unknown owner %q", owner)
	}
	return s.db.WithContext(ctx).Create(link).Error
}

// DeleteDocument hard-deletes so a failed link leaves nothing behind.
func (s *Store) DeleteDocument(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Unscoped().Delete(&models.Document{}, id).Error
}

func (s *Store) ListDocuments(ctx context.Context, owner documents.Owner, ownerID uint) ([]models.Document, error) {
	var join, col string
	switch owner {
	case documents.Drivers:
		join, col = "driver_documents", "driver_id"
	case documents.Assistants:
		join, col = "assistant_documents", "assistant_id"
	case documents.Vehicles:
		join, col = "vehicle_documents", "vehicle_id"
	default:
		return nil, fmt.Errorf("unknown owner %q", owner)
	}
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Joins(fmt.Sprintf("JOIN %s l ON l.document_id = documents.id", join)).
		Where(fmt.Sprintf("l.%s = ?", col), ownerID).
		Order("documents.created_at DESC").
		Find(&docs).Error
	return docs, err
}

var _ documents.Repo = (*Store)(nil)
