package repository

import (
	"context"
	"fmt"
	"time"

	"school_transport/internal/compliance"
	"school_transport/internal/models"
)

// DatedItems lists every expiry the compliance screen tracks.
func (s *Store) DatedItems(ctx context.Context) ([]compliance.Dated, error) {
	db := s.db.WithContext(ctx)
	var out []compliance.Dated

	var drivers []models.Driver
	if err := db.Where("active").Find(&drivers).Error; err != nil {
		return nil, fmt.Errorf("drivers: %w", err)
	}
	for _, d := range drivers {
		out = append(out,
			compliance.Dated{Table: "drivers", RecordID: d.ID, Owner: d.FullName(), Field: "license_expiry", Expiry: d.LicenseExpiry},
			compliance.Dated{Table: "drivers", RecordID: d.ID, Owner: d.FullName(), Field: "dbs_expiry", Expiry: d.DBSExpiry},
		)
	}

	var assistants []models.PassengerAssistant
	if err := db.Find(&assistants).Error; err != nil {
		return nil, fmt.Errorf("assistants: %w", err)
	}
	for _, a := range assistants {
		name := a.FirstName + " " + a.Surname
		out = append(out,
			compliance.Dated{Table: "passenger_assistants", RecordID: a.ID, Owner: name, Field: "dbs_expiry", Expiry: a.DBSExpiry},
			compliance.Dated{Table: "passenger_assistants", RecordID: a.ID, Owner: name, Field: "first_aid_expiry", Expiry: a.FirstAidExpiry},
		)
	}

	var vehicles []models.Vehicle
	if err := db.Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("vehicles: %w", err)
	}
	for _, v := range vehicles {
		out = append(out,
			compliance.Dated{Table: "vehicles", RecordID: v.ID, Owner: v.Registration, Field: "mot_expiry", Expiry: v.MOTExpiry},
			compliance.Dated{Table: "vehicles", RecordID: v.ID, Owner: v.Registration, Field: "insurance_expiry", Expiry: v.InsuranceExpiry},
			compliance.Dated{Table: "vehicles", RecordID: v.ID, Owner: v.Registration, Field: "tax_expiry", Expiry: v.TaxExpiry},
		)
	}

	var docs []models.Document
	if err := db.Where("expiry_date IS NOT NULL").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("documents: %w", err)
	}
	for _, d := range docs {
		out = append(out, compliance.Dated{Table: "documents", RecordID: d.ID, Owner: d.FileName, Field: d.DocType, Expiry: d.ExpiryDate})
	}
	return out, nil
}

// DocumentsExpiredOn returns documents whose expiry date is exactly day,
// i.e. the ones that became expired when day ended.
func (s *Store) DocumentsExpiredOn(ctx context.Context, day time.Time) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.WithContext(ctx).
		Where("expiry_date = ?", day.Format("2006-01-02")).
		Find(&docs).Error
	return docs, err
}

var _ compliance.Source = (*Store)(nil)
