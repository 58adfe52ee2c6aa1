// Package compliance rolls every dated certificate in the fleet up into one
// classified list.
package compliance

import (
	"context"
	"sort"
	"time"

	"school_transport/internal/expiry"
)

// Dated is one expiring item as the store finds it. Expiry may be nil.
type Dated struct {
	Table    string     `json:"table"`
	RecordID uint       `json:"record_id"`
	Owner    string     `json:"owner"`
	Field    string     `json:"field"`
	Expiry   *time.Time `json:"expiry_date"`
}

type Item struct {
	Dated
	expiry.Status
}

// Overview is the body of GET /admin/compliance.
type Overview struct {
	Items  []Item                    `json:"items"`
	Counts map[expiry.StatusKind]int `json:"counts"`
}

type Source interface {
	DatedItems(ctx context.Context) ([]Dated, error)
}

// Build classifies items against today. Items are ordered most urgent first
// and NOT_SET last.
func Build(items []Dated, today time.Time) Overview {
	ov := Overview{
		Items: make([]Item, 0, len(items)),
		Counts: map[expiry.StatusKind]int{
			expiry.Expired:  0,
			expiry.Critical: 0,
			expiry.Warning:  0,
			expiry.OK:       0,
			expiry.NotSet:   0,
		},
	}
	for _, d := range items {
		st := expiry.Classify(d.Expiry, today)
		ov.Items = append(ov.Items, Item{Dated: d, Status: st})
		ov.Counts[st.Kind]++
	}
	sort.SliceStable(ov.Items, func(i, j int) bool {
		a, b := ov.Items[i].DaysRemaining, ov.Items[j].DaysRemaining
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return *a < *b
	})
	return ov
}

// Load reads every dated item from src and builds the overview.
func Load(ctx context.Context, src Source, today time.Time) (Overview, error) {
	items, err := src.DatedItems(ctx)
	if err != nil {
		return Overview{}, err
	}
	return Build(items, today), nil
}
