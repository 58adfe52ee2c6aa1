package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"school_transport/internal/expiry"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBuildCountsAndOrders(t *testing.T) {
	today := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	items := []Dated{
		{Table: "vehicles", RecordID: 1, Field: "mot_expiry", Expiry: day(2026, 6, 1)},
		{Table: "drivers", RecordID: 2, Field: "license_expiry", Expiry: nil},
		{Table: "drivers", RecordID: 3, Field: "dbs_expiry", Expiry: day(2026, 2, 20)},
		{Table: "documents", RecordID: 4, Field: "expiry_date", Expiry: day(2026, 3, 10)},
		{Table: "vehicles", RecordID: 5, Field: "tax_expiry", Expiry: day(2026, 3, 25)},
	}

	ov := Build(items, today)

	want := map[expiry.StatusKind]int{
		expiry.Expired: 1, expiry.Critical: 1, expiry.Warning: 1, expiry.OK: 1, expiry.NotSet: 1,
	}
	for k, n := range want {
		if ov.Counts[k] != n {
			t.Fatalf("expected %d %s, got %d", n, k, ov.Counts[k])
		}
	}

	order := []uint{3, 4, 5, 1, 2}
	for i, id := range order {
		if ov.Items[i].RecordID != id {
			t.Fatalf("expected record %d at %d, got %d", id, i, ov.Items[i].RecordID)
		}
	}
	if ov.Items[0].Kind != expiry.Expired || ov.Items[len(ov.Items)-1].Kind != expiry.NotSet {
		t.Fatalf("unexpected ordering of kinds: %+v", ov.Items)
	}
}

func TestBuildEmptyKeepsZeroCounts(t *testing.T) {
	ov := Build(nil, time.Now())
	if len(ov.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(ov.Items))
	}
	if n, ok := ov.Counts[expiry.Expired]; !ok || n != 0 {
		t.Fatalf("expected explicit zero EXPIRED count, got %d (present=%v)", n, ok)
	}
}

type failingSource struct{}

func (failingSource) DatedItems(context.Context) ([]Dated, error) {
	return nil, errors.New("db down")
}

func TestLoadPropagatesSourceError(t *testing.T) {
	if _, err := Load(context.Background(), failingSource{}, time.Now()); err == nil {
		t.Fatal("expected error from source")
	}
}
