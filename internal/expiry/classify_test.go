package expiry

import (
	"testing"
	"time"
)

func TestClassifyBoundaries(t *testing.T) {
	today := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		days int
		want StatusKind
	}{
		{-1, Expired},
		{0, Critical},
		{14, Critical},
		{15, Warning},
		{30, Warning},
		{31, OK},
	}
	for _, tc := range cases {
		exp := today.AddDate(0, 0, tc.days)
		got := Classify(&exp, today)
		if got.Kind != tc.want {
			t.Fatalf("days=%d: expected %s, got %s", tc.days, tc.want, got.Kind)
		}
		if got.DaysRemaining == nil || *got.DaysRemaining != tc.days {
			t.Fatalf("days=%d: unexpected daysRemaining %v", tc.days, got.DaysRemaining)
		}
	}
}

func TestClassifyNilIsNotSet(t *testing.T) {
	for _, today := range []time.Time{time.Time{}, time.Now(), time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)} {
		got := Classify(nil, today)
		if got.Kind != NotSet {
			t.Fatalf("expected NOT_SET, got %s", got.Kind)
		}
		if got.DaysRemaining != nil {
			t.Fatalf("expected no daysRemaining for unset expiry")
		}
	}
}

func TestClassifyFourteenDaysLabel(t *testing.T) {
	today := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)
	exp := today.AddDate(0, 0, 14)
	got := Classify(&exp, today)
	if got.Label != "14 days remaining" {
		t.Fatalf("expected label %q, got %q", "14 days remaining", got.Label)
	}
	if got.Kind != Critical {
		t.Fatalf("expected CRITICAL, got %s", got.Kind)
	}
}

func TestClassifyIgnoresTimeOfDay(t *testing.T) {
	today := time.Date(2026, time.May, 1, 23, 59, 0, 0, time.UTC)
	exp := time.Date(2026, time.May, 2, 0, 1, 0, 0, time.UTC)
	got := Classify(&exp, today)
	if *got.DaysRemaining != 1 {
		t.Fatalf("expected 1 day remaining, got %d", *got.DaysRemaining)
	}
	if got.Label != "1 day remaining" {
		t.Fatalf("unexpected label %q", got.Label)
	}

	sameDay := time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC)
	got = Classify(&sameDay, today)
	if *got.DaysRemaining != 0 || got.Kind != Critical {
		t.Fatalf("expected same-day expiry to be 0/CRITICAL, got %d/%s", *got.DaysRemaining, got.Kind)
	}
}

func TestClassifyExpiredLabel(t *testing.T) {
	today := time.Date(2026, time.June, 20, 12, 0, 0, 0, time.UTC)
	exp := today.AddDate(0, 0, -5)
	got := Classify(&exp, today)
	if got.Label != "Expired 5 days ago" {
		t.Fatalf("unexpected label %q", got.Label)
	}
}
