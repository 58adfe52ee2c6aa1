// Package expiry classifies certificate and document expiry dates into the
// status badges shown across the compliance screens.
package expiry

import (
	"fmt"
	"time"
)

// StatusKind is the badge bucket an expiry date falls into.
type StatusKind string

const (
	NotSet   StatusKind = "NOT_SET"
	Expired  StatusKind = "EXPIRED"
	Critical StatusKind = "CRITICAL"
	Warning  StatusKind = "WARNING"
	OK       StatusKind = "OK"
)

const (
	CriticalDays = 14
	WarningDays  = 30
)

// Status is the result of classifying one expiry date.
type Status struct {
	Kind          StatusKind `json:"statusKind"`
	DaysRemaining *int       `json:"daysRemaining,omitempty"`
	Label         string     `json:"label"`
	Color         string     `json:"color"`
}

// Classify buckets expiry relative to today. Both values are truncated to
// their calendar day first, so the time-of-day of either never matters.
func Classify(expiryDate *time.Time, today time.Time) Status {
	if expiryDate == nil || expiryDate.IsZero() {
		return Status{Kind: NotSet, Label: "Not set", Color: "gray"}
	}

	days := DaysBetween(today, *expiryDate)
	st := Status{DaysRemaining: &days}

	switch {
	case days < 0:
		st.Kind = Expired
		st.Color = "red"
		st.Label = fmt.Sprintf("Expired %s ago", pluralDays(-days))
	case days <= CriticalDays:
		st.Kind = Critical
		st.Color = "red"
		st.Label = pluralDays(days) + " remaining"
	case days <= WarningDays:
		st.Kind = Warning
		st.Color = "amber"
		st.Label = pluralDays(days) + " remaining"
	default:
		st.Kind = OK
		st.Color = "green"
		st.Label = pluralDays(days) + " remaining"
	}
	return st
}

// DaysBetween counts whole calendar days from `from` to `to`. The calendar
// date of each value is read in its own location.
func DaysBetween(from, to time.Time) int {
	f := civilDay(from)
	t := civilDay(to)
	return int(t.Sub(f).Hours() / 24)
}

func civilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
