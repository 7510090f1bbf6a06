package core

import (
	"strings"
	"time"
)

const (
	ISODate     = "2006-01-02"
	DisplayDate = "02/01/2006"
	DisplayTime = "02/01/2006 15:04"

	// Placeholder renders missing values.
	Placeholder = "—"
)

// Today returns now's calendar day in loc as YYYY-MM-DD. The components
// come from loc, never from the UTC instant.
func Today(now time.Time, loc *time.Location) string {
	return DateToISO(now.In(orLocal(loc)))
}

// DateToISO renders t's own year, month and day.
func DateToISO(t time.Time) string {
	return t.Format(ISODate)
}

// ParseISODate reads a YYYY-MM-DD string as midnight in loc.
func ParseISODate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ISODate, strings.TrimSpace(s), orLocal(loc))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(orLocal(loc))
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FormatDate renders dd/mm/yyyy. Date-only strings keep their calendar day
// in every zone; timestamps are shown in loc. Empty or unparseable input
// yields the placeholder.
func FormatDate(s string, loc *time.Location) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Placeholder
	}
	if len(s) == len(ISODate) {
		t, err := ParseISODate(s, loc)
		if err != nil {
			return Placeholder
		}
		return t.Format(DisplayDate)
	}
	t, err := ParseTimestamp(s, loc)
	if err != nil {
		return Placeholder
	}
	return t.In(orLocal(loc)).Format(DisplayDate)
}

// FormatDateTime renders a sync timestamp as dd/mm/yyyy hh:mm in loc.
func FormatDateTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.In(orLocal(loc)).Format(DisplayTime)
}

// ParseTimestamp accepts RFC 3339 and the zone-less forms the API emits;
// zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, orLocal(loc)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDate
}

func orLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
