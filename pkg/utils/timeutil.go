package utils

import (
	"strings"
	"time"
)

// ET is the US Eastern time zone EDGAR operates in.
var ET *time.Location

func init() {
	var err error
	ET, err = time.LoadLocation("America/New_York")
	if err != nil {
		// Fallback: fixed EST offset if the tz database is not available
		ET = time.FixedZone("EST", -5*60*60)
	}
}

// NowET returns the current time in US Eastern time.
func NowET() time.Time {
	return time.Now().In(ET)
}

// EDGAROpenTime returns the time EDGAR starts accepting filings (6:00 AM ET).
func EDGAROpenTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 6, 0, 0, 0, ET)
}

// EDGARCloseTime returns the time EDGAR stops accepting filings (10:00 PM ET).
func EDGARCloseTime(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 22, 0, 0, 0, ET)
}

// LiveFeedCutoff is 5:30 PM ET; filings accepted later are dated the next business day.
func LiveFeedCutoff(date time.Time) time.Time {
	d := date.In(ET)
	return time.Date(d.Year(), d.Month(), d.Day(), 17, 30, 0, 0, ET)
}

// IsEDGAROpenAt checks if EDGAR accepts filings at the given time.
func IsEDGAROpenAt(t time.Time) bool {
	t = t.In(ET)
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	if IsFederalHoliday(t) {
		return false
	}
	return !t.Before(EDGAROpenTime(t)) && t.Before(EDGARCloseTime(t))
}

// IsFederalHoliday checks if the given date is a federal holiday on which
// EDGAR is closed. This list should be updated annually.
func IsFederalHoliday(t time.Time) bool {
	_, ok := federalHolidays2026[t.In(ET).Format("2006-01-02")]
	return ok
}

// Federal holidays for 2026 (update annually).
var federalHolidays2026 = map[string]string{
	"2026-01-01": "New Year's Day",
	"2026-01-19": "Martin Luther King Jr. Day",
	"2026-02-16": "Washington's Birthday",
	"2026-05-25": "Memorial Day",
	"2026-06-19": "Juneteenth",
	"2026-07-03": "Independence Day (observed)",
	"2026-09-07": "Labor Day",
	"2026-10-12": "Columbus Day",
	"2026-11-11": "Veterans Day",
	"2026-11-26": "Thanksgiving Day",
	"2026-12-25": "Christmas Day",
}

// EDGARStatus returns a human-readable EDGAR acceptance status for t.
func EDGARStatus(t time.Time) string {
	t = t.In(ET)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return "CLOSED (Weekend)"
	}
	if holiday, ok := federalHolidays2026[t.Format("2006-01-02")]; ok {
		return "CLOSED (" + holiday + ")"
	}

	switch {
	case t.Before(EDGAROpenTime(t)):
		return "CLOSED (Before 6:00am ET)"
	case t.Before(LiveFeedCutoff(t)):
		return "OPEN"
	case t.Before(EDGARCloseTime(t)):
		return "OPEN (After 5:30pm ET, next-day filing date)"
	default:
		return "CLOSED"
	}
}

// FormatDateTimeET formats a time.Time to "2006-01-02 15:04:05 ET".
func FormatDateTimeET(t time.Time) string {
	return t.In(ET).Format("2006-01-02 15:04:05") + " ET"
}

// FormatRelease renders an Atom "updated" timestamp as "Mon 01/02/2006 - 3:04pm".
// Unparseable values are returned trimmed and unchanged.
func FormatRelease(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Mon 01/02/2006") + " - " + strings.ToLower(t.Format("3:04PM"))
}

// ParseSECDate parses the date formats EDGAR uses in headers and feeds.
// It returns the zero time when no layout matches.
func ParseSECDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"2006-01-02",
		"20060102",
		"20060102150405",
		"01/02/2006",
		time.RFC3339,
	} {
		if t, err := time.ParseInLocation(layout, s, ET); err == nil {
			return t
		}
	}
	return time.Time{}
}
