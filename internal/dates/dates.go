// Package dates implements the date-resolution policy for AI-extracted
// transactions. All timestamps are stored in UTC; "today" is interpreted in
// the fixed local timezone of the user base.
package dates

import (
	"time"

	"cloud.google.com/go/civil"
)

// LocalTimezone is the fixed civil timezone used to interpret "today" and
// relative dates.
const LocalTimezone = "America/Bogota"

var localLoc = loadLocal()

func loadLocal() *time.Location {
	loc, err := time.LoadLocation(LocalTimezone)
	if err != nil {
		// Bogota has no DST; a fixed offset is an exact substitute when
		// tzdata is unavailable.
		return time.FixedZone("-05", -5*60*60)
	}
	return loc
}

// NowUTC returns the current instant in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today returns the current calendar date in the local timezone for the
// given UTC instant.
func Today(nowUTC time.Time) civil.Date {
	return civil.DateOf(nowUTC.In(localLoc))
}

// Resolve converts an AI-returned YYYY-MM-DD date into the instant to
// persist and the calendar date to display.
//
//   - Unparseable input falls back to nowUTC verbatim (best-effort, no error).
//   - A date equal to "today" local resolves to nowUTC exactly, preserving
//     sub-day ordering for same-day entries.
//   - Any other date resolves to that day at 12:00 UTC, which keeps the
//     stored day stable under timezone conversion.
func Resolve(aiDate string, nowUTC time.Time) (time.Time, civil.Date) {
	parsed, err := civil.ParseDate(aiDate)
	if err != nil {
		return nowUTC, civil.DateOf(nowUTC.In(localLoc))
	}

	if parsed == Today(nowUTC) {
		return nowUTC, parsed
	}

	noon := time.Date(parsed.Year, parsed.Month, parsed.Day, 12, 0, 0, 0, time.UTC)
	return noon, parsed
}

// FormatDisplay renders a calendar date in the DD/MM/YYYY format used in
// chat replies.
func FormatDisplay(d civil.Date) string {
	return d.In(time.UTC).Format("02/01/2006")
}
