// Package attendance decides whether a fingerprint scan is a check-in, a
// check-out, a cooldown violation or a duplicate for the day.
package attendance

import (
	"fmt"
	"time"

	"fpattend/internal/apperr"
	"fpattend/internal/ledger"
)

// Action is the event an accepted scan recorded.
type Action string

const (
	CheckIn  Action = "check_in"
	CheckOut Action = "check_out"
)

// Decide applies the per-day state machine NoEvent -> CheckedIn -> CheckedOut.
// It returns the record to store, or a CooldownActive / AttendanceComplete error.
func Decide(cur ledger.DayRecord, now time.Time, cooldown time.Duration) (ledger.DayRecord, Action, error) {
	switch {
	case cur.CheckIn == nil:
		at := now
		return ledger.DayRecord{CheckIn: &at}, CheckIn, nil

	case cur.CheckOut == nil:
		elapsed := now.Sub(*cur.CheckIn)
		if elapsed < 0 {
			elapsed = 0
		}
		if elapsed < cooldown {
			return cur, "", apperr.Cooldown(ceilMinutes(cooldown - elapsed))
		}
		at := now
		next := cur
		next.CheckOut = &at
		next.WorkingHours = FormatWorkingHours(elapsed)
		return next, CheckOut, nil
	}
	return cur, "", apperr.New(apperr.AttendanceComplete, "Attendance already completed for today")
}

// ceilMinutes rounds a positive duration up to whole minutes.
func ceilMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}

// FormatWorkingHours renders the stored working_hours value, e.g. "8 hours 30 minutes".
func FormatWorkingHours(d time.Duration) string {
	h, m := split(d)
	return fmt.Sprintf("%d hours %d minutes", h, m)
}

// FormatDuration renders a duration for the display: minutes only under an hour.
func FormatDuration(d time.Duration) string {
	h, m := split(d)
	if h == 0 {
		return fmt.Sprintf("%d minutes", m)
	}
	return fmt.Sprintf("%d hours %d minutes", h, m)
}

func split(d time.Duration) (hours, minutes int) {
	if d < 0 {
		d = 0
	}
	return int(d / time.Hour), int((d % time.Hour) / time.Minute)
}
