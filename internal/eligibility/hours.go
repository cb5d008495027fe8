package eligibility

import (
	"strconv"
	"strings"
	"time"

	"marketplace-catalog/internal/model"
)

const (
	dayStart = 0
	dayEnd   = 23*60 + 59
)

var weekdayKeys = [...]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// IsOpen reports whether a vendor with the given schedule is open at now,
// using now's wall clock. A missing schedule or a missing day entry counts
// as open.
func IsOpen(hours model.OpeningHours, now time.Time) bool {
	if len(hours) == 0 {
		return true
	}
	day, ok := dayEntry(hours, now.Weekday())
	if !ok {
		return true
	}
	if day.Closed {
		return false
	}

	open := parseClock(day.Open, dayStart)
	closeAt := parseClock(day.Close, dayEnd)
	minute := now.Hour()*60 + now.Minute()
	return minute >= open && minute <= closeAt
}

func dayEntry(hours model.OpeningHours, wd time.Weekday) (model.DayHours, bool) {
	if d, ok := hours[weekdayKeys[wd]]; ok {
		return d, true
	}
	// Some vendors store full day names.
	d, ok := hours[strings.ToLower(wd.String())]
	return d, ok
}

// parseClock turns "HH:MM" (an optional ":SS" suffix is ignored) into minutes
// since midnight. Anything malformed yields def.
func parseClock(s string, def int) int {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 {
		return def
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return def
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return def
	}
	return h*60 + m
}
