package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"marketplace-catalog/internal/model"
)

// 2026-10-19 is a Monday.
func monday(hour, minute int) time.Time {
	return time.Date(2026, time.October, 19, hour, minute, 0, 0, time.UTC)
}

func TestIsOpen_NoScheduleIsOpen(t *testing.T) {
	assert.True(t, IsOpen(nil, monday(3, 0)))
	assert.True(t, IsOpen(model.OpeningHours{}, monday(3, 0)))
}

func TestIsOpen_MissingDayIsOpen(t *testing.T) {
	hours := model.OpeningHours{"tue": {Open: "09:00", Close: "17:00"}}
	assert.True(t, IsOpen(hours, monday(3, 0)))
}

func TestIsOpen_ClosedDay(t *testing.T) {
	hours := model.OpeningHours{"mon": {Closed: true}}
	for _, h := range []int{0, 9, 12, 23} {
		assert.False(t, IsOpen(hours, monday(h, 30)), "hour %d", h)
	}
}

func TestIsOpen_InclusiveWindow(t *testing.T) {
	hours := model.OpeningHours{"mon": {Open: "09:00", Close: "17:30"}}

	tests := []struct {
		at   time.Time
		want bool
	}{
		{monday(8, 59), false},
		{monday(9, 0), true},
		{monday(12, 0), true},
		{monday(17, 30), true},
		{monday(17, 31), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsOpen(hours, tt.at), tt.at.Format("15:04"))
	}
}

func TestIsOpen_MalformedTimesDefaultToFullDay(t *testing.T) {
	hours := model.OpeningHours{"mon": {Open: "nine", Close: ""}}
	assert.True(t, IsOpen(hours, monday(0, 0)))
	assert.True(t, IsOpen(hours, monday(23, 59)))

	// Only the malformed side falls back.
	hours = model.OpeningHours{"mon": {Open: "25:00", Close: "12:00"}}
	assert.True(t, IsOpen(hours, monday(6, 0)))
	assert.False(t, IsOpen(hours, monday(13, 0)))
}

func TestIsOpen_SecondsSuffixAndFullDayNames(t *testing.T) {
	hours := model.OpeningHours{"monday": {Open: "10:00:00", Close: "11:00:00"}}
	assert.True(t, IsOpen(hours, monday(10, 30)))
	assert.False(t, IsOpen(hours, monday(11, 1)))
}

func TestParseClock(t *testing.T) {
	assert.Equal(t, 9*60+5, parseClock("09:05", -1))
	assert.Equal(t, 7*60, parseClock(" 7:00 ", -1))
	assert.Equal(t, -1, parseClock("0905", -1))
	assert.Equal(t, -1, parseClock("09:60", -1))
	assert.Equal(t, -1, parseClock("ab:cd", -1))
	assert.Equal(t, -1, parseClock("", -1))
}
