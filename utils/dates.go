// utils/dates.go
package utils

import (
	"fmt"
	"time"
)

// OverdueLabel is shown instead of a remaining time once a reminder is late.
const OverdueLabel = "overdue"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// DayBounds returns [start, end) of the calendar day containing t in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := BeginningOfDay(t.In(loc))
	return start, start.AddDate(0, 0, 1)
}

// FormatTimeRemaining renders d as "<h>h <m>m", or OverdueLabel when negative.
func FormatTimeRemaining(d time.Duration) string {
	if d < 0 {
		return OverdueLabel
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatRelativeDay renders t as "Today 15:04", "Yesterday 15:04" or a full
// date, in now's location.
func FormatRelativeDay(t, now time.Time) string {
	t = t.In(now.Location())
	today := BeginningOfDay(now)
	switch day := BeginningOfDay(t); {
	case day.Equal(today):
		return "Today " + t.Format("15:04")
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday " + t.Format("15:04")
	}
	return t.Format("2006-01-02 15:04")
}
