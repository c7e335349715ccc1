package calendar

import (
	"fmt"
	"time"
)

// MaxLevel is the highest intensity step a renderer distinguishes.
const MaxLevel = 4

// DayLabels are the row labels, Sunday first.
var DayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// Active reports whether a level counts as an active day.
func Active(level int) bool {
	return level > 0
}

// Shade clamps level to [0, MaxLevel]. The backend currently sends only 0 and 1.
func Shade(level int) int {
	switch {
	case level <= 0:
		return 0
	case level > MaxLevel:
		return MaxLevel
	default:
		return level
	}
}

// MonthLabel returns the three-letter label for m.
func MonthLabel(m time.Month) string {
	return m.String()[:3]
}

// Tooltip describes a slot, e.g. "Oct 15, 2025: Active day".
// It returns "" for nil slots and for dates that do not parse.
func Tooltip(day *DayActivity) string {
	if day == nil {
		return ""
	}
	d, err := time.Parse(DateLayout, day.Date)
	if err != nil {
		return ""
	}
	formatted := d.Format("Jan 2, 2006")
	if day.Count > 0 {
		return fmt.Sprintf("%s: Active day", formatted)
	}
	return fmt.Sprintf("%s: No activity", formatted)
}
