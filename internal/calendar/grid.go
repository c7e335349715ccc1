// Package calendar builds the week-aligned activity grid behind the habit heatmap.
//
// The grid covers one calendar year. Columns are weeks starting on Sunday and
// rows are days of the week, the same layout as a contribution heatmap.
package calendar

import (
	"time"
)

// DateLayout is the layout of DayActivity.Date.
const DateLayout = "2006-01-02"

// DayActivity is the activity recorded for a single day.
type DayActivity struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Week holds the seven slots of one grid column, indexed by time.Weekday.
// A nil slot is a day outside the grid's year.
type Week [7]*DayActivity

// MonthAnchor marks the column where a month label starts.
type MonthAnchor struct {
	Week  int
	Month time.Month
}

// MonthIndex returns the zero-based month (0 = January).
func (a MonthAnchor) MonthIndex() int {
	return int(a.Month) - 1
}

// Grid is a year of activity laid out in Sunday-aligned weeks.
type Grid struct {
	Year   int
	Start  time.Time // Sunday on or before January 1
	Weeks  []Week
	Months []MonthAnchor
}

// BuildGrid lays records out over the calendar year of reference.
//
// Days of the year without a record get a zero-activity placeholder. Days
// before January 1 in the first week and after December 31 in the last week
// are nil. Records dated outside the grid are ignored. Only the year of
// reference is used, so the result does not depend on the wall clock.
func BuildGrid(records []DayActivity, reference time.Time) Grid {
	year := reference.Year()
	yearStart := civilDate(year, time.January, 1)
	yearEnd := civilDate(year, time.December, 31)
	gridStart := yearStart.AddDate(0, 0, -int(yearStart.Weekday()))

	index := make(map[string]DayActivity, len(records))
	for _, r := range records {
		index[r.Date] = r
	}

	days := daysBetween(gridStart, yearEnd) + 1
	grid := Grid{
		Year:  year,
		Start: gridStart,
		Weeks: make([]Week, (days+6)/7),
	}

	var lastMonth time.Month
	for i, d := 0, gridStart; !d.After(yearEnd); i, d = i+1, d.AddDate(0, 0, 1) {
		column := i / 7
		weekday := d.Weekday()
		inYear := !d.Before(yearStart)

		if inYear {
			key := d.Format(DateLayout)
			day, ok := index[key]
			if !ok {
				day = DayActivity{Date: key}
			}
			grid.Weeks[column][weekday] = &day
		}

		if weekday == time.Sunday && inYear && d.Month() != lastMonth {
			grid.Months = append(grid.Months, MonthAnchor{Week: column, Month: d.Month()})
			lastMonth = d.Month()
		}
	}

	return grid
}

// Rows returns the grid in row-major form: rows[weekday][week].
func (g Grid) Rows() [7][]*DayActivity {
	var rows [7][]*DayActivity
	for wd := range rows {
		rows[wd] = make([]*DayActivity, len(g.Weeks))
		for w, week := range g.Weeks {
			rows[wd][w] = week[wd]
		}
	}
	return rows
}

// Day returns the slot for date, or nil if date is not an in-year day of the grid.
func (g Grid) Day(date time.Time) *DayActivity {
	d := civilDate(date.Year(), date.Month(), date.Day())
	if d.Before(g.Start) {
		return nil
	}
	column := daysBetween(g.Start, d) / 7
	if column >= len(g.Weeks) {
		return nil
	}
	return g.Weeks[column][d.Weekday()]
}

// ActiveDays counts in-year days with activity.
func (g Grid) ActiveDays() int {
	n := 0
	for _, week := range g.Weeks {
		for _, day := range week {
			if day != nil && Active(day.Level) {
				n++
			}
		}
	}
	return n
}

// civilDate returns midnight UTC so day arithmetic is never shifted by DST.
func civilDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
