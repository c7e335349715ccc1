// Package garden maps habit streaks to the plant growth stages shown in the UI.
package garden

import (
	"time"
)

// Stage is a growth stage of a habit plant.
type Stage struct {
	Name  string
	Emoji string
	Range string
	Min   int // first streak day of the stage
}

// Stages in growth order.
var Stages = []Stage{
	{Name: "Seedling", Emoji: "🌱", Range: "Days 0–2", Min: 0},
	{Name: "Sprout", Emoji: "🌿", Range: "Days 3–6", Min: 3},
	{Name: "Tree", Emoji: "🌴", Range: "Days 7–13", Min: 7},
	{Name: "Blossom", Emoji: "🌸", Range: "Day 14+", Min: 14},
}

// StageFor returns the stage a streak has reached.
func StageFor(streak int) Stage {
	stage := Stages[0]
	for _, s := range Stages {
		if streak >= s.Min {
			stage = s
		}
	}
	return stage
}

// Progress returns the streak progress bar fill in percent.
func Progress(streak int) int {
	if streak <= 0 {
		return 0
	}
	return min(streak*10, 100)
}

// GrownToday reports whether last falls on the same calendar day as now,
// in now's location.
func GrownToday(last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}
	l := last.In(now.Location())
	return l.Year() == now.Year() && l.YearDay() == now.YearDay()
}
