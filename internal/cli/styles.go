package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/garden"
)

const (
	primaryColor = "#15803D" // Green
	accentColor  = "#F59E0B" // Amber
	dimColor     = "#6B7280" // Gray
	barWidth     = 10
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(accentColor))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)
)

// printHabits writes one line per habit: plant, name, streak bar and id.
func printHabits(w io.Writer, habits []api.Habit, now time.Time) {
	if len(habits) == 0 {
		fmt.Fprintln(w, dimStyle.Render("Your garden is empty. Plant a habit with: habit-garden habits add NAME"))
		return
	}

	nameWidth := 0
	for _, h := range habits {
		nameWidth = max(nameWidth, lipgloss.Width(h.Name))
	}

	fmt.Fprintln(w, titleStyle.Render("🌱 Your Garden"))
	fmt.Fprintln(w)
	for _, h := range habits {
		stage := garden.StageFor(h.Streak)
		today := ""
		if garden.GrownToday(h.LastStreakDate, now) {
			today = successStyle.Render(" ✓ today")
		}
		fmt.Fprintf(w, "  %s %s  %s %3d days%s  %s\n",
			stage.Emoji,
			padRight(h.Name, nameWidth),
			progressBar(garden.Progress(h.Streak)),
			h.Streak,
			today,
			dimStyle.Render(h.ID),
		)
		if h.Description != "" {
			fmt.Fprintf(w, "     %s\n", dimStyle.Render(h.Description))
		}
	}
}

// printInsights writes the streak summary in a box.
func printInsights(w io.Writer, in *api.Insights) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("🧠 Insights"))
	fmt.Fprintf(&b, "Habits:          %d\n", in.TotalHabits)
	fmt.Fprintf(&b, "Days logged:     %d\n", in.TotalStreaks)
	fmt.Fprintf(&b, "Average streak:  %.1f", in.AverageStreak)

	if in.BestHabit.Name != "" {
		desc := in.BestHabit.Description
		if desc == "" {
			desc = "Keep it up!"
		}
		fmt.Fprintf(&b, "\n\n🏆 %s\n%s\nBest Streak: %d days",
			in.BestHabit.Name, dimStyle.Render(desc), in.BestHabit.Streak)
	}

	if len(in.Top3) > 0 {
		fmt.Fprintf(&b, "\n\n%s", titleStyle.Render("🌱 Top 3 Consistent Habits"))
		for i, h := range in.Top3 {
			fmt.Fprintf(&b, "\n%d. %s (%d days)", i+1, h.Name, h.Streak)
		}
	}

	fmt.Fprintln(w, boxStyle.Render(b.String()))
}

func progressBar(percent int) string {
	filled := percent * barWidth / 100
	return successStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", barWidth-filled))
}

func padRight(s string, n int) string {
	if w := lipgloss.Width(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
