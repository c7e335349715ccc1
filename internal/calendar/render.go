package calendar

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	cellGlyph  = "■"
	cellWidth  = 2 // glyph + gap
	labelWidth = 4 // "Sun "
)

// shadeColors index by Shade(level). Index 0 is the empty color.
var shadeColors = [MaxLevel + 1]string{
	"#E5E7EB", // Gray
	"#86EFAC",
	"#4ADE80",
	"#22C55E",
	"#15803D",
}

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#15803D")).Bold(true)

	shadeStyles = func() [MaxLevel + 1]lipgloss.Style {
		var styles [MaxLevel + 1]lipgloss.Style
		for i, c := range shadeColors {
			styles[i] = lipgloss.NewStyle().Foreground(lipgloss.Color(c))
		}
		return styles
	}()
)

// Render draws the grid as a terminal heatmap: a month label row, one row
// per weekday and a legend.
func Render(g Grid) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Your Habit Journey"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(monthHeader(g)))
	b.WriteString("\n")

	rows := g.Rows()
	for wd, row := range rows {
		b.WriteString(labelStyle.Render(padRight(DayLabels[wd], labelWidth)))
		for _, day := range row {
			if day == nil {
				b.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			b.WriteString(shadeStyles[Shade(day.Level)].Render(cellGlyph))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}

	b.WriteString(legend())
	b.WriteString("\n")
	return b.String()
}

// monthHeader places each month label above its anchor column. A label that
// would overlap the previous one is dropped.
func monthHeader(g Grid) string {
	width := labelWidth + cellWidth*len(g.Weeks)
	line := []rune(strings.Repeat(" ", width))
	next := 0
	for _, m := range g.Months {
		pos := labelWidth + cellWidth*m.Week
		label := []rune(MonthLabel(m.Month))
		if pos < next || pos+len(label) > width {
			continue
		}
		copy(line[pos:], label)
		next = pos + len(label) + 1
	}
	return strings.TrimRight(string(line), " ")
}

func legend() string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Less "))
	for _, s := range shadeStyles {
		b.WriteString(s.Render(cellGlyph))
		b.WriteString(" ")
	}
	b.WriteString(labelStyle.Render("More"))
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
