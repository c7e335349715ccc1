package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/calendar"
	"github.com/justestif/habit-garden/internal/garden"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	// Execute the "base" template which includes the page content
	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses every page together with the layouts and partials.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}
	if len(pages) == 0 {
		return fmt.Errorf("no page templates found")
	}

	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := strings.TrimSuffix(filepath.Base(page), ".html")
		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

// defaultFuncs returns the default template functions.
func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// formatDate formats a time as "Jan 2, 2006"
		"formatDate": func(t *time.Time) string {
			if t == nil {
				return "never"
			}
			return t.Format("Jan 2, 2006")
		},

		"add": func(a, b int) int {
			return a + b
		},

		"shadeClass": func(level int) string {
			return fmt.Sprintf("level-%d", calendar.Shade(level))
		},

		"oneDecimal": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	User        *UserData
	Flash       *FlashMessage
	CurrentPath string
}

// UserData contains authenticated user information.
type UserData struct {
	ID    string
	Name  string
	Email string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string `json:"type"` // "success", "error", "warning", "info"
	Message string `json:"message"`
}

// FormPageData backs the login, signup and password pages.
type FormPageData struct {
	PageData
	Email    string
	FullName string
	Token    string
	Error    string
	Errors   map[string]string // per field
	Sent     bool              // forgot-password confirmation
}

// DashboardPageData backs the dashboard page.
type DashboardPageData struct {
	PageData
	Habits   []HabitCard
	Insights *api.Insights
	Stages   []garden.Stage
	Heatmap  HeatmapData
}

// HabitCard is a habit as shown in the garden.
type HabitCard struct {
	ID             string
	Name           string
	Description    string
	Streak         int
	Stage          garden.Stage
	Progress       int
	GrownToday     bool
	LastStreakDate *time.Time
}

// HeatmapData is the activity calendar laid out for the template.
type HeatmapData struct {
	Year       int
	Weeks      int
	ActiveDays int
	Months     []MonthLabel
	Rows       []HeatmapRow
	Legend     []int
}

// MonthLabel places a month name above a grid column.
type MonthLabel struct {
	Column int // 1-based CSS grid column
	Label  string
}

// HeatmapRow is one weekday across all weeks.
type HeatmapRow struct {
	Label string
	Cells []HeatmapCell
}

// HeatmapCell is one day slot.
type HeatmapCell struct {
	Empty   bool // past the end of the grid
	Level   int
	Tooltip string
}

func newHabitCards(habits []api.Habit, now time.Time) []HabitCard {
	cards := make([]HabitCard, 0, len(habits))
	for _, h := range habits {
		cards = append(cards, HabitCard{
			ID:             h.ID,
			Name:           h.Name,
			Description:    h.Description,
			Streak:         h.Streak,
			Stage:          garden.StageFor(h.Streak),
			Progress:       garden.Progress(h.Streak),
			GrownToday:     garden.GrownToday(h.LastStreakDate, now),
			LastStreakDate: h.LastStreakDate,
		})
	}
	return cards
}

func newHeatmapData(g calendar.Grid) HeatmapData {
	data := HeatmapData{
		Year:       g.Year,
		Weeks:      len(g.Weeks),
		ActiveDays: g.ActiveDays(),
		Legend:     make([]int, 0, calendar.MaxLevel+1),
	}
	for level := 0; level <= calendar.MaxLevel; level++ {
		data.Legend = append(data.Legend, level)
	}
	for _, a := range g.Months {
		data.Months = append(data.Months, MonthLabel{Column: a.Week + 1, Label: calendar.MonthLabel(a.Month)})
	}

	rows := g.Rows()
	for i, row := range rows {
		hr := HeatmapRow{Label: calendar.DayLabels[i], Cells: make([]HeatmapCell, 0, len(row))}
		for _, day := range row {
			if day == nil {
				hr.Cells = append(hr.Cells, HeatmapCell{Empty: true})
				continue
			}
			hr.Cells = append(hr.Cells, HeatmapCell{Level: day.Level, Tooltip: calendar.Tooltip(day)})
		}
		data.Rows = append(data.Rows, hr)
	}
	return data
}

func newUserData(u *api.User) *UserData {
	if u == nil {
		return nil
	}
	name := u.FullName
	if name == "" {
		name = u.Email
	}
	return &UserData{ID: u.ID, Name: name, Email: u.Email}
}
