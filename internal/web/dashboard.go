package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/calendar"
	"github.com/justestif/habit-garden/internal/forms"
	"github.com/justestif/habit-garden/internal/garden"
)

// Dashboard shows insights, the growth path, the heatmap and the habit
// garden (GET /dashboard).
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	client := h.session.Client()
	now := h.now()

	habits, err := client.ListHabits(ctx)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	data := DashboardPageData{
		PageData: h.pageData(w, r, "Dashboard"),
		Stages:   garden.Stages,
	}
	if err != nil {
		h.log.Warn("listing habits", zap.Error(err))
		data.Flash = &FlashMessage{Type: "error", Message: msgLoadFailed}
	}
	data.Habits = newHabitCards(habits, now)

	insights, err := client.Insights(ctx)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("loading insights", zap.Error(err))
	} else {
		data.Insights = insights
	}

	days, err := client.Calendar(ctx)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("loading calendar", zap.Error(err))
	}
	data.Heatmap = newHeatmapData(calendar.BuildGrid(days, now))

	h.render(w, r, http.StatusOK, "dashboard", data)
}

// CreateHabit adds a habit (POST /habits).
func (h *Handlers) CreateHabit(w http.ResponseWriter, r *http.Request) {
	form := forms.Habit{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	if err := forms.Validate(&form); err != nil {
		setFlash(w, "error", err.Error())
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	_, err := h.session.Client().CreateHabit(r.Context(), form.Name, form.Description)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("creating habit", zap.Error(err))
		setFlash(w, "error", msgCreateFailed)
	} else {
		setFlash(w, "success", fmt.Sprintf("🌱 Planted %q", form.Name))
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// GrowHabit records today's progress (POST /habits/{id}/grow).
func (h *Handlers) GrowHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	habit, err := h.session.Client().GrowHabit(r.Context(), id)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	switch {
	case err == nil:
		stage := garden.StageFor(habit.Streak)
		setFlash(w, "success", fmt.Sprintf("%s %s grew! Streak: %d days", stage.Emoji, habit.Name, habit.Streak))
	case errors.Is(err, api.ErrAlreadyDone):
		setFlash(w, "info", msgAlreadyGrown)
	case errors.Is(err, api.ErrGrowInFlight):
		// A duplicate submit; the first request reports the outcome.
	default:
		h.log.Warn("growing habit", zap.String("habit_id", id), zap.Error(err))
		setFlash(w, "error", msgGrowFailed)
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DeleteHabit removes a habit (POST /habits/{id}/delete).
func (h *Handlers) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.session.Client().DeleteHabit(r.Context(), id)
	if h.redirectIfExpired(w, r, err) {
		return
	}
	if err != nil {
		h.log.Warn("deleting habit", zap.String("habit_id", id), zap.Error(err))
		setFlash(w, "error", msgDeleteFailed)
	} else {
		setFlash(w, "success", "Habit removed from your garden.")
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// redirectIfExpired sends the browser to the login page when err means the
// session was rejected. The session itself is already cleared.
func (h *Handlers) redirectIfExpired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, api.ErrSessionExpired) {
		return false
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
	return true
}
