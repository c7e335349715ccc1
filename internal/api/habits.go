package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/justestif/habit-garden/internal/calendar"
)

const (
	pathHabits   = "/habits/"
	pathInsights = "/habits/insights"
	pathCalendar = "/habits/calendar"
)

func habitPath(id string) string {
	return "/habits/" + url.PathEscape(id)
}

// ListHabits returns the user's habits, newest first.
func (c *Client) ListHabits(ctx context.Context) ([]Habit, error) {
	var habits []Habit
	if err := c.do(ctx, http.MethodGet, pathHabits, nil, &habits); err != nil {
		return nil, err
	}
	if habits == nil {
		habits = []Habit{}
	}
	return habits, nil
}

// CreateHabit plants a new habit.
func (c *Client) CreateHabit(ctx context.Context, name, description string) (*Habit, error) {
	var habit Habit
	if err := c.do(ctx, http.MethodPost, pathHabits, habitRequest{Name: name, Description: description}, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

// UpdateHabit renames a habit or changes its description.
func (c *Client) UpdateHabit(ctx context.Context, id, name, description string) (*Habit, error) {
	var habit Habit
	if err := c.do(ctx, http.MethodPut, habitPath(id), habitRequest{Name: name, Description: description}, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

// GrowHabit marks a habit done for today.
// Returns ErrAlreadyDone if it was already grown today, and ErrGrowInFlight
// without sending a request if a grow for the same habit is still pending.
func (c *Client) GrowHabit(ctx context.Context, id string) (*Habit, error) {
	if !c.beginGrow(id) {
		return nil, ErrGrowInFlight
	}
	defer c.endGrow(id)

	var habit Habit
	err := c.do(ctx, http.MethodPut, habitPath(id)+"/grow", nil, &habit)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest {
			apiErr.Err = ErrAlreadyDone
		}
		return nil, err
	}
	return &habit, nil
}

// DeleteHabit removes a habit.
func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, habitPath(id), nil, nil)
}

// Insights returns the streak summary.
func (c *Client) Insights(ctx context.Context) (*Insights, error) {
	var insights Insights
	if err := c.do(ctx, http.MethodGet, pathInsights, nil, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

// Calendar returns per-day activity for the heatmap.
func (c *Client) Calendar(ctx context.Context) ([]calendar.DayActivity, error) {
	var resp calendarResponse
	if err := c.do(ctx, http.MethodGet, pathCalendar, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Calendar == nil {
		resp.Calendar = []calendar.DayActivity{}
	}
	return resp.Calendar, nil
}

func (c *Client) beginGrow(id string) bool {
	c.growingMu.Lock()
	defer c.growingMu.Unlock()
	if _, ok := c.growing[id]; ok {
		return false
	}
	c.growing[id] = struct{}{}
	return true
}

func (c *Client) endGrow(id string) {
	c.growingMu.Lock()
	delete(c.growing, id)
	c.growingMu.Unlock()
}
