package api

import (
	"time"

	"github.com/justestif/habit-garden/internal/calendar"
)

// User is the profile returned by /auth/me.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

// Habit is a tracked habit. Streak is maintained by the backend.
type Habit struct {
	ID             string     `json:"_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Streak         int        `json:"streak"`
	LastStreakDate *time.Time `json:"last_streak_date,omitempty"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
}

// BestHabit summarizes the habit with the longest streak.
type BestHabit struct {
	Name        string `json:"name"`
	Streak      int    `json:"streak"`
	Description string `json:"description"`
}

// Insights is the response of /habits/insights.
type Insights struct {
	TotalHabits   int       `json:"total_habits"`
	TotalStreaks  int       `json:"total_streaks"` // total days logged
	AverageStreak float64   `json:"average_streak"`
	BestHabit     BestHabit `json:"best_habit"`
	Top3          []Habit   `json:"top_3"`
}

type habitRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type calendarResponse struct {
	Calendar []calendar.DayActivity `json:"calendar"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// errorResponse is the FastAPI error body. Detail is a string for
// HTTPException and a list of objects for request validation failures.
type errorResponse struct {
	Detail any `json:"detail"`
}
