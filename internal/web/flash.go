package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"
)

const (
	flashCookieName = "habit_garden_flash"
	flashTTL        = time.Minute
)

// Flash messages shown by the handlers.
const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgResetSuccess   = "Password reset successfully! Please log in."
	msgAlreadyGrown   = "🌿 You already grew this habit today!"
	msgGrowFailed     = "⚠️ Could not grow habit. Please try again."
	msgLoadFailed     = "Could not load your garden. Please try again."
	msgCreateFailed   = "Could not add habit. Please try again."
	msgDeleteFailed   = "Could not delete habit. Please try again."
)

// setFlash stores a message to show on the next page render.
func setFlash(w http.ResponseWriter, typ, message string) {
	data, err := json.Marshal(FlashMessage{Type: typ, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(data),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flashTTL.Seconds()),
	})
}

// popFlash returns the pending message, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *FlashMessage {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	clearFlash(w)

	data, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flash FlashMessage
	if err := json.Unmarshal(data, &flash); err != nil || flash.Message == "" {
		return nil
	}
	return &flash
}

// clearFlash removes the flash cookie from the response.
func clearFlash(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
