package web

import (
	"bytes"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/forms"
	"github.com/justestif/habit-garden/internal/session"
)

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	session   *session.Manager
	templates *Templates
	log       *zap.Logger
	now       func() time.Time

	// Set when the API rejected the session; cleared by the next login page.
	expired atomic.Bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(sess *session.Manager, templates *Templates, log *zap.Logger, now func() time.Time) *Handlers {
	return &Handlers{
		session:   sess,
		templates: templates,
		log:       log,
		now:       now,
	}
}

// Landing handles the landing page (GET /).
func (h *Handlers) Landing(w http.ResponseWriter, r *http.Request) {
	if h.session.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "landing", h.pageData(w, r, "Smart Habit Garden"))
}

// LoginPage shows the login form (GET /login).
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if h.session.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "login", FormPageData{PageData: h.pageData(w, r, "Log in")})
}

// Login handles the login form (POST /login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	form := forms.Login{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := FormPageData{PageData: h.pageData(w, r, "Log in"), Email: form.Email}

	if err := forms.Validate(&form); err != nil {
		h.renderFormError(w, r, "login", data, err)
		return
	}
	if err := h.session.Login(r.Context(), form.Email, form.Password); err != nil {
		h.renderFormError(w, r, "login", data, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SignupPage shows the registration form (GET /signup).
func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	if h.session.IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, "signup", FormPageData{PageData: h.pageData(w, r, "Sign up")})
}

// Signup handles the registration form (POST /signup). A new account is
// logged in straight away.
func (h *Handlers) Signup(w http.ResponseWriter, r *http.Request) {
	form := forms.Signup{
		FullName:        r.PostFormValue("full_name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := FormPageData{PageData: h.pageData(w, r, "Sign up"), Email: form.Email, FullName: form.FullName}

	if err := forms.Validate(&form); err != nil {
		h.renderFormError(w, r, "signup", data, err)
		return
	}
	if err := h.session.Signup(r.Context(), form.Email, form.Password, form.FullName); err != nil {
		h.renderFormError(w, r, "signup", data, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// ForgotPasswordPage shows the reset request form (GET /forgot-password).
func (h *Handlers) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "forgot_password", FormPageData{PageData: h.pageData(w, r, "Forgot password")})
}

// ForgotPassword requests a reset email (POST /forgot-password).
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	form := forms.ForgotPassword{Email: r.PostFormValue("email")}
	data := FormPageData{PageData: h.pageData(w, r, "Forgot password"), Email: form.Email}

	if err := forms.Validate(&form); err != nil {
		h.renderFormError(w, r, "forgot_password", data, err)
		return
	}
	if err := h.session.ForgotPassword(r.Context(), form.Email); err != nil {
		h.renderFormError(w, r, "forgot_password", data, err)
		return
	}

	data.Email = form.Email
	data.Sent = true
	h.render(w, r, http.StatusOK, "forgot_password", data)
}

// ResetPasswordPage shows the new password form (GET /reset-password?token=).
func (h *Handlers) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	data := FormPageData{
		PageData: h.pageData(w, r, "Reset password"),
		Token:    r.URL.Query().Get("token"),
	}
	if err := forms.CheckResetToken(data.Token); err != nil {
		data.Error = err.Error()
	}
	h.render(w, r, http.StatusOK, "reset_password", data)
}

// ResetPassword sets a new password (POST /reset-password).
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	form := forms.ResetPassword{
		Token:           r.PostFormValue("token"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := FormPageData{PageData: h.pageData(w, r, "Reset password"), Token: form.Token}

	if err := forms.Validate(&form); err != nil {
		h.renderFormError(w, r, "reset_password", data, err)
		return
	}
	if err := h.session.ResetPassword(r.Context(), form.Token, form.Password); err != nil {
		h.renderFormError(w, r, "reset_password", data, err)
		return
	}

	setFlash(w, "success", msgResetSuccess)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Logout clears the session and redirects to the login page (POST /logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// requireAuth redirects to the login page unless the session is authenticated.
func (h *Handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// pageData builds the common page fields and consumes any pending flash.
func (h *Handlers) pageData(w http.ResponseWriter, r *http.Request, title string) PageData {
	data := PageData{
		Title:       title,
		User:        newUserData(h.session.User()),
		CurrentPath: r.URL.Path,
	}
	if h.expired.Swap(false) {
		data.Flash = &FlashMessage{Type: "warning", Message: msgSessionExpired}
		clearFlash(w)
		return data
	}
	data.Flash = popFlash(w, r)
	return data
}

// renderFormError re-renders a form page with err. Validation problems are
// shown per field as well.
func (h *Handlers) renderFormError(w http.ResponseWriter, r *http.Request, page string, data FormPageData, err error) {
	data.Error = err.Error()

	status := http.StatusBadGateway
	var ve *forms.ValidationError
	var authErr *session.AuthError
	switch {
	case errors.As(err, &ve):
		status = http.StatusUnprocessableEntity
		data.Errors = make(map[string]string, len(ve.Fields))
		for _, f := range ve.Fields {
			data.Errors[f.Field] = f.Message
		}
	case errors.Is(err, api.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.As(err, &authErr) && api.Detail(err) != "":
		status = http.StatusBadRequest
	}

	if status == http.StatusBadGateway {
		h.log.Warn("form submission failed", zap.String("page", page), zap.Error(err))
	}
	h.render(w, r, status, page, data)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, page, data); err != nil {
		h.log.Error("rendering template",
			zap.String("page", page),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
