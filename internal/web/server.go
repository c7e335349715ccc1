// Package web provides the local HTTP server and web UI for habit-garden.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/justestif/habit-garden/internal/session"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Session     *session.Manager
	Logger      *zap.Logger
	Now         func() time.Time // defaults to time.Now
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	handlers  *Handlers
	log       *zap.Logger

	unsubscribe func()
}

// NewServer creates a new web server bound to the given session.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Session == nil {
		return nil, errors.New("web: session manager is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	handlers := NewHandlers(cfg.Session, templates, cfg.Logger, cfg.Now)

	s := &Server{
		router:    chi.NewRouter(),
		templates: templates,
		handlers:  handlers,
		log:       cfg.Logger,
	}

	// An expired session is announced on the next login page.
	s.unsubscribe = cfg.Session.Subscribe(func(ev session.Event) {
		if ev.Type == session.EventExpired {
			handlers.expired.Store(true)
		}
	})

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.crossOriginProtection())
	s.router.Use(middleware.Compress(5))
}

// crossOriginProtection rejects state-changing requests sent by other sites.
func (s *Server) crossOriginProtection() func(http.Handler) http.Handler {
	cop := http.NewCrossOriginProtection()
	cop.SetDenyHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Warn("cross-origin request rejected",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("origin", r.Header.Get("Origin")),
			zap.String("sec_fetch_site", r.Header.Get("Sec-Fetch-Site")),
		)
		http.Error(w, "cross-origin request rejected", http.StatusForbidden)
	}))
	return cop.Handler
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS) {
	h := s.handlers

	if staticFS != nil {
		fileServer := http.FileServer(http.FS(staticFS))
		s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	s.router.Get("/", h.Landing)

	s.router.Get("/login", h.LoginPage)
	s.router.Post("/login", h.Login)
	s.router.Get("/signup", h.SignupPage)
	s.router.Post("/signup", h.Signup)
	s.router.Get("/forgot-password", h.ForgotPasswordPage)
	s.router.Post("/forgot-password", h.ForgotPassword)
	s.router.Get("/reset-password", h.ResetPasswordPage)
	s.router.Post("/reset-password", h.ResetPassword)
	s.router.Post("/logout", h.Logout)

	s.router.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Get("/dashboard", h.Dashboard)
		r.Post("/habits", h.CreateHabit)
		r.Post("/habits/{id}/grow", h.GrowHabit)
		r.Post("/habits/{id}/delete", h.DeleteHabit)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("url", "http://"+s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unsubscribe()
	return s.server.Shutdown(ctx)
}

// Run starts the server and shuts it down gracefully when ctx is cancelled
// or an interrupt signal arrives.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info("server stopped")
	return nil
}

// requestLogger logs each request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
