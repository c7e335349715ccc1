// Package session owns the authenticated identity of the client and the
// API client that carries it.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/justestif/habit-garden/internal/api"
)

// State is the authentication state of a Manager.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
)

func (s State) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// EventType identifies a session transition.
type EventType int

const (
	// EventLogin follows a successful Login or Signup.
	EventLogin EventType = iota
	// EventRestored follows a Rehydrate that found a stored session.
	EventRestored
	// EventLogout follows Logout.
	EventLogout
	// EventExpired follows an authenticated call rejected by the API.
	EventExpired
)

func (t EventType) String() string {
	switch t {
	case EventLogin:
		return "login"
	case EventRestored:
		return "restored"
	case EventLogout:
		return "logout"
	case EventExpired:
		return "expired"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is delivered to subscribers after a transition has completed.
type Event struct {
	Type  EventType
	State State
	User  *api.User
}

// AuthError is returned by the auth operations of a Manager.
type AuthError struct {
	Op      string
	Message string // user-facing
	Err     error
}

func (e *AuthError) Error() string {
	return e.Message
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func newAuthError(op string, err error, fallback string) *AuthError {
	msg := api.Detail(err)
	if msg == "" {
		msg = fallback
	}
	return &AuthError{Op: op, Message: msg, Err: err}
}

// Manager holds the token and user profile, mirrors them into Storage, and
// supplies credentials to the API client it owns.
type Manager struct {
	storage    Storage
	client     *api.Client
	log        *zap.Logger
	clientOpts []api.Option

	mu         sync.RWMutex
	state      State
	token      string
	user       *api.User
	rehydrated bool

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager and its API client.
func WithLogger(log *zap.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// WithClientOptions passes extra options to the API client.
func WithClientOptions(opts ...api.Option) Option {
	return func(m *Manager) {
		m.clientOpts = append(m.clientOpts, opts...)
	}
}

// New creates a Manager in the Unauthenticated state. Call Rehydrate to
// restore a stored session.
func New(storage Storage, cfg *api.Config, opts ...Option) *Manager {
	m := &Manager{
		storage: storage,
		log:     zap.NewNop(),
		subs:    make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(m)
	}

	clientOpts := []api.Option{
		api.WithCredentials(m),
		api.WithLogger(m.log.Named("api")),
	}
	m.client = api.NewClient(cfg, append(clientOpts, m.clientOpts...)...)
	return m
}

// Client returns the API client bound to this session.
func (m *Manager) Client() *api.Client {
	return m.client
}

// Rehydrate restores a stored session. Only the first call has an effect.
// Partial or malformed state is cleared and leaves the manager
// Unauthenticated.
func (m *Manager) Rehydrate(ctx context.Context) error {
	m.mu.Lock()
	if m.rehydrated {
		m.mu.Unlock()
		return nil
	}
	m.rehydrated = true
	m.mu.Unlock()

	token, hasToken, err := m.storage.Get(ctx, KeyAccessToken)
	if err != nil {
		return fmt.Errorf("reading stored token: %w", err)
	}
	raw, hasUser, err := m.storage.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("reading stored user: %w", err)
	}

	if !hasToken && !hasUser {
		return nil
	}

	user, ok := decodeUser(raw)
	if token == "" || !hasUser || !ok {
		m.log.Warn("discarding incomplete stored session",
			zap.Bool("has_token", token != ""),
			zap.Bool("has_user", hasUser),
		)
		m.clearStorage(ctx)
		return nil
	}

	m.mu.Lock()
	m.state = Authenticated
	m.token = token
	m.user = user
	m.mu.Unlock()

	m.log.Debug("session restored", zap.String("email", user.Email))
	m.emit(Event{Type: EventRestored, State: Authenticated, User: copyUser(user)})
	return nil
}

// Login exchanges credentials for a token, fetches the profile and
// persists both. On failure no state is retained.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	m.state = Authenticating
	m.mu.Unlock()

	tok, err := m.client.Login(ctx, email, password)
	if err != nil {
		m.reset(ctx)
		return newAuthError("login", err, "Login failed")
	}

	m.mu.Lock()
	m.token = tok.AccessToken
	m.mu.Unlock()

	if err := m.storage.Set(ctx, KeyAccessToken, tok.AccessToken); err != nil {
		m.reset(ctx)
		return &AuthError{Op: "login", Message: "Login failed", Err: fmt.Errorf("storing token: %w", err)}
	}

	user, err := m.client.Me(ctx)
	if err != nil {
		m.reset(ctx)
		return newAuthError("login", err, "Login failed")
	}

	data, err := json.Marshal(user)
	if err != nil {
		m.reset(ctx)
		return &AuthError{Op: "login", Message: "Login failed", Err: fmt.Errorf("encoding user: %w", err)}
	}
	if err := m.storage.Set(ctx, KeyUser, string(data)); err != nil {
		m.reset(ctx)
		return &AuthError{Op: "login", Message: "Login failed", Err: fmt.Errorf("storing user: %w", err)}
	}

	m.mu.Lock()
	m.state = Authenticated
	m.user = user
	m.mu.Unlock()

	m.log.Info("logged in", zap.String("email", user.Email))
	m.emit(Event{Type: EventLogin, State: Authenticated, User: copyUser(user)})
	return nil
}

// Signup registers an account and then logs in with the same credentials.
func (m *Manager) Signup(ctx context.Context, email, password, fullName string) error {
	if _, err := m.client.Signup(ctx, email, password, fullName); err != nil {
		return newAuthError("signup", err, "Signup failed")
	}
	return m.Login(ctx, email, password)
}

// Logout clears the session. It always succeeds.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.state = Unauthenticated
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.clearStorage(context.Background())
	m.log.Info("logged out")
	m.emit(Event{Type: EventLogout, State: Unauthenticated})
}

// ForgotPassword asks the API to send a reset email.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if err := m.client.ForgotPassword(ctx, email); err != nil {
		return newAuthError("forgot password", err, "Failed to send reset email")
	}
	return nil
}

// ResetPassword sets a new password using a reset token.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := m.client.ResetPassword(ctx, token, newPassword); err != nil {
		return newAuthError("reset password", err, "Failed to reset password")
	}
	return nil
}

// AccessToken implements api.Credentials.
func (m *Manager) AccessToken() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Expire implements api.Credentials. Subscribers are only told when an
// established session is lost; a rejected Login is reported by Login itself.
func (m *Manager) Expire() {
	m.mu.Lock()
	wasAuthenticated := m.state == Authenticated
	m.state = Unauthenticated
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.clearStorage(context.Background())
	if wasAuthenticated {
		m.log.Info("session expired")
		m.emit(Event{Type: EventExpired, State: Unauthenticated})
	}
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Token returns the current access token, or "".
func (m *Manager) Token() string {
	return m.AccessToken()
}

// User returns a copy of the current profile, or nil.
func (m *Manager) User() *api.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyUser(m.user)
}

// IsAuthenticated reports whether the state is Authenticated.
func (m *Manager) IsAuthenticated() bool {
	return m.State() == Authenticated
}

// Subscribe registers fn for session events and returns a function that
// removes it. fn runs on the goroutine that caused the transition.
func (m *Manager) Subscribe(fn func(Event)) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, id)
			m.subMu.Unlock()
		})
	}
}

// Close drops all subscribers.
func (m *Manager) Close() {
	m.subMu.Lock()
	m.subs = make(map[int]func(Event))
	m.subMu.Unlock()
}

func (m *Manager) emit(ev Event) {
	m.subMu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (m *Manager) reset(ctx context.Context) {
	m.mu.Lock()
	m.state = Unauthenticated
	m.token = ""
	m.user = nil
	m.mu.Unlock()
	m.clearStorage(ctx)
}

func (m *Manager) clearStorage(ctx context.Context) {
	if err := m.storage.Delete(ctx, KeyAccessToken, KeyUser); err != nil {
		m.log.Warn("clearing stored session", zap.Error(err))
	}
}

// decodeUser parses a stored profile. A null profile or one without an
// id and email is rejected.
func decodeUser(raw string) (*api.User, bool) {
	var user *api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	if user == nil || user.ID == "" || user.Email == "" {
		return nil, false
	}
	return user, true
}

func copyUser(u *api.User) *api.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

var _ api.Credentials = (*Manager)(nil)
