package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/config"
)

// fakeAPI serves the endpoints the commands call.
type fakeAPI struct {
	habitsStatus int
	growStatus   int

	logins  atomic.Int32
	resets  atomic.Int32
	creates atomic.Int32
	deletes atomic.Int32

	lastUpdate atomic.Value // habitRequest body of the last PUT /habits/{id}
}

type updateBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) handler() http.Handler {
	habits := []api.Habit{
		{ID: "h1", Name: "Read", Description: "20 pages", Streak: 8},
		{ID: "h2", Name: "Meditate", Streak: 1},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		var req struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "tok", "token_type": "bearer"})
	})
	mux.HandleFunc("GET /auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.User{ID: "u1", Email: "ada@example.com", FullName: "Ada Lovelace", IsActive: true})
	})
	mux.HandleFunc("POST /auth/signup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.User{ID: "u1", Email: "ada@example.com", FullName: "Ada Lovelace"})
	})
	mux.HandleFunc("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("POST /auth/reset-password", func(w http.ResponseWriter, r *http.Request) {
		f.resets.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /habits/{$}", func(w http.ResponseWriter, r *http.Request) {
		if f.habitsStatus != 0 {
			writeJSON(w, f.habitsStatus, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		writeJSON(w, http.StatusOK, habits)
	})
	mux.HandleFunc("POST /habits/{$}", func(w http.ResponseWriter, r *http.Request) {
		f.creates.Add(1)
		var body updateBody
		json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, api.Habit{ID: "h3", Name: body.Name, Description: body.Description})
	})
	mux.HandleFunc("PUT /habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body updateBody
		json.NewDecoder(r.Body).Decode(&body)
		f.lastUpdate.Store(body)
		writeJSON(w, http.StatusOK, api.Habit{ID: r.PathValue("id"), Name: body.Name, Description: body.Description})
	})
	mux.HandleFunc("PUT /habits/{id}/grow", func(w http.ResponseWriter, r *http.Request) {
		if f.growStatus != 0 {
			writeJSON(w, f.growStatus, map[string]string{"detail": "Already grown today"})
			return
		}
		writeJSON(w, http.StatusOK, api.Habit{ID: r.PathValue("id"), Name: "Read", Streak: 9})
	})
	mux.HandleFunc("DELETE /habits/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.deletes.Add(1)
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	})
	mux.HandleFunc("GET /habits/insights", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, api.Insights{
			TotalHabits:   2,
			TotalStreaks:  9,
			AverageStreak: 4.5,
			BestHabit:     api.BestHabit{Name: "Read", Streak: 8},
			Top3:          habits,
		})
	})
	mux.HandleFunc("GET /habits/calendar", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"calendar": []map[string]any{
				{"date": "2025-03-02", "count": 1, "level": 1},
				{"date": "2025-10-15", "count": 2, "level": 1},
			},
		})
	})
	return mux
}

// env is a config file pointing at a fake API, with file-backed state.
type env struct {
	backend   *fakeAPI
	cfgPath   string
	statePath string
}

func newEnv(t *testing.T, backend *fakeAPI) *env {
	t.Helper()
	t.Setenv(api.BaseURLEnv, "")
	t.Setenv(config.DatabaseURLEnv, "")
	t.Setenv(config.LogLevelEnv, "")

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = server.URL
	cfg.Storage.Path = filepath.Join(dir, "state.json")
	cfg.Log.Level = "error"

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := config.WriteConfig(cfgPath, cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}
	return &env{backend: backend, cfgPath: cfgPath, statePath: cfg.Storage.Path}
}

// run executes one CLI invocation, like a separate process would.
func (e *env) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	a := &app{}
	defer a.close()

	var stdout, stderr bytes.Buffer
	cmd := a.rootCmd()
	cmd.SetArgs(append([]string{"--config", e.cfgPath}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func (e *env) login(t *testing.T) {
	t.Helper()
	if _, err := e.run(t, "secret\n", "login", "--email", "ada@example.com"); err != nil {
		t.Fatalf("login error = %v", err)
	}
}

func TestLoginPersistsSession(t *testing.T) {
	e := newEnv(t, &fakeAPI{})

	out, err := e.run(t, "ada@example.com\nsecret\n", "login")
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(out, "Logged in as Ada Lovelace (ada@example.com)") {
		t.Errorf("login output = %q", out)
	}

	if _, err := os.Stat(e.statePath); err != nil {
		t.Fatalf("state file not written: %v", err)
	}

	out, err = e.run(t, "", "whoami")
	if err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(out, "Ada Lovelace <ada@example.com>") {
		t.Errorf("whoami output = %q", out)
	}
}

func TestLoginFailure(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		wantErr   string
		wantCalls int32
	}{
		{"wrong password", "ada@example.com\nnope-nope\n", "Invalid credentials", 1},
		{"invalid email", "not-an-email\nsecret\n", "valid email", 0},
		{"short password", "ada@example.com\n123\n", "at least 6 characters", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeAPI{}
			e := newEnv(t, backend)

			_, err := e.run(t, tt.stdin, "login")
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("login error = %v, want containing %q", err, tt.wantErr)
			}
			if got := backend.logins.Load(); got != tt.wantCalls {
				t.Errorf("login calls = %d, want %d", got, tt.wantCalls)
			}

			if _, err := e.run(t, "", "whoami"); !errors.Is(err, ErrNotLoggedIn) {
				t.Errorf("whoami error = %v, want ErrNotLoggedIn", err)
			}
		})
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	e := newEnv(t, &fakeAPI{})

	for _, args := range [][]string{
		{"whoami"},
		{"habits", "list"},
		{"habits", "add", "Run"},
		{"habits", "grow", "h1"},
		{"habits", "delete", "h1"},
		{"insights"},
		{"calendar"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if _, err := e.run(t, "", args...); !errors.Is(err, ErrNotLoggedIn) {
				t.Errorf("error = %v, want ErrNotLoggedIn", err)
			}
		})
	}
}

func TestSignup(t *testing.T) {
	backend := &fakeAPI{}
	e := newEnv(t, backend)

	out, err := e.run(t, "secret\nsecret\n", "signup", "--email", "ada@example.com", "--name", "Ada Lovelace")
	if err != nil {
		t.Fatalf("signup error = %v", err)
	}
	if !strings.Contains(out, "Welcome to your garden, Ada Lovelace") {
		t.Errorf("signup output = %q", out)
	}
	if got := backend.logins.Load(); got != 1 {
		t.Errorf("login calls = %d, want 1", got)
	}

	_, err = e.run(t, "secret\nsecreT\n", "signup", "--email", "ada@example.com", "--name", "Ada")
	if err == nil || err.Error() != "Passwords do not match" {
		t.Errorf("mismatched signup error = %v", err)
	}
}

func TestHabitsCommands(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeAPI
		args    []string
		want    string
	}{
		{"list", &fakeAPI{}, []string{"habits", "list"}, "Read"},
		{"list shows id", &fakeAPI{}, []string{"habits", "ls"}, "h2"},
		{"add", &fakeAPI{}, []string{"habits", "add", "Run", "-d", "5k"}, `Planted "Run"`},
		{"grow", &fakeAPI{}, []string{"habits", "grow", "h1"}, "Read grew! Streak: 9 days"},
		{"grow twice", &fakeAPI{growStatus: http.StatusBadRequest}, []string{"habits", "grow", "h1"}, "You already grew this habit today!"},
		{"delete", &fakeAPI{}, []string{"habits", "delete", "h1"}, "Habit removed"},
		{"insights", &fakeAPI{}, []string{"insights"}, "Top 3 Consistent Habits"},
		{"calendar", &fakeAPI{}, []string{"calendar", "--year", "2025"}, "2 active days in 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, tt.backend)
			e.login(t)

			out, err := e.run(t, "", tt.args...)
			if err != nil {
				t.Fatalf("%v error = %v", tt.args, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("%v output = %q, want containing %q", tt.args, out, tt.want)
			}
		})
	}
}

func TestHabitsAddValidates(t *testing.T) {
	backend := &fakeAPI{}
	e := newEnv(t, backend)
	e.login(t)

	_, err := e.run(t, "", "habits", "add", "   ")
	if err == nil || err.Error() != "Habit name is required" {
		t.Errorf("error = %v, want Habit name is required", err)
	}
	if got := backend.creates.Load(); got != 0 {
		t.Errorf("create calls = %d, want 0", got)
	}
}

func TestHabitsEdit(t *testing.T) {
	backend := &fakeAPI{}
	e := newEnv(t, backend)
	e.login(t)

	if _, err := e.run(t, "", "habits", "edit", "h1"); err == nil {
		t.Error("edit without flags should fail")
	}

	out, err := e.run(t, "", "habits", "edit", "h1", "--name", "Read more")
	if err != nil {
		t.Fatalf("edit error = %v", err)
	}
	if !strings.Contains(out, `Updated "Read more"`) {
		t.Errorf("edit output = %q", out)
	}

	got, _ := backend.lastUpdate.Load().(updateBody)
	want := updateBody{Name: "Read more", Description: "20 pages"}
	if got != want {
		t.Errorf("update body = %+v, want %+v", got, want)
	}

	if _, err := e.run(t, "", "habits", "edit", "missing", "--name", "X"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("edit missing error = %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	backend := &fakeAPI{habitsStatus: http.StatusUnauthorized}
	e := newEnv(t, backend)
	e.login(t)

	_, err := e.run(t, "", "habits", "list")
	if err == nil || !strings.Contains(err.Error(), "session has expired") {
		t.Fatalf("habits list error = %v", err)
	}

	if _, err := e.run(t, "", "whoami"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("whoami after expiry error = %v, want ErrNotLoggedIn", err)
	}
}

func TestLogout(t *testing.T) {
	e := newEnv(t, &fakeAPI{})
	e.login(t)

	out, err := e.run(t, "", "logout")
	if err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if !strings.Contains(out, "Logged out.") {
		t.Errorf("logout output = %q", out)
	}
	if _, err := os.Stat(e.statePath); !os.IsNotExist(err) {
		t.Errorf("state file still present: %v", err)
	}
	if _, err := e.run(t, "", "whoami"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("whoami error = %v, want ErrNotLoggedIn", err)
	}
}

func TestPasswordRecovery(t *testing.T) {
	backend := &fakeAPI{}
	e := newEnv(t, backend)

	out, err := e.run(t, "", "forgot-password", "ada@example.com")
	if err != nil {
		t.Fatalf("forgot-password error = %v", err)
	}
	if !strings.Contains(out, "ada@example.com") {
		t.Errorf("forgot-password output = %q", out)
	}

	_, err = e.run(t, "secret\nsecret\n", "reset-password")
	if err == nil || err.Error() != "Invalid or missing reset token" {
		t.Errorf("reset without token error = %v", err)
	}
	if got := backend.resets.Load(); got != 0 {
		t.Errorf("reset calls = %d, want 0", got)
	}

	out, err = e.run(t, "newpass\nnewpass\n", "reset-password", "--token", "abc")
	if err != nil {
		t.Fatalf("reset-password error = %v", err)
	}
	if !strings.Contains(out, "Password reset successfully!") {
		t.Errorf("reset-password output = %q", out)
	}
}

func TestConfigCommands(t *testing.T) {
	t.Setenv(api.BaseURLEnv, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	run := func(args ...string) (string, error) {
		a := &app{}
		defer a.close()
		var stdout bytes.Buffer
		cmd := a.rootCmd()
		cmd.SetArgs(append([]string{"--config", path}, args...))
		cmd.SetOut(&stdout)
		cmd.SetErr(&bytes.Buffer{})
		err := cmd.ExecuteContext(context.Background())
		return stdout.String(), err
	}

	if _, err := run("--api-url", "https://garden.example.com/", "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	cfg, err := config.ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if cfg.API.BaseURL != "https://garden.example.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}

	if _, err := run("config", "init"); err == nil {
		t.Error("second config init should fail without --force")
	}
	if _, err := run("config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, err := run("config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"base_url: http://localhost:8000", "backend: file"} {
		if !strings.Contains(out, want) {
			t.Errorf("config show output missing %q:\n%s", want, out)
		}
	}
}

func TestAPIFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"expired", api.ErrSessionExpired, "listing habits: your session has expired, please log in again"},
		{"detail", &api.APIError{Status: 404, Detail: "Habit not found", Err: api.ErrNotFound}, "listing habits: Habit not found"},
		{"plain", errors.New("boom"), "listing habits: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apiFailure("listing habits", tt.err).Error(); got != tt.want {
				t.Errorf("apiFailure() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEphemeralLoginDoesNotPersist(t *testing.T) {
	e := newEnv(t, &fakeAPI{})

	if _, err := e.run(t, "secret\n", "--ephemeral", "login", "--email", "ada@example.com"); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if _, err := os.Stat(e.statePath); !os.IsNotExist(err) {
		t.Errorf("state file written for ephemeral login: %v", err)
	}
	if _, err := e.run(t, "", "whoami"); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("whoami error = %v, want ErrNotLoggedIn", err)
	}
}
