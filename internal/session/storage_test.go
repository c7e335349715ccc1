package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStorage_SetAndGet(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"token", KeyAccessToken, "test-access-token"},
		{"user profile", KeyUser, `{"id":"u1","email":"a@b.c","full_name":"Ada","is_active":true}`},
		{"empty value", "other", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "state.json")
			store := NewFileStorage(path)

			if err := store.Set(ctx, tt.key, tt.value); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			got, ok, err := store.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if !ok {
				t.Fatal("Get() ok = false, want true")
			}
			if got != tt.value {
				t.Errorf("Get() = %q, want %q", got, tt.value)
			}

			// A fresh instance reads the same file.
			reopened := NewFileStorage(path)
			got, ok, err = reopened.Get(ctx, tt.key)
			if err != nil || !ok || got != tt.value {
				t.Errorf("reopened Get() = %q, %v, %v; want %q, true, nil", got, ok, err, tt.value)
			}
		})
	}
}

func TestFileStorage_GetNonExistent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "state.json")
	store := NewFileStorage(path)

	got, ok, err := store.Get(context.Background(), KeyAccessToken)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if ok || got != "" {
		t.Errorf("Get() = %q, %v; want \"\", false", got, ok)
	}
}

func TestFileStorage_SetCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeply", "state.json")
	store := NewFileStorage(path)

	if err := store.Set(context.Background(), KeyAccessToken, "tok"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Error("Set() did not create parent directory")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Set() did not create state file")
	}
}

func TestFileStorage_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStorage(path)

	if err := store.Set(context.Background(), KeyAccessToken, "secret"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestFileStorage_Delete(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStorage(path)

	store.Set(ctx, KeyAccessToken, "tok")
	store.Set(ctx, KeyUser, "{}")
	store.Set(ctx, "keep", "yes")

	if err := store.Delete(ctx, KeyAccessToken, KeyUser); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyAccessToken); ok {
		t.Error("token still present after Delete()")
	}
	if v, ok, _ := store.Get(ctx, "keep"); !ok || v != "yes" {
		t.Errorf("unrelated key = %q, %v; want \"yes\", true", v, ok)
	}

	if err := store.Delete(ctx, "keep"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("state file should be removed once empty")
	}

	// Deleting from a missing file is fine.
	if err := store.Delete(ctx, KeyAccessToken); err != nil {
		t.Errorf("Delete() on missing file error = %v", err)
	}
}

func TestFileStorage_MalformedFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
		t.Fatal(err)
	}
	store := NewFileStorage(path)

	if _, _, err := store.Get(ctx, KeyAccessToken); err == nil {
		t.Error("Get() on malformed file should return error")
	}
	if err := store.Delete(ctx, KeyAccessToken, KeyUser); err != nil {
		t.Errorf("Delete() should recover from malformed file, got %v", err)
	}
	if _, ok, err := store.Get(ctx, KeyAccessToken); err != nil || ok {
		t.Errorf("Get() after Delete() = %v, %v; want false, nil", ok, err)
	}
}

func TestDefaultStatePath(t *testing.T) {
	path, err := DefaultStatePath()
	if err != nil {
		t.Skipf("no user config dir: %v", err)
	}
	if filepath.Base(path) != stateFileName {
		t.Errorf("DefaultStatePath() = %q, want file %q", path, stateFileName)
	}
	if filepath.Base(filepath.Dir(path)) != configDirName {
		t.Errorf("DefaultStatePath() = %q, want dir %q", path, configDirName)
	}
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage()

	if _, ok, _ := store.Get(ctx, KeyAccessToken); ok {
		t.Fatal("new MemoryStorage should be empty")
	}

	store.Set(ctx, KeyAccessToken, "tok")
	store.Set(ctx, KeyUser, "{}")
	if v, ok, _ := store.Get(ctx, KeyAccessToken); !ok || v != "tok" {
		t.Errorf("Get() = %q, %v; want \"tok\", true", v, ok)
	}

	store.Delete(ctx, KeyAccessToken, KeyUser, "missing")
	if _, ok, _ := store.Get(ctx, KeyUser); ok {
		t.Error("user still present after Delete()")
	}
}
