package vault

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/wordvault/wordvault/pkg/core"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	mgr, err := NewManager(filepath.Join(t.TempDir(), "profiles"))
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })
	return mgr
}

func TestManagerCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "profiles")
	mgr, err := NewManager(dir)
	if err != nil {
		t.Fatalf("failed to create manager: %v", err)
	}
	defer func() { _ = mgr.Close() }()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected profile directory to exist: %v", err)
	}
}

func TestSwitchCreatesProfileOnFirstUse(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	names, err := mgr.Profiles()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no profiles yet, got %v", names)
	}

	db, err := mgr.Switch(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to switch profile: %v", err)
	}
	if _, err := db.AddOrUpdateWord(ctx, core.WordData{Word: "hello"}); err != nil {
		t.Fatalf("failed to write through profile: %v", err)
	}

	names, err = mgr.Profiles()
	if err != nil {
		t.Fatalf("failed to list profiles: %v", err)
	}
	if len(names) != 1 || names[0] != "alice" {
		t.Errorf("expected [alice], got %v", names)
	}
}

func TestSwitchClosesPreviousProfile(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	first, err := mgr.Switch(ctx, "first")
	if err != nil {
		t.Fatalf("failed to open first profile: %v", err)
	}

	second, err := mgr.Switch(ctx, "second")
	if err != nil {
		t.Fatalf("failed to switch to second profile: %v", err)
	}

	// The old handle is dead; data must not leak across profiles.
	_, err = first.AddOrUpdateWord(ctx, core.WordData{Word: "stale"})
	if !errors.Is(err, core.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed on previous profile, got %v", err)
	}

	if _, err := second.AddOrUpdateWord(ctx, core.WordData{Word: "fresh"}); err != nil {
		t.Errorf("second profile should be usable: %v", err)
	}

	active, name, ok := mgr.Active()
	if !ok || name != "second" || active != second {
		t.Errorf("expected second profile active, got %q ok=%v", name, ok)
	}
}

func TestSwitchSameProfileKeepsHandle(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	db1, err := mgr.Switch(ctx, "same")
	if err != nil {
		t.Fatalf("failed to switch profile: %v", err)
	}
	db2, err := mgr.Switch(ctx, "same")
	if err != nil {
		t.Fatalf("failed to re-switch profile: %v", err)
	}
	if db1 != db2 {
		t.Error("expected the same handle when switching to the active profile")
	}
}

func TestProfilesAreIsolated(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	db, err := mgr.Switch(ctx, "work")
	if err != nil {
		t.Fatalf("failed to open work profile: %v", err)
	}
	if _, err := db.AddOrUpdateWord(ctx, core.WordData{Word: "deadline"}); err != nil {
		t.Fatalf("failed to add word: %v", err)
	}

	db, err = mgr.Switch(ctx, "home")
	if err != nil {
		t.Fatalf("failed to open home profile: %v", err)
	}
	if _, err := db.GetWordByName(ctx, "deadline"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected word to be invisible in another profile, got %v", err)
	}

	db, err = mgr.Switch(ctx, "work")
	if err != nil {
		t.Fatalf("failed to reopen work profile: %v", err)
	}
	if _, err := db.GetWordByName(ctx, "deadline"); err != nil {
		t.Errorf("expected word back in its own profile: %v", err)
	}
}

func TestInvalidProfileNames(t *testing.T) {
	mgr := newTestManager(t)

	for _, name := range []string{"", "a/b", `a\b`, "../escape"} {
		if _, err := mgr.Switch(context.Background(), name); err == nil {
			t.Errorf("expected error for profile name %q", name)
		}
	}
}

func TestManagerClose(t *testing.T) {
	mgr := newTestManager(t)
	ctx := context.Background()

	db, err := mgr.Switch(ctx, "closing")
	if err != nil {
		t.Fatalf("failed to open profile: %v", err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatalf("failed to close manager: %v", err)
	}

	if _, err := db.GetWordByName(ctx, "anything"); !errors.Is(err, core.ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed after manager close, got %v", err)
	}
	if _, _, ok := mgr.Active(); ok {
		t.Error("expected no active profile after close")
	}

	// Close is idempotent.
	if err := mgr.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}
