package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// storeExt is the filename extension of profile store files.
const storeExt = ".db"

// Manager resolves profile names to store files under a base directory and
// keeps at most one profile open at a time. Switching profiles closes the
// previous handle before opening the next, so in-flight operations finish
// against the handle they started on.
type Manager struct {
	dir  string
	opts []Option

	mu         sync.Mutex
	active     *DB
	activeName string
}

// NewManager creates a profile manager rooted at dir, creating the
// directory if needed.
func NewManager(dir string, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}
	return &Manager{dir: dir, opts: opts}, nil
}

// Dir returns the profile directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Profiles lists the profile names available under the base directory.
func (m *Manager) Profiles() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), storeExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), storeExt))
	}
	sort.Strings(names)
	return names, nil
}

// Switch makes the named profile active, closing the previously active
// store first. The profile is created on first use.
func (m *Manager) Switch(ctx context.Context, name string) (*DB, error) {
	path, err := m.Path(name)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && m.activeName == name {
		return m.active, nil
	}

	if m.active != nil {
		if err := m.active.Close(); err != nil {
			return nil, fmt.Errorf("failed to close profile %q: %w", m.activeName, err)
		}
		m.active = nil
		m.activeName = ""
	}

	db, err := Open(ctx, path, m.opts...)
	if err != nil {
		return nil, err
	}

	m.active = db
	m.activeName = name
	return db, nil
}

// Active returns the currently open profile, if any.
func (m *Manager) Active() (*DB, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.activeName, m.active != nil
}

// Close closes the active profile, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil
	}

	err := m.active.Close()
	m.active = nil
	m.activeName = ""
	return err
}

// Path resolves a profile name to its store file.
func (m *Manager) Path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid profile name %q", name)
	}
	return filepath.Join(m.dir, name+storeExt), nil
}
