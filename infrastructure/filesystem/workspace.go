package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"match-highlights/domain/media"
)

// Workspace implements media.Workspace with per-assembly directories under a root
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir, creating it if needed.
// An empty dir uses the system temp directory.
func NewWorkspace(dir string) (*Workspace, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch root %s: %w", dir, err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the scratch root
func (w *Workspace) Root() string {
	return w.root
}

// Create makes a new uniquely named directory under the root
func (w *Workspace) Create(prefix string) (string, error) {
	dir, err := os.MkdirTemp(w.root, prefix+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return dir, nil
}

// Remove deletes a directory previously returned by Create
func (w *Workspace) Remove(dir string) error {
	rel, err := filepath.Rel(w.root, dir)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to remove %s outside scratch root %s", dir, w.root)
	}
	return os.RemoveAll(dir)
}

// Exists returns true if the file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Ensure Workspace implements media.Workspace
var _ media.Workspace = (*Workspace)(nil)
