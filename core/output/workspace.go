package output

import (
	"fmt"

	"github.com/spf13/afero"
)

// Filesystem kinds accepted by NewFs.
const (
	FsOS     = "os"
	FsMemory = "memory"
)

// NewFs returns the filesystem workspaces are created on.
func NewFs(kind string) (afero.Fs, error) {
	switch kind {
	case "", FsOS:
		return afero.NewOsFs(), nil
	case FsMemory:
		return afero.NewMemMapFs(), nil
	default:
		return nil, fmt.Errorf("unknown workspace filesystem %q", kind)
	}
}

// Workspace is a uniquely named scratch directory owned by one conversion.
// All paths handed to Fs are relative to the workspace root. Close removes
// the directory and everything in it; callers defer it right after
// creation so cleanup runs on every exit path.
type Workspace struct {
	base afero.Fs
	dir  string
	fs   afero.Fs
}

// NewWorkspace creates a fresh directory under the base filesystem's temp
// directory.
func NewWorkspace(base afero.Fs, prefix string) (*Workspace, error) {
	dir, err := afero.TempDir(base, "", prefix)
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{
		base: base,
		dir:  dir,
		fs:   afero.NewBasePathFs(base, dir),
	}, nil
}

// Fs returns the filesystem rooted at the workspace directory.
func (w *Workspace) Fs() afero.Fs {
	return w.fs
}

// Dir returns the workspace directory on the base filesystem.
func (w *Workspace) Dir() string {
	return w.dir
}

// Close removes the workspace.
func (w *Workspace) Close() error {
	if err := w.base.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.dir, err)
	}
	return nil
}
