// Package output handles staging, packaging and writing mdzip outputs.
// Conversions stage their files in a per-call Workspace, the Packager zips
// them, and the Writer commits the finished artifact to the output
// directory in one rename so a failed run never leaves a partial file.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Writer writes finished artifacts to disk.
type Writer struct {
	OutputDir string
	fs        afero.Fs
}

// New creates a Writer targeting the given output directory on the OS
// filesystem. If outputDir is empty, it defaults to the current working
// directory.
func New(outputDir string) (*Writer, error) {
	return NewWithFs(afero.NewOsFs(), outputDir)
}

// NewWithFs creates a Writer on an arbitrary filesystem.
func NewWithFs(fs afero.Fs, outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}

	// Ensure the output directory exists.
	if err := fs.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Writer{OutputDir: outputDir, fs: fs}, nil
}

// Write stores data as name inside the output directory. The data goes to
// a temporary sibling first and is renamed into place once complete.
func (w *Writer) Write(name string, data []byte) (string, error) {
	target := filepath.Join(w.OutputDir, sanitize(name))

	tmp, err := afero.TempFile(w.fs, w.OutputDir, ".mdzip-*")
	if err != nil {
		return "", fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("writing file %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("closing file %s: %w", target, err)
	}
	if err := w.fs.Rename(tmpName, target); err != nil {
		_ = w.fs.Remove(tmpName)
		return "", fmt.Errorf("moving file into place %s: %w", target, err)
	}
	return target, nil
}

// sanitize keeps a flat, portable filename: letters, digits, dots,
// hyphens and underscores; anything else becomes an underscore.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, ch := range name {
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
			ch == '.' || ch == '-' || ch == '_' {
			b.WriteRune(ch)
		} else {
			b.WriteRune('_')
		}
	}
	if s := b.String(); s != "" && s != "." && s != ".." {
		return s
	}
	return "output"
}
