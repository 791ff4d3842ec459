package output

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/gaurav-prasanna/mdzip/core/summary"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
	"github.com/spf13/afero"
)

// DefaultImageFolder is the archive folder images are copied into.
const DefaultImageFolder = "images"

// Packager stages named outputs in a workspace directory and zips them.
// Entries keep the order they were first added in. Adding an existing path
// overwrites it (last write wins) unless Dedupe is set, in which case the
// new entry gets a numeric suffix instead.
type Packager struct {
	fs     afero.Fs
	root   string
	dedupe bool
	order  []string
	seen   map[string]bool
}

// NewPackager creates a Packager staging files under root on fs.
func NewPackager(fs afero.Fs, root string, dedupe bool) (*Packager, error) {
	if err := fs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	return &Packager{
		fs:     fs,
		root:   root,
		dedupe: dedupe,
		seen:   make(map[string]bool),
	}, nil
}

// Add stages data at the slash-separated archive path name and returns
// the path actually used.
func (p *Packager) Add(name string, data []byte) (string, error) {
	return p.stage(name, data, p.dedupe)
}

// Put stages data at exactly name, overwriting any earlier entry even when
// the packager deduplicates.
func (p *Packager) Put(name string, data []byte) (string, error) {
	return p.stage(name, data, false)
}

// Has reports whether name is already staged.
func (p *Packager) Has(name string) bool {
	clean, err := cleanEntryName(name)
	return err == nil && p.seen[clean]
}

func (p *Packager) stage(name string, data []byte, dedupe bool) (string, error) {
	clean, err := cleanEntryName(name)
	if err != nil {
		return "", err
	}
	if p.seen[clean] && dedupe {
		clean = p.unique(clean)
	}

	full := filepath.Join(p.root, filepath.FromSlash(clean))
	if err := p.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", clean, err)
	}
	if err := afero.WriteFile(p.fs, full, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", clean, err)
	}

	if !p.seen[clean] {
		p.seen[clean] = true
		p.order = append(p.order, clean)
	}
	return clean, nil
}

// Len returns the number of distinct entries staged.
func (p *Packager) Len() int {
	return len(p.order)
}

// unique finds the first free "<stem>-N<ext>" variant of name.
func (p *Packager) unique(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, i, ext)
		if !p.seen[candidate] {
			return candidate
		}
	}
}

// Archive zips every staged entry in insertion order.
func (p *Packager) Archive() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range p.order {
		if err := p.copyEntry(zw, name); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Packager) copyEntry(zw *zip.Writer, name string) error {
	f, err := p.fs.Open(filepath.Join(p.root, filepath.FromSlash(name)))
	if err != nil {
		return fmt.Errorf("opening staged %s: %w", name, err)
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", name, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("compressing %s: %w", name, err)
	}
	return nil
}

// cleanEntryName normalizes an archive path to forward slashes and clamps
// ".." segments to the archive root.
func cleanEntryName(name string) (string, error) {
	name = strings.ReplaceAll(name, "\\", "/")
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean == "." {
		return "", fmt.Errorf("invalid archive entry name %q", name)
	}
	return clean, nil
}

// PackOptions configures Pack.
type PackOptions struct {
	ImageFolder string
	// Dedupe suffixes duplicate document paths. Callers that also build a
	// summary resolve paths with UniquePaths first so the index matches.
	Dedupe bool
	Log    logger.Logger
}

// Pack writes documents at {folder}/{filename}, images under the image
// folder and the summary (when non-nil) as SUMMARY.md at the archive
// root. Everything is staged in a workspace on fs that is removed before
// Pack returns.
//
// Image entries are never suffixed: documents reference images by
// basename, so a later image with the same name replaces the earlier one.
func Pack(fs afero.Fs, docs []core.Document, images []core.ImageAsset, idx *summary.Index, opts PackOptions) (data []byte, err error) {
	if opts.ImageFolder == "" {
		opts.ImageFolder = DefaultImageFolder
	}
	log := opts.Log
	if log == nil {
		log = logger.GetDefault()
	}

	ws, err := NewWorkspace(fs, "mdzip-pack-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	p, err := NewPackager(ws.Fs(), "archive", opts.Dedupe)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		entry, err := p.Add(doc.Path(), []byte(doc.Content))
		if err != nil {
			return nil, err
		}
		log.Debug("Document packed", "title", doc.Title, "path", entry)
	}
	for _, img := range images {
		name := opts.ImageFolder + "/" + img.Name
		if p.Has(name) {
			log.Warn("Duplicate image name, keeping the last one", "image", img.Name)
		}
		if _, err := p.Put(name, img.Data); err != nil {
			return nil, err
		}
	}
	if idx != nil {
		if _, err := p.Put(summary.Filename, []byte(idx.Markdown())); err != nil {
			return nil, err
		}
	}
	return p.Archive()
}

// UniquePaths returns a copy of docs whose paths are distinct, suffixing
// repeats the way a deduplicating Packager does. reserved paths count as
// taken from the start.
func UniquePaths(docs []core.Document, reserved ...string) []core.Document {
	taken := make(map[string]bool, len(docs)+len(reserved))
	for _, r := range reserved {
		taken[r] = true
	}

	out := make([]core.Document, len(docs))
	for i, doc := range docs {
		if taken[doc.Path()] {
			ext := path.Ext(doc.Filename)
			stem := strings.TrimSuffix(doc.Filename, ext)
			for n := 2; ; n++ {
				doc.Filename = fmt.Sprintf("%s-%d%s", stem, n, ext)
				if !taken[doc.Path()] {
					break
				}
			}
		}
		taken[doc.Path()] = true
		out[i] = doc
	}
	return out
}
