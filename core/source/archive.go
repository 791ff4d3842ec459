package source

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/gaurav-prasanna/mdzip/core/extract"
	"github.com/spf13/afero"
)

// inputDir is where archives are unpacked inside a workspace.
const inputDir = "input"

// maxEntrySize bounds a single decompressed archive member.
const maxEntrySize = 64 << 20

// Archive is the content of an uploaded ZIP of HTML pages.
type Archive struct {
	Records []core.Record
	Images  []core.ImageAsset
}

// ArchiveReader unpacks ZIP archives into a workspace and collects the
// HTML pages and images inside.
type ArchiveReader struct {
	fs afero.Fs
}

// NewArchiveReader creates an ArchiveReader that unpacks into fs, normally
// the filesystem of a per-conversion workspace.
func NewArchiveReader(fs afero.Fs) *ArchiveReader {
	return &ArchiveReader{fs: fs}
}

// Read unpacks data and returns one Record per HTML page, in path order.
// A page's section is its directory inside the archive and its title comes
// from <title> or the first <h1>, falling back to the file name.
func (r *ArchiveReader) Read(ctx context.Context, data []byte) (*Archive, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: archive has no content", core.ErrEmptyInput)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w: %w", core.ErrMalformedInput, err)
	}

	if err := r.unpack(ctx, zr); err != nil {
		return nil, err
	}

	var paths []string
	err = afero.Walk(r.fs, inputDir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking unpacked archive: %w", err)
	}
	sort.Strings(paths)

	archive := &Archive{}
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel := filepath.ToSlash(strings.TrimPrefix(p, inputDir+string(filepath.Separator)))

		switch {
		case IsHTMLDocument(rel):
			rec, err := r.readPage(p, rel)
			if err != nil {
				return nil, err
			}
			rec.Index = len(archive.Records) + 1
			archive.Records = append(archive.Records, rec)
		case IsImageAsset(rel):
			img, err := afero.ReadFile(r.fs, p)
			if err != nil {
				return nil, fmt.Errorf("reading image %s: %w", rel, err)
			}
			archive.Images = append(archive.Images, core.ImageAsset{Name: path.Base(rel), Data: img})
		}
	}

	if len(archive.Records) == 0 {
		return nil, fmt.Errorf("%w: archive contains no HTML files", core.ErrEmptyInput)
	}
	return archive, nil
}

func (r *ArchiveReader) readPage(p, rel string) (core.Record, error) {
	raw, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return core.Record{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	html, err := DecodeText(raw)
	if err != nil {
		return core.Record{}, fmt.Errorf("%s: %w", rel, err)
	}

	stem := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	title := extract.Title(html)
	if title == "" {
		title = stem
	}

	section := path.Dir(rel)
	if section == "." {
		section = ""
	}

	return core.Record{
		Title:   title,
		Body:    html,
		Section: section,
		Source:  rel,
	}, nil
}

// unpack copies every regular member into the input directory. Member
// names are clamped under the input directory; macOS resource forks and
// hidden files are skipped.
func (r *ArchiveReader) unpack(ctx context.Context, zr *zip.Reader) error {
	if err := r.fs.MkdirAll(inputDir, 0o755); err != nil {
		return fmt.Errorf("creating input directory: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			continue
		}
		name := path.Clean("/" + strings.ReplaceAll(f.Name, "\\", "/"))[1:]
		if skipMember(name) {
			continue
		}

		dest := filepath.Join(inputDir, filepath.FromSlash(name))
		if err := r.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", name, err)
		}
		if err := r.extractMember(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func (r *ArchiveReader) extractMember(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w: %w", f.Name, core.ErrMalformedInput, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return fmt.Errorf("decompressing %s: %w: %w", f.Name, core.ErrMalformedInput, err)
	}
	if len(data) > maxEntrySize {
		return fmt.Errorf("%w: %s exceeds %d bytes", core.ErrMalformedInput, f.Name, maxEntrySize)
	}

	if err := afero.WriteFile(r.fs, dest, data, 0o644); err != nil {
		return fmt.Errorf("unpacking %s: %w", f.Name, err)
	}
	return nil
}

func skipMember(name string) bool {
	if name == "" || strings.HasPrefix(name, "__MACOSX/") {
		return true
	}
	return strings.HasPrefix(path.Base(name), ".")
}
