// Package pipeline wires the conversion stages together: it reads a CSV or
// ZIP input, converts every record to Markdown, renders it in the chosen
// output format and packages the result.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/gaurav-prasanna/mdzip/core/assemble"
	"github.com/gaurav-prasanna/mdzip/core/extract"
	"github.com/gaurav-prasanna/mdzip/core/normalize"
	"github.com/gaurav-prasanna/mdzip/core/output"
	"github.com/gaurav-prasanna/mdzip/core/render"
	"github.com/gaurav-prasanna/mdzip/core/source"
	"github.com/gaurav-prasanna/mdzip/core/summary"
	"github.com/gaurav-prasanna/mdzip/internal/config"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
)

// Output layouts.
const (
	LayoutFlat     = "flat"
	LayoutSections = "sections"
	LayoutSingle   = "single"
)

// Default download names per input kind.
const (
	CSVArchiveName     = "markdown_files.zip"
	HTMLArchiveName    = "converted_markdown.zip"
	singleDocumentStem = "converted"
)

var (
	markupRegex = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)

	// Markdown autolinks look like tags but are plain text.
	autolinkRegex = regexp.MustCompile(`^<(?:[A-Za-z][A-Za-z0-9+.-]{1,31}:[^\s<>]*|[^\s<>@]+@[^\s<>]+)>$`)
)

// Options controls how records are laid out in the output.
type Options struct {
	Layout      string
	ImageFolder string
	// Summary forces SUMMARY.md in the flat layout; the sections layout
	// always carries one.
	Summary     bool
	Columns     source.Columns
	Slug        assemble.SlugOptions
	Dedupe      bool
	ExtractMain bool
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Layout:      LayoutSections,
		ImageFolder: output.DefaultImageFolder,
		Columns:     source.DefaultColumns(),
		Slug:        assemble.SlugOptions{Number: true},
	}
}

// Result is the finished artifact of one conversion.
type Result struct {
	Name        string
	ContentType string
	Data        []byte
	Documents   int
	Images      int
}

// Pipeline converts one input per Run call. It holds no per-run state and
// is safe for concurrent use.
type Pipeline struct {
	fs         afero.Fs
	normalizer core.Normalizer
	renderer   core.Renderer
	extractor  core.Extractor
	opts       Options
	log        logger.Logger
	imageLink  *regexp.Regexp
}

// New creates a Pipeline whose workspaces live on fs.
func New(fs afero.Fs, n core.Normalizer, r core.Renderer, opts Options, log logger.Logger) *Pipeline {
	if opts.ImageFolder == "" {
		opts.ImageFolder = output.DefaultImageFolder
	}
	if opts.Layout == "" {
		opts.Layout = LayoutSections
	}
	if log == nil {
		log = logger.GetDefault()
	}
	p := &Pipeline{
		fs:         fs,
		normalizer: n,
		renderer:   r,
		opts:       opts,
		log:        log,
		imageLink:  regexp.MustCompile(`(!\[[^\]]*\]\()\./` + regexp.QuoteMeta(opts.ImageFolder) + `/`),
	}
	if opts.ExtractMain {
		p.extractor = extract.New()
	}
	return p
}

// NewFromConfig builds a Pipeline from loaded settings.
func NewFromConfig(cfg *config.Config, log logger.Logger) (*Pipeline, error) {
	fs, err := output.NewFs(cfg.Workspace)
	if err != nil {
		return nil, err
	}
	n, err := normalize.New(cfg.Engine, cfg.ImageFolder, cfg.LenientCallouts)
	if err != nil {
		return nil, err
	}
	r, err := render.New(cfg.Format)
	if err != nil {
		return nil, err
	}
	opts := Options{
		Layout:      cfg.Layout,
		ImageFolder: cfg.ImageFolder,
		Summary:     cfg.Summary,
		Columns: source.Columns{
			Title:   cfg.Columns.Title,
			Body:    cfg.Columns.Body,
			Section: cfg.Columns.Section,
		},
		Slug: assemble.SlugOptions{
			Lowercase:   cfg.Slug.Lowercase,
			StripDigits: cfg.Slug.StripDigits,
			Number:      cfg.Slug.Number,
		},
		Dedupe:      cfg.Dedupe,
		ExtractMain: cfg.ExtractMain,
	}
	return New(fs, n, r, opts, log), nil
}

// Run detects the kind of data (named name) and converts it. Nothing is
// returned unless the whole input converted; the workspace is removed on
// every path.
func (p *Pipeline) Run(ctx context.Context, name string, data []byte) (res *Result, err error) {
	kind, err := source.DetectKind(name, data)
	if err != nil {
		return nil, err
	}

	ws, err := output.NewWorkspace(p.fs, "mdzip-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			p.log.Warn("Workspace cleanup failed", "dir", ws.Dir(), "err", cerr)
		}
	}()

	p.log.Debug("Converting input", "name", name, "kind", kind, "workspace", ws.Dir())

	switch kind {
	case source.KindCSV:
		res, err = p.convertCSV(ctx, data)
	case source.KindArchive:
		res, err = p.convertArchive(ctx, ws.Fs(), data)
	default:
		err = fmt.Errorf("%w: %s", core.ErrUnsupportedInput, kind)
	}
	if err != nil {
		return nil, err
	}

	p.log.Info("Conversion finished", "input", name, "output", res.Name,
		"documents", res.Documents, "images", res.Images, "bytes", len(res.Data))
	return res, nil
}

func (p *Pipeline) convertCSV(ctx context.Context, data []byte) (*Result, error) {
	records, err := source.NewCSVReader(p.opts.Columns).Read(data)
	if err != nil {
		return nil, err
	}

	asm := assemble.New(p.opts.Slug)
	docs := make([]core.Document, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := p.convertBody(rec.Body, false)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rec.Index, err)
		}
		docs = append(docs, asm.AssembleRecord(rec, body))
	}
	return p.finish(docs, nil, CSVArchiveName)
}

func (p *Pipeline) convertArchive(ctx context.Context, fs afero.Fs, data []byte) (*Result, error) {
	archive, err := source.NewArchiveReader(fs).Read(ctx, data)
	if err != nil {
		return nil, err
	}

	slugOpts := p.opts.Slug
	slugOpts.Number = false
	docs := make([]core.Document, 0, len(archive.Records))
	for _, rec := range archive.Records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := p.convertBody(rec.Body, true)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Source, err)
		}
		stem := strings.TrimSuffix(path.Base(rec.Source), path.Ext(rec.Source))
		folder := assemble.FolderName(rec.Section)
		if p.opts.Layout == LayoutSections {
			body = p.relinkImages(body, folder)
		}
		docs = append(docs, core.Document{
			Title:    rec.Title,
			Section:  rec.Section,
			Folder:   folder,
			Filename: assemble.Filename(stem, 0, slugOpts),
			Content:  body,
		})
	}
	return p.finish(docs, archive.Images, HTMLArchiveName)
}

// convertBody turns HTML into Markdown; plain text passes through. Whole
// pages are narrowed to their body (or main content) first.
func (p *Pipeline) convertBody(body string, page bool) (string, error) {
	if !hasMarkup(body) {
		return body, nil
	}

	var err error
	switch {
	case p.extractor != nil:
		body, err = p.extractor.Extract(body)
	case page:
		body, err = extract.Body(body)
	}
	if err != nil {
		return "", err
	}

	md, err := p.normalizer.Normalize(body)
	if err != nil {
		return "", fmt.Errorf("converting HTML: %w", err)
	}
	return md, nil
}

// relinkImages points image references at the archive-root image folder
// from a document stored under folder.
func (p *Pipeline) relinkImages(md, folder string) string {
	if folder == "" {
		return md
	}
	up := strings.Repeat("../", strings.Count(folder, "/")+1)
	return p.imageLink.ReplaceAllString(md, "${1}"+up+p.opts.ImageFolder+"/")
}

func hasMarkup(s string) bool {
	for _, m := range markupRegex.FindAllString(s, -1) {
		if !autolinkRegex.MatchString(m) {
			return true
		}
	}
	return false
}

func (p *Pipeline) finish(docs []core.Document, images []core.ImageAsset, archiveName string) (*Result, error) {
	if p.opts.Layout == LayoutSingle {
		return p.single(docs)
	}

	withSummary := p.opts.Layout == LayoutSections || p.opts.Summary
	rendered := make([]core.Document, 0, len(docs))
	for _, doc := range docs {
		if p.opts.Layout == LayoutFlat {
			doc.Folder = ""
		}
		out, err := p.renderer.Render(doc)
		if err != nil {
			return nil, fmt.Errorf("rendering %s: %w", doc.Path(), err)
		}
		doc.Filename = withExtension(doc.Filename, p.renderer.Extension())
		doc.Content = string(out)
		rendered = append(rendered, doc)
	}
	if p.opts.Dedupe {
		var reserved []string
		if withSummary {
			reserved = append(reserved, summary.Filename)
		}
		rendered = output.UniquePaths(rendered, reserved...)
	}

	var idx *summary.Index
	if withSummary {
		idx = summary.New()
		for _, doc := range rendered {
			idx.Add(doc.Section, doc.Title, doc.Path())
		}
	}

	zipped, err := output.Pack(p.fs, rendered, images, idx, output.PackOptions{
		ImageFolder: p.opts.ImageFolder,
		Dedupe:      p.opts.Dedupe,
		Log:         p.log,
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Name:        archiveName,
		ContentType: mimetype.Detect(zipped).String(),
		Data:        zipped,
		Documents:   len(docs),
		Images:      len(images),
	}, nil
}

// single joins every document into one blob and renders it once.
func (p *Pipeline) single(docs []core.Document) (*Result, error) {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}

	combined := core.Document{
		Filename: singleDocumentStem + ".md",
		Content:  strings.Join(parts, "\n\n"),
	}
	if len(docs) > 0 {
		combined.Title = docs[0].Title
	}

	rendered, err := p.renderer.Render(combined)
	if err != nil {
		return nil, fmt.Errorf("rendering combined document: %w", err)
	}
	return &Result{
		Name:        singleDocumentStem + p.renderer.Extension(),
		ContentType: mimetype.Detect(rendered).String(),
		Data:        rendered,
		Documents:   len(docs),
	}, nil
}

func withExtension(filename, ext string) string {
	return strings.TrimSuffix(filename, path.Ext(filename)) + ext
}
