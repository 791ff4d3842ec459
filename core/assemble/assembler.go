// Package assemble turns a title and a Markdown body into a Document and
// derives the filesystem-safe names it is stored under.
package assemble

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/gosimple/slug"
)

// fallbackName is used when a title has no usable characters.
const fallbackName = "article"

var spaceRunRegex = regexp.MustCompile(` +`)

// SlugOptions controls filename derivation.
type SlugOptions struct {
	Lowercase   bool
	StripDigits bool
	// Number appends _<index> to every filename, as the flat CSV layout does.
	Number bool
}

// Assembler builds Documents from titles and bodies.
type Assembler struct {
	Slug SlugOptions
}

// New creates an Assembler.
func New(opts SlugOptions) *Assembler {
	return &Assembler{Slug: opts}
}

// Assemble wraps title and body into a single Markdown document. The body
// is used verbatim; HTML must be converted by the caller first.
func Assemble(title, body string) core.Document {
	return New(SlugOptions{}).Assemble(title, body)
}

// Assemble builds the document for one title/body pair.
func (a *Assembler) Assemble(title, body string) core.Document {
	return core.Document{
		Title:    title,
		Filename: Filename(title, 0, a.Slug),
		Content:  "# " + title + "\n\n" + body,
	}
}

// AssembleRecord builds the document for a record whose body is already
// Markdown, placing it in the folder derived from its section.
func (a *Assembler) AssembleRecord(rec core.Record, body string) core.Document {
	doc := a.Assemble(rec.Title, body)
	doc.Filename = Filename(rec.Title, rec.Index, a.Slug)
	doc.Section = rec.Section
	doc.Folder = FolderName(rec.Section)
	return doc
}

// Filename derives "<slug>.md" from title. Only ASCII letters, digits,
// spaces, hyphens and underscores survive; runs of spaces become one
// hyphen. index is appended when opts.Number is set and index > 0.
func Filename(title string, index int, opts SlugOptions) string {
	return Stem(title, index, opts) + ".md"
}

// Stem is Filename without the extension.
func Stem(title string, index int, opts SlugOptions) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if !opts.StripDigits {
				b.WriteRune(r)
			}
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}

	name := strings.TrimRight(b.String(), " ")
	name = spaceRunRegex.ReplaceAllString(name, "-")
	if opts.Lowercase {
		name = strings.ToLower(name)
	}
	if name == "" {
		name = fallbackName
	}
	if opts.Number && index > 0 {
		name = fmt.Sprintf("%s_%d", name, index)
	}
	return name
}

// FolderName derives the archive folder for a section. An empty section
// maps to the archive root.
func FolderName(section string) string {
	section = strings.TrimSpace(section)
	if section == "" {
		return ""
	}
	if name := slug.Make(section); name != "" {
		return name
	}
	return fallbackName
}
