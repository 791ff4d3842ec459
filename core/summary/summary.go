// Package summary builds the SUMMARY.md table of contents that accompanies
// sectioned archives.
package summary

import "strings"

// Filename is the archive-root name of the rendered index.
const Filename = "SUMMARY.md"

// Entry is one document listed in the index.
type Entry struct {
	Title string
	Path  string
}

// Index maps sections to their documents, preserving first-seen section
// order and insertion order within each section. The zero value is ready
// to use.
type Index struct {
	order    []string
	sections map[string][]Entry
}

// New creates an empty Index.
func New() *Index {
	return &Index{}
}

// Add records a document under section. An empty section lists the entry
// at the top of the index, before any section header.
func (idx *Index) Add(section, title, path string) {
	if idx.sections == nil {
		idx.sections = make(map[string][]Entry)
	}
	if _, seen := idx.sections[section]; !seen && section != "" {
		idx.order = append(idx.order, section)
	}
	idx.sections[section] = append(idx.sections[section], Entry{Title: title, Path: path})
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	n := 0
	for _, entries := range idx.sections {
		n += len(entries)
	}
	return n
}

// Sections returns section names in first-seen order, excluding the root.
func (idx *Index) Sections() []string {
	return append([]string(nil), idx.order...)
}

// Entries returns the entries recorded under section.
func (idx *Index) Entries(section string) []Entry {
	return append([]Entry(nil), idx.sections[section]...)
}

// Markdown renders the index as a GitBook-style SUMMARY.md.
func (idx *Index) Markdown() string {
	var b strings.Builder
	b.WriteString("# Summary\n\n")

	if root := idx.sections[""]; len(root) > 0 {
		writeEntries(&b, root)
		b.WriteString("\n")
	}

	for _, section := range idx.order {
		b.WriteString("## " + section + "\n\n")
		writeEntries(&b, idx.sections[section])
		b.WriteString("\n")
	}
	return b.String()
}

var (
	titleEscaper = strings.NewReplacer(`\`, `\\`, "[", `\[`, "]", `\]`)
	pathEscaper  = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`, " ", "%20")
)

func writeEntries(b *strings.Builder, entries []Entry) {
	for _, e := range entries {
		b.WriteString("* [" + titleEscaper.Replace(e.Title) + "](" + pathEscaper.Replace(e.Path) + ")\n")
	}
}
