// Package core defines the data model and stage interfaces for mdzip.
// Each stage of the conversion pipeline is a small, testable interface.
package core

import "context"

// FetchResult holds the raw bytes and response metadata from a fetch.
type FetchResult struct {
	URL         string
	StatusCode  int
	ContentType string
	Name        string // last path segment of the URL, used for kind detection
	Body        []byte
}

// Record is one input row or HTML file.
type Record struct {
	Title   string
	Body    string // HTML or plain text
	Section string
	Index   int    // 1-based position in the input
	Source  string // archive-relative path for HTML inputs, empty for CSV rows
}

// Document is the Markdown output for one Record.
type Document struct {
	Title    string `json:"title"`
	Section  string `json:"section,omitempty"`
	Folder   string `json:"folder,omitempty"`
	Filename string `json:"filename"`
	Content  string `json:"-"`
}

// Path returns the archive-relative path of the document, always with
// forward slashes.
func (d Document) Path() string {
	if d.Folder == "" {
		return d.Filename
	}
	return d.Folder + "/" + d.Filename
}

// ImageAsset is a binary file referenced by <img> tags, copied verbatim
// into the images folder of the output.
type ImageAsset struct {
	Name string
	Data []byte
}

// Heading represents a single heading found in the content.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Link represents a hyperlink found in the content.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Section represents a heading-delimited section of content.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Text    string `json:"text"`
}

// DocumentStructure holds structural metadata parsed from the Markdown.
type DocumentStructure struct {
	Headings []Heading `json:"headings"`
	Links    []Link    `json:"links"`
	Images   []string  `json:"images"`
	Hints    int       `json:"hints"`
	Sections []Section `json:"sections"`
}

// DocumentJSON is the complete JSON output for a single document.
type DocumentJSON struct {
	Document  Document          `json:"document"`
	Markdown  string            `json:"markdown"`
	Text      string            `json:"text"`
	Structure DocumentStructure `json:"structure"`
}

// Fetcher retrieves a remote input file.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Extractor narrows a full HTML page down to its main content.
type Extractor interface {
	Extract(html string) (string, error)
}

// Normalizer converts HTML into Markdown (the canonical format).
type Normalizer interface {
	Normalize(html string) (string, error)
}

// Renderer converts a Markdown document into a final output format.
type Renderer interface {
	Render(doc Document) ([]byte, error)
	// Extension returns the file extension for this renderer (e.g. ".md", ".pdf").
	Extension() string
}
