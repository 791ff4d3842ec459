package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
)

// JSONRenderer produces structured JSON output from Markdown: headings,
// links, images, hint blocks and sections, with no content-specific fields.
type JSONRenderer struct{}

// NewJSONRenderer creates a JSONRenderer.
func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

// Render converts a document into its JSON structure.
func (r *JSONRenderer) Render(doc core.Document) ([]byte, error) {
	markdown := doc.Content
	headings := extractHeadings(markdown)

	out := core.DocumentJSON{
		Document: doc,
		Markdown: markdown,
		Text:     stripMarkdown(markdown),
		Structure: core.DocumentStructure{
			Headings: headings,
			Links:    extractLinks(markdown),
			Images:   extractImages(markdown),
			Hints:    countHints(markdown),
			Sections: buildSections(markdown, headings),
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return data, nil
}

// Extension returns the file extension for JSON output.
func (r *JSONRenderer) Extension() string {
	return ".json"
}

// --- Markdown parsing helpers ---

var headingRegex = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

func extractHeadings(md string) []core.Heading {
	matches := headingRegex.FindAllStringSubmatch(md, -1)
	headings := make([]core.Heading, 0, len(matches))
	for _, m := range matches {
		headings = append(headings, core.Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

// linkRegex matches Markdown links [text](url); image references share
// the syntax and are told apart by the leading "!".
var linkRegex = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)

func extractLinks(md string) []core.Link {
	matches := linkRegex.FindAllStringSubmatchIndex(md, -1)
	links := make([]core.Link, 0, len(matches))
	for _, m := range matches {
		if m[0] > 0 && md[m[0]-1] == '!' {
			continue
		}
		links = append(links, core.Link{
			Text: md[m[2]:m[3]],
			Href: md[m[4]:m[5]],
		})
	}
	return links
}

var imageRegex = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

func extractImages(md string) []string {
	matches := imageRegex.FindAllStringSubmatch(md, -1)
	images := make([]string, 0, len(matches))
	for _, m := range matches {
		images = append(images, m[1])
	}
	return images
}

var hintOpenRegex = regexp.MustCompile(`\{% hint [^%]*%\}`)

func countHints(md string) int {
	return len(hintOpenRegex.FindAllString(md, -1))
}

func buildSections(md string, headings []core.Heading) []core.Section {
	if len(headings) == 0 {
		return nil
	}

	lines := strings.Split(md, "\n")
	sections := make([]core.Section, 0, len(headings))
	headingIdx := 0

	var currentSection *core.Section
	var sectionLines []string

	for _, line := range lines {
		if headingRegex.MatchString(line) && headingIdx < len(headings) {
			// Flush previous section.
			if currentSection != nil {
				currentSection.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
				sections = append(sections, *currentSection)
			}
			currentSection = &core.Section{
				Heading: headings[headingIdx].Text,
				Level:   headings[headingIdx].Level,
			}
			sectionLines = nil
			headingIdx++
		} else if currentSection != nil {
			sectionLines = append(sectionLines, line)
		}
	}
	// Flush last section.
	if currentSection != nil {
		currentSection.Text = strings.TrimSpace(strings.Join(sectionLines, "\n"))
		sections = append(sections, *currentSection)
	}

	return sections
}

var (
	hintDirectiveRegex = regexp.MustCompile(`(?m)^\{% (?:hint [^%]*|endhint) %\}\n?`)
	boldRegex          = regexp.MustCompile(`\*{1,3}([^*]+)\*{1,3}`)
	blankRunRegex      = regexp.MustCompile(`\n{3,}`)
)

// stripMarkdown removes common Markdown formatting to produce plain text.
func stripMarkdown(md string) string {
	text := hintDirectiveRegex.ReplaceAllString(md, "")
	text = imageRegex.ReplaceAllString(text, "")
	text = headingRegex.ReplaceAllString(text, "$2")
	text = boldRegex.ReplaceAllString(text, "$1")
	text = linkRegex.ReplaceAllString(text, "$1")
	text = blankRunRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
