package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var hintBlockRegex = regexp.MustCompile(`(?s)\{% hint style="([^"]*)" %\}\n(.*?)\n?\{% endhint %\}`)

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

// HTMLRenderer renders Markdown documents to standalone HTML pages.
// Hint blocks become blockquotes since goldmark has no notion of them.
type HTMLRenderer struct {
	md goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer with GitHub flavored extensions.
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

// Render converts the document into a full HTML page.
func (r *HTMLRenderer) Render(doc core.Document) ([]byte, error) {
	body, err := r.Fragment(doc.Content)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf(pageTemplate, html.EscapeString(doc.Title), body)), nil
}

// Fragment converts Markdown to an HTML fragment without the page shell.
func (r *HTMLRenderer) Fragment(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(hintsToQuotes(markdown)), &buf); err != nil {
		return "", fmt.Errorf("converting markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}

func hintsToQuotes(md string) string {
	return hintBlockRegex.ReplaceAllStringFunc(md, func(block string) string {
		m := hintBlockRegex.FindStringSubmatch(block)
		lines := strings.Split(strings.TrimSpace(m[2]), "\n")
		for i, l := range lines {
			lines[i] = strings.TrimRight("> "+l, " ")
		}
		return strings.Join(lines, "\n")
	})
}
