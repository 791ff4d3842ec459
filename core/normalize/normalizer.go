package normalize

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// hintPlaceholder marks where a hint block goes back in after
// html-to-markdown ran. It is plain alphanumerics so the converter
// leaves it unescaped.
const hintPlaceholder = "MDZIPHINT%dEND"

// CommonmarkNormalizer converts HTML to Markdown using html-to-markdown.
type CommonmarkNormalizer struct {
	ImageFolder     string
	LenientCallouts bool
}

// NewCommonmarkNormalizer creates a CommonmarkNormalizer.
func NewCommonmarkNormalizer(imageFolder string, lenientCallouts bool) *CommonmarkNormalizer {
	return &CommonmarkNormalizer{ImageFolder: imageFolder, LenientCallouts: lenientCallouts}
}

// Normalize converts an HTML fragment into Markdown. Callouts become hint
// blocks and image sources are pointed at the image folder before the
// general conversion runs.
func (n *CommonmarkNormalizer) Normalize(fragment string) (string, error) {
	root, err := parseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	rules := NewRuleNormalizer(n.ImageFolder, n.LenientCallouts)
	var hints []string
	n.prepare(root, rules, &hints)

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("rendering HTML: %w", err)
		}
	}

	markdown, err := htmltomarkdown.ConvertString(buf.String())
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	for i, hint := range hints {
		markdown = strings.Replace(markdown, fmt.Sprintf(hintPlaceholder, i), hint, 1)
	}
	return markdown, nil
}

// prepare swaps callouts for placeholders and rewrites image sources.
func (n *CommonmarkNormalizer) prepare(node *html.Node, rules *RuleNormalizer, hints *[]string) {
	if isCallout(node, n.LenientCallouts) {
		if block, ok := calloutBlock(node, rules); ok {
			replaceWithText(node, fmt.Sprintf(hintPlaceholder, len(*hints)))
			*hints = append(*hints, block)
			return
		}
	}

	if node.Type == html.ElementNode && node.DataAtom == atom.Img {
		if src, ok := attr(node, "src"); ok && src != "" {
			setAttr(node, "src", "./"+n.ImageFolder+"/"+basename(src))
			if alt, _ := attr(node, "alt"); alt == "" {
				setAttr(node, "alt", "Image")
			}
		}
	}

	for c := node.FirstChild; c != nil; {
		next := c.NextSibling
		n.prepare(c, rules, hints)
		c = next
	}

	// The markdown converter reparses with scripting on and would see
	// noscript content as text.
	if node.Type == html.ElementNode && node.DataAtom == atom.Noscript {
		unwrap(node)
	}
}
