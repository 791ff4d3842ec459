package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// bodyContext is the element fragments are parsed into. In body context
// the parser keeps leading whitespace and ignores document-level tags
// (<html>, <head>, <body>), so full pages and fragments parse alike.
var bodyContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}

// parseFragment parses s under a detached document root. The HTML5
// parser recovers from any malformed markup; the only possible error is
// a read failure. Scripting is off so <noscript> children parse as
// elements and reach the rewrite rules.
func parseFragment(s string) (*html.Node, error) {
	nodes, err := html.ParseFragmentWithOptions(strings.NewReader(s), bodyContext,
		html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, err
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// textContent concatenates the text nodes under n, skipping script and
// style bodies and comments.
func textContent(n *html.Node) string {
	var b strings.Builder
	collectText(&b, n)
	return b.String()
}

func collectText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Namespace == "" && n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func insertTextBefore(n *html.Node, s string) {
	n.Parent.InsertBefore(textNode(s), n)
}

func insertTextAfter(n *html.Node, s string) {
	n.Parent.InsertBefore(textNode(s), n.NextSibling)
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	for n.FirstChild != nil {
		c := n.FirstChild
		n.RemoveChild(c)
		n.Parent.InsertBefore(c, n)
	}
	n.Parent.RemoveChild(n)
}

func replaceWithText(n *html.Node, s string) {
	insertTextBefore(n, s)
	n.Parent.RemoveChild(n)
}

// basename returns everything after the last slash of a src attribute.
// Query strings and fragments are kept as they are.
func basename(src string) string {
	return src[strings.LastIndex(src, "/")+1:]
}

func hasClassTokens(class string, want ...string) bool {
	tokens := strings.Fields(class)
	for _, w := range want {
		found := false
		for _, t := range tokens {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

var (
	tagOpenRegex = regexp.MustCompile(`<([A-Za-z/!?])`)
	entityRegex  = regexp.MustCompile(`&(#[0-9]+;|#[xX][0-9A-Fa-f]+;|[A-Za-z][A-Za-z0-9]*;)`)
)

// escapeText re-escapes decoded text that would read back as a tag or an
// entity, so converted output parses to the same text again.
func escapeText(n *html.Node) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
		return
	}
	if n.Type == html.TextNode {
		n.Data = entityRegex.ReplaceAllString(n.Data, "&amp;$1")
		n.Data = tagOpenRegex.ReplaceAllString(n.Data, "&lt;$1")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		escapeText(c)
	}
}
