// Package normalize implements the Normalizer interface.
// It converts HTML into Markdown, the canonical intermediate format for
// all downstream renderers.
//
// Two engines are available. The rule engine rewrites a fixed vocabulary
// (headings, paragraphs, images, links, callouts) and flattens everything
// else to text. The commonmark engine delegates to html-to-markdown for
// richer markup and only keeps the callout and image conventions.
package normalize

import (
	"fmt"

	"github.com/gaurav-prasanna/mdzip/core"
	"golang.org/x/net/html"
)

// Engine names accepted by New.
const (
	EngineRules      = "rules"
	EngineCommonmark = "commonmark"
)

// RuleNormalizer converts HTML with the fixed rewrite table.
type RuleNormalizer struct {
	ImageFolder     string
	LenientCallouts bool
}

// NewRuleNormalizer creates a RuleNormalizer that points image references
// at ./imageFolder/.
func NewRuleNormalizer(imageFolder string, lenientCallouts bool) *RuleNormalizer {
	return &RuleNormalizer{ImageFolder: imageFolder, LenientCallouts: lenientCallouts}
}

// New returns the normalizer for the named engine.
func New(engine, imageFolder string, lenientCallouts bool) (core.Normalizer, error) {
	switch engine {
	case "", EngineRules:
		return NewRuleNormalizer(imageFolder, lenientCallouts), nil
	case EngineCommonmark:
		return NewCommonmarkNormalizer(imageFolder, lenientCallouts), nil
	default:
		return nil, fmt.Errorf("unknown conversion engine %q", engine)
	}
}

// Convert rewrites fragment into Markdown with the rule engine.
func Convert(fragment, imageFolder string) string {
	return NewRuleNormalizer(imageFolder, false).Convert(fragment)
}

// Normalize satisfies core.Normalizer. The rule engine never fails.
func (r *RuleNormalizer) Normalize(html string) (string, error) {
	return r.Convert(html), nil
}

// Convert parses fragment, applies the rewrite table in one traversal and
// returns the flattened text.
func (r *RuleNormalizer) Convert(fragment string) string {
	root, err := parseFragment(fragment)
	if err != nil {
		return fragment
	}
	escapeText(root)
	r.walk(root)
	return textContent(root)
}

func (r *RuleNormalizer) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		if fn := r.enterRule(n); fn != nil && fn(n, r) {
			return
		}
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		r.walk(c)
		c = next
	}

	if n.Type == html.ElementNode {
		if fn := leaveRules[ruleKey{tag: n.DataAtom}]; fn != nil {
			fn(n, r)
		}
	}
}

func (r *RuleNormalizer) enterRule(n *html.Node) rewriteFunc {
	class, _ := attr(n, "class")
	if fn, ok := enterRules[ruleKey{tag: n.DataAtom, class: class}]; ok {
		return fn
	}
	if r.LenientCallouts && isCallout(n, true) {
		return rewriteCallout
	}
	return nil
}
