package normalize

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// calloutClass is the exact class attribute of a callout container.
const calloutClass = "callout callout--transparent"

// hintStyle is the style argument of every emitted hint block.
const hintStyle = "info"

// rewriteFunc rewrites one element in place. It reports whether the
// element was consumed; a consumed element's subtree is not visited.
type rewriteFunc func(n *html.Node, r *RuleNormalizer) bool

// ruleKey selects a rule by tag and, for class-specific rules, the
// exact class attribute.
type ruleKey struct {
	tag   atom.Atom
	class string
}

// enterRules fire before an element's children are visited, while the
// subtree is still raw HTML.
var enterRules = map[ruleKey]rewriteFunc{
	{tag: atom.Div, class: calloutClass}: rewriteCallout,
}

// leaveRules fire after an element's children were rewritten.
var leaveRules = map[ruleKey]rewriteFunc{
	{tag: atom.H1}:  rewriteHeading(1),
	{tag: atom.H2}:  rewriteHeading(2),
	{tag: atom.H3}:  rewriteHeading(3),
	{tag: atom.H4}:  rewriteHeading(4),
	{tag: atom.H5}:  rewriteHeading(5),
	{tag: atom.H6}:  rewriteHeading(6),
	{tag: atom.P}:   rewriteParagraph,
	{tag: atom.Img}: rewriteImage,
	{tag: atom.A}:   rewriteLink,
}

func rewriteHeading(level int) rewriteFunc {
	prefix := strings.Repeat("#", level) + " "
	return func(n *html.Node, _ *RuleNormalizer) bool {
		insertTextBefore(n, prefix)
		unwrap(n)
		return true
	}
}

func rewriteParagraph(n *html.Node, _ *RuleNormalizer) bool {
	insertTextAfter(n, "\n\n")
	unwrap(n)
	return true
}

// rewriteImage swaps an image for a Markdown reference into the image
// folder. Images without a src leave nothing behind.
func rewriteImage(n *html.Node, r *RuleNormalizer) bool {
	if src, ok := attr(n, "src"); ok && src != "" {
		insertTextBefore(n, imageMarkdown(r.ImageFolder, src))
	}
	n.Parent.RemoveChild(n)
	return true
}

func imageMarkdown(folder, src string) string {
	return "![Image](./" + folder + "/" + basename(src) + ")"
}

// rewriteLink emits [text](href) verbatim. Anchors without an href keep
// their text only.
func rewriteLink(n *html.Node, _ *RuleNormalizer) bool {
	if href, ok := attr(n, "href"); ok && href != "" {
		replaceWithText(n, "["+textContent(n)+"]("+href+")")
		return true
	}
	unwrap(n)
	return true
}

func rewriteCallout(n *html.Node, r *RuleNormalizer) bool {
	block, ok := calloutBlock(n, r)
	if !ok {
		return false
	}
	replaceWithText(n, block)
	return true
}

// calloutBlock renders a callout container as a hint block. It reports
// false when the title or the paragraph is missing, leaving n untouched.
func calloutBlock(n *html.Node, r *RuleNormalizer) (string, bool) {
	callout := goquery.NewDocumentFromNode(n)
	title := callout.Find("h4.callout__title").First()
	body := callout.Find("p").First()
	if title.Length() == 0 || body.Length() == 0 {
		return "", false
	}

	body.Find("a").Each(func(_ int, a *goquery.Selection) {
		rewriteLink(a.Get(0), r)
	})

	return hintBlock(
		strings.TrimSpace(textContent(title.Get(0))),
		strings.TrimSpace(textContent(body.Get(0))),
	), true
}

func hintBlock(title, body string) string {
	var b strings.Builder
	b.WriteString("\n{% hint style=\"" + hintStyle + "\" %}\n")
	b.WriteString("**" + title + "**\n\n")
	b.WriteString(body)
	b.WriteString("\n{% endhint %}\n")
	return b.String()
}

// isCallout reports whether n is a callout container. Lenient matching
// accepts any class list carrying both callout tokens.
func isCallout(n *html.Node, lenient bool) bool {
	if n.Type != html.ElementNode || n.DataAtom != atom.Div {
		return false
	}
	class, _ := attr(n, "class")
	if class == calloutClass {
		return true
	}
	return lenient && hasClassTokens(class, "callout", "callout--transparent")
}
