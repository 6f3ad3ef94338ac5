package content

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
	"github.com/gompdf/docpager/internal/text"
)

// elements that never produce content
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"meta":     true,
	"link":     true,
	"title":    true,
	"head":     true,
	"noscript": true,
}

// elements laid out inline; runs of them are wrapped into implicit paragraphs
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "bdo": true, "br": true,
	"cite": true, "code": true, "data": true, "dfn": true, "em": true,
	"i": true, "kbd": true, "label": true, "mark": true, "q": true,
	"s": true, "samp": true, "small": true, "span": true, "strong": true,
	"sub": true, "sup": true, "time": true, "u": true, "var": true,
	"wbr": true, "font": true, "strike": true, "tt": true, "big": true,
}

// Parser splits substituted markup into segments of top-level blocks
type Parser struct {
	html *htmlparser.Parser
}

// NewParser creates a content parser
func NewParser() *Parser {
	return &Parser{html: htmlparser.NewParser()}
}

// Parse is a shortcut for NewParser().Parse
func Parse(markup string) ([]Segment, error) {
	return NewParser().Parse(markup)
}

// Parse splits markup into segments separated by manual page breaks. The
// result may be empty when the markup holds no content at all.
func (p *Parser) Parse(markup string) ([]Segment, error) {
	nodes, err := p.html.ParseString(markup)
	if err != nil {
		return nil, fmt.Errorf("unable to parse content: %w", err)
	}

	b := &builder{}
	for _, n := range nodes {
		b.add(n)
	}
	b.boundary()
	return b.segments, nil
}

type builder struct {
	segments []Segment
	current  []Block
	run      []*html.Node
	// text of skipped elements, kept for the degenerate fallback
	hidden strings.Builder
	index  int
}

func (b *builder) add(n *html.Node) {
	switch n.Type {
	case html.CommentNode:
		if isBreakComment(n) {
			b.boundary()
		}
	case html.TextNode:
		b.run = append(b.run, n)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		switch {
		case tag == "script" || tag == "style":
		case skipped[tag]:
			b.hidden.WriteString(htmlparser.Text(n))
			b.hidden.WriteByte(' ')
		case isBreakMarker(n):
			if !text.IsBlank(htmlparser.Text(n)) {
				// malformed marker, keep it as content
				b.flushRun()
				b.block(n, KindOf(n))
				return
			}
			b.boundary()
		default:
			if breaksBefore(n) {
				b.boundary()
			}
			b.element(n, tag)
			if breaksAfter(n) {
				b.boundary()
			}
		}
	}
}

func (b *builder) element(n *html.Node, tag string) {
	if inline[tag] {
		b.run = append(b.run, n)
		return
	}
	b.flushRun()
	if (breaksBefore(n) || breaksAfter(n)) && isEmpty(n) {
		return
	}
	b.block(n, KindOf(n))
}

func (b *builder) block(n *html.Node, kind Kind) {
	b.current = append(b.current, Block{Kind: kind, Node: n, Index: b.index})
	b.index++
}

// flushRun wraps pending loose text and inline elements into a paragraph
func (b *builder) flushRun() {
	run := b.run
	b.run = nil
	if len(run) == 0 {
		return
	}
	blank := true
	for _, n := range run {
		if n.Type == html.ElementNode || !text.IsBlank(n.Data) {
			blank = false
			break
		}
	}
	if blank {
		return
	}
	p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
	for _, n := range run {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		p.AppendChild(n)
	}
	b.block(p, KindRawText)
}

// boundary closes the current segment
func (b *builder) boundary() {
	b.flushRun()
	hidden := b.hidden.String()
	b.hidden.Reset()

	if len(b.current) == 0 {
		if text.IsBlank(hidden) {
			return
		}
		p := &html.Node{Type: html.ElementNode, Data: "p", DataAtom: atom.P}
		p.AppendChild(&html.Node{Type: html.TextNode, Data: text.CollapseWhitespace(hidden)})
		b.block(p, KindRawText)
	}
	b.segments = append(b.segments, Segment{Blocks: b.current})
	b.current = nil
}

func isBreakComment(n *html.Node) bool {
	c := strings.ToLower(strings.Join(strings.Fields(n.Data), ""))
	return c == "pagebreak" || c == "page-break"
}

// isBreakMarker reports whether n is a dedicated page break element
func isBreakMarker(n *html.Node) bool {
	if htmlparser.HasClass(n, "page-break") || htmlparser.HasClass(n, "manual-page-break") {
		return true
	}
	if v, ok := htmlparser.Attr(n, "data-type"); ok && strings.EqualFold(strings.TrimSpace(v), "page-break") {
		return true
	}
	_, ok := htmlparser.Attr(n, "data-page-break")
	return ok
}

func breaksAfter(n *html.Node) bool {
	return styleBreak(n, "page-break-after", "break-after")
}

func breaksBefore(n *html.Node) bool {
	return styleBreak(n, "page-break-before", "break-before")
}

func styleBreak(n *html.Node, legacy, modern string) bool {
	s, ok := htmlparser.Attr(n, "style")
	if !ok {
		return false
	}
	for _, d := range style.ParseDeclarations(s) {
		if d.Property != legacy && d.Property != modern {
			continue
		}
		if v := strings.ToLower(d.Value); v == "always" || v == "page" {
			return true
		}
	}
	return false
}

// isEmpty reports whether n has neither text nor replaced content
func isEmpty(n *html.Node) bool {
	if !text.IsBlank(htmlparser.Text(n)) {
		return false
	}
	empty := true
	htmlparser.Walk(n, func(c *html.Node) bool {
		if htmlparser.IsElement(c, "img", "svg", "table", "hr", "iframe", "object", "canvas", "video") {
			empty = false
		}
		return empty
	})
	return empty
}
