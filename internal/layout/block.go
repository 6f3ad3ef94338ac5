package layout

import (
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
)

// block-level elements; anything else participates in inline formatting
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"center": true, "dd": true, "details": true, "dialog": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "ul": true, "caption": true,
}

// ignored elements never generate boxes
var ignored = map[string]bool{
	"script": true, "style": true, "template": true, "head": true,
	"meta": true, "link": true, "title": true, "noscript": true,
}

// blockLevel is a box stacked vertically by its parent
type blockLevel interface {
	Box
	margins() Edges
}

func (b *BlockBox) margins() Edges { return b.Margin }
func (b *ImageBox) margins() Edges { return b.Margin }

// Layout lays nodes out top to bottom inside a container of the given width.
// The root box starts at (0, 0) and its height includes the top margin of the
// first box and the bottom margin of the last one.
func (s *Surface) Layout(nodes []*html.Node, width float64) (*BlockBox, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	root := &BlockBox{Style: s.rootStyle(), Width: width}
	root.Height = s.place(root, s.buildAll(nodes, root.Style, width))
	if err := s.check(); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *Surface) rootStyle() style.ComputedStyle {
	return s.root
}

// place stacks boxes in the content box of parent collapsing adjacent
// vertical margins, and returns the content height used
func (s *Surface) place(parent *BlockBox, boxes []blockLevel) float64 {
	x := parent.ContentX()
	top := parent.Y + parent.Border.Top + parent.Padding.Top
	y := top
	prevBottom := 0.0
	for i, b := range boxes {
		m := b.margins()
		if i == 0 {
			y += m.Top
		} else {
			y += max(prevBottom, m.Top)
		}
		b.SetPosition(x+m.Left, y)
		parent.AddChild(b)
		y += b.GetHeight()
		prevBottom = m.Bottom
	}
	if len(boxes) > 0 {
		y += prevBottom
	}
	return y - top
}

// buildAll creates block-level boxes for nodes; runs of text and inline
// elements become anonymous blocks
func (s *Surface) buildAll(nodes []*html.Node, parent style.ComputedStyle, width float64) []blockLevel {
	var (
		out []blockLevel
		run []*html.Node
	)
	flush := func() {
		if len(run) == 0 {
			return
		}
		if b := s.anonymousBox(run, parent, width); b != nil {
			out = append(out, b)
		}
		run = nil
	}
	for _, n := range nodes {
		switch {
		case n.Type == html.TextNode:
			run = append(run, n)
		case n.Type != html.ElementNode:
		case ignored[strings.ToLower(n.Data)]:
		case isBlockLevel(n):
			flush()
			if b := s.build(n, parent, width); b != nil {
				out = append(out, b)
			}
		default:
			run = append(run, n)
		}
	}
	flush()
	return out
}

// build creates the box for a single block-level node
func (s *Surface) build(n *html.Node, parent style.ComputedStyle, width float64) blockLevel {
	if n.Type == html.TextNode {
		if b := s.anonymousBox([]*html.Node{n}, parent, width); b != nil {
			return b
		}
		return nil
	}
	if n.Type != html.ElementNode || ignored[strings.ToLower(n.Data)] {
		return nil
	}
	st := s.styles.Compute(n, parent)
	if st.Get("display") == "none" {
		return nil
	}
	switch strings.ToLower(n.Data) {
	case "img", "svg":
		return s.imageBox(n, st, width)
	case "table":
		return s.tableBox(n, st, width)
	case "ul", "ol":
		return s.listBox(n, st, width)
	case "br":
		return &BlockBox{Node: n, Style: st, Width: width, Height: st.LineHeight()}
	}
	return s.blockBox(n, st, width)
}

// newBlockBox resolves the box model of n for a container of the given width
func newBlockBox(n *html.Node, st style.ComputedStyle, width float64) *BlockBox {
	b := &BlockBox{
		Node:  n,
		Style: st,
		Margin: Edges{
			Top:    st.Length("margin-top", width),
			Right:  st.Length("margin-right", width),
			Bottom: st.Length("margin-bottom", width),
			Left:   st.Length("margin-left", width),
		},
		Padding: Edges{
			Top:    st.Length("padding-top", width),
			Right:  st.Length("padding-right", width),
			Bottom: st.Length("padding-bottom", width),
			Left:   st.Length("padding-left", width),
		},
		Border: Edges{
			Top:    st.Length("border-top-width", width),
			Right:  st.Length("border-right-width", width),
			Bottom: st.Length("border-bottom-width", width),
			Left:   st.Length("border-left-width", width),
		},
	}
	b.Width = max(width-b.Margin.Horizontal(), 0)
	if w := st.Length("width", width); w > 0 {
		w += b.Padding.Horizontal() + b.Border.Horizontal()
		if w < b.Width {
			if st.Get("margin-left") == "auto" && st.Get("margin-right") == "auto" {
				b.Margin.Left = (width - w) / 2
			}
			b.Width = w
		}
	}
	return b
}

// finish sets the border box height from the content height
func (b *BlockBox) finish(contentHeight float64) {
	if h := b.Style.Length("height", 0); h > contentHeight {
		contentHeight = h
	}
	if h := b.Style.Length("min-height", 0); h > contentHeight {
		contentHeight = h
	}
	b.Height = contentHeight + b.Padding.Vertical() + b.Border.Vertical()
}

func (s *Surface) blockBox(n *html.Node, st style.ComputedStyle, width float64) *BlockBox {
	b := newBlockBox(n, st, width)
	b.finish(s.content(b, children(n)))
	return b
}

// content lays children into b and returns the content height
func (s *Surface) content(b *BlockBox, nodes []*html.Node) float64 {
	switch {
	case isPreformatted(b.Style):
		return s.preformatted(b, nodes)
	case hasBlockChildren(nodes):
		return s.place(b, s.buildAll(nodes, b.Style, b.ContentWidth()))
	default:
		return s.inline(b, nodes)
	}
}

// anonymousBox wraps inline content; blank runs produce nothing
func (s *Surface) anonymousBox(nodes []*html.Node, parent style.ComputedStyle, width float64) *BlockBox {
	blank := true
	for _, n := range nodes {
		if n.Type == html.ElementNode || strings.TrimSpace(n.Data) != "" {
			blank = false
			break
		}
	}
	if blank {
		return nil
	}
	b := &BlockBox{Style: s.styles.Compute(nil, parent), Width: width}
	b.Height = s.inline(b, nodes)
	return b
}

func children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func isBlockLevel(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if blockTags[strings.ToLower(n.Data)] {
		return true
	}
	if v, ok := htmlparser.Attr(n, "style"); ok {
		for _, d := range style.ParseDeclarations(v) {
			if d.Property == "display" && (d.Value == "block" || d.Value == "flex" || d.Value == "list-item" || d.Value == "table") {
				return true
			}
		}
	}
	return false
}

func hasBlockChildren(nodes []*html.Node) bool {
	for _, n := range nodes {
		if isBlockLevel(n) {
			return true
		}
	}
	return false
}

func isPreformatted(st style.ComputedStyle) bool {
	ws := st.Get("white-space")
	return ws == "pre" || ws == "pre-wrap" || ws == "pre-line"
}
