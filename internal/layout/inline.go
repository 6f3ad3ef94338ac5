package layout

import (
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
	"github.com/gompdf/docpager/internal/text"
)

type itemKind int

const (
	itemWord itemKind = iota
	itemSpace
	itemImage
	itemBreak
)

// item is a word, a collapsible space, an inline image or a forced break
type item struct {
	kind  itemKind
	text  string
	style style.ComputedStyle
	font  Font
	size  float64
	lh    float64
	width float64
	image *ImageBox
}

// height returns the line height the item requires
func (it item) height() float64 {
	if it.kind == itemImage {
		return it.image.OuterHeight()
	}
	return it.lh
}

// inline lays inline content into line boxes inside the content box of b and
// returns the total height of the lines
func (s *Surface) inline(b *BlockBox, nodes []*html.Node) float64 {
	width := b.ContentWidth()
	var items []item
	for _, n := range nodes {
		s.collect(n, b.Style, width, &items)
	}

	startX := b.ContentX()
	top := b.Y + b.Border.Top + b.Padding.Top
	y := top
	align := strings.ToLower(b.Style.Get("text-align"))

	var (
		line    []item
		lineW   float64
		pending *item
	)
	emit := func(brk *item) {
		lineH := 0.0
		for _, it := range line {
			lineH = max(lineH, it.height())
		}
		if len(line) == 0 {
			if brk == nil {
				return
			}
			lineH = brk.lh
		}
		x := startX
		switch align {
		case "right", "end":
			x += max(width-lineW, 0)
		case "center":
			x += max(width-lineW, 0) / 2
		}
		var last *InlineBox
		for _, it := range line {
			switch it.kind {
			case itemImage:
				img := it.image
				img.SetPosition(x+img.Margin.Left, y+lineH-img.Height-img.Margin.Bottom)
				b.AddChild(img)
				x += img.Width + img.Margin.Horizontal()
				last = nil
			default:
				if last != nil && sameRun(last, it) {
					last.Text += it.text
					last.Width += it.width
				} else {
					last = &InlineBox{
						Style:    it.style,
						X:        x,
						Y:        y + lineH - it.lh,
						Width:    it.width,
						Height:   it.lh,
						Text:     it.text,
						FontSize: it.size,
						Font:     it.font,
					}
					b.AddChild(last)
				}
				x += it.width
			}
		}
		y += lineH
		line = line[:0]
		lineW = 0
	}

	for i := range items {
		it := items[i]
		switch it.kind {
		case itemSpace:
			if len(line) > 0 {
				pending = &items[i]
			}
			continue
		case itemBreak:
			emit(&it)
			pending = nil
			continue
		}

		w := it.width
		if it.kind == itemImage {
			w = it.image.Width + it.image.Margin.Horizontal()
		}
		sp := 0.0
		if pending != nil {
			sp = pending.width
		}
		if len(line) > 0 && lineW+sp+w > width {
			emit(nil)
			pending, sp = nil, 0
		}
		if pending != nil {
			line = append(line, *pending)
			lineW += sp
			pending = nil
		}
		line = append(line, it)
		lineW += w
	}
	emit(nil)
	return y - top
}

func sameRun(b *InlineBox, it item) bool {
	return b.Font == it.font && b.FontSize == it.size && b.Height == it.lh &&
		b.Style.Get("color") == it.style.Get("color") &&
		b.Style.Get("text-decoration") == it.style.Get("text-decoration")
}

// collect flattens inline content into items
func (s *Surface) collect(n *html.Node, parent style.ComputedStyle, width float64, out *[]item) {
	switch n.Type {
	case html.TextNode:
		font := s.ResolveFont(parent)
		size := parent.FontSize()
		lh := parent.LineHeight()
		for _, tok := range text.Tokenize(n.Data) {
			it := item{text: tok.Text, style: parent, font: font, size: size, lh: lh}
			if tok.IsSpace {
				it.kind = itemSpace
			}
			it.width = s.TextWidth(it.text, font, size)
			*out = append(*out, it)
		}
		return
	case html.ElementNode:
	default:
		return
	}

	tag := strings.ToLower(n.Data)
	if ignored[tag] {
		return
	}
	st := s.styles.Compute(n, parent)
	if st.Get("display") == "none" {
		return
	}
	switch tag {
	case "br":
		*out = append(*out, item{kind: itemBreak, style: st, lh: st.LineHeight()})
		return
	case "img", "svg":
		*out = append(*out, item{kind: itemImage, style: st, image: s.imageBox(n, st, width)})
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.collect(c, st, width, out)
	}
}

// preformatted lays out text line by line without wrapping
func (s *Surface) preformatted(b *BlockBox, nodes []*html.Node) float64 {
	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(htmlparser.Text(n))
	}
	content := strings.TrimPrefix(sb.String(), "\n")
	content = strings.TrimSuffix(content, "\n")

	font := s.ResolveFont(b.Style)
	size := b.Style.FontSize()
	lh := b.Style.LineHeight()
	x := b.ContentX()
	top := b.Y + b.Border.Top + b.Padding.Top
	y := top
	for _, line := range text.Lines(content) {
		line = strings.ReplaceAll(line, "\t", "    ")
		if line != "" {
			b.AddChild(&InlineBox{
				Style:    b.Style,
				X:        x,
				Y:        y,
				Width:    s.TextWidth(line, font, size),
				Height:   lh,
				Text:     line,
				FontSize: size,
				Font:     font,
			})
		}
		y += lh
	}
	return y - top
}
