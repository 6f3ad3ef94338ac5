package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
)

const (
	// PlaceholderSize is the edge of the square used for images without size
	PlaceholderSize = 150.0
	defaultSVGWidth  = 300.0
	defaultSVGHeight = 150.0
)

// imageBox sizes an <img> or inline <svg>: declared size first, then the
// intrinsic size resolved by the gate, then a placeholder. The result never
// exceeds the container width unless max-width says otherwise.
func (s *Surface) imageBox(n *html.Node, st style.ComputedStyle, container float64) *ImageBox {
	b := &ImageBox{
		Node:  n,
		Style: st,
		Margin: Edges{
			Top:    st.Length("margin-top", container),
			Right:  st.Length("margin-right", container),
			Bottom: st.Length("margin-bottom", container),
			Left:   st.Length("margin-left", container),
		},
	}

	var iw, ih float64
	if strings.EqualFold(n.Data, "svg") {
		iw, ih = svgSize(n)
	} else if src, ok := htmlparser.Attr(n, "src"); ok {
		if img, found := s.assets.Image(src); found {
			b.Image = img
			if img.OK() {
				iw, ih = img.Width, img.Height
			}
		}
	}

	w, h := st.Length("width", container), st.Length("height", container)
	switch {
	case w > 0 && h > 0:
	case w > 0:
		h = w
		if iw > 0 {
			h = w * ih / iw
		}
	case h > 0:
		w = h
		if ih > 0 {
			w = h * iw / ih
		}
	case iw > 0 && ih > 0:
		w, h = iw, ih
	default:
		w, h = PlaceholderSize, PlaceholderSize
	}

	limit := max(container-b.Margin.Horizontal(), 0)
	if mw := st.Get("max-width"); mw != "" && mw != "none" {
		limit = style.Length(mw, container, st.FontSize(), limit)
	}
	if w > limit && limit > 0 {
		h *= limit / w
		w = limit
	}
	b.Width, b.Height = w, h
	return b
}

// svgSize returns the size declared by an inline svg element
func svgSize(n *html.Node) (float64, float64) {
	var w, h float64
	if v, ok := htmlparser.Attr(n, "width"); ok {
		w = style.Length(v, 0, style.DefaultFontSize, 0)
	}
	if v, ok := htmlparser.Attr(n, "height"); ok {
		h = style.Length(v, 0, style.DefaultFontSize, 0)
	}
	if w > 0 && h > 0 {
		return w, h
	}
	if v, ok := htmlparser.Attr(n, "viewbox"); ok {
		f := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
		if len(f) == 4 {
			vw, err1 := strconv.ParseFloat(f[2], 64)
			vh, err2 := strconv.ParseFloat(f[3], 64)
			if err1 == nil && err2 == nil && vw > 0 && vh > 0 {
				switch {
				case w > 0:
					return w, w * vh / vw
				case h > 0:
					return h * vw / vh, h
				}
				return vw, vh
			}
		}
	}
	return defaultSVGWidth, defaultSVGHeight
}
