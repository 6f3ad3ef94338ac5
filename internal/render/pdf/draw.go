package pdf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gompdf/docpager/internal/layout"
)

// renderBox renders a box and its descendants
func (r *Renderer) renderBox(box layout.Box) {
	switch b := box.(type) {
	case *layout.BlockBox:
		r.renderBlockBox(b)
	case *layout.InlineBox:
		r.renderText(b)
	case *layout.ImageBox:
		r.renderImage(b)
	default:
		r.log.Debug(fmt.Sprintf("Unknown box type: %T", box))
	}
}

func (r *Renderer) renderBlockBox(box *layout.BlockBox) {
	r.renderBackground(box)
	r.renderBorders(box)
	if box.Marker != "" || box.Bullet != "" {
		r.renderListMarker(box)
	}
	for _, child := range box.Children {
		r.renderBox(child)
	}
}

func (r *Renderer) renderBackground(box *layout.BlockBox) {
	if !r.RenderBackgrounds {
		return
	}
	bg := box.Style.Get("background-color")
	if bg == "" && box.Style.Get("background") != "" {
		bg = box.Style.Get("background")
	}
	if c, ok := parseColor(bg); ok {
		r.pdf.SetFillColor(c[0], c[1], c[2])
		r.pdf.Rect(pt(box.X), pt(box.Y), pt(box.Width), pt(box.Height), "F")
		return
	}
	if box.Node != nil && strings.EqualFold(box.Node.Data, "th") {
		r.pdf.SetFillColor(240, 240, 240)
		r.pdf.Rect(pt(box.X), pt(box.Y), pt(box.Width), pt(box.Height), "F")
	}
}

// renderBorders draws each edge with a non-zero width as a line centered in
// the border area
func (r *Renderer) renderBorders(box *layout.BlockBox) {
	if !r.RenderBorders {
		return
	}
	b := box.Border
	if b.Top == 0 && b.Right == 0 && b.Bottom == 0 && b.Left == 0 {
		return
	}
	if s := box.Style.Get("border-style"); s == "none" || s == "hidden" {
		return
	}
	c, ok := parseColor(box.Style.Get("border-color"))
	if !ok {
		c, _ = parseColor(box.Style.Get("color"))
	}
	r.pdf.SetDrawColor(c[0], c[1], c[2])

	x0, y0 := box.X, box.Y
	x1, y1 := box.X+box.Width, box.Y+box.Height
	line := func(w, ax, ay, bx, by float64) {
		if w <= 0 {
			return
		}
		r.pdf.SetLineWidth(pt(w))
		r.pdf.Line(pt(ax), pt(ay), pt(bx), pt(by))
	}
	line(b.Top, x0, y0+b.Top/2, x1, y0+b.Top/2)
	line(b.Bottom, x0, y1-b.Bottom/2, x1, y1-b.Bottom/2)
	line(b.Left, x0+b.Left/2, y0, x0+b.Left/2, y1)
	line(b.Right, x1-b.Right/2, y0, x1-b.Right/2, y1)
}

// renderText draws one run on its line. The baseline sits below the half
// leading at 80% of the font size.
func (r *Renderer) renderText(box *layout.InlineBox) {
	if strings.TrimSpace(box.Text) == "" || box.FontSize <= 0 {
		return
	}
	c, _ := parseColor(box.Style.Get("color"))
	r.pdf.SetTextColor(c[0], c[1], c[2])
	r.pdf.SetFont(box.Font.Family, box.Font.Style, pt(box.FontSize))

	text := box.Text
	if !box.Font.UTF8 {
		text = r.tr(text)
	}
	leading := max(box.Height-box.FontSize, 0) / 2
	baseline := box.Y + leading + box.FontSize*0.8
	r.pdf.Text(pt(box.X), pt(baseline), text)

	switch box.Style.Get("text-decoration") {
	case "underline":
		r.pdf.SetDrawColor(c[0], c[1], c[2])
		r.pdf.SetLineWidth(pt(max(box.FontSize/16, 0.5)))
		y := baseline + box.FontSize*0.1
		r.pdf.Line(pt(box.X), pt(y), pt(box.X+box.Width), pt(y))
	case "line-through":
		r.pdf.SetDrawColor(c[0], c[1], c[2])
		r.pdf.SetLineWidth(pt(max(box.FontSize/16, 0.5)))
		y := baseline - box.FontSize*0.3
		r.pdf.Line(pt(box.X), pt(y), pt(box.X+box.Width), pt(y))
	}
}

// firstInlineChild returns the first InlineBox found within the list item
func firstInlineChild(b *layout.BlockBox) *layout.InlineBox {
	for _, ch := range b.Children {
		switch v := ch.(type) {
		case *layout.InlineBox:
			return v
		case *layout.BlockBox:
			if ib := firstInlineChild(v); ib != nil {
				return ib
			}
		}
	}
	return nil
}

// renderListMarker draws the bullet or number left of a list item, aligned
// with its first line
func (r *Renderer) renderListMarker(li *layout.BlockBox) {
	fontSize := li.Style.FontSize()
	lineTop, lineHeight := li.Y, li.Style.LineHeight()
	if ib := firstInlineChild(li); ib != nil {
		fontSize, lineTop, lineHeight = ib.FontSize, ib.Y, ib.Height
	}
	c, _ := parseColor(li.Style.Get("color"))

	if li.Marker != "" {
		r.pdf.SetTextColor(c[0], c[1], c[2])
		r.pdf.SetFont("Helvetica", "", pt(fontSize))
		w := r.pdf.GetStringWidth(li.Marker) / pxToPt
		x := max(li.X-w-fontSize*0.3, 0)
		baseline := lineTop + max(lineHeight-fontSize, 0)/2 + fontSize*0.8
		r.pdf.Text(pt(x), pt(baseline), r.tr(li.Marker))
		return
	}

	radius := max(fontSize*0.18, 1.2)
	cx := li.X - fontSize*0.8
	cy := lineTop + lineHeight/2
	r.pdf.SetDrawColor(c[0], c[1], c[2])
	r.pdf.SetFillColor(c[0], c[1], c[2])
	switch li.Bullet {
	case "none":
	case "circle":
		r.pdf.SetLineWidth(pt(0.8))
		r.pdf.Circle(pt(cx), pt(cy), pt(radius), "D")
	case "square":
		r.pdf.Rect(pt(cx-radius), pt(cy-radius), pt(radius*2), pt(radius*2), "F")
	default:
		r.pdf.Circle(pt(cx), pt(cy), pt(radius), "F")
	}
}

var namedColors = map[string][3]int{
	"black":  {0, 0, 0},
	"white":  {255, 255, 255},
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
	"silver": {192, 192, 192},
	"navy":   {0, 0, 128},
	"maroon": {128, 0, 0},
	"orange": {255, 165, 0},
	"yellow": {255, 255, 0},
}

// parseColor parses a CSS color value; ok is false for unset, transparent and
// unknown values, in which case black is returned
func parseColor(value string) ([3]int, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "transparent" || value == "none" {
		return [3]int{}, false
	}
	if strings.HasPrefix(value, "#") {
		if r, g, b, ok := parseHexColor(value); ok {
			return [3]int{r, g, b}, true
		}
		return [3]int{}, false
	}
	if c, ok := namedColors[value]; ok {
		return c, true
	}
	if inner, ok := strings.CutPrefix(value, "rgb("); ok {
		parts := strings.Split(strings.TrimSuffix(inner, ")"), ",")
		if len(parts) == 3 {
			var c [3]int
			for i, p := range parts {
				v, err := strconv.Atoi(strings.TrimSpace(p))
				if err != nil {
					return [3]int{}, false
				}
				c[i] = min(max(v, 0), 255)
			}
			return c, true
		}
	}
	return [3]int{}, false
}

// parseHexColor parses #RRGGBB or #RGB into r,g,b
func parseHexColor(s string) (int, int, int, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}

