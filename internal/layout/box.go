package layout

import (
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/res"
	"github.com/gompdf/docpager/internal/style"
)

// Box is a positioned rectangle of the layout tree. Coordinates are px
// relative to the origin of the laid out container.
type Box interface {
	GetX() float64
	GetY() float64
	GetWidth() float64
	GetHeight() float64
	SetPosition(x, y float64)
	GetNode() *html.Node
}

// Edges holds top, right, bottom and left lengths
type Edges struct {
	Top, Right, Bottom, Left float64
}

// Horizontal returns left + right
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns top + bottom
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// BlockBox represents a block-level box. X, Y, Width and Height describe the
// border box; margins lie outside of it.
type BlockBox struct {
	Node    *html.Node
	Style   style.ComputedStyle
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Margin  Edges
	Padding Edges
	Border  Edges

	// Marker is the text marker of an ordered list item ("3.", "iv.")
	Marker string
	// Bullet is the list-style-type of an unordered list item
	Bullet string

	Children []Box
}

func (b *BlockBox) GetX() float64       { return b.X }
func (b *BlockBox) GetY() float64       { return b.Y }
func (b *BlockBox) GetWidth() float64   { return b.Width }
func (b *BlockBox) GetHeight() float64  { return b.Height }
func (b *BlockBox) GetNode() *html.Node { return b.Node }

// SetPosition moves the box and all of its descendants
func (b *BlockBox) SetPosition(x, y float64) {
	dx, dy := x-b.X, y-b.Y
	b.X, b.Y = x, y
	for _, c := range b.Children {
		c.SetPosition(c.GetX()+dx, c.GetY()+dy)
	}
}

// ContentX returns the left edge of the content box
func (b *BlockBox) ContentX() float64 {
	return b.X + b.Border.Left + b.Padding.Left
}

// ContentWidth returns the width of the content box
func (b *BlockBox) ContentWidth() float64 {
	return max(b.Width-b.Border.Horizontal()-b.Padding.Horizontal(), 0)
}

// OuterHeight returns the height including vertical margins
func (b *BlockBox) OuterHeight() float64 {
	return b.Margin.Top + b.Height + b.Margin.Bottom
}

// AddChild adds a child box
func (b *BlockBox) AddChild(child Box) {
	b.Children = append(b.Children, child)
}

// InlineBox is a run of text placed on a line
type InlineBox struct {
	Style style.ComputedStyle
	X     float64
	Y     float64
	Width float64
	// Height is the line height used by the run
	Height   float64
	Text     string
	FontSize float64
	Font     Font
}

func (b *InlineBox) GetX() float64            { return b.X }
func (b *InlineBox) GetY() float64            { return b.Y }
func (b *InlineBox) GetWidth() float64        { return b.Width }
func (b *InlineBox) GetHeight() float64       { return b.Height }
func (b *InlineBox) GetNode() *html.Node      { return nil }
func (b *InlineBox) SetPosition(x, y float64) { b.X, b.Y = x, y }

// ImageBox represents an <img> or <svg> element, block-level or inline
type ImageBox struct {
	Node   *html.Node
	Style  style.ComputedStyle
	X      float64
	Y      float64
	Width  float64
	Height float64
	Margin Edges
	// Image is nil for inline <svg> and for images the gate never saw
	Image *res.Image
}

func (b *ImageBox) GetX() float64            { return b.X }
func (b *ImageBox) GetY() float64            { return b.Y }
func (b *ImageBox) GetWidth() float64        { return b.Width }
func (b *ImageBox) GetHeight() float64       { return b.Height }
func (b *ImageBox) GetNode() *html.Node      { return b.Node }
func (b *ImageBox) SetPosition(x, y float64) { b.X, b.Y = x, y }

// OuterHeight returns the height including vertical margins
func (b *ImageBox) OuterHeight() float64 {
	return b.Margin.Top + b.Height + b.Margin.Bottom
}

// Placeholder reports whether the image has no usable data
func (b *ImageBox) Placeholder() bool {
	return !b.Image.OK() && !b.inlineSVG()
}

func (b *ImageBox) inlineSVG() bool {
	return b.Image == nil && b.Node != nil && b.Node.Data == "svg"
}
