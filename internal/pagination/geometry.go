package pagination

import (
	"fmt"
	"strings"
)

// PageSize represents standard page sizes
type PageSize struct {
	Width  float64
	Height float64
	Name   string
}

// Standard page sizes in CSS px (96 per inch)
var (
	PageSizeA4     = PageSize{Width: 794, Height: 1123, Name: "A4"}
	PageSizeLetter = PageSize{Width: 816, Height: 1056, Name: "Letter"}
	PageSizeLegal  = PageSize{Width: 816, Height: 1344, Name: "Legal"}
	PageSizeA3     = PageSize{Width: 1123, Height: 1587, Name: "A3"}
	PageSizeA5     = PageSize{Width: 559, Height: 794, Name: "A5"}
)

var pageSizes = []PageSize{PageSizeA4, PageSizeLetter, PageSizeLegal, PageSizeA3, PageSizeA5}

// PageSizeByName looks a standard page size up, ignoring case
func PageSizeByName(name string) (PageSize, error) {
	for _, ps := range pageSizes {
		if strings.EqualFold(ps.Name, strings.TrimSpace(name)) {
			return ps, nil
		}
	}
	return PageSize{}, fmt.Errorf("unknown page size %q", name)
}

// Landscape returns the size with width and height swapped when needed
func (ps PageSize) Landscape() PageSize {
	if ps.Width < ps.Height {
		ps.Width, ps.Height = ps.Height, ps.Width
	}
	return ps
}

// Margins represents page margins
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargins returns equal margins on all sides
func UniformMargins(v float64) Margins {
	return Margins{Top: v, Right: v, Bottom: v, Left: v}
}

// Geometry is the fixed page geometry of a document
type Geometry struct {
	Width   float64
	Height  float64
	Margins Margins
}

// DefaultGeometry is an A4 page at 96 dpi with 40px margins
func DefaultGeometry() Geometry {
	return NewGeometry(PageSizeA4, UniformMargins(40))
}

// NewGeometry creates a geometry from a page size and margins
func NewGeometry(size PageSize, m Margins) Geometry {
	return Geometry{Width: size.Width, Height: size.Height, Margins: m}
}

// ContentWidth is the page width inside the margins
func (g Geometry) ContentWidth() float64 {
	return g.Width - g.Margins.Left - g.Margins.Right
}

// ContentHeight is the page height inside the margins
func (g Geometry) ContentHeight() float64 {
	return g.Height - g.Margins.Top - g.Margins.Bottom
}

// Validate reports geometries that leave no content area
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid page size %gx%g", g.Width, g.Height)
	}
	if g.ContentWidth() <= 0 || g.ContentHeight() <= 0 {
		return fmt.Errorf("margins leave no content area on a %gx%g page", g.Width, g.Height)
	}
	return nil
}
