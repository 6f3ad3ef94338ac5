package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
)

// tableBox lays out caption and rows. Rows stack without spacing so a table
// is as tall as its chrome plus the sum of its rows.
func (s *Surface) tableBox(n *html.Node, st style.ComputedStyle, width float64) *BlockBox {
	t := newBlockBox(n, st, width)
	cw := t.ContentWidth()
	x := t.ContentX()
	y := t.Border.Top + t.Padding.Top

	if caption := htmlparser.ElementChildren(n, "caption"); len(caption) > 0 {
		c := s.blockBox(caption[0], s.styles.Compute(caption[0], st), cw)
		c.SetPosition(x+c.Margin.Left, y+c.Margin.Top)
		t.AddChild(c)
		y += c.OuterHeight()
	}

	cols := s.columns(n, st, cw)
	for _, row := range TableRows(n) {
		r := s.rowBox(row, s.rowStyle(row, st), cols)
		r.SetPosition(x, y)
		t.AddChild(r)
		y += r.Height
	}
	t.finish(y - t.Border.Top - t.Padding.Top)
	return t
}

// TableRows returns the rows of a table in rendering order: header rows,
// body rows (tbody sections and bare rows in document order), footer rows
func TableRows(table *html.Node) []*html.Node {
	var head, body, foot []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case htmlparser.IsElement(c, "thead"):
			head = append(head, htmlparser.ElementChildren(c, "tr")...)
		case htmlparser.IsElement(c, "tbody"):
			body = append(body, htmlparser.ElementChildren(c, "tr")...)
		case htmlparser.IsElement(c, "tfoot"):
			foot = append(foot, htmlparser.ElementChildren(c, "tr")...)
		case htmlparser.IsElement(c, "tr"):
			body = append(body, c)
		}
	}
	return append(append(head, body...), foot...)
}

// rowStyle computes the style of a row below its section
func (s *Surface) rowStyle(row *html.Node, table style.ComputedStyle) style.ComputedStyle {
	parent := table
	if row.Parent != nil && htmlparser.IsElement(row.Parent, "thead", "tbody", "tfoot") {
		parent = s.styles.Compute(row.Parent, table)
	}
	return s.styles.Compute(row, parent)
}

// rowBox places the cells of a row side by side; every cell is stretched to
// the tallest one
func (s *Surface) rowBox(row *html.Node, st style.ComputedStyle, cols []float64) *BlockBox {
	r := &BlockBox{Node: row, Style: st}
	for _, w := range cols {
		r.Width += w
	}

	var cells []*BlockBox
	x, col := 0.0, 0
	for _, cell := range htmlparser.ElementChildren(row, "td", "th") {
		span := colspan(cell)
		w := 0.0
		for j := col; j < col+span && j < len(cols); j++ {
			w += cols[j]
		}
		col += span

		cst := s.styles.Compute(cell, st)
		c := &BlockBox{Node: cell, Style: cst, Width: w}
		c.Padding = Edges{
			Top:    cst.Length("padding-top", w),
			Right:  cst.Length("padding-right", w),
			Bottom: cst.Length("padding-bottom", w),
			Left:   cst.Length("padding-left", w),
		}
		c.Border = Edges{
			Top:    cst.Length("border-top-width", w),
			Right:  cst.Length("border-right-width", w),
			Bottom: cst.Length("border-bottom-width", w),
			Left:   cst.Length("border-left-width", w),
		}
		c.finish(s.content(c, children(cell)))
		c.SetPosition(x, 0)
		x += w
		cells = append(cells, c)
	}

	for _, c := range cells {
		r.Height = max(r.Height, c.Height)
	}
	if h := st.Length("height", 0); h > r.Height {
		r.Height = h
	}
	for _, c := range cells {
		c.Height = r.Height
		r.AddChild(c)
	}
	return r
}

func colspan(cell *html.Node) int {
	return colspanOf(cell, "colspan")
}

func colspanOf(n *html.Node, attr string) int {
	if v, ok := htmlparser.Attr(n, attr); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
			return n
		}
	}
	return 1
}

type columnsKey struct {
	table *html.Node
	width float64
}

// columns distributes the table width over its columns. Widths declared on
// <col> elements win, otherwise those on the first header row (or the first
// row); the rest share the remainder equally. A declared width on a spanning
// cell or column is split evenly.
func (s *Surface) columns(table *html.Node, st style.ComputedStyle, width float64) []float64 {
	key := columnsKey{table, width}
	if cols, ok := s.colCache[key]; ok {
		return cols
	}

	rows := TableRows(table)
	count := 0
	for _, r := range rows {
		n := 0
		for _, c := range htmlparser.ElementChildren(r, "td", "th") {
			n += colspan(c)
		}
		count = max(count, n)
	}
	if count == 0 {
		return nil
	}

	cols := make([]float64, count)
	declared := s.declaredColumns(table, st, width, cols)
	if declared == 0 && len(rows) > 0 {
		rst := s.rowStyle(rows[0], st)
		i := 0
		for _, c := range htmlparser.ElementChildren(rows[0], "td", "th") {
			span := colspan(c)
			if w := s.styles.Compute(c, rst).Length("width", width); w > 0 {
				share := w / float64(span)
				for j := i; j < i+span && j < count; j++ {
					cols[j] = share
					declared += share
				}
			}
			i += span
		}
	}

	remaining := max(width-declared, 0)
	free := 0
	for _, w := range cols {
		if w == 0 {
			free++
		}
	}
	if free > 0 {
		each := remaining / float64(free)
		for i := range cols {
			if cols[i] == 0 {
				cols[i] = each
			}
		}
	} else if declared-width > 0.01 {
		// over-declared tables shrink proportionally
		for i := range cols {
			cols[i] *= width / declared
		}
	}
	s.colCache[key] = cols
	return cols
}

// declaredColumns fills cols with the widths declared on <colgroup> and
// <col> elements and returns their sum
func (s *Surface) declaredColumns(table *html.Node, st style.ComputedStyle, width float64, cols []float64) float64 {
	declared, i := 0.0, 0
	fill := func(n *html.Node, parent style.ComputedStyle) {
		span := colspanOf(n, "span")
		if w := s.styles.Compute(n, parent).Length("width", width); w > 0 {
			share := w / float64(span)
			for j := i; j < i+span && j < len(cols); j++ {
				cols[j] = share
				declared += share
			}
		}
		i += span
	}
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case htmlparser.IsElement(c, "col"):
			fill(c, st)
		case htmlparser.IsElement(c, "colgroup"):
			if members := htmlparser.ElementChildren(c, "col"); len(members) > 0 {
				gst := s.styles.Compute(c, st)
				for _, col := range members {
					fill(col, gst)
				}
			} else {
				fill(c, st)
			}
		}
	}
	return declared
}

// equalColumns splits width evenly over the cells of a detached row
func equalColumns(row *html.Node, width float64) []float64 {
	n := 0
	for _, c := range htmlparser.ElementChildren(row, "td", "th") {
		n += colspan(c)
	}
	if n == 0 {
		return nil
	}
	cols := make([]float64, n)
	for i := range cols {
		cols[i] = width / float64(n)
	}
	return cols
}
