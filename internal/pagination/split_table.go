package pagination

import (
	"fmt"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
)

// tableParts is the row structure of a table
type tableParts struct {
	caption *html.Node
	// head is the <thead>, or a leading <tr> of header cells
	head *html.Node
	// body is the first <tbody>, used as the template for fragment bodies
	body   *html.Node
	groups []*html.Node
	rows   []*html.Node
}

// splitTableParts collects body rows in order: rows of every <tbody> and bare
// <tr> children in document order, then rows of <tfoot>
func splitTableParts(table *html.Node) tableParts {
	var (
		p    tableParts
		foot []*html.Node
	)
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case htmlparser.IsElement(c, "caption"):
			if p.caption == nil {
				p.caption = c
			}
		case htmlparser.IsElement(c, "colgroup", "col"):
			p.groups = append(p.groups, c)
		case htmlparser.IsElement(c, "thead"):
			if p.head == nil {
				p.head = c
			} else {
				p.rows = append(p.rows, htmlparser.ElementChildren(c, "tr")...)
			}
		case htmlparser.IsElement(c, "tbody"):
			if p.body == nil {
				p.body = c
			}
			p.rows = append(p.rows, htmlparser.ElementChildren(c, "tr")...)
		case htmlparser.IsElement(c, "tfoot"):
			foot = append(foot, htmlparser.ElementChildren(c, "tr")...)
		case htmlparser.IsElement(c, "tr"):
			p.rows = append(p.rows, c)
		}
	}
	p.rows = append(p.rows, foot...)

	// a leading row of header cells stands in for a missing <thead>
	if p.head == nil && len(p.rows) > 1 && isHeaderRow(p.rows[0]) {
		p.head = p.rows[0]
		p.rows = p.rows[1:]
	}
	return p
}

func isHeaderRow(tr *html.Node) bool {
	cells := htmlparser.ElementChildren(tr, "td", "th")
	for _, c := range cells {
		if !htmlparser.IsElement(c, "th") {
			return false
		}
	}
	return len(cells) > 0
}

// fragment builds a table holding the header-row group and rows. When cols
// is set it replaces the column groups of the table. The original table is
// never modified.
func (p tableParts) fragment(table *html.Node, rows []*html.Node, first bool, cols []float64) *html.Node {
	t := htmlparser.ShallowClone(table)
	if first && p.caption != nil {
		t.AppendChild(htmlparser.Clone(p.caption))
	}
	if len(cols) > 0 {
		t.AppendChild(colgroup(cols))
	} else {
		for _, g := range p.groups {
			t.AppendChild(htmlparser.Clone(g))
		}
	}
	if p.head != nil {
		t.AppendChild(htmlparser.Clone(p.head))
	}
	var body *html.Node
	if p.body != nil {
		body = htmlparser.ShallowClone(p.body)
	} else {
		body = &html.Node{Type: html.ElementNode, Data: "tbody", DataAtom: atom.Tbody}
	}
	for _, r := range rows {
		body.AppendChild(htmlparser.Clone(r))
	}
	t.AppendChild(body)
	return t
}

// colgroup declares fixed column widths in px
func colgroup(cols []float64) *html.Node {
	g := &html.Node{Type: html.ElementNode, Data: "colgroup", DataAtom: atom.Colgroup}
	for _, w := range cols {
		g.AppendChild(&html.Node{
			Type:     html.ElementNode,
			Data:     "col",
			DataAtom: atom.Col,
			Attr:     []html.Attribute{{Key: "style", Val: "width: " + strconv.FormatFloat(w, 'f', -1, 64) + "px"}},
		})
	}
	return g
}

// SplitTable breaks an oversized table into fragments that each carry the
// table's attributes and its header-row group. Rows are accumulated on top of
// the header height; a fragment is emitted once the next row would exceed
// budget. A table without rows is returned unsplit.
func SplitTable(b content.Block, o Oracle, width, budget float64) ([]content.Block, error) {
	parts := splitTableParts(b.Node)
	if len(parts.rows) == 0 {
		return []content.Block{b}, nil
	}

	var err error
	head := parts.head
	if head == nil {
		head = b.Node
	}
	var cols []float64
	if co, ok := o.(ColumnOracle); ok {
		if cols, err = co.Columns(b.Node, width); err != nil {
			return nil, fmt.Errorf("unable to lay out table columns: %w", err)
		}
	}
	headHeight, err := o.MeasureHeaderRow(head, width)
	if err != nil {
		return nil, fmt.Errorf("unable to measure table header: %w", err)
	}

	var (
		groups  [][]*html.Node
		working []*html.Node
		current = headHeight
	)
	for _, row := range parts.rows {
		h, err := o.MeasureRow(row, width)
		if err != nil {
			return nil, fmt.Errorf("unable to measure table row: %w", err)
		}
		if current+h > budget && len(working) > 0 {
			groups = append(groups, working)
			working = []*html.Node{row}
			current = headHeight + h
			continue
		}
		working = append(working, row)
		current += h
	}
	if len(working) > 0 {
		groups = append(groups, working)
	}

	out := make([]content.Block, 0, len(groups))
	for i, rows := range groups {
		out = append(out, content.Block{
			Kind:  content.KindTable,
			Node:  parts.fragment(b.Node, rows, i == 0, cols),
			Index: b.Index,
			Part:  i,
			Parts: len(groups),
		})
	}
	return out, nil
}
