package layout

import (
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
)

type cacheKey struct {
	node  *html.Node
	width float64
}

// metrics of one top-level block: vertical margins and border box height
type metrics struct {
	top, height, bottom float64
}

// Measure returns the height of blocks laid out together at the given width.
// Adjacent vertical margins collapse to the larger one; the first top and the
// last bottom margin are included. Block nodes are immutable, so each block
// is laid out once per surface and width.
func (s *Surface) Measure(blocks []content.Block, width float64) (float64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	total, prevBottom := 0.0, 0.0
	for i, b := range blocks {
		m := s.metricsOf(b.Node, width)
		if i == 0 {
			total += m.top
		} else {
			total += max(prevBottom, m.top)
		}
		total += m.height
		prevBottom = m.bottom
	}
	if len(blocks) > 0 {
		total += prevBottom
	}
	if err := s.check(); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Surface) metricsOf(n *html.Node, width float64) metrics {
	if n == nil {
		return metrics{}
	}
	key := cacheKey{n, width}
	if m, ok := s.cache[key]; ok {
		return m
	}
	var m metrics
	if b := s.build(n, s.rootStyle(), width); b != nil {
		mg := b.margins()
		m = metrics{top: mg.Top, height: b.GetHeight(), bottom: mg.Bottom}
	}
	s.cache[key] = m
	return m
}

// MeasureRow returns the height of a single table row laid out with the
// column widths of its table
func (s *Surface) MeasureRow(row *html.Node, width float64) (float64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	table := enclosingTable(row)
	if table == nil {
		return s.rowBox(row, s.styles.Compute(row, s.rootStyle()), equalColumns(row, width)).Height, s.check()
	}
	tst := s.styles.Compute(table, s.rootStyle())
	cw := newBlockBox(table, tst, width).ContentWidth()
	r := s.rowBox(row, s.rowStyle(row, tst), s.columns(table, tst, cw))
	return r.Height, s.check()
}

// Columns returns the column widths of table laid out at the given width.
// Fragments declaring these widths on <col> elements lay their rows out the
// same way as the whole table.
func (s *Surface) Columns(table *html.Node, width float64) ([]float64, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	tst := s.styles.Compute(table, s.rootStyle())
	cw := newBlockBox(table, tst, width).ContentWidth()
	cols := s.columns(table, tst, cw)
	return append([]float64(nil), cols...), s.check()
}

// MeasureHeaderRow returns the height a table fragment needs besides its body
// rows: the table's margins, borders, padding and caption plus the rows of
// head. head is the table's <thead> or header <tr>, or the table itself when
// it has neither.
func (s *Surface) MeasureHeaderRow(head *html.Node, width float64) (float64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if head == nil {
		return 0, nil
	}

	table := head
	if !htmlparser.IsElement(head, "table") {
		table = enclosingTable(head)
	}
	rows := htmlparser.ElementChildren(head, "tr")
	if htmlparser.IsElement(head, "tr") {
		rows = []*html.Node{head}
	}
	if table == nil {
		total := 0.0
		for _, tr := range rows {
			h, err := s.MeasureRow(tr, width)
			if err != nil {
				return 0, err
			}
			total += h
		}
		return total, nil
	}

	tst := s.styles.Compute(table, s.rootStyle())
	t := newBlockBox(table, tst, width)
	total := t.Margin.Vertical() + t.Border.Vertical() + t.Padding.Vertical()
	if caption := htmlparser.ElementChildren(table, "caption"); len(caption) > 0 {
		total += s.blockBox(caption[0], s.styles.Compute(caption[0], tst), t.ContentWidth()).OuterHeight()
	}
	if head != table {
		cols := s.columns(table, tst, t.ContentWidth())
		for _, tr := range rows {
			total += s.rowBox(tr, s.rowStyle(tr, tst), cols).Height
		}
	}
	return total, s.check()
}

func enclosingTable(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if htmlparser.IsElement(p, "table") {
			return p
		}
	}
	return nil
}
