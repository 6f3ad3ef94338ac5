package pagination

import (
	"errors"
	"strconv"

	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
)

// fakeOracle derives heights from data-h attributes. Tables are the sum of
// their rows, lists the sum of their items, and adjacent blocks are
// separated by gap.
type fakeOracle struct {
	gap   float64
	calls int
	err   error
}

func attrHeight(n *html.Node) (float64, bool) {
	v, ok := htmlparser.Attr(n, "data-h")
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

func (o *fakeOracle) height(n *html.Node) float64 {
	if h, ok := attrHeight(n); ok {
		return h
	}
	total := 0.0
	htmlparser.Walk(n, func(c *html.Node) bool {
		if htmlparser.IsElement(c, "tr", "li") {
			h, _ := attrHeight(c)
			total += h
			return false
		}
		return true
	})
	return total
}

func (o *fakeOracle) Measure(blocks []content.Block, width float64) (float64, error) {
	o.calls++
	if o.err != nil {
		return 0, o.err
	}
	total := 0.0
	for i, b := range blocks {
		if i > 0 {
			total += o.gap
		}
		total += o.height(b.Node)
	}
	return total, nil
}

func (o *fakeOracle) MeasureRow(row *html.Node, width float64) (float64, error) {
	if o.err != nil {
		return 0, o.err
	}
	h, _ := attrHeight(row)
	return h, nil
}

func (o *fakeOracle) MeasureHeaderRow(head *html.Node, width float64) (float64, error) {
	if o.err != nil {
		return 0, o.err
	}
	if htmlparser.IsElement(head, "table") {
		return 0, nil
	}
	return o.height(head), nil
}

var errMeasure = errors.New("measurement failed")
