package pagination

import (
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
)

// Oracle measures rendered heights. Implementations must be deterministic for
// a fixed input and monotonic: adding a block never decreases the height
// returned by Measure.
type Oracle interface {
	// Measure lays blocks out in order in a container of the given width and
	// returns their total height, collapsing adjacent vertical margins.
	Measure(blocks []content.Block, width float64) (float64, error)
	// MeasureRow returns the height of one table row.
	MeasureRow(row *html.Node, width float64) (float64, error)
	// MeasureHeaderRow returns the height of a table fragment without body
	// rows: the header-row group plus the table's own chrome. head is the
	// <thead> element, or the table itself when it has no header group.
	MeasureHeaderRow(head *html.Node, width float64) (float64, error)
}

// ColumnOracle is implemented by oracles whose table rows depend on column
// widths computed from the whole table. SplitTable pins those widths on every
// fragment so fragments lay out like the rows were measured.
type ColumnOracle interface {
	Columns(table *html.Node, width float64) ([]float64, error)
}
