package pagination

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/content"
)

// Page is one composed page
type Page struct {
	// Number is 1-based
	Number int
	Total  int
	Blocks []content.Block
	// Height is the measured height of Blocks
	Height float64
	// Overflow marks a page whose single block exceeds the budget
	Overflow bool
	Header   Band
	Footer   Band
}

// Document is the result of a pagination run
type Document struct {
	Pages  []Page
	Budget Budget
}

// Options represents options for the pagination engine
type Options struct {
	Geometry Geometry
	Settings Settings
	Header   *HeaderFooter
	Footer   *HeaderFooter
}

// DefaultOptions is A4 with default settings and no bands
func DefaultOptions() Options {
	return Options{Geometry: DefaultGeometry(), Settings: DefaultSettings()}
}

// Engine handles the pagination process
type Engine struct {
	options Options
	log     *zap.Logger
}

// NewEngine creates a new pagination engine
func NewEngine(options Options, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{options: options, log: log}
}

// SetOptions sets the options for the pagination engine
func (e *Engine) SetOptions(options Options) {
	e.options = options
}

// Options returns the engine options
func (e *Engine) Options() Options {
	return e.options
}

// Paginate composes every segment with one budget, then resolves bands
// against the final page count. Segments always start on a new page. A
// document without blocks yields a single empty page.
func (e *Engine) Paginate(ctx context.Context, segments []content.Segment, o Oracle) (*Document, error) {
	g := e.options.Geometry
	if err := g.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(e.options.Header, e.options.Footer)
	if err != nil {
		return nil, err
	}
	budget, err := ComputeBudget(g, e.options.Header, e.options.Footer, e.options.Settings, o)
	if err != nil {
		return nil, err
	}
	e.log.Debug("Computed budget",
		zap.Float64("available", budget.Available),
		zap.Float64("header", budget.Header),
		zap.Float64("footer", budget.Footer))

	c := &Composer{Oracle: o, Width: g.ContentWidth(), Budget: budget.Available, Log: e.log}
	var pages []Page
	for i, seg := range segments {
		ps, err := c.Compose(ctx, seg.Blocks)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		pages = append(pages, ps...)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		pages = []Page{{}}
	}
	for i := range pages {
		pages[i].Number = i + 1
	}
	policy.Apply(pages)

	e.log.Debug("Paginated document", zap.Int("segments", len(segments)), zap.Int("pages", len(pages)))
	return &Document{Pages: pages, Budget: budget}, nil
}
