package pagination

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/content"
)

// Composer packs the blocks of one segment into pages greedily. Blocks keep
// their order; the only look-ahead is the next block.
type Composer struct {
	Oracle Oracle
	Width  float64
	Budget float64
	Log    *zap.Logger
}

// composition state for one segment
type composition struct {
	c       *Composer
	pages   []Page
	current []content.Block
	height  float64
}

func (s *composition) flush() {
	if len(s.current) == 0 {
		return
	}
	s.emit(s.current, s.height)
	s.current, s.height = nil, 0
}

func (s *composition) emit(blocks []content.Block, h float64) {
	p := Page{Blocks: blocks, Height: h, Overflow: h > s.c.Budget}
	if p.Overflow {
		s.c.logger().Debug("Page overflows budget",
			zap.Int("blocks", len(blocks)), zap.Float64("height", h), zap.Float64("budget", s.c.Budget))
	}
	s.pages = append(s.pages, p)
}

func (c *Composer) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Composer) measure(blocks ...content.Block) (float64, error) {
	h, err := c.Oracle.Measure(blocks, c.Width)
	if err != nil {
		return 0, fmt.Errorf("unable to measure blocks: %w", err)
	}
	return h, nil
}

// Compose returns the pages of one segment. Pages are unnumbered; the engine
// numbers them across segments. The context is checked before every block.
func (c *Composer) Compose(ctx context.Context, blocks []content.Block) ([]Page, error) {
	s := &composition{c: c}
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if b.Kind.Atomic() {
			alone, err := c.measure(b)
			if err != nil {
				return nil, err
			}
			if alone > c.Budget {
				s.flush()
				if err := c.split(ctx, s, b); err != nil {
					return nil, err
				}
				continue
			}
		}

		candidate := append(s.current[:len(s.current):len(s.current)], b)
		h, err := c.measure(candidate...)
		if err != nil {
			return nil, err
		}
		if h <= c.Budget || len(s.current) == 0 {
			s.current, s.height = candidate, h
			continue
		}

		s.flush()
		alone, err := c.measure(b)
		if err != nil {
			return nil, err
		}
		s.current, s.height = []content.Block{b}, alone
		if alone > c.Budget {
			s.flush()
		}
	}
	s.flush()
	return s.pages, nil
}

// split places every fragment of an oversized atomic block on its own page
func (c *Composer) split(ctx context.Context, s *composition, b content.Block) error {
	var (
		frags []content.Block
		err   error
	)
	switch b.Kind {
	case content.KindTable:
		frags, err = SplitTable(b, c.Oracle, c.Width, c.Budget)
	case content.KindList:
		frags, err = SplitList(b, c.Oracle, c.Width, c.Budget)
	default:
		frags = []content.Block{b}
	}
	if err != nil {
		return err
	}
	c.logger().Debug("Split atomic block",
		zap.Stringer("kind", b.Kind), zap.Int("index", b.Index), zap.Int("fragments", len(frags)))
	for _, f := range frags {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, err := c.measure(f)
		if err != nil {
			return err
		}
		s.emit([]content.Block{f}, h)
	}
	return nil
}
