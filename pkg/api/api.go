// Package api is the public entry point: it turns substituted markup into
// pages and optionally renders them as PDF or paged HTML.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	"github.com/gompdf/docpager/internal/layout"
	"github.com/gompdf/docpager/internal/pagination"
	"github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/render/htmlpage"
	"github.com/gompdf/docpager/internal/render/pdf"
	"github.com/gompdf/docpager/internal/res"
	"github.com/gompdf/docpager/internal/style"
)

// Status tells how a result was produced
type Status int

const (
	// StatusPaginated is a complete measured pagination
	StatusPaginated Status = iota
	// StatusDegraded is a single unmeasured page holding all content, used
	// when no measurement surface is available
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusPaginated:
		return "paginated"
	case StatusDegraded:
		return "degraded"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Page is one composed page
type Page = pagination.Page

// Result is the outcome of one pagination run
type Result struct {
	Status Status
	// RunID identifies the run in logs
	RunID string
	Pages []Page
	// Original is the input markup of a degraded result
	Original string
	Budget   pagination.Budget
}

// Paginator splits markup into pages. It holds no state between runs and may
// be used from several goroutines; runs are serialized on the measurement
// surface.
type Paginator struct {
	options Options
	log     *zap.Logger
	acquire func(context.Context, layout.Config) (*layout.Surface, error)
}

// New creates a new paginator with default options modified by opts
func New(opts ...Option) *Paginator {
	options := DefaultOptions()
	for _, o := range opts {
		o(&options)
	}
	return NewWithOptions(options)
}

// NewWithOptions creates a new paginator with the specified options
func NewWithOptions(options Options) *Paginator {
	log := options.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Paginator{options: options, log: log, acquire: layout.Acquire}
}

// Options returns the paginator options
func (p *Paginator) Options() Options {
	return p.options
}

// WithOption returns a new paginator with the specified option set
func (p *Paginator) WithOption(option Option) *Paginator {
	options := p.options
	option(&options)
	n := NewWithOptions(options)
	n.acquire = p.acquire
	return n
}

// composed is a finished run handed to an export while the measurement
// surface is still held. surface is nil for degraded results.
type composed struct {
	result     *Result
	doc        *pagination.Document
	surface    *layout.Surface
	geometry   pagination.Geometry
	stylesheet string
	log        *zap.Logger
}

// Paginate splits markup into pages. When no measurement surface can be
// provided the result is degraded rather than an error. A cancelled context
// returns its error and never a partial result.
func (p *Paginator) Paginate(ctx context.Context, markup string) (*Result, error) {
	return p.execute(ctx, markup, nil)
}

// RenderPDF paginates markup and writes the pages as PDF
func (p *Paginator) RenderPDF(ctx context.Context, markup string, w io.Writer) error {
	_, err := p.execute(ctx, markup, func(c *composed) error {
		if c.surface == nil {
			return fmt.Errorf("unable to render PDF: %w", layout.ErrUnavailable)
		}
		r := pdf.NewRenderer(c.surface, c.log)
		r.RenderBackgrounds = p.options.RenderBackgrounds
		r.RenderBorders = p.options.RenderBorders
		return r.Render(c.doc, c.geometry, w, pdf.RenderOptions{
			Title:    p.options.Title,
			Author:   p.options.Author,
			Subject:  p.options.Subject,
			Keywords: p.options.Keywords,
			Creator:  "docpager",
			Producer: "docpager",
		})
	})
	return err
}

// RenderHTML paginates markup and writes the pages as one HTML document.
// Degraded results render as a single page.
func (p *Paginator) RenderHTML(ctx context.Context, markup string, w io.Writer) error {
	_, err := p.execute(ctx, markup, func(c *composed) error {
		return htmlpage.NewRenderer(c.log).Render(c.doc, c.geometry, w, htmlpage.Options{
			Title:      p.options.Title,
			Stylesheet: c.stylesheet,
		})
	})
	return err
}

func (p *Paginator) execute(ctx context.Context, markup string, export func(*composed) error) (result *Result, err error) {
	id := uuid.NewString()
	log := p.log.With(zap.String("run", id))

	g := p.options.Geometry()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	segments, err := content.Parse(markup)
	if err != nil {
		return nil, err
	}

	loader := res.NewLoader(p.options.BaseURL)
	for _, path := range p.options.ResourcePaths {
		loader.AddSearchPath(path)
	}
	styles := style.NewEngine()
	if p.options.UserAgentStylesheet != "" {
		styles.AddUserAgentStylesheet(p.options.UserAgentStylesheet)
	}
	sheets := collectDocumentStylesheets(ctx, markup, loader, log)
	for _, css := range sheets {
		styles.AddStylesheet(css)
	}

	gate := res.NewGate(loader, log)
	gate.SetWorkers(p.options.Workers)
	assets, err := gate.Wait(ctx, p.gateNodes(segments), p.options.Fonts)
	if err != nil {
		return nil, err
	}

	c := &composed{geometry: g, stylesheet: strings.Join(sheets, "\n"), log: log}
	surface, err := p.acquire(ctx, layout.Config{Styles: styles, Assets: assets, Logger: log})
	switch {
	case errors.Is(err, layout.ErrUnavailable):
		log.Warn("Measurement surface unavailable, returning content as a single page", zap.Error(err))
		if c.doc, err = p.degraded(g, segments); err != nil {
			return nil, err
		}
		c.result = &Result{Status: StatusDegraded, RunID: id, Pages: c.doc.Pages, Original: markup, Budget: c.doc.Budget}
	case err != nil:
		return nil, err
	default:
		defer func() {
			if err = multierr.Append(err, surface.Close()); err != nil {
				result = nil
			}
		}()
		engine := pagination.NewEngine(pagination.Options{
			Geometry: g,
			Settings: p.options.Settings(),
			Header:   p.options.Header,
			Footer:   p.options.Footer,
		}, log)
		if c.doc, err = engine.Paginate(ctx, segments, surface); err != nil {
			return nil, err
		}
		c.surface = surface
		c.result = &Result{Status: StatusPaginated, RunID: id, Pages: c.doc.Pages, Budget: c.doc.Budget}
	}

	if export != nil {
		if err := export(c); err != nil {
			return nil, err
		}
	}
	log.Debug("Run finished", zap.Stringer("status", c.result.Status), zap.Int("pages", len(c.result.Pages)))
	return c.result, nil
}

// gateNodes lists the content and band nodes whose images must be ready
func (p *Paginator) gateNodes(segments []content.Segment) []*xhtml.Node {
	var nodes []*xhtml.Node
	for _, s := range segments {
		for _, b := range s.Blocks {
			nodes = append(nodes, b.Node)
		}
	}
	for _, hf := range []*HeaderFooter{p.options.Header, p.options.Footer} {
		if hf == nil || strings.TrimSpace(hf.Content) == "" {
			continue
		}
		if ns, err := html.NewParser().ParseString(hf.Content); err == nil {
			nodes = append(nodes, ns...)
		}
	}
	return nodes
}

// degraded puts all content on one page with bands resolved for a single
// page document
func (p *Paginator) degraded(g pagination.Geometry, segments []content.Segment) (*pagination.Document, error) {
	page := Page{Number: 1}
	for _, s := range segments {
		page.Blocks = append(page.Blocks, s.Blocks...)
	}
	policy, err := pagination.NewPolicy(p.options.Header, p.options.Footer)
	if err != nil {
		return nil, err
	}
	pages := []Page{page}
	policy.Apply(pages)
	budget, err := pagination.ComputeBudget(g, p.options.Header, p.options.Footer, p.options.Settings(), nil)
	if err != nil {
		return nil, err
	}
	return &pagination.Document{Pages: pages, Budget: budget}, nil
}

// collectDocumentStylesheets walks the markup in document order and returns
// the author stylesheets (external <link rel="stylesheet"> and inline
// <style> blocks) preserving source order. Stylesheets that cannot be
// loaded are skipped.
func collectDocumentStylesheets(ctx context.Context, markup string, loader *res.Loader, log *zap.Logger) []string {
	doc, err := xhtml.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	var styles []string
	html.Walk(doc, func(cur *xhtml.Node) bool {
		switch {
		case html.IsElement(cur, "link"):
			rel, _ := html.Attr(cur, "rel")
			href, _ := html.Attr(cur, "href")
			if href == "" || !strings.Contains(strings.ToLower(rel), "stylesheet") {
				return false
			}
			r, err := loader.LoadContext(ctx, href)
			if err != nil {
				log.Warn("Unable to load stylesheet", zap.String("href", href), zap.Error(err))
				return false
			}
			styles = append(styles, string(r.Data))
			return false
		case html.IsElement(cur, "style"):
			if css := strings.TrimSpace(html.Text(cur)); css != "" {
				styles = append(styles, css)
			}
			return false
		}
		return true
	})
	return styles
}
