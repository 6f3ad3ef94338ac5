package layout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/res"
	"github.com/gompdf/docpager/internal/style"
)

// ErrUnavailable reports that no measurement surface can be provided
var ErrUnavailable = errors.New("measurement surface unavailable")

// slot guards the single scratch surface; at most one Surface is live
var slot = make(chan struct{}, 1)

// Config configures a measurement surface
type Config struct {
	Styles *style.Engine
	Assets *res.Assets
	Logger *zap.Logger
}

// Font is a resolved PDF font: a core font (Helvetica, Times, Courier) or a
// UTF-8 font registered from the gate's font files
type Font struct {
	Family string
	Style  string
	UTF8   bool
}

// Surface is the scratch measurement surface. It lays content out headlessly
// using fpdf font metrics. A Surface is not safe for concurrent use.
type Surface struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	styles *style.Engine
	root   style.ComputedStyle
	assets *res.Assets
	log    *zap.Logger
	// registered UTF-8 families: lowercase family -> styles
	fonts    map[string]map[string]bool
	cache    map[cacheKey]metrics
	colCache map[columnsKey][]float64

	closed bool
}

// Acquire waits for the scratch surface and prepares it for one run. The
// returned surface must be released with Close.
func Acquire(ctx context.Context, cfg Config) (*Surface, error) {
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s, err := newSurface(cfg)
	if err != nil {
		<-slot
		return nil, err
	}
	return s, nil
}

func newSurface(cfg Config) (*Surface, error) {
	s := &Surface{
		styles:   cfg.Styles,
		assets:   cfg.Assets,
		log:      cfg.Logger,
		fonts:    make(map[string]map[string]bool),
		cache:    make(map[cacheKey]metrics),
		colCache: make(map[columnsKey][]float64),
	}
	if s.styles == nil {
		s.styles = style.NewEngine()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}

	s.root = s.styles.Compute(&html.Node{Type: html.ElementNode, Data: "body"}, nil)

	s.pdf = fpdf.New("P", "pt", "A4", "")
	s.pdf.SetFont("Helvetica", "", 12)
	if err := s.pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.tr = s.pdf.UnicodeTranslatorFromDescriptor("")
	if cfg.Assets != nil {
		for _, f := range cfg.Assets.Fonts {
			s.registerFont(f)
		}
	}
	return s, nil
}

func (s *Surface) registerFont(f *res.Font) {
	if f.Err != nil || len(f.Data) == 0 {
		return
	}
	family := strings.ToLower(strings.TrimSpace(f.Family))
	st := fontStyle(f.Style)
	s.pdf.AddUTF8FontFromBytes(family, st, f.Data)
	if err := s.pdf.Error(); err != nil {
		s.log.Warn("Unable to register font, using core fonts",
			zap.String("family", f.Family), zap.String("src", f.Src), zap.Error(err))
		s.pdf.ClearError()
		return
	}
	if s.fonts[family] == nil {
		s.fonts[family] = make(map[string]bool)
	}
	s.fonts[family][st] = true
	s.log.Debug("Font registered", zap.String("family", family), zap.String("style", st))
}

// fontStyle normalizes "bold italic", "BI", "ib" and friends to fpdf styles
func fontStyle(v string) string {
	v = strings.ToLower(v)
	var out string
	if strings.Contains(v, "b") {
		out += "B"
	}
	if strings.Contains(v, "i") {
		out += "I"
	}
	return out
}

// Close releases the scratch surface. It is safe to call more than once.
func (s *Surface) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true
	s.cache, s.colCache = nil, nil
	err := s.pdf.Error()
	s.pdf = nil
	<-slot
	if err != nil {
		return fmt.Errorf("measurement surface: %w", err)
	}
	return nil
}

func (s *Surface) check() error {
	if s == nil || s.closed {
		return ErrUnavailable
	}
	if err := s.pdf.Error(); err != nil {
		return fmt.Errorf("measurement failed: %w", err)
	}
	return nil
}

// Styles returns the style engine used by the surface
func (s *Surface) Styles() *style.Engine {
	return s.styles
}

// Assets returns the resolved resources the surface measures with
func (s *Surface) Assets() *res.Assets {
	return s.assets
}

// ResolveFont maps a computed style to a registered UTF-8 font or a core font
func (s *Surface) ResolveFont(st style.ComputedStyle) Font {
	want := ""
	if w := st.Get("font-weight"); w == "bold" || w == "bolder" || w == "600" || w == "700" || w == "800" || w == "900" {
		want += "B"
	}
	if fs := st.Get("font-style"); fs == "italic" || fs == "oblique" {
		want += "I"
	}

	for _, fam := range strings.Split(st.Get("font-family"), ",") {
		fam = strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(fam), `'"`)))
		if styles, ok := s.fonts[fam]; ok {
			for _, candidate := range []string{want, strings.TrimSuffix(want, "I"), strings.TrimPrefix(want, "B"), ""} {
				if styles[candidate] {
					return Font{Family: fam, Style: candidate, UTF8: true}
				}
			}
		}
		switch fam {
		case "arial", "helvetica", "sans-serif", "system-ui", "verdana":
			return Font{Family: "Helvetica", Style: want}
		case "times", "times new roman", "serif", "georgia":
			return Font{Family: "Times", Style: want}
		case "courier", "courier new", "monospace":
			return Font{Family: "Courier", Style: want}
		}
	}
	return Font{Family: "Helvetica", Style: want}
}

// TextWidth returns the advance width of text set in f at size px
func (s *Surface) TextWidth(text string, f Font, size float64) float64 {
	if text == "" || size <= 0 {
		return 0
	}
	s.pdf.SetFont(f.Family, f.Style, size)
	if !f.UTF8 {
		text = s.tr(text)
	}
	return s.pdf.GetStringWidth(text)
}
