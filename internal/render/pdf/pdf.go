package pdf

import (
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/layout"
	"github.com/gompdf/docpager/internal/pagination"
)

// pxToPt converts CSS px (96 per inch) to PDF points (72 per inch)
const pxToPt = 0.75

// Renderer draws composed pages into a PDF document. Boxes are laid out on
// the measurement surface, so pages render exactly as they were measured.
type Renderer struct {
	surface *layout.Surface
	log     *zap.Logger

	// RenderBackgrounds controls whether box backgrounds are painted
	RenderBackgrounds bool
	// RenderBorders controls whether box borders are painted
	RenderBorders bool

	pdf    *fpdf.Fpdf
	tr     func(string) string
	images map[string]bool
}

// RenderOptions contains options for rendering
type RenderOptions struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// NewRenderer creates a new PDF renderer on top of a measurement surface
func NewRenderer(surface *layout.Surface, log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		surface:           surface,
		log:               log,
		RenderBackgrounds: true,
		RenderBorders:     true,
	}
}

// Render writes doc as a PDF to w. Every page has the document geometry;
// shown bands are drawn into the areas reserved for them by the budget.
func (r *Renderer) Render(doc *pagination.Document, g pagination.Geometry, w io.Writer, options RenderOptions) error {
	// the size is given as is; a landscape orientation would swap it again
	r.pdf = fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: g.Width * pxToPt, Ht: g.Height * pxToPt},
	})
	r.tr = r.pdf.UnicodeTranslatorFromDescriptor("")
	r.images = make(map[string]bool)
	defer func() { r.pdf = nil }()

	r.pdf.SetMargins(0, 0, 0)
	r.pdf.SetAutoPageBreak(false, 0)
	r.pdf.SetTitle(options.Title, true)
	r.pdf.SetAuthor(options.Author, true)
	r.pdf.SetSubject(options.Subject, true)
	r.pdf.SetKeywords(options.Keywords, true)
	r.pdf.SetCreator(options.Creator, true)
	r.pdf.SetProducer(options.Producer, true)
	r.registerFonts()

	width := g.ContentWidth()
	bands := 0
	if doc.Budget.Header > 0 {
		bands++
	}
	if doc.Budget.Footer > 0 {
		bands++
	}
	gap := 0.0
	if bands > 0 {
		gap = doc.Budget.Gap / float64(bands)
	}
	contentTop := g.Margins.Top
	if doc.Budget.Header > 0 {
		contentTop += doc.Budget.Header + gap
	}
	footerTop := g.Height - g.Margins.Bottom - doc.Budget.Footer

	for _, page := range doc.Pages {
		r.pdf.AddPage()
		if page.Header.Shown {
			if err := r.layer(page.Header.Nodes, g.Margins.Left, g.Margins.Top, width); err != nil {
				return fmt.Errorf("page %d header: %w", page.Number, err)
			}
		}
		nodes := make([]*html.Node, 0, len(page.Blocks))
		for _, b := range page.Blocks {
			nodes = append(nodes, b.Node)
		}
		if err := r.layer(nodes, g.Margins.Left, contentTop, width); err != nil {
			return fmt.Errorf("page %d: %w", page.Number, err)
		}
		if page.Footer.Shown {
			if err := r.layer(page.Footer.Nodes, g.Margins.Left, footerTop, width); err != nil {
				return fmt.Errorf("page %d footer: %w", page.Number, err)
			}
		}
		if page.Overflow {
			r.log.Debug("Page content overflows its area", zap.Int("page", page.Number), zap.Float64("height", page.Height))
		}
	}

	if err := r.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	r.log.Debug("PDF rendered", zap.Int("pages", len(doc.Pages)), zap.Int("images", len(r.images)))
	return nil
}

// layer lays nodes out at the given width and draws them with their top left
// corner at (x, y)
func (r *Renderer) layer(nodes []*html.Node, x, y, width float64) error {
	if len(nodes) == 0 {
		return nil
	}
	root, err := r.surface.Layout(nodes, width)
	if err != nil {
		return err
	}
	root.SetPosition(x, y)
	r.renderBox(root)
	return r.pdf.Error()
}

// registerFonts makes the UTF-8 fonts known to the surface available to the
// output document under the same names
func (r *Renderer) registerFonts() {
	r.pdf.SetFont("Helvetica", "", 12)
	assets := r.surface.Assets()
	if assets == nil {
		return
	}
	for _, f := range assets.Fonts {
		if f.Err != nil || len(f.Data) == 0 {
			continue
		}
		family := strings.ToLower(strings.TrimSpace(f.Family))
		r.pdf.AddUTF8FontFromBytes(family, fontStyle(f.Style), f.Data)
		if err := r.pdf.Error(); err != nil {
			// the surface skipped this font as well
			r.pdf.ClearError()
		}
	}
}

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

func pt(v float64) float64 {
	return v * pxToPt
}
