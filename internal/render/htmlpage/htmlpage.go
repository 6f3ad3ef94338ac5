// Package htmlpage renders composed pages as a single HTML document for
// preview. Every page becomes a fixed size section with its bands and
// content in the areas the budget reserved for them.
package htmlpage

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/pagination"
)

// Options contains options for rendering
type Options struct {
	Title string
	Lang  string
	// Stylesheet is added after the page rules, typically the document's own
	// styles
	Stylesheet string
}

// Renderer writes paged HTML
type Renderer struct {
	log *zap.Logger
}

// NewRenderer creates a new paged HTML renderer
func NewRenderer(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{log: log}
}

// Render writes doc to w. Page content is cloned; doc is not modified.
func (r *Renderer) Render(doc *pagination.Document, g pagination.Geometry, w io.Writer, options Options) error {
	lang := options.Lang
	if lang == "" {
		lang = "en"
	}

	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htmlNode := element(atom.Html, "lang", lang)
	root.AppendChild(htmlNode)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, "charset", "utf-8"))
	title := element(atom.Title)
	title.AppendChild(&html.Node{Type: html.TextNode, Data: options.Title})
	head.AppendChild(title)
	css := element(atom.Style)
	css.AppendChild(&html.Node{Type: html.TextNode, Data: pageRules(g, doc.Budget) + options.Stylesheet})
	head.AppendChild(css)
	htmlNode.AppendChild(head)

	body := element(atom.Body)
	for _, p := range doc.Pages {
		body.AppendChild(pageSection(p, doc.Budget))
	}
	htmlNode.AppendChild(body)

	if err := html.Render(w, root); err != nil {
		return fmt.Errorf("failed to write HTML: %w", err)
	}
	r.log.Debug("HTML rendered", zap.Int("pages", len(doc.Pages)))
	return nil
}

// pageSection builds one page. A header area is kept on pages that do not show
// the header so content starts at the same offset everywhere.
func pageSection(page pagination.Page, budget pagination.Budget) *html.Node {
	section := element(atom.Section,
		"class", "page",
		"data-page", strconv.Itoa(page.Number),
		"data-total", strconv.Itoa(page.Total),
	)
	if page.Overflow {
		htmlparser.SetAttr(section, "data-overflow", "true")
	}

	switch {
	case page.Header.Shown:
		section.AppendChild(band(atom.Header, "page-header", page.Header.Nodes))
	case budget.Header > 0:
		section.AppendChild(band(atom.Header, "page-header", nil))
	}

	main := element(atom.Main, "class", "page-content")
	for _, b := range page.Blocks {
		n := htmlparser.Clone(b.Node)
		if b.Fragment() && n.Type == html.ElementNode {
			htmlparser.SetAttr(n, "data-fragment", fmt.Sprintf("%d/%d", b.Part+1, b.Parts))
		}
		main.AppendChild(n)
	}
	section.AppendChild(main)

	if page.Footer.Shown {
		section.AppendChild(band(atom.Footer, "page-footer", page.Footer.Nodes))
	}
	return section
}

func band(a atom.Atom, class string, nodes []*html.Node) *html.Node {
	n := element(a, "class", class)
	for _, c := range nodes {
		n.AppendChild(htmlparser.Clone(c))
	}
	return n
}

// element creates an element with attributes given as key, value pairs
func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// pageRules sizes the page sections and their areas in px
func pageRules(g pagination.Geometry, b pagination.Budget) string {
	bands := 0
	if b.Header > 0 {
		bands++
	}
	if b.Footer > 0 {
		bands++
	}
	gap := 0.0
	if bands > 0 {
		gap = b.Gap / float64(bands)
	}
	m := g.Margins

	var sb strings.Builder
	sb.WriteString("body{margin:0;background:#e8e8e8}\n")
	fmt.Fprintf(&sb, ".page{box-sizing:border-box;position:relative;overflow:hidden;background:#fff;"+
		"width:%spx;height:%spx;padding:%spx %spx %spx %spx;margin:16px auto;break-after:page}\n",
		px(g.Width), px(g.Height), px(m.Top), px(m.Right), px(m.Bottom), px(m.Left))
	fmt.Fprintf(&sb, ".page-header{height:%spx;margin-bottom:%spx;overflow:hidden}\n", px(b.Header), px(gap))
	fmt.Fprintf(&sb, ".page-content{min-height:%spx}\n", px(b.Available))
	fmt.Fprintf(&sb, ".page-footer{position:absolute;left:%spx;right:%spx;bottom:%spx;height:%spx;overflow:hidden}\n",
		px(m.Left), px(m.Right), px(m.Bottom), px(b.Footer))
	sb.WriteString(".page[data-overflow] .page-content{outline:1px dashed #d33}\n")
	sb.WriteString("@media print{body{background:none}.page{margin:0}}\n")
	return sb.String()
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
