package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
)

// Frequency selects the pages a band is shown on
type Frequency string

const (
	FrequencyAll   Frequency = "all"
	FrequencyFirst Frequency = "first"
	FrequencyEven  Frequency = "even"
	FrequencyOdd   Frequency = "odd"
)

// Page-relative tokens resolved in band content
const (
	TokenPage  = "{page}"
	TokenTotal = "{total}"
)

// ParseFrequency accepts the frequency names case-insensitively; an empty
// string means all pages.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FrequencyAll, nil
	case FrequencyAll, FrequencyFirst, FrequencyEven, FrequencyOdd:
		return f, nil
	default:
		return "", fmt.Errorf("unknown band frequency %q", s)
	}
}

// Shows reports whether a band with this frequency appears on the 1-based page
func (f Frequency) Shows(page int) bool {
	switch f {
	case FrequencyFirst:
		return page == 1
	case FrequencyEven:
		return page%2 == 0
	case FrequencyOdd:
		return page%2 == 1
	default:
		return true
	}
}

// HeaderFooter configures a header or footer band
type HeaderFooter struct {
	// Content is band markup; {page} and {total} may appear in text and
	// attribute values
	Content   string
	Height    float64
	Frequency Frequency
}

// Band is a header or footer resolved for one page
type Band struct {
	Shown bool
	Nodes []*html.Node
}

// Policy decides band visibility and resolves tokens once the page count is
// known. It never changes page boundaries.
type Policy struct {
	header, footer []*html.Node
	hcfg, fcfg     *HeaderFooter
}

// NewPolicy parses the band templates and normalizes their frequencies. An
// unknown frequency is an error. Either band may be nil.
func NewPolicy(header, footer *HeaderFooter) (*Policy, error) {
	p := &Policy{}
	var err error
	if p.hcfg, err = normalizeBand(header); err != nil {
		return nil, fmt.Errorf("bad header: %w", err)
	}
	if p.fcfg, err = normalizeBand(footer); err != nil {
		return nil, fmt.Errorf("bad footer: %w", err)
	}
	if p.header, err = parseBand(header); err != nil {
		return nil, fmt.Errorf("unable to parse header: %w", err)
	}
	if p.footer, err = parseBand(footer); err != nil {
		return nil, fmt.Errorf("unable to parse footer: %w", err)
	}
	return p, nil
}

// normalizeBand returns a copy of hf with a canonical frequency
func normalizeBand(hf *HeaderFooter) (*HeaderFooter, error) {
	if hf == nil {
		return nil, nil
	}
	f, err := ParseFrequency(string(hf.Frequency))
	if err != nil {
		return nil, err
	}
	n := *hf
	n.Frequency = f
	return &n, nil
}

func parseBand(hf *HeaderFooter) ([]*html.Node, error) {
	if hf == nil || strings.TrimSpace(hf.Content) == "" {
		return nil, nil
	}
	return htmlparser.NewParser().ParseString(hf.Content)
}

// Apply sets Total and the resolved bands on every page
func (p *Policy) Apply(pages []Page) {
	total := len(pages)
	for i := range pages {
		pages[i].Total = total
		pages[i].Header = p.band(p.hcfg, p.header, pages[i].Number, total)
		pages[i].Footer = p.band(p.fcfg, p.footer, pages[i].Number, total)
	}
}

func (p *Policy) band(cfg *HeaderFooter, tmpl []*html.Node, page, total int) Band {
	if cfg == nil || len(tmpl) == 0 || !cfg.Frequency.Shows(page) {
		return Band{}
	}
	return Band{Shown: true, Nodes: Substitute(tmpl, page, total)}
}

// Substitute returns clones of nodes with {page} and {total} replaced in
// text nodes and attribute values. The input nodes are not modified.
func Substitute(nodes []*html.Node, page, total int) []*html.Node {
	r := strings.NewReplacer(TokenPage, strconv.Itoa(page), TokenTotal, strconv.Itoa(total))
	out := make([]*html.Node, 0, len(nodes))
	for _, n := range nodes {
		c := htmlparser.Clone(n)
		htmlparser.Walk(c, func(n *html.Node) bool {
			switch n.Type {
			case html.TextNode:
				n.Data = r.Replace(n.Data)
			case html.ElementNode:
				for i := range n.Attr {
					n.Attr[i].Val = r.Replace(n.Attr[i].Val)
				}
			}
			return true
		})
		out = append(out, c)
	}
	return out
}

// Text returns the band's visible text
func (b Band) Text() string {
	var sb strings.Builder
	for _, n := range b.Nodes {
		sb.WriteString(htmlparser.Text(n))
	}
	return strings.TrimSpace(sb.String())
}
