package style

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Property represents a computed style property
type Property struct {
	Name   string
	Value  string
	Source Source
}

// Source represents the source of a style property
type Source int

const (
	SourceUserAgent Source = iota
	SourceInherited
	SourceAttribute
	SourceAuthor
	SourceInline
)

// ComputedStyle represents the computed style for an element
type ComputedStyle map[string]Property

// Get returns the value of the named property or "" when unset
func (s ComputedStyle) Get(name string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(s[name].Value)
}

// FontSize returns the resolved font size in px
func (s ComputedStyle) FontSize() float64 {
	return Length(s.Get("font-size"), 0, DefaultFontSize, DefaultFontSize)
}

// LineHeight returns the resolved line height in px
func (s ComputedStyle) LineHeight() float64 {
	fs := s.FontSize()
	v := s.Get("line-height")
	if v == "" || v == "normal" {
		return fs * DefaultLineHeight
	}
	if f, ok := unitless(v); ok {
		return fs * f
	}
	return Length(v, fs, fs, fs*DefaultLineHeight)
}

// Length resolves a length property against the container size
func (s ComputedStyle) Length(name string, containerSize float64) float64 {
	return Length(s.Get(name), containerSize, s.FontSize(), 0)
}

// inherited lists properties that flow from parent to child
var inherited = map[string]bool{
	"color":           true,
	"font-family":     true,
	"font-size":       true,
	"font-style":      true,
	"font-weight":     true,
	"line-height":     true,
	"list-style-type": true,
	"text-align":      true,
	"white-space":     true,
}

// Engine handles the cascade: user agent and author rules ordered by
// specificity, presentational attributes, inline styles and inheritance
type Engine struct {
	rules []styleRule
}

type styleRule struct {
	selector     selector
	declarations []Declaration
	origin       Source
	order        int
}

// NewEngine creates a style engine seeded with the default user agent stylesheet
func NewEngine() *Engine {
	e := &Engine{}
	e.AddUserAgentStylesheet(defaultUserAgentStylesheet)
	return e
}

// AddUserAgentStylesheet adds rules that rank below presentational
// attributes and author rules
func (e *Engine) AddUserAgentStylesheet(css string) {
	e.add(css, SourceUserAgent)
}

// AddStylesheet adds author rules. Later rules override earlier rules of
// the same specificity. Selectors other than tag, class, id, compound,
// descendant and child selectors never match.
func (e *Engine) AddStylesheet(css string) {
	e.add(css, SourceAuthor)
}

func (e *Engine) add(css string, origin Source) {
	for _, rule := range ParseStylesheet(css) {
		for _, text := range rule.Selectors {
			sel, ok := parseSelector(text)
			if !ok {
				continue
			}
			e.rules = append(e.rules, styleRule{
				selector:     sel,
				declarations: rule.Declarations,
				origin:       origin,
				order:        len(e.rules),
			})
		}
	}
}

// matching returns rules of origin matching n, least specific first
func (e *Engine) matching(chain []*html.Node, origin Source) []styleRule {
	var out []styleRule
	for _, r := range e.rules {
		if r.origin == origin && r.selector.matches(chain) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareSpecificity(out[i].selector.specificity, out[j].selector.specificity); c != 0 {
			return c < 0
		}
		return out[i].order < out[j].order
	})
	return out
}

// Compute computes the style of element n given the style of its parent
func (e *Engine) Compute(n *html.Node, parent ComputedStyle) ComputedStyle {
	computed := make(ComputedStyle)
	for name, prop := range parent {
		if inherited[name] {
			computed[name] = Property{Name: name, Value: prop.Value, Source: SourceInherited}
		}
	}
	if n == nil || n.Type != html.ElementNode {
		return computed
	}

	parentSize := parent.FontSize()
	apply := func(decls []Declaration, source Source, important bool) {
		for _, d := range decls {
			if d.Important != important {
				continue
			}
			for _, exp := range expand(d) {
				if exp.Property == "font-size" {
					exp.Value = resolveFontSize(exp.Value, parentSize)
				}
				computed[exp.Property] = Property{Name: exp.Property, Value: exp.Value, Source: source}
			}
		}
	}

	chain := ancestry(n)
	ua, author := e.matching(chain, SourceUserAgent), e.matching(chain, SourceAuthor)
	var inline []Declaration
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "style") {
			inline = append(inline, ParseDeclarations(a.Val)...)
		}
	}

	for _, important := range []bool{false, true} {
		for _, r := range ua {
			apply(r.declarations, SourceUserAgent, important)
		}
		if !important {
			apply(presentationalHints(n), SourceAttribute, false)
		}
		for _, r := range author {
			apply(r.declarations, SourceAuthor, important)
		}
		apply(inline, SourceInline, important)
	}
	if _, ok := computed["font-size"]; !ok {
		computed["font-size"] = Property{Name: "font-size", Value: formatPx(DefaultFontSize), Source: SourceUserAgent}
	}
	return computed
}

// presentationalHints maps legacy attributes to declarations
func presentationalHints(n *html.Node) []Declaration {
	var out []Declaration
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "width", "height":
			v := strings.TrimSpace(a.Val)
			if v == "" {
				continue
			}
			if _, ok := unitless(v); ok {
				v += "px"
			}
			out = append(out, Declaration{Property: strings.ToLower(a.Key), Value: v})
		case "align":
			out = append(out, Declaration{Property: "text-align", Value: strings.ToLower(a.Val)})
		case "border":
			if _, ok := unitless(a.Val); ok && strings.EqualFold(n.Data, "table") {
				out = append(out, Declaration{Property: "border-width", Value: a.Val + "px"})
			}
		}
	}
	return out
}

// resolveFontSize converts relative font sizes to px against the parent size
func resolveFontSize(v string, parentSize float64) string {
	if parentSize <= 0 {
		parentSize = DefaultFontSize
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "smaller":
		return formatPx(parentSize / 1.2)
	case "larger":
		return formatPx(parentSize * 1.2)
	case "small":
		return formatPx(13)
	case "medium":
		return formatPx(16)
	case "large":
		return formatPx(18)
	case "x-large":
		return formatPx(24)
	}
	return formatPx(Length(v, parentSize, parentSize, parentSize))
}

// Default user agent stylesheet, restricted to what affects measurement
const defaultUserAgentStylesheet = `
body {
  font-family: Helvetica, Arial, sans-serif;
  font-size: 16px;
  line-height: 1.5;
}
h1 { font-size: 2em; margin: 0.67em 0; font-weight: bold; }
h2 { font-size: 1.5em; margin: 0.83em 0; font-weight: bold; }
h3 { font-size: 1.17em; margin: 1em 0; font-weight: bold; }
h4 { font-size: 1em; margin: 1.33em 0; font-weight: bold; }
h5 { font-size: 0.83em; margin: 1.67em 0; font-weight: bold; }
h6 { font-size: 0.67em; margin: 2.33em 0; font-weight: bold; }
p { margin: 1em 0; }
b, strong, th { font-weight: bold; }
i, em { font-style: italic; }
table { border-collapse: collapse; margin: 0 0 1em 0; }
th, td { padding: 4px 8px; border-width: 1px; }
ul, ol { margin: 1em 0; padding-left: 40px; }
ul { list-style-type: disc; }
ol { list-style-type: decimal; }
blockquote { margin: 1em 40px; }
pre { font-family: Courier, monospace; white-space: pre; margin: 1em 0; }
code { font-family: Courier, monospace; }
hr { margin: 0.5em 0; border-width: 1px; }
figure { margin: 1em 40px; }
`
