package style

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"
)

func TestParseDeclarations(t *testing.T) {
	got := ParseDeclarations("margin: 10px 20px; font-weight:bold; color: red !important")
	want := []Declaration{
		{Property: "margin", Value: "10px 20px"},
		{Property: "font-weight", Value: "bold"},
		{Property: "color", Value: "red", Important: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseDeclarations() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStylesheetSkipsAtRules(t *testing.T) {
	rules := ParseStylesheet(`@page { margin: 1in; } h1, h2 { margin: 0; } p { color: blue }`)
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if diff := cmp.Diff([]string{"h1", "h2"}, rules[0].Selectors); diff != "" {
		t.Errorf("selectors mismatch (-want +got):\n%s", diff)
	}
}

func TestLength(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"10px", 10},
		{"12pt", 16},
		{"2em", 40},
		{"1rem", 16},
		{"50%", 100},
		{"1in", 96},
		{"25.4mm", 96},
		{"7", 7},
		{"auto", -1},
		{"bogus", -1},
	}
	for _, tt := range tests {
		got := Length(tt.value, 200, 20, -1)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Length(%q) = %g, want %g", tt.value, got, tt.want)
		}
	}
}

func TestComputeCascadeAndInheritance(t *testing.T) {
	e := NewEngine()
	body := e.Compute(&html.Node{Type: html.ElementNode, Data: "body"}, nil)
	h1 := e.Compute(&html.Node{Type: html.ElementNode, Data: "h1"}, body)

	if got := h1.FontSize(); got != 32 {
		t.Errorf("h1 font size = %g, want 32", got)
	}
	if got := h1.Length("margin-top", 0); math.Abs(got-0.67*32) > 1e-9 {
		t.Errorf("h1 margin-top = %g", got)
	}
	if got := h1.Get("font-family"); got == "" {
		t.Errorf("font-family was not inherited")
	}

	p := e.Compute(&html.Node{Type: html.ElementNode, Data: "p", Attr: []html.Attribute{
		{Key: "style", Val: "margin: 4px 0 8px; font-size: 10px; border: 2px solid #000"},
	}}, body)
	if got := p.Length("margin-top", 0); got != 4 {
		t.Errorf("inline margin-top = %g, want 4", got)
	}
	if got := p.Length("margin-bottom", 0); got != 8 {
		t.Errorf("inline margin-bottom = %g, want 8", got)
	}
	if got := p.Length("border-left-width", 0); got != 2 {
		t.Errorf("border-left-width = %g, want 2", got)
	}
	if got := p.LineHeight(); got != 15 {
		t.Errorf("line height = %g, want 15 (inherited factor 1.5)", got)
	}
	if src := p["margin-top"].Source; src != SourceInline {
		t.Errorf("margin-top source = %v, want inline", src)
	}
}

func TestPresentationalWidth(t *testing.T) {
	e := NewEngine()
	img := e.Compute(&html.Node{Type: html.ElementNode, Data: "img", Attr: []html.Attribute{
		{Key: "width", Val: "120"}, {Key: "height", Val: "80"},
	}}, nil)
	if got := img.Length("height", 0); got != 80 {
		t.Errorf("height = %g, want 80", got)
	}
}

func TestSelectorMatching(t *testing.T) {
	doc, err := html.Parse(strings.NewReader(`<div id="main" class="report"><section><p class="note wide">x</p></section><p>y</p></div>`))
	if err != nil {
		t.Fatal(err)
	}
	var ps []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			ps = append(ps, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	note, plain := ps[0], ps[1]

	tests := []struct {
		selector  string
		note      bool
		plain     bool
		supported bool
	}{
		{"p", true, true, true},
		{"*", true, true, true},
		{".note", true, false, true},
		{"p.note.wide", true, false, true},
		{"p.note.narrow", false, false, true},
		{"#main p", true, true, true},
		{"div > p", false, true, true},
		{"div>p", false, true, true},
		{"div.report section > p.note", true, false, true},
		{"body p", true, true, true},
		{"html body div p", true, true, true},
		{"section p", true, false, true},
		{"P.note", true, false, true},
		{".Note", false, false, true},
		{"p:first-child", false, false, false},
		{"p + p", false, false, false},
		{"a[href]", false, false, false},
		{"> p", false, false, false},
		{"div >", false, false, false},
	}
	for _, tt := range tests {
		sel, ok := parseSelector(tt.selector)
		if ok != tt.supported {
			t.Errorf("parseSelector(%q) supported = %v, want %v", tt.selector, ok, tt.supported)
			continue
		}
		if !ok {
			continue
		}
		if got := sel.matches(ancestry(note)); got != tt.note {
			t.Errorf("%q matches p.note = %v, want %v", tt.selector, got, tt.note)
		}
		if got := sel.matches(ancestry(plain)); got != tt.plain {
			t.Errorf("%q matches plain p = %v, want %v", tt.selector, got, tt.plain)
		}
	}
}

func TestDetachedNodesMatchBodySelectors(t *testing.T) {
	p := &html.Node{Type: html.ElementNode, Data: "p", Attr: []html.Attribute{{Key: "class", Val: "tall"}}}
	e := NewEngine()
	e.AddStylesheet(`body .tall { height: 600px }`)
	if got := e.Compute(p, nil).Length("height", 0); got != 600 {
		t.Errorf("height = %g, want 600", got)
	}
}

func TestSpecificityOrder(t *testing.T) {
	e := NewEngine()
	e.AddStylesheet(`
		#intro { margin-top: 30px }
		p.lead { margin-top: 20px; color: blue !important }
		p { margin-top: 10px; color: red }
		.lead { margin-bottom: 5px }
		.lead { margin-bottom: 7px }
	`)
	p := &html.Node{Type: html.ElementNode, Data: "p", Attr: []html.Attribute{
		{Key: "class", Val: "lead"},
		{Key: "style", Val: "color: green"},
	}}
	got := e.Compute(p, nil)
	if v := got.Length("margin-top", 0); v != 20 {
		t.Errorf("margin-top = %g, want 20 (p.lead beats p)", v)
	}
	if v := got.Length("margin-bottom", 0); v != 7 {
		t.Errorf("margin-bottom = %g, want 7 (later rule wins)", v)
	}
	if v := got.Get("color"); v != "blue" {
		t.Errorf("color = %q, want blue (important beats inline)", v)
	}
	if src := got["margin-top"].Source; src != SourceAuthor {
		t.Errorf("margin-top source = %v, want author", src)
	}

	p.Attr = append(p.Attr, html.Attribute{Key: "id", Val: "intro"})
	if v := e.Compute(p, nil).Length("margin-top", 0); v != 30 {
		t.Errorf("margin-top = %g, want 30 (id beats class)", v)
	}
}

func TestAuthorRulesOverrideAttributes(t *testing.T) {
	e := NewEngine()
	e.AddUserAgentStylesheet(`img { height: 10px }`)
	img := &html.Node{Type: html.ElementNode, Data: "img", Attr: []html.Attribute{{Key: "height", Val: "80"}}}
	if got := e.Compute(img, nil).Length("height", 0); got != 80 {
		t.Errorf("height = %g, want 80 (attribute beats user agent)", got)
	}
	e.AddStylesheet(`img { height: 40px }`)
	if got := e.Compute(img, nil).Length("height", 0); got != 40 {
		t.Errorf("height = %g, want 40 (author beats attribute)", got)
	}
}
