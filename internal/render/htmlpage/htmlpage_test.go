package htmlpage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/pagination"
)

func nodes(t *testing.T, markup string) []*html.Node {
	t.Helper()
	ns, err := htmlparser.NewParser().ParseString(markup)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return ns
}

func sampleDocument(t *testing.T) *pagination.Document {
	t.Helper()
	first := nodes(t, "<h1>Title</h1><table><tr><td>a</td></tr></table>")
	second := nodes(t, "<table><tr><td>b</td></tr></table>")
	return &pagination.Document{
		Budget: pagination.Budget{Available: 900, Header: 40, Footer: 30, Gap: 10},
		Pages: []pagination.Page{
			{
				Number: 1, Total: 2,
				Blocks: []content.Block{
					{Kind: content.KindHeading, Node: first[0]},
					{Kind: content.KindTable, Node: first[1], Index: 1, Part: 0, Parts: 2},
				},
				Header: pagination.Band{Shown: true, Nodes: nodes(t, "<p>Report</p>")},
				Footer: pagination.Band{Shown: true, Nodes: nodes(t, "<p>Page 1 of 2</p>")},
			},
			{
				Number: 2, Total: 2, Overflow: true,
				Blocks: []content.Block{
					{Kind: content.KindTable, Node: second[0], Index: 1, Part: 1, Parts: 2},
				},
				Footer: pagination.Band{Shown: true, Nodes: nodes(t, "<p>Page 2 of 2</p>")},
			},
		},
	}
}

type section struct {
	Page, Total, Fragment string
	Overflow              bool
	Header, Footer        string
	Content               string
}

func sections(t *testing.T, out string) []section {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("html.Parse: %v", err)
	}
	var got []section
	htmlparser.Walk(doc, func(n *html.Node) bool {
		if !htmlparser.IsElement(n, "section") || !htmlparser.HasClass(n, "page") {
			return true
		}
		var s section
		s.Page, _ = htmlparser.Attr(n, "data-page")
		s.Total, _ = htmlparser.Attr(n, "data-total")
		_, s.Overflow = htmlparser.Attr(n, "data-overflow")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case htmlparser.IsElement(c, "header"):
				s.Header = htmlparser.Text(c)
			case htmlparser.IsElement(c, "footer"):
				s.Footer = htmlparser.Text(c)
			case htmlparser.IsElement(c, "main"):
				s.Content = htmlparser.Text(c)
				if table := htmlparser.FindElement(c, "table"); table != nil {
					s.Fragment, _ = htmlparser.Attr(table, "data-fragment")
				}
			}
		}
		got = append(got, s)
		return false
	})
	return got
}

func TestRenderPages(t *testing.T) {
	doc := sampleDocument(t)
	var sb strings.Builder
	err := NewRenderer(nil).Render(doc, pagination.DefaultGeometry(), &sb, Options{Title: "Preview", Stylesheet: "h1{color:red}"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()

	want := []section{
		{Page: "1", Total: "2", Fragment: "1/2", Header: "Report", Footer: "Page 1 of 2", Content: "Titlea"},
		{Page: "2", Total: "2", Fragment: "2/2", Overflow: true, Footer: "Page 2 of 2", Content: "b"},
	}
	if diff := cmp.Diff(want, sections(t, out)); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}

	for _, s := range []string{"<!DOCTYPE html>", "<title>Preview</title>", "width:794px;height:1123px", "h1{color:red}"} {
		if !strings.Contains(out, s) {
			t.Errorf("output misses %q", s)
		}
	}
	// the second page keeps an empty header area
	if got := strings.Count(out, `<header class="page-header">`); got != 2 {
		t.Errorf("found %d header areas, want 2", got)
	}
}

func TestRenderDoesNotModifyDocument(t *testing.T) {
	doc := sampleDocument(t)
	var sb strings.Builder
	if err := NewRenderer(nil).Render(doc, pagination.DefaultGeometry(), &sb, Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, p := range doc.Pages {
		for _, b := range p.Blocks {
			if b.Node.Parent != nil {
				t.Errorf("block %d of page %d was re-parented", b.Index, p.Number)
			}
			if _, ok := htmlparser.Attr(b.Node, "data-fragment"); ok {
				t.Errorf("block %d of page %d was annotated in place", b.Index, p.Number)
			}
		}
		for _, n := range p.Header.Nodes {
			if n.Parent != nil {
				t.Errorf("header node of page %d was re-parented", p.Number)
			}
		}
	}
	if !strings.Contains(sb.String(), `<html lang="en">`) {
		t.Error("expected the default language")
	}
}

func TestPageRulesWithoutBands(t *testing.T) {
	rules := pageRules(pagination.DefaultGeometry(), pagination.Budget{Available: 1023})
	for _, s := range []string{".page-header{height:0px;margin-bottom:0px", ".page-content{min-height:1023px}", "padding:40px 40px 40px 40px"} {
		if !strings.Contains(rules, s) {
			t.Errorf("rules miss %q:\n%s", s, rules)
		}
	}
}
