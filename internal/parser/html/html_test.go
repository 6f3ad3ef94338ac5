package html

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestParseFragmentReturnsDetachedTopLevelNodes(t *testing.T) {
	nodes, err := NewParser().ParseString(`<p>one</p>loose <b>text</b><table><tr><td>x</td></tr></table>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	var tags []string
	for _, n := range nodes {
		if n.Parent != nil {
			t.Errorf("node %q is still attached", n.Data)
		}
		if n.Type == html.ElementNode {
			tags = append(tags, n.Data)
		}
	}
	if got, want := strings.Join(tags, ","), "p,b,table"; got != want {
		t.Errorf("element order = %s, want %s", got, want)
	}
}

func TestParseFullDocumentUsesBody(t *testing.T) {
	nodes, err := NewParser().ParseString(`<!DOCTYPE html><html><head><title>t</title></head><body><h1>Hi</h1><p>x</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	if len(nodes) != 2 || nodes[0].Data != "h1" || nodes[1].Data != "p" {
		t.Fatalf("unexpected nodes: %d", len(nodes))
	}
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	nodes, _ := NewParser().ParseString(`<ul class="a"><li>1</li><li>2</li></ul>`)
	orig := nodes[0]
	clone := Clone(orig)

	SetAttr(clone, "class", "b")
	clone.FirstChild.FirstChild.Data = "changed"

	if v, _ := Attr(orig, "class"); v != "a" {
		t.Errorf("original class mutated: %q", v)
	}
	if Text(orig) != "12" {
		t.Errorf("original text mutated: %q", Text(orig))
	}
	if Text(clone) != "changed2" {
		t.Errorf("clone text = %q", Text(clone))
	}
}

func TestRenderAndHelpers(t *testing.T) {
	nodes, _ := NewParser().ParseString(`<div class="page-break  other" data-x="1"></div>`)
	n := nodes[0]
	if !HasClass(n, "page-break") || HasClass(n, "page") {
		t.Errorf("HasClass mismatch")
	}
	if !IsElement(n, "span", "div") || IsElement(n, "p") {
		t.Errorf("IsElement mismatch")
	}
	out, err := Render(n)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if out != `<div class="page-break  other" data-x="1"></div>` {
		t.Errorf("Render() = %s", out)
	}
}
