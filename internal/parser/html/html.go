package html

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parser parses substituted content markup into detached node trees
type Parser struct{}

// NewParser creates a new HTML parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses markup from a string
func (p *Parser) ParseString(content string) ([]*html.Node, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses markup and returns the top-level content nodes in document order.
// Full documents are reduced to the children of <body>; fragments are parsed
// in a <body> context. Returned nodes are detached (Parent == nil).
func (p *Parser) Parse(r io.Reader) ([]*html.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if isFullDocument(data) {
		doc, err := html.Parse(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		body := FindElement(doc, "body")
		if body == nil {
			return nil, nil
		}
		var nodes []*html.Node
		for c := body.FirstChild; c != nil; {
			next := c.NextSibling
			body.RemoveChild(c)
			nodes = append(nodes, c)
			c = next
		}
		return nodes, nil
	}

	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	return html.ParseFragment(bytes.NewReader(data), context)
}

func isFullDocument(data []byte) bool {
	head := bytes.ToLower(data[:min(len(data), 512)])
	return bytes.Contains(head, []byte("<html")) || bytes.Contains(head, []byte("<body")) ||
		bytes.Contains(head, []byte("<!doctype"))
}

// FindElement returns the first element named tag in a depth-first walk of n
func FindElement(n *html.Node, tag string) *html.Node {
	if n == nil {
		return nil
	}
	if n.Type == html.ElementNode && strings.EqualFold(n.Data, tag) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := FindElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// IsElement reports whether n is an element with one of the given tag names
func IsElement(n *html.Node, tags ...string) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if strings.EqualFold(n.Data, t) {
			return true
		}
	}
	return false
}

// ElementChildren returns the direct element children of n, optionally
// restricted to the given tag names
func ElementChildren(n *html.Node, tags ...string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c, tags...) {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the attribute key
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the attribute key on n
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether the class attribute of n contains class
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of n
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return b.String()
}

// ShallowClone copies n without children. The copy is detached.
func ShallowClone(n *html.Node) *html.Node {
	attrs := make([]html.Attribute, len(n.Attr))
	copy(attrs, n.Attr)
	return &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      attrs,
	}
}

// Clone deep-copies n and its subtree. The copy is detached.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	clone := ShallowClone(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		clone.AppendChild(Clone(c))
	}
	return clone
}

// Render serializes the given nodes back to markup
func Render(nodes ...*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips the subtree of that node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, fn)
	}
}
