package pagination

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
)

// SplitList breaks an oversized list into lists of the same kind and
// attributes holding consecutive items. Each candidate fragment is measured
// as a whole; an item that does not fit starts the next fragment. Ordered
// fragments after the first continue the numbering through start. A list
// without items is returned unsplit.
func SplitList(b content.Block, o Oracle, width, budget float64) ([]content.Block, error) {
	items := htmlparser.ElementChildren(b.Node)
	hasItem := false
	for _, it := range items {
		if htmlparser.IsElement(it, "li") {
			hasItem = true
			break
		}
	}
	if !hasItem {
		return []content.Block{b}, nil
	}

	ordered := htmlparser.IsElement(b.Node, "ol")
	start := listStart(b.Node)

	var (
		frags   []*html.Node
		working []*html.Node
		// number of the first item of the working fragment
		number = start
		next   = start
	)
	build := func(items []*html.Node, first int) *html.Node {
		l := htmlparser.ShallowClone(b.Node)
		if ordered && len(frags) > 0 {
			htmlparser.SetAttr(l, "start", strconv.Itoa(first))
		}
		for _, it := range items {
			l.AppendChild(htmlparser.Clone(it))
		}
		return l
	}

	for _, it := range items {
		candidate := append(working[:len(working):len(working)], it)
		h, err := o.Measure([]content.Block{{Kind: content.KindList, Node: build(candidate, number), Index: b.Index}}, width)
		if err != nil {
			return nil, fmt.Errorf("unable to measure list fragment: %w", err)
		}
		if h > budget && len(working) > 0 {
			frags = append(frags, build(working, number))
			number = next
			working = []*html.Node{it}
		} else {
			working = candidate
		}
		next = itemNumber(it, next) + counts(it)
	}
	if len(working) > 0 {
		frags = append(frags, build(working, number))
	}

	out := make([]content.Block, 0, len(frags))
	for i, f := range frags {
		out = append(out, content.Block{
			Kind:  content.KindList,
			Node:  f,
			Index: b.Index,
			Part:  i,
			Parts: len(frags),
		})
	}
	return out, nil
}

func listStart(n *html.Node) int {
	if v, ok := htmlparser.Attr(n, "start"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return 1
}

// itemNumber returns the number an item displays given the running counter
func itemNumber(it *html.Node, counter int) int {
	if !htmlparser.IsElement(it, "li") {
		return counter
	}
	if v, ok := htmlparser.Attr(it, "value"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return counter
}

func counts(it *html.Node) int {
	if htmlparser.IsElement(it, "li") {
		return 1
	}
	return 0
}
