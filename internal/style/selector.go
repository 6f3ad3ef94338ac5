package style

import (
	"strings"

	"golang.org/x/net/html"
)

// Specificity of a selector: ids, classes, element names
type Specificity struct {
	ID      int
	Class   int
	Element int
}

func compareSpecificity(a, b Specificity) int {
	if a.ID != b.ID {
		return a.ID - b.ID
	}
	if a.Class != b.Class {
		return a.Class - b.Class
	}
	return a.Element - b.Element
}

// compound is a sequence of simple selectors without combinators, for
// example div#main.note.wide
type compound struct {
	tag     string
	id      string
	classes []string
}

// selector is a chain of compounds. combinators[i] joins parts[i] and
// parts[i+1] and is either ' ' (descendant) or '>' (child).
type selector struct {
	parts       []compound
	combinators []byte
	specificity Specificity
}

// parseSelector parses tag, class, id, compound, descendant and child
// selectors. Anything else (attributes, pseudo-classes, sibling
// combinators) is reported as unsupported.
func parseSelector(s string) (selector, bool) {
	var (
		sel     selector
		pending byte
	)
	for _, f := range strings.Fields(strings.ReplaceAll(s, ">", " > ")) {
		if f == ">" {
			if len(sel.parts) == 0 || pending != 0 {
				return selector{}, false
			}
			pending = '>'
			continue
		}
		c, ok := parseCompound(f)
		if !ok {
			return selector{}, false
		}
		if len(sel.parts) > 0 {
			if pending == 0 {
				pending = ' '
			}
			sel.combinators = append(sel.combinators, pending)
		}
		pending = 0
		sel.parts = append(sel.parts, c)

		if c.id != "" {
			sel.specificity.ID++
		}
		sel.specificity.Class += len(c.classes)
		if c.tag != "" && c.tag != "*" {
			sel.specificity.Element++
		}
	}
	if len(sel.parts) == 0 || pending != 0 {
		return selector{}, false
	}
	return sel, true
}

func parseCompound(s string) (compound, bool) {
	var c compound
	i := 0
	if i < len(s) && s[i] != '.' && s[i] != '#' {
		j := i
		for j < len(s) && s[j] != '#' && s[j] != '.' {
			j++
		}
		c.tag = strings.ToLower(s[i:j])
		if c.tag != "*" && !isName(c.tag) {
			return compound{}, false
		}
		i = j
	}
	for i < len(s) {
		j := i + 1
		for j < len(s) && s[j] != '.' && s[j] != '#' {
			j++
		}
		name := s[i+1 : j]
		if !isName(name) {
			return compound{}, false
		}
		if s[i] == '#' {
			if c.id != "" && c.id != name {
				return compound{}, false
			}
			c.id = name
		} else {
			c.classes = append(c.classes, name)
		}
		i = j
	}
	return c, true
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r > 0x7f:
		default:
			return false
		}
	}
	return true
}

func (c compound) matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && c.tag != "*" && !strings.EqualFold(c.tag, n.Data) {
		return false
	}
	if c.id == "" && len(c.classes) == 0 {
		return true
	}
	var id, class string
	for _, a := range n.Attr {
		switch strings.ToLower(a.Key) {
		case "id":
			id = a.Val
		case "class":
			class = a.Val
		}
	}
	if c.id != "" && c.id != id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(class)
		for _, need := range c.classes {
			found := false
			for _, h := range have {
				if h == need {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

var (
	virtualBody = &html.Node{Type: html.ElementNode, Data: "body"}
	virtualHTML = &html.Node{Type: html.ElementNode, Data: "html"}
)

// ancestry returns n followed by its ancestors. Content nodes are detached
// from the document, so a chain that does not reach <html> continues with
// <body> and <html>.
func ancestry(n *html.Node) []*html.Node {
	chain := []*html.Node{n}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}
	top := chain[len(chain)-1]
	switch {
	case strings.EqualFold(top.Data, "html"):
	case strings.EqualFold(top.Data, "body"):
		chain = append(chain, virtualHTML)
	default:
		chain = append(chain, virtualBody, virtualHTML)
	}
	return chain
}

// matches reports whether chain[0] matches the selector. chain is the
// element followed by its ancestors.
func (s selector) matches(chain []*html.Node) bool {
	return s.matchAt(chain, 0, len(s.parts)-1)
}

func (s selector) matchAt(chain []*html.Node, at, part int) bool {
	if !s.parts[part].matches(chain[at]) {
		return false
	}
	if part == 0 {
		return true
	}
	if s.combinators[part-1] == '>' {
		return at+1 < len(chain) && s.matchAt(chain, at+1, part-1)
	}
	for a := at + 1; a < len(chain); a++ {
		if s.matchAt(chain, a, part-1) {
			return true
		}
	}
	return false
}
