package layout

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/style"
)

// listBox stacks list items and assigns their markers. Ordered lists count
// from the start attribute; a value attribute on an item resets the counter.
func (s *Surface) listBox(n *html.Node, st style.ComputedStyle, width float64) *BlockBox {
	l := newBlockBox(n, st, width)
	ordered := strings.EqualFold(n.Data, "ol")
	counter := ListStart(n)

	var items []blockLevel
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !htmlparser.IsElement(c, "li") {
			if c.Type == html.ElementNode {
				if b := s.build(c, st, l.ContentWidth()); b != nil {
					items = append(items, b)
				}
			}
			continue
		}
		lst := s.styles.Compute(c, st)
		li := newBlockBox(c, lst, l.ContentWidth())
		li.finish(s.content(li, children(c)))

		kind := strings.ToLower(lst.Get("list-style-type"))
		if ordered {
			if v, ok := htmlparser.Attr(c, "value"); ok {
				if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
					counter = i
				}
			}
			li.Marker = Marker(kind, counter)
			counter++
		} else if kind != "none" {
			li.Bullet = kind
			if li.Bullet == "" {
				li.Bullet = "disc"
			}
		}
		items = append(items, li)
	}
	l.finish(s.place(l, items))
	return l
}

// ListStart returns the number of the first item of an ordered list
func ListStart(n *html.Node) int {
	if v, ok := htmlparser.Attr(n, "start"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return 1
}

// Marker formats an ordered list marker for the given list-style-type
func Marker(kind string, n int) string {
	switch kind {
	case "none":
		return ""
	case "lower-alpha", "lower-latin":
		return toAlpha(n, false) + "."
	case "upper-alpha", "upper-latin":
		return toAlpha(n, true) + "."
	case "lower-roman":
		return strings.ToLower(toRoman(n)) + "."
	case "upper-roman":
		return toRoman(n) + "."
	}
	return strconv.Itoa(n) + "."
}

// toAlpha converts 1-based index to alphabetic sequence (a..z, aa..zz, ...)
func toAlpha(n int, upper bool) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	base := 'a'
	if upper {
		base = 'A'
	}
	var letters []rune
	for n > 0 {
		n--
		letters = append([]rune{base + rune(n%26)}, letters...)
		n /= 26
	}
	return string(letters)
}

func toRoman(n int) string {
	if n <= 0 || n >= 4000 {
		return strconv.Itoa(n)
	}
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var sb strings.Builder
	for i, v := range values {
		for n >= v {
			sb.WriteString(symbols[i])
			n -= v
		}
	}
	return sb.String()
}
