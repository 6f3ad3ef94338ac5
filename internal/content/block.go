// Package content turns substituted markup into ordered, typed blocks
// grouped into segments separated by manual page breaks.
package content

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind is the type of a block
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindTable
	KindList
	KindImage
	KindRawText
	KindBand
	KindContainer
)

var kindNames = [...]string{"paragraph", "heading", "table", "list", "image", "raw-text", "band", "container"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Atomic reports whether oversized blocks of this kind are split by a
// dedicated splitter
func (k Kind) Atomic() bool {
	return k == KindTable || k == KindList
}

// Block is an immutable unit of content. Node is a detached subtree that is
// never modified once the block exists; splitters work on clones.
type Block struct {
	Kind Kind
	Node *html.Node
	// Index is the position of the originating top-level block in the document
	Index int
	// Part is the 0-based fragment position when an atomic block was split;
	// Parts is the fragment count (0 for unsplit blocks)
	Part  int
	Parts int
}

// Fragment reports whether b is a piece of a split atomic block
func (b Block) Fragment() bool {
	return b.Parts > 0
}

// Segment is the ordered list of blocks between two manual page breaks
type Segment struct {
	Blocks []Block
}

// KindOf classifies a top-level node
func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindRawText
	}
	if n.Type != html.ElementNode {
		return KindRawText
	}
	switch strings.ToLower(n.Data) {
	case "p":
		return KindParagraph
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return KindHeading
	case "table":
		return KindTable
	case "ul", "ol":
		return KindList
	case "img", "figure", "picture", "svg":
		return KindImage
	default:
		return KindContainer
	}
}
