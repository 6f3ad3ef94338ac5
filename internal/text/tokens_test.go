package text

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("  hello \n\t world!")
	want := []Token{
		{Text: " ", IsSpace: true},
		{Text: "hello"},
		{Text: " ", IsSpace: true},
		{Text: "world!"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeComposes(t *testing.T) {
	if got := Normalize("e\u0301"); got != "\u00e9" {
		t.Errorf("Normalize() = %q, want composed é", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace(" a  \n b "); got != " a b " {
		t.Errorf("CollapseWhitespace() = %q", got)
	}
	if !IsBlank(" \n\t") || IsBlank(" x ") {
		t.Errorf("IsBlank mismatch")
	}
}

func TestLines(t *testing.T) {
	if diff := cmp.Diff([]string{"a", "", "b"}, Lines("a\r\n\nb")); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
}
