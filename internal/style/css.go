package style

import (
	"strconv"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

const (
	// DefaultFontSize is the root font size in px
	DefaultFontSize = 16.0
	// DefaultLineHeight is the factor used for line-height: normal
	DefaultLineHeight = 1.2
)

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Rule represents a CSS rule
type Rule struct {
	Selectors    []string
	Declarations []Declaration
}

// ParseDeclarations parses the body of an inline style attribute
func ParseDeclarations(s string) []Declaration {
	p := css.NewParser(parse.NewInput(strings.NewReader(s)), true)
	var out []Declaration
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return out
		case css.DeclarationGrammar:
			if d, ok := declaration(data, p.Values()); ok {
				out = append(out, d)
			}
		}
	}
}

// ParseStylesheet parses a stylesheet into rules. At-rules are skipped.
func ParseStylesheet(s string) []Rule {
	p := css.NewParser(parse.NewInput(strings.NewReader(s)), false)
	var (
		rules   []Rule
		current *Rule
		depth   int
	)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return rules
		case css.BeginAtRuleGrammar:
			depth++
		case css.EndAtRuleGrammar:
			if depth > 0 {
				depth--
			}
		case css.BeginRulesetGrammar:
			if depth > 0 {
				continue
			}
			current = &Rule{Selectors: selectors(data, p.Values())}
		case css.DeclarationGrammar:
			if current == nil || depth > 0 {
				continue
			}
			if d, ok := declaration(data, p.Values()); ok {
				current.Declarations = append(current.Declarations, d)
			}
		case css.EndRulesetGrammar:
			if current != nil {
				rules = append(rules, *current)
				current = nil
			}
		}
	}
}

func selectors(data []byte, values []css.Token) []string {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	var out []string
	for _, s := range strings.Split(sb.String(), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func declaration(name []byte, values []css.Token) (Declaration, bool) {
	var parts []string
	for _, t := range values {
		if t.TokenType == css.WhitespaceToken {
			if len(parts) > 0 {
				parts = append(parts, " ")
			}
			continue
		}
		parts = append(parts, string(t.Data))
	}
	raw := strings.TrimSpace(strings.Join(parts, ""))
	d := Declaration{Property: strings.ToLower(strings.TrimSpace(string(name)))}
	if i := strings.Index(raw, "!"); i >= 0 && strings.EqualFold(strings.TrimSpace(raw[i+1:]), "important") {
		d.Important = true
		raw = strings.TrimSpace(raw[:i])
	}
	d.Value = raw
	return d, d.Property != "" && raw != ""
}

// expand splits box shorthands into their longhand properties
func expand(d Declaration) []Declaration {
	switch d.Property {
	case "margin", "padding":
		t, r, b, l := boxShorthand(d.Value)
		return []Declaration{
			{Property: d.Property + "-top", Value: t},
			{Property: d.Property + "-right", Value: r},
			{Property: d.Property + "-bottom", Value: b},
			{Property: d.Property + "-left", Value: l},
		}
	case "border-width":
		t, r, b, l := boxShorthand(d.Value)
		return []Declaration{
			{Property: "border-top-width", Value: t},
			{Property: "border-right-width", Value: r},
			{Property: "border-bottom-width", Value: b},
			{Property: "border-left-width", Value: l},
		}
	case "border", "border-top", "border-right", "border-bottom", "border-left":
		w := borderWidth(d.Value)
		var out []Declaration
		if d.Property == "border" {
			out = []Declaration{
				{Property: "border-top-width", Value: w},
				{Property: "border-right-width", Value: w},
				{Property: "border-bottom-width", Value: w},
				{Property: "border-left-width", Value: w},
			}
		} else {
			out = []Declaration{{Property: d.Property + "-width", Value: w}}
		}
		if c := borderColor(d.Value); c != "" {
			out = append(out, Declaration{Property: "border-color", Value: c})
		}
		return out
	case "font":
		return expandFont(d.Value)
	}
	return []Declaration{d}
}

// boxShorthand parses CSS shorthand like:
//   - "10px"
//   - "10px 20px"
//   - "10px 15px 8px"
//   - "10px 12px 8px 6px"
//
// and returns (top, right, bottom, left) values.
func boxShorthand(value string) (string, string, string, string) {
	parts := strings.Fields(value)
	switch len(parts) {
	case 0:
		return "0", "0", "0", "0"
	case 1:
		return parts[0], parts[0], parts[0], parts[0]
	case 2:
		return parts[0], parts[1], parts[0], parts[1]
	case 3:
		return parts[0], parts[1], parts[2], parts[1]
	default:
		return parts[0], parts[1], parts[2], parts[3]
	}
}

func borderWidth(value string) string {
	for _, p := range strings.Fields(value) {
		switch strings.ToLower(p) {
		case "none", "hidden":
			return "0"
		case "thin":
			return "1px"
		case "medium":
			return "3px"
		case "thick":
			return "5px"
		}
		if p[0] >= '0' && p[0] <= '9' || p[0] == '.' {
			return p
		}
	}
	return "3px"
}

var borderStyles = map[string]bool{
	"none": true, "hidden": true, "dotted": true, "dashed": true, "solid": true,
	"double": true, "groove": true, "ridge": true, "inset": true, "outset": true,
	"thin": true, "medium": true, "thick": true,
}

func borderColor(value string) string {
	if i := strings.Index(strings.ToLower(value), "rgb"); i >= 0 {
		if j := strings.Index(value[i:], ")"); j > 0 {
			return value[i : i+j+1]
		}
	}
	for _, p := range strings.Fields(value) {
		if borderStyles[strings.ToLower(p)] || p[0] >= '0' && p[0] <= '9' || p[0] == '.' {
			continue
		}
		return p
	}
	return ""
}

// expandFont handles the common "[style] [weight] size[/line-height] family" form
func expandFont(value string) []Declaration {
	var out []Declaration
	parts := strings.Fields(value)
	for i, p := range parts {
		lp := strings.ToLower(p)
		switch {
		case lp == "italic" || lp == "oblique":
			out = append(out, Declaration{Property: "font-style", Value: "italic"})
		case lp == "bold" || lp == "bolder" || lp == "700" || lp == "800" || lp == "900":
			out = append(out, Declaration{Property: "font-weight", Value: "bold"})
		case len(lp) > 0 && (lp[0] >= '0' && lp[0] <= '9' || lp[0] == '.'):
			size, lh, _ := strings.Cut(p, "/")
			out = append(out, Declaration{Property: "font-size", Value: size})
			if lh != "" {
				out = append(out, Declaration{Property: "line-height", Value: lh})
			}
			if i+1 < len(parts) {
				out = append(out, Declaration{Property: "font-family", Value: strings.Join(parts[i+1:], " ")})
			}
			return out
		}
	}
	return out
}

// Length parses a CSS length value into px. Percentages resolve against
// containerSize, em against fontSize.
func Length(value string, containerSize, fontSize, defaultValue float64) float64 {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "auto" || value == "normal" || value == "none" {
		return defaultValue
	}
	if fontSize <= 0 {
		fontSize = DefaultFontSize
	}

	units := []struct {
		suffix string
		scale  float64
	}{
		{"rem", DefaultFontSize},
		{"em", fontSize},
		{"px", 1},
		{"pt", 96.0 / 72.0},
		{"pc", 16},
		{"mm", 96.0 / 25.4},
		{"cm", 96.0 / 2.54},
		{"in", 96},
		{"%", containerSize / 100},
	}
	for _, u := range units {
		if strings.HasSuffix(value, u.suffix) {
			f, err := strconv.ParseFloat(strings.TrimSpace(value[:len(value)-len(u.suffix)]), 64)
			if err != nil {
				return defaultValue
			}
			return f * u.scale
		}
	}

	if f, ok := unitless(value); ok {
		return f
	}
	return defaultValue
}

func unitless(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}

func formatPx(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64) + "px"
}
