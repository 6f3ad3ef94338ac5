package layout

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/gompdf/docpager/internal/content"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/res"
)

func acquire(t *testing.T, cfg Config) *Surface {
	t.Helper()
	s, err := Acquire(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func parseBlocks(t *testing.T, markup string) []content.Block {
	t.Helper()
	segs, err := content.Parse(markup)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var out []content.Block
	for _, s := range segs {
		out = append(out, s.Blocks...)
	}
	return out
}

func measure(t *testing.T, s *Surface, markup string, width float64) float64 {
	t.Helper()
	h, err := s.Measure(parseBlocks(t, markup), width)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	return h
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestAcquireIsExclusive(t *testing.T) {
	s, err := Acquire(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := Acquire(ctx, Config{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second Acquire = %v, want deadline exceeded", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := s.Measure(nil, 100); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Measure after Close = %v, want ErrUnavailable", err)
	}

	again := acquire(t, Config{})
	if _, err := again.Measure(nil, 100); err != nil {
		t.Errorf("Measure on reacquired surface: %v", err)
	}
}

func TestMeasureMonotonicAndDeterministic(t *testing.T) {
	s := acquire(t, Config{})
	bs := parseBlocks(t, `<h1>Title</h1><p>First paragraph with some words.</p>`+
		`<ul><li>one</li><li>two</li></ul><table><tr><td>a</td><td>b</td></tr></table>`+
		`<div style="margin: 30px 0">boxed</div>loose text<p></p><pre>a
b</pre>`)

	prev := 0.0
	for k := 1; k <= len(bs); k++ {
		h, err := s.Measure(bs[:k], 500)
		if err != nil {
			t.Fatalf("Measure: %v", err)
		}
		if h < prev {
			t.Errorf("height decreased from %v to %v after block %d", prev, h, k)
		}
		again, _ := s.Measure(bs[:k], 500)
		if again != h {
			t.Errorf("block %d: repeated measurement %v != %v", k, again, h)
		}
		prev = h
	}
}

func TestMeasureCollapsesMargins(t *testing.T) {
	s := acquire(t, Config{})
	a := `<div style="margin: 20px 0 10px; height: 50px"></div>`
	b := `<div style="margin-top: 30px; margin-bottom: 5px; height: 40px"></div>`

	if got := measure(t, s, a, 500); !near(got, 80) {
		t.Errorf("single block = %v, want 80", got)
	}
	if got := measure(t, s, a+b, 500); !near(got, 20+50+30+40+5) {
		t.Errorf("two blocks = %v, want %v", got, 20+50+30+40+5)
	}
}

func TestMeasureWrapsText(t *testing.T) {
	s := acquire(t, Config{})
	p := `<p>` + strings.Repeat("lorem ipsum dolor sit amet ", 30) + `</p>`
	wide, narrow := measure(t, s, p, 700), measure(t, s, p, 200)
	if narrow <= wide {
		t.Errorf("narrow column %v should be taller than wide column %v", narrow, wide)
	}
}

func TestTableMeasurementIsAdditive(t *testing.T) {
	s := acquire(t, Config{})
	markup := `<table style="border: 2px solid black; padding: 3px; margin: 12px 0"><caption>Sales</caption>` +
		`<thead><tr><th width="100">Name</th><th>Amount</th></tr></thead><tbody>`
	for range 6 {
		markup += `<tr><td>A somewhat long product description that wraps</td><td>12.00</td></tr>`
	}
	markup += `</tbody></table>`
	b := parseBlocks(t, markup)[0]

	total, err := s.Measure([]content.Block{b}, 400)
	if err != nil {
		t.Fatalf("Measure: %v", err)
	}
	sum, err := s.MeasureHeaderRow(htmlparser.FindElement(b.Node, "thead"), 400)
	if err != nil {
		t.Fatalf("MeasureHeaderRow: %v", err)
	}
	for _, tr := range htmlparser.ElementChildren(htmlparser.FindElement(b.Node, "tbody"), "tr") {
		h, err := s.MeasureRow(tr, 400)
		if err != nil {
			t.Fatalf("MeasureRow: %v", err)
		}
		if h <= 0 {
			t.Errorf("row height %v", h)
		}
		sum += h
	}
	if !near(total, sum) {
		t.Errorf("table height %v, header plus rows %v", total, sum)
	}

	chrome, err := s.MeasureHeaderRow(b.Node, 400)
	if err != nil {
		t.Fatalf("MeasureHeaderRow(table): %v", err)
	}
	if chrome <= 2*12 || chrome >= sum {
		t.Errorf("chrome height %v out of range", chrome)
	}
}

func TestTableFragmentKeepsColumns(t *testing.T) {
	s := acquire(t, Config{})
	long := strings.Repeat("Lorem ipsum dolor sit amet. ", 6)
	rows := ""
	for range 3 {
		rows += "<tr><td>" + long + "</td><td>n</td></tr>"
	}
	b := parseBlocks(t, `<table><tr><td style="width: 600px">a</td><td>b</td></tr>`+rows+`</table>`)[0]

	cols, err := s.Columns(b.Node, 714)
	if err != nil {
		t.Fatalf("Columns: %v", err)
	}
	if len(cols) != 2 || !near(cols[0], 600) || !near(cols[1], 114) {
		t.Fatalf("columns = %v, want [600 114]", cols)
	}

	want, err := s.MeasureHeaderRow(b.Node, 714)
	if err != nil {
		t.Fatalf("MeasureHeaderRow: %v", err)
	}
	for _, tr := range TableRows(b.Node)[1:] {
		h, err := s.MeasureRow(tr, 714)
		if err != nil {
			t.Fatalf("MeasureRow: %v", err)
		}
		want += h
	}

	group := "<colgroup>"
	for _, w := range cols {
		group += `<col style="width: ` + strconv.FormatFloat(w, 'f', -1, 64) + `px">`
	}
	group += "</colgroup>"
	pinned := measure(t, s, "<table>"+group+"<tbody>"+rows+"</tbody></table>", 714)
	if !near(pinned, want) {
		t.Errorf("fragment with columns measures %v, rows measured %v", pinned, want)
	}
	if bare := measure(t, s, "<table><tbody>"+rows+"</tbody></table>", 714); bare <= pinned {
		t.Errorf("fragment without columns measures %v, expected taller than %v", bare, pinned)
	}
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestImageSizing(t *testing.T) {
	small, large := pngDataURL(t, 120, 60), pngDataURL(t, 1600, 800)
	markup := `<img src="` + small + `"><img src="` + large + `"><img src="missing.png">` +
		`<img width="200" height="80"><img src="` + small + `" width="240">` +
		`<img src="` + large + `" style="max-width: 50%">` +
		`<svg viewBox="0 0 100 50" width="200"></svg><svg></svg>`

	nodes, err := htmlparser.NewParser().ParseString(markup)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	assets, err := res.NewGate(res.NewLoader(t.TempDir()), nil).Wait(context.Background(), nodes, nil)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	s := acquire(t, Config{Assets: assets})

	type size struct{ W, H float64 }
	var got []size
	root, err := s.Layout(nodes, 400)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	var walk func(Box)
	walk = func(b Box) {
		switch v := b.(type) {
		case *ImageBox:
			got = append(got, size{v.Width, v.Height})
		case *BlockBox:
			for _, c := range v.Children {
				walk(c)
			}
		}
	}
	walk(root)

	want := []size{
		{120, 60},
		{400, 200},
		{PlaceholderSize, PlaceholderSize},
		{200, 80},
		{240, 120},
		{200, 100},
		{200, 100},
		{300, 150},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("image sizes mismatch (-want +got):\n%s", diff)
	}
}

func TestMarker(t *testing.T) {
	tests := []struct {
		kind string
		n    int
		want string
	}{
		{"", 3, "3."},
		{"decimal", 12, "12."},
		{"lower-alpha", 28, "ab."},
		{"upper-alpha", 1, "A."},
		{"lower-roman", 14, "xiv."},
		{"upper-roman", 1999, "MCMXCIX."},
		{"none", 4, ""},
	}
	for _, tt := range tests {
		if got := Marker(tt.kind, tt.n); got != tt.want {
			t.Errorf("Marker(%q, %d) = %q, want %q", tt.kind, tt.n, got, tt.want)
		}
	}
}

func TestListMarkersContinueFromStart(t *testing.T) {
	s := acquire(t, Config{})
	nodes, err := htmlparser.NewParser().ParseString(`<ol start="4"><li>a</li><li value="9">b</li><li>c</li></ol><ul style="list-style-type: square"><li>x</li></ul>`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	root, err := s.Layout(nodes, 400)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	var markers []string
	for _, l := range root.Children {
		for _, c := range l.(*BlockBox).Children {
			li := c.(*BlockBox)
			markers = append(markers, li.Marker+li.Bullet)
		}
	}
	if diff := cmp.Diff([]string{"4.", "9.", "10.", "square"}, markers); diff != "" {
		t.Errorf("markers mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveFont(t *testing.T) {
	s := acquire(t, Config{})
	node := func(style string) *html.Node {
		return &html.Node{Type: html.ElementNode, Data: "span", Attr: []html.Attribute{{Key: "style", Val: style}}}
	}
	tests := []struct {
		style string
		want  Font
	}{
		{"", Font{Family: "Helvetica"}},
		{"font-family: 'Times New Roman'; font-weight: bold", Font{Family: "Times", Style: "B"}},
		{"font-family: Unknown, monospace; font-style: italic", Font{Family: "Courier", Style: "I"}},
	}
	for _, tt := range tests {
		st := s.Styles().Compute(node(tt.style), s.rootStyle())
		if diff := cmp.Diff(tt.want, s.ResolveFont(st)); diff != "" {
			t.Errorf("%q mismatch (-want +got):\n%s", tt.style, diff)
		}
	}
	if w := s.TextWidth("hello", Font{Family: "Helvetica"}, 16); w <= 0 {
		t.Errorf("TextWidth = %v", w)
	}
}
