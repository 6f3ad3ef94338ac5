package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/content"
	"github.com/gompdf/docpager/internal/layout"
	"github.com/gompdf/docpager/internal/pagination"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"
	"github.com/gompdf/docpager/internal/res"
)

func paragraphs(n int) string {
	var sb strings.Builder
	for i := range n {
		fmt.Fprintf(&sb, "<p>Paragraph %d. %s</p>\n", i+1, strings.Repeat("Lorem ipsum dolor sit amet. ", 12))
	}
	return sb.String()
}

func unavailable(context.Context, layout.Config) (*layout.Surface, error) {
	return nil, layout.ErrUnavailable
}

// blockTexts lists the text of every block on every page in order
func blockTexts(pages []Page) []string {
	var out []string
	for _, p := range pages {
		for _, b := range p.Blocks {
			out = append(out, htmlparser.Text(b.Node))
		}
	}
	return out
}

func TestPaginateRespectsBudget(t *testing.T) {
	p := New(WithFooter("<p>Page {page} of {total}</p>", 0, FrequencyAll))
	markup := paragraphs(40)
	result, err := p.Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if result.Status != StatusPaginated {
		t.Fatalf("status = %v, want paginated", result.Status)
	}
	if result.RunID == "" {
		t.Error("run id is empty")
	}
	if len(result.Pages) < 2 {
		t.Fatalf("expected several pages, got %d", len(result.Pages))
	}

	for i, page := range result.Pages {
		if page.Number != i+1 || page.Total != len(result.Pages) {
			t.Errorf("page %d numbered %d of %d", i+1, page.Number, page.Total)
		}
		if page.Height > result.Budget.Available && !page.Overflow {
			t.Errorf("page %d height %v exceeds budget %v", page.Number, page.Height, result.Budget.Available)
		}
		want := fmt.Sprintf("Page %d of %d", page.Number, page.Total)
		if got := page.Footer.Text(); !page.Footer.Shown || got != want {
			t.Errorf("page %d footer = %q (shown %v), want %q", page.Number, got, page.Footer.Shown, want)
		}
	}

	segments, err := content.Parse(markup)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var want []string
	for _, s := range segments {
		for _, b := range s.Blocks {
			want = append(want, htmlparser.Text(b.Node))
		}
	}
	if diff := cmp.Diff(want, blockTexts(result.Pages)); diff != "" {
		t.Errorf("content not preserved (-want +got):\n%s", diff)
	}
}

func TestPaginateIsIdempotent(t *testing.T) {
	p := New(WithHeader("<p>Report</p>", 0, FrequencyOdd))
	markup := paragraphs(25) + `<div class="page-break"></div>` + paragraphs(3)

	first, err := p.Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	second, err := p.Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	a, b := first.Summary(), second.Summary()
	a.RunID, b.RunID = "", ""
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
	if first.RunID == second.RunID {
		t.Error("runs share an id")
	}
}

func TestPaginateManualBreaks(t *testing.T) {
	markup := `<p>one</p><div style="page-break-after: always"></div><p>two</p><!-- pagebreak --><p>three</p>`
	result, err := New().Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, blockTexts(result.Pages)); diff != "" {
		t.Errorf("content mismatch (-want +got):\n%s", diff)
	}
	if len(result.Pages) != 3 {
		t.Errorf("got %d pages, want one per segment", len(result.Pages))
	}
}

func TestPaginateSplitsTables(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<table><thead><tr><th>#</th><th>Item</th></tr></thead><tbody>")
	for i := range 120 {
		fmt.Fprintf(&sb, "<tr><td>%d</td><td>Item %d</td></tr>", i+1, i+1)
	}
	sb.WriteString("</tbody></table>")

	result, err := New().Paginate(context.Background(), sb.String())
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(result.Pages) < 2 {
		t.Fatalf("expected the table to be split, got %d pages", len(result.Pages))
	}
	rows, fragments := 0, 0
	for _, page := range result.Pages {
		for _, b := range page.Blocks {
			if !b.Fragment() {
				t.Errorf("page %d holds an unsplit block", page.Number)
			}
			if htmlparser.FindElement(b.Node, "thead") == nil {
				t.Errorf("fragment %d has no header", b.Part)
			}
			rows += len(layout.TableRows(b.Node))
			fragments++
		}
		if page.Height > result.Budget.Available {
			t.Errorf("page %d height %v exceeds budget %v", page.Number, page.Height, result.Budget.Available)
		}
	}
	// every fragment repeats the header row
	if want := 120 + fragments; rows != want {
		t.Errorf("fragments hold %d rows, want %d", rows, want)
	}
}

func TestPaginateTableFragmentsKeepColumns(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<table><tr><td style="width: 600px">a</td><td>b</td></tr>`)
	for i := range 80 {
		fmt.Fprintf(&sb, "<tr><td>%d. %s</td><td>%d</td></tr>", i+1, strings.Repeat("Lorem ipsum dolor sit amet. ", 6), i+1)
	}
	sb.WriteString("</table>")

	result, err := New().Paginate(context.Background(), sb.String())
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(result.Pages) < 2 {
		t.Fatalf("expected the table to be split, got %d pages", len(result.Pages))
	}
	rows := 0
	for _, page := range result.Pages {
		if page.Overflow || page.Height > result.Budget.Available {
			t.Errorf("page %d height %v exceeds budget %v (overflow %v)", page.Number, page.Height, result.Budget.Available, page.Overflow)
		}
		for _, b := range page.Blocks {
			rows += len(layout.TableRows(b.Node))
		}
	}
	if rows != 81 {
		t.Errorf("fragments hold %d rows, want 81", rows)
	}
}

func TestPaginateClassSelectors(t *testing.T) {
	markup := `<style>.tall { height: 600px } p { margin: 0 }</style>` + strings.Repeat(`<p class="tall">x</p>`, 4)
	result, err := New().Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(result.Pages) != 4 {
		t.Fatalf("got %d pages, want one per 600px paragraph", len(result.Pages))
	}
	for _, page := range result.Pages {
		if page.Height < 600 || page.Height > result.Budget.Available {
			t.Errorf("page %d height %v, want 600..%v", page.Number, page.Height, result.Budget.Available)
		}
	}

	nested := `<style>div.box > p { margin: 0; height: 400px } #intro { height: 100px }</style>` +
		`<div class="box"><p>a</p><p id="intro">b</p></div>`
	result, err = New().Paginate(context.Background(), nested)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if got := result.Pages[0].Height; got < 500 || got > 520 {
		t.Errorf("height = %v, want about 500", got)
	}
}

func TestPaginateEmptyDocument(t *testing.T) {
	result, err := New(WithFooter("<p>{page}/{total}</p>", 0, "")).Paginate(context.Background(), "  ")
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if len(result.Pages) != 1 || len(result.Pages[0].Blocks) != 0 {
		t.Fatalf("expected one empty page, got %+v", result.Summary())
	}
	if got := result.Pages[0].Footer.Text(); got != "1/1" {
		t.Errorf("footer = %q, want 1/1", got)
	}
}

func TestPaginateDegraded(t *testing.T) {
	p := New(WithFooter("<p>Page {page} of {total}</p>", 0, FrequencyAll))
	p.acquire = unavailable
	markup := paragraphs(30) + `<div class="page-break"></div><p>last</p>`

	result, err := p.Paginate(context.Background(), markup)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if result.Status != StatusDegraded {
		t.Fatalf("status = %v, want degraded", result.Status)
	}
	if len(result.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(result.Pages))
	}
	if result.Original != markup {
		t.Error("degraded result does not carry the original markup")
	}
	if got := len(result.Pages[0].Blocks); got != 31 {
		t.Errorf("page holds %d blocks, want 31", got)
	}
	if got := result.Pages[0].Footer.Text(); got != "Page 1 of 1" {
		t.Errorf("footer = %q", got)
	}

	if err := p.RenderPDF(context.Background(), markup, &bytes.Buffer{}); !errors.Is(err, layout.ErrUnavailable) {
		t.Errorf("RenderPDF() error = %v, want ErrUnavailable", err)
	}
	var out strings.Builder
	if err := p.RenderHTML(context.Background(), markup, &out); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if got := strings.Count(out.String(), `<section class="page"`); got != 1 {
		t.Errorf("degraded HTML has %d pages, want 1", got)
	}
}

func TestPaginateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := New().Paginate(ctx, paragraphs(5))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Paginate() error = %v, want context.Canceled", err)
	}
	if result != nil {
		t.Error("cancelled run returned a result")
	}
}

func TestPaginateInvalidGeometry(t *testing.T) {
	_, err := New(WithMargins(600, 40, 600, 40)).Paginate(context.Background(), "<p>x</p>")
	if err == nil {
		t.Error("expected an error for margins larger than the page")
	}
}

func TestDocumentStylesheets(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "big.css"), []byte("h2 { font-size: 64px }"), 0644); err != nil {
		t.Fatal(err)
	}
	plain := "<h2>Heading</h2><p>text</p>"
	styled := `<html><head><link rel="stylesheet" href="big.css"><style>p { font-size: 40px }</style>` +
		`<link rel="stylesheet" href="missing.css"></head><body>` + plain + `</body></html>`

	p := New(WithResourcePath(dir))
	base, err := p.Paginate(context.Background(), plain)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	big, err := p.Paginate(context.Background(), styled)
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if big.Pages[0].Height <= base.Pages[0].Height {
		t.Errorf("document styles not applied: %v <= %v", big.Pages[0].Height, base.Pages[0].Height)
	}

	loader := res.NewLoader("")
	loader.AddSearchPath(dir)
	sheets := collectDocumentStylesheets(context.Background(), styled, loader, zap.NewNop())
	if diff := cmp.Diff([]string{"h2 { font-size: 64px }", "p { font-size: 40px }"}, sheets); diff != "" {
		t.Errorf("stylesheets mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderPDF(t *testing.T) {
	p := New(WithTitle("Report"), WithFooter("<p>{page}</p>", 0, FrequencyAll))
	var out bytes.Buffer
	if err := p.RenderPDF(context.Background(), paragraphs(40), &out); err != nil {
		t.Fatalf("RenderPDF() error = %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
	result, err := p.Paginate(context.Background(), paragraphs(40))
	if err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if got := bytes.Count(out.Bytes(), []byte("<</Type /Page\n")); got != len(result.Pages) {
		t.Errorf("PDF has %d pages, want %d", got, len(result.Pages))
	}
}

func TestRenderHTML(t *testing.T) {
	p := New(WithHeader("<p>Head {page}</p>", 0, FrequencyFirst))
	var out strings.Builder
	if err := p.RenderHTML(context.Background(), "<style>p{color:red}</style>"+paragraphs(40), &out); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	html := out.String()
	if strings.Count(html, `<section class="page"`) < 2 {
		t.Error("expected several pages")
	}
	if !strings.Contains(html, "Head 1") || strings.Contains(html, "Head 2") {
		t.Error("header must show on the first page only")
	}
	if !strings.Contains(html, "p{color:red}") {
		t.Error("document stylesheet not carried into the preview")
	}
}

func TestSummaryJSON(t *testing.T) {
	result := &Result{
		Status: StatusPaginated,
		RunID:  "run-1",
		Budget: pagination.Budget{Available: 913},
		Pages: []Page{
			{Number: 1, Total: 1, Height: 120, Blocks: []content.Block{{}, {Parts: 2}}},
		},
	}
	data, err := json.Marshal(result.Summary())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"run":"run-1","status":"paginated","available":913,"pages":[{"number":1,"total":1,"blocks":2,"fragments":1,"height":120}]}`
	if string(data) != want {
		t.Errorf("summary = %s\nwant      %s", data, want)
	}
}

func TestSessionSupersedesRuns(t *testing.T) {
	p := New()
	var calls atomic.Int32
	entered := make(chan struct{})
	p.acquire = func(ctx context.Context, cfg layout.Config) (*layout.Surface, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return layout.Acquire(ctx, cfg)
	}
	s := p.NewSession()
	defer s.Close()

	type outcome struct {
		result *Result
		err    error
	}
	first := make(chan outcome, 1)
	go func() {
		r, err := s.Paginate(context.Background(), "<p>old</p>")
		first <- outcome{r, err}
	}()
	<-entered

	latest, err := s.Paginate(context.Background(), "<p>new</p>")
	if err != nil {
		t.Fatalf("latest run error = %v", err)
	}
	if diff := cmp.Diff([]string{"new"}, blockTexts(latest.Pages)); diff != "" {
		t.Errorf("latest run content (-want +got):\n%s", diff)
	}

	old := <-first
	if !errors.Is(old.err, ErrSuperseded) || old.result != nil {
		t.Errorf("superseded run = %v, %v; want ErrSuperseded", old.result, old.err)
	}
	if s.Generation() != 2 {
		t.Errorf("generation = %d, want 2", s.Generation())
	}
}

func TestSessionClose(t *testing.T) {
	s := New().NewSession()
	if _, err := s.Paginate(context.Background(), "<p>x</p>"); err != nil {
		t.Fatalf("Paginate() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := s.Paginate(context.Background(), "<p>x</p>"); !errors.Is(err, ErrClosed) {
		t.Errorf("Paginate() after Close error = %v, want ErrClosed", err)
	}
}

func TestOptionsGeometry(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want pagination.Geometry
	}{
		{"default", nil, pagination.DefaultGeometry()},
		{
			"letter landscape",
			[]Option{WithPageSizeLetter(), WithPageOrientation(PageOrientationLandscape), WithMargins(10, 20, 30, 40)},
			pagination.Geometry{Width: 1056, Height: 816, Margins: pagination.Margins{Top: 10, Right: 20, Bottom: 30, Left: 40}},
		},
		{
			"portrait swaps a wide size",
			[]Option{WithPageSize(1123, 794)},
			pagination.Geometry{Width: 794, Height: 1123, Margins: pagination.UniformMargins(40)},
		},
		{
			"from geometry",
			[]Option{WithGeometry(pagination.NewGeometry(pagination.PageSizeA5.Landscape(), pagination.UniformMargins(25)))},
			pagination.Geometry{Width: 794, Height: 559, Margins: pagination.UniformMargins(25)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts...).Options().Geometry()
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("geometry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
