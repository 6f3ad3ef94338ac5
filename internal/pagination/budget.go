package pagination

import (
	"fmt"
	"strings"

	"github.com/gompdf/docpager/internal/content"
)

// Settings are the empirically chosen constants of the budget computation
type Settings struct {
	// SafetyBuffer is subtracted from every page budget
	SafetyBuffer float64
	// BandGap separates a configured band from the content area
	BandGap           float64
	DefaultBandHeight float64
}

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{SafetyBuffer: 20, BandGap: 10, DefaultBandHeight: 40}
}

// widest plausible value of a page-relative token
const worstCaseToken = "8888"

// MinBudget is the floor of the available height
const MinBudget = 1.0

// Budget is the conservative content height applied to every page
type Budget struct {
	Available float64
	// Header and Footer are the worst-case band heights reserved
	Header float64
	Footer float64
	Gap    float64
}

// ComputeBudget reserves worst-case space for every configured band. A
// band's reserved height is the larger of its configured height and its
// measured height with tokens replaced by wide values.
func ComputeBudget(g Geometry, header, footer *HeaderFooter, st Settings, o Oracle) (Budget, error) {
	var (
		b     Budget
		bands int
		err   error
	)
	if header != nil {
		bands++
		if b.Header, err = bandHeight(header, g.ContentWidth(), st, o); err != nil {
			return Budget{}, fmt.Errorf("unable to measure header: %w", err)
		}
	}
	if footer != nil {
		bands++
		if b.Footer, err = bandHeight(footer, g.ContentWidth(), st, o); err != nil {
			return Budget{}, fmt.Errorf("unable to measure footer: %w", err)
		}
	}
	b.Gap = st.BandGap * float64(bands)
	b.Available = max(g.ContentHeight()-b.Header-b.Footer-b.Gap-st.SafetyBuffer, MinBudget)
	return b, nil
}

func bandHeight(hf *HeaderFooter, width float64, st Settings, o Oracle) (float64, error) {
	h := hf.Height
	if h <= 0 {
		h = st.DefaultBandHeight
	}
	if strings.TrimSpace(hf.Content) == "" || o == nil {
		return h, nil
	}
	markup := strings.NewReplacer(TokenPage, worstCaseToken, TokenTotal, worstCaseToken).Replace(hf.Content)
	segments, err := content.Parse(markup)
	if err != nil {
		return 0, err
	}
	var blocks []content.Block
	for _, s := range segments {
		blocks = append(blocks, s.Blocks...)
	}
	measured, err := o.Measure(blocks, width)
	if err != nil {
		return 0, err
	}
	return max(h, measured), nil
}
