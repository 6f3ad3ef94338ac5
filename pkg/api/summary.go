package api

// PageSummary describes one page without its content
type PageSummary struct {
	Number    int     `json:"number"`
	Total     int     `json:"total"`
	Blocks    int     `json:"blocks"`
	Fragments int     `json:"fragments,omitempty"`
	Height    float64 `json:"height"`
	Overflow  bool    `json:"overflow,omitempty"`
	Header    string  `json:"header,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Summary is a serializable description of a result
type Summary struct {
	RunID     string        `json:"run"`
	Status    string        `json:"status"`
	Available float64       `json:"available"`
	Pages     []PageSummary `json:"pages"`
}

// Summary describes the result page by page. Band texts are included only
// for pages that show the band.
func (r *Result) Summary() Summary {
	s := Summary{
		RunID:     r.RunID,
		Status:    r.Status.String(),
		Available: r.Budget.Available,
		Pages:     make([]PageSummary, 0, len(r.Pages)),
	}
	for _, p := range r.Pages {
		ps := PageSummary{
			Number:   p.Number,
			Total:    p.Total,
			Blocks:   len(p.Blocks),
			Height:   p.Height,
			Overflow: p.Overflow,
		}
		for _, b := range p.Blocks {
			if b.Fragment() {
				ps.Fragments++
			}
		}
		if p.Header.Shown {
			ps.Header = p.Header.Text()
		}
		if p.Footer.Shown {
			ps.Footer = p.Footer.Text()
		}
		s.Pages = append(s.Pages, ps)
	}
	return s
}
