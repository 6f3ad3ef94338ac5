package api

import (
	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/pagination"
	"github.com/gompdf/docpager/internal/res"
)

// HeaderFooter is a band template with {page} and {total} tokens
type HeaderFooter = pagination.HeaderFooter

// Frequency selects the pages a band is shown on
type Frequency = pagination.Frequency

// Band frequencies
const (
	FrequencyAll   = pagination.FrequencyAll
	FrequencyFirst = pagination.FrequencyFirst
	FrequencyEven  = pagination.FrequencyEven
	FrequencyOdd   = pagination.FrequencyOdd
)

// FontSource names a font file for a family and style ("", "B", "I", "BI")
type FontSource = res.FontSource

// Options represents configuration options for the paginator. Lengths are
// CSS px (96 per inch).
type Options struct {
	// Page dimensions
	PageWidth  float64
	PageHeight float64
	// Page orientation: portrait or landscape
	PageOrientation PageOrientation

	// Page margins
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
	MarginLeft   float64

	// Bands; nil means no band
	Header *HeaderFooter
	Footer *HeaderFooter

	// Budget constants
	SafetyBuffer      float64
	BandGap           float64
	DefaultBandHeight float64

	// Resources
	BaseURL       string
	ResourcePaths []string
	Fonts         []FontSource
	// Workers limits concurrent resource loads
	Workers int

	// Logger receives library logging; nil disables it
	Logger *zap.Logger

	// Visual rendering toggles of the PDF export
	// When false, backgrounds will not be painted
	RenderBackgrounds bool
	// When false, borders will not be painted
	RenderBorders bool

	// Document metadata
	Title    string
	Author   string
	Subject  string
	Keywords string

	// UserAgentStylesheet is added on top of the built-in defaults
	UserAgentStylesheet string
}

// Option is a function that modifies Options
type Option func(*Options)

// PageOrientation represents page orientation
type PageOrientation string

const (
	// PageOrientationPortrait sets the page to portrait orientation
	PageOrientationPortrait PageOrientation = "portrait"
	// PageOrientationLandscape sets the page to landscape orientation
	PageOrientationLandscape PageOrientation = "landscape"
)

// Standard page sizes in px
const (
	PageSizeA3Width      = 1123
	PageSizeA3Height     = 1587
	PageSizeA4Width      = 794
	PageSizeA4Height     = 1123
	PageSizeA5Width      = 559
	PageSizeA5Height     = 794
	PageSizeLetterWidth  = 816
	PageSizeLetterHeight = 1056
	PageSizeLegalWidth   = 816
	PageSizeLegalHeight  = 1344
)

// DefaultOptions returns the default options: A4 portrait, 40px margins, no
// bands
func DefaultOptions() Options {
	st := pagination.DefaultSettings()
	return Options{
		PageWidth:         PageSizeA4Width,
		PageHeight:        PageSizeA4Height,
		PageOrientation:   PageOrientationPortrait,
		MarginTop:         40,
		MarginRight:       40,
		MarginBottom:      40,
		MarginLeft:        40,
		SafetyBuffer:      st.SafetyBuffer,
		BandGap:           st.BandGap,
		DefaultBandHeight: st.DefaultBandHeight,
		Workers:           res.DefaultWorkers,
		RenderBackgrounds: true,
		RenderBorders:     true,
	}
}

// Geometry returns the page geometry with the orientation applied
func (o Options) Geometry() pagination.Geometry {
	size := pagination.PageSize{Width: o.PageWidth, Height: o.PageHeight}
	switch o.PageOrientation {
	case PageOrientationLandscape:
		size = size.Landscape()
	default:
		if size.Width > size.Height {
			size.Width, size.Height = size.Height, size.Width
		}
	}
	return pagination.NewGeometry(size, pagination.Margins{
		Top:    o.MarginTop,
		Right:  o.MarginRight,
		Bottom: o.MarginBottom,
		Left:   o.MarginLeft,
	})
}

// Settings returns the budget constants
func (o Options) Settings() pagination.Settings {
	return pagination.Settings{
		SafetyBuffer:      o.SafetyBuffer,
		BandGap:           o.BandGap,
		DefaultBandHeight: o.DefaultBandHeight,
	}
}

// WithPageSize sets the page size
func WithPageSize(width, height float64) Option {
	return func(o *Options) {
		o.PageWidth = width
		o.PageHeight = height
	}
}

// WithPageSizeA4 sets the page size to A4
func WithPageSizeA4() Option {
	return WithPageSize(PageSizeA4Width, PageSizeA4Height)
}

// WithPageSizeLetter sets the page size to US Letter
func WithPageSizeLetter() Option {
	return WithPageSize(PageSizeLetterWidth, PageSizeLetterHeight)
}

// WithPageSizeLegal sets the page size to US Legal
func WithPageSizeLegal() Option {
	return WithPageSize(PageSizeLegalWidth, PageSizeLegalHeight)
}

// WithPageOrientation sets the page orientation
func WithPageOrientation(orientation PageOrientation) Option {
	return func(o *Options) {
		o.PageOrientation = orientation
	}
}

// WithMargins sets the page margins
func WithMargins(top, right, bottom, left float64) Option {
	return func(o *Options) {
		o.MarginTop = top
		o.MarginRight = right
		o.MarginBottom = bottom
		o.MarginLeft = left
	}
}

// WithGeometry sets page size and margins from a geometry
func WithGeometry(g pagination.Geometry) Option {
	return func(o *Options) {
		o.PageWidth, o.PageHeight = g.Width, g.Height
		o.PageOrientation = PageOrientationPortrait
		if g.Width > g.Height {
			o.PageOrientation = PageOrientationLandscape
		}
		o.MarginTop, o.MarginRight = g.Margins.Top, g.Margins.Right
		o.MarginBottom, o.MarginLeft = g.Margins.Bottom, g.Margins.Left
	}
}

// WithHeader sets the header band
func WithHeader(content string, height float64, frequency Frequency) Option {
	return func(o *Options) {
		o.Header = &HeaderFooter{Content: content, Height: height, Frequency: frequency}
	}
}

// WithFooter sets the footer band
func WithFooter(content string, height float64, frequency Frequency) Option {
	return func(o *Options) {
		o.Footer = &HeaderFooter{Content: content, Height: height, Frequency: frequency}
	}
}

// WithSettings sets the budget constants
func WithSettings(st pagination.Settings) Option {
	return func(o *Options) {
		o.SafetyBuffer = st.SafetyBuffer
		o.BandGap = st.BandGap
		o.DefaultBandHeight = st.DefaultBandHeight
	}
}

// WithBaseURL sets the base for relative resource references
func WithBaseURL(base string) Option {
	return func(o *Options) {
		o.BaseURL = base
	}
}

// WithResourcePath adds a path to search for resources
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithFont adds a font file for a family and style
func WithFont(family, style, src string) Option {
	return func(o *Options) {
		o.Fonts = append(o.Fonts, FontSource{Family: family, Style: style, Src: src})
	}
}

// WithWorkers limits concurrent resource loads
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = log
	}
}

// WithTitle sets the document title
func WithTitle(title string) Option {
	return func(o *Options) {
		o.Title = title
	}
}

// WithAuthor sets the document author
func WithAuthor(author string) Option {
	return func(o *Options) {
		o.Author = author
	}
}

// WithSubject sets the document subject
func WithSubject(subject string) Option {
	return func(o *Options) {
		o.Subject = subject
	}
}

// WithKeywords sets the document keywords
func WithKeywords(keywords string) Option {
	return func(o *Options) {
		o.Keywords = keywords
	}
}

// WithUserAgentStylesheet sets additional user agent rules
func WithUserAgentStylesheet(stylesheet string) Option {
	return func(o *Options) {
		o.UserAgentStylesheet = stylesheet
	}
}
