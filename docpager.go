// Package docpager splits substituted HTML-like markup into fixed size pages
// with repeating headers and footers. See pkg/api for the full API.
package docpager

import (
	"github.com/gompdf/docpager/pkg/api"
)

type Paginator = api.Paginator
type Session = api.Session
type Result = api.Result
type Status = api.Status
type Page = api.Page
type Options = api.Options
type Option = api.Option
type HeaderFooter = api.HeaderFooter
type Frequency = api.Frequency
type PageOrientation = api.PageOrientation

func New(opts ...Option) *Paginator             { return api.New(opts...) }
func NewWithOptions(options Options) *Paginator { return api.NewWithOptions(options) }
func DefaultOptions() Options                   { return api.DefaultOptions() }

var (
	ErrSuperseded = api.ErrSuperseded
	ErrClosed     = api.ErrClosed
)

var (
	WithPageSize            = api.WithPageSize
	WithPageSizeA4          = api.WithPageSizeA4
	WithPageSizeLetter      = api.WithPageSizeLetter
	WithPageSizeLegal       = api.WithPageSizeLegal
	WithPageOrientation     = api.WithPageOrientation
	WithMargins             = api.WithMargins
	WithGeometry            = api.WithGeometry
	WithHeader              = api.WithHeader
	WithFooter              = api.WithFooter
	WithSettings            = api.WithSettings
	WithBaseURL             = api.WithBaseURL
	WithResourcePath        = api.WithResourcePath
	WithFont                = api.WithFont
	WithWorkers             = api.WithWorkers
	WithLogger              = api.WithLogger
	WithTitle               = api.WithTitle
	WithAuthor              = api.WithAuthor
	WithSubject             = api.WithSubject
	WithKeywords            = api.WithKeywords
	WithUserAgentStylesheet = api.WithUserAgentStylesheet
)

const (
	StatusPaginated = api.StatusPaginated
	StatusDegraded  = api.StatusDegraded

	FrequencyAll   = api.FrequencyAll
	FrequencyFirst = api.FrequencyFirst
	FrequencyEven  = api.FrequencyEven
	FrequencyOdd   = api.FrequencyOdd

	PageSizeA3Width      = api.PageSizeA3Width
	PageSizeA3Height     = api.PageSizeA3Height
	PageSizeA4Width      = api.PageSizeA4Width
	PageSizeA4Height     = api.PageSizeA4Height
	PageSizeA5Width      = api.PageSizeA5Width
	PageSizeA5Height     = api.PageSizeA5Height
	PageSizeLetterWidth  = api.PageSizeLetterWidth
	PageSizeLetterHeight = api.PageSizeLetterHeight
	PageSizeLegalWidth   = api.PageSizeLegalWidth
	PageSizeLegalHeight  = api.PageSizeLegalHeight

	PageOrientationPortrait  = api.PageOrientationPortrait
	PageOrientationLandscape = api.PageOrientationLandscape
)
