package res

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	// decoders for image.DecodeConfig
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultWorkers limits concurrent resource loads in the gate
const DefaultWorkers = 8

// Image is a resolved image reference. A failed load still resolves: Err is
// set and Width/Height are zero so layout falls back to a placeholder.
type Image struct {
	Src      string
	Width    float64
	Height   float64
	Data     []byte
	MimeType string
	Err      error
}

// OK reports whether the image loaded and has an intrinsic size
func (i *Image) OK() bool {
	return i != nil && i.Err == nil && i.Width > 0 && i.Height > 0
}

// SVG reports whether the image data is SVG
func (i *Image) SVG() bool {
	return i != nil && i.MimeType == "image/svg+xml"
}

// FontSource names a font file for a family and style ("", "B", "I", "BI")
type FontSource struct {
	Family string
	Style  string
	Src    string
}

// Font is a resolved font file
type Font struct {
	FontSource
	Data []byte
	Err  error
}

// Assets holds everything the gate resolved for one run
type Assets struct {
	images map[string]*Image
	Fonts  []*Font
}

// Image returns the resolved image for src
func (a *Assets) Image(src string) (*Image, bool) {
	if a == nil {
		return nil, false
	}
	img, ok := a.images[strings.TrimSpace(src)]
	return img, ok
}

// Images returns the number of distinct images resolved
func (a *Assets) Images() int {
	if a == nil {
		return 0
	}
	return len(a.images)
}

// Gate waits until every image referenced by content and every configured
// font has either loaded or failed. Individual failures never fail the gate;
// only cancellation of ctx does.
type Gate struct {
	loader  *Loader
	log     *zap.Logger
	workers int
}

// NewGate creates a readiness gate on top of loader
func NewGate(loader *Loader, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{loader: loader, log: log, workers: DefaultWorkers}
}

// SetWorkers limits the number of concurrent loads
func (g *Gate) SetWorkers(n int) {
	if n > 0 {
		g.workers = n
	}
}

// Wait resolves the images referenced in nodes and the given fonts
func (g *Gate) Wait(ctx context.Context, nodes []*html.Node, fonts []FontSource) (*Assets, error) {
	srcs := ImageSources(nodes...)
	assets := &Assets{images: make(map[string]*Image, len(srcs))}
	for _, src := range srcs {
		assets.images[src] = &Image{Src: src}
	}
	for _, fs := range fonts {
		assets.Fonts = append(assets.Fonts, &Font{FontSource: fs})
	}

	var (
		wg  sync.WaitGroup
		sem = make(chan struct{}, max(g.workers, 1))
	)
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}
			fn()
		}()
	}
	for _, img := range assets.images {
		run(func() { g.loadImage(ctx, img) })
	}
	for _, f := range assets.Fonts {
		run(func() { g.loadFont(ctx, f) })
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var failed error
	for _, img := range assets.images {
		if img.Err != nil {
			failed = multierr.Append(failed, fmt.Errorf("image %s: %w", shortRef(img.Src), img.Err))
		}
	}
	for _, f := range assets.Fonts {
		if f.Err != nil {
			failed = multierr.Append(failed, fmt.Errorf("font %s: %w", f.Src, f.Err))
		}
	}
	if failed != nil {
		g.log.Warn("Some resources did not load, using fallbacks",
			zap.Int("failed", len(multierr.Errors(failed))), zap.Error(failed))
	}
	g.log.Debug("Resources ready", zap.Int("images", len(assets.images)), zap.Int("fonts", len(assets.Fonts)))
	return assets, nil
}

func (g *Gate) loadImage(ctx context.Context, img *Image) {
	res, err := g.loader.LoadImage(ctx, img.Src)
	if err != nil {
		img.Err = err
		return
	}
	img.Data, img.MimeType = res.Data, res.MimeType
	img.Width, img.Height, img.Err = ImageSize(res.Data, res.MimeType)
}

func (g *Gate) loadFont(ctx context.Context, f *Font) {
	res, err := g.loader.LoadFont(ctx, f.Src)
	if err != nil {
		f.Err = err
		return
	}
	f.Data = res.Data
}

// ImageSize returns the intrinsic size of encoded image data in px
func ImageSize(data []byte, mime string) (float64, float64, error) {
	if mime == "image/svg+xml" || looksLikeSVG(data) {
		icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
		if err != nil {
			return 0, 0, fmt.Errorf("unable to read svg: %w", err)
		}
		if icon.ViewBox.W <= 0 || icon.ViewBox.H <= 0 {
			return 0, 0, errors.New("svg has no view box")
		}
		return icon.ViewBox.W, icon.ViewBox.H, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("unable to decode image: %w", err)
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}

// ImageSources lists distinct img sources in document order
func ImageSources(nodes ...*html.Node) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "img") {
			for _, a := range n.Attr {
				if strings.EqualFold(a.Key, "src") {
					if src := strings.TrimSpace(a.Val); src != "" && !seen[src] {
						seen[src] = true
						out = append(out, src)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		if n != nil {
			walk(n)
		}
	}
	return out
}
