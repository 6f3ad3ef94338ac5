package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"github.com/disintegration/imaging"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"go.uber.org/zap"

	"github.com/gompdf/docpager/internal/layout"
	htmlparser "github.com/gompdf/docpager/internal/parser/html"

	// decoders for imaging.Decode
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// svgOversample rasterizes vector images above their box size
	svgOversample = 2
	maxRasterDim  = 4096
)

// renderImage draws an image box. Images without usable data, and images the
// output document cannot embed, are drawn as a placeholder frame.
func (r *Renderer) renderImage(box *layout.ImageBox) {
	if box.Width <= 0 || box.Height <= 0 {
		return
	}
	name, ok := r.imageName(box)
	if !ok {
		r.renderPlaceholder(box)
		return
	}
	r.pdf.ImageOptions(name, pt(box.X), pt(box.Y), pt(box.Width), pt(box.Height), false, fpdf.ImageOptions{}, 0, "")
}

// imageName registers the image of box with the output document once and
// returns its name
func (r *Renderer) imageName(box *layout.ImageBox) (string, bool) {
	if box.Placeholder() {
		return "", false
	}

	var name string
	if box.Image != nil {
		name = box.Image.Src
	} else {
		name = fmt.Sprintf("svg:%p:%.0fx%.0f", box.Node, box.Width, box.Height)
	}
	if ok, seen := r.images[name]; seen {
		return name, ok
	}

	data, kind, err := r.encodeImage(box)
	if err == nil {
		r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
		err = r.pdf.Error()
		if err != nil {
			r.pdf.ClearError()
		}
	}
	if err != nil {
		r.log.Warn("Unable to embed image, using placeholder", zap.String("src", shortName(name)), zap.Error(err))
		r.images[name] = false
		return "", false
	}
	r.images[name] = true
	return name, true
}

// encodeImage returns image data in a format the PDF writer embeds directly
func (r *Renderer) encodeImage(box *layout.ImageBox) ([]byte, string, error) {
	if box.Image == nil {
		markup, err := htmlparser.Render(box.Node)
		if err != nil {
			return nil, "", err
		}
		return rasterizeSVG([]byte(markup), box.Width, box.Height)
	}
	if box.Image.SVG() {
		return rasterizeSVG(box.Image.Data, box.Width, box.Height)
	}

	switch box.Image.MimeType {
	case "image/jpeg":
		return box.Image.Data, "JPG", nil
	case "image/png":
		return box.Image.Data, "PNG", nil
	case "image/gif":
		return box.Image.Data, "GIF", nil
	}
	img, err := imaging.Decode(bytes.NewReader(box.Image.Data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode %s: %w", box.Image.MimeType, err)
	}
	return encodePNG(img)
}

// rasterizeSVG draws svg data on a white canvas sized to the box
func rasterizeSVG(data []byte, width, height float64) ([]byte, string, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, "", fmt.Errorf("unable to read svg: %w", err)
	}
	w := int(math.Ceil(width * svgOversample))
	h := int(math.Ceil(height * svgOversample))
	if w > maxRasterDim || h > maxRasterDim {
		s := min(float64(maxRasterDim)/float64(w), float64(maxRasterDim)/float64(h))
		w = int(math.Round(float64(w) * s))
		h = int(math.Round(float64(h) * s))
	}
	w, h = max(w, 1), max(h, 1)

	icon.SetTarget(0, 0, float64(w), float64(h))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(w, h, scanner), 1.0)
	return encodePNG(dst)
}

func encodePNG(img image.Image) ([]byte, string, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", fmt.Errorf("unable to encode png: %w", err)
	}
	return buf.Bytes(), "PNG", nil
}

// renderPlaceholder draws a light frame with a cross where an image would be
func (r *Renderer) renderPlaceholder(box *layout.ImageBox) {
	x, y, w, h := pt(box.X), pt(box.Y), pt(box.Width), pt(box.Height)
	r.pdf.SetFillColor(245, 245, 245)
	r.pdf.SetDrawColor(190, 190, 190)
	r.pdf.SetLineWidth(0.5)
	r.pdf.Rect(x, y, w, h, "FD")
	r.pdf.Line(x, y, x+w, y+h)
	r.pdf.Line(x, y+h, x+w, y)
}

func shortName(name string) string {
	if len(name) > 64 {
		return name[:61] + "..."
	}
	return name
}
