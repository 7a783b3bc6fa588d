// Package raster is the pure-Go implementation of the scan.Engine contract.
// It handles PNG and JPEG sources, axis-aligned rectification, and the
// profile/shadow refinement passes. Orientation detection needs a language
// model and is only available through an external recognizer backend.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/draw"

	_ "image/jpeg"

	"github.com/pagemill/pagemill/internal/scan"
)

// renderDPI is the resolution used to map paper millimeters to pixels when
// encoding the output artifact.
const renderDPI = 300

// Engine implements scan.Engine on the standard image packages plus
// golang.org/x/image for high-quality scaling.
type Engine struct{}

// New returns a ready-to-use raster engine.
func New() *Engine {
	return &Engine{}
}

var _ scan.Engine = (*Engine)(nil)

// Decode reads a PNG or JPEG source. The raster formats carry no usable
// orientation metadata, so the returned picture is tagged Undefined.
func (e *Engine) Decode(r io.Reader) (*scan.Picture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	return &scan.Picture{Image: img, Orientation: scan.OrientationUndefined}, nil
}

// DetectCutout finds the bounding box of content that differs from the border
// background. Returns an undefined cutout when the page is blank or the
// content fills the frame (nothing worth cropping).
func (e *Engine) DetectCutout(p *scan.Picture) (scan.Cutout, error) {
	b := p.Image.Bounds()
	if b.Empty() {
		return scan.Cutout{}, fmt.Errorf("detect cutout: empty image")
	}

	background := borderLuminance(p.Image)

	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X, b.Min.Y
	found := false
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if math.Abs(luminance(p.Image.At(x, y))-background) > 0.25 {
				found = true
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if !found {
		return scan.Cutout{}, nil
	}

	w := float64(b.Dx())
	h := float64(b.Dy())
	cut := scan.Cutout{
		X0:      float64(minX-b.Min.X) / w,
		Y0:      float64(minY-b.Min.Y) / h,
		X1:      float64(maxX+1-b.Min.X) / w,
		Y1:      float64(maxY+1-b.Min.Y) / h,
		Defined: true,
	}

	// Content reaching every border means detection found nothing to crop.
	if cut.X0 == 0 && cut.Y0 == 0 && cut.X1 == 1 && cut.Y1 == 1 {
		return scan.Cutout{}, nil
	}
	return cut, nil
}

// Rectify crops the picture to the cutout. An undefined cutout keeps the
// whole frame.
func (e *Engine) Rectify(p *scan.Picture, c scan.Cutout) (*scan.Picture, error) {
	if !c.Defined {
		c = scan.FullCutout()
	}
	rect := c.Rect(p.Image.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("rectify: cutout %v maps to an empty region", c)
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(dst, dst.Bounds(), p.Image, rect.Min, draw.Src)
	return &scan.Picture{Image: dst, Orientation: p.Orientation}, nil
}

// DetectOrientation is unavailable in the raster engine: deciding text
// rotation requires an OCR language model.
func (e *Engine) DetectOrientation(p *scan.Picture, detectorData string) (bool, error) {
	return false, nil
}

// Preview returns a copy scaled down so the longest edge is at most maxEdge.
func (e *Engine) Preview(p *scan.Picture, maxEdge int) (*scan.Picture, error) {
	if maxEdge <= 0 {
		return nil, fmt.Errorf("preview: max edge %d", maxEdge)
	}
	b := p.Image.Bounds()
	longest := max(b.Dx(), b.Dy())
	if longest <= maxEdge {
		return &scan.Picture{Image: p.Image, Orientation: p.Orientation}, nil
	}

	scale := float64(maxEdge) / float64(longest)
	dst := image.NewRGBA(image.Rect(0, 0,
		max(1, int(float64(b.Dx())*scale)),
		max(1, int(float64(b.Dy())*scale))))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), p.Image, b, draw.Src, nil)
	return &scan.Picture{Image: dst, Orientation: p.Orientation}, nil
}

// Encode renders the oriented picture centered on the paper and returns PNG
// bytes. Custom paper ids have no registered dimensions.
func (e *Engine) Encode(p *scan.Picture, paper scan.Paper, orientation scan.PaperOrientation) ([]byte, error) {
	size, ok := paper.Predefined()
	if !ok {
		id, _ := paper.CustomID()
		return nil, fmt.Errorf("encode: custom paper %d has no registered dimensions", id)
	}

	img := p.Oriented()
	wMM, hMM := size.Dimensions()
	if landscapePaper(orientation, img) {
		wMM, hMM = hMM, wMM
	}

	paperW := int(wMM / 25.4 * renderDPI)
	paperH := int(hMM / 25.4 * renderDPI)
	dst := image.NewRGBA(image.Rect(0, 0, paperW, paperH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Fit the image inside the paper, preserving aspect ratio.
	b := img.Bounds()
	scale := math.Min(float64(paperW)/float64(b.Dx()), float64(paperH)/float64(b.Dy()))
	w := max(1, int(float64(b.Dx())*scale))
	h := max(1, int(float64(b.Dy())*scale))
	x := (paperW - w) / 2
	y := (paperH - h) / 2
	draw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), img, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}
	return buf.Bytes(), nil
}

// landscapePaper decides the effective paper rotation; Auto follows the image.
func landscapePaper(o scan.PaperOrientation, img image.Image) bool {
	switch o {
	case scan.PaperLandscape:
		return true
	case scan.PaperAuto:
		b := img.Bounds()
		return b.Dx() > b.Dy()
	default:
		return false
	}
}

// luminance maps a color to [0,1].
func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535
}

// borderLuminance samples the one-pixel frame of the image to estimate the
// background brightness.
func borderLuminance(img image.Image) float64 {
	b := img.Bounds()
	var sum float64
	var n int
	for x := b.Min.X; x < b.Max.X; x++ {
		sum += luminance(img.At(x, b.Min.Y)) + luminance(img.At(x, b.Max.Y-1))
		n += 2
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		sum += luminance(img.At(b.Min.X, y)) + luminance(img.At(b.Max.X-1, y))
		n += 2
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
