package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/pagemill/pagemill/internal/scan"
)

// bitonalThreshold separates ink from paper after shadow flattening.
const bitonalThreshold = 0.55

// Refine applies the color profile and, when requested, flattens strong
// shadows by dividing out the estimated background brightness.
func (e *Engine) Refine(p *scan.Picture, opts scan.Refine) (*scan.Picture, error) {
	src := toRGBA(p.Image)

	if opts.StrongShadows {
		flattenShadows(src)
	}

	switch opts.Profile {
	case scan.ProfileOriginal:
		// Keep colors as scanned.
	case scan.ProfileColored:
		stretchContrast(src)
	case scan.ProfileMonochrome:
		toGray(src)
	case scan.ProfileBitonal:
		toGray(src)
		threshold(src, bitonalThreshold)
	default:
		return nil, fmt.Errorf("refine: unknown profile %v", opts.Profile)
	}

	return &scan.Picture{Image: src, Orientation: p.Orientation}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// flattenShadows estimates the background as the row/column brightness maxima
// and rescales each pixel against it. Cheap but effective for the soft
// gradients a phone camera leaves on paper.
func flattenShadows(img *image.RGBA) {
	b := img.Bounds()
	rowMax := make([]float64, b.Dy())
	colMax := make([]float64, b.Dx())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			l := luminance(img.RGBAAt(x, y))
			if l > rowMax[y] {
				rowMax[y] = l
			}
			if l > colMax[x] {
				colMax[x] = l
			}
		}
	}

	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			background := (rowMax[y] + colMax[x]) / 2
			if background < 0.05 {
				continue
			}
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: scaleChannel(c.R, background),
				G: scaleChannel(c.G, background),
				B: scaleChannel(c.B, background),
				A: c.A,
			})
		}
	}
}

func scaleChannel(v uint8, background float64) uint8 {
	scaled := float64(v) / background
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

// stretchContrast expands the luminance range to full scale.
func stretchContrast(img *image.RGBA) {
	b := img.Bounds()
	lo, hi := 1.0, 0.0
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			l := luminance(img.RGBAAt(x, y))
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
	}
	if hi-lo < 0.05 {
		return
	}

	gain := 1 / (hi - lo)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(x, y)
			img.SetRGBA(x, y, color.RGBA{
				R: stretchChannel(c.R, lo, gain),
				G: stretchChannel(c.G, lo, gain),
				B: stretchChannel(c.B, lo, gain),
				A: c.A,
			})
		}
	}
}

func stretchChannel(v uint8, lo, gain float64) uint8 {
	scaled := (float64(v)/255 - lo) * gain * 255
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

func toGray(img *image.RGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(x, y)
			l := uint8(luminance(c) * 255)
			img.SetRGBA(x, y, color.RGBA{R: l, G: l, B: l, A: c.A})
		}
	}
}

func threshold(img *image.RGBA, cut float64) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := img.RGBAAt(x, y)
			v := uint8(0)
			if luminance(c) >= cut {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: c.A})
		}
	}
}
