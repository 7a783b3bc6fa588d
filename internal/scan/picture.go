package scan

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
)

// Picture is a decoded page image together with its display orientation.
// Stage artifacts are persisted orientation-less (PNG); the orientation lives
// on the page row and is applied on demand.
type Picture struct {
	Image       image.Image
	Orientation Orientation
}

// LoadPicture reads a PNG-encoded stage artifact.
func LoadPicture(r io.Reader) (*Picture, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("load picture: %w", err)
	}
	return &Picture{Image: img}, nil
}

// Write encodes the picture as PNG, ignoring its orientation tag.
func (p *Picture) Write(w io.Writer) error {
	if err := png.Encode(w, p.Image); err != nil {
		return fmt.Errorf("write picture: %w", err)
	}
	return nil
}

// WithOrientation returns a shallow copy tagged with the given orientation.
func (p *Picture) WithOrientation(o Orientation) *Picture {
	return &Picture{Image: p.Image, Orientation: o}
}

// Oriented returns the pixel data rotated according to the orientation tag.
// Undefined and Normal orientations return the image unchanged.
func (p *Picture) Oriented() image.Image {
	switch p.Orientation {
	case OrientationRotate90:
		return rotate(p.Image, 1)
	case OrientationRotate180:
		return rotate(p.Image, 2)
	case OrientationRotate270:
		return rotate(p.Image, 3)
	default:
		return p.Image
	}
}

// rotate turns img by quarters*90 degrees clockwise.
func rotate(img image.Image, quarters int) image.Image {
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	var dst *image.RGBA
	if quarters%2 == 1 {
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(x, y)
			switch quarters {
			case 1:
				dst.SetRGBA(h-1-y, x, c)
			case 2:
				dst.SetRGBA(w-1-x, h-1-y, c)
			case 3:
				dst.SetRGBA(y, w-1-x, c)
			default:
				dst.SetRGBA(x, y, c)
			}
		}
	}
	return dst
}
