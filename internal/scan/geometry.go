package scan

import (
	"encoding/json"
	"fmt"
	"image"
)

// Cutout is the rectangular region used to rectify a page image.
// Coordinates are normalized to [0,1] relative to the source image so a
// cutout survives preview scaling. Defined distinguishes a detected or
// user-supplied region from "detection found nothing".
type Cutout struct {
	X0, Y0  float64
	X1, Y1  float64
	Defined bool
}

// FullCutout covers the entire image.
func FullCutout() Cutout {
	return Cutout{X0: 0, Y0: 0, X1: 1, Y1: 1, Defined: true}
}

// Expand grows the cutout outward by the given fraction of its own size,
// clamped to the image. Used by the Expand cutout policy.
func (c Cutout) Expand(fraction float64) Cutout {
	dx := (c.X1 - c.X0) * fraction
	dy := (c.Y1 - c.Y0) * fraction
	out := Cutout{
		X0:      max(0, c.X0-dx),
		Y0:      max(0, c.Y0-dy),
		X1:      min(1, c.X1+dx),
		Y1:      min(1, c.Y1+dy),
		Defined: c.Defined,
	}
	return out
}

// Rect maps the cutout onto pixel coordinates of the given image bounds.
func (c Cutout) Rect(bounds image.Rectangle) image.Rectangle {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	return image.Rect(
		bounds.Min.X+int(c.X0*w),
		bounds.Min.Y+int(c.Y0*h),
		bounds.Min.X+int(c.X1*w),
		bounds.Min.Y+int(c.Y1*h),
	).Intersect(bounds)
}

type cutoutJSON struct {
	X0      float64 `json:"x0"`
	Y0      float64 `json:"y0"`
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	Defined bool    `json:"defined"`
}

// EncodeCutout serializes a cutout for a TEXT column.
func EncodeCutout(c Cutout) string {
	raw, err := json.Marshal(cutoutJSON(c))
	if err != nil {
		// Marshalling a flat struct of numbers cannot fail.
		panic(err)
	}
	return string(raw)
}

// DecodeCutout parses a cutout persisted by EncodeCutout.
// The empty string decodes to an undefined cutout.
func DecodeCutout(s string) (Cutout, error) {
	if s == "" {
		return Cutout{}, nil
	}
	var raw cutoutJSON
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return Cutout{}, fmt.Errorf("decode cutout: %w", err)
	}
	return Cutout(raw), nil
}

// Box is an integer pixel rectangle reported by the recognizer while it walks
// the page (the "lookup" region shown to the user).
type Box struct {
	X0, Y0 int
	X1, Y1 int
}

// BoxFromRect converts an image.Rectangle.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X0: r.Min.X, Y0: r.Min.Y, X1: r.Max.X, Y1: r.Max.Y}
}

// Empty reports whether the box covers no pixels.
func (b Box) Empty() bool {
	return b.X0 >= b.X1 || b.Y0 >= b.Y1
}

// EncodeBox serializes a box for a TEXT column; the zero box encodes to "".
func EncodeBox(b Box) string {
	if b.Empty() {
		return ""
	}
	raw, _ := json.Marshal(b)
	return string(raw)
}

// DecodeBox parses a box persisted by EncodeBox.
func DecodeBox(s string) (Box, error) {
	if s == "" {
		return Box{}, nil
	}
	var b Box
	if err := json.Unmarshal([]byte(s), &b); err != nil {
		return Box{}, fmt.Errorf("decode box: %w", err)
	}
	return b, nil
}
