package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagemill/pagemill/internal/scan"
)

// documentOnBackground paints a dark rectangle on a white frame, mimicking a
// photographed page.
func documentOnBackground(w, h int, doc image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 250, G: 250, B: 250, A: 255}
			if image.Pt(x, y).In(doc) {
				c = color.RGBA{R: 40, G: 40, B: 40, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_PNG(t *testing.T) {
	e := New()
	src := documentOnBackground(64, 48, image.Rect(10, 10, 30, 30))

	pic, err := e.Decode(bytes.NewReader(encodePNG(t, src)))
	require.NoError(t, err)
	assert.Equal(t, 64, pic.Image.Bounds().Dx())
	assert.Equal(t, scan.OrientationUndefined, pic.Orientation)
}

func TestDecode_Garbage(t *testing.T) {
	e := New()
	_, err := e.Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestDetectCutout_FindsDocument(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(100, 100, image.Rect(20, 30, 80, 70))}

	cut, err := e.DetectCutout(pic)
	require.NoError(t, err)
	require.True(t, cut.Defined)

	assert.InDelta(t, 0.2, cut.X0, 0.02)
	assert.InDelta(t, 0.3, cut.Y0, 0.02)
	assert.InDelta(t, 0.8, cut.X1, 0.02)
	assert.InDelta(t, 0.7, cut.Y1, 0.02)
}

func TestDetectCutout_BlankPage(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(50, 50, image.Rectangle{})}

	cut, err := e.DetectCutout(pic)
	require.NoError(t, err)
	assert.False(t, cut.Defined)
}

func TestRectify_CropsToCutout(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(100, 100, image.Rect(0, 0, 100, 100))}

	out, err := e.Rectify(pic, scan.Cutout{X0: 0.25, Y0: 0.25, X1: 0.75, Y1: 0.75, Defined: true})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Image.Bounds().Dx())
	assert.Equal(t, 50, out.Image.Bounds().Dy())
}

func TestRectify_UndefinedCutoutKeepsFrame(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(60, 40, image.Rectangle{})}

	out, err := e.Rectify(pic, scan.Cutout{})
	require.NoError(t, err)
	assert.Equal(t, 60, out.Image.Bounds().Dx())
	assert.Equal(t, 40, out.Image.Bounds().Dy())
}

func TestPreview_BoundsLongestEdge(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(800, 400, image.Rectangle{})}

	out, err := e.Preview(pic, 200)
	require.NoError(t, err)
	assert.Equal(t, 200, out.Image.Bounds().Dx())
	assert.Equal(t, 100, out.Image.Bounds().Dy())

	// Already small enough: no scaling.
	small := &scan.Picture{Image: documentOnBackground(100, 50, image.Rectangle{})}
	out, err = e.Preview(small, 200)
	require.NoError(t, err)
	assert.Equal(t, 100, out.Image.Bounds().Dx())
}

func TestRefine_BitonalLeavesTwoLevels(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(40, 40, image.Rect(10, 10, 30, 30))}

	out, err := e.Refine(pic, scan.Refine{Profile: scan.ProfileBitonal})
	require.NoError(t, err)

	rgba := out.Image.(*image.RGBA)
	levels := map[uint8]bool{}
	b := rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			levels[rgba.RGBAAt(x, y).R] = true
		}
	}
	assert.LessOrEqual(t, len(levels), 2)
}

func TestRefine_MonochromeIsGray(t *testing.T) {
	e := New()
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 200, G: 30, B: 90, A: 255})
		}
	}

	out, err := e.Refine(&scan.Picture{Image: src}, scan.Refine{Profile: scan.ProfileMonochrome})
	require.NoError(t, err)

	c := out.Image.(*image.RGBA).RGBAAt(3, 3)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}

func TestEncode_PaperAspect(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(100, 150, image.Rect(10, 10, 90, 140))}

	data, err := e.Encode(pic, scan.PredefinedPaper(scan.PaperA4), scan.PaperPortrait)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// A4 portrait at 300 DPI.
	assert.Equal(t, 2480, img.Bounds().Dx())
	assert.Equal(t, 3507, img.Bounds().Dy())
}

func TestEncode_CustomPaperRejected(t *testing.T) {
	e := New()
	pic := &scan.Picture{Image: documentOnBackground(10, 10, image.Rectangle{})}

	_, err := e.Encode(pic, scan.CustomPaper(7), scan.PaperPortrait)
	assert.Error(t, err)
}
