package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
)

// tiffWriter emits one baseline TIFF holding all session pages as chained
// image file directories. Uncompressed 8-bit RGB, one strip per page,
// little-endian. Encoders in the x/image tree only write a single directory,
// so the container layout is produced here.
type tiffWriter struct{}

func (tiffWriter) Write(dir, title string, pages []Page) ([]string, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("tiff export: empty session")
	}

	imgs := make([]image.Image, len(pages))
	for i, p := range pages {
		img, err := png.Decode(bytes.NewReader(p.Rendered))
		if err != nil {
			return nil, fmt.Errorf("tiff export: decode page %d: %w", i, err)
		}
		imgs[i] = img
	}

	var buf tiffBuffer
	// Header: byte order, magic, patched pointer to the first IFD.
	buf.bytes('I', 'I')
	buf.u16(42)
	firstIFD := buf.reserveU32()

	prevNext := firstIFD
	for i, img := range imgs {
		dpi := pageDPI(img, pages[i])
		ifdOffset := buf.writeFrame(img, dpi)
		buf.patchU32(prevNext, ifdOffset)
		prevNext = buf.nextIFD
	}
	buf.patchU32(prevNext, 0)

	dst := filepath.Join(dir, title+".tiff")
	if err := os.WriteFile(dst, buf.data, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", dst, err)
	}
	return []string{dst}, nil
}

func pageDPI(img image.Image, p Page) uint32 {
	if p.WidthMM <= 0 {
		return 300
	}
	dpi := float64(img.Bounds().Dx()) / (p.WidthMM / 25.4)
	return uint32(math.Round(dpi))
}

// tiffBuffer is a little-endian byte builder with in-place patching for the
// IFD chain pointers.
type tiffBuffer struct {
	data    []byte
	nextIFD int // position of the last written next-IFD pointer
}

func (b *tiffBuffer) bytes(p ...byte) { b.data = append(b.data, p...) }

func (b *tiffBuffer) u16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

func (b *tiffBuffer) u32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

func (b *tiffBuffer) reserveU32() int {
	pos := len(b.data)
	b.u32(0)
	return pos
}

func (b *tiffBuffer) patchU32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[pos:], v)
}

const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagPhotometric     = 262
	tagStripOffsets    = 273
	tagSamplesPerPixel = 277
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagXResolution     = 282
	tagYResolution     = 283
	tagResolutionUnit  = 296

	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// writeFrame appends one page's pixel strip, its out-of-line tag values and
// its IFD, returning the IFD offset. The IFD's next pointer is left zeroed
// at b.nextIFD for the caller to patch.
func (b *tiffBuffer) writeFrame(img image.Image, dpi uint32) uint32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	stripOffset := uint32(len(b.data))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			b.bytes(byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	stripBytes := uint32(w * h * 3)

	// Out-of-line values: three 8-bit samples, then the two resolutions.
	bpsOffset := uint32(len(b.data))
	b.u16(8)
	b.u16(8)
	b.u16(8)
	xresOffset := uint32(len(b.data))
	b.u32(dpi)
	b.u32(1)
	yresOffset := uint32(len(b.data))
	b.u32(dpi)
	b.u32(1)

	ifdOffset := uint32(len(b.data))
	entry := func(tag, typ uint16, count, value uint32) {
		b.u16(tag)
		b.u16(typ)
		b.u32(count)
		b.u32(value)
	}
	b.u16(12) // entry count; tags in ascending order
	entry(tagImageWidth, typeLong, 1, uint32(w))
	entry(tagImageLength, typeLong, 1, uint32(h))
	entry(tagBitsPerSample, typeShort, 3, bpsOffset)
	entry(tagCompression, typeShort, 1, 1)
	entry(tagPhotometric, typeShort, 1, 2)
	entry(tagStripOffsets, typeLong, 1, stripOffset)
	entry(tagSamplesPerPixel, typeShort, 1, 3)
	entry(tagRowsPerStrip, typeLong, 1, uint32(h))
	entry(tagStripByteCounts, typeLong, 1, stripBytes)
	entry(tagXResolution, typeRational, 1, xresOffset)
	entry(tagYResolution, typeRational, 1, yresOffset)
	entry(tagResolutionUnit, typeShort, 1, 2)
	b.nextIFD = b.reserveU32()

	return ifdOffset
}
