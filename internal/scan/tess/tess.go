// Package tess binds the Tesseract OCR engine (via gosseract) to the
// scan.Recognizer contract.
package tess

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/pagemill/pagemill/internal/scan"
)

// Recognizer runs Tesseract over oriented page pictures. A fresh gosseract
// client is created per call: the client is not safe for concurrent use and
// per-page setup cost is dwarfed by the recognition itself.
type Recognizer struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract-backed recognizer.
func New() *Recognizer {
	return &Recognizer{clientFactory: gosseract.NewClient}
}

var _ scan.Recognizer = (*Recognizer)(nil)

// Recognize extracts text from the picture. Progress is streamed once per
// text line with the line's bounding box as the lookup region; percent is the
// fraction of lines walked so far. Both a canceled ctx and a false return from
// progress abort with scan.ErrRecognitionCanceled.
func (r *Recognizer) Recognize(ctx context.Context, p *scan.Picture, languages []string, progress scan.ProgressFunc) (scan.Text, error) {
	if progress != nil && !progress(0, 0, scan.Box{}) {
		return "", scan.ErrRecognitionCanceled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, p.Oriented()); err != nil {
		return "", fmt.Errorf("encode page for ocr: %w", err)
	}

	c := r.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if langs := normalizeLanguages(languages); len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", scan.ErrRecognitionCanceled
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	// Tesseract has no mid-run hook, so line boxes are replayed after the
	// fact. This keeps the progress contract alive for UI consumers and
	// still honors cancellation between lines.
	lines, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil {
		for i, line := range lines {
			if err := ctx.Err(); err != nil {
				return "", scan.ErrRecognitionCanceled
			}
			percent := (i + 1) * 100 / len(lines)
			lookup := scan.BoxFromRect(line.Box)
			if progress != nil && !progress(0, percent, lookup) {
				return "", scan.ErrRecognitionCanceled
			}
		}
	}
	if progress != nil && !progress(0, 100, scan.Box{}) {
		return "", scan.ErrRecognitionCanceled
	}

	return scan.Text(strings.TrimSpace(text)), nil
}
