package scan

import (
	"context"
	"errors"
	"io"
)

// ErrRecognitionCanceled is returned by a Recognizer when the progress
// callback requested cancellation or the context was canceled mid-run.
var ErrRecognitionCanceled = errors.New("recognition canceled")

// ProgressFunc streams recognition progress. pageIndex is the zero-based page
// inside the engine call (always 0 for single-page recognition), percent is
// 0..100, and lookup is the region the recognizer is currently walking. The
// recognizer checks the return value on every invocation: returning false
// requests cooperative cancellation.
type ProgressFunc func(pageIndex, percent int, lookup Box) bool

// Engine is the opaque imaging library the pipeline is built against. The
// pipeline never touches pixels directly: every transformation goes through
// this contract so the concrete implementation (raster, or a native SDK
// binding) stays swappable.
type Engine interface {
	// Decode reads a source image. The returned picture carries the
	// orientation recorded in the source; the caller is responsible for
	// resetting it and keeping the original value separately.
	Decode(r io.Reader) (*Picture, error)

	// DetectCutout locates the document region in a decoded image. A cutout
	// with Defined=false means detection found nothing usable.
	DetectCutout(p *Picture) (Cutout, error)

	// Rectify crops and deskews the picture to the given cutout.
	Rectify(p *Picture, c Cutout) (*Picture, error)

	// DetectOrientation inspects rectified text to guess the page rotation.
	// It returns true and updates p.Orientation when a confident guess was
	// made. detectorData is an engine-specific model path; an empty value
	// disables detection.
	DetectOrientation(p *Picture, detectorData string) (bool, error)

	// Refine applies color-profile and shadow normalization.
	Refine(p *Picture, opts Refine) (*Picture, error)

	// Preview returns a display-sized copy bounded by maxEdge pixels.
	Preview(p *Picture, maxEdge int) (*Picture, error)

	// Encode renders the picture onto the given paper at its orientation and
	// returns storage-ready bytes.
	Encode(p *Picture, paper Paper, orientation PaperOrientation) ([]byte, error)
}

// Recognizer runs OCR over a page picture. Implementations must invoke
// progress at least once per recognized region and honor its return value
// as well as ctx cancellation, returning ErrRecognitionCanceled for both.
type Recognizer interface {
	Recognize(ctx context.Context, p *Picture, languages []string, progress ProgressFunc) (Text, error)
}
