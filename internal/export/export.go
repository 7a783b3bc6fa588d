// Package export turns a ready share session into its final artifact:
// verbatim PNG copies, a multi-page TIFF, a PDF with an optional invisible
// text layer, or plain concatenated text.
package export

import (
	"fmt"

	"github.com/pagemill/pagemill/internal/scan"
)

// Page is one session member, prepared by the export coordinator.
type Page struct {
	// Rendered is the page image rendered onto its configured paper,
	// PNG-encoded. Used by the TIFF and PDF writers.
	Rendered []byte

	// Paper dimensions in millimeters, already in the rendered orientation.
	WidthMM, HeightMM float64

	// Text is the modified recognized text, "" when recognition is not
	// ready for this page.
	Text scan.Text

	// OutputPath is the absolute path of the page's existing output
	// artifact. Used by the PNG writer, which copies instead of re-encoding.
	OutputPath string
}

// Writer produces the export artifact(s) for one session. dir is the target
// directory, title the extension-less base name. Multi-file formats suffix
// the title with a zero-padded page index.
type Writer interface {
	Write(dir, title string, pages []Page) ([]string, error)
}

// ForFormat selects the writer for a session format.
func ForFormat(f scan.ShareFormat) (Writer, error) {
	switch f {
	case scan.SharePNG:
		return pngWriter{}, nil
	case scan.ShareTIFF:
		return tiffWriter{}, nil
	case scan.SharePDF:
		return pdfWriter{}, nil
	case scan.ShareText:
		return textWriter{}, nil
	default:
		return nil, fmt.Errorf("no writer for format %v", f)
	}
}

// pageFileName builds the per-page file name: a bare title for single-page
// sessions, a zero-padded index suffix otherwise.
func pageFileName(title string, index, total int, ext string) string {
	if total == 1 {
		return fmt.Sprintf("%s.%s", title, ext)
	}
	return fmt.Sprintf("%s-%02d.%s", title, index+1, ext)
}
