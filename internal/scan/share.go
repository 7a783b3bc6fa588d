package scan

import "fmt"

// ShareFormat selects the artifact a share session produces.
type ShareFormat int

const (
	SharePNG ShareFormat = iota
	ShareTIFF
	SharePDF
	ShareText
)

var shareFormatNames = map[ShareFormat]string{
	SharePNG:  "PNG",
	ShareTIFF: "TIFF",
	SharePDF:  "PDF",
	ShareText: "Text",
}

func (f ShareFormat) String() string {
	if name, ok := shareFormatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("ShareFormat(%d)", int(f))
}

// Ext returns the file extension for exported artifacts of this format.
func (f ShareFormat) Ext() string {
	switch f {
	case SharePNG:
		return "png"
	case ShareTIFF:
		return "tiff"
	case SharePDF:
		return "pdf"
	default:
		return "txt"
	}
}

func ParseShareFormat(name string) (ShareFormat, error) {
	for f, n := range shareFormatNames {
		if n == name {
			return f, nil
		}
	}
	return SharePNG, fmt.Errorf("unknown share format %q", name)
}
