package scan

import "fmt"

// PaperSize is one of the predefined output paper formats.
type PaperSize int

const (
	PaperLetter PaperSize = iota
	PaperLegal
	PaperA3
	PaperA4
	PaperA5
	PaperB4
	PaperB5
	PaperExecutive
	PaperUS4x6
	PaperUS4x8
	PaperUS5x7
	PaperCOMM10
	PaperBusinessCard
)

var paperSizeNames = [...]string{
	PaperLetter:       "Letter",
	PaperLegal:        "Legal",
	PaperA3:           "A3",
	PaperA4:           "A4",
	PaperA5:           "A5",
	PaperB4:           "B4",
	PaperB5:           "B5",
	PaperExecutive:    "Executive",
	PaperUS4x6:        "US4x6",
	PaperUS4x8:        "US4x8",
	PaperUS5x7:        "US5x7",
	PaperCOMM10:       "COMM10",
	PaperBusinessCard: "BusinessCard",
}

func (s PaperSize) String() string {
	if s >= 0 && int(s) < len(paperSizeNames) {
		return paperSizeNames[s]
	}
	return fmt.Sprintf("PaperSize(%d)", int(s))
}

// ParsePaperSize converts a paper size name.
func ParsePaperSize(name string) (PaperSize, error) {
	for s, n := range paperSizeNames {
		if n == name {
			return PaperSize(s), nil
		}
	}
	return PaperA4, fmt.Errorf("unknown paper size %q", name)
}

// Dimensions returns the portrait width and height of the paper in
// millimeters.
func (s PaperSize) Dimensions() (widthMM, heightMM float64) {
	switch s {
	case PaperLetter:
		return 215.9, 279.4
	case PaperLegal:
		return 215.9, 355.6
	case PaperA3:
		return 297, 420
	case PaperA4:
		return 210, 297
	case PaperA5:
		return 148, 210
	case PaperB4:
		return 250, 353
	case PaperB5:
		return 176, 250
	case PaperExecutive:
		return 184.1, 266.7
	case PaperUS4x6:
		return 101.6, 152.4
	case PaperUS4x8:
		return 101.6, 203.2
	case PaperUS5x7:
		return 127, 177.8
	case PaperCOMM10:
		return 104.8, 241.3
	case PaperBusinessCard:
		return 55, 85
	default:
		return 210, 297
	}
}

// PaperOrientation selects portrait or landscape rendering; Auto lets the
// writer match the orientation of the page image.
type PaperOrientation int

const (
	PaperAuto PaperOrientation = iota
	PaperPortrait
	PaperLandscape
)

var paperOrientationNames = map[PaperOrientation]string{
	PaperAuto:      "Auto",
	PaperPortrait:  "Portrait",
	PaperLandscape: "Landscape",
}

func (o PaperOrientation) String() string {
	if name, ok := paperOrientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("PaperOrientation(%d)", int(o))
}

// ParsePaperOrientation converts a persisted orientation name.
func ParsePaperOrientation(name string) (PaperOrientation, error) {
	for o, n := range paperOrientationNames {
		if n == name {
			return o, nil
		}
	}
	return PaperAuto, fmt.Errorf("unknown paper orientation %q", name)
}

// Paper is a tagged union: either one of the predefined sizes or an opaque
// custom numeric id registered elsewhere. Each variant carries only the field
// valid for its case.
type Paper struct {
	predefined PaperSize
	customID   int64
	custom     bool
}

// PredefinedPaper wraps a predefined size.
func PredefinedPaper(size PaperSize) Paper {
	return Paper{predefined: size}
}

// CustomPaper wraps a custom paper id. Ids are non-negative.
func CustomPaper(id int64) Paper {
	if id < 0 {
		panic(fmt.Sprintf("custom paper id must be non-negative, got %d", id))
	}
	return Paper{customID: id, custom: true}
}

// Predefined returns the predefined size, if any.
func (p Paper) Predefined() (PaperSize, bool) {
	if p.custom {
		return 0, false
	}
	return p.predefined, true
}

// CustomID returns the custom id, if any.
func (p Paper) CustomID() (int64, bool) {
	if !p.custom {
		return 0, false
	}
	return p.customID, true
}

func (p Paper) String() string {
	if p.custom {
		return fmt.Sprintf("Custom(%d)", p.customID)
	}
	return p.predefined.String()
}

// Code encodes the paper for an INTEGER column: custom ids are stored as-is,
// predefined sizes as negative values. Code and PaperFromCode are a bijection
// over every predefined size and every non-negative custom id.
func (p Paper) Code() int64 {
	if p.custom {
		return p.customID
	}
	return -(int64(p.predefined) + 1)
}

// PaperFromCode decodes the value produced by Code.
func PaperFromCode(code int64) Paper {
	if code >= 0 {
		return CustomPaper(code)
	}
	return PredefinedPaper(PaperSize(-(code + 1)))
}
