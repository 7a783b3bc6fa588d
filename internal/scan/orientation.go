package scan

import "fmt"

// Orientation is the rotation applied to a page image before display,
// recognition, and export. Undefined means "not decided yet": decode resets
// the tag and the original value is kept on the Input satellite record.
type Orientation int

const (
	OrientationUndefined Orientation = iota
	OrientationNormal
	OrientationRotate90
	OrientationRotate180
	OrientationRotate270
)

var orientationNames = map[Orientation]string{
	OrientationUndefined: "Undefined",
	OrientationNormal:    "Normal",
	OrientationRotate90:  "Rotate90",
	OrientationRotate180: "Rotate180",
	OrientationRotate270: "Rotate270",
}

func (o Orientation) String() string {
	if name, ok := orientationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// Defined reports whether the orientation was decided (by the user or by the
// text-orientation detector).
func (o Orientation) Defined() bool {
	return o != OrientationUndefined
}

// RotateCW returns the orientation after a clockwise quarter turn.
func (o Orientation) RotateCW() Orientation {
	switch o {
	case OrientationNormal:
		return OrientationRotate90
	case OrientationRotate90:
		return OrientationRotate180
	case OrientationRotate180:
		return OrientationRotate270
	case OrientationRotate270:
		return OrientationNormal
	default:
		return o
	}
}

// RotateCCW returns the orientation after a counterclockwise quarter turn.
func (o Orientation) RotateCCW() Orientation {
	switch o {
	case OrientationNormal:
		return OrientationRotate270
	case OrientationRotate90:
		return OrientationNormal
	case OrientationRotate180:
		return OrientationRotate90
	case OrientationRotate270:
		return OrientationRotate180
	default:
		return o
	}
}
