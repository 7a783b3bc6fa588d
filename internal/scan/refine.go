package scan

import "fmt"

// ColorProfile selects how the refine step normalizes page colors.
type ColorProfile int

const (
	ProfileOriginal ColorProfile = iota
	ProfileBitonal
	ProfileMonochrome
	ProfileColored
)

var colorProfileNames = map[ColorProfile]string{
	ProfileOriginal:   "Original",
	ProfileBitonal:    "Bitonal",
	ProfileMonochrome: "Monochrome",
	ProfileColored:    "Colored",
}

func (p ColorProfile) String() string {
	if name, ok := colorProfileNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ColorProfile(%d)", int(p))
}

// ParseColorProfile converts a persisted profile name.
func ParseColorProfile(name string) (ColorProfile, error) {
	for p, n := range colorProfileNames {
		if n == name {
			return p, nil
		}
	}
	return ProfileOriginal, fmt.Errorf("unknown color profile %q", name)
}

// Refine aggregates the options passed to the engine's refine step.
type Refine struct {
	Profile       ColorProfile
	StrongShadows bool
}

// CutoutPolicy governs how the Input to Original transition derives the
// working cutout from the page and its Input record.
type CutoutPolicy int

const (
	// CutoutReset uses the auto-detected cutout, flagging the page as
	// "undefined" when detection produced nothing.
	CutoutReset CutoutPolicy = iota

	// CutoutSetup uses the user-supplied cutout.
	CutoutSetup

	// CutoutExpand grows the detected cutout outward.
	CutoutExpand
)

var cutoutPolicyNames = map[CutoutPolicy]string{
	CutoutReset:  "Reset",
	CutoutSetup:  "Setup",
	CutoutExpand: "Expand",
}

func (p CutoutPolicy) String() string {
	if name, ok := cutoutPolicyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("CutoutPolicy(%d)", int(p))
}

// ParseCutoutPolicy converts a persisted policy name.
func ParseCutoutPolicy(name string) (CutoutPolicy, error) {
	for p, n := range cutoutPolicyNames {
		if n == name {
			return p, nil
		}
	}
	return CutoutReset, fmt.Errorf("unknown cutout policy %q", name)
}
