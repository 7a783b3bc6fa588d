package scan

import "fmt"

// Status is the position of a page in the processing pipeline.
//
// The order of the constants is the order of the pipeline: a page only ever
// advances by exactly one stage per watcher commit, and only regresses via an
// explicit user edit (cutout, profile, shadows, paper, orientation).
type Status int

const (
	// StatusInvalid is the terminal failure state. The page keeps its error
	// message and is never picked up by a watcher again.
	StatusInvalid Status = iota

	// StatusInitial means the page only has a source locator, no image yet.
	StatusInitial

	// StatusInput means the source was decoded and a cutout was auto-detected.
	StatusInput

	// StatusOriginal means the image was rectified with the working cutout.
	StatusOriginal

	// StatusPending means the page is queued for color/shadow refinement.
	// This is the stage a page regresses to when processing parameters change.
	StatusPending

	// StatusComplete means refinement is done; the image is presentation-ready.
	StatusComplete

	// StatusOutput means a paper-sized artifact was rendered and encoded.
	StatusOutput
)

var statusNames = map[Status]string{
	StatusInvalid:  "Invalid",
	StatusInitial:  "Initial",
	StatusInput:    "Input",
	StatusOriginal: "Original",
	StatusPending:  "Pending",
	StatusComplete: "Complete",
	StatusOutput:   "Output",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus converts a persisted status name back into a Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return StatusInvalid, fmt.Errorf("unknown page status %q", name)
}

// AtLeast reports whether s has reached the required stage.
func (s Status) AtLeast(required Status) bool {
	return s >= required
}

// Next returns the stage a watcher commit advances to from s.
// Calling Next on Output or Invalid is a programmer error.
func (s Status) Next() Status {
	if s == StatusInvalid || s == StatusOutput {
		panic(fmt.Sprintf("no forward transition from %s", s))
	}
	return s + 1
}

// PastStatuses returns the statuses strictly beyond s, in pipeline order.
// Used for narrowing downgrades: "set status to s only if currently past s".
func (s Status) PastStatuses() []Status {
	past := make([]Status, 0, int(StatusOutput-s))
	for v := s + 1; v <= StatusOutput; v++ {
		past = append(past, v)
	}
	return past
}
