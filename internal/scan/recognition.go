package scan

import "fmt"

// Text is the recognized page text. The empty string means "no text".
type Text string

// Ready reports whether the text carries a recognition result.
func (t Text) Ready() bool {
	return t != ""
}

// Recognition counter checkpoints. The counter starts at CounterNothing and is
// bumped by exactly 2 on every new Recognize/Clear/Modify/Cancel request, so a
// value above CounterReady always means an outstanding request, regardless of
// how many requests were superseded in between.
const (
	CounterNothing = 0
	CounterReady   = 1
)

// RecognitionJob is the kind of work requested for a page's text.
type RecognitionJob int

const (
	// JobCancel stops the current task without touching stored text.
	JobCancel RecognitionJob = iota

	// JobClear wipes both the original and the modified text.
	JobClear

	// JobModify overwrites the modified text only, leaving the original
	// recognition result untouched.
	JobModify

	// JobRecognize runs the OCR engine and stores a fresh text pair.
	JobRecognize
)

var recognitionJobNames = map[RecognitionJob]string{
	JobCancel:    "Cancel",
	JobClear:     "Clear",
	JobModify:    "Modify",
	JobRecognize: "Recognize",
}

func (j RecognitionJob) String() string {
	if name, ok := recognitionJobNames[j]; ok {
		return name
	}
	return fmt.Sprintf("RecognitionJob(%d)", int(j))
}

// ParseRecognitionJob converts a persisted job name.
func ParseRecognitionJob(name string) (RecognitionJob, error) {
	for j, n := range recognitionJobNames {
		if n == name {
			return j, nil
		}
	}
	return JobCancel, fmt.Errorf("unknown recognition job %q", name)
}

// RecognitionTask is the OCR sub-pipeline state embedded in a page.
type RecognitionTask struct {
	// Counter encodes the task lifecycle: CounterNothing (no result),
	// CounterReady (result stored), anything above means a pending request.
	Counter int

	Job RecognitionJob

	// Languages overrides the process-wide default language set when
	// non-empty. Comma-separated tesseract codes, e.g. "eng,deu".
	Languages string

	// ModifiedText carries the replacement text for JobModify.
	ModifiedText Text
}

// Nothing reports that the page has no recognition result and no request.
func (t RecognitionTask) Nothing() bool {
	return t.Counter == CounterNothing
}

// Ready reports that a recognition result is stored and no request is pending.
func (t RecognitionTask) Ready() bool {
	return t.Counter == CounterReady
}

// Pending reports that a request is outstanding.
func (t RecognitionTask) Pending() bool {
	return t.Counter > CounterReady
}

// SettledTask is the state a task collapses to once its job finishes.
func SettledTask(ready bool) RecognitionTask {
	counter := CounterNothing
	if ready {
		counter = CounterReady
	}
	return RecognitionTask{Counter: counter, Job: JobCancel}
}
