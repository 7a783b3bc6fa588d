package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_RoundTripNames(t *testing.T) {
	for s := StatusInvalid; s <= StatusOutput; s++ {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("Bogus")
	assert.Error(t, err)
}

func TestStatus_NextAdvancesBySingleStage(t *testing.T) {
	order := []Status{StatusInitial, StatusInput, StatusOriginal, StatusPending, StatusComplete, StatusOutput}
	for i := 0; i < len(order)-1; i++ {
		assert.Equal(t, order[i+1], order[i].Next())
	}

	assert.Panics(t, func() { StatusOutput.Next() })
	assert.Panics(t, func() { StatusInvalid.Next() })
}

func TestStatus_PastStatuses(t *testing.T) {
	assert.Equal(t,
		[]Status{StatusOriginal, StatusPending, StatusComplete, StatusOutput},
		StatusInput.PastStatuses())
	assert.Empty(t, StatusOutput.PastStatuses())
}

func TestRecognitionTask_CounterParity(t *testing.T) {
	tests := []struct {
		name    string
		counter int
		nothing bool
		ready   bool
		pending bool
	}{
		{"nothing", CounterNothing, true, false, false},
		{"ready", CounterReady, false, true, false},
		{"first request over nothing", CounterNothing + 2, false, false, true},
		{"first request over ready", CounterReady + 2, false, false, true},
		{"superseded twice", CounterReady + 4, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := RecognitionTask{Counter: tt.counter}
			assert.Equal(t, tt.nothing, task.Nothing())
			assert.Equal(t, tt.ready, task.Ready())
			assert.Equal(t, tt.pending, task.Pending())
		})
	}
}

func TestSettledTask(t *testing.T) {
	assert.True(t, SettledTask(true).Ready())
	assert.True(t, SettledTask(false).Nothing())
	assert.Equal(t, JobCancel, SettledTask(true).Job)
}
