package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperCode_RoundTripPredefined(t *testing.T) {
	sizes := []PaperSize{
		PaperLetter, PaperLegal, PaperA3, PaperA4, PaperA5,
		PaperB4, PaperB5, PaperExecutive, PaperUS4x6, PaperUS4x8,
		PaperUS5x7, PaperCOMM10, PaperBusinessCard,
	}

	for _, size := range sizes {
		t.Run(size.String(), func(t *testing.T) {
			p := PredefinedPaper(size)
			code := p.Code()
			assert.Less(t, code, int64(0), "predefined papers encode negative")

			back := PaperFromCode(code)
			got, ok := back.Predefined()
			require.True(t, ok)
			assert.Equal(t, size, got)
		})
	}
}

func TestPaperCode_RoundTripCustom(t *testing.T) {
	for _, id := range []int64{0, 1, 42, 1 << 40} {
		p := CustomPaper(id)
		back := PaperFromCode(p.Code())

		got, ok := back.CustomID()
		require.True(t, ok, "custom id %d", id)
		assert.Equal(t, id, got)
	}
}

func TestPaperCode_VariantsNeverCollide(t *testing.T) {
	// Predefined codes are negative, custom ids non-negative, so the two
	// value spaces cannot overlap.
	seen := map[int64]string{}
	for s := PaperLetter; s <= PaperBusinessCard; s++ {
		code := PredefinedPaper(s).Code()
		require.NotContains(t, seen, code)
		seen[code] = s.String()
	}
	for _, id := range []int64{0, 1, 12} {
		code := CustomPaper(id).Code()
		require.NotContains(t, seen, code)
		seen[code] = "custom"
	}
}

func TestCustomPaper_RejectsNegativeID(t *testing.T) {
	assert.Panics(t, func() { CustomPaper(-1) })
}

func TestPaperSize_DimensionsArePortrait(t *testing.T) {
	for s := PaperLetter; s <= PaperBusinessCard; s++ {
		w, h := s.Dimensions()
		assert.Greater(t, w, 0.0)
		assert.GreaterOrEqual(t, h, w, "%s must be portrait", s)
	}
}
