package scan

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCutout_EncodeDecode(t *testing.T) {
	c := Cutout{X0: 0.1, Y0: 0.2, X1: 0.9, Y1: 0.8, Defined: true}

	back, err := DecodeCutout(EncodeCutout(c))
	require.NoError(t, err)
	assert.Equal(t, c, back)

	// Empty string is the persisted form of "no cutout".
	back, err = DecodeCutout("")
	require.NoError(t, err)
	assert.False(t, back.Defined)
}

func TestCutout_ExpandClampsToImage(t *testing.T) {
	c := Cutout{X0: 0.05, Y0: 0.05, X1: 0.95, Y1: 0.95, Defined: true}
	e := c.Expand(0.1)

	assert.Equal(t, 0.0, e.X0)
	assert.Equal(t, 1.0, e.X1)
	assert.True(t, e.Defined)
	assert.Less(t, e.Y0, c.Y0)
	assert.Greater(t, e.Y1, c.Y1)
}

func TestCutout_RectMapsToPixels(t *testing.T) {
	c := Cutout{X0: 0.25, Y0: 0.25, X1: 0.75, Y1: 0.75, Defined: true}
	r := c.Rect(image.Rect(0, 0, 100, 200))
	assert.Equal(t, image.Rect(25, 50, 75, 150), r)
}

func TestBox_EncodeDecode(t *testing.T) {
	b := Box{X0: 1, Y0: 2, X1: 30, Y1: 40}
	back, err := DecodeBox(EncodeBox(b))
	require.NoError(t, err)
	assert.Equal(t, b, back)

	assert.Equal(t, "", EncodeBox(Box{}), "empty box persists as empty string")
	back, err = DecodeBox("")
	require.NoError(t, err)
	assert.True(t, back.Empty())
}

func TestOrientation_Rotation(t *testing.T) {
	o := OrientationNormal
	for i := 0; i < 4; i++ {
		o = o.RotateCW()
	}
	assert.Equal(t, OrientationNormal, o, "four quarter turns are identity")

	assert.Equal(t, OrientationRotate270, OrientationNormal.RotateCCW())
	assert.Equal(t, OrientationUndefined, OrientationUndefined.RotateCW(),
		"undefined orientation never rotates")
}
