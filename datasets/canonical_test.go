package datasets

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeFrame(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 28, 28))
	for y := 0; y < 28; y++ {
		for x := 0; x < 28; x++ {
			src.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	r := Canonicalize(src, CanonicalSize, CanonicalPad)
	require.Equal(t, CanonicalFrame, r.Width)
	require.Equal(t, CanonicalFrame, r.Height)
	require.Len(t, r.Pix, CanonicalFrame*CanonicalFrame)

	// border is zero, center is lit
	require.Zero(t, r.At(0, 0))
	require.Zero(t, r.At(CanonicalPad-1, CanonicalFrame/2))
	require.Zero(t, r.At(CanonicalFrame-1, CanonicalFrame-1))
	require.Equal(t, uint8(255), r.At(CanonicalFrame/2, CanonicalFrame/2))
}

func TestPad(t *testing.T) {
	r := NewRaster(2, 1)
	r.Set(0, 0, 1)
	r.Set(1, 0, 2)
	p := Pad(r, 1)
	require.Equal(t, 4, p.Width)
	require.Equal(t, 3, p.Height)
	require.Equal(t, []uint8{
		0, 0, 0, 0,
		0, 1, 2, 0,
		0, 0, 0, 0,
	}, p.Pix)
	require.Equal(t, r, Pad(r, 0))
}

func TestWindow(t *testing.T) {
	var all Window
	require.True(t, all.All())
	require.True(t, all.Contains(0))
	require.True(t, all.Contains(1<<30))

	w := Window{Start: 100, End: 200}
	require.False(t, w.All())
	require.False(t, w.Contains(99))
	require.True(t, w.Contains(100))
	require.True(t, w.Contains(199))
	require.False(t, w.Contains(200))

	open := Window{Start: 5}
	require.False(t, open.Contains(4))
	require.True(t, open.Contains(1000))
}
