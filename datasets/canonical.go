package datasets

import (
	"image"

	"golang.org/x/image/draw"
)

// CanonicalSize is the side of the square an image is rescaled to
const CanonicalSize = 112

// CanonicalPad is the zero border added on every side after rescaling
const CanonicalPad = 44

// CanonicalFrame is the side of a canonical sample raster
const CanonicalFrame = CanonicalSize + 2*CanonicalPad

// Canonicalize converts img to gray, rescales it to a size x size square
// and pads it with pad zero pixels on every side.
func Canonicalize(img image.Image, size, pad int) Raster {
	gray := image.NewGray(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(gray, gray.Bounds(), img, img.Bounds(), draw.Src, nil)

	var r = Raster{Width: size, Height: size, Pix: gray.Pix}
	if gray.Stride != size {
		r = NewRaster(size, size)
		for y := 0; y < size; y++ {
			copy(r.Pix[y*size:(y+1)*size], gray.Pix[y*gray.Stride:])
		}
	}
	return Pad(r, pad)
}

// Pad surrounds r symmetrically with pad zero pixels
func Pad(r Raster, pad int) Raster {
	if pad <= 0 {
		return r
	}
	out := NewRaster(r.Width+2*pad, r.Height+2*pad)
	for y := 0; y < r.Height; y++ {
		copy(out.Pix[(y+pad)*out.Width+pad:], r.Pix[y*r.Width:(y+1)*r.Width])
	}
	return out
}
