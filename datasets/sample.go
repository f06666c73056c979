package datasets

// Raster is a row-major grid of 8 bit intensities
type Raster struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewRaster allocates a zeroed raster
func NewRaster(width, height int) Raster {
	return Raster{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the intensity at column x, row y. Out of bounds reads are 0.
func (r Raster) At(x, y int) uint8 {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return 0
	}
	return r.Pix[y*r.Width+x]
}

// Set stores the intensity at column x, row y
func (r Raster) Set(x, y int, v uint8) {
	r.Pix[y*r.Width+x] = v
}

// Empty reports whether the raster holds no pixels
func (r Raster) Empty() bool {
	return len(r.Pix) == 0
}

// Sample is one labeled image. A Placeholder sample carries its label but
// no image; it stands in for a sample outside the decode window and must
// never be fed to training or inference.
type Sample struct {
	Image       Raster
	Label       string
	Placeholder bool
}

// Window is a contiguous range [Start, End) of positions in a sample
// enumeration. End == 0 means unbounded. The zero Window covers everything.
type Window struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// All reports whether the window covers every position
func (w Window) All() bool {
	return w.Start <= 0 && w.End <= 0
}

// Contains reports whether position i falls inside the window
func (w Window) Contains(i int) bool {
	if i < w.Start {
		return false
	}
	return w.End <= 0 || i < w.End
}
