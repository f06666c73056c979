package inference

import (
	"github.com/neurlang/rcnbatch/learning"
	"github.com/neurlang/rcnbatch/model"
)

// presence answers "is there a feature of orientation f near (r, c)" in
// constant time using one summed area table per orientation.
type presence struct {
	w, h int
	sums [learning.Orientations][]int32
}

func newPresence(w, h int, frcs []model.FeatureResponse) *presence {
	p := &presence{w: w, h: h}
	stride := w + 1
	for f := range p.sums {
		p.sums[f] = make([]int32, stride*(h+1))
	}
	for _, fr := range frcs {
		p.sums[fr.F][(int(fr.R)+1)*stride+int(fr.C)+1]++
	}
	for f := range p.sums {
		s := p.sums[f]
		for y := 1; y <= h; y++ {
			for x := 1; x <= w; x++ {
				s[y*stride+x] += s[(y-1)*stride+x] + s[y*stride+x-1] - s[(y-1)*stride+x-1]
			}
		}
	}
	return p
}

// any reports whether a feature of orientation f, or an adjacent one, lies
// within dr rows and dc columns of (r, c)
func (p *presence) any(f int32, r, c, dr, dc int) bool {
	for _, o := range [3]int32{f, (f + 1) % learning.Orientations, (f + learning.Orientations - 1) % learning.Orientations} {
		if p.count(o, r-dr, c-dc, r+dr, c+dc) > 0 {
			return true
		}
	}
	return false
}

// count sums the features of orientation f in the inclusive rectangle
func (p *presence) count(f int32, r0, c0, r1, c1 int) int32 {
	r0, c0 = max(r0, 0), max(c0, 0)
	r1, c1 = min(r1, p.h-1), min(c1, p.w-1)
	if r0 > r1 || c0 > c1 {
		return 0
	}
	stride := p.w + 1
	s := p.sums[f]
	return s[(r1+1)*stride+c1+1] - s[r0*stride+c1+1] - s[(r1+1)*stride+c0] + s[r0*stride+c0]
}
