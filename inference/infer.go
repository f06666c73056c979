// Package inference scores test samples against trained templates and
// evaluates the predictions against ground truth.
package inference

import (
	"context"
	"math"
	"sort"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/learning"
	"github.com/neurlang/rcnbatch/model"
)

// Params are the fixed hyperparameters of inference
type Params struct {
	PoolShape     [2]int // rows, cols a feature may shift and still match
	NumCandidates int    // templates kept after the forward pass
	Iterations    int    // cap on backward pass refinement rounds
	Features      learning.HyperParameters
}

// DefaultParams mirror the experiment driver's defaults
func DefaultParams() Params {
	return Params{
		PoolShape:     [2]int{25, 25},
		NumCandidates: 5,
		Iterations:    20,
		Features:      learning.Default(),
	}
}

// Prediction is the best matching template of one sample
type Prediction struct {
	Winner int
	Score  float64
}

// Infer finds the template of m best matching sample s. A forward pass
// scores every template by the share of its features found within the
// pool window; the best NumCandidates are refined by a backward pass that
// places each feature so as to satisfy the template's edge factors.
func Infer(ctx context.Context, s datasets.Sample, m *model.AggregatedModel, p Params) (Prediction, error) {
	if s.Placeholder {
		return Prediction{}, errors.Input("placeholder sample of class %q cannot be scored", s.Label)
	}
	if m.Len() == 0 {
		return Prediction{}, errors.Input("model has no templates")
	}
	if p.NumCandidates <= 0 {
		p.NumCandidates = 1
	}
	if p.Iterations <= 0 {
		p.Iterations = 1
	}

	test := learning.Features(s.Image, p.Features)
	sat := newPresence(s.Image.Width, s.Image.Height, test)
	dr, dc := p.PoolShape[0]/2, p.PoolShape[1]/2

	forward := make([]float64, m.Len())
	for t := 0; t < m.Len(); t++ {
		frcs := m.Frcs[t]
		if len(frcs) == 0 {
			continue
		}
		var hits int
		for _, f := range frcs {
			if sat.any(f.F, int(f.R), int(f.C), dr, dc) {
				hits++
			}
		}
		forward[t] = float64(hits) / float64(len(frcs))
	}

	order := make([]int, len(forward))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return forward[order[a]] > forward[order[b]]
	})
	if len(order) > p.NumCandidates {
		order = order[:p.NumCandidates]
	}

	best := Prediction{Winner: order[0], Score: math.Inf(-1)}
	for _, t := range order {
		if err := ctx.Err(); err != nil {
			return Prediction{}, err
		}
		score := forward[t]
		if factors := m.EdgeFactors[t]; len(factors) > 0 {
			score = (score + backward(m.Frcs[t], factors, test, dr, dc, p.Iterations)) / 2
		}
		if score > best.Score || (score == best.Score && t < best.Winner) {
			best = Prediction{Winner: t, Score: score}
		}
	}
	return best, nil
}

// backward returns the share of edge factors satisfied after placing every
// template feature on one of its matching test features.
func backward(frcs []model.FeatureResponse, factors []model.EdgeFactor, test []model.FeatureResponse, dr, dc, iterations int) float64 {
	const maxChoices = 5
	choices := make([][]model.FeatureResponse, len(frcs))
	for i, f := range frcs {
		choices[i] = matches(f, test, dr, dc, maxChoices)
	}
	adj := make([][]int, len(frcs))
	for k, e := range factors {
		adj[e.I] = append(adj[e.I], k)
		adj[e.J] = append(adj[e.J], k)
	}

	placed := make([]int, len(frcs))
	for i := range placed {
		if len(choices[i]) == 0 {
			placed[i] = -1
		}
	}
	satisfied := func(k int) bool {
		e := factors[k]
		pi, pj := placed[e.I], placed[e.J]
		if pi < 0 || pj < 0 {
			return false
		}
		a, b := choices[e.I][pi], choices[e.J][pj]
		want := [2]int32{frcs[e.J].R - frcs[e.I].R, frcs[e.J].C - frcs[e.I].C}
		got := [2]int32{b.R - a.R, b.C - a.C}
		return math.Hypot(float64(got[0]-want[0]), float64(got[1]-want[1])) <= float64(e.Radius)
	}

	for it := 0; it < iterations; it++ {
		changed := false
		for i := range frcs {
			if len(choices[i]) < 2 {
				continue
			}
			prev := placed[i]
			bestChoice, bestCount := prev, -1
			for c := range choices[i] {
				placed[i] = c
				var count int
				for _, k := range adj[i] {
					if satisfied(k) {
						count++
					}
				}
				if count > bestCount {
					bestChoice, bestCount = c, count
				}
			}
			placed[i] = bestChoice
			changed = changed || bestChoice != prev
		}
		if !changed {
			break
		}
	}

	var ok int
	for k := range factors {
		if satisfied(k) {
			ok++
		}
	}
	return float64(ok) / float64(len(factors))
}

// matches lists up to limit test features compatible with f, nearest first
func matches(f model.FeatureResponse, test []model.FeatureResponse, dr, dc, limit int) []model.FeatureResponse {
	var out []model.FeatureResponse
	for _, t := range test {
		if !near(f.F, t.F) || abs(int(t.R-f.R)) > dr || abs(int(t.C-f.C)) > dc {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return sqdist(f, out[a]) < sqdist(f, out[b])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// near reports whether two orientation bins are equal or adjacent
func near(a, b int32) bool {
	d := (a - b + learning.Orientations) % learning.Orientations
	return d == 0 || d == 1 || d == learning.Orientations-1
}

func sqdist(a, b model.FeatureResponse) int32 {
	r, c := a.R-b.R, a.C-b.C
	return r*r + c*c
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
