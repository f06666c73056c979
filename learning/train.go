package learning

import (
	"context"
	"math"
	"sort"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/model"
)

// Train builds the template of one sample. An image without edges yields an
// empty output, which the pipeline treats as a per-sample training failure.
func Train(ctx context.Context, s datasets.Sample, h HyperParameters) (model.TrainingOutput, error) {
	if s.Placeholder {
		return model.TrainingOutput{}, errors.Input("placeholder sample of class %q cannot be trained", s.Label)
	}
	h = h.withDefaults()
	frcs := Features(s.Image, h)
	if len(frcs) == 0 {
		return model.TrainingOutput{}, nil
	}

	type pair struct{ i, j int32 }
	seen := make(map[pair]bool)
	var factors []model.EdgeFactor
	var edges [][2]int32
	for i := range frcs {
		for _, j := range nearest(frcs, i, h.Neighbors) {
			p := pair{int32(i), int32(j)}
			if p.j < p.i {
				p.i, p.j = p.j, p.i
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			dist := distance(frcs[p.i], frcs[p.j])
			factors = append(factors, model.EdgeFactor{
				I:      p.i,
				J:      p.j,
				Radius: float32(math.Max(1, dist/h.PerturbFactor)),
			})
			edges = append(edges, [2]int32{p.i, p.j})
		}
	}

	return model.TrainingOutput{
		Frcs:        frcs,
		EdgeFactors: factors,
		Graph:       model.Graph{Nodes: int32(len(frcs)), Edges: edges},
	}, nil
}

// nearest returns up to k positions of the features closest to frcs[i]
func nearest(frcs []model.FeatureResponse, i, k int) []int {
	idx := make([]int, 0, len(frcs)-1)
	for j := range frcs {
		if j != i {
			idx = append(idx, j)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return distance(frcs[i], frcs[idx[a]]) < distance(frcs[i], frcs[idx[b]])
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

func distance(a, b model.FeatureResponse) float64 {
	return math.Hypot(float64(a.R-b.R), float64(a.C-b.C))
}
