package learning

import (
	"math"
	"sort"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/model"
)

type candidate struct {
	model.FeatureResponse
	mag int
}

// Features detects oriented edges in r and sparsifies them so that no two
// kept features are within the suppression radius. Stronger edges win;
// ties go to the earlier row, then column.
func Features(r datasets.Raster, h HyperParameters) []model.FeatureResponse {
	h = h.withDefaults()
	var cands []candidate
	for y := 1; y < r.Height-1; y++ {
		for x := 1; x < r.Width-1; x++ {
			gx := int(r.At(x+1, y)) - int(r.At(x-1, y))
			gy := int(r.At(x, y+1)) - int(r.At(x, y-1))
			mag := abs(gx) + abs(gy)
			if mag < h.Threshold {
				continue
			}
			cands = append(cands, candidate{
				FeatureResponse: model.FeatureResponse{F: orientation(gx, gy), R: int32(y), C: int32(x)},
				mag:             mag,
			})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].mag > cands[j].mag
	})

	taken := make([]bool, r.Width*r.Height)
	var out []model.FeatureResponse
	for _, c := range cands {
		if taken[int(c.R)*r.Width+int(c.C)] {
			continue
		}
		out = append(out, c.FeatureResponse)
		for y := int(c.R) - h.Suppression; y <= int(c.R)+h.Suppression; y++ {
			for x := int(c.C) - h.Suppression; x <= int(c.C)+h.Suppression; x++ {
				if x >= 0 && y >= 0 && x < r.Width && y < r.Height {
					taken[y*r.Width+x] = true
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].R != out[j].R {
			return out[i].R < out[j].R
		}
		return out[i].C < out[j].C
	})
	return out
}

// orientation quantizes the gradient direction into Orientations bins
func orientation(gx, gy int) int32 {
	a := math.Atan2(float64(gy), float64(gx))
	if a < 0 {
		a += 2 * math.Pi
	}
	bin := int32(math.Round(a / (2 * math.Pi / Orientations)))
	return bin % Orientations
}

func abs(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
