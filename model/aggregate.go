package model

import (
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/errors"
)

// Report lists the sample positions the policy acted on
type Report struct {
	Failed      []int
	Skipped     []int
	Substituted []int
}

// Aggregate transposes per-sample results into an AggregatedModel, in
// submission order, applying policy to failed samples.
func Aggregate(results []Result, classCount int, policy Policy, log *zap.Logger) (*AggregatedModel, Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var rep Report
	for i, r := range results {
		if r.Failed() {
			rep.Failed = append(rep.Failed, i)
		}
	}
	if len(results) == 0 {
		return nil, rep, errors.ErrEmptyInput
	}

	switch policy {
	case PolicyFail:
		if len(rep.Failed) > 0 {
			return nil, rep, errors.Errorf("%d training failures at samples %v", len(rep.Failed), rep.Failed)
		}
	case PolicySubstitute:
		if len(rep.Failed) > 0 && results[0].Failed() {
			return nil, rep, errors.Errorf("cannot substitute failed samples %v: sample 0 failed too", rep.Failed)
		}
	case PolicySkip:
		if len(rep.Failed) == len(results) {
			return nil, rep, errors.Errorf("all %d samples failed", len(results))
		}
	default:
		return nil, rep, errors.Input("unknown failure policy %d", policy)
	}

	m := &AggregatedModel{
		Frcs:        make([][]FeatureResponse, 0, len(results)),
		EdgeFactors: make([][]EdgeFactor, 0, len(results)),
		Graphs:      make([]Graph, 0, len(results)),
		Indices:     make([]int, 0, len(results)),
		SampleCount: len(results),
		ClassCount:  classCount,
	}
	for i, r := range results {
		o := r.Output
		if r.Failed() {
			if policy == PolicySkip {
				log.Warn("skipping failed sample", zap.Int("index", i), zap.String("reason", r.Failure.Reason))
				rep.Skipped = append(rep.Skipped, i)
				continue
			}
			log.Warn("substituting failed sample with sample 0", zap.Int("index", i), zap.String("reason", r.Failure.Reason))
			rep.Substituted = append(rep.Substituted, i)
			o = results[0].Output
		}
		m.Frcs = append(m.Frcs, o.Frcs)
		m.EdgeFactors = append(m.EdgeFactors, o.EdgeFactors)
		m.Graphs = append(m.Graphs, o.Graph)
		m.Indices = append(m.Indices, i)
	}
	return m, rep, nil
}
