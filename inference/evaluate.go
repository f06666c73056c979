package inference

import (
	"context"
	"strconv"
	"time"

	"github.com/montanaflynn/stats"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/model"
	"github.com/neurlang/rcnbatch/parallel"
)

// InferFunc scores one sample against a model
type InferFunc func(ctx context.Context, s datasets.Sample, m *model.AggregatedModel, p Params) (Prediction, error)

// Record is the outcome for one test sample
type Record struct {
	Index     int
	Label     int
	Winner    int
	Predicted int
	Score     float64
	Correct   bool
}

// Report summarizes an evaluation run
type Report struct {
	Accuracy    float64
	Correct     int
	Total       int
	Elapsed     time.Duration
	Predictions []Prediction
	Records     []Record
	MeanScore   float64
	MedianScore float64
}

// Evaluator dispatches inference over test samples and scores the result.
type Evaluator struct {
	Workers int
	Log     *zap.Logger
}

// Evaluate runs infer on every sample and compares the predicted class,
// Indices[winner] / templates per class, with the numeric true label.
func (e Evaluator) Evaluate(ctx context.Context, m *model.AggregatedModel, samples []datasets.Sample, infer InferFunc, params Params) (*Report, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	if len(samples) == 0 {
		return nil, errors.ErrEmptyInput
	}
	tpc, err := m.TemplatesPerClass()
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(samples))
	for i, s := range samples {
		if s.Placeholder {
			return nil, errors.Input("test sample %d is a placeholder", i)
		}
		if labels[i], err = strconv.Atoi(s.Label); err != nil {
			return nil, errors.WrapInput(err, "test sample %d has non-numeric label %q", i, s.Label)
		}
	}

	start := time.Now()
	run := func(ctx context.Context, s datasets.Sample, p Params) (Prediction, error) {
		return infer(ctx, s, m, p)
	}
	preds, err := parallel.Map(ctx, e.Workers, samples, parallel.Bind(run, params))
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Total:       len(samples),
		Elapsed:     time.Since(start),
		Predictions: preds,
		Records:     make([]Record, len(samples)),
	}
	scores := make(stats.Float64Data, len(preds))
	for i, p := range preds {
		if p.Winner < 0 || p.Winner >= len(m.Indices) {
			return nil, errors.Dispatch(i, errors.Errorf("winner %d outside model of %d templates", p.Winner, len(m.Indices)))
		}
		class := m.Indices[p.Winner] / tpc
		r := Record{
			Index:     i,
			Label:     labels[i],
			Winner:    p.Winner,
			Predicted: class,
			Score:     p.Score,
			Correct:   class == labels[i],
		}
		if r.Correct {
			rep.Correct++
		}
		rep.Records[i] = r
		scores[i] = p.Score
		log.Debug("prediction", zap.Int("sample", i), zap.Int("label", r.Label),
			zap.Int("winner", r.Winner), zap.Int("predicted", r.Predicted), zap.Float64("score", r.Score))
	}
	rep.Accuracy = float64(rep.Correct) / float64(rep.Total)
	if rep.MeanScore, err = stats.Mean(scores); err != nil {
		return nil, errors.Wrapf(err, "mean score")
	}
	if rep.MedianScore, err = stats.Median(scores); err != nil {
		return nil, errors.Wrapf(err, "median score")
	}

	log.Info("evaluation done",
		zap.Int("correct", rep.Correct),
		zap.Int("total", rep.Total),
		zap.Float64("accuracy", rep.Accuracy),
		zap.Duration("elapsed", rep.Elapsed))
	return rep, nil
}
