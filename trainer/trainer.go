package trainer

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurlang/rcnbatch/checkpoint"
	"github.com/neurlang/rcnbatch/datasets"
	"github.com/neurlang/rcnbatch/errors"
	"github.com/neurlang/rcnbatch/model"
	"github.com/neurlang/rcnbatch/parallel"
)

// TrainFunc trains a single sample. Auxiliary parameters are bound with
// parallel.Bind.
type TrainFunc func(ctx context.Context, s datasets.Sample) (model.TrainingOutput, error)

// Trainer is a checkpointed batch trainer
type Trainer struct {
	Store     checkpoint.Store
	Workers   int
	BatchSize int
	Log       *zap.Logger

	// RunID is stamped into every checkpoint written. A fresh one is
	// generated by Run when empty.
	RunID string

	// OnBatch, if set, is called after every batch, restored or trained
	OnBatch func(Batch, Source)
}

// Run trains samples batch by batch starting at batch startBatch. Results of
// the batches before it are read back from the store, their samples are not
// looked at and may be placeholders. The returned results cover all samples
// in order.
func (t *Trainer) Run(ctx context.Context, samples []datasets.Sample, startBatch int, train TrainFunc) ([]model.Result, error) {
	log := t.Log
	if log == nil {
		log = zap.NewNop()
	}
	batches, err := Plan(len(samples), t.BatchSize)
	if err != nil {
		return nil, err
	}
	if startBatch < 0 || startBatch > len(batches) {
		return nil, errors.Input("start batch %d outside [0, %d]", startBatch, len(batches))
	}
	if t.RunID == "" {
		t.RunID = uuid.NewString()
	}
	log = log.With(zap.String("run", t.RunID))
	log.Info("training",
		zap.Int("samples", len(samples)),
		zap.Int("batches", len(batches)),
		zap.Int("batch_size", t.BatchSize),
		zap.Int("start_batch", startBatch))

	results := make([]model.Result, 0, len(samples))
	for _, b := range batches[:startBatch] {
		c, err := t.Store.Get(ctx, b.Key())
		if err != nil {
			return nil, persistence(b, err)
		}
		if c.Key() != b.Key() || len(c.Outputs) != b.Len() {
			return nil, errors.Persistence(b.Key().Name(), errors.Errorf("checkpoint covers %v with %d outputs", c.Key(), len(c.Outputs)))
		}
		for j, o := range c.Outputs {
			results = append(results, model.ResultOf(b.Start+j, o))
		}
		log.Debug("batch restored", zap.Int("batch", b.Index), zap.String("run_of_checkpoint", c.RunID))
		t.notify(b, Restored)
	}

	for _, b := range batches[startBatch:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := samples[b.Start:b.End]
		for j, s := range batch {
			if s.Placeholder {
				return nil, errors.Input("sample %d of batch %d is a placeholder", b.Start+j, b.Index)
			}
		}

		outs, err := parallel.Map[datasets.Sample, model.TrainingOutput](ctx, t.Workers, batch, train)
		if err != nil {
			var de *errors.DispatchError
			if errors.As(err, &de) {
				return nil, errors.Dispatch(b.Start+de.Index, de.Err)
			}
			return nil, err
		}
		if err := t.Store.Put(ctx, &checkpoint.Checkpoint{
			RunID:   t.RunID,
			Start:   b.Start,
			End:     b.End,
			Outputs: outs,
		}); err != nil {
			return nil, persistence(b, err)
		}

		var failed int
		for j, o := range outs {
			r := model.ResultOf(b.Start+j, o)
			if r.Failed() {
				failed++
			}
			results = append(results, r)
		}
		log.Debug("batch trained", zap.Int("batch", b.Index), zap.Stringer("range", b.Key()), zap.Int("failed", failed))
		t.notify(b, Trained)
	}
	return results, nil
}

func (t *Trainer) notify(b Batch, s Source) {
	if t.OnBatch != nil {
		t.OnBatch(b, s)
	}
}

func persistence(b Batch, err error) error {
	if errors.IsPersistence(err) {
		return err
	}
	return errors.Persistence(b.Key().Name(), err)
}
