package trainer

import (
	"context"

	"github.com/neurlang/rcnbatch/checkpoint"
	"github.com/neurlang/rcnbatch/errors"
)

// Resume returns the index of the first batch of the plan for n samples
// that has no checkpoint in store. Checkpoints must form a gapless prefix of
// that plan; anything else means the store belongs to a different plan.
func Resume(ctx context.Context, store checkpoint.Store, n, batchSize int) (int, error) {
	batches, err := Plan(n, batchSize)
	if err != nil {
		return 0, err
	}
	keys, err := store.List(ctx)
	if err != nil {
		return 0, err
	}
	planned := make(map[checkpoint.Key]int, len(batches))
	for _, b := range batches {
		planned[b.Key()] = b.Index
	}
	have := make([]bool, len(batches))
	for _, k := range keys {
		i, ok := planned[k]
		if !ok {
			return 0, errors.Input("checkpoint %v does not match batches of %d over %d samples", k, batchSize, n)
		}
		have[i] = true
	}
	next := len(batches)
	for i, ok := range have {
		if !ok {
			next = i
			break
		}
	}
	for i := next; i < len(have); i++ {
		if have[i] {
			return 0, errors.Input("checkpoint of batch %d present but batch %d is missing", i, next)
		}
	}
	return next, nil
}
