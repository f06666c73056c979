package trainer

import (
	"github.com/neurlang/rcnbatch/checkpoint"
	"github.com/neurlang/rcnbatch/errors"
)

// Batch is a contiguous range [Start, End) of samples
type Batch struct {
	Index int
	Start int
	End   int
}

// Key is the checkpoint key of the batch
func (b Batch) Key() checkpoint.Key {
	return checkpoint.Key{Start: b.Start, End: b.End}
}

// Len is the number of samples in the batch
func (b Batch) Len() int {
	return b.End - b.Start
}

// Source tells where the results of a batch came from
type Source int

const (
	// Trained batches were dispatched in this run
	Trained Source = iota
	// Restored batches were read back from their checkpoint
	Restored
)

func (s Source) String() string {
	switch s {
	case Trained:
		return "trained"
	case Restored:
		return "restored"
	}
	return "unknown"
}

// Plan splits n samples into batches of batchSize, the last one possibly shorter
func Plan(n, batchSize int) ([]Batch, error) {
	if batchSize <= 0 {
		return nil, errors.Input("batch size %d is not positive", batchSize)
	}
	if n < 0 {
		return nil, errors.Input("negative sample count %d", n)
	}
	var batches []Batch
	for start := 0; start < n; start += batchSize {
		batches = append(batches, Batch{
			Index: len(batches),
			Start: start,
			End:   min(start+batchSize, n),
		})
	}
	return batches, nil
}
