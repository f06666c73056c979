// Package checkpoint persists the training outputs of one batch at a time,
// keyed by the batch's offset range, so an interrupted run can be resumed.
package checkpoint

import (
	"context"
	"fmt"

	"github.com/neurlang/rcnbatch/model"
)

// Key identifies a batch by its [Start, End) offsets in the sample sequence
type Key struct {
	Start int
	End   int
}

// Name is the file name a checkpoint with this key is stored under
func (k Key) Name() string {
	return fmt.Sprintf("batch_%08d_%08d%s", k.Start, k.End, Ext)
}

func (k Key) String() string {
	return fmt.Sprintf("[%d, %d)", k.Start, k.End)
}

// Len is the number of samples covered
func (k Key) Len() int {
	return k.End - k.Start
}

// Ext is the checkpoint file extension
const Ext = ".ckpt"

// ParseName recovers the key from a checkpoint file name
func ParseName(name string) (k Key, ok bool) {
	var rest string
	n, _ := fmt.Sscanf(name, "batch_%d_%d%s", &k.Start, &k.End, &rest)
	if n != 3 || rest != Ext || k.Start < 0 || k.End < k.Start {
		return Key{}, false
	}
	return k, true
}

// Checkpoint is the durable record of one batch
type Checkpoint struct {
	RunID   string                 `msgpack:"run_id"`
	Start   int                    `msgpack:"start"`
	End     int                    `msgpack:"end"`
	Outputs []model.TrainingOutput `msgpack:"outputs"`
}

// Key returns the checkpoint's key
func (c *Checkpoint) Key() Key {
	return Key{Start: c.Start, End: c.End}
}

// Store is where checkpoints live. A key is written at most once.
type Store interface {

	// Put durably writes c, failing if its key already exists
	Put(ctx context.Context, c *Checkpoint) error

	// Get reads the checkpoint stored under k
	Get(ctx context.Context, k Key) (*Checkpoint, error)

	// List returns all stored keys ordered by Start
	List(ctx context.Context) ([]Key, error)
}
