// Package trainer runs per-sample training over a dataset in fixed size
// batches. Every finished batch is checkpointed before the next one starts,
// so a run can be resumed at any batch boundary and still produce the same
// results as an uninterrupted run.
package trainer
