package parallel

import (
	"context"
	"fmt"
	"sync"

	"github.com/neurlang/rcnbatch/errors"
)

// Bind fixes the auxiliary parameters of fn at call time.
func Bind[I, P, O any](fn func(ctx context.Context, in I, params P) (O, error), params P) func(context.Context, I) (O, error) {
	return func(ctx context.Context, in I) (O, error) {
		return fn(ctx, in, params)
	}
}

// Map applies fn to every input using the given number of workers and
// returns the outputs in input order. workers == 1 runs sequentially on the
// calling goroutine; workers <= 0 uses every logical core.
//
// Map blocks until all inputs are processed. The first failing input aborts
// the call: no new inputs are claimed, tasks already running are waited for,
// and a *errors.DispatchError naming the input is returned without partial
// results. A panicking task is reported the same way.
func Map[I, O any](ctx context.Context, workers int, inputs []I, fn func(context.Context, I) (O, error)) ([]O, error) {
	var out = make([]O, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}
	workers = Workers(workers)
	if workers > len(inputs) {
		workers = len(inputs)
	}

	if workers == 1 {
		for i := range inputs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			o, err := call(ctx, fn, inputs[i])
			if err != nil {
				return nil, errors.Dispatch(i, err)
			}
			out[i] = o
		}
		return out, nil
	}

	var (
		once    sync.Once
		failure error
	)
	fail := func(err error) {
		once.Do(func() {
			failure = err
		})
	}

	Loop(workers).LoopUntil(func(n uint32, _ LoopStopper) bool {
		i := int(n)
		if i >= len(inputs) {
			return true
		}
		if err := ctx.Err(); err != nil {
			fail(err)
			return true
		}
		o, err := call(ctx, fn, inputs[i])
		if err != nil {
			fail(errors.Dispatch(i, err))
			return true
		}
		out[i] = o
		return false
	})

	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func call[I, O any](ctx context.Context, fn func(context.Context, I) (O, error), in I) (o O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, in)
}
