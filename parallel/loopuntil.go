// Package parallel contains the ordered parallel Map used to fan work out
// over samples, plus the LoopUntil primitive it is built on.
package parallel

import (
	"math"
	"sync"
	"sync/atomic"
)

// LoopStopper is an interface to check if the loop should stop.
type LoopStopper interface {

	// Load reports true if the loop should stop.
	Load() bool
}

// Loop represents the number of goroutines to run.
type Loop int

// LoopUntil starts 'l' goroutines that iterate until one of them stops the loop.
// Each goroutine claims a unique integer i starting from 0; claims are handed
// out in increasing order.
// The loop stops if i reaches math.MaxUint32 or any goroutine's yield returns true.
// Goroutines finish the yield they are running before noticing the stop.
func (l Loop) LoopUntil(yield func(i uint32, ender LoopStopper) bool) {
	var (
		i     uint32
		ender atomic.Bool
		wg    sync.WaitGroup
	)
	if l < 1 {
		l = 1
	}

	for n := 0; n < int(l); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ender.Load() {
					return
				}

				newI := atomic.AddUint32(&i, 1)
				if newI == math.MaxUint32 {
					ender.Store(true)
					return
				}

				if yield(newI-1, &ender) {
					ender.Store(true)
					return
				}
			}
		}()
	}

	wg.Wait()
}
