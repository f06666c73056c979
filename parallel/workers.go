package parallel

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// Workers resolves a configured worker count. Values above zero are taken
// as is; zero or below means every logical core of this machine.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	if cores := cpuid.CPU.LogicalCores; cores > 0 {
		return cores
	}
	return runtime.NumCPU()
}
