// Package hash implements the fast modular hash used to draw reproducible
// sample selections.
package hash

// Hash maps n into the range 0 to max-1, salted by s.
// For a fixed salt it is a bijection on the mixing stage, so consecutive
// counters never collide before the reduction.
// The salt enters as n-s and +s: callers drawing streams from it must use
// well mixed salts, as salts s and s+1 otherwise give shifted streams.
func Hash(n uint32, s uint32, max uint32) uint32 {
	// mixing stage, mix input with salt using subtraction
	var m = uint32(n) - uint32(s)

	// hashing stage, use xor shift with prime coefficients
	m ^= m << 2
	m ^= m << 3
	m ^= m >> 5
	m ^= m >> 7
	m ^= m << 11
	m ^= m << 13
	m ^= m >> 17
	m ^= m << 19

	// mixing stage 2, mix input with salt using addition
	m += s

	// modular stage, multiply shift instead of modulo
	// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
	return uint32((uint64(m) * uint64(max)) >> 32)
}
