package hash

// Sequence is a counter-based generator of bounded indexes. Draw k of a
// sequence depends only on the seed and k, never on the Go release or on
// a global source, so selections replay exactly.
type Sequence struct {
	salt    uint32
	counter uint32
}

// NewSequence seeds a sequence.
//
// Hash(n, s) is Hash(n+1, s+1) minus one before the range reduction, so
// nearby salts walk the same orbit one step apart. The seed is therefore
// avalanched with splitmix64 before it is folded into the 32 bit salt.
func NewSequence(seed int64) *Sequence {
	z := splitmix64(uint64(seed))
	return &Sequence{salt: uint32(z) ^ uint32(z>>32)}
}

func splitmix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// Next draws the next index in [0, max). It returns 0 for max <= 0.
func (s *Sequence) Next(max int) int {
	if max <= 0 {
		return 0
	}
	v := Hash(s.counter, s.salt, uint32(max))
	s.counter++
	return int(v)
}

// Choose draws k indexes in [0, max) uniformly with replacement.
func (s *Sequence) Choose(k, max int) []int {
	out := make([]int, k)
	for i := range out {
		out[i] = s.Next(max)
	}
	return out
}
