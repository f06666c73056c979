package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// performance benchmark
func BenchmarkHash(b *testing.B) {
	n := uint32(0)
	s := uint32(0)
	for i := 0; i < b.N; i++ {
		n = Hash(n, s, 1<<20)
		s++
	}
}

// sanity check fuzz
func FuzzHash(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s, max uint32) {
		out := Hash(n, s, max)
		if max == 0 && out != 0 {
			t.Errorf("Hard error: Hash(%d, %d, 0) == %d (max=0 should be 0)", n, s, out)
		}
		if max > 1 && out >= max {
			t.Errorf("Hard error: Hash(%d, %d, %d) == %d (output bigger or equal than max)", n, s, max, out)
		}
	})
}

func TestSequenceReplays(t *testing.T) {
	a := NewSequence(5).Choose(50, 7)
	b := NewSequence(5).Choose(50, 7)
	require.Equal(t, a, b)
	for _, v := range a {
		require.True(t, v >= 0 && v < 7)
	}
}

// neighbouring seeds must not draw the same indexes, aligned or shifted
func TestSequenceSeedsIndependent(t *testing.T) {
	const draws = 1000
	const max = 60000
	for _, seeds := range [][2]int64{{5, 6}, {0, 1}, {-1, 0}, {41, 42}} {
		a := NewSequence(seeds[0]).Choose(draws+2, max)
		b := NewSequence(seeds[1]).Choose(draws+2, max)
		for shift := 0; shift <= 2; shift++ {
			var forward, backward int
			for i := 0; i < draws; i++ {
				if a[i] == b[i+shift] {
					forward++
				}
				if b[i] == a[i+shift] {
					backward++
				}
			}
			require.Less(t, forward, 10, "seeds %v shift %d", seeds, shift)
			require.Less(t, backward, 10, "seeds %v shift %d", seeds, shift)
		}
	}
}

// every bucket gets roughly its share
func TestSequenceSpread(t *testing.T) {
	const buckets = 10
	const draws = 100000
	var counts [buckets]int
	seq := NewSequence(-42)
	for i := 0; i < draws; i++ {
		counts[seq.Next(buckets)]++
	}
	for i, c := range counts {
		require.InDelta(t, draws/buckets, c, draws/buckets/4, "bucket %d", i)
	}
}

func TestSequenceEmpty(t *testing.T) {
	require.Equal(t, 0, NewSequence(1).Next(0))
	require.Empty(t, NewSequence(1).Choose(0, 3))
}
