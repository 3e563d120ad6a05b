package queue

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/morsel/types"
)

// requireCoversAll asserts a probe sequence visits every queue except the
// thief exactly once.
func requireCoversAll(t *testing.T, seq []int, thief, n int) {
	t.Helper()

	require.Len(t, seq, n-1)
	seen := make(map[int]bool, n)
	for _, v := range seq {
		require.NotEqual(t, thief, v, "sequence must not include the thief")
		require.False(t, seen[v], "victim %d probed twice", v)
		seen[v] = true
	}
}

func TestSequentialRingOrder(t *testing.T) {
	t.Parallel()

	s := NewVictimSelector(types.VictimSequential, make([]int, 4), 0)
	require.Equal(t, []int{2, 3, 0}, s.Sequence(1))
	require.Equal(t, []int{1, 2, 3}, s.Sequence(0))
	require.Nil(t, s.Sequence(9))
}

func TestSequentialNUMAPrefersOwnGroup(t *testing.T) {
	t.Parallel()

	// queues 0,1 in group 0; queues 2,3 in group 1
	groupOf := []int{0, 0, 1, 1}
	s := NewVictimSelector(types.VictimSequentialNUMA, groupOf, 0)

	seq := s.Sequence(0)
	requireCoversAll(t, seq, 0, 4)
	require.Equal(t, 1, seq[0], "same-group victim probed first")
	require.ElementsMatch(t, []int{2, 3}, seq[1:])

	seq = s.Sequence(3)
	require.Equal(t, 2, seq[0])
}

func TestRandomCoversAllVictims(t *testing.T) {
	t.Parallel()

	s := NewVictimSelector(types.VictimRandom, make([]int, 8), 42)
	for round := range 16 {
		seq := s.Sequence(3)
		requireCoversAll(t, seq, 3, 8)
		_ = round
	}
}

func TestRandomNUMAGroupsBeforeRemote(t *testing.T) {
	t.Parallel()

	groupOf := []int{0, 0, 0, 0, 1, 1, 1, 1}
	s := NewVictimSelector(types.VictimRandomNUMA, groupOf, 42)

	for range 16 {
		seq := s.Sequence(1)
		requireCoversAll(t, seq, 1, 8)

		// first three probes stay in group 0, the rest cross over
		require.ElementsMatch(t, []int{0, 2, 3}, seq[:3])
		require.ElementsMatch(t, []int{4, 5, 6, 7}, seq[3:])
	}
}

func TestRandomSeededDeterminism(t *testing.T) {
	t.Parallel()

	a := NewVictimSelector(types.VictimRandom, make([]int, 8), 7)
	b := NewVictimSelector(types.VictimRandom, make([]int, 8), 7)
	for range 8 {
		seqA := append([]int(nil), a.Sequence(0)...)
		require.Equal(t, seqA, b.Sequence(0))
	}
}

func TestRandomSequencesVary(t *testing.T) {
	t.Parallel()

	s := NewVictimSelector(types.VictimRandom, make([]int, 16), 7)
	first := append([]int(nil), s.Sequence(0)...)
	varied := false
	for range 8 {
		next := s.Sequence(0)
		if !equalInts(first, next) {
			varied = true
			break
		}
	}
	require.True(t, varied, "random rounds should not repeat one permutation")
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
