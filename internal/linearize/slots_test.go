package linearize

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotAllocatorTakesLowestFree(t *testing.T) {
	var a slotAllocator

	assert.Equal(t, 0, a.take())
	assert.Equal(t, 1, a.take())
	assert.Equal(t, 2, a.take())

	// Free a middle id; the next take must reuse it.
	require.NoError(t, a.give(1))
	assert.Equal(t, 1, a.take())

	// Free the lowest; reuse again.
	require.NoError(t, a.give(0))
	require.NoError(t, a.give(2))
	assert.Equal(t, 0, a.take())
}

func TestSlotAllocatorPeakReflectsConcurrencyNotCount(t *testing.T) {
	var a slotAllocator

	// Take and give one slot many times: many allocations, peak stays 1.
	for i := 0; i < 100; i++ {
		id := a.take()
		assert.Equal(t, 0, id)
		require.NoError(t, a.give(id))
	}
	assert.Equal(t, 1, a.maxHeld())

	// Hold three simultaneously.
	a.take()
	a.take()
	a.take()
	assert.Equal(t, 3, a.maxHeld())
	require.NoError(t, a.give(0))
	require.NoError(t, a.give(1))
	require.NoError(t, a.give(2))
	assert.Equal(t, 3, a.maxHeld(), "peak never decreases")
	assert.Equal(t, 0, a.current())
}

func TestSlotAllocatorGiveUnheldFails(t *testing.T) {
	var a slotAllocator

	err := a.give(0)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, CodeOf(err))

	a.take()
	err = a.give(5)
	require.Error(t, err)
	assert.Equal(t, ErrInvalidState, CodeOf(err))

	// Double give.
	require.NoError(t, a.give(0))
	err = a.give(0)
	assert.Equal(t, ErrInvalidState, CodeOf(err))
}

// TestSlotAllocatorRandomized cross-checks the allocator against a naive
// model: peak equals the max over all prefixes of (#takes - #gives), and
// every take returns the smallest id not currently held.
func TestSlotAllocatorRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	var a slotAllocator
	held := map[int]bool{}
	peak := 0

	for step := 0; step < 10000; step++ {
		if len(held) == 0 || rng.Intn(2) == 0 {
			id := a.take()

			// Smallest non-held id per the model.
			want := 0
			for held[want] {
				want++
			}
			require.Equal(t, want, id, "step %d", step)
			held[id] = true
			if len(held) > peak {
				peak = len(held)
			}
		} else {
			// Give back a random held id.
			ids := make([]int, 0, len(held))
			for id := range held {
				ids = append(ids, id)
			}
			id := ids[rng.Intn(len(ids))]
			require.NoError(t, a.give(id), "step %d", step)
			delete(held, id)
		}
		require.Equal(t, len(held), a.current(), "step %d", step)
		require.Equal(t, peak, a.maxHeld(), "step %d", step)
	}
}
