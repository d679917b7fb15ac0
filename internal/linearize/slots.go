package linearize

import (
	"slices"
)

// slotAllocator tracks which intermediate slot ids are currently live under
// a give/take model. Take always returns the lowest id not currently held;
// releasing a slot the moment its last consumer has recorded it means the
// historical peak of simultaneously held ids is the true maximum number of
// live temporaries, not the total allocation count. That peak becomes the
// fixed per-row buffer capacity the evaluator provisions, which is the
// entire reason this type exists.
type slotAllocator struct {
	held []int // sorted ascending
	peak int
}

// take acquires the smallest id not currently held and returns it.
func (a *slotAllocator) take() int {
	id := a.firstFree()
	at, _ := slices.BinarySearch(a.held, id)
	a.held = slices.Insert(a.held, at, id)
	if len(a.held) > a.peak {
		a.peak = len(a.held)
	}
	return id
}

// give releases a held id. Giving back an id that is not held is a caller
// bug and reported as InvalidState.
func (a *slotAllocator) give(id int) error {
	at, found := slices.BinarySearch(a.held, id)
	if !found {
		return newError(ErrInvalidState, "", "giving back intermediate slot %d which is not held", id)
	}
	a.held = slices.Delete(a.held, at, at+1)
	return nil
}

// current returns the number of ids held right now.
func (a *slotAllocator) current() int {
	return len(a.held)
}

// maxHeld returns the maximum number of ids ever simultaneously held.
func (a *slotAllocator) maxHeld() int {
	return a.peak
}

// firstFree finds the smallest non-negative integer absent from the sorted
// held list: the first position where the value stops matching its index.
func (a *slotAllocator) firstFree() int {
	for i, v := range a.held {
		if v != i {
			return i
		}
	}
	return len(a.held)
}
