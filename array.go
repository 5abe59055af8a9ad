package quadatlas

import "fmt"

// growthIncrement is the slack added when InsertQuad grows a full array,
// amortizing repeated single insertions.
const growthIncrement = 64

// QuadArray is the CPU-side quad storage: a capacity-backed sequence of
// quad slots plus a logical count of active quads. Slots [0, count) are
// drawable; slots [count, capacity) are unused and hold whatever a prior
// operation left there unless explicitly zeroed via [RawQuads.FillEmpty].
//
// Validated operations are all-or-nothing: on a precondition violation the
// array is left unchanged and an error wrapping one of the package
// sentinels is returned. Every successful mutation sets the dirty flag,
// which the GPU mirror consumes before drawing.
//
// QuadArray is not safe for concurrent use.
type QuadArray struct {
	quads []Quad // len(quads) == capacity
	count int
	dirty bool
}

// NewQuadArray creates an array with the given capacity and zero active
// quads. Capacity 0 is valid; InsertQuad grows on demand.
func NewQuadArray(capacity int) (*QuadArray, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, capacity, MaxCapacity)
	}
	return &QuadArray{quads: make([]Quad, capacity)}, nil
}

// Count returns the number of active quads.
func (a *QuadArray) Count() int { return a.count }

// Capacity returns the number of allocated quad slots.
func (a *QuadArray) Capacity() int { return len(a.quads) }

// Dirty reports whether CPU-side quad data has changed since the last
// GPU upload.
func (a *QuadArray) Dirty() bool { return a.dirty }

// SetDirty overrides the dirty flag. Collaborators that write quad data
// through the Quads slice must set it so the next draw re-uploads.
func (a *QuadArray) SetDirty(dirty bool) { a.dirty = dirty }

// Quads returns the backing slot storage, capacity slots long. Writing
// through the returned slice bypasses dirty tracking; call SetDirty(true)
// afterwards.
func (a *QuadArray) Quads() []Quad { return a.quads }

// SetQuads replaces the backing storage outright. Capacity becomes
// len(quads) and count is clamped to it.
func (a *QuadArray) SetQuads(quads []Quad) error {
	if len(quads) > MaxCapacity {
		return fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, len(quads), MaxCapacity)
	}
	a.quads = quads
	if a.count > len(quads) {
		a.count = len(quads)
	}
	a.dirty = true
	return nil
}

// At returns a copy of the quad at the given slot.
func (a *QuadArray) At(index int) (Quad, error) {
	if index < 0 || index >= len(a.quads) {
		return Quad{}, fmt.Errorf("%w: slot %d, capacity %d", ErrIndexOutOfRange, index, len(a.quads))
	}
	return a.quads[index], nil
}

// UpdateQuad overwrites the slot at index. The count is unchanged, so the
// write only affects drawing when index < count.
func (a *QuadArray) UpdateQuad(quad Quad, index int) error {
	if index < 0 || index >= len(a.quads) {
		return fmt.Errorf("%w: update at %d, capacity %d", ErrIndexOutOfRange, index, len(a.quads))
	}
	a.quads[index] = quad
	a.dirty = true
	return nil
}

// InsertQuad inserts a quad at index, shifting slots [index, count) one
// position right. When the array is full it grows first, rounding the new
// capacity up by growthIncrement.
func (a *QuadArray) InsertQuad(quad Quad, index int) error {
	if index < 0 || index > a.count {
		return fmt.Errorf("%w: insert at %d, count %d", ErrIndexOutOfRange, index, a.count)
	}
	if a.count+1 > len(a.quads) {
		if err := a.grow(a.count + 1); err != nil {
			return err
		}
	}
	copy(a.quads[index+1:a.count+1], a.quads[index:a.count])
	a.quads[index] = quad
	a.count++
	a.dirty = true
	return nil
}

// InsertQuads inserts len(quads) quads starting at index, shifting slots
// [index, count) right. Unlike InsertQuad it performs no automatic growth:
// exceeding capacity is reported as ErrCapacityExceeded and nothing is
// inserted. An empty input is a valid no-op.
func (a *QuadArray) InsertQuads(quads []Quad, index int) error {
	if index < 0 || index > a.count {
		return fmt.Errorf("%w: insert at %d, count %d", ErrIndexOutOfRange, index, a.count)
	}
	amount := len(quads)
	if amount == 0 {
		return nil
	}
	if a.count+amount > len(a.quads) {
		return fmt.Errorf("%w: %d quads at %d, count %d, capacity %d",
			ErrCapacityExceeded, amount, index, a.count, len(a.quads))
	}
	copy(a.quads[index+amount:a.count+amount], a.quads[index:a.count])
	copy(a.quads[index:], quads)
	a.count += amount
	a.dirty = true
	return nil
}

// ReinsertQuad removes the quad at fromIndex and reinserts its value at
// newIndex in a single shift pass, preserving count. Positions after the
// removal point shift accordingly. A no-op when the indices are equal.
func (a *QuadArray) ReinsertQuad(fromIndex, newIndex int) error {
	if fromIndex < 0 || fromIndex >= a.count {
		return fmt.Errorf("%w: reinsert from %d, count %d", ErrIndexOutOfRange, fromIndex, a.count)
	}
	if newIndex < 0 || newIndex >= a.count {
		return fmt.Errorf("%w: reinsert to %d, count %d", ErrIndexOutOfRange, newIndex, a.count)
	}
	if fromIndex == newIndex {
		return nil
	}
	quad := a.quads[fromIndex]
	if fromIndex > newIndex {
		copy(a.quads[newIndex+1:fromIndex+1], a.quads[newIndex:fromIndex])
	} else {
		copy(a.quads[fromIndex:newIndex], a.quads[fromIndex+1:newIndex+1])
	}
	a.quads[newIndex] = quad
	a.dirty = true
	return nil
}

// RemoveQuadAt removes the quad at index, shifting the tail left by one.
// Capacity is unchanged; the vacated trailing slot keeps its stale content
// but is never drawn since count shrank.
func (a *QuadArray) RemoveQuadAt(index int) error {
	if index < 0 || index >= a.count {
		return fmt.Errorf("%w: remove at %d, count %d", ErrIndexOutOfRange, index, a.count)
	}
	copy(a.quads[index:a.count-1], a.quads[index+1:a.count])
	a.count--
	a.dirty = true
	return nil
}

// RemoveQuadsAt removes amount quads starting at index, shifting the tail
// left. Amount 0 is a valid no-op.
func (a *QuadArray) RemoveQuadsAt(index, amount int) error {
	if amount < 0 || index < 0 || index+amount > a.count {
		return fmt.Errorf("%w: remove %d at %d, count %d", ErrIndexOutOfRange, amount, index, a.count)
	}
	if amount == 0 {
		return nil
	}
	copy(a.quads[index:a.count-amount], a.quads[index+amount:a.count])
	a.count -= amount
	a.dirty = true
	return nil
}

// RemoveAllQuads sets count to 0. No deallocation and no zeroing: slot
// contents past slot 0 are untouched.
func (a *QuadArray) RemoveAllQuads() {
	a.count = 0
	a.dirty = true
}

// Resize reallocates backing storage to newCapacity slots, preserving
// slots [0, min(old, new)). If newCapacity is below count, count is
// clamped and the data beyond is discarded. New slots on growth are not
// zeroed; callers that need defined content use [RawQuads.FillEmpty].
func (a *QuadArray) Resize(newCapacity int) error {
	if newCapacity < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, newCapacity)
	}
	if newCapacity > MaxCapacity {
		return fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, newCapacity, MaxCapacity)
	}
	if newCapacity == len(a.quads) {
		return nil
	}
	quads := make([]Quad, newCapacity)
	copy(quads, a.quads)
	a.quads = quads
	if a.count > newCapacity {
		a.count = newCapacity
	}
	a.dirty = true
	return nil
}

// MoveQuads relocates the contiguous run [oldIndex, oldIndex+amount) to
// start at newIndex, shifting everything between source and destination to
// close the vacated gap. Count and the relative order of quads outside the
// run are preserved. Applying the move with oldIndex and newIndex swapped
// restores the original order.
func (a *QuadArray) MoveQuads(oldIndex, amount, newIndex int) error {
	if amount < 0 || oldIndex < 0 || oldIndex+amount > a.count {
		return fmt.Errorf("%w: move %d from %d, count %d", ErrIndexOutOfRange, amount, oldIndex, a.count)
	}
	if newIndex < 0 || newIndex+amount > a.count {
		return fmt.Errorf("%w: move %d to %d, count %d", ErrIndexOutOfRange, amount, newIndex, a.count)
	}
	if oldIndex == newIndex || amount == 0 {
		return nil
	}
	tmp := make([]Quad, amount)
	copy(tmp, a.quads[oldIndex:oldIndex+amount])
	if newIndex < oldIndex {
		copy(a.quads[newIndex+amount:oldIndex+amount], a.quads[newIndex:oldIndex])
	} else {
		copy(a.quads[oldIndex:newIndex], a.quads[oldIndex+amount:newIndex+amount])
	}
	copy(a.quads[newIndex:], tmp)
	a.dirty = true
	return nil
}

// grow expands capacity to hold at least needed quads, rounded up by
// growthIncrement and capped at MaxCapacity.
func (a *QuadArray) grow(needed int) error {
	if needed > MaxCapacity {
		return fmt.Errorf("%w: %d > %d", ErrCapacityTooLarge, needed, MaxCapacity)
	}
	newCap := (needed + growthIncrement - 1) / growthIncrement * growthIncrement
	if newCap > MaxCapacity {
		newCap = MaxCapacity
	}
	return a.Resize(newCap)
}

// Raw returns the low-level mutation surface. The methods on RawQuads
// exist for trusted batch writers (particle-style systems) that reserve
// slots themselves and manage count directly. Everything else should use
// the validated QuadArray methods.
func (a *QuadArray) Raw() RawQuads { return RawQuads{a} }

// RawQuads is the narrow escape hatch for collaborators that write quad
// data directly into slots they reserved via Resize and FillEmpty. Its
// methods skip the validation the safe contract provides; the caller bears
// responsibility for every precondition noted below.
type RawQuads struct {
	a *QuadArray
}

// IncreaseCount advances count by amount without any checking. The caller
// guarantees the resulting count does not exceed capacity and that the
// slots being activated hold defined data (written or zeroed).
func (r RawQuads) IncreaseCount(amount int) {
	r.a.count += amount
	r.a.dirty = true
}

// MoveTail moves the tail run [index, count) to start at newIndex. It does
// not grow capacity: ErrCapacityExceeded is returned when the relocated
// tail would not fit. Count is unchanged.
func (r RawQuads) MoveTail(index, newIndex int) error {
	a := r.a
	if index < 0 || index > a.count || newIndex < 0 {
		return fmt.Errorf("%w: move tail from %d to %d, count %d", ErrIndexOutOfRange, index, newIndex, a.count)
	}
	amount := a.count - index
	if newIndex+amount > len(a.quads) {
		return fmt.Errorf("%w: tail of %d quads at %d, capacity %d",
			ErrCapacityExceeded, amount, newIndex, len(a.quads))
	}
	copy(a.quads[newIndex:newIndex+amount], a.quads[index:a.count])
	a.dirty = true
	return nil
}

// FillEmpty zeroes the slots [index, index+amount) so that advancing count
// over them renders degenerate, invisible geometry instead of stale data.
func (r RawQuads) FillEmpty(index, amount int) error {
	a := r.a
	if amount < 0 || index < 0 || index+amount > len(a.quads) {
		return fmt.Errorf("%w: fill %d at %d, capacity %d", ErrIndexOutOfRange, amount, index, len(a.quads))
	}
	clear(a.quads[index : index+amount])
	a.dirty = true
	return nil
}
