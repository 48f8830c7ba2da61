package schedule

import (
	"sort"

	"bookadmin/internal/domain"
)

// Resolve annotates slots with their availability status. It is a pure
// read-side projection: occupancy is the caller-supplied count of
// non-cancelled appointments per slot id, and nothing is mutated.
//
// Rules, in precedence order:
//   - booked: occupancy >= capacity.
//   - conflict: the slot overlaps an occupied slot of the same service that
//     was created earlier. The earliest-created slot of an overlap group is
//     authoritative; later regenerations on a different grid are flagged even
//     while unbooked, so staff see the ambiguity instead of a silent grid.
//   - available: everything else.
func Resolve(slots []domain.Slot, occupancy map[int64]int) []domain.AnnotatedSlot {
	ordered := make([]domain.Slot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return createdBefore(ordered[i], ordered[j])
	})

	out := make([]domain.AnnotatedSlot, 0, len(ordered))
	for i, s := range ordered {
		occ := occupancy[s.ID]
		status := domain.SlotAvailable
		switch {
		case occ >= s.Capacity:
			status = domain.SlotBooked
		case conflictsWithEarlier(ordered, i, occupancy):
			status = domain.SlotConflict
		}
		out = append(out, domain.AnnotatedSlot{Slot: s, Status: status, Occupancy: occ})
	}
	return out
}

func conflictsWithEarlier(slots []domain.Slot, i int, occupancy map[int64]int) bool {
	for j, other := range slots {
		if j == i || !slots[i].Overlaps(other) {
			continue
		}
		if occupancy[other.ID] > 0 && createdBefore(other, slots[i]) {
			return true
		}
	}
	return false
}

// createdBefore orders slots by creation time, falling back to id so the
// tie-break is deterministic for rows created in the same instant.
func createdBefore(a, b domain.Slot) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
