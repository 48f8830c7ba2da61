package domain

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotConflict  SlotStatus = "conflict"
)

// Slot is a discrete bookable interval for a service.
// Invariant: EndTime = StartTime + service duration.
type Slot struct {
	ID             int64     `json:"id"`
	ServiceID      int64     `json:"service_id" validate:"required"`
	OrganizationID int64     `json:"organization_id"`
	StartTime      time.Time `json:"start_time" validate:"required"`
	EndTime        time.Time `json:"end_time" validate:"required"`
	Capacity       int       `json:"capacity" validate:"gte=1"`
	CreatedAt      time.Time `json:"created_at"`
}

// Overlaps reports whether two half-open intervals [start, end) intersect.
func (s Slot) Overlaps(other Slot) bool {
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// AnnotatedSlot is the read-side projection of a slot: the stored record plus
// its derived occupancy and availability status. Never persisted.
type AnnotatedSlot struct {
	Slot
	Status    SlotStatus `json:"status"`
	Occupancy int        `json:"occupancy"`
}
