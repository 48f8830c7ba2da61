package domain

import "github.com/google/uuid"

type EventType string

const (
	EventAppointmentCreated   EventType = "appointment.created"
	EventAppointmentConfirmed EventType = "appointment.confirmed"
	EventAppointmentCancelled EventType = "appointment.cancelled"
	EventAppointmentUpdated   EventType = "appointment.updated"
)

// Event is a lifecycle notification pushed to connected admin sessions.
// Subscribers deduplicate by ID, so an event echoed back to the session that
// caused it is a no-op.
type Event struct {
	ID   string    `json:"id"`
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	AppointmentID  int64  `json:"appointment_id"`
	SlotID         int64  `json:"slot_id,omitempty"`
	ServiceID      int64  `json:"service_id,omitempty"`
	OrganizationID int64  `json:"organization_id,omitempty"`
	CustomerName   string `json:"customer_name,omitempty"`
	Status         string `json:"status,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

func NewEvent(t EventType, data EventData) Event {
	return Event{
		ID:   uuid.NewString(),
		Type: t,
		Data: data,
	}
}
