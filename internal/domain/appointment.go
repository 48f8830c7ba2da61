package domain

import "time"

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// CancelledBy records who initiated a cancellation. Staff cancellations with a
// reason are what the admin panels display as "rejected".
type CancelledBy string

const (
	CancelledByClient CancelledBy = "client"
	CancelledByStaff  CancelledBy = "staff"
)

// RescheduleReason is stored on the original appointment when a reschedule
// cancels it in favour of a new one.
const RescheduleReason = "Rescheduled"

type Appointment struct {
	ID           int64             `json:"id"`
	SlotID       int64             `json:"slot_id" validate:"required"`
	ServiceID    int64             `json:"service_id" validate:"required"`
	ChatID       string            `json:"chat_id" validate:"required"`
	CustomerName string            `json:"customer_name,omitempty"`
	Status       AppointmentStatus `json:"status"`
	CancelReason string            `json:"cancel_reason,omitempty"`
	CancelledBy  CancelledBy       `json:"cancelled_by,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`

	Slot    *Slot    `json:"slot,omitempty"`
	Service *Service `json:"service,omitempty"`
}

// Active reports whether the appointment still occupies slot capacity.
func (a *Appointment) Active() bool {
	return a.Status != AppointmentCancelled
}

// Bucket maps the stored status to the bucket the admin panels render:
// pending, confirmed, cancelled or rejected.
func (a *Appointment) Bucket() string {
	if a.Status == AppointmentCancelled && a.CancelledBy == CancelledByStaff && a.CancelReason != "" {
		return "rejected"
	}
	return string(a.Status)
}
