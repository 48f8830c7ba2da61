package bookingflow

import (
	"context"
	"fmt"

	"bookadmin/internal/domain"
)

// BookingAPI is the narrow slice of the admin API the booking form consumes.
// Both frontends drive the same orchestrator through it instead of
// re-deriving scheduling rules per view layer.
type BookingAPI interface {
	ListServices(ctx context.Context) ([]domain.Service, error)
	DaySchedule(ctx context.Context, serviceID int64, date string) ([]domain.AnnotatedSlot, error)
	CreateAppointment(ctx context.Context, req CreateRequest) (*domain.Appointment, error)
}

type CreateRequest struct {
	ChatID       string `json:"chat_id"`
	ServiceID    int64  `json:"service_id"`
	SlotID       int64  `json:"slot_id"`
	CustomerName string `json:"customer_name,omitempty"`
}

// APIError is a structured error decoded from the server envelope. Transport
// failures stay plain errors and are eligible for user-triggered retry.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
