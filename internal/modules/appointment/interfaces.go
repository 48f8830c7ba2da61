package appointment

import (
	"context"

	"bookadmin/internal/domain"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) error
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	List(ctx context.Context, serviceID int64, status domain.AppointmentStatus) ([]domain.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error
	Cancel(ctx context.Context, id int64, reason string, by domain.CancelledBy) (changed bool, err error)
	Reschedule(ctx context.Context, id int64, newSlotID int64) (*domain.Appointment, error)
}

type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Slot, error)
}

type OrganizationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
}

// EventPublisher pushes lifecycle events to connected admin sessions. The
// live hub implements it; a nil publisher is allowed in tests.
type EventPublisher interface {
	Publish(organizationID int64, ev domain.Event)
}
