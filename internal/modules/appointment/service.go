package appointment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"bookadmin/internal/domain"
)

// Service owns the appointment state machine:
//
//	pending ──► confirmed ──► cancelled
//	   └──────────────────────────┘
//
// cancelled is terminal. The initial state depends on the organization's
// auto-confirm setting. Every successful transition emits exactly one
// lifecycle event; idempotent repeats emit nothing.
type Service struct {
	appointments AppointmentRepository
	slots        SlotRepository
	orgs         OrganizationRepository
	events       EventPublisher
	logger       *zap.Logger
}

func NewService(
	appointments AppointmentRepository,
	slots SlotRepository,
	orgs OrganizationRepository,
	events EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		appointments: appointments,
		slots:        slots,
		orgs:         orgs,
		events:       events,
		logger:       logger,
	}
}

// Create books a slot for a client. Capacity enforcement is delegated to the
// repository's conditional insert, so concurrent creates against the last
// capacity unit cannot both succeed.
func (s *Service) Create(ctx context.Context, req CreateAppointmentRequest) (*domain.Appointment, error) {
	slot, err := s.slots.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}
	if slot.ServiceID != req.ServiceID {
		return nil, domain.ErrServiceMismatch
	}

	status := domain.AppointmentPending
	org, err := s.orgs.GetByID(ctx, slot.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	if org.AutoConfirm {
		status = domain.AppointmentConfirmed
	}

	a := &domain.Appointment{
		SlotID:       req.SlotID,
		ServiceID:    req.ServiceID,
		ChatID:       req.ChatID,
		CustomerName: req.CustomerName,
		Status:       status,
	}
	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, err
	}

	s.publish(slot.OrganizationID, domain.EventAppointmentCreated, a)
	return a, nil
}

// Confirm moves pending to confirmed. Confirming an already confirmed
// appointment is a no-op; confirming a cancelled one is rejected.
func (s *Service) Confirm(ctx context.Context, id int64) (*domain.Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch a.Status {
	case domain.AppointmentCancelled:
		return nil, domain.ErrInvalidTransition
	case domain.AppointmentConfirmed:
		return a, nil
	}

	if err := s.appointments.UpdateStatus(ctx, id, domain.AppointmentConfirmed); err != nil {
		return nil, err
	}
	a.Status = domain.AppointmentConfirmed

	s.publishFor(ctx, domain.EventAppointmentConfirmed, a)
	return a, nil
}

// Cancel is reachable from any non-terminal state and idempotent: repeating
// it returns the same terminal state without a second event. A staff-supplied
// reason is what the admin panels bucket as "rejected".
func (s *Service) Cancel(ctx context.Context, id int64, reason string, by domain.CancelledBy) (*domain.Appointment, error) {
	changed, err := s.appointments.Cancel(ctx, id, reason, by)
	if err != nil {
		return nil, err
	}

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.publishFor(ctx, domain.EventAppointmentCancelled, a)
	}
	return a, nil
}

// UpdateStatus is the PUT /appointments/{id} surface: only the transitions
// the state machine allows are accepted.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Appointment, error) {
	switch domain.AppointmentStatus(status) {
	case domain.AppointmentConfirmed:
		return s.Confirm(ctx, id)
	case domain.AppointmentCancelled:
		return s.Cancel(ctx, id, "", domain.CancelledByClient)
	default:
		return nil, domain.ErrInvalidTransition
	}
}

// Reschedule books the same client into newSlotID and cancels the original,
// atomically at the store layer. A capacity failure aborts the whole
// operation with the original left untouched.
func (s *Service) Reschedule(ctx context.Context, id int64, newSlotID int64) (*domain.Appointment, error) {
	replacement, err := s.appointments.Reschedule(ctx, id, newSlotID)
	if err != nil {
		return nil, err
	}

	s.publishFor(ctx, domain.EventAppointmentCreated, replacement)
	if orig, verifyErr := s.appointments.GetByID(ctx, id); verifyErr == nil {
		// The store transaction cannot commit a half-applied reschedule;
		// verify anyway so a store without that guarantee surfaces the
		// condition to staff instead of silently double-booking.
		if orig.Active() {
			s.logger.Error("reschedule reconciliation required: original still active",
				zap.Int64("appointment_id", id),
				zap.Int64("replacement_id", replacement.ID))
		} else {
			s.publishFor(ctx, domain.EventAppointmentCancelled, orig)
		}
	}
	return replacement, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, serviceID int64, status string) ([]domain.Appointment, error) {
	return s.appointments.List(ctx, serviceID, domain.AppointmentStatus(status))
}

// publishFor resolves the organization through the slot before publishing.
func (s *Service) publishFor(ctx context.Context, t domain.EventType, a *domain.Appointment) {
	slot, err := s.slots.GetByID(ctx, a.SlotID)
	if err != nil {
		s.logger.Warn("event dropped: slot lookup failed",
			zap.Int64("appointment_id", a.ID), zap.Error(err))
		return
	}
	s.publish(slot.OrganizationID, t, a)
}

func (s *Service) publish(orgID int64, t domain.EventType, a *domain.Appointment) {
	if s.events == nil {
		return
	}
	s.events.Publish(orgID, domain.NewEvent(t, domain.EventData{
		AppointmentID:  a.ID,
		SlotID:         a.SlotID,
		ServiceID:      a.ServiceID,
		OrganizationID: orgID,
		CustomerName:   a.CustomerName,
		Status:         string(a.Status),
		Reason:         a.CancelReason,
	}))
}
