package bookingflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"bookadmin/internal/domain"
)

// Field error codes surfaced inline by the form.
const (
	FieldServiceRequired  = "serviceRequired"
	FieldDateRequired     = "dateRequired"
	FieldSlotRequired     = "slotRequired"
	FieldChatIDRequired   = "chatIdRequired"
	FieldCapacityExceeded = "capacityExceeded"
)

// FieldErrors maps form fields to error codes.
type FieldErrors map[string]string

var (
	ErrOutOfOrder      = errors.New("previous stage not completed")
	ErrSubmitInFlight  = errors.New("submission already in progress")
	ErrSlotUnavailable = errors.New("slot is not available")
)

// Orchestrator sequences the booking form: select service, then date, then
// an available slot, then submit. Each stage change invalidates everything
// downstream. One orchestrator per form instance; safe for the UI thread
// plus the live-sync callback.
type Orchestrator struct {
	mu      sync.Mutex
	api     BookingAPI
	store   *Store
	timeout time.Duration

	serviceID    int64
	date         string
	slotID       int64
	chatID       string
	customerName string
	submitting   bool
}

func NewOrchestrator(api BookingAPI, store *Store, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		api:     api,
		store:   store,
		timeout: timeout,
	}
}

// LoadServices populates the service list for the first stage.
func (o *Orchestrator) LoadServices(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	services, err := o.api.ListServices(ctx)
	if err != nil {
		o.store.markRefreshFailed()
		return err
	}
	o.store.setServices(services)
	return nil
}

// SelectService starts the flow over from stage one: date and slot selections
// are dropped and cached slots cleared.
func (o *Orchestrator) SelectService(serviceID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.serviceID = serviceID
	o.date = ""
	o.slotID = 0
	o.store.clearSlots()
}

// SelectDate requires a selected service, drops any slot selection and
// fetches that day's annotated slots.
func (o *Orchestrator) SelectDate(ctx context.Context, date string) error {
	o.mu.Lock()
	if o.serviceID == 0 {
		o.mu.Unlock()
		return ErrOutOfOrder
	}
	o.date = date
	o.slotID = 0
	serviceID := o.serviceID
	o.mu.Unlock()

	return o.fetchSlots(ctx, serviceID, date)
}

// SelectSlot requires a selected date and accepts only slots the resolver
// currently reports as available.
func (o *Orchestrator) SelectSlot(slotID int64) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.serviceID == 0 || o.date == "" {
		return ErrOutOfOrder
	}
	slot, ok := o.store.SlotByID(slotID)
	if !ok || slot.Status != domain.SlotAvailable {
		return ErrSlotUnavailable
	}
	o.slotID = slotID
	return nil
}

func (o *Orchestrator) SetClient(chatID, customerName string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chatID = chatID
	o.customerName = customerName
}

// Submit validates the assembled form, guards against duplicate in-flight
// submissions and posts the booking. The successful response doubles as the
// acknowledgment: the local slot list is refreshed immediately instead of
// waiting for the push event, which other sessions rely on.
func (o *Orchestrator) Submit(ctx context.Context) (*domain.Appointment, FieldErrors, error) {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return nil, nil, ErrSubmitInFlight
	}
	if fields := o.validateLocked(); len(fields) > 0 {
		o.mu.Unlock()
		return nil, fields, nil
	}
	o.submitting = true
	req := CreateRequest{
		ChatID:       o.chatID,
		ServiceID:    o.serviceID,
		SlotID:       o.slotID,
		CustomerName: o.customerName,
	}
	serviceID, date := o.serviceID, o.date
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	appt, err := o.api.CreateAppointment(callCtx, req)
	if err != nil {
		if fields := fieldErrorsFrom(err); fields != nil {
			return nil, fields, nil
		}
		// Transport or server failure: state is untouched, the user may retry.
		return nil, nil, err
	}

	_ = o.fetchSlots(ctx, serviceID, date)
	return appt, nil, nil
}

// Refresh is the live-sync re-fetch trigger: it reloads the slot list for
// the current selection. A failure leaves the previous data in place with
// the store's refresh-failed flag set.
func (o *Orchestrator) Refresh(ctx context.Context) {
	o.mu.Lock()
	serviceID, date := o.serviceID, o.date
	o.mu.Unlock()

	if serviceID == 0 || date == "" {
		return
	}
	_ = o.fetchSlots(ctx, serviceID, date)
}

func (o *Orchestrator) fetchSlots(ctx context.Context, serviceID int64, date string) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	slots, err := o.api.DaySchedule(ctx, serviceID, date)
	if err != nil {
		o.store.markRefreshFailed()
		return err
	}
	o.store.setSlots(slots)

	// The selected slot may have been taken meanwhile.
	o.mu.Lock()
	if o.slotID != 0 {
		if slot, ok := o.store.SlotByID(o.slotID); !ok || slot.Status != domain.SlotAvailable {
			o.slotID = 0
		}
	}
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) validateLocked() FieldErrors {
	fields := FieldErrors{}
	if o.serviceID == 0 {
		fields["service"] = FieldServiceRequired
	}
	if o.date == "" {
		fields["date"] = FieldDateRequired
	}
	if o.slotID == 0 {
		fields["slot"] = FieldSlotRequired
	}
	if o.chatID == "" {
		fields["chat_id"] = FieldChatIDRequired
	}
	return fields
}

// fieldErrorsFrom maps server-side rejections onto form fields, so capacity
// races show up on the slot picker rather than as a generic failure.
func fieldErrorsFrom(err error) FieldErrors {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return nil
	}
	switch apiErr.Code {
	case "CAPACITY_EXCEEDED":
		return FieldErrors{"slot": FieldCapacityExceeded}
	case "SLOT_NOT_FOUND", "SERVICE_MISMATCH":
		return FieldErrors{"slot": FieldSlotRequired}
	case "VALIDATION_ERROR":
		return FieldErrors{"form": "validationFailed"}
	}
	return nil
}
