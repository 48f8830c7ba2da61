package bookingflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookadmin/internal/domain"
)

// fakeAPI implements BookingAPI with swappable behaviour per test.
type fakeAPI struct {
	mu            sync.Mutex
	services      []domain.Service
	slots         []domain.AnnotatedSlot
	scheduleErr   error
	createFn      func(ctx context.Context, req CreateRequest) (*domain.Appointment, error)
	scheduleCalls int
}

func (f *fakeAPI) ListServices(context.Context) ([]domain.Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.services, nil
}

func (f *fakeAPI) DaySchedule(context.Context, int64, string) ([]domain.AnnotatedSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduleCalls++
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return f.slots, nil
}

func (f *fakeAPI) CreateAppointment(ctx context.Context, req CreateRequest) (*domain.Appointment, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return &domain.Appointment{ID: 1, SlotID: req.SlotID, ServiceID: req.ServiceID, Status: domain.AppointmentPending}, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduleCalls
}

func annotated(id int64, status domain.SlotStatus) domain.AnnotatedSlot {
	return domain.AnnotatedSlot{
		Slot:   domain.Slot{ID: id, ServiceID: 1, Capacity: 1},
		Status: status,
	}
}

func newTestFlow(api *fakeAPI) (*Orchestrator, *Store) {
	store := NewStore()
	return NewOrchestrator(api, store, time.Second), store
}

// advance walks the form to the slot-selected stage.
func advance(t *testing.T, o *Orchestrator) {
	t.Helper()
	o.SelectService(1)
	require.NoError(t, o.SelectDate(context.Background(), "2026-03-02"))
	require.NoError(t, o.SelectSlot(10))
}

func TestOrchestrator_StagesMustRunInOrder(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, _ := newTestFlow(api)

	assert.ErrorIs(t, o.SelectDate(context.Background(), "2026-03-02"), ErrOutOfOrder)
	assert.ErrorIs(t, o.SelectSlot(10), ErrOutOfOrder)

	o.SelectService(1)
	assert.ErrorIs(t, o.SelectSlot(10), ErrOutOfOrder)

	require.NoError(t, o.SelectDate(context.Background(), "2026-03-02"))
	assert.NoError(t, o.SelectSlot(10))
}

func TestOrchestrator_SelectServiceInvalidatesDownstream(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, store := newTestFlow(api)
	advance(t, o)

	o.SelectService(2)

	assert.Empty(t, store.Slots())
	assert.ErrorIs(t, o.SelectSlot(10), ErrOutOfOrder)
}

func TestOrchestrator_SelectDateDropsSlotSelection(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")

	require.NoError(t, o.SelectDate(context.Background(), "2026-03-03"))

	_, fields, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FieldSlotRequired, fields["slot"])
}

func TestOrchestrator_SelectSlot_RejectsUnavailable(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{
		annotated(10, domain.SlotBooked),
		annotated(11, domain.SlotConflict),
		annotated(12, domain.SlotAvailable),
	}}
	o, _ := newTestFlow(api)
	o.SelectService(1)
	require.NoError(t, o.SelectDate(context.Background(), "2026-03-02"))

	assert.ErrorIs(t, o.SelectSlot(10), ErrSlotUnavailable)
	assert.ErrorIs(t, o.SelectSlot(11), ErrSlotUnavailable)
	assert.ErrorIs(t, o.SelectSlot(99), ErrSlotUnavailable)
	assert.NoError(t, o.SelectSlot(12))
}

func TestOrchestrator_Submit_MissingFields(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, _ := newTestFlow(api)
	advance(t, o)
	// chat id never set

	appt, fields, err := o.Submit(context.Background())

	require.NoError(t, err)
	assert.Nil(t, appt)
	assert.Equal(t, FieldErrors{"chat_id": FieldChatIDRequired}, fields)
}

func TestOrchestrator_Submit_Success(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")
	before := api.calls()

	appt, fields, err := o.Submit(context.Background())

	require.NoError(t, err)
	assert.Empty(t, fields)
	require.NotNil(t, appt)
	assert.Equal(t, int64(10), appt.SlotID)
	// The ack refreshes the local slot list without waiting for the push event.
	assert.Equal(t, before+1, api.calls())
}

func TestOrchestrator_Submit_CapacityRaceMapsToSlotField(t *testing.T) {
	api := &fakeAPI{
		slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)},
		createFn: func(context.Context, CreateRequest) (*domain.Appointment, error) {
			return nil, &APIError{Code: "CAPACITY_EXCEEDED", Message: "slot is fully booked"}
		},
	}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")

	appt, fields, err := o.Submit(context.Background())

	require.NoError(t, err)
	assert.Nil(t, appt)
	assert.Equal(t, FieldErrors{"slot": FieldCapacityExceeded}, fields)
}

func TestOrchestrator_Submit_TransportFailureIsRetryable(t *testing.T) {
	transportErr := errors.New("connection refused")
	api := &fakeAPI{
		slots:    []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)},
		createFn: func(context.Context, CreateRequest) (*domain.Appointment, error) { return nil, transportErr },
	}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")

	_, fields, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, transportErr)
	assert.Nil(t, fields)

	// The form state survived; a retry after the server recovers succeeds.
	api.createFn = nil
	appt, _, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, appt)
}

func TestOrchestrator_Submit_DuplicateInFlightRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{
		slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)},
		createFn: func(context.Context, CreateRequest) (*domain.Appointment, error) {
			close(entered)
			<-release
			return &domain.Appointment{ID: 1}, nil
		},
	}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")

	done := make(chan error, 1)
	go func() {
		_, _, err := o.Submit(context.Background())
		done <- err
	}()
	<-entered

	_, _, err := o.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	assert.NoError(t, <-done)
}

func TestOrchestrator_Refresh_DropsTakenSlot(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, _ := newTestFlow(api)
	advance(t, o)
	o.SetClient("42", "Aru")

	// Another session takes the slot; the push event triggers Refresh.
	api.mu.Lock()
	api.slots = []domain.AnnotatedSlot{annotated(10, domain.SlotBooked)}
	api.mu.Unlock()
	o.Refresh(context.Background())

	_, fields, err := o.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, FieldSlotRequired, fields["slot"])
}

func TestOrchestrator_Refresh_FailureKeepsStaleData(t *testing.T) {
	api := &fakeAPI{slots: []domain.AnnotatedSlot{annotated(10, domain.SlotAvailable)}}
	o, store := newTestFlow(api)
	advance(t, o)

	api.mu.Lock()
	api.scheduleErr = errors.New("timeout")
	api.mu.Unlock()
	o.Refresh(context.Background())

	assert.True(t, store.RefreshFailed())
	require.Len(t, store.Slots(), 1)
	assert.Equal(t, int64(10), store.Slots()[0].ID)

	// A later successful refresh clears the flag.
	api.mu.Lock()
	api.scheduleErr = nil
	api.mu.Unlock()
	o.Refresh(context.Background())
	assert.False(t, store.RefreshFailed())
}

func TestOrchestrator_RefreshBeforeDateSelectedIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	o, _ := newTestFlow(api)

	o.Refresh(context.Background())

	assert.Zero(t, api.calls())
}
