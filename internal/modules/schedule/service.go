package schedule

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bookadmin/internal/domain"
)

type Service struct {
	services ServiceRepository
	slots    SlotRepository
	appts    OccupancyReader
	logger   *zap.Logger
}

func NewService(services ServiceRepository, slots SlotRepository, appts OccupancyReader, logger *zap.Logger) *Service {
	return &Service{
		services: services,
		slots:    slots,
		appts:    appts,
		logger:   logger,
	}
}

// GenerateSlots validates the request, expands it into a slot batch and
// persists it. Validation fails before any write; persistence skips slots
// whose interval already exists, so re-running a request is safe.
func (s *Service) GenerateSlots(ctx context.Context, req GenerateSlotsRequest) (int, error) {
	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if err != nil {
		return 0, err
	}

	cfg, err := s.buildConfig(svc, req)
	if err != nil {
		return 0, err
	}

	batch, err := GenerateSlots(cfg)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, nil
	}

	created, err := s.slots.CreateBatch(ctx, batch)
	if err != nil {
		return 0, err
	}
	s.logger.Info("slots generated",
		zap.Int64("service_id", svc.ID),
		zap.Int("candidates", len(batch)),
		zap.Int("created", created))
	return created, nil
}

func (s *Service) buildConfig(svc *domain.Service, req GenerateSlotsRequest) (GenerationConfig, error) {
	cfg := GenerationConfig{
		ServiceID:      svc.ID,
		OrganizationID: svc.OrganizationID,
		Capacity:       req.Capacity,
	}
	if cfg.Capacity == 0 {
		cfg.Capacity = 1
	}

	interval := req.IntervalMinutes
	if interval == 0 {
		interval = svc.DurationMinutes
	}
	if interval <= 0 {
		return cfg, fmt.Errorf("%w: interval must be positive", ErrValidation)
	}
	cfg.Interval = time.Duration(interval) * time.Minute

	var err error
	if cfg.StartDate, err = parseDate(req.StartDate); err != nil {
		return cfg, err
	}
	if cfg.EndDate, err = parseDate(req.EndDate); err != nil {
		return cfg, err
	}
	if cfg.WorkStart, err = parseClock(req.StartTime); err != nil {
		return cfg, err
	}
	if cfg.WorkEnd, err = parseClock(req.EndTime); err != nil {
		return cfg, err
	}

	if req.BreakStart != "" || req.BreakEnd != "" {
		if req.BreakStart == "" || req.BreakEnd == "" {
			return cfg, fmt.Errorf("%w: break window requires both break_start and break_end", ErrValidation)
		}
		if cfg.BreakStart, err = parseClock(req.BreakStart); err != nil {
			return cfg, err
		}
		if cfg.BreakEnd, err = parseClock(req.BreakEnd); err != nil {
			return cfg, err
		}
		if cfg.BreakEnd <= cfg.BreakStart {
			return cfg, fmt.Errorf("%w: break_end must be after break_start", ErrValidation)
		}
	}

	if len(req.Weekdays) > 0 {
		cfg.Weekdays = make(map[time.Weekday]bool, len(req.Weekdays))
		for _, d := range req.Weekdays {
			if d < 0 || d > 6 {
				return cfg, fmt.Errorf("%w: weekday out of range: %d", ErrValidation, d)
			}
			cfg.Weekdays[time.Weekday(d)] = true
		}
	}

	return cfg, nil
}

// DaySchedule returns the service's slots for one date annotated with their
// availability status. Occupancy is re-derived on every call.
func (s *Service) DaySchedule(ctx context.Context, serviceID int64, dateStr string) (*DayScheduleResponse, error) {
	if _, err := s.services.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}
	day, err := parseDate(dateStr)
	if err != nil {
		return nil, err
	}

	slots, err := s.slots.ListForServiceDay(ctx, serviceID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(slots))
	for _, sl := range slots {
		ids = append(ids, sl.ID)
	}
	occupancy, err := s.appts.CountActiveBySlots(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &DayScheduleResponse{
		ServiceID: serviceID,
		Date:      dateStr,
		Slots:     Resolve(slots, occupancy),
	}, nil
}

func (s *Service) DeleteSlot(ctx context.Context, id int64) error {
	return s.slots.Delete(ctx, id)
}
