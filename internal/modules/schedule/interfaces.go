package schedule

import (
	"context"
	"time"

	"bookadmin/internal/domain"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []domain.Slot) (int, error)
	ListForServiceDay(ctx context.Context, serviceID int64, dayStart, dayEnd time.Time) ([]domain.Slot, error)
	Delete(ctx context.Context, id int64) error
}

// OccupancyReader exposes the derived per-slot occupancy the resolver needs.
type OccupancyReader interface {
	CountActiveBySlots(ctx context.Context, slotIDs []int64) (map[int64]int, error)
}
