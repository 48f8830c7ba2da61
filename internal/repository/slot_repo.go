package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookadmin/internal/domain"
)

type SlotRepository struct {
	db *gorm.DB
}

func NewSlotRepository(db *gorm.DB) *SlotRepository {
	return &SlotRepository{db: db}
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	var slot domain.Slot
	tx := r.db.WithContext(ctx).First(&slot, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, tx.Error
	}
	return &slot, nil
}

// CreateBatch inserts generated slots, silently skipping any whose
// (service, start, end) interval already exists. Returns the number actually
// created, so re-running a generation request is idempotent.
func (r *SlotRepository) CreateBatch(ctx context.Context, slots []domain.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range slots {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "service_id"}, {Name: "start_time"}, {Name: "end_time"}},
				DoNothing: true,
			}).Create(&slots[i])
			if res.Error != nil {
				return res.Error
			}
			created += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ListForServiceDay returns all slots for a service whose start falls in
// [dayStart, dayEnd), ordered by start time then creation time so the
// availability resolver's tie-break is stable.
func (r *SlotRepository) ListForServiceDay(ctx context.Context, serviceID int64, dayStart, dayEnd time.Time) ([]domain.Slot, error) {
	var slots []domain.Slot
	tx := r.db.WithContext(ctx).
		Where("service_id = ? AND start_time >= ? AND start_time < ?", serviceID, dayStart, dayEnd).
		Order("start_time, created_at, id").
		Find(&slots)
	return slots, tx.Error
}

// Delete removes a slot only while its capacity is unused. The condition is
// part of the DELETE itself, so it cannot race an appointment insert.
func (r *SlotRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Exec(
		`DELETE FROM slots
		 WHERE id = ?
		   AND NOT EXISTS (
		       SELECT 1 FROM appointments
		       WHERE slot_id = ? AND status <> 'cancelled'
		   )`,
		id, id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Slot{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrSlotNotFound
	}
	return domain.ErrSlotInUse
}
