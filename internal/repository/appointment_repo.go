package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bookadmin/internal/domain"
)

type AppointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var a domain.Appointment
	tx := r.db.WithContext(ctx).First(&a, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, serviceID int64, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if serviceID > 0 {
		q = q.Where("service_id = ?", serviceID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Appointment
	tx := q.Find(&out)
	return out, tx.Error
}

// CountActiveBySlots returns non-cancelled appointment counts keyed by slot id.
// Slots with no active appointments are absent from the map.
func (r *AppointmentRepository) CountActiveBySlots(ctx context.Context, slotIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(slotIDs))
	if len(slotIDs) == 0 {
		return counts, nil
	}

	rows := []struct {
		SlotID int64
		N      int
	}{}
	tx := r.db.WithContext(ctx).Raw(
		`SELECT slot_id, COUNT(1) AS n
		 FROM appointments
		 WHERE slot_id IN ? AND status <> 'cancelled'
		 GROUP BY slot_id`,
		slotIDs,
	).Scan(&rows)
	if tx.Error != nil {
		return nil, tx.Error
	}
	for _, row := range rows {
		counts[row.SlotID] = row.N
	}
	return counts, nil
}

// Create inserts the appointment only while the slot still has spare
// capacity. The slot row is locked for the duration of the transaction on
// PostgreSQL, so two simultaneous creates against the last capacity unit are
// serialized and exactly one receives ErrCapacityExceeded.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.createInTx(tx, a)
	})
	return r.mapConstraintErr(err)
}

func (r *AppointmentRepository) createInTx(tx *gorm.DB, a *domain.Appointment) error {
	q := tx.Model(&domain.Slot{})
	if tx.Dialector.Name() == "postgres" {
		// SQLite serializes writers on its own; FOR UPDATE is postgres-only.
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var slot domain.Slot
	if err := q.Where("id = ?", a.SlotID).First(&slot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrSlotNotFound
		}
		return err
	}
	if slot.ServiceID != a.ServiceID {
		return domain.ErrServiceMismatch
	}

	var occupied int64
	if err := tx.Model(&domain.Appointment{}).
		Where("slot_id = ? AND status <> ?", a.SlotID, domain.AppointmentCancelled).
		Count(&occupied).Error; err != nil {
		return err
	}
	if int(occupied) >= slot.Capacity {
		return domain.ErrCapacityExceeded
	}

	return tx.Create(a).Error
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Cancel soft-cancels: status flips to cancelled and the row is kept for
// history views. Already-cancelled rows are left untouched and reported via
// the changed return so callers can skip the lifecycle event on repeats.
func (r *AppointmentRepository) Cancel(ctx context.Context, id int64, reason string, by domain.CancelledBy) (changed bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, txErr := cancelInTx(tx, id, reason, by)
		changed = c
		return txErr
	})
	return changed, err
}

func cancelInTx(tx *gorm.DB, id int64, reason string, by domain.CancelledBy) (bool, error) {
	now := time.Now().UTC()
	res := tx.Model(&domain.Appointment{}).
		Where("id = ? AND status <> ?", id, domain.AppointmentCancelled).
		Updates(map[string]interface{}{
			"status":        domain.AppointmentCancelled,
			"cancel_reason": reason,
			"cancelled_by":  by,
			"cancelled_at":  now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := tx.Model(&domain.Appointment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, domain.ErrNotFound
	}
	return false, nil
}

// Reschedule creates a replacement appointment against newSlotID and cancels
// the original, in one transaction. A capacity failure on the new slot rolls
// everything back and leaves the original untouched; the two-live-appointments
// window of a naive create-then-cancel cannot commit.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id int64, newSlotID int64) (*domain.Appointment, error) {
	var replacement domain.Appointment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orig domain.Appointment
		if err := tx.First(&orig, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if orig.Status == domain.AppointmentCancelled {
			return domain.ErrInvalidTransition
		}

		replacement = domain.Appointment{
			SlotID:       newSlotID,
			ServiceID:    orig.ServiceID,
			ChatID:       orig.ChatID,
			CustomerName: orig.CustomerName,
			Status:       orig.Status,
		}
		if err := r.createInTx(tx, &replacement); err != nil {
			return err
		}

		_, err := cancelInTx(tx, orig.ID, domain.RescheduleReason, domain.CancelledByStaff)
		return err
	})
	if err != nil {
		return nil, r.mapConstraintErr(err)
	}
	return &replacement, nil
}

// mapConstraintErr turns a unique-index violation from the per-slot capacity
// backstop into the domain error, matching how the lock path reports it.
func (r *AppointmentRepository) mapConstraintErr(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrCapacityExceeded
	}
	return err
}
