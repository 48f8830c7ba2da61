package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookadmin/internal/domain"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	var svc domain.Service
	tx := r.db.WithContext(ctx).First(&svc, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return &svc, nil
}

func (r *ServiceRepository) List(ctx context.Context, organizationID int64) ([]domain.Service, error) {
	var services []domain.Service
	q := r.db.WithContext(ctx).Order("id")
	if organizationID > 0 {
		q = q.Where("organization_id = ?", organizationID)
	}
	tx := q.Find(&services)
	return services, tx.Error
}

func (r *ServiceRepository) Create(ctx context.Context, svc *domain.Service) error {
	return r.db.WithContext(ctx).Create(svc).Error
}

func (r *ServiceRepository) Update(ctx context.Context, svc *domain.Service) error {
	return r.db.WithContext(ctx).Save(svc).Error
}

// Delete removes a service only while no non-cancelled appointment references
// it. The guard and the delete run in one transaction so a booking racing the
// delete cannot slip through.
func (r *ServiceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Raw(
			`SELECT COUNT(1) FROM appointments WHERE service_id = ? AND status <> 'cancelled'`,
			id,
		).Scan(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return domain.ErrServiceInUse
		}

		res := tx.Delete(&domain.Service{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return tx.Where("service_id = ?", id).Delete(&domain.Slot{}).Error
	})
}
