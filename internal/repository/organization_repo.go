package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bookadmin/internal/domain"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id int64) (*domain.Organization, error) {
	var org domain.Organization
	tx := r.db.WithContext(ctx).First(&org, id)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, tx.Error
	}
	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]domain.Organization, error) {
	var orgs []domain.Organization
	tx := r.db.WithContext(ctx).Order("id").Find(&orgs)
	return orgs, tx.Error
}

func (r *OrganizationRepository) Create(ctx context.Context, org *domain.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}
