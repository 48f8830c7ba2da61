package catalog

import (
	"context"

	"bookadmin/internal/domain"
)

type ServiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
	List(ctx context.Context, organizationID int64) ([]domain.Service, error)
	Create(ctx context.Context, svc *domain.Service) error
	Update(ctx context.Context, svc *domain.Service) error
	Delete(ctx context.Context, id int64) error
}

type OrganizationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Organization, error)
	List(ctx context.Context) ([]domain.Organization, error)
}
