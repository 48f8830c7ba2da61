package catalog

import (
	"context"
	"fmt"

	"bookadmin/internal/domain"
	"bookadmin/internal/pkg/validator"
)

type Service struct {
	services ServiceRepository
	orgs     OrganizationRepository
}

func NewService(services ServiceRepository, orgs OrganizationRepository) *Service {
	return &Service{services: services, orgs: orgs}
}

func (s *Service) ListServices(ctx context.Context, organizationID int64) ([]domain.Service, error) {
	return s.services.List(ctx, organizationID)
}

func (s *Service) ListOrganizations(ctx context.Context) ([]domain.Organization, error) {
	return s.orgs.List(ctx)
}

func (s *Service) CreateService(ctx context.Context, svc *domain.Service) (map[string]string, error) {
	if fields := validator.Validate(svc); fields != nil {
		return fields, fmt.Errorf("invalid service")
	}
	if _, err := s.orgs.GetByID(ctx, svc.OrganizationID); err != nil {
		return nil, err
	}
	return nil, s.services.Create(ctx, svc)
}

func (s *Service) UpdateService(ctx context.Context, svc *domain.Service) (map[string]string, error) {
	current, err := s.services.GetByID(ctx, svc.ID)
	if err != nil {
		return nil, err
	}
	// Duration is the slot-slicing unit; existing grids depend on it.
	svc.DurationMinutes = current.DurationMinutes
	svc.OrganizationID = current.OrganizationID
	if fields := validator.Validate(svc); fields != nil {
		return fields, fmt.Errorf("invalid service")
	}
	return nil, s.services.Update(ctx, svc)
}

// DeleteService refuses to remove a service that active appointments still
// reference; the repository enforces the guard atomically.
func (s *Service) DeleteService(ctx context.Context, id int64) error {
	return s.services.Delete(ctx, id)
}
