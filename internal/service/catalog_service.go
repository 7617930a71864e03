package service

import (
	"context"
	"fmt"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/repository"
	apperrors "github.com/tickethelp/repair-service/pkg/util"
)

// CatalogService exposes the read-only status catalog.
type CatalogService struct {
	base
}

// NewCatalogService constructs the service.
func NewCatalogService(deps Dependencies) *CatalogService {
	return &CatalogService{base: newBase(deps)}
}

// ListStatuses returns every status ordered by id.
func (s *CatalogService) ListStatuses(ctx context.Context, user *domain.User) ([]domain.Status, error) {
	if err := s.authorize(user, auth.ResourceStatus, auth.ActionRead, nil, ""); err != nil {
		return nil, err
	}
	statuses, err := s.store.Repos().Statuses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return statuses, nil
}

// GetStatus returns the status with id.
func (s *CatalogService) GetStatus(ctx context.Context, user *domain.User, id int64) (*domain.Status, error) {
	if err := s.authorize(user, auth.ResourceStatus, auth.ActionRead, nil, ""); err != nil {
		return nil, err
	}
	return notFoundStatus(s.store.Repos().Statuses.GetByID(ctx, id))
}

// GetStatusByCode returns the status with code.
func (s *CatalogService) GetStatusByCode(ctx context.Context, user *domain.User, code string) (*domain.Status, error) {
	if err := s.authorize(user, auth.ResourceStatus, auth.ActionRead, nil, ""); err != nil {
		return nil, err
	}
	return notFoundStatus(s.store.Repos().Statuses.GetByCode(ctx, code))
}

func notFoundStatus(status *domain.Status, err error) (*domain.Status, error) {
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("status", nil)
		}
		return nil, err
	}
	return status, nil
}
