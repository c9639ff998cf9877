package analytics

import (
	"context"

	pkgerrors "github.com/poiquest/poiquest-backend/pkg/errors"
)

type reportsRepository interface {
	Overview(ctx context.Context) (*OverviewDTO, error)
	EventsByCategory(ctx context.Context) ([]CategoryCountDTO, error)
	RegistrationsByMonth(ctx context.Context) ([]MonthlyCountDTO, error)
}

// Service provides the admin reporting endpoints.
type Service interface {
	Overview(ctx context.Context) (*OverviewDTO, error)
	EventsByCategory(ctx context.Context) ([]CategoryCountDTO, error)
	RegistrationsByMonth(ctx context.Context) ([]MonthlyCountDTO, error)
}

type service struct {
	repo reportsRepository
}

// NewService builds an analytics service over the provided repository.
func NewService(repo reportsRepository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Overview(ctx context.Context) (*OverviewDTO, error) {
	out, err := s.repo.Overview(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "overview report")
	}
	return out, nil
}

func (s *service) EventsByCategory(ctx context.Context) ([]CategoryCountDTO, error) {
	rows, err := s.repo.EventsByCategory(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "events by category report")
	}
	return rows, nil
}

func (s *service) RegistrationsByMonth(ctx context.Context) ([]MonthlyCountDTO, error) {
	rows, err := s.repo.RegistrationsByMonth(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "registrations by month report")
	}
	return rows, nil
}
