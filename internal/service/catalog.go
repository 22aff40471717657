package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// CatalogService serves the service catalog through a read-through cache.
type CatalogService struct {
	repo   repository.ServiceRepository
	cache  repository.ServiceCache
	logger *slog.Logger
}

// NewCatalogService creates a new CatalogService. cache may be nil.
func NewCatalogService(repo repository.ServiceRepository, cache repository.ServiceCache, logger *slog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

// GetService returns a service by ID, consulting the cache first. Cache
// failures fall through to the database.
func (s *CatalogService) GetService(ctx context.Context, id string) (*domain.Service, error) {
	if s.cache != nil {
		svc, err := s.cache.Get(ctx, id)
		if err == nil {
			return svc, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "service cache read failed",
				slog.String("service_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	svc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get service %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, svc); err != nil {
			s.logger.WarnContext(ctx, "service cache write failed",
				slog.String("service_id", id),
				slog.String("error", err.Error()),
			)
		}
	}
	return svc, nil
}

// GetActiveService is GetService restricted to purchasable services.
func (s *CatalogService) GetActiveService(ctx context.Context, id string) (*domain.Service, error) {
	svc, err := s.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		return nil, apperrors.NotFound("service", id)
	}
	return svc, nil
}

// ListServices returns every active service.
func (s *CatalogService) ListServices(ctx context.Context) ([]domain.Service, error) {
	services, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}
