package service

import (
	"context"
	"fmt"
	"time"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// Caller is the authenticated principal making a request.
type Caller struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller has the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// CanSee reports whether the caller may read a record owned by ownerID.
func (c Caller) CanSee(ownerID string) bool {
	return c.IsAdmin() || (c.UserID != "" && c.UserID == ownerID)
}

// EntityService exposes a customer's business entities. Only the owner or an
// admin may read an entity.
type EntityService struct {
	entities repository.EntityRepository
	orders   *OrderService
	now      func() time.Time
}

// NewEntityService creates a new EntityService.
func NewEntityService(entities repository.EntityRepository, orders *OrderService) *EntityService {
	return &EntityService{entities: entities, orders: orders, now: time.Now}
}

// Get returns the entity if caller may see it. Other users' entities are
// reported as not found.
func (s *EntityService) Get(ctx context.Context, id string, caller Caller) (*domain.BusinessEntity, error) {
	e, err := s.entities.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get business entity %s: %w", id, err)
	}
	if !caller.CanSee(e.UserID) {
		return nil, apperrors.NotFound("business entity", id)
	}
	return e, nil
}

// ListOrders returns the entity's formation orders.
func (s *EntityService) ListOrders(ctx context.Context, id string, caller Caller, page, perPage int) ([]domain.FormationOrder, int, error) {
	if _, err := s.Get(ctx, id, caller); err != nil {
		return nil, 0, err
	}
	return s.orders.ListForEntity(ctx, id, page, perPage)
}

// ListDocuments returns the entity's documents.
func (s *EntityService) ListDocuments(ctx context.Context, id string, caller Caller) ([]domain.Document, error) {
	if _, err := s.Get(ctx, id, caller); err != nil {
		return nil, err
	}
	docs, err := s.entities.ListDocuments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ListCompliance returns the entity's compliance calendar with overdue
// items flagged.
func (s *EntityService) ListCompliance(ctx context.Context, id string, caller Caller) ([]domain.ComplianceItem, error) {
	if _, err := s.Get(ctx, id, caller); err != nil {
		return nil, err
	}
	items, err := s.entities.ListCompliance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list compliance items: %w", err)
	}
	now := s.now()
	for i := range items {
		items[i].MarkOverdue(now)
	}
	return items, nil
}
