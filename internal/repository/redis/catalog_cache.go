package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seansyed/parafort-sub010/internal/domain"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

const catalogKeyPrefix = "catalog:service:"

// cachedService carries the price fields the public JSON hides.
type cachedService struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ServiceType    string    `json:"serviceType"`
	Description    string    `json:"description"`
	OneTimePrice   int64     `json:"oneTimePrice"`
	ExpeditedPrice *int64    `json:"expeditedPrice"`
	IsActive       bool      `json:"isActive"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ServiceCache implements repository.ServiceCache.
type ServiceCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewServiceCache creates a catalog cache whose entries live for ttl.
func NewServiceCache(client *redis.Client, ttl time.Duration) *ServiceCache {
	return &ServiceCache{client: client, ttl: ttl}
}

func (c *ServiceCache) Get(ctx context.Context, id string) (*domain.Service, error) {
	data, err := c.client.Get(ctx, catalogKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cached service", id)
		}
		return nil, fmt.Errorf("redis get service: %w", err)
	}

	var cs cachedService
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("unmarshal cached service: %w", err)
	}
	return &domain.Service{
		ID:             cs.ID,
		Name:           cs.Name,
		ServiceType:    cs.ServiceType,
		Description:    cs.Description,
		OneTimePrice:   cs.OneTimePrice,
		ExpeditedPrice: cs.ExpeditedPrice,
		IsActive:       cs.IsActive,
		CreatedAt:      cs.CreatedAt,
		UpdatedAt:      cs.UpdatedAt,
	}, nil
}

func (c *ServiceCache) Set(ctx context.Context, svc *domain.Service) error {
	data, err := json.Marshal(cachedService{
		ID:             svc.ID,
		Name:           svc.Name,
		ServiceType:    svc.ServiceType,
		Description:    svc.Description,
		OneTimePrice:   svc.OneTimePrice,
		ExpeditedPrice: svc.ExpeditedPrice,
		IsActive:       svc.IsActive,
		CreatedAt:      svc.CreatedAt,
		UpdatedAt:      svc.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}
	if err := c.client.Set(ctx, catalogKeyPrefix+svc.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set service: %w", err)
	}
	return nil
}

func (c *ServiceCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, catalogKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del service: %w", err)
	}
	return nil
}
