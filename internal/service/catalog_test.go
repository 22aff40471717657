package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/domain"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

func TestCatalog_CacheHit(t *testing.T) {
	repo := new(mockServiceRepository)
	cache := new(mockServiceCache)
	svc := NewCatalogService(repo, cache, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx, llcServiceID).Return(llcService(), nil)

	got, err := svc.GetService(ctx, llcServiceID)
	require.NoError(t, err)
	assert.Equal(t, "LLC Formation", got.Name)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCatalog_CacheMissFillsCache(t *testing.T) {
	repo := new(mockServiceRepository)
	cache := new(mockServiceCache)
	svc := NewCatalogService(repo, cache, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx, llcServiceID).Return(nil, apperrors.NotFound("service", llcServiceID))
	repo.On("GetByID", ctx, llcServiceID).Return(llcService(), nil)
	cache.On("Set", ctx, mock.AnythingOfType("*domain.Service")).Return(nil)

	_, err := svc.GetService(ctx, llcServiceID)
	require.NoError(t, err)
	cache.AssertCalled(t, "Set", ctx, mock.Anything)
}

func TestCatalog_CacheErrorsFallThrough(t *testing.T) {
	repo := new(mockServiceRepository)
	cache := new(mockServiceCache)
	svc := NewCatalogService(repo, cache, newTestLogger())
	ctx := context.Background()

	cache.On("Get", ctx, llcServiceID).Return(nil, errors.New("redis down"))
	repo.On("GetByID", ctx, llcServiceID).Return(llcService(), nil)
	cache.On("Set", ctx, mock.Anything).Return(errors.New("redis down"))

	got, err := svc.GetService(ctx, llcServiceID)
	require.NoError(t, err)
	assert.Equal(t, llcServiceID, got.ID)
}

func TestCatalog_GetActiveServiceHidesInactive(t *testing.T) {
	repo := new(mockServiceRepository)
	svc := NewCatalogService(repo, nil, newTestLogger())
	ctx := context.Background()

	inactive := llcService()
	inactive.IsActive = false
	repo.On("GetByID", ctx, llcServiceID).Return(inactive, nil)

	_, err := svc.GetActiveService(ctx, llcServiceID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCatalog_ListServices(t *testing.T) {
	repo := new(mockServiceRepository)
	svc := NewCatalogService(repo, nil, newTestLogger())
	ctx := context.Background()

	repo.On("ListActive", ctx).Return([]domain.Service{*llcService()}, nil)

	list, err := svc.ListServices(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
