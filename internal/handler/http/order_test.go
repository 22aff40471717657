package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/event"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
)

const adminUserID = "1f2e3d4c-5b6a-4978-8a6b-5c4d3e2f1a0b"

func orderWithStatus(status string) *domain.FormationOrder {
	now := time.Now().UTC()
	return &domain.FormationOrder{
		ID:              testOrderID,
		OrderNumber:     "PF-20260101-ABCDEF",
		Status:          status,
		CurrentProgress: domain.ProgressForStatus(status),
		TotalAmount:     25000,
		Currency:        "usd",
		PaymentIntentID: "pi_1",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestAdminOrders_RequiresAuthentication(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminOrders_CustomerForbidden(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders", nil,
		withBearer(env.token(t, testUserID, domain.RoleCustomer)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	env.orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAdminOrders_ListFiltersAndPaginates(t *testing.T) {
	env := newTestEnv(t)
	status := domain.OrderStatusProcessing
	env.orders.On("List", mock.Anything, repository.OrderFilter{Status: &status, Page: 2, PerPage: 10}).
		Return([]domain.FormationOrder{*orderWithStatus(status)}, 11, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders?status=processing&page=2&per_page=10", nil,
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httputil.PaginatedResponse[domain.FormationOrder]
	require.NoError(t, decodeJSON(rec, &resp))
	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 11, resp.TotalCount)
	assert.Equal(t, 2, resp.TotalPages)
	assert.False(t, resp.HasNext)
	env.orders.AssertExpectations(t)
}

func TestAdminOrders_ListRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders?status=shipped", nil,
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrders_Get(t *testing.T) {
	env := newTestEnv(t)
	env.orders.On("GetByID", mock.Anything, testOrderID).Return(orderWithStatus(domain.OrderStatusPending), nil)

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders/"+testOrderID, nil,
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, decodeData[domain.FormationOrder](t, rec).CurrentProgress)
}

func TestAdminOrders_GetInvalidID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/admin/formation-orders/42", nil,
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
}

func TestAdminOrders_UpdateStatusAdvances(t *testing.T) {
	env := newTestEnv(t)
	env.orders.On("GetByID", mock.Anything, testOrderID).Return(orderWithStatus(domain.OrderStatusProcessing), nil)
	env.orders.On("UpdateStatus", mock.Anything, testOrderID, domain.OrderStatusProcessing, domain.OrderStatusDocumentsPrepared, 60).
		Return(orderWithStatus(domain.OrderStatusDocumentsPrepared), nil).Once()

	rec := env.do(t, http.MethodPatch, "/api/admin/formation-orders/"+testOrderID,
		map[string]any{"status": domain.OrderStatusDocumentsPrepared, "currentProgress": 99},
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	order := decodeData[domain.FormationOrder](t, rec)
	assert.Equal(t, domain.OrderStatusDocumentsPrepared, order.Status)
	assert.Equal(t, 60, order.CurrentProgress)
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, env.published.topics)
	env.orders.AssertExpectations(t)
}

func TestAdminOrders_UpdateStatusIllegalTransition(t *testing.T) {
	env := newTestEnv(t)
	env.orders.On("GetByID", mock.Anything, testOrderID).Return(orderWithStatus(domain.OrderStatusCompleted), nil)

	rec := env.do(t, http.MethodPatch, "/api/admin/formation-orders/"+testOrderID,
		map[string]string{"status": domain.OrderStatusCancelled},
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, rec).Code)
	env.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, env.published.topics)
}

func TestAdminOrders_UpdateStatusRace(t *testing.T) {
	env := newTestEnv(t)
	env.orders.On("GetByID", mock.Anything, testOrderID).Return(orderWithStatus(domain.OrderStatusPending), nil)
	env.orders.On("UpdateStatus", mock.Anything, testOrderID, domain.OrderStatusPending, domain.OrderStatusProcessing, 25).
		Return(nil, apperrors.Conflict("formation order status changed concurrently"))

	rec := env.do(t, http.MethodPatch, "/api/admin/formation-orders/"+testOrderID,
		map[string]string{"status": domain.OrderStatusProcessing},
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminOrders_UpdateStatusValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/api/admin/formation-orders/"+testOrderID,
		map[string]string{},
		withBearer(env.token(t, adminUserID, domain.RoleAdmin)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rec).Code)
}
