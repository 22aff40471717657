package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/pkg/database"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// --- Test Helpers ---

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func strPtr(s string) *string { return &s }

var orderColumnNames = []string{
	"id", "order_number", "user_id", "business_entity_id", "service_id", "status", "current_progress",
	"total_amount", "currency", "payment_intent_id", "is_expedited", "entity_type", "state", "business_name",
	"customer_info", "business_info", "created_at", "updated_at",
}

func sampleFormationOrder() *domain.FormationOrder {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	return &domain.FormationOrder{
		ID:              "order-001",
		OrderNumber:     "PF-20261016-7KQ2M9",
		UserID:          "user-001",
		ServiceID:       strPtr("svc-llc"),
		Status:          domain.OrderStatusPending,
		CurrentProgress: 10,
		TotalAmount:     32500,
		Currency:        "usd",
		PaymentIntentID: "pi_123",
		IsExpedited:     true,
		EntityType:      "LLC",
		State:           "DE",
		BusinessName:    "Acme Holdings LLC",
		CustomerInfo:    []byte(`{"email":"jane@example.com"}`),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func orderRowValues(o *domain.FormationOrder) []any {
	var userID *string
	if o.UserID != "" {
		userID = strPtr(o.UserID)
	}
	return []any{
		o.ID, o.OrderNumber, userID, o.BusinessEntityID, o.ServiceID, o.Status, o.CurrentProgress,
		o.TotalAmount, o.Currency, o.PaymentIntentID, o.IsExpedited, o.EntityType, o.State, o.BusinessName,
		[]byte(o.CustomerInfo), []byte(o.BusinessInfo), o.CreatedAt, o.UpdatedAt,
	}
}

func orderRows(orders ...*domain.FormationOrder) *pgxmock.Rows {
	rows := pgxmock.NewRows(orderColumnNames)
	for _, o := range orders {
		rows.AddRow(orderRowValues(o)...)
	}
	return rows
}

// --- CreateOrGet Tests ---

func TestOrderRepository_CreateOrGet_Inserted(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleFormationOrder()

	args := make([]any, 18)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectQuery("INSERT INTO formation_orders").
		WithArgs(args...).
		WillReturnRows(orderRows(o))

	got, created, err := repo.CreateOrGet(context.Background(), o)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "pi_123", got.PaymentIntentID)
	assert.Equal(t, "user-001", got.UserID)
	assert.JSONEq(t, `{"email":"jane@example.com"}`, string(got.CustomerInfo))
	assert.Nil(t, got.BusinessInfo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateOrGet_ExistingPaymentIntent(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleFormationOrder()

	existing := sampleFormationOrder()
	existing.ID = "order-000"
	existing.OrderNumber = "PF-20261016-AAAAAA"

	mock.ExpectQuery("INSERT INTO formation_orders").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM formation_orders WHERE payment_intent_id").
		WithArgs("pi_123").
		WillReturnRows(orderRows(existing))

	got, created, err := repo.CreateOrGet(context.Background(), o)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "order-000", got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateOrGet_UniqueViolationFallsBackToExisting(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleFormationOrder()

	mock.ExpectQuery("INSERT INTO formation_orders").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: paymentIntentConstraint})
	mock.ExpectQuery("FROM formation_orders WHERE payment_intent_id").
		WithArgs("pi_123").
		WillReturnRows(orderRows(o))

	_, created, err := repo.CreateOrGet(context.Background(), o)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_CreateOrGet_InsertError(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("INSERT INTO formation_orders").WillReturnError(errors.New("connection reset"))

	_, _, err := repo.CreateOrGet(context.Background(), sampleFormationOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert formation order")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- GetByID Tests ---

func TestOrderRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleFormationOrder()
	o.BusinessEntityID = strPtr("ent-001")

	mock.ExpectQuery("FROM formation_orders WHERE id").
		WithArgs("order-001").
		WillReturnRows(orderRows(o))

	got, err := repo.GetByID(context.Background(), "order-001")
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, got.OrderNumber)
	require.NotNil(t, got.BusinessEntityID)
	assert.Equal(t, "ent-001", *got.BusinessEntityID)
	assert.Equal(t, int64(32500), got.TotalAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("FROM formation_orders WHERE id").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- List Tests ---

func TestOrderRepository_List_WithStatusFilter(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	o := sampleFormationOrder()

	rows := pgxmock.NewRows(append(append([]string{}, orderColumnNames...), "total_count")).
		AddRow(append(orderRowValues(o), 7)...)

	mock.ExpectQuery("FROM formation_orders").
		WithArgs(domain.OrderStatusPending, 10, 10).
		WillReturnRows(rows)

	status := domain.OrderStatusPending
	orders, total, err := repo.List(context.Background(), repository.OrderFilter{
		Status:  &status,
		Page:    2,
		PerPage: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "order-001", orders[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_List_DefaultsPagination(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("FROM formation_orders").
		WithArgs(20, 0).
		WillReturnRows(pgxmock.NewRows(append(append([]string{}, orderColumnNames...), "total_count")))

	orders, total, err := repo.List(context.Background(), repository.OrderFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- UpdateStatus Tests ---

func TestOrderRepository_UpdateStatus_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	updated := sampleFormationOrder()
	updated.Status = domain.OrderStatusProcessing
	updated.CurrentProgress = 25

	mock.ExpectQuery("UPDATE formation_orders").
		WithArgs(domain.OrderStatusProcessing, 25, "order-001", domain.OrderStatusPending).
		WillReturnRows(orderRows(updated))

	got, err := repo.UpdateStatus(context.Background(), "order-001",
		domain.OrderStatusPending, domain.OrderStatusProcessing, 25)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)
	assert.Equal(t, 25, got.CurrentProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_StatusChangedConcurrently(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	current := sampleFormationOrder()
	current.Status = domain.OrderStatusCancelled

	mock.ExpectQuery("UPDATE formation_orders").
		WithArgs(domain.OrderStatusProcessing, 25, "order-001", domain.OrderStatusPending).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM formation_orders WHERE id").
		WithArgs("order-001").
		WillReturnRows(orderRows(current))

	_, err := repo.UpdateStatus(context.Background(), "order-001",
		domain.OrderStatusPending, domain.OrderStatusProcessing, 25)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("UPDATE formation_orders").WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM formation_orders WHERE id").
		WithArgs("order-404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), "order-404",
		domain.OrderStatusPending, domain.OrderStatusProcessing, 25)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// --- AttachEntity Tests ---

func TestOrderRepository_AttachEntity_Success(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	linked := sampleFormationOrder()
	linked.BusinessEntityID = strPtr("entity-001")

	mock.ExpectQuery("UPDATE formation_orders").
		WithArgs("entity-001", "order-001").
		WillReturnRows(orderRows(linked))

	got, err := repo.AttachEntity(context.Background(), "order-001", "entity-001")
	require.NoError(t, err)
	require.NotNil(t, got.BusinessEntityID)
	assert.Equal(t, "entity-001", *got.BusinessEntityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_AttachEntity_OtherEntityIsConflict(t *testing.T) {
	mock := newMock(t)
	repo := NewOrderRepository(mock)
	current := sampleFormationOrder()
	current.BusinessEntityID = strPtr("entity-002")

	mock.ExpectQuery("UPDATE formation_orders").
		WithArgs("entity-001", "order-001").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("FROM formation_orders WHERE id").
		WithArgs("order-001").
		WillReturnRows(orderRows(current))

	_, err := repo.AttachEntity(context.Background(), "order-001", "entity-001")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}
