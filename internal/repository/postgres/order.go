package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/pkg/database"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

const paymentIntentConstraint = "formation_orders_payment_intent_id_key"

const orderColumns = `id, order_number, user_id, business_entity_id, service_id, status, current_progress,
	total_amount, currency, payment_intent_id, is_expedited, entity_type, state, business_name,
	customer_info, business_info, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed formation order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateOrGet inserts o. When an order for o.PaymentIntentID already exists
// the insert is skipped and the stored order is returned with created false.
func (r *OrderRepository) CreateOrGet(ctx context.Context, o *domain.FormationOrder) (_ *domain.FormationOrder, _ bool, err error) {
	query := `
		INSERT INTO formation_orders (id, order_number, user_id, business_entity_id, service_id, status,
			current_progress, total_amount, currency, payment_intent_id, is_expedited, entity_type, state,
			business_name, customer_info, business_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT ON CONSTRAINT ` + paymentIntentConstraint + ` DO NOTHING
		RETURNING ` + orderColumns

	ctx, end := database.TraceQuery(ctx, "CreateFormationOrder", query)
	created, err := scanOrder(r.pool.QueryRow(ctx, query,
		o.ID,
		o.OrderNumber,
		nullString(o.UserID),
		o.BusinessEntityID,
		o.ServiceID,
		o.Status,
		o.CurrentProgress,
		o.TotalAmount,
		o.Currency,
		o.PaymentIntentID,
		o.IsExpedited,
		o.EntityType,
		o.State,
		o.BusinessName,
		jsonOrNil(o.CustomerInfo),
		jsonOrNil(o.BusinessInfo),
		o.CreatedAt,
		o.UpdatedAt,
	))
	if err == nil {
		end(nil)
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !database.IsUniqueViolation(err, paymentIntentConstraint) {
		end(err)
		return nil, false, fmt.Errorf("insert formation order: %w", err)
	}
	end(nil)

	// Another completion for the same PaymentIntent won the insert.
	existing, err := r.GetByPaymentIntentID(ctx, o.PaymentIntentID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves a formation order by id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (_ *domain.FormationOrder, err error) {
	query := `SELECT ` + orderColumns + ` FROM formation_orders WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetFormationOrder", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("formation order", id)
		}
		return nil, fmt.Errorf("get formation order: %w", err)
	}
	return o, nil
}

// GetByPaymentIntentID retrieves the order created for a PaymentIntent.
func (r *OrderRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (_ *domain.FormationOrder, err error) {
	query := `SELECT ` + orderColumns + ` FROM formation_orders WHERE payment_intent_id = $1`

	ctx, end := database.TraceQuery(ctx, "GetFormationOrderByPaymentIntent", query)
	defer func() { end(err) }()

	o, err := scanOrder(r.pool.QueryRow(ctx, query, paymentIntentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("formation order for payment intent", paymentIntentID)
		}
		return nil, fmt.Errorf("get formation order by payment intent: %w", err)
	}
	return o, nil
}

// List returns orders matching filter, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (_ []domain.FormationOrder, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.BusinessEntityID != nil {
		conditions = append(conditions, fmt.Sprintf("business_entity_id = $%d", argIndex))
		args = append(args, *filter.BusinessEntityID)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s,
			count(*) OVER() AS total_count
		FROM formation_orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	page := pagination.Normalize(filter.Page, filter.PerPage)
	args = append(args, page.PerPage, page.Offset())

	ctx, end := database.TraceQuery(ctx, "ListFormationOrders", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list formation orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.FormationOrder, 0)
	for rows.Next() {
		var (
			o                          domain.FormationOrder
			userID                     *string
			customerJSON, businessJSON []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.OrderNumber,
			&userID,
			&o.BusinessEntityID,
			&o.ServiceID,
			&o.Status,
			&o.CurrentProgress,
			&o.TotalAmount,
			&o.Currency,
			&o.PaymentIntentID,
			&o.IsExpedited,
			&o.EntityType,
			&o.State,
			&o.BusinessName,
			&customerJSON,
			&businessJSON,
			&o.CreatedAt,
			&o.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan formation order row: %w", err)
		}
		fillOrder(&o, userID, customerJSON, businessJSON)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate formation order rows: %w", err)
	}

	return orders, totalCount, nil
}

// UpdateStatus moves an order from one status to another in a single
// conditional update. A missing row is NotFound; a row whose status is no
// longer from is a Conflict.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, from, to string, progress int) (_ *domain.FormationOrder, err error) {
	query := `
		UPDATE formation_orders
		SET status = $1, current_progress = $2, updated_at = NOW()
		WHERE id = $3 AND status = $4
		RETURNING ` + orderColumns

	ctx, end := database.TraceQuery(ctx, "UpdateFormationOrderStatus", query)
	o, err := scanOrder(r.pool.QueryRow(ctx, query, to, progress, id, from))
	end(err)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update formation order status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, apperrors.Conflict(fmt.Sprintf(
		"formation order %s is %s, not %s", id, current.Status, from))
}

// AttachEntity links the order to entityID unless it already belongs to a
// different entity.
func (r *OrderRepository) AttachEntity(ctx context.Context, id, entityID string) (_ *domain.FormationOrder, err error) {
	query := `
		UPDATE formation_orders
		SET business_entity_id = $1, updated_at = NOW()
		WHERE id = $2 AND (business_entity_id IS NULL OR business_entity_id = $1)
		RETURNING ` + orderColumns

	ctx, end := database.TraceQuery(ctx, "AttachFormationOrderEntity", query)
	o, err := scanOrder(r.pool.QueryRow(ctx, query, entityID, id))
	end(err)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("attach business entity: %w", err)
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, apperrors.Conflict(fmt.Sprintf("formation order %s is linked to another business entity", id))
}

func scanOrder(row pgx.Row) (*domain.FormationOrder, error) {
	var (
		o                          domain.FormationOrder
		userID                     *string
		customerJSON, businessJSON []byte
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&userID,
		&o.BusinessEntityID,
		&o.ServiceID,
		&o.Status,
		&o.CurrentProgress,
		&o.TotalAmount,
		&o.Currency,
		&o.PaymentIntentID,
		&o.IsExpedited,
		&o.EntityType,
		&o.State,
		&o.BusinessName,
		&customerJSON,
		&businessJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}
	fillOrder(&o, userID, customerJSON, businessJSON)
	return &o, nil
}

func fillOrder(o *domain.FormationOrder, userID *string, customerJSON, businessJSON []byte) {
	if userID != nil {
		o.UserID = *userID
	}
	if len(customerJSON) > 0 && string(customerJSON) != "null" {
		o.CustomerInfo = customerJSON
	}
	if len(businessJSON) > 0 && string(businessJSON) != "null" {
		o.BusinessInfo = businessJSON
	}
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func jsonOrNil(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
