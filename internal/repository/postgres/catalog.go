package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/pkg/database"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

const serviceColumns = `id, name, service_type, description, one_time_price, expedited_price, is_active, created_at, updated_at`

// ServiceRepository implements repository.ServiceRepository using PostgreSQL.
type ServiceRepository struct {
	pool database.DBTX
}

// NewServiceRepository creates a new PostgreSQL-backed service catalog.
func NewServiceRepository(pool database.DBTX) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

// GetByID returns an active or inactive service by id.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (_ *domain.Service, err error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetService", query)
	defer func() { end(err) }()

	svc, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("service", id)
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return svc, nil
}

// ListActive returns active services ordered by name.
func (r *ServiceRepository) ListActive(ctx context.Context) (_ []domain.Service, err error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE is_active = TRUE ORDER BY name`

	ctx, end := database.TraceQuery(ctx, "ListServices", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	services := make([]domain.Service, 0)
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service row: %w", err)
		}
		services = append(services, *svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service rows: %w", err)
	}
	return services, nil
}

func scanService(row pgx.Row) (*domain.Service, error) {
	var s domain.Service
	if err := row.Scan(
		&s.ID,
		&s.Name,
		&s.ServiceType,
		&s.Description,
		&s.OneTimePrice,
		&s.ExpeditedPrice,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}
