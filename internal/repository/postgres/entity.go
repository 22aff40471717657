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

// EntityRepository implements repository.EntityRepository using PostgreSQL.
type EntityRepository struct {
	pool database.DBTX
}

// NewEntityRepository creates a new PostgreSQL-backed business entity repository.
func NewEntityRepository(pool database.DBTX) *EntityRepository {
	return &EntityRepository{pool: pool}
}

// GetByID retrieves a business entity by id.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (_ *domain.BusinessEntity, err error) {
	query := `
		SELECT id, user_id, name, entity_type, state, status, ein, formation_date, created_at
		FROM business_entities
		WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetBusinessEntity", query)
	defer func() { end(err) }()

	var e domain.BusinessEntity
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID,
		&e.UserID,
		&e.Name,
		&e.EntityType,
		&e.State,
		&e.Status,
		&e.EIN,
		&e.FormationDate,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("business entity", id)
		}
		return nil, fmt.Errorf("get business entity: %w", err)
	}
	return &e, nil
}

// ListDocuments returns an entity's documents, newest first.
func (r *EntityRepository) ListDocuments(ctx context.Context, entityID string) (_ []domain.Document, err error) {
	query := `
		SELECT id, business_entity_id, name, document_type, file_url, created_at
		FROM documents
		WHERE business_entity_id = $1
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListDocuments", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.BusinessEntityID, &d.Name, &d.DocumentType, &d.FileURL, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}

// ListCompliance returns an entity's compliance items ordered by due date.
// Overdue is left for the caller to derive.
func (r *EntityRepository) ListCompliance(ctx context.Context, entityID string) (_ []domain.ComplianceItem, err error) {
	query := `
		SELECT id, business_entity_id, title, filing_type, due_date, status, fee
		FROM compliance_items
		WHERE business_entity_id = $1
		ORDER BY due_date`

	ctx, end := database.TraceQuery(ctx, "ListComplianceItems", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("list compliance items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ComplianceItem, 0)
	for rows.Next() {
		var c domain.ComplianceItem
		if err := rows.Scan(&c.ID, &c.BusinessEntityID, &c.Title, &c.FilingType, &c.DueDate, &c.Status, &c.Fee); err != nil {
			return nil, fmt.Errorf("scan compliance row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compliance rows: %w", err)
	}
	return items, nil
}
