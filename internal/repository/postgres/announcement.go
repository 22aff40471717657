package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/pkg/database"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
)

const announcementColumns = `id, title, content, type, is_active, starts_at, ends_at, created_by, created_at, updated_at`

// AnnouncementRepository implements repository.AnnouncementRepository using PostgreSQL.
type AnnouncementRepository struct {
	pool database.DBTX
}

// NewAnnouncementRepository creates a new PostgreSQL-backed announcement repository.
func NewAnnouncementRepository(pool database.DBTX) *AnnouncementRepository {
	return &AnnouncementRepository{pool: pool}
}

// Create inserts a and fills its generated id and timestamps.
func (r *AnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) (err error) {
	query := `
		INSERT INTO announcements (title, content, type, is_active, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	ctx, end := database.TraceQuery(ctx, "CreateAnnouncement", query)
	defer func() { end(err) }()

	if err = r.pool.QueryRow(ctx, query,
		a.Title, a.Content, a.Type, a.IsActive, a.StartsAt, a.EndsAt, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("insert announcement: %w", err)
	}
	return nil
}

// GetByID retrieves an announcement by id.
func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (_ *domain.Announcement, err error) {
	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetAnnouncement", query)
	defer func() { end(err) }()

	a, err := scanAnnouncement(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("announcement", id)
		}
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// Update overwrites the editable fields of a and refreshes UpdatedAt.
func (r *AnnouncementRepository) Update(ctx context.Context, a *domain.Announcement) (err error) {
	query := `
		UPDATE announcements
		SET title = $1, content = $2, type = $3, is_active = $4, starts_at = $5, ends_at = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	ctx, end := database.TraceQuery(ctx, "UpdateAnnouncement", query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query,
		a.Title, a.Content, a.Type, a.IsActive, a.StartsAt, a.EndsAt, a.ID,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("announcement", a.ID)
		}
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) (err error) {
	query := `DELETE FROM announcements WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "DeleteAnnouncement", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("announcement", id)
	}
	return nil
}

// List returns announcements matching filter, newest first, with the total count.
func (r *AnnouncementRepository) List(ctx context.Context, filter repository.AnnouncementFilter) (_ []domain.Announcement, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", argIndex))
		args = append(args, *filter.Type)
		argIndex++
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.IsActive)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM announcements
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		announcementColumns, whereClause, argIndex, argIndex+1,
	)

	page := pagination.Normalize(filter.Page, filter.PerPage)
	args = append(args, page.PerPage, page.Offset())

	ctx, end := database.TraceQuery(ctx, "ListAnnouncements", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var totalCount int
	items := make([]domain.Announcement, 0)
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Content, &a.Type, &a.IsActive,
			&a.StartsAt, &a.EndsAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan announcement row: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate announcement rows: %w", err)
	}
	return items, totalCount, nil
}

// ListVisible returns active announcements whose window contains now.
func (r *AnnouncementRepository) ListVisible(ctx context.Context, now time.Time) (_ []domain.Announcement, err error) {
	query := `
		SELECT ` + announcementColumns + `
		FROM announcements
		WHERE is_active = TRUE
			AND (starts_at IS NULL OR starts_at <= $1)
			AND (ends_at IS NULL OR ends_at > $1)
		ORDER BY created_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListVisibleAnnouncements", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list visible announcements: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement row: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcement rows: %w", err)
	}
	return items, nil
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	if err := row.Scan(
		&a.ID, &a.Title, &a.Content, &a.Type, &a.IsActive,
		&a.StartsAt, &a.EndsAt, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}
