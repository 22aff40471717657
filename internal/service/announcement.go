package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/pagination"
	"github.com/seansyed/parafort-sub010/pkg/validator"
)

// AnnouncementInput is the admin create/update body.
type AnnouncementInput struct {
	Title    string     `json:"title" validate:"required,max=200"`
	Content  string     `json:"content" validate:"required,max=5000"`
	Type     string     `json:"type" validate:"omitempty,oneof=info warning success maintenance"`
	IsActive *bool      `json:"isActive,omitempty"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
	EndsAt   *time.Time `json:"endsAt,omitempty"`
}

// ListAnnouncementsInput filters the admin announcement list.
type ListAnnouncementsInput struct {
	Type     string
	IsActive *bool
	Page     int
	PerPage  int
}

// AnnouncementService manages site banners.
type AnnouncementService struct {
	repo   repository.AnnouncementRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewAnnouncementService creates a new AnnouncementService.
func NewAnnouncementService(repo repository.AnnouncementRepository, logger *slog.Logger) *AnnouncementService {
	return &AnnouncementService{repo: repo, logger: logger, now: time.Now}
}

// ListVisible returns the announcements customers should see right now.
func (s *AnnouncementService) ListVisible(ctx context.Context) ([]domain.Announcement, error) {
	list, err := s.repo.ListVisible(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list visible announcements: %w", err)
	}
	return list, nil
}

// List returns a page of announcements for the admin console.
func (s *AnnouncementService) List(ctx context.Context, input ListAnnouncementsInput) ([]domain.Announcement, int, error) {
	p := pagination.Normalize(input.Page, input.PerPage)
	filter := repository.AnnouncementFilter{IsActive: input.IsActive, Page: p.Page, PerPage: p.PerPage}
	if input.Type != "" {
		if !domain.IsValidAnnouncementType(input.Type) {
			return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid announcement type: %s", input.Type))
		}
		filter.Type = &input.Type
	}
	list, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	return list, total, nil
}

// Get retrieves an announcement by ID.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*domain.Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	return a, nil
}

// Create adds an announcement authored by createdBy.
func (s *AnnouncementService) Create(ctx context.Context, input AnnouncementInput, createdBy string) (*domain.Announcement, error) {
	if err := validateAnnouncement(&input); err != nil {
		return nil, err
	}

	a := &domain.Announcement{
		Title:     input.Title,
		Content:   input.Content,
		Type:      input.Type,
		IsActive:  true,
		StartsAt:  input.StartsAt,
		EndsAt:    input.EndsAt,
		CreatedBy: createdBy,
	}
	if input.IsActive != nil {
		a.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}

	s.logger.InfoContext(ctx, "announcement created", slog.String("announcement_id", a.ID))
	return a, nil
}

// Update replaces an announcement's editable fields.
func (s *AnnouncementService) Update(ctx context.Context, id string, input AnnouncementInput) (*domain.Announcement, error) {
	if err := validateAnnouncement(&input); err != nil {
		return nil, err
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get announcement %s: %w", id, err)
	}
	a.Title = input.Title
	a.Content = input.Content
	a.Type = input.Type
	a.StartsAt = input.StartsAt
	a.EndsAt = input.EndsAt
	if input.IsActive != nil {
		a.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update announcement %s: %w", id, err)
	}
	return a, nil
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete announcement %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "announcement deleted", slog.String("announcement_id", id))
	return nil
}

func validateAnnouncement(input *AnnouncementInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if input.Type == "" {
		input.Type = domain.AnnouncementInfo
	}
	if err := validator.Validate(input); err != nil {
		return err
	}
	if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
		return apperrors.InvalidInput("endsAt must be after startsAt")
	}
	return nil
}
