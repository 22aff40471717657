// Command seed bootstraps a ParaFort database: it applies migrations, creates
// the first admin account (admins cannot sign up through the API) and posts a
// welcome announcement. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/seansyed/parafort-sub010/internal/auth"
	"github.com/seansyed/parafort-sub010/internal/config"
	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/internal/repository/postgres"
	"github.com/seansyed/parafort-sub010/migrations"
	pkgconfig "github.com/seansyed/parafort-sub010/pkg/config"
	"github.com/seansyed/parafort-sub010/pkg/database"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/logger"
)

// seedConfig holds the bootstrap-only settings.
type seedConfig struct {
	AdminEmail     string `env:"SEED_ADMIN_EMAIL" envDefault:"admin@parafort.com"`
	AdminPassword  string `env:"SEED_ADMIN_PASSWORD,required"`
	AdminFirstName string `env:"SEED_ADMIN_FIRST_NAME" envDefault:"ParaFort"`
	AdminLastName  string `env:"SEED_ADMIN_LAST_NAME" envDefault:"Admin"`
	Announcement   bool   `env:"SEED_WELCOME_ANNOUNCEMENT" envDefault:"true"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New(cfg.ServiceName+"-seed", cfg.LogLevel)

	var sc seedConfig
	if err := pkgconfig.Load(&sc); err != nil {
		log.Error("failed to load seed config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), log)
	if err != nil {
		log.Error("connect to postgres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		log.Error("run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	s := &seeder{
		users:         postgres.NewUserRepository(pool),
		announcements: postgres.NewAnnouncementRepository(pool),
		bcryptCost:    cfg.BcryptCost,
		logger:        log,
		now:           time.Now,
	}
	if err := s.run(ctx, sc); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

type seeder struct {
	users         repository.UserRepository
	announcements repository.AnnouncementRepository
	bcryptCost    int
	logger        *slog.Logger
	now           func() time.Time
}

func (s *seeder) run(ctx context.Context, sc seedConfig) error {
	admin, err := s.ensureAdmin(ctx, sc)
	if err != nil {
		return err
	}
	if !sc.Announcement {
		return nil
	}
	return s.ensureWelcome(ctx, admin.ID)
}

// ensureAdmin creates the admin account unless the email is already taken.
// An existing non-admin account is reported rather than promoted.
func (s *seeder) ensureAdmin(ctx context.Context, sc seedConfig) (*domain.User, error) {
	email := domain.NormalizeEmail(sc.AdminEmail)

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsAdmin():
		s.logger.Info("admin already present", slog.String("user_id", existing.ID))
		return existing, nil
	case err == nil:
		return nil, fmt.Errorf("user %s exists but is not an admin", email)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("look up admin: %w", err)
	}

	if err := auth.ValidatePassword(sc.AdminPassword); err != nil {
		return nil, fmt.Errorf("SEED_ADMIN_PASSWORD: %w", err)
	}
	hash, err := auth.HashPassword(sc.AdminPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	admin := &domain.User{
		Email:           email,
		FirstName:       strings.TrimSpace(sc.AdminFirstName),
		LastName:        strings.TrimSpace(sc.AdminLastName),
		PasswordHash:    hash,
		Role:            domain.RoleAdmin,
		EmailVerifiedAt: &now,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("admin created", slog.String("user_id", admin.ID), slog.String("email", email))
	return admin, nil
}

const welcomeTitle = "Welcome to ParaFort"

func (s *seeder) ensureWelcome(ctx context.Context, adminID string) error {
	visible, err := s.announcements.ListVisible(ctx, s.now())
	if err != nil {
		return fmt.Errorf("list announcements: %w", err)
	}
	for _, a := range visible {
		if a.Title == welcomeTitle {
			return nil
		}
	}

	a := &domain.Announcement{
		Title:     welcomeTitle,
		Content:   "Form your LLC or corporation in minutes. Track every filing from your dashboard.",
		Type:      domain.AnnouncementInfo,
		IsActive:  true,
		CreatedBy: adminID,
	}
	if err := s.announcements.Create(ctx, a); err != nil {
		return fmt.Errorf("create welcome announcement: %w", err)
	}
	s.logger.Info("welcome announcement created", slog.String("announcement_id", a.ID))
	return nil
}
