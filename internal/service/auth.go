package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/seansyed/parafort-sub010/internal/auth"
	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/metrics"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/internal/sender"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/validator"
)

// CodeLength is the number of digits in an email verification code.
const CodeLength = 6

// AuthConfig holds the verification and password settings.
type AuthConfig struct {
	BcryptCost      int
	CodeTTL         time.Duration
	CodeMaxAttempts int
	ResendCooldown  time.Duration
	VerifiedTTL     time.Duration
}

// DefaultAuthConfig returns the production defaults.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		BcryptCost:      auth.DefaultBcryptCost,
		CodeTTL:         10 * time.Minute,
		CodeMaxAttempts: 5,
		ResendCooldown:  time.Minute,
		VerifiedTTL:     2 * time.Hour,
	}
}

// RegisterInput holds the data for creating an account.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Password  string `json:"password" validate:"required"`
}

// LoginInput holds login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResult is returned after registration or login.
type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresIn   int64        `json:"expiresIn"`
}

// AuthService handles email verification, registration and login.
type AuthService struct {
	users  repository.UserRepository
	codes  repository.VerificationStore
	sender sender.Sender
	tokens *auth.JWTManager
	cfg    AuthConfig
	logger *slog.Logger

	tokenTTL time.Duration
	newCode  func() (string, error)
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	codes repository.VerificationStore,
	s sender.Sender,
	tokens *auth.JWTManager,
	tokenTTL time.Duration,
	cfg AuthConfig,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		codes:    codes,
		sender:   s,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		cfg:      cfg,
		logger:   logger,
		newCode:  generateCode,
		now:      time.Now,
	}
}

// SendVerificationCode emails a fresh code to email. A second request inside
// the resend cooldown fails with ErrResendCooldown.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := validator.Var(email, "required,email"); err != nil {
		return apperrors.InvalidInput("a valid email address is required")
	}

	ok, err := s.codes.AcquireResendSlot(ctx, email, s.cfg.ResendCooldown)
	if err != nil {
		return fmt.Errorf("acquire resend slot: %w", err)
	}
	if !ok {
		return domain.ErrResendCooldown
	}

	if err := s.sendCode(ctx, email); err != nil {
		if relErr := s.codes.ReleaseResendSlot(ctx, email); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release resend slot",
				slog.String("error", relErr.Error()),
			)
		}
		return err
	}

	metrics.VerificationCodesSent.Inc()
	s.logger.InfoContext(ctx, "verification code sent", slog.String("email_domain", emailDomain(email)))
	return nil
}

func (s *AuthService) sendCode(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return fmt.Errorf("generate verification code: %w", err)
	}
	if err := s.codes.SaveCode(ctx, email, HashCode(code), s.cfg.CodeTTL); err != nil {
		return fmt.Errorf("save verification code: %w", err)
	}

	msg, err := sender.VerificationCodeEmail(email, code, s.cfg.CodeTTL)
	if err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}
	err = s.sender.Send(ctx, msg)
	metrics.EmailsSent.WithLabelValues("verification_code", metrics.ResultLabel(err)).Inc()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to send verification email",
			slog.String("sender", s.sender.Name()),
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable("could not send verification email, please try again")
	}
	return nil
}

// VerifyEmail checks code against the one sent to email. Codes that are not
// exactly CodeLength digits are rejected without consuming an attempt.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) error {
	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if err := validator.Validate(codeInput{Code: code}); err != nil {
		return err
	}

	result, err := s.codes.CheckCode(ctx, email, HashCode(code), s.cfg.CodeMaxAttempts)
	if err != nil {
		return fmt.Errorf("check verification code: %w", err)
	}

	switch result {
	case repository.CodeMatched:
		metrics.VerificationResults.WithLabelValues("matched").Inc()
		if err := s.codes.MarkVerified(ctx, email, s.cfg.VerifiedTTL); err != nil {
			return fmt.Errorf("mark email verified: %w", err)
		}
		return nil
	case repository.CodeLocked:
		metrics.VerificationResults.WithLabelValues("locked").Inc()
		return domain.ErrTooManyAttempts
	case repository.CodeMissing:
		metrics.VerificationResults.WithLabelValues("missing").Inc()
		return domain.ErrInvalidCode
	default:
		metrics.VerificationResults.WithLabelValues("mismatch").Inc()
		return domain.ErrInvalidCode
	}
}

// Register creates a customer account. The email must have been verified
// within the verified window.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	verified, err := s.codes.IsVerified(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("check verified marker: %w", err)
	}
	if !verified {
		return nil, domain.ErrEmailNotVerified
	}

	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Email:           input.Email,
		FirstName:       input.FirstName,
		LastName:        input.LastName,
		PasswordHash:    hash,
		Role:            domain.RoleCustomer,
		EmailVerifiedAt: &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return s.issue(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	if err := validator.Validate(input); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &AuthResult{User: user, AccessToken: token, ExpiresIn: int64(s.tokenTTL.Seconds())}, nil
}

// HashCode returns the hex SHA-256 of a verification code.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

type codeInput struct {
	Code string `json:"code" validate:"len=6,numeric"`
}

func emailDomain(email string) string {
	if _, d, ok := strings.Cut(email, "@"); ok {
		return d
	}
	return ""
}
