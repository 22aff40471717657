package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/metrics"
	"github.com/seansyed/parafort-sub010/internal/provider"
	"github.com/seansyed/parafort-sub010/internal/repository"
	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/validator"
)

// ServiceLookup resolves purchasable catalog entries.
type ServiceLookup interface {
	GetActiveService(ctx context.Context, id string) (*domain.Service, error)
}

// EmailVerifier sends and checks email verification codes.
type EmailVerifier interface {
	SendVerificationCode(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
}

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
}

// CheckoutConfig holds checkout session settings.
type CheckoutConfig struct {
	SessionTTL         time.Duration
	DefaultExpediteFee int64
	Currency           string
}

// AccountInput is the body of the account step.
type AccountInput struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ServiceQuestionsInput is the body of the service questions step.
type ServiceQuestionsInput struct {
	Processing string          `json:"processing"`
	Answers    json.RawMessage `json:"answers"`
}

// PaymentIntentResult is what the client needs to confirm a payment.
type PaymentIntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	Amount          string `json:"amount,omitempty"`
}

// CheckoutService drives the five step checkout wizard. Sessions live in the
// session store and every successful operation slides their expiry.
type CheckoutService struct {
	sessions  repository.CheckoutSessionStore
	catalog   ServiceLookup
	verifier  EmailVerifier
	registrar Registrar
	payments  provider.Provider
	cfg       CheckoutConfig
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	sessions repository.CheckoutSessionStore,
	catalog ServiceLookup,
	verifier EmailVerifier,
	registrar Registrar,
	payments provider.Provider,
	cfg CheckoutConfig,
	logger *slog.Logger,
) *CheckoutService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.DefaultExpediteFee <= 0 {
		cfg.DefaultExpediteFee = domain.DefaultExpediteFee
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &CheckoutService{
		sessions:  sessions,
		catalog:   catalog,
		verifier:  verifier,
		registrar: registrar,
		payments:  payments,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Start opens a session for serviceID on the email step.
func (s *CheckoutService) Start(ctx context.Context, serviceID string) (*domain.CheckoutSession, error) {
	if err := validator.Var(serviceID, "required,uuid"); err != nil {
		return nil, apperrors.InvalidInput("serviceId must be a valid UUID")
	}
	svc, err := s.catalog.GetActiveService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	cs := domain.NewCheckoutSession(s.newID(), svc.Snapshot(s.cfg.DefaultExpediteFee), s.now().UTC(), s.cfg.SessionTTL)
	if err := s.sessions.Save(ctx, cs, s.cfg.SessionTTL); err != nil {
		return nil, fmt.Errorf("save checkout session: %w", err)
	}

	metrics.CheckoutSessionsStarted.WithLabelValues(svc.ServiceType).Inc()
	s.logger.InfoContext(ctx, "checkout session started",
		slog.String("session_id", cs.ID),
		slog.String("service_id", svc.ID),
	)
	return cs, nil
}

// Get returns the session and slides its expiry.
func (s *CheckoutService) Get(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// SendCode sends a verification code to email and records it on the session.
// When sending fails the session is left unchanged.
func (s *CheckoutService) SendCode(ctx context.Context, id, email string) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cs
	if err := next.SetEmail(email); err != nil {
		return nil, err
	}
	if err := s.verifier.SendVerificationCode(ctx, next.Email.Email); err != nil {
		return nil, err
	}

	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// VerifyEmail checks code for the session's email and advances to the
// account step on a match.
func (s *CheckoutService) VerifyEmail(ctx context.Context, id, code string) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cs.Email.CodeSent {
		return nil, apperrors.InvalidInput("no verification code has been sent")
	}
	if err := s.verifier.VerifyEmail(ctx, cs.Email.Email, code); err != nil {
		return nil, err
	}
	if err := cs.MarkEmailVerified(); err != nil {
		return nil, err
	}

	metrics.CheckoutStepsCompleted.WithLabelValues(domain.StepEmail.String()).Inc()
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// CreateAccount registers the customer for the verified email. Mismatched
// passwords are rejected before registration is attempted. When the session
// already holds an account, for example after going back, the step is
// resumed without registering again and the returned AuthResult is nil.
func (s *CheckoutService) CreateAccount(ctx context.Context, id string, input AccountInput) (*domain.CheckoutSession, *AuthResult, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if err := cs.Reached(domain.StepAccount); err != nil {
		return nil, nil, err
	}
	if cs.Account.UserID != "" {
		if err := cs.ResumeAccount(); err != nil {
			return nil, nil, err
		}
		if err := s.save(ctx, cs); err != nil {
			return nil, nil, err
		}
		return cs, nil, nil
	}
	if err := validator.Validate(input); err != nil {
		return nil, nil, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, nil, domain.ErrPasswordMismatch
	}

	result, err := s.registrar.Register(ctx, RegisterInput{
		Email:     cs.Email.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  input.Password,
	})
	if errors.Is(err, domain.ErrEmailNotVerified) {
		cs.ExpireVerification()
		if saveErr := s.save(ctx, cs); saveErr != nil {
			return nil, nil, saveErr
		}
		return nil, nil, err
	}
	if err != nil {
		return nil, nil, err
	}

	if err := cs.SetAccount(result.User.FirstName, result.User.LastName, result.User.ID); err != nil {
		return nil, nil, err
	}
	metrics.CheckoutStepsCompleted.WithLabelValues(domain.StepAccount.String()).Inc()
	if err := s.save(ctx, cs); err != nil {
		return nil, nil, err
	}
	return cs, result, nil
}

// SetServiceQuestions decodes the answers for the session's service kind.
func (s *CheckoutService) SetServiceQuestions(ctx context.Context, id string, input ServiceQuestionsInput) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cs.Reached(domain.StepServiceQuestions); err != nil {
		return nil, err
	}

	q, err := domain.DecodeServiceQuestions(cs.Service.Kind(), input.Processing, input.Answers)
	if err != nil {
		return nil, err
	}
	if err := cs.SetServiceQuestions(q); err != nil {
		return nil, err
	}

	metrics.CheckoutStepsCompleted.WithLabelValues(domain.StepServiceQuestions.String()).Inc()
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// SetClientInformation stores the contact details and moves to review.
func (s *CheckoutService) SetClientInformation(ctx context.Context, id string, ci domain.ClientInformation) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cs.Reached(domain.StepClientInformation); err != nil {
		return nil, err
	}
	if err := validator.Validate(ci); err != nil {
		return nil, err
	}
	if err := cs.SetClientInformation(&ci); err != nil {
		return nil, err
	}

	metrics.CheckoutStepsCompleted.WithLabelValues(domain.StepClientInformation.String()).Inc()
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Next moves the cursor forward when the current step is complete.
func (s *CheckoutService) Next(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cs.Advance(); err != nil {
		return nil, err
	}
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Back moves the cursor one step back.
func (s *CheckoutService) Back(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cs.Back()
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// Review returns the order summary.
func (s *CheckoutService) Review(ctx context.Context, id string) (*domain.Review, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	review, err := cs.Review()
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}
	return review, nil
}

// CreatePaymentIntent creates the PaymentIntent for the reviewed session, or
// returns the one already attached to it. The session id is the idempotency
// key, so concurrent first calls converge on the same intent.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, id string) (*PaymentIntentResult, error) {
	cs, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cs.ReadyForReview(); err != nil {
		return nil, err
	}

	var pi *domain.PaymentIntent
	if cs.PaymentIntentID != "" {
		pi, err = s.payments.GetPaymentIntent(ctx, cs.PaymentIntentID)
	} else {
		pi, err = s.payments.CreatePaymentIntent(ctx, s.paymentParams(cs))
		if err == nil {
			metrics.PaymentIntentsCreated.WithLabelValues(s.payments.Name()).Inc()
		}
	}
	if err != nil {
		return nil, err
	}

	if cs.PaymentIntentID != pi.ID {
		cs.PaymentIntentID = pi.ID
		metrics.CheckoutStepsCompleted.WithLabelValues(domain.StepReview.String()).Inc()
	}
	if err := s.save(ctx, cs); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "payment intent created",
		slog.String("session_id", cs.ID),
		slog.String("payment_intent_id", pi.ID),
		slog.Int64("amount", pi.Amount),
	)
	return &PaymentIntentResult{
		ClientSecret:    pi.ClientSecret,
		PaymentIntentID: pi.ID,
		Amount:          domain.FormatAmount(pi.Amount),
	}, nil
}

func (s *CheckoutService) paymentParams(cs *domain.CheckoutSession) *domain.PaymentIntentParams {
	total := cs.TotalCents()
	ci := cs.ClientInformation
	meta := map[string]string{
		domain.MetaServiceID:         cs.Service.ID,
		domain.MetaCheckoutSessionID: cs.ID,
		domain.MetaUserID:            cs.Account.UserID,
		domain.MetaAmount:            domain.FormatAmount(total),
		domain.MetaExpedited:         strconv.FormatBool(cs.IsExpedited),
		domain.MetaEntityType:        cs.Questions.EntityType(),
		domain.MetaState:             cs.Questions.State(),
		domain.MetaBusinessName:      cs.Questions.BusinessName(),
		domain.MetaCustomerEmail:     cs.Email.Email,
		domain.MetaCustomerFirstName: ci.FirstName,
		domain.MetaCustomerLastName:  ci.LastName,
		domain.MetaCustomerPhone:     ci.Phone,
	}
	if meta[domain.MetaBusinessName] == "" {
		meta[domain.MetaBusinessName] = ci.BusinessName
	}
	if meta[domain.MetaState] == "" {
		meta[domain.MetaState] = ci.State
	}

	return &domain.PaymentIntentParams{
		Amount:         total,
		Currency:       s.cfg.Currency,
		Description:    cs.Service.Name,
		ReceiptEmail:   cs.Email.Email,
		Metadata:       meta,
		IdempotencyKey: "checkout-" + cs.ID,
	}
}

func (s *CheckoutService) load(ctx context.Context, id string) (*domain.CheckoutSession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrSessionExpired
	}
	cs, err := s.sessions.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, domain.ErrSessionExpired
		}
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	return cs, nil
}

func (s *CheckoutService) save(ctx context.Context, cs *domain.CheckoutSession) error {
	cs.Touch(s.now().UTC(), s.cfg.SessionTTL)
	if err := s.sessions.Save(ctx, cs, s.cfg.SessionTTL); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}
