package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/repository"
	"github.com/seansyed/parafort-sub010/internal/sender"
)

// --- Repositories ---

type mockServiceRepository struct {
	mock.Mock
}

func (m *mockServiceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *mockServiceRepository) ListActive(ctx context.Context) ([]domain.Service, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Service), args.Error(1)
}

type mockServiceCache struct {
	mock.Mock
}

func (m *mockServiceCache) Get(ctx context.Context, id string) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *mockServiceCache) Set(ctx context.Context, svc *domain.Service) error {
	return m.Called(ctx, svc).Error(0)
}

func (m *mockServiceCache) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) CreateOrGet(ctx context.Context, o *domain.FormationOrder) (*domain.FormationOrder, bool, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*domain.FormationOrder), args.Bool(1), args.Error(2)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id string) (*domain.FormationOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FormationOrder), args.Error(1)
}

func (m *mockOrderRepository) GetByPaymentIntentID(ctx context.Context, id string) (*domain.FormationOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FormationOrder), args.Error(1)
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.FormationOrder, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.FormationOrder), args.Int(1), args.Error(2)
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id, from, to string, progress int) (*domain.FormationOrder, error) {
	args := m.Called(ctx, id, from, to, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FormationOrder), args.Error(1)
}

func (m *mockOrderRepository) AttachEntity(ctx context.Context, id, entityID string) (*domain.FormationOrder, error) {
	args := m.Called(ctx, id, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FormationOrder), args.Error(1)
}

type mockAnnouncementRepository struct {
	mock.Mock
}

func (m *mockAnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *mockAnnouncementRepository) Update(ctx context.Context, a *domain.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAnnouncementRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAnnouncementRepository) List(ctx context.Context, filter repository.AnnouncementFilter) ([]domain.Announcement, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Announcement), args.Int(1), args.Error(2)
}

func (m *mockAnnouncementRepository) ListVisible(ctx context.Context, now time.Time) ([]domain.Announcement, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]domain.Announcement), args.Error(1)
}

type mockEntityRepository struct {
	mock.Mock
}

func (m *mockEntityRepository) GetByID(ctx context.Context, id string) (*domain.BusinessEntity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BusinessEntity), args.Error(1)
}

func (m *mockEntityRepository) ListDocuments(ctx context.Context, entityID string) ([]domain.Document, error) {
	args := m.Called(ctx, entityID)
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *mockEntityRepository) ListCompliance(ctx context.Context, entityID string) ([]domain.ComplianceItem, error) {
	args := m.Called(ctx, entityID)
	return args.Get(0).([]domain.ComplianceItem), args.Error(1)
}

type mockVerificationStore struct {
	mock.Mock
}

func (m *mockVerificationStore) AcquireResendSlot(ctx context.Context, email string, cooldown time.Duration) (bool, error) {
	args := m.Called(ctx, email, cooldown)
	return args.Bool(0), args.Error(1)
}

func (m *mockVerificationStore) ReleaseResendSlot(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockVerificationStore) SaveCode(ctx context.Context, email, codeHash string, ttl time.Duration) error {
	return m.Called(ctx, email, codeHash, ttl).Error(0)
}

func (m *mockVerificationStore) CheckCode(ctx context.Context, email, codeHash string, maxAttempts int) (repository.CodeCheck, error) {
	args := m.Called(ctx, email, codeHash, maxAttempts)
	return args.Get(0).(repository.CodeCheck), args.Error(1)
}

func (m *mockVerificationStore) MarkVerified(ctx context.Context, email string, ttl time.Duration) error {
	return m.Called(ctx, email, ttl).Error(0)
}

func (m *mockVerificationStore) IsVerified(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// --- Collaborators ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string { return "mock" }

func (m *mockSender) Send(ctx context.Context, msg *sender.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) CreatePaymentIntent(ctx context.Context, params *domain.PaymentIntentParams) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *mockProvider) GetPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

type mockOrderEvents struct {
	mock.Mock
}

func (m *mockOrderEvents) PublishOrderCreated(ctx context.Context, order *domain.FormationOrder) error {
	return m.Called(ctx, order).Error(0)
}

func (m *mockOrderEvents) PublishOrderStatusChanged(ctx context.Context, order *domain.FormationOrder, oldStatus string) error {
	return m.Called(ctx, order, oldStatus).Error(0)
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) SendVerificationCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockVerifier) VerifyEmail(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}

type mockRegistrar struct {
	mock.Mock
}

func (m *mockRegistrar) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*AuthResult), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func int64Ptr(v int64) *int64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

const (
	llcServiceID     = "5f2a1c1e-0a3b-4b7e-9a51-0c1d2e3f4a01"
	generalServiceID = "5f2a1c1e-0a3b-4b7e-9a51-0c1d2e3f4a07"
)

func llcService() *domain.Service {
	return &domain.Service{
		ID:           llcServiceID,
		Name:         "LLC Formation",
		ServiceType:  domain.ServiceTypeLLCFormation,
		OneTimePrice: 25000,
		IsActive:     true,
	}
}
