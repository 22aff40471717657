package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/auth"
	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/event"
	paymock "github.com/seansyed/parafort-sub010/internal/provider/mock"
	"github.com/seansyed/parafort-sub010/internal/provider/stripe"
	"github.com/seansyed/parafort-sub010/internal/repository"
	redisrepo "github.com/seansyed/parafort-sub010/internal/repository/redis"
	"github.com/seansyed/parafort-sub010/internal/sender"
	"github.com/seansyed/parafort-sub010/internal/service"
	"github.com/seansyed/parafort-sub010/pkg/health"
	"github.com/seansyed/parafort-sub010/pkg/httputil"
	pkgkafka "github.com/seansyed/parafort-sub010/pkg/kafka"
	"github.com/seansyed/parafort-sub010/pkg/middleware"
)

const (
	testJWTSecret     = "handler-test-secret"
	testWebhookSecret = "whsec_handler_test"
	testOrigin        = "http://localhost:3000"

	llcServiceID = "6f1c2a7e-8b3d-4c5e-9f0a-1b2c3d4e5f60"
	testUserID   = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	testOrderID  = "3c2b1a09-8f7e-4d6c-9b5a-4e3d2c1b0a9f"
	testEntityID = "5d4c3b2a-1f0e-4d9c-8b7a-6f5e4d3c2b1a"
)

// --- Mock Repositories ---

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

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
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

func (m *mockOrderRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.FormationOrder, error) {
	args := m.Called(ctx, paymentIntentID)
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
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *mockAnnouncementRepository) Update(ctx context.Context, a *domain.Announcement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockAnnouncementRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
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

// --- Fakes ---

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// captureSender records outgoing mail so tests can read verification codes.
type captureSender struct {
	mu   sync.Mutex
	msgs []*sender.Message
}

func (s *captureSender) Name() string { return "capture" }

func (s *captureSender) Send(_ context.Context, msg *sender.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *captureSender) lastCode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.msgs, "no email was sent")
	code := codePattern.FindString(s.msgs[len(s.msgs)-1].Text)
	require.NotEmpty(t, code, "email carries no code")
	return code
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return nil
}

// --- Test Environment ---

type testEnv struct {
	router        http.Handler
	redis         *miniredis.Miniredis
	services      *mockServiceRepository
	users         *mockUserRepository
	orders        *mockOrderRepository
	announcements *mockAnnouncementRepository
	entities      *mockEntityRepository
	mail          *captureSender
	payments      *paymock.Provider
	published     *recordingPublisher
	tokens        *auth.JWTManager
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestEnv wires the production router over Redis-backed stores, mock
// repositories and the in-memory payment provider.
func newTestEnv(t *testing.T, opts ...func(*service.PaymentConfig)) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := testLogger()
	env := &testEnv{
		redis:         mr,
		services:      new(mockServiceRepository),
		users:         new(mockUserRepository),
		orders:        new(mockOrderRepository),
		announcements: new(mockAnnouncementRepository),
		entities:      new(mockEntityRepository),
		mail:          &captureSender{},
		payments:      paymock.NewProvider(),
		published:     &recordingPublisher{},
		tokens:        auth.NewJWTManager(testJWTSecret, "parafort", time.Hour),
	}

	authCfg := service.DefaultAuthConfig()
	authCfg.BcryptCost = 4

	payCfg := service.PaymentConfig{PublishableKey: "pk_test_parafort"}
	for _, opt := range opts {
		opt(&payCfg)
	}

	sessions := redisrepo.NewCheckoutSessionStore(rdb)
	catalogSvc := service.NewCatalogService(env.services, redisrepo.NewServiceCache(rdb, time.Minute), logger)
	authSvc := service.NewAuthService(env.users, redisrepo.NewVerificationStore(rdb), env.mail, env.tokens, time.Hour, authCfg, logger)
	orderSvc := service.NewOrderService(env.orders, env.entities, sessions, env.payments, event.NewProducer(env.published, logger), logger)
	checkoutSvc := service.NewCheckoutService(sessions, catalogSvc, authSvc, authSvc, env.payments, service.CheckoutConfig{}, logger)
	paymentSvc := service.NewPaymentService(env.payments, catalogSvc, orderSvc, stripe.NewWebhookVerifier(testWebhookSecret, 0), payCfg, logger)

	env.router = NewRouter(Services{
		Catalog:      catalogSvc,
		Auth:         authSvc,
		Checkout:     checkoutSvc,
		Payment:      paymentSvc,
		Order:        orderSvc,
		Announcement: service.NewAnnouncementService(env.announcements, logger),
		Entity:       service.NewEntityService(env.entities, orderSvc),
		CookieStore:  NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false),
		Tokens:       env.tokens.Validator(),
	}, health.NewHandler(), logger, RouterConfig{
		ServiceName: "parafort-test",
		CORS:        middleware.DefaultCORSConfig([]string{testOrigin}),
	})
	return env
}

type requestOption func(*http.Request)

func withBearer(token string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

func withCookies(cookies []*http.Cookie) requestOption {
	return func(r *http.Request) {
		for _, c := range cookies {
			r.AddCookie(c)
		}
	}
}

// do sends body (marshalled unless it is already []byte) through the router.
func (e *testEnv) do(t *testing.T, method, path string, body any, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case []byte:
		reader = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := e.tokens.GenerateAccessToken(userID, "someone@example.com", role)
	require.NoError(t, err)
	return tok
}

type envelope[T any] struct {
	Data  T                       `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	require.Nil(t, env.Error)
	return env.Data
}

func decodeJSON(rec *httptest.ResponseRecorder, dst any) error {
	return json.NewDecoder(rec.Body).Decode(dst)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env envelope[json.RawMessage]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}

func llcService() *domain.Service {
	return &domain.Service{
		ID:           llcServiceID,
		Name:         "LLC Formation",
		ServiceType:  domain.ServiceTypeLLCFormation,
		OneTimePrice: 25000,
		IsActive:     true,
	}
}

// ============================================================================
// Router
// ============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodOptions, "/api/checkout/sessions", nil,
		withHeader("Origin", testOrigin),
		withHeader("Access-Control-Request-Method", http.MethodPost),
	)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_RejectsNonJSONBody(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", []byte("email=a"),
		withHeader("Content-Type", "application/x-www-form-urlencoded"))

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
