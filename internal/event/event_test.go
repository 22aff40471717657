package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/seansyed/parafort-sub010/internal/domain"
	"github.com/seansyed/parafort-sub010/internal/sender"
	pkgkafka "github.com/seansyed/parafort-sub010/pkg/kafka"
)

// --- Mocks ---

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Name() string { return "mock" }

func (m *mockSender) Send(ctx context.Context, msg *sender.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type recordingPublisher struct {
	topics []string
	events []*pkgkafka.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event *pkgkafka.Event) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestEvent(eventType string, data any) *pkgkafka.Event {
	dataBytes, _ := json.Marshal(data)
	return &pkgkafka.Event{
		EventID:       "evt-test-123",
		EventType:     eventType,
		AggregateID:   "order-001",
		AggregateType: AggregateTypeOrder,
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        SourceService,
		Data:          dataBytes,
	}
}

func sampleOrder() *domain.FormationOrder {
	return &domain.FormationOrder{
		ID:              "order-001",
		OrderNumber:     "PF-20261016-7KQ2M9",
		UserID:          "user-001",
		Status:          domain.OrderStatusPending,
		CurrentProgress: 10,
		TotalAmount:     32500,
		Currency:        "usd",
		PaymentIntentID: "pi_123",
		IsExpedited:     true,
		BusinessName:    "Acme Holdings LLC",
		CustomerInfo:    json.RawMessage(`{"email":"jane@example.com","firstName":"Jane"}`),
	}
}

// --- Producer ---

func TestProducer_PublishOrderCreated(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, newTestLogger())

	require.NoError(t, p.PublishOrderCreated(context.Background(), sampleOrder()))
	require.Len(t, pub.events, 1)
	assert.Equal(t, "parafort.order.created", pub.topics[0])

	evt := pub.events[0]
	assert.Equal(t, TopicOrderCreated, evt.EventType)
	assert.Equal(t, "order-001", evt.AggregateID)
	assert.Equal(t, "pi_123", evt.Metadata["payment_intent_id"])

	var data OrderCreatedData
	require.NoError(t, evt.UnmarshalData(&data))
	assert.Equal(t, "jane@example.com", data.CustomerEmail)
	assert.Equal(t, int64(32500), data.TotalAmount)
}

func TestProducer_PublishOrderStatusChanged(t *testing.T) {
	pub := &recordingPublisher{}
	p := NewProducer(pub, newTestLogger())

	o := sampleOrder()
	o.Status = domain.OrderStatusFiled
	o.CurrentProgress = 80
	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), o, domain.OrderStatusDocumentsPrepared))

	require.Len(t, pub.events, 1)
	assert.Equal(t, "parafort.order.status_changed", pub.topics[0])
	var data OrderStatusChangedData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, domain.OrderStatusDocumentsPrepared, data.OldStatus)
	assert.Equal(t, domain.OrderStatusFiled, data.NewStatus)
	assert.Equal(t, 80, data.Progress)
}

func TestProducer_PublishError(t *testing.T) {
	p := NewProducer(&recordingPublisher{err: errors.New("broker down")}, newTestLogger())

	err := p.PublishOrderCreated(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish order.created event")
}

// --- NotificationHandler ---

func TestHandleOrderCreated_SendsConfirmation(t *testing.T) {
	s := new(mockSender)
	h := NewNotificationHandler(s, newTestLogger())

	s.On("Send", mock.Anything, mock.MatchedBy(func(msg *sender.Message) bool {
		return msg.To == "jane@example.com" && msg.Subject == "Order PF-20261016-7KQ2M9 received"
	})).Return(nil).Once()

	err := h.Handle(context.Background(), newTestEvent(TopicOrderCreated, OrderCreatedData{
		OrderID:       "order-001",
		OrderNumber:   "PF-20261016-7KQ2M9",
		CustomerEmail: "jane@example.com",
		TotalAmount:   32500,
	}))
	require.NoError(t, err)
	s.AssertExpectations(t)
}

func TestHandleOrderStatusChanged_SendsUpdate(t *testing.T) {
	s := new(mockSender)
	h := NewNotificationHandler(s, newTestLogger())

	s.On("Send", mock.Anything, mock.MatchedBy(func(msg *sender.Message) bool {
		return msg.Subject == "Order PF-1 is now filed"
	})).Return(nil).Once()

	err := h.Handle(context.Background(), newTestEvent(TopicOrderStatusChanged, OrderStatusChangedData{
		OrderID:       "order-001",
		OrderNumber:   "PF-1",
		CustomerEmail: "jane@example.com",
		OldStatus:     domain.OrderStatusDocumentsPrepared,
		NewStatus:     domain.OrderStatusFiled,
		Progress:      80,
	}))
	require.NoError(t, err)
	s.AssertExpectations(t)
}

func TestHandle_SendFailureIsRetried(t *testing.T) {
	s := new(mockSender)
	h := NewNotificationHandler(s, newTestLogger())
	s.On("Send", mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))

	err := h.Handle(context.Background(), newTestEvent(TopicOrderCreated, OrderCreatedData{
		OrderNumber:   "PF-1",
		CustomerEmail: "jane@example.com",
	}))
	assert.Error(t, err)
}

func TestHandle_SkipsWithoutEmailOrBadPayload(t *testing.T) {
	s := new(mockSender)
	h := NewNotificationHandler(s, newTestLogger())

	assert.NoError(t, h.Handle(context.Background(), newTestEvent(TopicOrderCreated, OrderCreatedData{OrderNumber: "PF-1"})))

	bad := newTestEvent(TopicOrderStatusChanged, nil)
	bad.Data = json.RawMessage(`"not an object"`)
	assert.NoError(t, h.Handle(context.Background(), bad))

	assert.NoError(t, h.Handle(context.Background(), newTestEvent("parafort.unknown", nil)))
	s.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestIdempotentNotification_SendsOnce(t *testing.T) {
	s := new(mockSender)
	h := NewNotificationHandler(s, newTestLogger())
	s.On("Send", mock.Anything, mock.Anything).Return(nil).Once()

	guarded := pkgkafka.IdempotentHandler(pkgkafka.NewMemoryIdempotencyStore(time.Hour), ConsumerGroupID, h.Handle, newTestLogger())
	evt := newTestEvent(TopicOrderCreated, OrderCreatedData{OrderNumber: "PF-1", CustomerEmail: "jane@example.com"})

	require.NoError(t, guarded(context.Background(), evt))
	require.NoError(t, guarded(context.Background(), evt))
	s.AssertNumberOfCalls(t, "Send", 1)
}

func TestNewConsumers_OnePerTopic(t *testing.T) {
	h := NewNotificationHandler(new(mockSender), newTestLogger())
	consumers := NewConsumers(ConsumerSettings{Brokers: []string{"localhost:9092"}}, h,
		pkgkafka.NewMemoryIdempotencyStore(time.Hour), nil, newTestLogger())
	require.Len(t, consumers, 2)
	for _, c := range consumers {
		_ = c.Close()
	}
}
