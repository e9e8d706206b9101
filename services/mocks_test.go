package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"order-hub/kafka"
	"order-hub/models"
	"order-hub/repository"
)

// --- Mock repositories ---

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySource(ctx context.Context, source, sourceOrderID string) (*models.Order, error) {
	args := m.Called(ctx, source, sourceOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySourceWithItems(ctx context.Context, source, sourceOrderID string) (*models.Order, error) {
	args := m.Called(ctx, source, sourceOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByStatus(ctx context.Context, status models.OrderStatus, limit int) ([]models.Order, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus, changedBy, reason string) (models.OrderStatus, error) {
	args := m.Called(ctx, id, next, changedBy, reason)
	return args.Get(0).(models.OrderStatus), args.Error(1)
}

func (m *MockOrderRepository) UpdateMetadata(ctx context.Context, id uuid.UUID, metadata models.JSONMap) error {
	args := m.Called(ctx, id, metadata)
	return args.Error(0)
}

func (m *MockOrderRepository) History(ctx context.Context, id uuid.UUID) ([]models.OrderStatusHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OrderStatusHistory), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByProviderReference(ctx context.Context, ref string) (*models.Payment, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByStatus(ctx context.Context, status models.PaymentStatus, limit int) ([]models.Payment, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) TransitionStatus(ctx context.Context, id uuid.UUID, next models.PaymentStatus, changedBy, reason string) (models.PaymentStatus, error) {
	args := m.Called(ctx, id, next, changedBy, reason)
	return args.Get(0).(models.PaymentStatus), args.Error(1)
}

func (m *MockPaymentRepository) Update(ctx context.Context, id uuid.UUID, update repository.PaymentUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockPaymentRepository) History(ctx context.Context, id uuid.UUID) ([]models.PaymentStatusHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PaymentStatusHistory), args.Error(1)
}

type MockChannelConfigRepository struct {
	mock.Mock
}

func (m *MockChannelConfigRepository) Find(ctx context.Context, channel string) (*models.ChannelConfig, error) {
	args := m.Called(ctx, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelConfig), args.Error(1)
}

func (m *MockChannelConfigRepository) Upsert(ctx context.Context, channel string, update repository.ChannelConfigUpdate) (*models.ChannelConfig, error) {
	args := m.Called(ctx, channel, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChannelConfig), args.Error(1)
}

// --- Mock kafka producer ---

type MockPaymentEventProducer struct {
	mock.Mock
}

func (m *MockPaymentEventProducer) SendPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockPaymentEventProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ kafka.ProducerAPI = (*MockPaymentEventProducer)(nil)
