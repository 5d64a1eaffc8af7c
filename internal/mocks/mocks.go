package mocks

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/infra"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct {
	mock.Mock
}

type MockCartRepository struct {
	mock.Mock
}

type MockGatewayClient struct {
	mock.Mock
}

type MockPublisher struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, message interface{}) error {
	args := m.Called(ctx, topic, message)
	return args.Error(0)
}

func (m *MockNotifier) BroadcastOrderUpdate(orderID uint64, status domain.OrderStatus, paid bool) {
	m.Called(orderID, status, paid)
}

func (m *MockGatewayClient) Initiate(ctx context.Context, req infra.InitiateRequest) (*infra.InitiateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.InitiateResponse), args.Error(1)
}

func (m *MockGatewayClient) Validate(ctx context.Context, valID string) (*infra.ValidationResult, error) {
	args := m.Called(ctx, valID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.ValidationResult), args.Error(1)
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID uint64) (*domain.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *MockOrderRepository) CreateFromCart(ctx context.Context, order *domain.Order, cartID uint64) error {
	args := m.Called(ctx, order, cartID)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByIDForUser(ctx context.Context, id uint64, userID uint64) (*domain.Order, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByTransactionID(ctx context.Context, tranID string) (*domain.Order, error) {
	args := m.Called(ctx, tranID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignTransactionID(ctx context.Context, id uint64, tranID string) (bool, error) {
	args := m.Called(ctx, id, tranID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) MarkPaid(ctx context.Context, id uint64, conf domain.PaymentConfirmation) (bool, error) {
	args := m.Called(ctx, id, conf)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) ResetToPending(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}
