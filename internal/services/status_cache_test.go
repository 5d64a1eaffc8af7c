package services

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/mocks"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestOrderService_GetOrderStatus_CachesPaidOrders(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	paid := CreateMockOrder(TestOrderID, TestUserID, "500.00", TestTranID)
	paid.Paid = true
	paid.Status = domain.StatusProcessing

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(paid, nil).Once()

	service := NewOrderService(mockOrders, new(mocks.MockCartRepository), new(mocks.MockPublisher), discardLogger())
	service.SetRedisClient(rdb, time.Minute)

	first, err := service.GetOrderStatus(ctx, TestUserID, TestOrderID)
	require.NoError(t, err)
	assert.True(t, first.Paid)
	assert.True(t, mr.Exists(orderStatusCacheKey(TestOrderID)))

	second, err := service.GetOrderStatus(ctx, TestUserID, TestOrderID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.StatusProcessing, second.Status)
	assert.True(t, second.Paid)
	assert.Equal(t, TestTranID, second.TransactionID)

	// cached entry belongs to another user
	_, err = service.GetOrderStatus(ctx, TestUserID+1, TestOrderID)
	assert.Equal(t, ErrOrderNotFound, err)

	mockOrders.AssertNumberOfCalls(t, "FindByIDForUser", 1)
	mockOrders.AssertExpectations(t)
}

func TestOrderService_GetOrderStatus_SkipsCacheForUnpaidOrders(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(CreateMockOrder(TestOrderID, TestUserID, "500.00", TestTranID), nil)

	service := NewOrderService(mockOrders, new(mocks.MockCartRepository), new(mocks.MockPublisher), discardLogger())
	service.SetRedisClient(rdb, time.Minute)

	for i := 0; i < 2; i++ {
		view, err := service.GetOrderStatus(ctx, TestUserID, TestOrderID)
		require.NoError(t, err)
		assert.False(t, view.Paid)
	}

	assert.False(t, mr.Exists(orderStatusCacheKey(TestOrderID)))
	mockOrders.AssertNumberOfCalls(t, "FindByIDForUser", 2)
}

func TestPaymentService_InvalidatesStatusCache(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(m *paymentMocks)
		run        func(s *PaymentService) (Outcome, error)
		expected   Outcome
	}{
		{
			name: "settled payment",
			setupMocks: func(m *paymentMocks) {
				m.orders.On("FindByTransactionID", mock.Anything, TestTranID).Return(CreateMockOrder(TestOrderID, TestUserID, "500.00", TestTranID), nil)
				m.gateway.On("Validate", mock.Anything, TestValID).Return(CreateMockValidation("VALID", "500.00", TestTranID, TestValID), nil)
				m.orders.On("MarkPaid", mock.Anything, TestOrderID, mock.Anything).Return(true, nil)
				m.publisher.On("Publish", mock.Anything, domain.EventOrderPaid, mock.Anything).Return(nil)
				m.notifier.On("BroadcastOrderUpdate", TestOrderID, domain.StatusProcessing, true).Return()
			},
			run: func(s *PaymentService) (Outcome, error) {
				return s.HandleIPN(context.Background(), TestTranID, TestValID)
			},
			expected: OutcomePaid,
		},
		{
			name: "canceled payment",
			setupMocks: func(m *paymentMocks) {
				m.orders.On("FindByIDForUser", mock.Anything, TestOrderID, TestUserID).Return(CreateMockOrder(TestOrderID, TestUserID, "500.00", TestTranID), nil)
				m.orders.On("ResetToPending", mock.Anything, TestOrderID).Return(true, nil)
				m.notifier.On("BroadcastOrderUpdate", TestOrderID, domain.StatusPending, false).Return()
			},
			run: func(s *PaymentService) (Outcome, error) {
				return s.HandleFailure(context.Background(), TestUserID, TestOrderID, TestTranID, CallbackCancel)
			},
			expected: OutcomeCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, rdb := newTestRedis(t)
			key := orderStatusCacheKey(TestOrderID)
			require.NoError(t, mr.Set(key, `{"id":7,"userId":42,"status":"pending","paid":false}`))

			m := newPaymentMocks()
			tt.setupMocks(m)
			service := m.service()
			service.SetRedisClient(rdb)

			outcome, err := tt.run(service)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
			assert.False(t, mr.Exists(key))
			m.assertExpectations(t)
		})
	}
}
