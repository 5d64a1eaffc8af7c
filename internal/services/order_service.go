package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"storefront/internal/domain"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/repository"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"
)

type OrderService struct {
	orders      repository.OrderRepository
	carts       repository.CartRepository
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
	statusTTL   time.Duration
	flights     singleflight.Group
	logger      *slog.Logger
}

func NewOrderService(orders repository.OrderRepository, carts repository.CartRepository, pub rabbit.PublisherInterface, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		orders:    orders,
		carts:     carts,
		publisher: pub,
		statusTTL: 10 * time.Second,
		logger:    logger,
	}
}

func (u *OrderService) SetRedisClient(client *redis.Client, ttl time.Duration) {
	u.redisClient = client
	if ttl > 0 {
		u.statusTTL = ttl
	}
}

// Checkout turns the user's cart into a pending, unpaid order. Unit prices are
// copied from the products at this moment and never re-read afterwards.
func (u *OrderService) Checkout(ctx context.Context, userID uint64, details domain.ShippingDetails) (*domain.Order, error) {
	cart, err := u.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &domain.Order{
		UserID:     userID,
		FirstName:  details.FirstName,
		LastName:   details.LastName,
		Email:      details.Email,
		Phone:      details.Phone,
		Address:    details.Address,
		City:       details.City,
		PostalCode: details.PostalCode,
		Status:     domain.StatusPending,
		Paid:       false,
	}
	if details.Note != "" {
		note := details.Note
		order.Note = &note
	}

	for _, item := range cart.Items {
		if !item.Product.Available {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.Product.Name)
		}
		if item.Quantity <= 0 {
			continue
		}
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.FinalPrice(),
		})
	}
	if len(order.Items) == 0 {
		return nil, ErrEmptyCart
	}
	order.TotalCost = order.ItemsTotal()

	if err := u.orders.CreateFromCart(ctx, order, cart.ID); err != nil {
		return nil, err
	}

	u.logger.Info("order placed", "order_id", order.ID, "user_id", userID, "total", order.TotalCost.StringFixed(2), "items", len(order.Items))
	u.publishOrderCreatedEvent(ctx, order)

	return order, nil
}

func (u *OrderService) publishOrderCreatedEvent(ctx context.Context, order *domain.Order) {
	evt := domain.OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		TotalCost: order.TotalCost,
		ItemCount: len(order.Items),
		CreatedAt: order.CreatedAt,
	}
	if err := u.publisher.Publish(ctx, domain.EventOrderCreated, evt); err != nil {
		u.logger.Error("failed to publish event", "event", domain.EventOrderCreated, "order_id", order.ID, "err", err)
	}
}

func (u *OrderService) GetOrder(ctx context.Context, userID, orderID uint64) (*domain.Order, error) {
	o, err := u.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// GetOrderStatus serves the order status page, reading paid orders from redis
// when possible. Entries are dropped by the payment workflow on every transition.
func (u *OrderService) GetOrderStatus(ctx context.Context, userID, orderID uint64) (*OrderStatusView, error) {
	cacheKey := orderStatusCacheKey(orderID)

	if u.redisClient != nil {
		cached, err := u.redisClient.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			var view OrderStatusView
			if jsonErr := json.Unmarshal([]byte(cached), &view); jsonErr == nil {
				if view.UserID != userID {
					return nil, ErrOrderNotFound
				}
				return &view, nil
			}
		case !errors.Is(err, redis.Nil):
			u.logger.Warn("order status cache read", "order_id", orderID, "err", err)
		}
	}

	flightKey := strconv.FormatUint(orderID, 10) + ":" + strconv.FormatUint(userID, 10)
	v, err, _ := u.flights.Do(flightKey, func() (interface{}, error) {
		o, err := u.GetOrder(ctx, userID, orderID)
		if err != nil {
			return nil, err
		}
		view := NewOrderStatusView(o)
		// Only paid views are cached. An unpaid snapshot read just before a
		// payment commits could otherwise be written after its invalidation.
		if u.redisClient != nil && view.Paid {
			if data, err := json.Marshal(view); err == nil {
				u.redisClient.Set(ctx, cacheKey, data, u.statusTTL)
			}
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*OrderStatusView), nil
}
