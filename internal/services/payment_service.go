package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/infra"
	rabbit "storefront/internal/infra/rabbitmq"
	"storefront/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Outcome is what a callback did to the order.
type Outcome string

const (
	OutcomePaid        Outcome = "paid"
	OutcomeAlreadyPaid Outcome = "already_paid"
	OutcomeFailed      Outcome = "failed"
	OutcomeCanceled    Outcome = "canceled"
	OutcomeIgnored     Outcome = "ignored"
)

type CallbackKind string

const (
	CallbackFail   CallbackKind = "fail"
	CallbackCancel CallbackKind = "cancel"
)

// PaymentService drives an order through the gateway: it opens a payment
// session and reconciles the success/fail/cancel redirects and IPN calls.
//
// The gateway is never called while anything is locked. Validation happens
// first and the result is committed with a conditional update on paid=false,
// so duplicate callbacks racing each other settle the order exactly once.
type PaymentService struct {
	orders      repository.OrderRepository
	gateway     infra.GatewayClientInterface
	publisher   rabbit.PublisherInterface
	notifier    StatusNotifier
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewPaymentService(orders repository.OrderRepository, gateway infra.GatewayClientInterface, pub rabbit.PublisherInterface, logger *slog.Logger) *PaymentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentService{
		orders:    orders,
		gateway:   gateway,
		publisher: pub,
		logger:    logger,
	}
}

func (s *PaymentService) SetNotifier(n StatusNotifier) {
	s.notifier = n
}

func (s *PaymentService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// NewTransactionID returns "<orderID>-<32 hex chars>".
func NewTransactionID(orderID uint64) string {
	return fmt.Sprintf("%d-%s", orderID, strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// InitiatePayment opens a gateway session for an unpaid order and returns the
// URL of the external payment page.
func (s *PaymentService) InitiatePayment(ctx context.Context, userID, orderID uint64, urls infra.CallbackURLs) (string, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return "", err
	}
	if order.Paid {
		return "", ErrAlreadyPaid
	}

	tranID, err := s.ensureTransactionID(ctx, order)
	if err != nil {
		return "", err
	}

	phone, ok := NormalizePhone(order.Phone)
	if !ok {
		s.logger.Warn("invalid phone number format", "order_id", order.ID, "phone", phone)
	}

	resp, err := s.gateway.Initiate(ctx, infra.InitiateRequest{
		TransactionID: tranID,
		Amount:        order.TotalCost,
		Customer: infra.Customer{
			Name:     order.CustomerName(),
			Email:    order.Email,
			Address:  order.Address,
			City:     order.City,
			PostCode: order.PostalCode,
			Phone:    phone,
		},
		URLs: urls,
	})
	if err != nil {
		return "", fmt.Errorf("initiate payment for order %d: %w", order.ID, err)
	}

	s.logger.Info("payment session opened", "order_id", order.ID, "tran_id", tranID)
	return resp.GatewayPageURL, nil
}

// ensureTransactionID persists a transaction id before the gateway ever sees it.
// An existing id is reused; when two requests race, the one stored first wins.
func (s *PaymentService) ensureTransactionID(ctx context.Context, order *domain.Order) (string, error) {
	if order.HasTransactionID() {
		return *order.TransactionID, nil
	}

	candidate := NewTransactionID(order.ID)
	assigned, err := s.orders.AssignTransactionID(ctx, order.ID, candidate)
	if err != nil {
		return "", err
	}
	if assigned {
		order.TransactionID = &candidate
		return candidate, nil
	}

	fresh, err := s.orders.FindByIDForUser(ctx, order.ID, order.UserID)
	if err != nil {
		return "", err
	}
	if fresh == nil || !fresh.HasTransactionID() {
		return "", fmt.Errorf("order %d: transaction id was not stored", order.ID)
	}
	order.TransactionID = fresh.TransactionID
	return *fresh.TransactionID, nil
}

// HandleSuccess processes the browser redirect the gateway sends after a
// completed payment. The redirect itself proves nothing; the order is only
// marked paid after the validation id checks out with the gateway.
func (s *PaymentService) HandleSuccess(ctx context.Context, userID, orderID uint64, tranID, valID string) (Outcome, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if err := checkTransactionID(order, tranID); err != nil {
		s.logger.Warn("success callback transaction mismatch", "order_id", order.ID, "tran_id", tranID)
		return OutcomeIgnored, err
	}
	if order.Paid {
		return OutcomeAlreadyPaid, nil
	}
	return s.settle(ctx, order, tranID, valID)
}

func (s *PaymentService) HandleFailure(ctx context.Context, userID, orderID uint64, tranID string, kind CallbackKind) (Outcome, error) {
	order, err := s.loadOwned(ctx, userID, orderID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if err := checkTransactionID(order, tranID); err != nil {
		s.logger.Warn("callback transaction mismatch", "kind", kind, "order_id", order.ID, "tran_id", tranID)
		return OutcomeIgnored, err
	}
	if order.Paid {
		return OutcomeAlreadyPaid, nil
	}

	outcome := OutcomeFailed
	if kind == CallbackCancel {
		outcome = OutcomeCanceled
	}
	s.logger.Info("gateway reported unpaid order", "kind", kind, "order_id", order.ID)
	return s.fail(ctx, order, outcome, nil)
}

// HandleIPN processes the server-to-server notification. The order is found by
// transaction id only; there is no user session behind this call.
func (s *PaymentService) HandleIPN(ctx context.Context, tranID, valID string) (Outcome, error) {
	if tranID == "" || valID == "" {
		s.logger.Warn("ipn without tran_id or val_id", "tran_id", tranID, "val_id", valID)
		return OutcomeIgnored, nil
	}

	order, err := s.orders.FindByTransactionID(ctx, tranID)
	if err != nil {
		return OutcomeIgnored, err
	}
	if order == nil {
		s.logger.Warn("ipn for unknown transaction", "tran_id", tranID)
		return OutcomeIgnored, nil
	}
	if order.Paid {
		s.logger.Info("ipn for paid order", "order_id", order.ID, "tran_id", tranID)
		return OutcomeAlreadyPaid, nil
	}
	return s.settle(ctx, order, tranID, valID)
}

func (s *PaymentService) settle(ctx context.Context, order *domain.Order, tranID, valID string) (Outcome, error) {
	if valID == "" {
		return s.fail(ctx, order, OutcomeFailed, ErrMissingValidationID)
	}

	res, err := s.gateway.Validate(ctx, valID)
	if err != nil {
		return s.fail(ctx, order, OutcomeFailed, fmt.Errorf("validate payment: %w", err))
	}
	if !res.IsValid() {
		return s.fail(ctx, order, OutcomeFailed, fmt.Errorf("%w: gateway status %s", ErrPaymentNotValid, res.Status))
	}
	if !res.Amount.Equal(order.TotalCost) {
		return s.fail(ctx, order, OutcomeFailed, fmt.Errorf("%w: paid %s, order total %s",
			ErrValidationMismatch, res.Amount.StringFixed(2), order.TotalCost.StringFixed(2)))
	}
	if res.TransactionID != "" && order.HasTransactionID() && res.TransactionID != *order.TransactionID {
		return s.fail(ctx, order, OutcomeFailed, fmt.Errorf("%w: validated tran_id %s belongs to another order",
			ErrValidationMismatch, res.TransactionID))
	}

	confirmed := firstNonEmpty(res.TransactionID, tranID)
	if confirmed == "" && order.HasTransactionID() {
		confirmed = *order.TransactionID
	}

	applied, err := s.orders.MarkPaid(ctx, order.ID, domain.PaymentConfirmation{
		TransactionID: confirmed,
		ValidationID:  valID,
	})
	if err != nil {
		s.logger.Error("record payment", "order_id", order.ID, "val_id", valID, "err", err)
		return OutcomeFailed, err
	}
	if !applied {
		s.logger.Info("payment already recorded", "order_id", order.ID, "val_id", valID)
		return OutcomeAlreadyPaid, nil
	}

	order.Paid = true
	order.Status = domain.StatusProcessing
	if confirmed != "" {
		order.TransactionID = &confirmed
	}
	s.logger.Info("order paid", "order_id", order.ID, "tran_id", confirmed, "amount", res.Amount.StringFixed(2))

	s.publishOrderPaidEvent(ctx, order)
	s.statusChanged(ctx, order)
	return OutcomePaid, nil
}

// fail puts an unpaid order back to pending. Paid orders are left alone by the
// repository, so a late failure can never undo a recorded payment.
func (s *PaymentService) fail(ctx context.Context, order *domain.Order, outcome Outcome, cause error) (Outcome, error) {
	reset, err := s.orders.ResetToPending(ctx, order.ID)
	if err != nil {
		s.logger.Error("reset order to pending", "order_id", order.ID, "err", err)
	}
	if cause != nil {
		s.logger.Warn("payment not recorded", "order_id", order.ID, "outcome", outcome, "cause", cause)
	}
	if reset {
		order.Status = domain.StatusPending
		s.statusChanged(ctx, order)
	}
	return outcome, cause
}

func (s *PaymentService) publishOrderPaidEvent(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	evt := domain.OrderPaidEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Email:     order.Email,
		TotalCost: order.TotalCost,
		PaidAt:    time.Now().UTC(),
	}
	if order.HasTransactionID() {
		evt.TransactionID = *order.TransactionID
	}
	if err := s.publisher.Publish(ctx, domain.EventOrderPaid, evt); err != nil {
		s.logger.Error("failed to publish event", "event", domain.EventOrderPaid, "order_id", order.ID, "err", err)
	}
}

func (s *PaymentService) statusChanged(ctx context.Context, order *domain.Order) {
	invalidateOrderStatus(ctx, s.redisClient, s.logger, order.ID)
	if s.notifier != nil {
		s.notifier.BroadcastOrderUpdate(order.ID, order.Status, order.Paid)
	}
}

func (s *PaymentService) loadOwned(ctx context.Context, userID, orderID uint64) (*domain.Order, error) {
	o, err := s.orders.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func checkTransactionID(order *domain.Order, tranID string) error {
	if tranID == "" || !order.HasTransactionID() {
		return nil
	}
	if tranID != *order.TransactionID {
		return ErrTransactionMismatch
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
