package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"storefront/internal/infra"
	"storefront/internal/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) callbackURLs(orderID uint64) infra.CallbackURLs {
	base := strings.TrimRight(h.baseURL, "/")
	return infra.CallbackURLs{
		Success: fmt.Sprintf("%s/payment/success/%d", base, orderID),
		Fail:    fmt.Sprintf("%s/payment/fail/%d", base, orderID),
		Cancel:  fmt.Sprintf("%s/payment/cancel/%d", base, orderID),
		IPN:     base + "/payment/ipn",
	}
}

func orderPage(orderID uint64, query string) string {
	return fmt.Sprintf("/orders/%d?%s", orderID, query)
}

// callbackValue reads a gateway field from the form body first, then the query string.
func callbackValue(c *gin.Context, key string) string {
	if v, ok := c.GetPostForm(key); ok && v != "" {
		return v
	}
	return c.Query(key)
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	pageURL, err := h.payments.InitiatePayment(c.Request.Context(), currentUser(c), orderID, h.callbackURLs(orderID))
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, pageURL)
	case errors.Is(err, services.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
	case errors.Is(err, services.ErrAlreadyPaid):
		c.Redirect(http.StatusFound, orderPage(orderID, "payment=success"))
	default:
		h.logger.Error("payment initiation failed", "order_id", orderID, "err", err)
		c.Redirect(http.StatusFound, orderPage(orderID, "payment=failed&error=gateway_unavailable"))
	}
}

func (h *Handler) PaymentSuccess(c *gin.Context) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	outcome, err := h.payments.HandleSuccess(c.Request.Context(), currentUser(c), orderID,
		callbackValue(c, "tran_id"), callbackValue(c, "val_id"))
	h.finishCallback(c, orderID, outcome, err)
}

func (h *Handler) PaymentFail(c *gin.Context) {
	h.paymentAborted(c, services.CallbackFail)
}

func (h *Handler) PaymentCancel(c *gin.Context) {
	h.paymentAborted(c, services.CallbackCancel)
}

func (h *Handler) paymentAborted(c *gin.Context, kind services.CallbackKind) {
	orderID, ok := parseID(c, "orderId")
	if !ok {
		return
	}

	outcome, err := h.payments.HandleFailure(c.Request.Context(), currentUser(c), orderID, callbackValue(c, "tran_id"), kind)
	h.finishCallback(c, orderID, outcome, err)
}

// finishCallback maps an outcome to the browser redirect. Only a transaction id
// mismatch is answered with an error status.
func (h *Handler) finishCallback(c *gin.Context, orderID uint64, outcome services.Outcome, err error) {
	if errors.Is(err, services.ErrTransactionMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction"})
		return
	}
	if err != nil {
		h.logger.Warn("payment callback", "order_id", orderID, "outcome", outcome, "err", err)
	}

	switch outcome {
	case services.OutcomePaid, services.OutcomeAlreadyPaid:
		c.Redirect(http.StatusFound, orderPage(orderID, "payment=success"))
	case services.OutcomeCanceled:
		c.Redirect(http.StatusFound, orderPage(orderID, "payment=canceled"))
	default:
		c.Redirect(http.StatusFound, orderPage(orderID, "payment=failed"))
	}
}

// PaymentIPN always answers 200 so the gateway stops retrying.
func (h *Handler) PaymentIPN(c *gin.Context) {
	tranID := callbackValue(c, "tran_id")
	valID := callbackValue(c, "val_id")

	outcome, err := h.payments.HandleIPN(c.Request.Context(), tranID, valID)
	if err != nil {
		h.logger.Error("ipn processing failed", "tran_id", tranID, "val_id", valID, "outcome", outcome, "err", err)
	} else {
		h.logger.Info("ipn processed", "tran_id", tranID, "outcome", outcome)
	}
	c.String(http.StatusOK, "OK")
}
