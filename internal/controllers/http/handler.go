package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/services"
	"storefront/internal/websocket"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	orders   *services.OrderService
	payments *services.PaymentService
	hub      *websocket.Hub
	// baseURL is the public origin the gateway redirects browsers back to.
	baseURL string
	logger  *slog.Logger
}

func NewHandler(orders *services.OrderService, payments *services.PaymentService, hub *websocket.Hub, baseURL string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{orders: orders, payments: payments, hub: hub, baseURL: baseURL, logger: logger}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/payment/ipn", h.PaymentIPN)

	user := r.Group("/", RequireUser())
	user.POST("/checkout", h.Checkout)
	user.GET("/orders/:id", h.GetOrder)
	user.GET("/orders/:id/ws", h.OrderWS)
	user.POST("/payment/process/:orderId", h.ProcessPayment)
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		user.Handle(method, "/payment/success/:orderId", h.PaymentSuccess)
		user.Handle(method, "/payment/fail/:orderId", h.PaymentFail)
		user.Handle(method, "/payment/cancel/:orderId", h.PaymentCancel)
	}
}

func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.Checkout(c.Request.Context(), currentUser(c), req.ShippingDetails())
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) || errors.Is(err, services.ErrProductUnavailable) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("checkout", "user_id", currentUser(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not place order"})
		return
	}

	c.JSON(http.StatusCreated, CheckoutResponse{ID: order.ID, TotalCost: order.TotalCost, Status: order.Status})
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.orders.GetOrderStatus(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		h.orderError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// OrderWS streams status changes of one order to its owner.
func (h *Handler) OrderWS(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	view, err := h.orders.GetOrderStatus(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		h.orderError(c, err)
		return
	}
	h.hub.Serve(c.Writer, c.Request, websocket.OrderUpdate{OrderID: view.ID, Status: view.Status, Paid: view.Paid})
}

func (h *Handler) orderError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	h.logger.Error("load order", "user_id", currentUser(c), "err", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func parseID(c *gin.Context, param string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": param + " must be a positive integer"})
		return 0, false
	}
	return id, true
}
