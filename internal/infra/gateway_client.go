package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	gatewayStatusSuccess      = "SUCCESS"
	validationStatusValid     = "VALID"
	validationStatusValidated = "VALIDATED"
	maxGatewayBody            = 1 << 20
)

type GatewayConfig struct {
	StoreID       string
	StorePassword string
	PaymentURL    string
	ValidationURL string
	Currency      string
	Timeout       time.Duration
}

type CallbackURLs struct {
	Success string
	Fail    string
	Cancel  string
	IPN     string
}

type Customer struct {
	Name     string
	Email    string
	Address  string
	City     string
	PostCode string
	Phone    string
}

type InitiateRequest struct {
	TransactionID string
	Amount        decimal.Decimal
	Customer      Customer
	URLs          CallbackURLs
}

type InitiateResponse struct {
	Status         string
	GatewayPageURL string
	SessionKey     string
	FailedReason   string
}

// ValidationResult is the authoritative payment state for a validation id.
type ValidationResult struct {
	Status            string
	Amount            decimal.Decimal
	TransactionID     string
	ValidationID      string
	BankTransactionID string
	Currency          string
	Raw               map[string]any
}

func (v *ValidationResult) IsValid() bool {
	return v.Status == validationStatusValid || v.Status == validationStatusValidated
}

type GatewayClient struct {
	cfg        GatewayConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewGatewayClient(cfg GatewayConfig, logger *slog.Logger) *GatewayClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Currency == "" {
		cfg.Currency = "BDT"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

func (c *GatewayClient) Initiate(ctx context.Context, req InitiateRequest) (*InitiateResponse, error) {
	form := url.Values{}
	form.Set("store_id", c.cfg.StoreID)
	form.Set("store_passwd", c.cfg.StorePassword)
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", c.cfg.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", req.URLs.Success)
	form.Set("fail_url", req.URLs.Fail)
	form.Set("cancel_url", req.URLs.Cancel)
	form.Set("ipn_url", req.URLs.IPN)
	form.Set("cus_name", req.Customer.Name)
	form.Set("cus_email", req.Customer.Email)
	form.Set("cus_add1", req.Customer.Address)
	form.Set("cus_city", req.Customer.City)
	form.Set("cus_postcode", req.Customer.PostCode)
	form.Set("cus_country", "Bangladesh")
	form.Set("cus_phone", req.Customer.Phone)
	form.Set("shipping_method", "NO")
	form.Set("product_name", "Products from our store")
	form.Set("product_category", "General")
	form.Set("product_profile", "general")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.PaymentURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build initiate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Info("initiating gateway payment", "tran_id", req.TransactionID, "amount", req.Amount.StringFixed(2))

	fields, err := c.doJSON(httpReq, "initiate")
	if err != nil {
		c.logger.Error("gateway initiate failed", "tran_id", req.TransactionID, "err", err)
		return nil, err
	}

	resp := &InitiateResponse{
		Status:         stringField(fields, "status"),
		GatewayPageURL: stringField(fields, "GatewayPageURL"),
		SessionKey:     stringField(fields, "sessionkey"),
		FailedReason:   stringField(fields, "failedreason"),
	}
	if resp.Status != gatewayStatusSuccess || resp.GatewayPageURL == "" {
		reason := resp.FailedReason
		if reason == "" {
			reason = "Unknown reason"
		}
		c.logger.Warn("gateway rejected payment initiation", "tran_id", req.TransactionID, "status", resp.Status, "reason", reason)
		return nil, &RejectionError{Status: resp.Status, Reason: reason}
	}

	c.logger.Info("gateway payment initiated", "tran_id", req.TransactionID)
	return resp, nil
}

func (c *GatewayClient) Validate(ctx context.Context, valID string) (*ValidationResult, error) {
	q := url.Values{}
	q.Set("val_id", valID)
	q.Set("store_id", c.cfg.StoreID)
	q.Set("store_passwd", c.cfg.StorePassword)
	q.Set("v", "1")
	q.Set("format", "json")

	endpoint := c.cfg.ValidationURL
	if strings.Contains(endpoint, "?") {
		endpoint += "&" + q.Encode()
	} else {
		endpoint += "?" + q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build validation request: %w", err)
	}

	c.logger.Info("validating gateway payment", "val_id", valID)

	fields, err := c.doJSON(httpReq, "validate")
	if err != nil {
		c.logger.Error("gateway validation failed", "val_id", valID, "err", err)
		return nil, err
	}

	res := &ValidationResult{
		Status:            stringField(fields, "status"),
		TransactionID:     stringField(fields, "tran_id"),
		ValidationID:      stringField(fields, "val_id"),
		BankTransactionID: stringField(fields, "bank_tran_id"),
		Currency:          stringField(fields, "currency"),
		Raw:               fields,
	}
	if res.Status == "" {
		res.Status = "UNKNOWN"
	}
	if raw := stringField(fields, "amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &ProtocolError{Op: "validate", Body: raw, Err: fmt.Errorf("parse amount: %w", err)}
		}
		res.Amount = amount
	}

	c.logger.Info("gateway validation result", "val_id", valID, "status", res.Status)
	return res, nil
}

// doJSON executes req and decodes a JSON object body. Numbers are kept as json.Number
// so amounts never pass through float64.
func (c *GatewayClient) doJSON(req *http.Request, op string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGatewayBody))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Op: op, Err: fmt.Errorf("gateway returned status %d", resp.StatusCode)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, &ProtocolError{Op: op, Body: truncate(string(body)), Err: err}
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return nil, &ProtocolError{Op: op, Body: truncate(string(body)), Err: errors.New("response is not a JSON object")}
	}
	return fields, nil
}

func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

func truncate(s string) string {
	if len(s) > 256 {
		return s[:256]
	}
	return s
}
