package xendit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"nutrifarm-backend/internal/domains/payment/gateway"
	"nutrifarm-backend/internal/domains/payment/model"
)

const maxErrorBody = 4 << 10

type Client struct {
	config     *Config
	httpClient *http.Client
}

func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Xendit config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

var _ gateway.InvoiceGateway = (*Client)(nil)

// invoiceResponse mirrors the subset of GET /v2/invoices/{id} we read.
type invoiceResponse struct {
	ID            string     `json:"id"`
	ExternalID    string     `json:"external_id"`
	Status        string     `json:"status"`
	Amount        *float64   `json:"amount"`
	PaidAmount    *float64   `json:"paid_amount"`
	PaymentMethod string     `json:"payment_method"`
	InvoiceURL    string     `json:"invoice_url"`
	PaidAt        *time.Time `json:"paid_at"`
	ExpiryDate    *time.Time `json:"expiry_date"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func (c *Client) GetInvoice(ctx context.Context, invoiceID string) (*model.Invoice, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return nil, model.ErrInvoiceIDRequired
	}

	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/v2/invoices/" + url.PathEscape(invoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.config.SecretKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &model.GatewayError{Code: "XENDIT_UNREACHABLE", Message: "invoice lookup failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr errorResponse
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.ErrorCode == "" {
			apiErr.ErrorCode = "XENDIT_HTTP_ERROR"
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, &model.GatewayError{
			Code:       apiErr.ErrorCode,
			Message:    apiErr.Message,
			StatusCode: resp.StatusCode,
		}
	}

	var payload invoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedResponse, err)
	}
	if payload.ID == "" || payload.Status == "" {
		return nil, fmt.Errorf("%w: missing id or status", model.ErrMalformedResponse)
	}

	return payload.toInvoice(), nil
}

func (p invoiceResponse) toInvoice() *model.Invoice {
	inv := &model.Invoice{
		ID:            p.ID,
		ExternalID:    p.ExternalID,
		Status:        model.NormalizeStatus(p.Status),
		RawStatus:     p.Status,
		PaymentMethod: p.PaymentMethod,
		InvoiceURL:    p.InvoiceURL,
		PaidAt:        p.PaidAt,
		ExpiresAt:     p.ExpiryDate,
	}
	if p.Amount != nil {
		inv.Amount = decimal.NewFromFloat(*p.Amount)
	}
	if p.PaidAmount != nil {
		inv.PaidAmount = decimal.NewFromFloat(*p.PaidAmount)
	}
	return inv
}
