// Package cryptopay talks to the Crypto Pay API of @CryptoBot.
package cryptopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"go.uber.org/zap"

	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/models"
)

var ErrAmountTooSmall = errors.New("invoice amount rounds to zero")

// APIError is an error object returned by the API with ok=false.
type APIError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crypto pay error %d: %s", e.Code, e.Name)
}

type Client struct {
	token         string
	baseURL       string
	asset         string
	paidButtonURL string
	rate          decimal.Decimal
	httpClient    *http.Client
	logger        *zap.Logger
	newPayload    func() string
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		token:         cfg.CryptoPayToken,
		baseURL:       strings.TrimRight(cfg.CryptoPayBaseURL, "/"),
		asset:         cfg.CryptoPayAsset,
		paidButtonURL: cfg.CryptoPaidButtonURL,
		rate:          cfg.CryptoSettlementRate,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		newPayload:    uuid.NewString,
	}
}

// Convert turns a RUB amount into the settlement asset at the fixed rate.
func (c *Client) Convert(amountRUB decimal.Decimal) (decimal.Decimal, error) {
	converted, err := amountRUB.Quo(c.rate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("convert %s: %w", amountRUB, err)
	}
	converted = converted.Round(2)
	if !converted.IsPos() {
		return decimal.Zero, ErrAmountTooSmall
	}
	return converted, nil
}

type invoice struct {
	InvoiceID     int64  `json:"invoice_id"`
	Status        string `json:"status"`
	Asset         string `json:"asset"`
	Amount        string `json:"amount"`
	BotInvoiceURL string `json:"bot_invoice_url"`
	PayURL        string `json:"pay_url"`
}

type envelope[T any] struct {
	OK     bool      `json:"ok"`
	Result T         `json:"result"`
	Error  *APIError `json:"error"`
}

func (c *Client) CreateInvoice(ctx context.Context, amountRUB decimal.Decimal, description string) (*models.Invoice, error) {
	amount, err := c.Convert(amountRUB)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"asset":           c.asset,
		"amount":          amount.String(),
		"description":     description,
		"payload":         c.newPayload(),
		"allow_anonymous": false,
	}
	if c.paidButtonURL != "" {
		payload["paid_btn_name"] = "callback"
		payload["paid_btn_url"] = c.paidButtonURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal invoice: %w", err)
	}

	var inv invoice
	if err := c.call(ctx, http.MethodPost, "createInvoice", nil, body, &inv); err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	link := inv.BotInvoiceURL
	if link == "" {
		link = inv.PayURL
	}
	if inv.InvoiceID == 0 || link == "" {
		return nil, fmt.Errorf("create invoice: response without id or link")
	}

	c.logger.Info("crypto invoice created",
		zap.Int64("invoice_id", inv.InvoiceID),
		zap.String("amount", amount.String()),
		zap.String("asset", c.asset),
	)
	return &models.Invoice{
		ID:     strconv.FormatInt(inv.InvoiceID, 10),
		PayURL: link,
		Amount: amount,
		Asset:  c.asset,
	}, nil
}

func (c *Client) InvoiceStatus(ctx context.Context, invoiceID string) (models.InvoiceStatus, error) {
	query := url.Values{}
	query.Set("invoice_ids", invoiceID)

	var result struct {
		Items []invoice `json:"items"`
	}
	if err := c.call(ctx, http.MethodGet, "getInvoices", query, nil, &result); err != nil {
		return "", fmt.Errorf("get invoice %s: %w", invoiceID, err)
	}
	if len(result.Items) == 0 {
		return "", fmt.Errorf("invoice %s not found", invoiceID)
	}

	switch status := result.Items[0].Status; status {
	case "paid":
		return models.InvoicePaid, nil
	case "expired":
		return models.InvoiceExpired, nil
	case "active":
		return models.InvoicePending, nil
	default:
		return "", fmt.Errorf("unknown invoice status %q", status)
	}
}

func (c *Client) call(ctx context.Context, httpMethod, method string, query url.Values, body []byte, out any) error {
	fullURL := c.baseURL + "/" + method
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, httpMethod, fullURL, reader)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Crypto-Pay-API-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	env := envelope[json.RawMessage]{}
	if err := json.Unmarshal(rawBody, &env); err != nil {
		if resp.StatusCode >= 300 {
			return fmt.Errorf("%s: status=%d body=%s", method, resp.StatusCode, truncateBody(rawBody))
		}
		return fmt.Errorf("decode response: %w (body=%s)", err, truncateBody(rawBody))
	}
	if !env.OK {
		c.logger.Warn("crypto pay request failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncateBody(rawBody)),
		)
		if env.Error != nil {
			return env.Error
		}
		return fmt.Errorf("%s: status=%d body=%s", method, resp.StatusCode, truncateBody(rawBody))
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
