package cryptopay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/digkill/DigiStoreBot/internal/config"
	"github.com/digkill/DigiStoreBot/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(config.Config{
		CryptoPayToken:       "secret-token",
		CryptoPayBaseURL:     srv.URL + "/api/",
		CryptoPayAsset:       "USDT",
		CryptoSettlementRate: decimal.MustParse("85.0"),
		CryptoPaidButtonURL:  "https://t.me/digistore_bot",
	}, zaptest.NewLogger(t))
	c.newPayload = func() string { return "payload-1" }
	return c
}

func TestCreateInvoice(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/createInvoice", r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get("Crypto-Pay-API-Token"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":777,"status":"active","asset":"USDT","amount":"13.22","bot_invoice_url":"https://t.me/CryptoBot?start=IVabc","pay_url":"https://t.me/CryptoBot?start=old"}}`))
	})

	inv, err := c.CreateInvoice(context.Background(), decimal.MustParse("1124.11"), "Заказ #5 | premium")
	require.NoError(t, err)
	assert.Equal(t, "777", inv.ID)
	assert.Equal(t, "https://t.me/CryptoBot?start=IVabc", inv.PayURL)
	assert.Equal(t, "13.22", inv.Amount.String())

	assert.Equal(t, "USDT", got["asset"])
	assert.Equal(t, "13.22", got["amount"])
	assert.Equal(t, "Заказ #5 | premium", got["description"])
	assert.Equal(t, "payload-1", got["payload"])
	assert.Equal(t, "callback", got["paid_btn_name"])
	assert.Equal(t, false, got["allow_anonymous"])
}

func TestCreateInvoiceFallsBackToPayURL(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":1,"pay_url":"https://pay/1"}}`))
	})

	inv, err := c.CreateInvoice(context.Background(), decimal.MustParse("75.00"), "x")
	require.NoError(t, err)
	assert.Equal(t, "https://pay/1", inv.PayURL)
	assert.Equal(t, "0.88", inv.Amount.String())
}

func TestCreateInvoiceAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`))
	})

	_, err := c.CreateInvoice(context.Background(), decimal.MustParse("75.00"), "x")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNAUTHORIZED", apiErr.Name)
}

func TestCreateInvoiceTooSmall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := c.CreateInvoice(context.Background(), decimal.MustParse("0.10"), "x")
	assert.ErrorIs(t, err, ErrAmountTooSmall)
}

func TestInvoiceStatus(t *testing.T) {
	for apiStatus, want := range map[string]models.InvoiceStatus{
		"active":  models.InvoicePending,
		"paid":    models.InvoicePaid,
		"expired": models.InvoiceExpired,
	} {
		t.Run(apiStatus, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/getInvoices", r.URL.Path)
				assert.Equal(t, "777", r.URL.Query().Get("invoice_ids"))
				_, _ = w.Write([]byte(`{"ok":true,"result":{"items":[{"invoice_id":777,"status":"` + apiStatus + `"}]}}`))
			})

			got, err := c.InvoiceStatus(context.Background(), "777")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestInvoiceStatusErrors(t *testing.T) {
	tests := map[string]string{
		"missing invoice": `{"ok":true,"result":{"items":[]}}`,
		"unknown status":  `{"ok":true,"result":{"items":[{"invoice_id":1,"status":"weird"}]}}`,
		"garbage":         `<html>bad gateway</html>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := c.InvoiceStatus(context.Background(), "1")
			assert.Error(t, err)
		})
	}
}
