package quote_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricing-engine/internal/discount"
	"github.com/noah-isme/pricing-engine/internal/pricing"
	"github.com/noah-isme/pricing-engine/internal/promo"
	"github.com/noah-isme/pricing-engine/internal/quote"
	"github.com/noah-isme/pricing-engine/internal/tax"
)

func newTestHandler(t *testing.T) *quote.Handler {
	t.Helper()
	orch, err := pricing.NewOrchestrator(pricing.OrchestratorConfig{
		Discounts: &discount.Engine{Cfg: discount.DefaultConfig(), Now: fixedClock},
		Taxes:     &tax.Engine{Cfg: tax.DefaultConfig()},
	})
	require.NoError(t, err)

	h := quote.NewHandler(orch, promo.NewCatalog(nil), zerolog.Nop())
	h.Now = fixedClock
	return h
}

func fixedClock() time.Time {
	return time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)
}

func postQuote(t *testing.T, h *quote.Handler, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)
	return rec
}

func validPayload() map[string]any {
	return map[string]any{
		"quote": map[string]any{
			"total_price_minor": int64(100_000_000),
			"currency":          "IDR",
		},
		"customer": map[string]any{
			"tier":              "premium",
			"total_orders":      12,
			"total_spent_minor": int64(15_000_000_000),
			"age_months":        20,
			"region":            "jakarta",
			"country":           "ID",
			"corporate":         false,
		},
		"complexity": map[string]any{
			"level": "medium",
			"score": 5,
		},
	}
}

func TestCalculateSuccess(t *testing.T) {
	rec := postQuote(t, newTestHandler(t), validPayload())
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data struct {
			QuoteID      string `json:"quote_id"`
			CalculatedAt string `json:"calculated_at"`
			BaseCost     struct {
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
			} `json:"base_cost"`
			FinalPrice struct {
				Amount int64 `json:"amount"`
			} `json:"final_price"`
			ProfitMargin string `json:"profit_margin"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))

	require.NotEmpty(t, envelope.Data.QuoteID)
	require.Equal(t, "2026-03-10T09:00:00Z", envelope.Data.CalculatedAt)
	require.Equal(t, int64(100_000_000), envelope.Data.BaseCost.Amount)
	require.Equal(t, "IDR", envelope.Data.BaseCost.Currency)
	require.Positive(t, envelope.Data.FinalPrice.Amount)
}

func TestCalculateFreshQuoteIDPerRequest(t *testing.T) {
	h := newTestHandler(t)
	ids := map[string]bool{}
	for i := 0; i < 2; i++ {
		rec := postQuote(t, h, validPayload())
		require.Equal(t, http.StatusOK, rec.Code)
		var envelope struct {
			Data struct {
				QuoteID string `json:"quote_id"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
		ids[envelope.Data.QuoteID] = true
	}
	require.Len(t, ids, 2)
}

func TestCalculateRejectsMalformedJSON(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/quote", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	h.Calculate(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateRejectsUnknownTier(t *testing.T) {
	payload := validPayload()
	payload["customer"].(map[string]any)["tier"] = "platinum"
	rec := postQuote(t, newTestHandler(t), payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateRejectsNonPositivePrice(t *testing.T) {
	payload := validPayload()
	payload["quote"].(map[string]any)["total_price_minor"] = int64(0)
	rec := postQuote(t, newTestHandler(t), payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalculateInvalidScoreIsUnprocessable(t *testing.T) {
	payload := validPayload()
	payload["complexity"].(map[string]any)["score"] = 11
	rec := postQuote(t, newTestHandler(t), payload)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "invalid_complexity_score", envelope.Error.Code)
}
