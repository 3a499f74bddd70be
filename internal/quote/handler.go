package quote

import (
	"errors"
	"net/http"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricing-engine/internal/common"
	"github.com/noah-isme/pricing-engine/internal/complexity"
	"github.com/noah-isme/pricing-engine/internal/customer"
	"github.com/noah-isme/pricing-engine/internal/money"
	"github.com/noah-isme/pricing-engine/internal/obs"
	"github.com/noah-isme/pricing-engine/internal/pricing"
	"github.com/noah-isme/pricing-engine/internal/promo"
)

// Request is the calculation payload accepted by the quote endpoint.
type Request struct {
	Quote      QuotePayload      `json:"quote" validate:"required"`
	Customer   CustomerPayload   `json:"customer" validate:"required"`
	Complexity ComplexityPayload `json:"complexity" validate:"required"`
}

// QuotePayload carries the vendor quotation being priced.
type QuotePayload struct {
	TotalPriceMinor int64  `json:"total_price_minor" validate:"gt=0"`
	Currency        string `json:"currency" validate:"required,len=3,alpha"`
}

// CustomerPayload mirrors the customer snapshot fields.
type CustomerPayload struct {
	Tier                string   `json:"tier" validate:"required,oneof=standard premium corporate vip"`
	TotalOrders         int      `json:"total_orders" validate:"min=0"`
	TotalSpentMinor     int64    `json:"total_spent_minor" validate:"min=0"`
	AgeMonths           int      `json:"age_months" validate:"min=0"`
	Region              string   `json:"region"`
	Country             string   `json:"country" validate:"omitempty,len=2,alpha"`
	ExportCustomer      bool     `json:"export_customer"`
	Government          bool     `json:"government"`
	Corporate           bool     `json:"corporate"`
	FreeTradeZone       bool     `json:"free_trade_zone"`
	ServiceTransactions bool     `json:"service_transactions"`
	SpecialExemptions   []string `json:"special_exemptions"`
}

// ComplexityPayload carries the assessed order complexity. Score bounds are
// enforced by the resolver, not the decoder, so the caller gets the domain
// error rather than a generic validation message.
type ComplexityPayload struct {
	Level string `json:"level" validate:"required,oneof=simple medium high custom"`
	Score int    `json:"score" validate:"required"`
}

// Response wraps the pricing structure with a per-request identifier.
type Response struct {
	QuoteID      string `json:"quote_id"`
	CalculatedAt string `json:"calculated_at"`
	pricing.Structure
}

// Handler serves pricing quote calculations over HTTP.
type Handler struct {
	Orchestrator *pricing.Orchestrator
	Catalog      *promo.Catalog
	Validate     *validator.Validate
	Now          func() time.Time
	Logger       zerolog.Logger
}

// NewHandler wires the quote endpoint. A nil clock defaults to time.Now and a
// nil validator is constructed on the spot.
func NewHandler(o *pricing.Orchestrator, catalog *promo.Catalog, logger zerolog.Logger) *Handler {
	return &Handler{
		Orchestrator: o,
		Catalog:      catalog,
		Validate:     validator.New(),
		Now:          time.Now,
		Logger:       logger,
	}
}

// Calculate handles POST /api/v1/pricing/quote.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := common.DecodeValid(r, h.Validate, &req); err != nil {
		obs.IncQuote("unknown", "rejected")
		common.JSONError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}

	tier, _ := customer.ParseTier(req.Customer.Tier)
	snap := customer.Snapshot{
		Tier:                tier,
		TotalOrders:         req.Customer.TotalOrders,
		TotalSpent:          money.New(req.Customer.TotalSpentMinor, req.Quote.Currency),
		AgeMonths:           req.Customer.AgeMonths,
		Region:              req.Customer.Region,
		Country:             req.Customer.Country,
		ExportCustomer:      req.Customer.ExportCustomer,
		Government:          req.Customer.Government,
		Corporate:           req.Customer.Corporate,
		FreeTradeZone:       req.Customer.FreeTradeZone,
		ServiceTransactions: req.Customer.ServiceTransactions,
		SpecialExemptions:   req.Customer.SpecialExemptions,
	}
	vendorQuote := pricing.VendorQuote{TotalPrice: money.New(req.Quote.TotalPriceMinor, req.Quote.Currency)}
	cx := complexity.Snapshot{Level: complexity.Level(req.Complexity.Level), Score: req.Complexity.Score}

	now := h.now()
	structure, err := h.Orchestrator.Calculate(vendorQuote, snap, cx, h.Catalog.ActiveAt(now))
	if err != nil {
		h.renderError(w, string(tier), err)
		return
	}

	obs.IncQuote(string(tier), "ok")
	if structure.DiscountCapApplied {
		obs.IncDiscountCap()
	}
	if structure.TaxSanityViolation {
		obs.IncTaxSanityViolation()
	}

	common.JSON(w, http.StatusOK, map[string]any{"data": Response{
		QuoteID:      uuid.NewString(),
		CalculatedAt: now.UTC().Format(time.RFC3339),
		Structure:    structure,
	}})
}

func (h *Handler) renderError(w http.ResponseWriter, tier string, err error) {
	switch {
	case errors.Is(err, complexity.ErrInvalidScore):
		obs.IncQuote(tier, "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, "invalid_complexity_score", err.Error(), nil)
	case errors.Is(err, money.ErrCurrencyMismatch):
		obs.IncQuote(tier, "rejected")
		common.JSONError(w, http.StatusUnprocessableEntity, "currency_mismatch", err.Error(), nil)
	default:
		obs.IncQuote(tier, "error")
		h.Logger.Error().Err(err).Msg("quote calculation failed")
		common.JSONError(w, http.StatusInternalServerError, "internal_error", "pricing calculation failed", nil)
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
