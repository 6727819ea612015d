package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=exchange_rate.go -destination=exchange_rate_mock.go -package=handlers

// RateResolver resolves rate snapshots.
type RateResolver interface {
	Rate(ctx context.Context, currency, asOf string) (models.RateSnapshot, error)
}

// RateResponse is a rate snapshot
// swagger:model RateResponse
type RateResponse struct {
	Rate models.RateSnapshot `json:"rate"`
}

// NewGetExchangeRateHandler returns the snapshot a client prices an order with.
// @Summary Get exchange rate
// @Description Rate from the wallet currency to currency, published on date (latest by default)
// @Tags exchange
// @Produce json
// @Param currency path string true "Currency code"
// @Param date query string false "Calendar date YYYY-MM-DD"
// @Success 200 {object} handlers.RateResponse
// @Failure 400 {object} handlers.ErrorResponse
// @Failure 503 {object} handlers.ErrorResponse "Rate unavailable"
// @Router /rates/{currency} [get]
// @Security BearerAuth
func NewGetExchangeRateHandler(svc RateResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currency := strings.ToUpper(chi.URLParam(r, "currency"))
		asOf := r.URL.Query().Get("date")
		if asOf == "" {
			asOf = models.LatestRate
		}

		snap, err := svc.Rate(r.Context(), currency, asOf)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, RateResponse{Rate: snap})
	}
}
