package handlers

import (
	"context"
	"net/http"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/services"
)

//go:generate mockgen -source=sweep.go -destination=sweep_mock.go -package=handlers

// Sweeper matures due earnings.
type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepResult, error)
}

// SweepResponse summarizes a sweep
// swagger:model SweepResponse
type SweepResponse struct {
	Matured int `json:"matured"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NewSweepHandler runs the maturity sweep outside its schedule.
// @Summary Run maturity sweep
// @Tags internal
// @Produce json
// @Success 200 {object} handlers.SweepResponse
// @Failure 500 {object} handlers.ErrorResponse
// @Router /internal/sweeps [post]
// @Security BearerAuth
func NewSweepHandler(svc Sweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Sweep(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SweepResponse{Matured: res.Matured, Skipped: res.Skipped, Failed: res.Failed})
	}
}
