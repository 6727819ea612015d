package facades

import (
	"context"
	"errors"
	"fmt"
	"time"

	pb "github.com/sbilibin2017/proto-exchange/exchange"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// ErrHistoricalRateUnsupported is returned for dated lookups the exchanger cannot serve.
var ErrHistoricalRateUnsupported = errors.New("exchanger serves latest rates only")

// ExchangeRatesGRPCFacade reads rates from the gw-exchanger gRPC service.
type ExchangeRatesGRPCFacade struct {
	client pb.ExchangeServiceClient
	now    func() time.Time
}

// NewExchangeRatesGRPCFacade creates a new facade with a gRPC client.
func NewExchangeRatesGRPCFacade(client pb.ExchangeServiceClient) *ExchangeRatesGRPCFacade {
	return &ExchangeRatesGRPCFacade{client: client, now: time.Now}
}

// GetRate fetches the base->currency rate. The exchanger publishes current
// rates only, so the snapshot is dated today (UTC).
func (f *ExchangeRatesGRPCFacade) GetRate(ctx context.Context, base, currency, date string) (models.RateSnapshot, error) {
	today := f.now().UTC().Format(models.RateDateLayout)
	if date != models.LatestRate && date != today {
		return models.RateSnapshot{}, fmt.Errorf("%w: %s", ErrHistoricalRateUnsupported, date)
	}

	req := &pb.CurrencyRequest{
		FromCurrency: base,
		ToCurrency:   currency,
	}

	resp, err := f.client.GetExchangeRateForCurrency(ctx, req)
	if err != nil {
		logger.Log.Errorw("failed to fetch exchange rate for currency via gRPC",
			"from", base, "to", currency, "error", err)
		return models.RateSnapshot{}, err
	}

	return models.RateSnapshot{
		Base:     base,
		Currency: currency,
		Rate:     decimal.NewFromFloat32(resp.Rate),
		Date:     today,
	}, nil
}
