package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=rates.go -destination=rates_mock.go -package=services

// ExchangeRateReader resolves rates from an upstream source.
type ExchangeRateReader interface {
	GetRate(ctx context.Context, base, currency, date string) (models.RateSnapshot, error) // date is a calendar date or "latest"
}

// ExchangeRateCache caches resolved snapshots.
type ExchangeRateCache interface {
	GetRate(ctx context.Context, base, currency, date string) (models.RateSnapshot, error)      // Returns an error on miss
	SetRate(ctx context.Context, date string, snap models.RateSnapshot, ttl time.Duration) error // Stores snap under date
}

// RateConfig configures RateService.
type RateConfig struct {
	Base          string        // Wallet currency rates are quoted from
	LatestTTL     time.Duration // Cache lifetime of "latest" lookups
	HistoricalTTL time.Duration // Cache lifetime of dated lookups
}

// RateService resolves rate snapshots with a cache-aside lookup.
type RateService struct {
	reader ExchangeRateReader
	cache  ExchangeRateCache
	cfg    RateConfig
	now    func() time.Time
}

// NewRateService creates a new RateService.
func NewRateService(reader ExchangeRateReader, cache ExchangeRateCache, cfg RateConfig) *RateService {
	return &RateService{reader: reader, cache: cache, cfg: cfg, now: time.Now}
}

// Base returns the wallet currency.
func (s *RateService) Base() string {
	return s.cfg.Base
}

// Rate returns the conversion rate from the base currency to currency on asOf,
// which is a YYYY-MM-DD date or "latest". The snapshot carries the concrete
// date that was resolved.
func (s *RateService) Rate(ctx context.Context, currency, asOf string) (models.RateSnapshot, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if asOf == "" {
		asOf = models.LatestRate
	}
	if len(currency) != 3 {
		return models.RateSnapshot{}, fmt.Errorf("%w: unknown currency %q", models.ErrRateUnavailable, currency)
	}
	if asOf != models.LatestRate {
		if _, err := time.Parse(models.RateDateLayout, asOf); err != nil {
			return models.RateSnapshot{}, fmt.Errorf("%w: invalid date %q", models.ErrRateUnavailable, asOf)
		}
	}

	if currency == s.cfg.Base {
		date := asOf
		if date == models.LatestRate {
			date = s.now().UTC().Format(models.RateDateLayout)
		}
		return models.RateSnapshot{Base: s.cfg.Base, Currency: currency, Rate: decimal.NewFromInt(1), Date: date}, nil
	}

	if s.cache != nil {
		snap, err := s.cache.GetRate(ctx, s.cfg.Base, currency, asOf)
		if err == nil && snap.Rate.IsPositive() {
			return snap, nil
		}
	}

	snap, err := s.reader.GetRate(ctx, s.cfg.Base, currency, asOf)
	if err != nil {
		logger.Log.Errorw("failed to get exchange rate", "base", s.cfg.Base, "currency", currency, "date", asOf, "error", err)
		return models.RateSnapshot{}, fmt.Errorf("%w: %v", models.ErrRateUnavailable, err)
	}
	if !snap.Rate.IsPositive() || snap.Date == "" {
		return models.RateSnapshot{}, fmt.Errorf("%w: invalid snapshot %s@%s for %s", models.ErrRateUnavailable, snap.Rate, snap.Date, currency)
	}
	snap.Base, snap.Currency = s.cfg.Base, currency

	if s.cache != nil {
		if asOf == models.LatestRate {
			if err := s.cache.SetRate(ctx, asOf, snap, s.cfg.LatestTTL); err != nil {
				logger.Log.Errorw("failed to cache exchange rate", "currency", currency, "date", asOf, "error", err)
			}
		}
		if err := s.cache.SetRate(ctx, snap.Date, snap, s.cfg.HistoricalTTL); err != nil {
			logger.Log.Errorw("failed to cache exchange rate", "currency", currency, "date", snap.Date, "error", err)
		}
	}

	return snap, nil
}
