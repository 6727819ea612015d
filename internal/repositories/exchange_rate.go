package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// ErrRateNotCached is returned on a cache miss.
var ErrRateNotCached = errors.New("exchange rate not found in cache")

// ExchangeRateCacheRepository caches rate snapshots in Redis
type ExchangeRateCacheRepository struct {
	client *redis.Client
}

// NewExchangeRateCacheRepository creates a new repository instance
func NewExchangeRateCacheRepository(client *redis.Client) *ExchangeRateCacheRepository {
	return &ExchangeRateCacheRepository{client: client}
}

func rateKey(base, currency, date string) string {
	return fmt.Sprintf("exchange_rate:%s:%s:%s", base, currency, date)
}

// GetRate fetches the snapshot cached for base->currency on date ("latest" included)
func (r *ExchangeRateCacheRepository) GetRate(ctx context.Context, base, currency, date string) (models.RateSnapshot, error) {
	key := rateKey(base, currency, date)

	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		logger.Log.Debugw("cache get", "key", key, "error", err)
		if errors.Is(err, redis.Nil) {
			return models.RateSnapshot{}, fmt.Errorf("%w: %s->%s@%s", ErrRateNotCached, base, currency, date)
		}
		return models.RateSnapshot{}, err
	}

	var snap models.RateSnapshot
	if err := json.Unmarshal([]byte(val), &snap); err != nil {
		logger.Log.Errorw("cache value is corrupted", "key", key, "value", val, "error", err)
		return models.RateSnapshot{}, err
	}

	logger.Log.Debugw("cache get", "key", key, "rate", snap.Rate, "date", snap.Date)
	return snap, nil
}

// SetRate caches snap under date with expiration ttl
func (r *ExchangeRateCacheRepository) SetRate(ctx context.Context, date string, snap models.RateSnapshot, ttl time.Duration) error {
	key := rateKey(snap.Base, snap.Currency, date)

	val, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	err = r.client.Set(ctx, key, val, ttl).Err()

	logger.Log.Debugw("cache set", "key", key, "rate", snap.Rate, "ttl", ttl, "error", err)
	return err
}
