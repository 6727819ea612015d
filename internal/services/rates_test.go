package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

func TestRateService_Rate(t *testing.T) {
	ctx := context.Background()
	cfg := RateConfig{Base: models.USD, LatestTTL: time.Hour, HistoricalTTL: 24 * time.Hour}
	eur := models.RateSnapshot{Base: models.USD, Currency: models.EUR, Rate: dec("0.92"), Date: "2024-03-01"}

	tests := []struct {
		name      string
		currency  string
		asOf      string
		mockSetup func(reader *MockExchangeRateReader, cache *MockExchangeRateCache)
		want      models.RateSnapshot
		wantErr   error
	}{
		{
			name:     "cache hit",
			currency: "eur",
			asOf:     models.LatestRate,
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, models.USD, models.EUR, models.LatestRate).Return(eur, nil)
			},
			want: eur,
		},
		{
			name:     "latest miss caches under both keys",
			currency: models.EUR,
			asOf:     "",
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, models.USD, models.EUR, models.LatestRate).Return(models.RateSnapshot{}, errors.New("redis: nil"))
				reader.EXPECT().GetRate(ctx, models.USD, models.EUR, models.LatestRate).Return(models.RateSnapshot{Rate: dec("0.92"), Date: "2024-03-01"}, nil)
				cache.EXPECT().SetRate(ctx, models.LatestRate, eur, time.Hour).Return(nil)
				cache.EXPECT().SetRate(ctx, "2024-03-01", eur, 24*time.Hour).Return(errors.New("redis down"))
			},
			want: eur,
		},
		{
			name:     "dated miss",
			currency: models.EUR,
			asOf:     "2024-03-01",
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, models.USD, models.EUR, "2024-03-01").Return(models.RateSnapshot{}, errors.New("redis: nil"))
				reader.EXPECT().GetRate(ctx, models.USD, models.EUR, "2024-03-01").Return(eur, nil)
				cache.EXPECT().SetRate(ctx, "2024-03-01", eur, 24*time.Hour).Return(nil)
			},
			want: eur,
		},
		{
			name:     "base currency needs no lookup",
			currency: models.USD,
			asOf:     "2024-02-10",
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {},
			want:     models.RateSnapshot{Base: models.USD, Currency: models.USD, Rate: dec("1"), Date: "2024-02-10"},
		},
		{
			name:     "upstream failure",
			currency: models.RUB,
			asOf:     models.LatestRate,
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, models.USD, models.RUB, models.LatestRate).Return(models.RateSnapshot{}, errors.New("redis: nil"))
				reader.EXPECT().GetRate(ctx, models.USD, models.RUB, models.LatestRate).Return(models.RateSnapshot{}, errors.New("connection refused"))
			},
			wantErr: models.ErrRateUnavailable,
		},
		{
			name:     "zero rate is rejected",
			currency: models.RUB,
			asOf:     models.LatestRate,
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {
				cache.EXPECT().GetRate(ctx, models.USD, models.RUB, models.LatestRate).Return(models.RateSnapshot{}, errors.New("redis: nil"))
				reader.EXPECT().GetRate(ctx, models.USD, models.RUB, models.LatestRate).Return(models.RateSnapshot{Rate: dec("0"), Date: "2024-03-01"}, nil)
			},
			wantErr: models.ErrRateUnavailable,
		},
		{
			name:      "malformed date",
			currency:  models.EUR,
			asOf:      "01.03.2024",
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {},
			wantErr:   models.ErrRateUnavailable,
		},
		{
			name:      "malformed currency",
			currency:  "EURO",
			asOf:      models.LatestRate,
			mockSetup: func(reader *MockExchangeRateReader, cache *MockExchangeRateCache) {},
			wantErr:   models.ErrRateUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			reader := NewMockExchangeRateReader(ctrl)
			cache := NewMockExchangeRateCache(ctrl)
			tt.mockSetup(reader, cache)

			svc := NewRateService(reader, cache, cfg)
			got, err := svc.Rate(ctx, tt.currency, tt.asOf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Base, got.Base)
			assert.Equal(t, tt.want.Currency, got.Currency)
			assert.Equal(t, tt.want.Date, got.Date)
			assert.True(t, tt.want.Rate.Equal(got.Rate))
		})
	}
}

func TestRateService_WithoutCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	reader := NewMockExchangeRateReader(ctrl)
	reader.EXPECT().GetRate(gomock.Any(), models.USD, models.EUR, models.LatestRate).
		Return(models.RateSnapshot{Rate: dec("0.9"), Date: "2024-03-01"}, nil)

	svc := NewRateService(reader, nil, RateConfig{Base: models.USD})
	got, err := svc.Rate(context.Background(), models.EUR, models.LatestRate)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", got.Date)
	assert.Equal(t, models.USD, svc.Base())
}
