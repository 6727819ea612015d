package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Supported currency codes.
const (
	USD = "USD"
	EUR = "EUR"
	RUB = "RUB"
)

// MoneyPlaces is the number of decimal places money is settled with.
const MoneyPlaces = 2

// Money is a fixed-point amount tagged with an ISO 4217 currency code.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney returns Money with the currency code normalized to upper case.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}
}

// Add sums two amounts of the same currency.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub subtracts other from m; both must share a currency.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Convert multiplies the amount by rate and tags the result with currency.
func (m Money) Convert(rate decimal.Decimal, currency string) Money {
	return NewMoney(m.Amount.Mul(rate), currency)
}

// Round rounds the amount to cents.
func (m Money) Round() Money {
	return Money{Amount: RoundMoney(m.Amount), Currency: m.Currency}
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

func (m Money) String() string {
	return m.Amount.StringFixed(MoneyPlaces) + " " + m.Currency
}

// RoundMoney rounds d half away from zero to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
