package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

var (
	// DefaultFeePercent is the service fee charged on the part of a subtotal not covered by credits.
	DefaultFeePercent = decimal.NewFromInt(5)
	// DefaultFixedFee is the fixed fee in the wallet currency, converted with the snapshot rate.
	DefaultFixedFee = decimal.RequireFromString("0.30")

	hundred = decimal.NewFromInt(100)
)

// QuoteInput is a wallet credit balance (in wallet currency) and a subtotal
// (in order currency) joined by the snapshot rate.
type QuoteInput struct {
	Balance  decimal.Decimal
	Subtotal decimal.Decimal
	Rate     decimal.Decimal
}

// Quote is the outcome of a credit consumption calculation. All amounts are in
// the order currency except UsedCreditsBase, which is what must be drawn from the wallet.
type Quote struct {
	CreditPool      decimal.Decimal
	Subtotal        decimal.Decimal
	UsedCredits     decimal.Decimal
	ServiceFee      decimal.Decimal
	TotalCharge     decimal.Decimal
	CashCharge      decimal.Decimal
	UsedCreditsBase decimal.Decimal
}

// Calculator computes credit usage and fees. It never mutates a wallet.
type Calculator struct {
	feePercent decimal.Decimal
	fixedFee   decimal.Decimal
}

// NewCalculator creates a calculator with the given percent fee and fixed fee.
func NewCalculator(feePercent, fixedFee decimal.Decimal) *Calculator {
	return &Calculator{feePercent: feePercent, fixedFee: fixedFee}
}

// Quote applies
//
//	usedCredits = max(0, min(creditPool, subtotal))
//	serviceFee  = (subtotal - usedCredits) * fee% + fixedFee * rate
//	totalCharge = subtotal + serviceFee
//
// with creditPool = balance * rate. Results are rounded to cents.
func (c *Calculator) Quote(in QuoteInput) (Quote, error) {
	if !in.Rate.IsPositive() {
		return Quote{}, fmt.Errorf("%w: rate %s", models.ErrRateUnavailable, in.Rate)
	}
	if in.Subtotal.IsNegative() {
		return Quote{}, fmt.Errorf("%w: subtotal %s", models.ErrInvalidAmount, in.Subtotal)
	}
	if in.Balance.IsNegative() {
		return Quote{}, fmt.Errorf("%w: balance %s", models.ErrInvariantViolation, in.Balance)
	}

	subtotal := models.RoundMoney(in.Subtotal)
	creditPool := models.RoundMoney(in.Balance.Mul(in.Rate))
	usedCredits := decimal.Max(decimal.Zero, decimal.Min(creditPool, subtotal))

	fixedFee := c.fixedFee.Mul(in.Rate)
	serviceFee := models.RoundMoney(subtotal.Sub(usedCredits).Mul(c.feePercent).Div(hundred).Add(fixedFee))
	totalCharge := subtotal.Add(serviceFee)

	// converting back may round above the balance by a cent
	usedBase := decimal.Min(models.RoundMoney(usedCredits.Div(in.Rate)), in.Balance)
	if usedCredits.Equal(creditPool) {
		usedBase = in.Balance
	}

	return Quote{
		CreditPool:      creditPool,
		Subtotal:        subtotal,
		UsedCredits:     usedCredits,
		ServiceFee:      serviceFee,
		TotalCharge:     totalCharge,
		CashCharge:      totalCharge.Sub(usedCredits),
		UsedCreditsBase: usedBase,
	}, nil
}

// ToBase converts an order currency amount into the wallet currency.
func ToBase(amount, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return models.RoundMoney(amount.Div(rate))
}
