package models

import "github.com/shopspring/decimal"

// LatestRate asks a rate provider for the most recent published rate.
const LatestRate = "latest"

// RateDateLayout is the canonical calendar date format of a rate snapshot.
const RateDateLayout = "2006-01-02"

// RateSnapshot is a conversion rate from Base to Currency as published on Date.
type RateSnapshot struct {
	Base     string          `json:"base"`
	Currency string          `json:"currency"`
	Rate     decimal.Decimal `json:"rate"`
	Date     string          `json:"date"`
}
