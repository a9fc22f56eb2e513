package models

import "github.com/shopspring/decimal"

// AbuseReason explains why an order was flagged.
type AbuseReason string

const (
	ReasonNone         AbuseReason = ""
	ReasonNoTradingDay AbuseReason = "no_trading_day"
	ReasonAboveHigh    AbuseReason = "above_high"
	ReasonBelowLow     AbuseReason = "below_low"
)

// FlaggedOrder is a NormalizedOrder annotated with the outcome of the abuse rule.
// High and Low are only meaningful when Matched is true.
type FlaggedOrder struct {
	NormalizedOrder
	Matched   bool
	High      decimal.Decimal
	Low       decimal.Decimal
	IsAbusive bool
	Reason    AbuseReason
}
