package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order represents a single row of the trader order log.
//
// TradeDatetime keeps the timestamp exactly as the log supplied it
// (e.g. "2020-02-03 10:15:00"); it is parsed during normalization so that
// malformed values are reported against the rows that actually matter.
// Invalid carries the same for a price or volume the log could not parse.
type Order struct {
	TraderID      string
	CountryCode   string
	FirstName     string
	LastName      string
	Instrument    string
	TradeDatetime string
	Price         decimal.Decimal
	Volume        int64
	Invalid       error `json:"-"`
}

// NormalizedOrder is an Order restricted to the analysed instrument and window.
//
// Fields:
//   - TradeTime: parsed TradeDatetime.
//   - TradeDate: TradeTime truncated to the calendar date (UTC midnight).
type NormalizedOrder struct {
	Order
	TradeTime time.Time
	TradeDate time.Time
}
