package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date layout used for bars, config values and join keys.
const DateLayout = "2006-01-02"

// PriceBar holds the daily OHLC statistics of one instrument.
// There is at most one bar per trading day and High >= Low.
type PriceBar struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// DateKey returns the bar date formatted as YYYY-MM-DD.
func (b PriceBar) DateKey() string {
	return b.Date.Format(DateLayout)
}
