package abuse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Detection is the result of joining orders to price bars.
//
// Orders holds one FlaggedOrder per input order, in input order.
// Duplicates lists, in first-seen order, the dates that had more than one bar.
type Detection struct {
	Orders     []models.FlaggedOrder
	Duplicates []time.Time
}

// IsAbusive applies the abuse rule to a single price.
// A nil bar means the instrument did not trade that day.
// The [Low, High] range is inclusive.
func IsAbusive(price decimal.Decimal, bar *models.PriceBar) (bool, models.AbuseReason) {
	switch {
	case bar == nil:
		return true, models.ReasonNoTradingDay
	case price.GreaterThan(bar.High):
		return true, models.ReasonAboveHigh
	case price.LessThan(bar.Low):
		return true, models.ReasonBelowLow
	default:
		return false, models.ReasonNone
	}
}

// Detect left-joins normalized orders to normalized bars on the trade date and
// flags each order. Orders without a bar are kept and flagged.
// When a date has several bars the first one in bars order is used.
func Detect(orders []models.NormalizedOrder, bars []models.PriceBar) Detection {
	byDate := make(map[string]int, len(bars))
	var dups []time.Time
	seenDup := make(map[string]bool)

	for i, b := range bars {
		key := b.DateKey()
		if _, ok := byDate[key]; ok {
			if !seenDup[key] {
				seenDup[key] = true
				dups = append(dups, b.Date)
			}
			continue
		}
		byDate[key] = i
	}

	out := make([]models.FlaggedOrder, len(orders))
	for i, o := range orders {
		f := models.FlaggedOrder{NormalizedOrder: o}

		var bar *models.PriceBar
		if idx, ok := byDate[o.TradeDate.Format(models.DateLayout)]; ok {
			bar = &bars[idx]
			f.Matched = true
			f.High = bar.High
			f.Low = bar.Low
		}
		f.IsAbusive, f.Reason = IsAbusive(o.Price, bar)
		out[i] = f
	}

	return Detection{Orders: out, Duplicates: dups}
}

// FilterAbusive keeps only the flagged orders whose IsAbusive is true.
func FilterAbusive(flagged []models.FlaggedOrder) []models.FlaggedOrder {
	out := make([]models.FlaggedOrder, 0, len(flagged))
	for _, f := range flagged {
		if f.IsAbusive {
			out = append(out, f)
		}
	}
	return out
}
