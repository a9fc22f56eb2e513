package abuse

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// timestampLayouts lists the accepted order timestamp formats, most common first.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04",
	models.DateLayout,
}

// ParseTimestamp parses an order timestamp. Values without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrMalformedTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedTimestamp
}

// TruncateToDate drops the time of day, keeping the calendar date of t as UTC midnight.
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeOrders restricts orders to one instrument and an inclusive date window
// and returns them sorted by trade time.
//
// Behavior:
//   - Instrument match is exact and case-sensitive.
//   - Every order of the instrument must carry a parsable timestamp, price
//     and non-negative volume, otherwise an *InputValidationError is returned.
//     Rows of other instruments are not checked.
//   - start and end are compared by calendar date; both bounds are inclusive.
//   - Sorting is stable, so equal timestamps keep their input order.
//
// The input slice is never modified.
func NormalizeOrders(orders []models.Order, instrument string, start, end time.Time) ([]models.NormalizedOrder, error) {
	from := TruncateToDate(start)
	to := TruncateToDate(end)

	out := make([]models.NormalizedOrder, 0, len(orders))
	for i, o := range orders {
		if o.Instrument != instrument {
			continue
		}
		if o.Invalid != nil {
			return nil, o.Invalid
		}

		ts, err := ParseTimestamp(o.TradeDatetime)
		if err != nil {
			return nil, NewInputValidationError(i+1, "tradeDatetime", o.TradeDatetime, err)
		}
		if o.Volume < 0 {
			return nil, NewInputValidationError(i+1, "volume", "", errors.New("volume must not be negative"))
		}

		day := TruncateToDate(ts)
		if day.Before(from) || day.After(to) {
			continue
		}

		out = append(out, models.NormalizedOrder{
			Order:     o,
			TradeTime: ts,
			TradeDate: day,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TradeTime.Before(out[j].TradeTime)
	})

	return out, nil
}

// NormalizePriceBars returns a copy of bars with every date truncated to its calendar day.
func NormalizePriceBars(bars []models.PriceBar) []models.PriceBar {
	out := make([]models.PriceBar, len(bars))
	for i, b := range bars {
		b.Date = TruncateToDate(b.Date)
		out[i] = b
	}
	return out
}
