package marketdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Daily history columns, as served by the Yahoo download endpoint.
const (
	colDate   = "Date"
	colOpen   = "Open"
	colHigh   = "High"
	colLow    = "Low"
	colClose  = "Close"
	colVolume = "Volume"
)

var requiredBarHeaders = []string{colDate, colOpen, colHigh, colLow, colClose, colVolume}

// ParseBars reads a daily history CSV (Date,Open,High,Low,Close,Adj Close,Volume).
//
// Rows carrying "null" values (non-trading placeholders) are skipped.
// A bar with High < Low, or an unparsable value, is an InputValidationError.
// Bars are returned in file order; duplicates are left for the detector to report.
func ParseBars(r io.Reader) ([]models.PriceBar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read bars header: empty payload")
		}
		return nil, fmt.Errorf("read bars header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	var missing []string
	for _, name := range requiredBarHeaders {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing bar columns: %s", strings.Join(missing, ", "))
	}

	var out []models.PriceBar
	row := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read bar row after %d: %w", row, err)
		}
		row++

		if hasNull(rec) {
			continue
		}
		b, err := recordToBar(rec, idx, row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func hasNull(rec []string) bool {
	for _, v := range rec {
		if strings.EqualFold(strings.TrimSpace(v), "null") {
			return true
		}
	}
	return false
}

func recordToBar(rec []string, idx map[string]int, row int) (models.PriceBar, error) {
	var b models.PriceBar
	field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }

	rawDate := field(colDate)
	// providers may stamp bars with a time of day; the detector joins on the date
	d, err := abuse.ParseTimestamp(rawDate)
	if err != nil {
		return b, abuse.NewInputValidationError(row, colDate, rawDate, err)
	}
	b.Date = d

	prices := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{colOpen, &b.Open},
		{colHigh, &b.High},
		{colLow, &b.Low},
		{colClose, &b.Close},
	}
	for _, p := range prices {
		raw := field(p.name)
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return b, abuse.NewInputValidationError(row, p.name, raw, err)
		}
		*p.dst = v
	}

	rawVolume := field(colVolume)
	if v, err := strconv.ParseInt(rawVolume, 10, 64); err == nil {
		b.Volume = v
	} else if dv, derr := decimal.NewFromString(rawVolume); derr == nil {
		b.Volume = dv.IntPart()
	} else {
		return b, abuse.NewInputValidationError(row, colVolume, rawVolume, err)
	}

	if b.High.LessThan(b.Low) {
		return b, abuse.NewInputValidationError(row, colHigh, b.High.String(), fmt.Errorf("high below low %s", b.Low))
	}
	return b, nil
}

// inWindow keeps the bars whose date falls in [start, end], compared as calendar dates.
func inWindow(bars []models.PriceBar, start, end time.Time) []models.PriceBar {
	lo := abuse.TruncateToDate(start)
	hi := abuse.TruncateToDate(end)
	out := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		d := abuse.TruncateToDate(b.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, b)
	}
	return out
}
