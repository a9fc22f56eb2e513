package ingestion

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Column names of the trader order log. Columns are located by header name,
// so their order does not matter and extra columns are ignored.
const (
	colTraderID      = "traderId"
	colStockSymbol   = "stockSymbol"
	colTradeDatetime = "tradeDatetime"
	colPrice         = "price"
	colVolume        = "volume"
	colCountryCode   = "countryCode"
	colFirstName     = "firstName"
	colLastName      = "lastName"
)

var requiredHeaders = []string{
	colTraderID,
	colStockSymbol,
	colTradeDatetime,
	colPrice,
	colVolume,
	colCountryCode,
	colFirstName,
	colLastName,
}

// parseOrdersFile opens and parses one order log file.
func parseOrdersFile(ctx context.Context, path string) ([]models.Order, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parseOrders(ctx, f)
}

// parseOrders reads a comma separated order log.
// It fails on:
//   - a missing required column
//   - a record with the wrong number of fields
//
// Timestamps are kept raw and an unparsable price or volume is attached to
// its order; both are checked by the normalizer for the instrument under
// analysis only.
func parseOrders(ctx context.Context, r io.Reader) ([]models.Order, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	var out []models.Order
	row := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row after %d: %w", row, err)
		}
		row++

		out = append(out, recordToOrder(rec, idx, row))
	}
	return out, nil
}

func indexHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, name := range requiredHeaders {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

// recordToOrder maps one CSV record onto models.Order. row is the 1-based data row.
// A price or volume that does not parse is recorded in Order.Invalid.
func recordToOrder(rec []string, idx map[string]int, row int) models.Order {
	field := func(name string) string { return strings.TrimSpace(rec[idx[name]]) }

	o := models.Order{
		TraderID:      field(colTraderID),
		CountryCode:   field(colCountryCode),
		FirstName:     field(colFirstName),
		LastName:      field(colLastName),
		Instrument:    field(colStockSymbol),
		TradeDatetime: field(colTradeDatetime),
	}

	rawPrice := field(colPrice)
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		o.Invalid = abuse.NewInputValidationError(row, colPrice, rawPrice, err)
		return o
	}
	o.Price = price

	rawVolume := field(colVolume)
	volume, err := parseVolume(rawVolume)
	if err != nil {
		o.Invalid = abuse.NewInputValidationError(row, colVolume, rawVolume, err)
		return o
	}
	o.Volume = volume

	return o
}

// parseVolume accepts integers and integral decimals ("10", "10.0").
func parseVolume(s string) (int64, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, errors.New("volume must be a whole number")
	}
	return d.IntPart(), nil
}
