package abuse

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

func order(trader, country, instrument, ts, price string, volume int64) models.Order {
	return models.Order{
		TraderID:      trader,
		CountryCode:   country,
		FirstName:     "F" + trader,
		LastName:      "L" + trader,
		Instrument:    instrument,
		TradeDatetime: ts,
		Price:         decimal.RequireFromString(price),
		Volume:        volume,
	}
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func bar(date, low, high string) models.PriceBar {
	return models.PriceBar{
		Date: day(date),
		Low:  decimal.RequireFromString(low),
		High: decimal.RequireFromString(high),
	}
}

func flagged(trader, country string, volume int64) models.FlaggedOrder {
	return models.FlaggedOrder{
		NormalizedOrder: models.NormalizedOrder{Order: order(trader, country, "AMZN", "2020-02-03 10:00:00", "1", volume)},
		IsAbusive:       true,
	}
}
