package models

import "time"

// TraderRankingRow is one line of the per-trader report.
// Field order matches the output column order.
type TraderRankingRow struct {
	TraderID     string `json:"traderId" example:"T1"`
	CountryCode  string `json:"countryCode" example:"US"`
	FirstName    string `json:"firstName" example:"Ada"`
	LastName     string `json:"lastName" example:"Lovelace"`
	NumOfOrders  int64  `json:"num_of_orders" example:"120"`
	RankByOrders int64  `json:"rank_by_orders" example:"1"`
}

// CountrySummaryRow is one line of the per-country report.
//
// NumTraders counts flagged order rows for the country, not distinct traders.
type CountrySummaryRow struct {
	CountryCode string `json:"countryCode" example:"US"`
	NumTraders  int64  `json:"num_traders" example:"4"`
	NumOrders   int64  `json:"num_orders" example:"300"`
}

// Report is the outcome of one pipeline run for a single instrument.
type Report struct {
	Instrument    string
	StartDate     time.Time
	EndDate       time.Time
	TotalOrders   int
	FlaggedOrders int
	Traders       []TraderRankingRow
	Countries     []CountrySummaryRow
	Warnings      []error
}
