package dto

import "github.com/guttosm/mktabuse/internal/domain/models"

// ReportResponse represents the JSON structure returned by the
// GET /api/v1/reports endpoint.
//
// Field names follow the CSV report columns so both outputs read the same.
type ReportResponse struct {
	Stock          string                     `json:"stock" example:"AMZN"`
	StartDate      string                     `json:"start_date" example:"2020-02-01"`
	EndDate        string                     `json:"end_date" example:"2020-03-31"`
	RankMethod     string                     `json:"rank_method" example:"average"`
	TotalOrders    int                        `json:"total_orders" example:"120"`
	FlaggedOrders  int                        `json:"flagged_orders" example:"7"`
	TraderRanking  []models.TraderRankingRow  `json:"trader_ranking"`
	CountrySummary []models.CountrySummaryRow `json:"country_summary"`
	Warnings       []string                   `json:"warnings,omitempty"`
}

// NewReportResponse maps a finished report onto the API contract.
func NewReportResponse(r *models.Report, rankMethod string) ReportResponse {
	resp := ReportResponse{
		Stock:          r.Instrument,
		StartDate:      r.StartDate.Format(models.DateLayout),
		EndDate:        r.EndDate.Format(models.DateLayout),
		RankMethod:     rankMethod,
		TotalOrders:    r.TotalOrders,
		FlaggedOrders:  r.FlaggedOrders,
		TraderRanking:  r.Traders,
		CountrySummary: r.Countries,
	}
	if resp.TraderRanking == nil {
		resp.TraderRanking = []models.TraderRankingRow{}
	}
	if resp.CountrySummary == nil {
		resp.CountrySummary = []models.CountrySummaryRow{}
	}
	for _, w := range r.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	return resp
}
