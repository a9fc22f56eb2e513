package abuse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// RankMethod selects how tied num_of_orders values are ranked.
type RankMethod string

const (
	// RankAverage gives a tie group the mean of the positions it spans,
	// truncated to an integer: 1,1,3 for two leaders, 2,2,2,4 for three.
	RankAverage RankMethod = "average"
	// RankMin is standard competition ranking: 1,1,3.
	RankMin RankMethod = "min"
	// RankDense leaves no gaps after ties: 1,1,2.
	RankDense RankMethod = "dense"
)

// ParseRankMethod maps a config value to a RankMethod. Empty means RankAverage.
func ParseRankMethod(s string) (RankMethod, error) {
	switch m := RankMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return RankAverage, nil
	case RankAverage, RankMin, RankDense:
		return m, nil
	default:
		return "", fmt.Errorf("unknown rank method %q (want average, min or dense)", s)
	}
}

// RankByOrders sums the flagged volume per trader and ranks traders by it, highest first.
//
// Behavior:
//   - Country and names come from the trader's first row in input order.
//   - Rows are sorted by num_of_orders descending; equal totals are ordered by trader id.
//   - Equal totals always share a rank; method decides the rank numbers.
func RankByOrders(flagged []models.FlaggedOrder, method RankMethod) []models.TraderRankingRow {
	index := make(map[string]int)
	rows := make([]models.TraderRankingRow, 0)

	for _, f := range flagged {
		i, ok := index[f.TraderID]
		if !ok {
			i = len(rows)
			index[f.TraderID] = i
			rows = append(rows, models.TraderRankingRow{
				TraderID:    f.TraderID,
				CountryCode: f.CountryCode,
				FirstName:   f.FirstName,
				LastName:    f.LastName,
			})
		}
		rows[i].NumOfOrders += f.Volume
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NumOfOrders != rows[j].NumOfOrders {
			return rows[i].NumOfOrders > rows[j].NumOfOrders
		}
		return rows[i].TraderID < rows[j].TraderID
	})

	assignRanks(rows, method)
	return rows
}

// assignRanks expects rows sorted by NumOfOrders descending.
func assignRanks(rows []models.TraderRankingRow, method RankMethod) {
	dense := int64(0)
	for start := 0; start < len(rows); {
		end := start
		for end+1 < len(rows) && rows[end+1].NumOfOrders == rows[start].NumOfOrders {
			end++
		}
		dense++

		// 1-based positions of the tie group
		first, last := int64(start+1), int64(end+1)
		var rank int64
		switch method {
		case RankMin:
			rank = first
		case RankDense:
			rank = dense
		default:
			rank = (first + last) / 2
		}
		for i := start; i <= end; i++ {
			rows[i].RankByOrders = rank
		}
		start = end + 1
	}
}

// FindCountByCountry groups flagged orders by country code.
//
// num_traders is the number of flagged rows for the country (not distinct traders)
// and num_orders the summed volume. Rows are sorted by num_orders descending,
// then by country code. Each country code appears once.
func FindCountByCountry(flagged []models.FlaggedOrder) []models.CountrySummaryRow {
	index := make(map[string]int)
	rows := make([]models.CountrySummaryRow, 0)

	for _, f := range flagged {
		i, ok := index[f.CountryCode]
		if !ok {
			i = len(rows)
			index[f.CountryCode] = i
			rows = append(rows, models.CountrySummaryRow{CountryCode: f.CountryCode})
		}
		rows[i].NumTraders++
		rows[i].NumOrders += f.Volume
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].NumOrders != rows[j].NumOrders {
			return rows[i].NumOrders > rows[j].NumOrders
		}
		return rows[i].CountryCode < rows[j].CountryCode
	})
	return rows
}
