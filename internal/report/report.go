package report

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Output file base names and column orders.
const (
	TraderRankingName  = "rank_num_orders_df"
	CountrySummaryName = "country_suspicion_tendency"
)

var (
	TraderRankingHeader  = []string{"traderId", "countryCode", "firstName", "lastName", "num_of_orders", "rank_by_orders"}
	CountrySummaryHeader = []string{"countryCode", "num_traders", "num_orders"}
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// New returns the sink for format writing under dir. With perInstrument set,
// each report goes to dir/<INSTRUMENT>/.
func New(format, dir string, perInstrument bool) (abuse.ReportSink, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return &CSVSink{Dir: dir, PerInstrument: perInstrument}, nil
	case FormatXLSX:
		return &XLSXSink{Dir: dir, PerInstrument: perInstrument}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

func outputDir(dir string, perInstrument bool, r *models.Report) string {
	if perInstrument {
		return filepath.Join(dir, r.Instrument)
	}
	return dir
}

func traderRecords(rows []models.TraderRankingRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.TraderID,
			r.CountryCode,
			r.FirstName,
			r.LastName,
			strconv.FormatInt(r.NumOfOrders, 10),
			strconv.FormatInt(r.RankByOrders, 10),
		})
	}
	return out
}

func countryRecords(rows []models.CountrySummaryRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.CountryCode,
			strconv.FormatInt(r.NumTraders, 10),
			strconv.FormatInt(r.NumOrders, 10),
		})
	}
	return out
}
