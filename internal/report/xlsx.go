package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// Workbook sheet names.
const (
	TraderRankingSheet  = "traders"
	CountrySummarySheet = "countries"
)

// WorkbookName is the file written by XLSXSink.
const WorkbookName = "market_abuse_report.xlsx"

// XLSXSink writes both reports into one workbook, one sheet each.
// Count columns are stored as numbers.
type XLSXSink struct {
	Dir           string
	PerInstrument bool
}

// WriteReport implements abuse.ReportSink.
func (s *XLSXSink) WriteReport(ctx context.Context, r *models.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := outputDir(s.Dir, s.PerInstrument, r)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), TraderRankingSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(CountrySummarySheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	if err := writeSheet(f, TraderRankingSheet, TraderRankingHeader, traderRecords(r.Traders), 4); err != nil {
		return err
	}
	if err := writeSheet(f, CountrySummarySheet, CountrySummaryHeader, countryRecords(r.Countries), 1); err != nil {
		return err
	}

	path := filepath.Join(dir, WorkbookName)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// writeSheet writes header + records; columns from firstNumeric on are written as integers.
func writeSheet(f *excelize.File, sheet string, header []string, records [][]string, firstNumeric int) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, rec := range records {
		values := make([]interface{}, len(rec))
		for j, v := range rec {
			values[j] = v
			if j >= firstNumeric {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					values[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
