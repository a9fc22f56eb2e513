package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// CSVSink writes both reports as CSV files. Both files are staged under a
// temporary name and only renamed once both are complete, so a failed write
// never leaves a half written or mismatched pair behind.
type CSVSink struct {
	Dir           string
	PerInstrument bool
}

// WriteReport implements abuse.ReportSink.
func (s *CSVSink) WriteReport(ctx context.Context, r *models.Report) error {
	dir := outputDir(s.Dir, s.PerInstrument, r)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := []struct {
		path    string
		header  []string
		records [][]string
	}{
		{filepath.Join(dir, TraderRankingName+".csv"), TraderRankingHeader, traderRecords(r.Traders)},
		{filepath.Join(dir, CountrySummaryName+".csv"), CountrySummaryHeader, countryRecords(r.Countries)},
	}

	staged := make([]string, 0, len(files))
	discard := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}
	for _, f := range files {
		tmp, err := stageCSV(ctx, f.path, f.header, f.records)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			staged = staged[i:]
			discard()
			return fmt.Errorf("rename %s: %w", f.path, err)
		}
	}
	return nil
}

// stageCSV writes a complete CSV file next to path and returns its temporary name.
func stageCSV(ctx context.Context, path string, header []string, records [][]string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		cleanup()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(records); err != nil {
		cleanup()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return tmp.Name(), nil
}
