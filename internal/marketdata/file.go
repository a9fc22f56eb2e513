package marketdata

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// StockPlaceholder is replaced by the instrument symbol in bar file paths.
const StockPlaceholder = "{stock}"

// FileBarSource reads daily bars from local CSV files in the Yahoo download format.
// Path may contain {stock}, e.g. "data/{stock}.csv".
type FileBarSource struct {
	Path string
}

// NewFileBarSource builds a FileBarSource.
func NewFileBarSource(path string) *FileBarSource {
	return &FileBarSource{Path: path}
}

// FetchBars implements abuse.BarSource.
func (s *FileBarSource) FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.ReplaceAll(s.Path, StockPlaceholder, instrument)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer func() { _ = f.Close() }()

	bars, err := ParseBars(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inWindow(bars, start, end), nil
}
