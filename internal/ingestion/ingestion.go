package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/mktabuse/internal/domain/models"
	"github.com/guttosm/mktabuse/internal/logger"
)

// CSVOrderSource loads the trader order log from one or more CSV files.
//
// Pattern is a file path or a glob ("data/traders_*.csv"). Matching files are
// parsed concurrently and concatenated in lexical file order, so the result
// is the same on every run.
type CSVOrderSource struct {
	Pattern  string
	Parallel int
}

// NewCSVOrderSource builds a CSVOrderSource. parallel <= 0 means min(4, NumCPU).
func NewCSVOrderSource(pattern string, parallel int) *CSVOrderSource {
	return &CSVOrderSource{Pattern: pattern, Parallel: parallel}
}

// LoadOrders implements abuse.OrderSource.
//
// Behavior:
//   - Fails when the pattern matches no file.
//   - If any file fails, cancels the rest and returns that error prefixed with the file name.
func (s *CSVOrderSource) LoadOrders(ctx context.Context) ([]models.Order, error) {
	files, err := filepath.Glob(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("bad traders file pattern %q: %w", s.Pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("missing traders file: %s", s.Pattern)
	}
	sort.Strings(files)

	maxParallel := 4
	if s.Parallel > 0 {
		maxParallel = s.Parallel
	} else if c := runtime.NumCPU(); c < maxParallel {
		maxParallel = c
	}

	logger.L().Info().Int("files", len(files)).Int("max_parallel", maxParallel).Str("pattern", s.Pattern).Msg("order log load start")

	parts := make([][]models.Order, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, f := range files {
		g.Go(func() error {
			start := time.Now()
			base := filepath.Base(f)

			orders, err := parseOrdersFile(gctx, f)
			if err != nil {
				logger.L().Error().Str("file", base).Dur("elapsed", time.Since(start)).Err(err).Msg("file failed")
				return fmt.Errorf("file %s: %w", base, err)
			}
			parts[i] = orders
			logger.L().Debug().Str("file", base).Int("rows", len(orders)).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]models.Order, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}

	logger.L().Info().Int("files", len(files)).Int("rows", total).Msg("order log loaded")
	return out, nil
}
