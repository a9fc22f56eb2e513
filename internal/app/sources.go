package app

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/guttosm/mktabuse/config"
	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/ingestion"
	"github.com/guttosm/mktabuse/internal/logger"
	"github.com/guttosm/mktabuse/internal/marketdata"
	"github.com/guttosm/mktabuse/internal/storage"
)

// retryBackoff is the base delay of the market data retry schedule.
const retryBackoff = 500 * time.Millisecond

// sources bundles the collaborators of a pipeline with their readiness
// checks and the resources to release on shutdown.
type sources struct {
	orders abuse.OrderSource
	bars   abuse.BarSource
	checks map[string]func() error
	db     *sql.DB
}

func (s *sources) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openSources builds the order and bar sources selected by cfg. instruments
// narrows the Postgres query; nil reads every order.
func openSources(cfg config.Config, instruments []string) (*sources, error) {
	s := &sources{checks: map[string]func() error{}}

	switch cfg.Traders.Source {
	case "", "csv":
		pattern := cfg.Traders.TradersFile
		s.orders = ingestion.NewCSVOrderSource(pattern, cfg.Detection.Parallel)
		s.checks["traders_file"] = func() error { return globExists(pattern) }
	case "postgres":
		db, err := postgresOpener(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		s.db = db
		s.orders = &storage.OrderSource{Repo: storage.NewOrdersRepository(db), Instruments: instruments}
		s.checks["postgres"] = db.Ping
	default:
		return nil, fmt.Errorf("unsupported traders source %q", cfg.Traders.Source)
	}

	bars, err := newBarSource(cfg.Market)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.bars = bars
	return s, nil
}

func newBarSource(cfg config.MarketConfig) (abuse.BarSource, error) {
	switch cfg.Provider {
	case "", "yahoo":
		opts := []marketdata.YahooOption{
			marketdata.WithLogger(logger.L().With().Str("component", "marketdata").Logger()),
		}
		if cfg.Timeout > 0 {
			opts = append(opts, marketdata.WithTimeout(cfg.Timeout))
		}
		if cfg.RequestsPerSecond > 0 {
			opts = append(opts, marketdata.WithRateLimit(cfg.RequestsPerSecond))
		}
		if cfg.MaxRetries >= 0 {
			opts = append(opts, marketdata.WithRetries(uint64(cfg.MaxRetries), retryBackoff))
		}
		return marketdata.NewYahooClient(cfg.BaseURL, opts...), nil
	case "csv":
		return marketdata.NewFileBarSource(cfg.BarsFile), nil
	default:
		return nil, fmt.Errorf("unsupported market data provider %q", cfg.Provider)
	}
}

// pipelineOptions maps the detection section onto abuse.Options.
func pipelineOptions(cfg config.DetectionConfig) (abuse.Options, error) {
	method := abuse.RankAverage
	if cfg.RankMethod != "" {
		m, err := abuse.ParseRankMethod(cfg.RankMethod)
		if err != nil {
			return abuse.Options{}, err
		}
		method = m
	}
	return abuse.Options{
		RankMethod:       method,
		StrictDuplicates: cfg.StrictDuplicates,
		RequireNonEmpty:  cfg.RequireNonEmpty,
		Parallel:         cfg.Parallel,
		Sessions:         marketdata.Sessions,
	}, nil
}

// BuildPipeline assembles a detection pipeline from cfg writing to sink.
// The returned cleanup releases the database connection, if any.
func BuildPipeline(cfg config.Config, sink abuse.ReportSink) (*abuse.Pipeline, func(), error) {
	opts, err := pipelineOptions(cfg.Detection)
	if err != nil {
		return nil, nil, err
	}
	src, err := openSources(cfg, cfg.Stock.Instruments())
	if err != nil {
		return nil, nil, err
	}
	log := logger.L().With().Str("component", "pipeline").Logger()
	return abuse.NewPipeline(src.orders, src.bars, sink, opts, log), src.Close, nil
}

func globExists(pattern string) error {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("missing traders file: %s", pattern)
	}
	return nil
}
