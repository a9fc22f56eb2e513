package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/mktabuse/config"
	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/api"
	"github.com/guttosm/mktabuse/internal/domain/models"
	"github.com/guttosm/mktabuse/internal/ingestion"
	"github.com/guttosm/mktabuse/internal/logger"
	"github.com/guttosm/mktabuse/internal/report"
	"github.com/guttosm/mktabuse/internal/service"
	"github.com/guttosm/mktabuse/internal/storage"
)

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Responsibilities:
//   - Opens the configured order log (CSV files or PostgreSQL) and bar source.
//   - Builds the detection pipeline without a report sink; reports are returned as JSON.
//   - Creates the service and HTTP handler layers.
//   - Registers health and readiness checks for the order log.
//
// Returns:
//   - *gin.Engine: the configured Gin HTTP router.
//   - func(): cleanup function to be executed on shutdown.
//   - error: any initialization error that occurred.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	opts, err := pipelineOptions(cfg.Detection)
	if err != nil {
		return nil, nil, err
	}

	// API requests may name any symbol, so the order log is not narrowed
	src, err := openSources(cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	pipeline := abuse.NewPipeline(src.orders, src.bars, nil, opts,
		logger.L().With().Str("component", "pipeline").Logger())

	svc := service.NewReportService(pipeline, cfg.Stock.Start, cfg.Stock.End, opts.RankMethod)
	handler := api.NewHandler(svc, opts.RankMethod)
	router := api.NewRouter(handler)

	api.NewHealthHandler(src.checks).Register(router)

	return router, src.Close, nil
}

// RunDetection analyses every configured instrument and writes the reports
// in the configured format. With more than one instrument each report goes
// to its own sub-directory of output_dir.
func RunDetection(ctx context.Context) ([]*models.Report, error) {
	cfg := config.AppConfig
	instruments := cfg.Stock.Instruments()
	if len(instruments) == 0 {
		return nil, errors.New("no instrument configured")
	}

	sink, err := report.New(cfg.Output.Format, cfg.Output.OutputDir, len(instruments) > 1)
	if err != nil {
		return nil, err
	}

	pipeline, cleanup, err := BuildPipeline(cfg, sink)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	return pipeline.RunAll(ctx, instruments, cfg.Stock.Start, cfg.Stock.End)
}

// ImportOrders loads the CSV order log named by traders_file into PostgreSQL.
// Orders already stored for a symbol present in the file are replaced.
// It returns the number of orders written.
func ImportOrders(ctx context.Context) (int, error) {
	cfg := config.AppConfig
	if cfg.Traders.TradersFile == "" {
		return 0, errors.New("traders_values.traders_file is required for import")
	}

	orders, err := ingestion.NewCSVOrderSource(cfg.Traders.TradersFile, cfg.Detection.Parallel).LoadOrders(ctx)
	if err != nil {
		return 0, err
	}
	for _, o := range orders {
		if o.Invalid != nil {
			return 0, fmt.Errorf("%s: %w", o.Instrument, o.Invalid)
		}
	}

	db, err := postgresOpener(cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer func() { _ = db.Close() }()

	repo := storage.NewOrdersRepository(db)

	seen := map[string]struct{}{}
	for _, o := range orders {
		if _, ok := seen[o.Instrument]; ok {
			continue
		}
		seen[o.Instrument] = struct{}{}
		n, err := repo.DeleteOrdersByInstrument(ctx, o.Instrument)
		if err != nil {
			return 0, fmt.Errorf("delete orders of %s: %w", o.Instrument, err)
		}
		if n > 0 {
			logger.L().Info().Str("instrument", o.Instrument).Int64("deleted", n).Msg("replacing stored orders")
		}
	}

	if len(orders) == 0 {
		return 0, nil
	}
	if err := repo.InsertOrders(ctx, orders); err != nil {
		return 0, fmt.Errorf("insert orders: %w", err)
	}
	logger.L().Info().Int("orders", len(orders)).Int("instruments", len(seen)).Msg("orders imported")
	return len(orders), nil
}
