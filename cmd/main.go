package main

//
//  @title           mktabuse API
//  @version         1.0
//  @description     Market abuse detection over trader order logs and daily price bars.
//  @termsOfService  https://github.com/guttosm/mktabuse
//  @contact.name    API Support
//  @contact.url     https://github.com/guttosm/mktabuse
//  @contact.email   support@example.com
//  @license.name    MIT
//  @license.url     https://opensource.org/licenses/MIT
//  @host            localhost:8080
//  @BasePath        /
//  @schemes         http
//
//  @tag.name        reports
//  @tag.description Market abuse reports
//
//  @tag.name        health
//  @tag.description Liveness and readiness checks

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guttosm/mktabuse/config"
	_ "github.com/guttosm/mktabuse/docs" // swagger docs
	"github.com/guttosm/mktabuse/internal/app"
	"github.com/guttosm/mktabuse/internal/logger"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	configPath string
	logLevel   string
	mode       string
	port       string
}

// parseFlags reads the command line. -c/--configuration and -l/--log-level
// are aliases of each other.
func parseFlags(args []string, out io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("mktabuse", flag.ContinueOnError)
	fs.SetOutput(out)

	fs.StringVar(&opts.configPath, "configuration", "config.yaml", "Path to the configuration file")
	fs.StringVar(&opts.configPath, "c", "config.yaml", "Path to the configuration file (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level override: DEBUG, INFO, WARN, ERROR")
	fs.StringVar(&opts.logLevel, "l", "", "Log level override (shorthand)")
	fs.StringVar(&opts.mode, "mode", "detect", "Mode: detect, api or import")
	fs.StringVar(&opts.port, "port", "", "Port for API mode (default: server.port from config)")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	switch opts.mode {
	case "detect", "api", "import":
	default:
		return cliOptions{}, fmt.Errorf("unknown mode %q", opts.mode)
	}
	return opts, nil
}

// startServer initializes and starts the HTTP server in a separate goroutine.
//
// Parameters:
//   - router (http.Handler): The HTTP router (Gin Engine) configured with all routes.
//   - port (string): The port where the server will listen for incoming requests.
//
// Returns:
//   - *http.Server: The initialized HTTP server instance.
func startServer(router http.Handler, port string) *http.Server {
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.L().Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Msg("server failed to start")
		}
	}()

	return server
}

// gracefulShutdown gracefully terminates the HTTP server and cleans up resources
// when an OS interrupt signal (SIGINT, SIGTERM) is received.
//
// Parameters:
//   - ctx (context.Context): A context with timeout for graceful shutdown.
//   - server (*http.Server): The HTTP server instance to shut down.
//   - cleanup (func()): Cleanup callback to release resources (e.g., DB connections).
func gracefulShutdown(ctx context.Context, server *http.Server, cleanup func()) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	<-quit
	logger.L().Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.L().Error().Err(err).Msg("server forced to shutdown")
	}

	cleanup()
	logger.L().Info().Msg("server exited gracefully")
}

// run executes one mode against the loaded configuration.
func run(ctx context.Context, opts cliOptions) error {
	switch opts.mode {
	case "detect":
		logger.L().Info().
			Strs("instruments", config.AppConfig.Stock.Instruments()).
			Str("start_date", config.AppConfig.Stock.StartDate).
			Str("end_date", config.AppConfig.Stock.EndDate).
			Msg("running detection")
		reports, err := app.RunDetection(ctx)
		if err != nil {
			return fmt.Errorf("detection failed: %w", err)
		}
		for _, r := range reports {
			logger.L().Info().
				Str("instrument", r.Instrument).
				Int("flagged", r.FlaggedOrders).
				Int("traders", len(r.Traders)).
				Int("countries", len(r.Countries)).
				Msg("report written")
		}
		logger.L().Info().Str("output_dir", config.AppConfig.Output.OutputDir).Msg("detection completed successfully")

	case "import":
		logger.L().Info().Str("traders_file", config.AppConfig.Traders.TradersFile).Msg("importing orders")
		n, err := app.ImportOrders(ctx)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		logger.L().Info().Int("orders", n).Msg("import completed successfully")

	case "api":
		logger.L().Info().Msg("starting API server")
		router, cleanup, err := app.InitializeApp()
		if err != nil {
			return fmt.Errorf("app init error: %w", err)
		}
		port := opts.port
		if port == "" {
			port = config.AppConfig.Server.Port
		}
		server := startServer(router, port)
		gracefulShutdown(ctx, server, cleanup)
	}
	return nil
}

// main is the entry point of the mktabuse application.
//
// Modes (selected via --mode flag):
//   - detect: Analyses every configured stock and writes the reports (default).
//   - api:    Starts the REST API serving reports on demand.
//   - import: Loads the CSV order log into PostgreSQL.
//
// Flags:
//   - --configuration, -c: Configuration file. Default: "config.yaml".
//   - --log-level, -l:     Overrides log_values.level.
//   - --mode:              Execution mode. Default: "detect".
//   - --port:              Port for the API server. Defaults to server.port.
func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.L().Fatal().Err(err).Msg("invalid arguments")
	}

	if err := config.LoadConfig(opts.configPath); err != nil {
		logger.L().Fatal().Err(err).Msg("config error")
	}

	logCfg := config.AppConfig.Log
	if opts.logLevel != "" {
		logCfg.Level = opts.logLevel
	}
	if err := logger.Setup(logger.Options{
		Level:  logCfg.Level,
		Pretty: logCfg.Pretty,
		Dir:    logCfg.LogDir,
		Name:   logCfg.LogName,
	}); err != nil {
		logger.L().Fatal().Err(err).Msg("logger setup error")
	}

	if err := run(context.Background(), opts); err != nil {
		logger.L().Error().Err(err).Msg("run failed")
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}
