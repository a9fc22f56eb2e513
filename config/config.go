package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DateLayout is the format of start_date and end_date.
const DateLayout = "2006-01-02"

// Config holds the full application configuration.
//
// Sections mirror the configuration file. Every key can be overridden by an
// environment variable named after its path, upper-cased, with "." → "_":
//
//	STOCK_EXTRACT_VALUES_STOCK_NAME=AMZN,MSFT
//	STOCK_EXTRACT_VALUES_START_DATE=2020-02-01
//	OUTPUT_VALUES_OUTPUT_DIR=out/
//	SERVER_PORT=8080
//	POSTGRES_HOST=localhost
//	POSTGRES_DB=mktabuse
type Config struct {
	Stock     StockConfig     `mapstructure:"stock_extract_values"`
	Traders   TradersConfig   `mapstructure:"traders_values"`
	Market    MarketConfig    `mapstructure:"market_data"`
	Output    OutputConfig    `mapstructure:"output_values"`
	Log       LogConfig       `mapstructure:"log_values"`
	Detection DetectionConfig `mapstructure:"detection"`
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

// StockConfig selects the instruments and the inclusive date window.
//
// Fields:
//   - StockName: one symbol or a comma separated list ("AMZN,MSFT").
//   - StartDate, EndDate: YYYY-MM-DD; parsed into Start and End.
type StockConfig struct {
	StockName string    `mapstructure:"stock_name" validate:"required"`
	StartDate string    `mapstructure:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string    `mapstructure:"end_date" validate:"required,datetime=2006-01-02"`
	Start     time.Time `mapstructure:"-"`
	End       time.Time `mapstructure:"-"`
}

// Instruments returns the configured symbols, trimmed and de-duplicated, in file order.
func (s StockConfig) Instruments() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range strings.Split(s.StockName, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// TradersConfig locates the trader order log.
type TradersConfig struct {
	TradersFile string `mapstructure:"traders_file" validate:"required_if=Source csv"`
	Source      string `mapstructure:"source" validate:"oneof=csv postgres"`
}

// MarketConfig configures where daily price bars come from.
//
// Fields:
//   - Provider: "yahoo" (HTTP download) or "csv" (local files).
//   - BaseURL: Yahoo query host.
//   - BarsFile: path of the local history file, {stock} is replaced by the symbol.
//   - RequestsPerSecond, MaxRetries, Timeout: HTTP client pacing and resilience.
type MarketConfig struct {
	Provider          string        `mapstructure:"provider" validate:"oneof=yahoo csv"`
	BaseURL           string        `mapstructure:"base_url" validate:"required_if=Provider yahoo"`
	BarsFile          string        `mapstructure:"bars_file" validate:"required_if=Provider csv"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// OutputConfig says where and how reports are written.
type OutputConfig struct {
	OutputDir string `mapstructure:"output_dir" validate:"required"`
	Format    string `mapstructure:"format" validate:"oneof=csv xlsx"`
}

// LogConfig configures the logger. LogName may contain {current_dt}.
type LogConfig struct {
	LogDir  string `mapstructure:"log_dir"`
	LogName string `mapstructure:"log_name"`
	Level   string `mapstructure:"level"`
	Pretty  bool   `mapstructure:"pretty"`
}

// DetectionConfig tunes the detection pipeline.
type DetectionConfig struct {
	RankMethod       string `mapstructure:"rank_method" validate:"oneof=average min dense"`
	StrictDuplicates bool   `mapstructure:"strict_duplicates"`
	RequireNonEmpty  bool   `mapstructure:"require_non_empty"`
	Parallel         int    `mapstructure:"parallel" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required,numeric"`
}

// PostgresConfig defines connection details for PostgreSQL.
//
// Fields:
//   - Host: hostname of the database server.
//   - Port: port number of the database server (default 5432).
//   - User: username for authentication.
//   - Password: password for authentication.
//   - DBName: target database name.
//   - SSLMode: SSL mode (e.g., "disable", "require").
//   - URL: computed DSN used by database/sql to connect.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	URL      string `mapstructure:"-"`
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and read by the rest of the application.
var AppConfig Config

var defaults = map[string]interface{}{
	"stock_extract_values.stock_name": "",
	"stock_extract_values.start_date": "",
	"stock_extract_values.end_date":   "",

	"traders_values.traders_file": "",
	"traders_values.source":       "csv",

	"market_data.provider":            "yahoo",
	"market_data.base_url":            "https://query1.finance.yahoo.com",
	"market_data.bars_file":           "",
	"market_data.requests_per_second": 2.0,
	"market_data.max_retries":         3,
	"market_data.timeout":             "30s",

	"output_values.output_dir": "output",
	"output_values.format":     "csv",

	"log_values.log_dir":  "",
	"log_values.log_name": "",
	"log_values.level":    "info",
	"log_values.pretty":   false,

	"detection.rank_method":       "average",
	"detection.strict_duplicates": false,
	"detection.require_non_empty": false,
	"detection.parallel":          0,

	"server.port": "8080",

	"postgres.host":     "localhost",
	"postgres.port":     5432,
	"postgres.user":     "postgres",
	"postgres.password": "postgres",
	"postgres.db":       "mktabuse",
	"postgres.sslmode":  "disable",
}

// LoadConfig initializes the global AppConfig.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this package.
//  2. The YAML file at path (skipped when path is empty).
//  3. Values from .env in the working directory (if present).
//  4. Environment variables.
//
// Behavior:
//   - Parses the date window and constructs the PostgreSQL DSN.
//   - Validates every section and reports all problems at once.
func LoadConfig(path string) error {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("config file not found: %s", path)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	loadDotEnv(".env")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	cfg.Postgres.URL = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)

	if err := validateConfig(&cfg); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

// loadDotEnv exports the KEY=VALUE pairs of a dotenv file that are not already set.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	env := viper.New()
	env.SetConfigFile(path)
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		return
	}
	for _, k := range env.AllKeys() {
		name := strings.ToUpper(k)
		if _, set := os.LookupEnv(name); !set {
			_ = os.Setenv(name, env.GetString(k))
		}
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report keys the way they are written in the config file
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateConfig checks every section, parses the date window and returns
// one error listing all problems, sorted by key.
func validateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			key := strings.TrimPrefix(fe.Namespace(), "Config.")
			if fe.Param() != "" {
				problems = append(problems, fmt.Sprintf("%s (%s=%s)", key, fe.Tag(), fe.Param()))
			} else {
				problems = append(problems, fmt.Sprintf("%s (%s)", key, fe.Tag()))
			}
		}
	}

	start, startErr := time.Parse(DateLayout, cfg.Stock.StartDate)
	end, endErr := time.Parse(DateLayout, cfg.Stock.EndDate)
	if startErr == nil && endErr == nil {
		if end.Before(start) {
			problems = append(problems, "stock_extract_values.end_date (before start_date)")
		}
		cfg.Stock.Start, cfg.Stock.End = start, end
	}
	if cfg.Stock.StockName != "" && len(cfg.Stock.Instruments()) == 0 {
		problems = append(problems, "stock_extract_values.stock_name (no symbol)")
	}

	if cfg.Traders.Source == "postgres" {
		if cfg.Postgres.Host == "" {
			problems = append(problems, "postgres.host (required)")
		}
		if cfg.Postgres.Port == 0 {
			problems = append(problems, "postgres.port (required)")
		}
		if cfg.Postgres.User == "" {
			problems = append(problems, "postgres.user (required)")
		}
		if cfg.Postgres.DBName == "" {
			problems = append(problems, "postgres.db (required)")
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}
	return nil
}
