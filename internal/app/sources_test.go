package app

import (
	"testing"
	"time"

	"github.com/guttosm/mktabuse/config"
	"github.com/guttosm/mktabuse/internal/abuse"
	"github.com/guttosm/mktabuse/internal/marketdata"
)

func TestNewBarSource(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MarketConfig
		check   func(abuse.BarSource) bool
		wantErr bool
	}{
		{
			name: "yahoo",
			cfg:  config.MarketConfig{Provider: "yahoo", BaseURL: "http://localhost", RequestsPerSecond: 2, MaxRetries: 3, Timeout: time.Second},
			check: func(s abuse.BarSource) bool {
				_, ok := s.(*marketdata.YahooClient)
				return ok
			},
		},
		{
			name: "csv",
			cfg:  config.MarketConfig{Provider: "csv", BarsFile: "data/{stock}.csv"},
			check: func(s abuse.BarSource) bool {
				f, ok := s.(*marketdata.FileBarSource)
				return ok && f.Path == "data/{stock}.csv"
			},
		},
		{name: "unknown", cfg: config.MarketConfig{Provider: "bloomberg"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := newBarSource(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newBarSource: %v", err)
			}
			if !tt.check(src) {
				t.Fatalf("unexpected source %T", src)
			}
		})
	}
}

func TestPipelineOptions(t *testing.T) {
	opts, err := pipelineOptions(config.DetectionConfig{RankMethod: "dense", StrictDuplicates: true, RequireNonEmpty: true, Parallel: 2})
	if err != nil {
		t.Fatalf("pipelineOptions: %v", err)
	}
	if opts.RankMethod != abuse.RankDense || !opts.StrictDuplicates || !opts.RequireNonEmpty || opts.Parallel != 2 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.Sessions == nil {
		t.Fatalf("expected trading calendar to be wired")
	}

	opts, err = pipelineOptions(config.DetectionConfig{})
	if err != nil || opts.RankMethod != abuse.RankAverage {
		t.Fatalf("default rank method = %q, err=%v", opts.RankMethod, err)
	}

	if _, err := pipelineOptions(config.DetectionConfig{RankMethod: "max"}); err == nil {
		t.Fatalf("expected error for unknown rank method")
	}
}

func TestOpenSources_UnknownTraderSource(t *testing.T) {
	cfg := config.Config{Traders: config.TradersConfig{Source: "s3"}}
	if _, err := openSources(cfg, nil); err == nil {
		t.Fatalf("expected error for unknown traders source")
	}
}
