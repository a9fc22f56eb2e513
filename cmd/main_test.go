package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/guttosm/mktabuse/config"
)

type dummyHandler struct{}

func (d dummyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    cliOptions
		wantErr bool
	}{
		{name: "defaults", args: nil, want: cliOptions{configPath: "config.yaml", mode: "detect"}},
		{name: "long names", args: []string{"--configuration", "cfg/prod.yaml", "--log-level", "DEBUG", "--mode", "api", "--port", "9090"},
			want: cliOptions{configPath: "cfg/prod.yaml", logLevel: "DEBUG", mode: "api", port: "9090"}},
		{name: "shorthands", args: []string{"-c", "x.yaml", "-l", "WARN"}, want: cliOptions{configPath: "x.yaml", logLevel: "WARN", mode: "detect"}},
		{name: "import mode", args: []string{"--mode=import"}, want: cliOptions{configPath: "config.yaml", mode: "import"}},
		{name: "unknown mode", args: []string{"--mode", "ingest"}, wantErr: true},
		{name: "unknown flag", args: []string{"--days", "7"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tt.args)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestRun_DetectPropagatesErrors(t *testing.T) {
	old := config.AppConfig
	t.Cleanup(func() { config.AppConfig = old })
	config.AppConfig = config.Config{
		Stock:   config.StockConfig{StockName: "AMZN"},
		Traders: config.TradersConfig{Source: "csv", TradersFile: filepath.Join(t.TempDir(), "none.csv")},
		Market:  config.MarketConfig{Provider: "csv", BarsFile: filepath.Join(t.TempDir(), "none.csv")},
		Output:  config.OutputConfig{OutputDir: t.TempDir(), Format: "csv"},
	}

	if err := run(context.Background(), cliOptions{mode: "detect"}); err == nil {
		t.Fatalf("expected detection error for a missing traders file")
	}
}

func TestStartServerAndShutdown(t *testing.T) {
	srv := startServer(dummyHandler{}, "0") // random port
	if srv == nil {
		t.Fatalf("expected server")
	}

	time.Sleep(50 * time.Millisecond)

	shutdownCtx, c := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer c()
	if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		t.Fatalf("shutdown err: %v", err)
	}
}

func TestGracefulShutdown_SignalPath(t *testing.T) {
	srv := startServer(dummyHandler{}, "0")

	cleaned := make(chan struct{}, 1)
	go func() {
		gracefulShutdown(context.Background(), srv, func() { close(cleaned) })
	}()

	// Give the goroutine time to set up signal notifications
	time.Sleep(50 * time.Millisecond)

	p, _ := os.FindProcess(os.Getpid())
	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatalf("cleanup not called after SIGTERM")
	}
}
