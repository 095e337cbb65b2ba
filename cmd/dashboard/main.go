package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tokodash/internal/config"
	"tokodash/internal/dashboard"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-config tokodash.yaml] [-data <csv-dir> | -dsn <database>]\n", os.Args[0])
		flag.PrintDefaults()
	}
	configPath := flag.String("config", "", "Optional YAML config file")
	addr := flag.String("addr", "", "HTTP listen address (overrides config, default 127.0.0.1:8501)")
	dataDir := flag.String("data", "", "Directory holding the CSV files (overrides config)")
	dsn := flag.String("dsn", "", "Read from a SQL database instead of CSV files (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *addr, *dataDir, *dsn)
	if err != nil {
		fatalf("config: %v", err)
	}
	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := dashboard.New(ctx, dashboard.Options{
		Source:    cfg.Source(),
		Window:    cfg.Window(),
		TopN:      cfg.RFM.TopN,
		CacheSize: cfg.RFM.CacheSize,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("dataset load failed", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	go func() {
		logger.Info("dashboard listening", "addr", "http://"+cfg.Server.Addr, "rfm_window_days", cfg.RFM.WindowDays)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// loadConfig layers the config file, .env, TOKODASH_* variables and flags.
func loadConfig(path, addr, dataDir, dsn string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.Data.Source = config.SourceCSV
		cfg.Data.Dir = dataDir
	}
	if dsn != "" {
		cfg.Data.Source = config.SourceSQL
		cfg.Data.DSN = dsn
	}
	return cfg, cfg.Validate()
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
