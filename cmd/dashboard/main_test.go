package main

import (
	"testing"

	"tokodash/internal/config"
)

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("TOKODASH_ADDR", "0.0.0.0:9000")
	t.Setenv("TOKODASH_DSN", "sqlite://shop.db")

	cfg, err := loadConfig("", "127.0.0.1:8600", "../../testdata/shop", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8600" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Data.Source != config.SourceCSV || cfg.Data.Dir != "../../testdata/shop" {
		t.Fatalf("data = %+v", cfg.Data)
	}
}

func TestLoadConfig_EnvOnly(t *testing.T) {
	t.Setenv("TOKODASH_DSN", "sqlite://shop.db")
	cfg, err := loadConfig("", "", "", "")
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:8501" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Data.Source != config.SourceSQL {
		t.Fatalf("source = %q", cfg.Data.Source)
	}
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("TOKODASH_RFM_WINDOW_DAYS", "-3")
	if _, err := loadConfig("", "", "", ""); err == nil {
		t.Fatal("expected validation error for negative window")
	}
}
