package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokodash/internal/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8501", cfg.Server.Addr)
	assert.Equal(t, 90*24*time.Hour, cfg.Window())
	assert.Equal(t, dataset.CSVSource{Dir: "data", Files: dataset.DefaultFiles()}, cfg.Source())
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeFile(t, "tokodash.yaml", `
server:
  addr: ":9000"
  shutdown_timeout: 2s
data:
  source: sql
  dsn: sqlite://shop.db
rfm:
  window_days: 30
log:
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 2*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 30, cfg.RFM.WindowDays)
	assert.Equal(t, 5, cfg.RFM.TopN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, dataset.SQLSource{DSN: "sqlite://shop.db"}, cfg.Source())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	_, err = Load(writeFile(t, "bad.yaml", "server: [unterminated"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TOKODASH_ADDR", "0.0.0.0:8080")
	t.Setenv("TOKODASH_DSN", "postgres://u:p@db/shop")
	t.Setenv("TOKODASH_LOG_LEVEL", "debug")
	t.Setenv("TOKODASH_RFM_WINDOW_DAYS", "45")

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, SourceSQL, cfg.Data.Source)
	assert.Equal(t, "postgres://u:p@db/shop", cfg.Data.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 45*24*time.Hour, cfg.Window())
}

func TestApplyEnv_DataDirSelectsCSV(t *testing.T) {
	t.Setenv("TOKODASH_DATA_DIR", "/srv/shop")
	cfg := Default()
	cfg.Data.Source = SourceSQL
	require.NoError(t, ApplyEnv(&cfg))
	assert.Equal(t, SourceCSV, cfg.Data.Source)
	assert.Equal(t, "/srv/shop", cfg.Data.Dir)
}

func TestApplyEnv_InvalidWindowFailsFast(t *testing.T) {
	t.Setenv("TOKODASH_RFM_WINDOW_DAYS", "ninety")
	cfg := Default()
	err := ApplyEnv(&cfg)
	assert.ErrorContains(t, err, "TOKODASH_RFM_WINDOW_DAYS")
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")), "missing file is not an error")

	t.Setenv("TOKODASH_ADDR", "")
	os.Unsetenv("TOKODASH_ADDR")
	t.Setenv("TOKODASH_LOG_LEVEL", "warn")
	path := writeFile(t, ".env", "TOKODASH_ADDR=:7000\nTOKODASH_LOG_LEVEL=debug\n")
	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, ":7000", os.Getenv("TOKODASH_ADDR"))
	assert.Equal(t, "warn", os.Getenv("TOKODASH_LOG_LEVEL"), "existing env wins")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"no addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"csv without dir", func(c *Config) { c.Data.Dir = "" }, "data.dir"},
		{"csv missing file name", func(c *Config) { c.Data.Files.Payments = "" }, "data.files"},
		{"sql without dsn", func(c *Config) { c.Data.Source = SourceSQL }, "data.dsn"},
		{"unknown source", func(c *Config) { c.Data.Source = "parquet" }, "data.source"},
		{"zero window", func(c *Config) { c.RFM.WindowDays = 0 }, "rfm.window_days"},
		{"zero top", func(c *Config) { c.RFM.TopN = 0 }, "rfm.top_n"},
		{"zero cache", func(c *Config) { c.RFM.CacheSize = 0 }, "rfm.cache_size"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "view", "rfm")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"view":"rfm"`)

	_, err = NewLogger(&buf, LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
