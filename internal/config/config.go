// Package config loads dashboard settings from a YAML file, a .env file and
// TOKODASH_* environment variables, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tokodash/internal/dataset"
)

const (
	SourceCSV = "csv"
	SourceSQL = "sql"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	RFM    RFMConfig    `yaml:"rfm"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
}

type DataConfig struct {
	// Source is "csv" (Dir + Files) or "sql" (DSN).
	Source string        `yaml:"source"`
	Dir    string        `yaml:"dir"`
	DSN    string        `yaml:"dsn"`
	Files  dataset.Files `yaml:"files"`
}

type RFMConfig struct {
	WindowDays int `yaml:"window_days"`
	TopN       int `yaml:"top_n"`
	CacheSize  int `yaml:"cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              "127.0.0.1:8501",
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Data: DataConfig{
			Source: SourceCSV,
			Dir:    "data",
			Files:  dataset.DefaultFiles(),
		},
		RFM: RFMConfig{
			WindowDays: 90,
			TopN:       5,
			CacheSize:  8,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file if it exists.
// Variables already present in the environment win.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg from TOKODASH_* variables.
// Invalid values are returned as errors rather than ignored.
func ApplyEnv(cfg *Config) error {
	if addr := os.Getenv("TOKODASH_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if dir := os.Getenv("TOKODASH_DATA_DIR"); dir != "" {
		cfg.Data.Source = SourceCSV
		cfg.Data.Dir = dir
	}
	if dsn := os.Getenv("TOKODASH_DSN"); dsn != "" {
		cfg.Data.Source = SourceSQL
		cfg.Data.DSN = dsn
	}
	if level := os.Getenv("TOKODASH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("TOKODASH_LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	if days := os.Getenv("TOKODASH_RFM_WINDOW_DAYS"); days != "" {
		d, err := strconv.Atoi(days)
		if err != nil {
			return fmt.Errorf("invalid TOKODASH_RFM_WINDOW_DAYS %q: %w", days, err)
		}
		cfg.RFM.WindowDays = d
	}
	return nil
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	switch c.Data.Source {
	case SourceCSV:
		if c.Data.Dir == "" {
			return errors.New("data.dir must be set for csv source")
		}
		f := c.Data.Files
		if f.Customers == "" || f.Orders == "" || f.OrdersCustomers == "" || f.Reviews == "" || f.Payments == "" {
			return errors.New("data.files must name every input file")
		}
	case SourceSQL:
		if c.Data.DSN == "" {
			return errors.New("data.dsn must be set for sql source")
		}
	default:
		return fmt.Errorf("data.source must be %q or %q, got %q", SourceCSV, SourceSQL, c.Data.Source)
	}
	if c.RFM.WindowDays <= 0 {
		return fmt.Errorf("rfm.window_days must be positive, got %d", c.RFM.WindowDays)
	}
	if c.RFM.TopN <= 0 {
		return fmt.Errorf("rfm.top_n must be positive, got %d", c.RFM.TopN)
	}
	if c.RFM.CacheSize <= 0 {
		return fmt.Errorf("rfm.cache_size must be positive, got %d", c.RFM.CacheSize)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c Config) Window() time.Duration {
	return time.Duration(c.RFM.WindowDays) * 24 * time.Hour
}

// Source builds the dataset source the config points at.
func (c Config) Source() dataset.Source {
	if c.Data.Source == SourceSQL {
		return dataset.SQLSource{DSN: c.Data.DSN}
	}
	return dataset.CSVSource{Dir: c.Data.Dir, Files: c.Data.Files}
}
