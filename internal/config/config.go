package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP/Scraping
	HTTPTimeout time.Duration
	UserAgent   string
	Proxy       string

	// Target sites
	DirectoryBaseURL string
	ProfileSearchURL string

	// Rate limiting / politeness
	RateLimitRPS   float64
	RateLimitBurst int
	DelayMin       time.Duration
	DelayMax       time.Duration

	// Browser
	BrowserHeadless bool
	ChromePath      string

	// Output
	OutputDir string
}

// fileConfig mirrors the YAML config file schema. All fields are optional;
// zero values leave the corresponding Config field untouched.
type fileConfig struct {
	LogLevel         string  `yaml:"log_level"`
	JSONLog          *bool   `yaml:"json_log"`
	HTTPTimeout      string  `yaml:"http_timeout"`
	UserAgent        string  `yaml:"user_agent"`
	Proxy            string  `yaml:"proxy"`
	DirectoryBaseURL string  `yaml:"directory_base_url"`
	ProfileSearchURL string  `yaml:"profile_search_url"`
	RateLimitRPS     float64 `yaml:"rate_limit_rps"`
	RateLimitBurst   int     `yaml:"rate_limit_burst"`
	DelayMinMS       int     `yaml:"delay_min_ms"`
	DelayMaxMS       int     `yaml:"delay_max_ms"`
	ChromePath       string  `yaml:"chrome_path"`
	OutputDir        string  `yaml:"output_dir"`
}

// Load builds a Config by combining defaults, an optional YAML config file,
// a .env file, environment variables, and CLI flags (lowest to highest
// precedence). Caller should pass the executing *cobra.Command so
// persistent flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:         DefaultLogLevel,
		JSONLog:          DefaultJSONLog,
		HTTPTimeout:      DefaultHTTPTimeout,
		DirectoryBaseURL: DefaultDirectoryBaseURL,
		ProfileSearchURL: DefaultProfileSearchURL,
		RateLimitRPS:     DefaultRateLimitRPS,
		RateLimitBurst:   DefaultRateLimitBurst,
		DelayMin:         DefaultDelayMin,
		DelayMax:         DefaultDelayMax,
		OutputDir:        DefaultOutputDir,
	}

	// Optional YAML config file
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			if path := f.Value.String(); path != "" {
				if err := loadFile(cfg, path); err != nil {
					return nil, err
				}
			}
		}
	}

	// .env is optional; ignore absence
	_ = godotenv.Load()

	// Override from environment variables
	if v := os.Getenv("CENTERSCRAPE_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("CENTERSCRAPE_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CENTERSCRAPE_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("CENTERSCRAPE_DIRECTORY_URL"); v != "" {
		cfg.DirectoryBaseURL = v
	}
	if v := os.Getenv("CENTERSCRAPE_PROFILE_URL"); v != "" {
		cfg.ProfileSearchURL = v
	}
	if v := os.Getenv("CENTERSCRAPE_RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = rps
		}
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("proxy"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.Proxy = s
			}
		}
		// timeout and out-dir have non-empty flag defaults; only a value the
		// user actually set should override the config file.
		if f := cmd.Flags().Lookup("timeout"); f != nil && f.Changed {
			if d, err := time.ParseDuration(f.Value.String()); err == nil {
				cfg.HTTPTimeout = d
			}
		}
		if f := cmd.Flags().Lookup("out-dir"); f != nil && f.Changed {
			if s := f.Value.String(); s != "" {
				cfg.OutputDir = s
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.JSONLog != nil {
		cfg.JSONLog = *fc.JSONLog
	}
	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("parse http_timeout: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.Proxy != "" {
		cfg.Proxy = fc.Proxy
	}
	if fc.DirectoryBaseURL != "" {
		cfg.DirectoryBaseURL = fc.DirectoryBaseURL
	}
	if fc.ProfileSearchURL != "" {
		cfg.ProfileSearchURL = fc.ProfileSearchURL
	}
	if fc.RateLimitRPS > 0 {
		cfg.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst > 0 {
		cfg.RateLimitBurst = fc.RateLimitBurst
	}
	if fc.DelayMinMS > 0 {
		cfg.DelayMin = time.Duration(fc.DelayMinMS) * time.Millisecond
	}
	if fc.DelayMaxMS > 0 {
		cfg.DelayMax = time.Duration(fc.DelayMaxMS) * time.Millisecond
	}
	if fc.ChromePath != "" {
		cfg.ChromePath = fc.ChromePath
	}
	if fc.OutputDir != "" {
		cfg.OutputDir = fc.OutputDir
	}
	return nil
}
