// Package config provides configuration management.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"auto-rating/internal/errors"
	"auto-rating/internal/logging"
)

// DefaultPath is the configuration file read when none is given
const DefaultPath = "rating.hcl"

// Environment overrides
const (
	EnvConfig    = "RATING_CONFIG"
	EnvTablesDir = "RATING_TABLES_DIR"
	EnvAddr      = "RATING_ADDR"
	EnvLogLevel  = "RATING_LOG_LEVEL"
)

// Config is the main application configuration.
// A deployment rates exactly one carrier/state combination.
type Config struct {
	// Carrier is the carrier this deployment rates for
	Carrier string `hcl:"carrier,optional"`

	// State is the only accepted policy state
	State string `hcl:"state,optional"`

	// Engine is reported in result metadata
	Engine string `hcl:"engine,optional"`

	// TablesDir holds rating CSVs; empty uses the bundled tables
	TablesDir string `hcl:"tables_dir,optional"`

	// Server contains HTTP server configuration
	Server *ServerConfig `hcl:"server,block"`

	// Logging contains logging configuration
	Logging *logging.Config `hcl:"logging,block"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `hcl:"addr,optional"`

	ReadTimeoutSecs  int `hcl:"read_timeout_secs,optional"`
	WriteTimeoutSecs int `hcl:"write_timeout_secs,optional"`
	IdleTimeoutSecs  int `hcl:"idle_timeout_secs,optional"`
}

// ReadTimeout returns the read timeout as a duration
func (s *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the write timeout as a duration
func (s *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSecs) * time.Second
}

// IdleTimeout returns the idle timeout as a duration
func (s *ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSecs) * time.Second
}

// Default returns a default configuration
func Default() *Config {
	logCfg := logging.DefaultConfig()
	return &Config{
		Carrier: "Mercury",
		State:   "CA",
		Engine:  "auto-rating-go",
		Server: &ServerConfig{
			Addr:             ":8080",
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 15,
			IdleTimeoutSecs:  60,
		},
		Logging: &logCfg,
	}
}

// Load loads configuration from an HCL file.
// A missing file yields the defaults; environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	if env := os.Getenv(EnvConfig); env != "" && path == "" {
		path = env
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		var fileCfg Config
		if err := hclsimple.DecodeFile(path, nil, &fileCfg); err != nil {
			return nil, errors.Config("failed to decode "+path, err)
		}
		cfg.merge(&fileCfg)
	} else if !os.IsNotExist(err) {
		return nil, errors.Config("failed to stat "+path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// merge overlays every field set in the file onto c
func (c *Config) merge(f *Config) {
	setString(&c.Carrier, f.Carrier)
	setString(&c.State, f.State)
	setString(&c.Engine, f.Engine)
	setString(&c.TablesDir, f.TablesDir)

	if f.Server != nil {
		setString(&c.Server.Addr, f.Server.Addr)
		setInt(&c.Server.ReadTimeoutSecs, f.Server.ReadTimeoutSecs)
		setInt(&c.Server.WriteTimeoutSecs, f.Server.WriteTimeoutSecs)
		setInt(&c.Server.IdleTimeoutSecs, f.Server.IdleTimeoutSecs)
	}
	if f.Logging != nil {
		setString(&c.Logging.Level, f.Logging.Level)
		setString(&c.Logging.Format, f.Logging.Format)
		setString(&c.Logging.Output, f.Logging.Output)
		c.Logging.Development = c.Logging.Development || f.Logging.Development
	}
}

func (c *Config) applyEnv() {
	setString(&c.TablesDir, os.Getenv(EnvTablesDir))
	setString(&c.Server.Addr, os.Getenv(EnvAddr))
	setString(&c.Logging.Level, os.Getenv(EnvLogLevel))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// Save writes configuration to a file in HCL
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(c, f.Body())

	return os.WriteFile(path, f.Bytes(), 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
