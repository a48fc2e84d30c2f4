// Package config provides Viper-based configuration for corpus-mcp.
//
// Every setting has a default that allows zero-configuration local runs.
// Values come, in increasing precedence, from defaults, an optional YAML file,
// a .env file (outside production) and the process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/stroppy-io/corpus-mcp/internal/deploy"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the complete runtime configuration.
type Config struct {
	Port               int    `mapstructure:"port" validate:"min=1,max=65535"`
	MCPPath            string `mapstructure:"mcp_path" validate:"required,startswith=/"`
	CorpusPath         string `mapstructure:"corpus_path"`
	CorpusDSN          string `mapstructure:"corpus_dsn"`
	AssetsDir          string `mapstructure:"assets_dir"`
	SiteURL            string `mapstructure:"site_url" validate:"omitempty,url"`
	MaxResources       int    `mapstructure:"max_resources" validate:"min=0"`
	AllowedOrigins     string `mapstructure:"allowed_origins"`
	Environment        string `mapstructure:"environment" validate:"oneof=development production"`
	Deployment         string `mapstructure:"deployment" validate:"oneof=auto local managed"`
	LogLevel           string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LazyInit           bool   `mapstructure:"lazy_init"`
	TerminatedSessions int    `mapstructure:"terminated_sessions" validate:"min=1"`
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"port":                "PORT",
	"mcp_path":            "MCP_PATH",
	"corpus_path":         "CORPUS_PATH",
	"corpus_dsn":          "CORPUS_DSN",
	"assets_dir":          "ASSETS_DIR",
	"site_url":            "SITE_URL",
	"max_resources":       "MAX_RESOURCES",
	"allowed_origins":     "ALLOWED_ORIGINS",
	"environment":         "APP_ENV",
	"deployment":          "DEPLOYMENT",
	"log_level":           "LOG_LEVEL",
	"lazy_init":           "LAZY_INIT",
	"terminated_sessions": "TERMINATED_SESSION_CACHE",
}

// Load reads configuration from cfgFile (optional), .env and the environment.
func Load(cfgFile string) (*Config, error) {
	if os.Getenv("APP_ENV") != EnvProduction {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .env: %w", err)
		}
	}

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("corpus-mcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8000)
	v.SetDefault("mcp_path", "/mcp")
	v.SetDefault("site_url", "https://example.com/articles/")
	v.SetDefault("max_resources", 50)
	v.SetDefault("environment", EnvDevelopment)
	v.SetDefault("deployment", "auto")
	v.SetDefault("log_level", "info")
	v.SetDefault("lazy_init", true)
	v.SetDefault("terminated_sessions", 1024)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Production reports whether the process runs in production mode.
func (c *Config) Production() bool {
	return c.Environment == EnvProduction
}

// Origins splits the comma-separated allow-list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.TrimRight(o, "/"))
		}
	}
	return out
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// ResolvePaths fills CorpusPath and AssetsDir from the deployment strategy
// when they are not set explicitly.
func (c *Config) ResolvePaths(getenv func(string) string) (deploy.Strategy, error) {
	strategy, err := deploy.Parse(c.Deployment, getenv)
	if err != nil {
		return "", err
	}
	if c.CorpusPath != "" && c.AssetsDir != "" {
		return strategy, nil
	}
	paths := strategy.Resolve(getenv)
	if c.CorpusPath == "" {
		c.CorpusPath = paths.Corpus
	}
	if c.AssetsDir == "" {
		c.AssetsDir = paths.Assets
	}
	return strategy, nil
}
