// Package config loads the service settings. Sources are layered: built-in
// defaults, then a JSON file named by CONFIG (or -c), then the environment
// (with .env support), then command-line flags.
package config

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/patric-chuzhbe/newsaggr/internal/logger"
)

// Config holds every tunable of the service.
type Config struct {
	ConfigFile string `env:"CONFIG" json:"-"`

	RunAddr  string `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	LogLevel string `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`

	NewsAPIKey     string `env:"NEWSAPI_KEY" json:"newsapi_key"`
	NewsAPIBaseURL string `env:"NEWSAPI_BASE_URL" json:"newsapi_base_url" validate:"url"`
	GNewsKey       string `env:"GNEWS_KEY" json:"gnews_key"`
	GNewsBaseURL   string `env:"GNEWS_BASE_URL" json:"gnews_base_url" validate:"url"`

	// ProviderTimeout is the per-request upstream timeout, in seconds.
	ProviderTimeout int `env:"PROVIDER_TIMEOUT" json:"provider_timeout" validate:"min=1"`

	// CacheTTL and CacheSweepInterval are in seconds.
	CacheTTL           int `env:"CACHE_TTL" json:"cache_ttl" validate:"min=1"`
	CacheSweepInterval int `env:"CACHE_SWEEP_INTERVAL" json:"cache_sweep_interval" validate:"min=1"`

	DefaultPageSize int    `env:"DEFAULT_PAGE_SIZE" json:"default_page_size" validate:"min=1,ltefield=MaxPageSize"`
	MaxPageSize     int    `env:"MAX_PAGE_SIZE" json:"max_page_size" validate:"min=1"`
	FetchLimit      int    `env:"FETCH_LIMIT" json:"fetch_limit" validate:"min=1"`
	DefaultLanguage string `env:"DEFAULT_LANGUAGE" json:"default_language" validate:"len=2,alpha"`

	// JWTSecret is base64 (URL alphabet) encoded.
	JWTSecret      string `env:"JWT_SECRET" json:"jwt_secret" validate:"required,base64url"`
	JWTLifetime    int    `env:"JWT_LIFETIME" json:"jwt_lifetime" validate:"min=1"`
	AuthCookieName string `env:"AUTH_COOKIE_NAME" json:"auth_cookie_name" validate:"required"`

	// TrustedSubnet guards the /internal endpoints. Empty denies everyone.
	TrustedSubnet string `env:"TRUSTED_SUBNET" json:"trusted_subnet" validate:"omitempty,cidr"`
}

var defaultConfig = Config{
	RunAddr:            ":8080",
	LogLevel:           "info",
	NewsAPIBaseURL:     "https://newsapi.org/v2",
	GNewsBaseURL:       "https://gnews.io/api/v4",
	ProviderTimeout:    10,
	CacheTTL:           3600,
	CacheSweepInterval: 300,
	DefaultPageSize:    20,
	MaxPageSize:        100,
	FetchLimit:         100,
	DefaultLanguage:    "en",
	JWTSecret:          "bmV3cy1hZ2dyZWdhdG9yLWRldmVsb3BtZW50LXNlY3JldA==",
	JWTLifetime:        86400,
	AuthCookieName:     "news_auth",
}

// ProviderTimeoutDuration returns ProviderTimeout as a time.Duration.
func (c *Config) ProviderTimeoutDuration() time.Duration {
	return time.Duration(c.ProviderTimeout) * time.Second
}

func (c *Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func (c *Config) CacheSweepIntervalDuration() time.Duration {
	return time.Duration(c.CacheSweepInterval) * time.Second
}

func (c *Config) JWTLifetimeDuration() time.Duration {
	return time.Duration(c.JWTLifetime) * time.Second
}

// JWTSigningKey decodes JWTSecret.
func (c *Config) JWTSigningKey() ([]byte, error) {
	key, err := base64.URLEncoding.DecodeString(c.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("decoding JWT secret: %w", err)
	}
	return key, nil
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

// InitOption tweaks how New collects the settings.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing skips the command-line layer. Tests use it.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// New collects and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		logger.Log.Debugw("no .env file loaded", "error", err)
	}

	var fromFlags Config
	var flagSet *flag.FlagSet
	if !options.disableFlagsParsing {
		flagSet, err = parseFlags(&fromFlags, os.Args[1:])
		if err != nil {
			return nil, err
		}
	}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	values := Config{}

	configFile := fromEnv.ConfigFile
	if fromFlags.ConfigFile != "" {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		fromFile, err := loadJSON(configFile)
		if err != nil {
			return nil, err
		}
		applyDefaults(&values, fromFile)
	}

	applyOverrides(&values, fromEnv)
	if flagSet != nil {
		applyOverrides(&values, fromFlags)
	}
	applyDefaults(&values, defaultConfig)
	values.ConfigFile = configFile

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

func parseFlags(target *Config, args []string) (*flag.FlagSet, error) {
	flagSet := flag.NewFlagSet("newsaggr", flag.ContinueOnError)

	flagSet.StringVar(&target.ConfigFile, "c", "", "path to a JSON config file")
	flagSet.StringVar(&target.RunAddr, "a", "", "address and port to run server")
	flagSet.StringVar(&target.LogLevel, "l", "", "logger level")
	flagSet.StringVar(&target.NewsAPIKey, "newsapi-key", "", "NewsAPI key")
	flagSet.StringVar(&target.GNewsKey, "gnews-key", "", "GNews key")
	flagSet.IntVar(&target.CacheTTL, "cache-ttl", 0, "cache TTL in seconds")
	flagSet.IntVar(&target.FetchLimit, "fetch-limit", 0, "articles fetched per aggregation")
	flagSet.StringVar(&target.DefaultLanguage, "lang", "", "default news language")
	flagSet.StringVar(&target.TrustedSubnet, "t", "", "CIDR allowed to call /internal endpoints")

	if err := flagSet.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	return flagSet, nil
}

func loadJSON(path string) (Config, error) {
	var fromFile Config

	data, err := os.ReadFile(path)
	if err != nil {
		return fromFile, fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fromFile, fmt.Errorf("decoding config file: %w", err)
	}

	return fromFile, nil
}

// applyDefaults fills the zero fields of values from defaults.
func applyDefaults(values *Config, defaults Config) {
	setString(&values.RunAddr, defaults.RunAddr)
	setString(&values.LogLevel, defaults.LogLevel)
	setString(&values.NewsAPIKey, defaults.NewsAPIKey)
	setString(&values.NewsAPIBaseURL, defaults.NewsAPIBaseURL)
	setString(&values.GNewsKey, defaults.GNewsKey)
	setString(&values.GNewsBaseURL, defaults.GNewsBaseURL)
	setInt(&values.ProviderTimeout, defaults.ProviderTimeout)
	setInt(&values.CacheTTL, defaults.CacheTTL)
	setInt(&values.CacheSweepInterval, defaults.CacheSweepInterval)
	setInt(&values.DefaultPageSize, defaults.DefaultPageSize)
	setInt(&values.MaxPageSize, defaults.MaxPageSize)
	setInt(&values.FetchLimit, defaults.FetchLimit)
	setString(&values.DefaultLanguage, defaults.DefaultLanguage)
	setString(&values.JWTSecret, defaults.JWTSecret)
	setInt(&values.JWTLifetime, defaults.JWTLifetime)
	setString(&values.AuthCookieName, defaults.AuthCookieName)
	setString(&values.TrustedSubnet, defaults.TrustedSubnet)
}

// applyOverrides copies the non-zero fields of overrides into values.
func applyOverrides(values *Config, overrides Config) {
	override := overrides
	applyDefaults(&override, *values)
	*values = override
}

func setString(target *string, fallback string) {
	if *target == "" {
		*target = fallback
	}
}

func setInt(target *int, fallback int) {
	if *target == 0 {
		*target = fallback
	}
}
