// =============================================================================
// iDoklad to Fakturoid - Configuration Module
// =============================================================================
//
// This module loads the run configuration from every source the CLI accepts
// and validates it before any network traffic happens.
//
// PRIORITY (highest to lowest):
//   1. Command line flags (bound by the cmd package)
//   2. Environment variables with IDOKLAD2FAKTUROID_ prefix
//      (e.g. IDOKLAD2FAKTUROID_FAKTUROID_API_KEY). A .env file in the
//      working directory is loaded into the environment first.
//   3. YAML config file (--config, else ./idoklad2fakturoid.yaml if present)
//   4. Built-in defaults
//
// EXAMPLE CONFIG FILE:
//   fakturoid:
//     account: acme
//     email: me@example.com
//     api_key: 0123456789abcdef
//     rate_limit: 1
//   cache_file: ~/.cache/idoklad2fakturoid.cache
//   report_file: reports/import_{date}_{run_id}.xlsx
//   log:
//     level: info
//     format: console
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/idoklad2fakturoid/internal/cache"
	"github.com/ginjaninja78/idoklad2fakturoid/internal/fakturoid"
)

// =============================================================================
// KEYS AND DEFAULTS
// =============================================================================

// Configuration keys, as used in the config file and (upper-cased, with "."
// replaced by "_") in environment variables.
const (
	KeyFakturoidAccount   = "fakturoid.account"
	KeyFakturoidEmail     = "fakturoid.email"
	KeyFakturoidAPIKey    = "fakturoid.api_key"
	KeyFakturoidBaseURL   = "fakturoid.base_url"
	KeyFakturoidUserAgent = "fakturoid.user_agent"
	KeyFakturoidTimeout   = "fakturoid.timeout"
	KeyFakturoidRateLimit = "fakturoid.rate_limit"
	KeyCacheFile          = "cache_file"
	KeyReportFile         = "report_file"
	KeyLogLevel           = "log.level"
	KeyLogFormat          = "log.format"
	KeyLogOutput          = "log.output"
)

const (
	// EnvPrefix prefixes every environment variable the tool reads.
	EnvPrefix = "IDOKLAD2FAKTUROID"

	// DefaultConfigName is looked up in the working directory when no
	// --config is given.
	DefaultConfigName = "idoklad2fakturoid"

	DefaultBaseURL   = fakturoid.DefaultBaseURL
	DefaultTimeout   = fakturoid.DefaultTimeout
	DefaultCacheFile = cache.DefaultPath
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
	DefaultLogOutput = "stderr"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds everything one run needs.
type Config struct {
	Fakturoid FakturoidConfig `mapstructure:"fakturoid"`

	// CacheFile is the path of the local cache file.
	CacheFile string `mapstructure:"cache_file" validate:"required"`

	// ReportFile is the optional XLSX run report path. Empty disables it.
	// Placeholders: {run_id}, {timestamp}, {date}, {time}, {uuid}.
	ReportFile string `mapstructure:"report_file"`

	Log LogConfig `mapstructure:"log"`
}

// FakturoidConfig holds the API credentials and client settings.
type FakturoidConfig struct {
	// Account is the account slug from the Fakturoid URL.
	Account string `mapstructure:"account" validate:"required"`

	// Email is the login e-mail, used for Basic auth and the User-Agent.
	Email string `mapstructure:"email" validate:"required,email"`

	// APIKey is found under Settings > User account in Fakturoid.
	APIKey string `mapstructure:"api_key" validate:"required"`

	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// UserAgent overrides "iDoklad2Fakturoid (<email>)".
	UserAgent string `mapstructure:"user_agent"`

	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`

	// RateLimit caps requests per second. 0 disables the limiter.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`
}

// LogConfig mirrors logger.Config.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
	Output string `mapstructure:"output" validate:"required"`
}

// =============================================================================
// LOADING
// =============================================================================

// NewViper creates a viper instance wired for environment lookup, defaults
// and the config file.
//
// PARAMETERS:
//   - configFile: Explicit config file path. It must exist when given. When
//     empty, ./idoklad2fakturoid.yaml is read if present.
//
// RETURNS:
//   - The viper instance, ready for flag binding and Load.
//   - An error if a config file exists but cannot be read.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return v, nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return v, nil
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyFakturoidBaseURL, DefaultBaseURL)
	v.SetDefault(KeyFakturoidTimeout, DefaultTimeout)
	v.SetDefault(KeyFakturoidRateLimit, 0)
	v.SetDefault(KeyCacheFile, DefaultCacheFile)
	v.SetDefault(KeyReportFile, "")
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyLogOutput, DefaultLogOutput)
}

// Load builds and validates the configuration from v.
//
// RETURNS:
//   - The configuration.
//   - An error listing every invalid or missing setting.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Fakturoid: FakturoidConfig{
			Account:   v.GetString(KeyFakturoidAccount),
			Email:     v.GetString(KeyFakturoidEmail),
			APIKey:    v.GetString(KeyFakturoidAPIKey),
			BaseURL:   v.GetString(KeyFakturoidBaseURL),
			UserAgent: v.GetString(KeyFakturoidUserAgent),
			Timeout:   v.GetDuration(KeyFakturoidTimeout),
			RateLimit: v.GetFloat64(KeyFakturoidRateLimit),
		},
		CacheFile:  v.GetString(KeyCacheFile),
		ReportFile: v.GetString(KeyReportFile),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
			Output: v.GetString(KeyLogOutput),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration. The error names settings by their
// config key, e.g. "fakturoid.api_key is required".
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, describe(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// describe renders one field error using the config key of the field.
func describe(fe validator.FieldError) string {
	key := fe.Namespace()
	if i := strings.Index(key, "."); i >= 0 {
		key = key[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "email":
		return fmt.Sprintf("%s must be a valid e-mail address", key)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", key, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", key, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
	}
}
