// Package config loads the server configuration from defaults, an optional
// YAML file, environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alnah/go-javaprint/internal/archive"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalidConfig  = errors.New("invalid config")
)

// Keys. Each is read from the YAML file under its own name and from the
// environment variable of the same name in upper case.
const (
	keyHost              = "host"
	keyPort              = "port"
	keyRenderConcurrency = "render_concurrency"
	keyMaxActiveJobs     = "max_active_jobs"
	keyMaxQueuedJobs     = "max_queued_jobs"
	keyMaxZipBytes       = "max_zip_bytes"
	keyMaxTotalBytes     = "max_total_bytes"
	keyMaxFileBytes      = "max_file_bytes"
	keyMaxUmzBytes       = "max_umz_bytes"
	keyMaxFileCount      = "max_file_count"
	keyTempPrefix        = "tmp_prefix"
	keyChromiumNoSandbox = "chromium_no_sandbox"
	keyChromiumBin       = "chromium_bin"
	keyRenderTimeout     = "render_timeout"
	keyJobTTL            = "job_ttl"
	keyFontDir           = "font_dir"
	keyAppEnv            = "app_env"
)

var keys = []string{
	keyHost, keyPort, keyRenderConcurrency, keyMaxActiveJobs, keyMaxQueuedJobs,
	keyMaxZipBytes, keyMaxTotalBytes, keyMaxFileBytes, keyMaxUmzBytes,
	keyMaxFileCount, keyTempPrefix, keyChromiumNoSandbox, keyChromiumBin,
	keyRenderTimeout, keyJobTTL, keyFontDir, keyAppEnv,
}

// Flags bound over the environment when set on the command line.
var flagKeys = map[string]string{
	"host": keyHost,
	"port": keyPort,
}

const envProduction = "production"

// Config holds the server configuration.
type Config struct {
	Host string `validate:"required,hostname|ip"`
	Port int    `validate:"min=1,max=65535"`
	Env  string

	RenderConcurrency int `validate:"min=1,max=64"`
	MaxActiveJobs     int `validate:"min=1"`
	MaxQueuedJobs     int `validate:"min=0"`

	MaxZipBytes   int64  `validate:"min=1"`
	MaxTotalBytes int64  `validate:"min=1"`
	MaxFileBytes  int64  `validate:"min=1"`
	MaxUmzBytes   int64  `validate:"min=1"`
	MaxFileCount  int    `validate:"min=1"`
	TempPrefix    string `validate:"required,max=64,excludesall=/\\"`

	ChromiumNoSandbox bool
	ChromiumBin       string
	RenderTimeout     time.Duration `validate:"min=1s"`
	JobTTL            time.Duration `validate:"min=1s"`
	FontDir           string
}

// Production reports whether the server runs with APP_ENV=production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, envProduction)
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Limits returns the upload limits.
func (c *Config) Limits() archive.Limits {
	return archive.Limits{
		MaxZipBytes:   c.MaxZipBytes,
		MaxTotalBytes: c.MaxTotalBytes,
		MaxFileBytes:  c.MaxFileBytes,
		MaxUmzBytes:   c.MaxUmzBytes,
		MaxFileCount:  c.MaxFileCount,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s=%s)", fe.Field(), fe.Tag(), fe.Param()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyHost, "127.0.0.1")
	v.SetDefault(keyPort, 3001)
	v.SetDefault(keyRenderConcurrency, 2)
	v.SetDefault(keyMaxActiveJobs, 2)
	v.SetDefault(keyMaxQueuedJobs, 8)
	v.SetDefault(keyMaxZipBytes, archive.DefaultMaxZipBytes)
	v.SetDefault(keyMaxTotalBytes, archive.DefaultMaxTotalBytes)
	v.SetDefault(keyMaxFileBytes, archive.DefaultMaxFileBytes)
	v.SetDefault(keyMaxUmzBytes, archive.DefaultMaxUmzBytes)
	v.SetDefault(keyMaxFileCount, archive.DefaultMaxFileCount)
	v.SetDefault(keyTempPrefix, "java-printer-")
	v.SetDefault(keyChromiumNoSandbox, false)
	v.SetDefault(keyChromiumBin, "")
	v.SetDefault(keyRenderTimeout, 60*time.Second)
	v.SetDefault(keyJobTTL, 5*time.Minute)
	v.SetDefault(keyFontDir, "")
	v.SetDefault(keyAppEnv, "development")
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	return fromViper(v)
}

// Load builds the configuration. path names an optional YAML file; when it
// is not empty the file must exist and contain only known keys. flags may be
// nil; otherwise its host and port flags override everything else when set.
// Durations use Go syntax ("90s", "5m").
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	for _, key := range keys {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
		for _, key := range v.AllKeys() {
			if !slices.Contains(keys, key) {
				return nil, fmt.Errorf("%w: unknown key %q", ErrConfigParse, key)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Host:              v.GetString(keyHost),
		Port:              v.GetInt(keyPort),
		Env:               v.GetString(keyAppEnv),
		RenderConcurrency: v.GetInt(keyRenderConcurrency),
		MaxActiveJobs:     v.GetInt(keyMaxActiveJobs),
		MaxQueuedJobs:     v.GetInt(keyMaxQueuedJobs),
		MaxZipBytes:       v.GetInt64(keyMaxZipBytes),
		MaxTotalBytes:     v.GetInt64(keyMaxTotalBytes),
		MaxFileBytes:      v.GetInt64(keyMaxFileBytes),
		MaxUmzBytes:       v.GetInt64(keyMaxUmzBytes),
		MaxFileCount:      v.GetInt(keyMaxFileCount),
		TempPrefix:        v.GetString(keyTempPrefix),
		ChromiumNoSandbox: v.GetBool(keyChromiumNoSandbox),
		ChromiumBin:       v.GetString(keyChromiumBin),
		RenderTimeout:     v.GetDuration(keyRenderTimeout),
		JobTTL:            v.GetDuration(keyJobTTL),
		FontDir:           v.GetString(keyFontDir),
	}
}
