// Package config loads gemichat settings from defaults, config files, .env files,
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Setting keys shared by viper, flags and config files.
const (
	KeyEndpoint   = "endpoint"
	KeyCookieFile = "cookie-file"
	KeyMultipart  = "multipart"
	KeyGuard      = "guard"
	KeyStyle      = "style"
	KeyWordWrap   = "word-wrap"
	KeyTimeout    = "timeout"
	KeyLogLevel   = "log-level"
	KeyLogFile    = "log-file"
	KeyTestMode   = "test-mode"
)

// EnvPrefix is prepended to every environment variable gemichat reads.
const EnvPrefix = "GEMICHAT"

// DefaultEndpoint matches the development backend's API mount point.
const DefaultEndpoint = "http://localhost:5000/api"

// legacyEndpointVars are the build-time variables the web client used for its API base URL.
var legacyEndpointVars = []string{"APP_API_ENDPOINT", "VITE_API_ENDPOINT"}

// Config holds the resolved settings.
type Config struct {
	Endpoint   string
	CookieFile string
	Multipart  bool // always send multipart bodies, even without an image
	Guard      bool // refuse a new request while one is in flight
	Style      string
	WordWrap   int
	Timeout    time.Duration // applies to one-shot commands only; zero disables it
	LogLevel   string
	LogFile    string
	TestMode   bool
}

// Loader resolves a Config from its sources. Priority, lowest to highest:
// defaults, config.yaml, config-dir .env, local .env, environment, flags.
type Loader struct {
	v         *viper.Viper
	configDir string
	workDir   string
}

// NewLoader creates a loader around v. Flags should already be bound to v.
func NewLoader(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// WithConfigDir overrides the configuration directory (default ~/.config/gemichat).
func (l *Loader) WithConfigDir(dir string) *Loader {
	l.configDir = dir
	return l
}

// WithWorkDir overrides the directory searched for a local .env file.
func (l *Loader) WithWorkDir(dir string) *Loader {
	l.workDir = dir
	return l
}

// Load resolves and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	configDir, err := l.resolveConfigDir()
	if err != nil {
		return nil, err
	}

	setDefaults(l.v, configDir)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	l.v.AutomaticEnv()
	if err := l.v.BindEnv(append([]string{KeyEndpoint, EnvPrefix + "_ENDPOINT"}, legacyEndpointVars...)...); err != nil {
		return nil, fmt.Errorf("failed to bind endpoint environment: %w", err)
	}

	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(configDir)
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if !l.v.GetBool(KeyTestMode) {
		dotenv, err := l.readDotEnvFiles(configDir)
		if err != nil {
			return nil, err
		}
		if len(dotenv) > 0 {
			if err := l.v.MergeConfigMap(dotenv); err != nil {
				return nil, fmt.Errorf("failed to merge .env values: %w", err)
			}
		}
	}

	cfg := &Config{
		Endpoint:   strings.TrimRight(strings.TrimSpace(l.v.GetString(KeyEndpoint)), "/"),
		CookieFile: l.v.GetString(KeyCookieFile),
		Multipart:  l.v.GetBool(KeyMultipart),
		Guard:      l.v.GetBool(KeyGuard),
		Style:      strings.ToLower(l.v.GetString(KeyStyle)),
		WordWrap:   l.v.GetInt(KeyWordWrap),
		Timeout:    l.v.GetDuration(KeyTimeout),
		LogLevel:   l.v.GetString(KeyLogLevel),
		LogFile:    l.v.GetString(KeyLogFile),
		TestMode:   l.v.GetBool(KeyTestMode),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault(KeyEndpoint, DefaultEndpoint)
	v.SetDefault(KeyCookieFile, filepath.Join(configDir, "cookies.yaml"))
	v.SetDefault(KeyMultipart, false)
	v.SetDefault(KeyGuard, true)
	v.SetDefault(KeyStyle, "auto")
	v.SetDefault(KeyWordWrap, 80)
	v.SetDefault(KeyTimeout, time.Duration(0))
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
}

// readDotEnvFiles returns .env settings keyed by setting name. Values already present
// in the process environment are skipped so the environment keeps priority.
func (l *Loader) readDotEnvFiles(configDir string) (map[string]any, error) {
	workDir := l.workDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		workDir = wd
	}

	merged := make(map[string]any)
	// Local .env is read last so it wins over the config-dir file.
	for _, path := range []string{filepath.Join(configDir, ".env"), filepath.Join(workDir, ".env")} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		for envKey, value := range values {
			if _, set := os.LookupEnv(envKey); set {
				continue
			}
			if key, ok := settingForEnv(envKey); ok {
				merged[key] = value
			}
		}
	}
	return merged, nil
}

// settingForEnv maps GEMICHAT_COOKIE_FILE to "cookie-file" and the legacy
// endpoint variables to "endpoint".
func settingForEnv(envKey string) (string, bool) {
	for _, legacy := range legacyEndpointVars {
		if envKey == legacy {
			return KeyEndpoint, true
		}
	}
	prefix := EnvPrefix + "_"
	if !strings.HasPrefix(envKey, prefix) {
		return "", false
	}
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(envKey, prefix)), "_", "-"), true
}

func (l *Loader) resolveConfigDir() (string, error) {
	if l.configDir != "" {
		return l.configDir, nil
	}
	return UserConfigDir()
}

// UserConfigDir returns $XDG_CONFIG_HOME/gemichat, falling back to ~/.config/gemichat.
func UserConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "gemichat"), nil
}

// Validate checks the settings that would otherwise fail later at request time.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("endpoint must be an absolute http(s) URL, got %q", c.Endpoint)
	}
	if c.WordWrap <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", c.WordWrap)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout)
	}
	switch c.Style {
	case "auto", "dark", "light", "notty", "ascii":
	default:
		return fmt.Errorf("unknown style %q (expected auto, dark, light, notty or ascii)", c.Style)
	}
	return nil
}
