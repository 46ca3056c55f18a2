package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLoader isolates the loader from the developer's real config and .env files.
func newTestLoader(t *testing.T) (*Loader, string, string) {
	t.Helper()
	configDir := t.TempDir()
	workDir := t.TempDir()
	return NewLoader(viper.New()).WithConfigDir(configDir).WithWorkDir(workDir), configDir, workDir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
}

func TestLoad_Defaults(t *testing.T) {
	loader, configDir, _ := newTestLoader(t)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, filepath.Join(configDir, "cookies.yaml"), cfg.CookieFile)
	assert.True(t, cfg.Guard)
	assert.False(t, cfg.Multipart)
	assert.Equal(t, "auto", cfg.Style)
	assert.Equal(t, 80, cfg.WordWrap)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
}

func TestLoad_EnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("GEMICHAT_ENDPOINT", "https://chat.example.com/api/")
	t.Setenv("GEMICHAT_GUARD", "false")
	t.Setenv("GEMICHAT_WORD_WRAP", "120")

	loader, _, _ := newTestLoader(t)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://chat.example.com/api", cfg.Endpoint)
	assert.False(t, cfg.Guard)
	assert.Equal(t, 120, cfg.WordWrap)
}

func TestLoad_LegacyEndpointVariable(t *testing.T) {
	t.Setenv("APP_API_ENDPOINT", "http://legacy.example.com/api")

	loader, _, _ := newTestLoader(t)
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://legacy.example.com/api", cfg.Endpoint)
}

func TestLoad_ConfigFile(t *testing.T) {
	loader, configDir, _ := newTestLoader(t)
	writeFile(t, filepath.Join(configDir, "config.yaml"), "endpoint: http://yaml.example.com/api\nword-wrap: 100\nmultipart: true\n")

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://yaml.example.com/api", cfg.Endpoint)
	assert.Equal(t, 100, cfg.WordWrap)
	assert.True(t, cfg.Multipart)
}

func TestLoad_DotEnvPriority(t *testing.T) {
	loader, configDir, workDir := newTestLoader(t)
	writeFile(t, filepath.Join(configDir, "config.yaml"), "endpoint: http://yaml.example.com/api\nstyle: light\n")
	writeFile(t, filepath.Join(configDir, ".env"), "GEMICHAT_ENDPOINT=http://config-env.example.com/api\nGEMICHAT_STYLE=dark\n")
	writeFile(t, filepath.Join(workDir, ".env"), "GEMICHAT_ENDPOINT=http://local-env.example.com/api\n")

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://local-env.example.com/api", cfg.Endpoint)
	assert.Equal(t, "dark", cfg.Style)
}

func TestLoad_EnvironmentBeatsDotEnv(t *testing.T) {
	t.Setenv("GEMICHAT_ENDPOINT", "http://env.example.com/api")

	loader, _, workDir := newTestLoader(t)
	writeFile(t, filepath.Join(workDir, ".env"), "GEMICHAT_ENDPOINT=http://local-env.example.com/api\n")

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env.example.com/api", cfg.Endpoint)
}

func TestLoad_FlagBeatsEverything(t *testing.T) {
	t.Setenv("GEMICHAT_ENDPOINT", "http://env.example.com/api")

	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String(KeyEndpoint, "", "")
	require.NoError(t, flags.Parse([]string{"--endpoint", "http://flag.example.com/api"}))
	require.NoError(t, v.BindPFlag(KeyEndpoint, flags.Lookup(KeyEndpoint)))

	cfg, err := NewLoader(v).WithConfigDir(t.TempDir()).WithWorkDir(t.TempDir()).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://flag.example.com/api", cfg.Endpoint)
}

func TestLoad_TestModeSkipsDotEnv(t *testing.T) {
	v := viper.New()
	v.Set(KeyTestMode, true)
	workDir := t.TempDir()
	writeFile(t, filepath.Join(workDir, ".env"), "GEMICHAT_ENDPOINT=http://local-env.example.com/api\n")

	cfg, err := NewLoader(v).WithConfigDir(t.TempDir()).WithWorkDir(workDir).Load()
	require.NoError(t, err)

	assert.True(t, cfg.TestMode)
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
}

func TestLoad_InvalidConfigFile(t *testing.T) {
	loader, configDir, _ := newTestLoader(t)
	writeFile(t, filepath.Join(configDir, "config.yaml"), "endpoint: [unclosed\n")

	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := Config{Endpoint: "http://localhost:5000/api", WordWrap: 80, Style: "auto"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"relative endpoint", func(c *Config) { c.Endpoint = "/api" }, "absolute http(s) URL"},
		{"unsupported scheme", func(c *Config) { c.Endpoint = "ftp://example.com" }, "absolute http(s) URL"},
		{"zero word wrap", func(c *Config) { c.WordWrap = 0 }, "word wrap"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "timeout"},
		{"unknown style", func(c *Config) { c.Style = "neon" }, "unknown style"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSettingForEnv(t *testing.T) {
	key, ok := settingForEnv("GEMICHAT_COOKIE_FILE")
	assert.True(t, ok)
	assert.Equal(t, KeyCookieFile, key)

	key, ok = settingForEnv("VITE_API_ENDPOINT")
	assert.True(t, ok)
	assert.Equal(t, KeyEndpoint, key)

	_, ok = settingForEnv("HOME")
	assert.False(t, ok)
}

func TestUserConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	dir, err := UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg/gemichat", dir)
}
