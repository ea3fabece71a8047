package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Default()
	cfg.Password = "hunter2"
	return cfg
}

func TestDefaultIsValidWithPassword(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
	assert.Error(t, Default().Validate(), "password is required")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"port zero":         func(c *Config) { c.Port = 0 },
		"port too large":    func(c *Config) { c.Port = 70000 },
		"password space":    func(c *Config) { c.Password = "two words" },
		"password control":  func(c *Config) { c.Password = "a\x01b" },
		"password too long": func(c *Config) { c.Password = string(make([]byte, 65)) },
		"server name space": func(c *Config) { c.ServerName = "irc example" },
		"server name empty": func(c *Config) { c.ServerName = "" },
		"line too short":    func(c *Config) { c.MaxLineLength = 10 },
		"sendq below line":  func(c *Config) { c.MaxSendQueue = 100 },
		"poll too fast":     func(c *Config) { c.PollInterval = time.Millisecond },
		"poll too slow":     func(c *Config) { c.PollInterval = 2 * time.Second },
		"ping timeout zero": func(c *Config) { c.PingTimeout = 0 },
		"flood negative":    func(c *Config) { c.FloodLines = -1 },
		"flood no window":   func(c *Config) { c.FloodWindow = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseArgs(t *testing.T) {
	got, err := ParseArgs([]string{"6697", "pw"})
	require.NoError(t, err)
	assert.Equal(t, 6697, got.Port)
	assert.Equal(t, "pw", got.Password)

	got, err = ParseArgs(nil)
	require.NoError(t, err)
	assert.Zero(t, got.Port)

	_, err = ParseArgs([]string{"abc", "pw"})
	assert.Error(t, err)
	_, err = ParseArgs([]string{"0", "pw"})
	assert.Error(t, err)
	_, err = ParseArgs([]string{"1", "2", "3"})
	assert.Error(t, err)
}

func TestUpdateFromKeepsZeroFields(t *testing.T) {
	cfg := validConfig()
	cfg.UpdateFrom(Config{Port: 7000})
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "ircserv", cfg.ServerName)
}

func TestLoadWritesDefaultFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, Default().Port, cfg.Port)
	assert.Equal(t, Default().PingTimeout, cfg.PingTimeout)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadFileThenEnv(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 7001\nserver_name: irc.example.net\nmotd:\n  - welcome\n  - be nice\nping_interval: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("IRCSERV_PORT", "7002")

	cfg, _, err := Load(&logger, path)
	require.NoError(t, err)
	assert.Equal(t, 7002, cfg.Port, "env wins over file")
	assert.Equal(t, "irc.example.net", cfg.ServerName)
	assert.Equal(t, []string{"welcome", "be nice"}, cfg.MOTD)
	assert.Equal(t, 30*time.Second, cfg.PingInterval)
	assert.Equal(t, Default().MaxLineLength, cfg.MaxLineLength)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [\n"), 0o600))

	_, _, err := Load(&logger, path)
	assert.Error(t, err)
}
