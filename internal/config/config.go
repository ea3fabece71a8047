package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Host                 string        `mapstructure:"host" yaml:"host"`
	Port                 int           `mapstructure:"port" yaml:"port"`
	Password             string        `mapstructure:"password" yaml:"password"`
	ServerName           string        `mapstructure:"server_name" yaml:"server_name"`
	Network              string        `mapstructure:"network" yaml:"network"`
	MOTD                 []string      `mapstructure:"motd" yaml:"motd"`
	LogLevel             string        `mapstructure:"log_level" yaml:"log_level"`
	MaxLineLength        int           `mapstructure:"max_line_length" yaml:"max_line_length"`
	MaxSendQueue         int           `mapstructure:"max_send_queue" yaml:"max_send_queue"`
	MaxChannelsPerClient int           `mapstructure:"max_channels_per_client" yaml:"max_channels_per_client"`
	MaxTargets           int           `mapstructure:"max_targets" yaml:"max_targets"`
	FloodLines           int           `mapstructure:"flood_lines" yaml:"flood_lines"`
	FloodWindow          time.Duration `mapstructure:"flood_window" yaml:"flood_window"`
	PollInterval         time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PingInterval         time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	PingTimeout          time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`
	MetricsAddr          string        `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	ShutdownTimeout      time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Port:                 6667,
		ServerName:           "ircserv",
		Network:              "IRCServ",
		LogLevel:             "info",
		MaxLineLength:        512,
		MaxSendQueue:         64 << 10,
		MaxChannelsPerClient: 20,
		MaxTargets:           4,
		FloodLines:           100,
		FloodWindow:          10 * time.Second,
		PollInterval:         100 * time.Millisecond,
		PingInterval:         60 * time.Second,
		PingTimeout:          120 * time.Second,
		ShutdownTimeout:      5 * time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.ServerName != "" {
		c.ServerName = other.ServerName
	}
	if other.Network != "" {
		c.Network = other.Network
	}
	if len(other.MOTD) > 0 {
		c.MOTD = other.MOTD
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.MaxLineLength != 0 {
		c.MaxLineLength = other.MaxLineLength
	}
	if other.MaxSendQueue != 0 {
		c.MaxSendQueue = other.MaxSendQueue
	}
	if other.MaxChannelsPerClient != 0 {
		c.MaxChannelsPerClient = other.MaxChannelsPerClient
	}
	if other.MaxTargets != 0 {
		c.MaxTargets = other.MaxTargets
	}
	if other.FloodLines != 0 {
		c.FloodLines = other.FloodLines
	}
	if other.FloodWindow != 0 {
		c.FloodWindow = other.FloodWindow
	}
	if other.PollInterval != 0 {
		c.PollInterval = other.PollInterval
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
	if other.PingTimeout != 0 {
		c.PingTimeout = other.PingTimeout
	}
	if other.MetricsAddr != "" {
		c.MetricsAddr = other.MetricsAddr
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

// ParseArgs reads the positional "<port> <password>" arguments. Either may be
// omitted from the right; missing values are returned as zero.
func ParseArgs(args []string) (Config, error) {
	var out Config
	if len(args) > 2 {
		return out, fmt.Errorf("expected at most 2 arguments, got %d", len(args))
	}
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return out, fmt.Errorf("port %q is not a number", args[0])
		}
		if port < 1 || port > 65535 {
			return out, fmt.Errorf("port %d out of range 1-65535", port)
		}
		out.Port = port
	}
	if len(args) > 1 {
		out.Password = args[1]
	}
	return out, nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("port %d out of range 1-65535", c.Port)
	case c.Password == "":
		return fmt.Errorf("password is required")
	case len(c.Password) > 64:
		return fmt.Errorf("password longer than 64 bytes")
	case !printable(c.Password):
		return fmt.Errorf("password must be printable ASCII without spaces")
	case c.ServerName == "" || strings.ContainsAny(c.ServerName, " \t"):
		return fmt.Errorf("server_name %q must be non-empty without spaces", c.ServerName)
	case c.MaxLineLength < 64 || c.MaxLineLength > 8192:
		return fmt.Errorf("max_line_length %d out of range 64-8192", c.MaxLineLength)
	case c.MaxSendQueue < c.MaxLineLength:
		return fmt.Errorf("max_send_queue %d smaller than max_line_length", c.MaxSendQueue)
	case c.FloodLines < 0:
		return fmt.Errorf("flood_lines must not be negative")
	case c.FloodLines > 0 && c.FloodWindow <= 0:
		return fmt.Errorf("flood_window must be positive when flood_lines is set")
	case c.PollInterval < 10*time.Millisecond || c.PollInterval > time.Second:
		return fmt.Errorf("poll_interval %s out of range 10ms-1s", c.PollInterval)
	case c.PingInterval <= 0:
		return fmt.Errorf("ping_interval must be positive")
	case c.PingTimeout <= 0:
		return fmt.Errorf("ping_timeout must be positive")
	}
	return nil
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] <= ' ' || s[i] > '~' {
			return false
		}
	}
	return true
}
