//go:build linux || darwin

package app

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vovakirdan/ircserv/internal/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = freePort(t)
	cfg.Password = "secret"
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)
	cfg.Password = ""

	_, err := New(cfg, &logger)
	assert.ErrorContains(t, err, "invalid config")
}

func TestRunServesIRCAndHealth(t *testing.T) {
	logger := zerolog.Nop()
	cfg := testConfig(t)
	cfg.MetricsAddr = "127.0.0.1:" + strconv.Itoa(freePort(t))

	a, err := New(cfg, &logger)
	require.NoError(t, err)
	assert.Equal(t, cfg.Port, a.Port())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	c, err := net.Dial("tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	require.NoError(t, err)
	defer c.Close()
	_, err = c.Write([]byte("PASS secret\r\nNICK a\r\nUSER a 0 * :A\r\nJOIN #ops\r\n"))
	require.NoError(t, err)
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	line, err := bufio.NewReader(c).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, " 001 a ")

	var health struct {
		Clients  int `json:"clients"`
		Channels int `json:"channels"`
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.MetricsAddr + "/health")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if json.NewDecoder(resp.Body).Decode(&health) != nil {
			return false
		}
		return health.Clients == 1 && health.Channels == 1
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
