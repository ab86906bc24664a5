package transport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
base_url = "https://tracker.example.com/api/v1/"
timeout_ms = 2500
token_env = "TRACKER_CONFIG_TEST_TOKEN"
user_agent = "watcher/0.1"

[headers]
X-Workspace = "acme"

[retry]
max_attempts = 0
min_delay_ms = 250
factor = 3.0
max_delay_ms = 4000

[features]
observability = false

[events]
path = "stream"
mode = "manual"
reconnect_delay_ms = 1500

[log]
level = "debug"
format = "json"
`

func TestDecodeConfig(t *testing.T) {
	t.Setenv("TRACKER_CONFIG_TEST_TOKEN", "from-env")

	fc, err := DecodeConfig(strings.NewReader(sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "debug", fc.Log.Level)
	assert.Equal(t, "json", fc.Log.Format)

	config := fc.TransportConfig()
	assert.Equal(t, "https://tracker.example.com/api/v1/", config.BaseURL)
	assert.Equal(t, 2500*time.Millisecond, config.Timeout)
	assert.Equal(t, "watcher/0.1", config.UserAgent)
	assert.Equal(t, "acme", config.Headers["X-Workspace"])
	assert.Equal(t, RetryPolicy{MaxAttempts: 0, MinDelay: 250 * time.Millisecond, Factor: 3, MaxDelay: 4 * time.Second}, config.Retry)
	assert.False(t, config.Features.DisableReliability)
	assert.False(t, config.Features.EnableObservability)

	require.NotNil(t, config.TokenProvider)
	token, err := config.TokenProvider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", token)

	sub, err := fc.SubscriberConfig()
	require.NoError(t, err)
	assert.Equal(t, "stream", sub.Path)
	assert.Equal(t, ModeManual, sub.Mode)
	assert.Equal(t, 1500*time.Millisecond, sub.ReconnectDelay)

	tr, err := NewTransport(config)
	require.NoError(t, err)
	assert.Equal(t, "https://tracker.example.com/api/v1", tr.BaseURL())
	assert.Equal(t, "/stream", NewSubscriber(tr, sub).Path())
}

func TestDecodeConfigDefaults(t *testing.T) {
	fc, err := DecodeConfig(strings.NewReader(`base_url = "http://localhost:8080"`))
	require.NoError(t, err)

	config := fc.TransportConfig()
	assert.Equal(t, DefaultRetryPolicy(), config.Retry)
	assert.Equal(t, DefaultTimeout, config.Timeout)
	assert.Nil(t, config.TokenProvider)

	sub, err := fc.SubscriberConfig()
	require.NoError(t, err)
	assert.Equal(t, DefaultSubscriberConfig().Path, sub.Path)
	assert.Equal(t, ModeAuto, sub.Mode)
}

func TestDecodeConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("base_url = \"http://localhost\"\n[retry]\nmax_retries = 3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retry.max_retries")
}

func TestDecodeConfigBadMode(t *testing.T) {
	fc, err := DecodeConfig(strings.NewReader("[events]\nmode = \"websocket\"\n"))
	require.NoError(t, err)
	_, err = fc.SubscriberConfig()
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.toml")
	require.NoError(t, os.WriteFile(path, []byte("base_url = \"http://localhost\"\ntoken = \"static\"\n"), 0o600))

	fc, err := LoadConfigFile(path)
	require.NoError(t, err)
	token, _ := fc.TransportConfig().TokenProvider.Token(context.Background())
	assert.Equal(t, "static", token)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestParseChannelMode(t *testing.T) {
	for in, want := range map[string]ChannelMode{"": ModeAuto, "AUTO": ModeAuto, " native ": ModeNative, "manual": ModeManual} {
		got, err := ParseChannelMode(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
