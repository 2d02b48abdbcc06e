package client

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolun/superirc/pkg/protocol"
)

func TestLoadClientConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, protocol.MaxLineLength, cfg.Transmission.MaxLineLength)
	require.Len(t, cfg.Servers, 1)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config should be written")

	// The written file loads back cleanly
	again, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Servers, again.Servers)
}

func TestLoadClientConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[[servers]]
id = "local"
host = "localhost"
port = 6667
nick = "tester"
channels = ["#dev"]

[transmission]
max_line_length = 200
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	srv, ok := cfg.ServerByID("local")
	require.True(t, ok)
	assert.Equal(t, "localhost:6667", srv.Address())
	assert.Equal(t, []string{"#dev"}, srv.Channels)
	assert.Equal(t, 200, cfg.Transmission.MaxLineLength)
	// Omitted sections keep defaults
	assert.True(t, cfg.UI.ShowTimestamps)
}

func TestLoadClientConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		contains string
		line     bool
	}{
		{
			name:     "parse error",
			data:     "[[servers]]\nid = \n",
			contains: "",
			line:     true,
		},
		{
			name:     "no servers",
			data:     "[ui]\nshow_timestamps = true\n",
			contains: "At least one",
		},
		{
			name:     "bad server",
			data:     "[[servers]]\nid = \"x\"\nhost = \"\"\nport = 0\nnick = \"n\"\nchannels = [\"dev\"]\n",
			contains: "Invalid port number",
		},
		{
			name:     "bad line length",
			data:     "[[servers]]\nid = \"x\"\nhost = \"h\"\nport = 6667\nnick = \"n\"\n[transmission]\nmax_line_length = 5\n",
			contains: "max_line_length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0644))

			_, err := LoadClientConfig(path)
			require.Error(t, err)
			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, path, cfgErr.Path)
			assert.Contains(t, cfgErr.Message, tt.contains)
			if tt.line {
				assert.Greater(t, cfgErr.LineNumber, 0)
			}
		})
	}
}

func TestNewLoggerNoFile(t *testing.T) {
	logger, err := NewLogger(LoggingSection{}, false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("discarded")
}

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "client.log")
	logger, err := NewLogger(LoggingSection{Level: "debug", File: path, MaxSizeMB: 1}, false)
	require.NoError(t, err)
	logger.Debug("hello")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	_, err = NewLogger(LoggingSection{Level: "loud", File: path}, false)
	assert.Error(t, err)
}
