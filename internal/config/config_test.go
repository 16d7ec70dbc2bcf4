package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"CONFIG_FILE", "APP_ENV", "LOG_LEVEL", "HTTP_ADDR",
	"DB_DRIVER", "DB_DSN", "SQLITE_PATH", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"DB_CONN_MAX_LIFETIME", "DB_LOG_SQL",
	"MQTT_BROKER", "MQTT_PORT", "MQTT_CLIENT_ID", "MQTT_TOPIC",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	got, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "dev", got.AppEnv)
	assert.Equal(t, slog.LevelInfo, got.LogLevel)
	assert.Equal(t, ":8080", got.HTTPAddr)
	assert.Equal(t, "sqlite3", got.Driver)
	assert.Empty(t, got.DSN)
	assert.Equal(t, "Resources/hawaii.sqlite", got.Path)
	assert.Equal(t, 4, got.MaxOpenConns)
	assert.Equal(t, 4, got.MaxIdleConns)
	assert.Equal(t, time.Duration(0), got.ConnMaxLifetime)
	assert.False(t, got.LogSQL)
	assert.Empty(t, got.MQTTBroker)
	assert.Equal(t, 1883, got.MQTTPort)
	assert.Equal(t, "surfsup-server", got.MQTTClientID)
	assert.Equal(t, "surfsup/dataset", got.MQTTTopic)
}

func TestLoadFromEnv_CustomEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", "  :9090  ")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/data/hawaii.sqlite")
	t.Setenv("DB_MAX_OPEN_CONNS", "8")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("DB_CONN_MAX_LIFETIME", "5m")
	t.Setenv("DB_LOG_SQL", "true")
	t.Setenv("MQTT_BROKER", "broker.local")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("MQTT_TOPIC", "climate/summary")

	got, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "prod", got.AppEnv)
	assert.Equal(t, slog.LevelDebug, got.LogLevel)
	assert.Equal(t, ":9090", got.HTTPAddr)
	assert.Equal(t, "sqlite", got.Driver)
	assert.Equal(t, "/data/hawaii.sqlite", got.Path)
	assert.Equal(t, 8, got.MaxOpenConns)
	assert.Equal(t, 2, got.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, got.ConnMaxLifetime)
	assert.True(t, got.LogSQL)
	assert.Equal(t, "broker.local", got.MQTTBroker)
	assert.Equal(t, 8883, got.MQTTPort)
	assert.Equal(t, "climate/summary", got.MQTTTopic)
}

func TestLoadFromEnv_AppEnv_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
	}{
		{name: "staging", appEnv: "staging"},
		{name: "uppercase invalid", appEnv: "DEV"},
		{name: "random", appEnv: "whatever"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("APP_ENV", tt.appEnv)

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "APP_ENV")
		})
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "LOG_LEVEL", value: "loud"},
		{key: "DB_DRIVER", value: "postgres"},
		{key: "DB_MAX_OPEN_CONNS", value: "many"},
		{key: "DB_MAX_IDLE_CONNS", value: "1.5"},
		{key: "DB_CONN_MAX_LIFETIME", value: "forever"},
		{key: "DB_LOG_SQL", value: "sometimes"},
		{key: "MQTT_PORT", value: "abc"},
		{key: "MQTT_PORT", value: "70000"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadFromEnv_ConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
app_env: prod
log_level: warn
http_addr: ":7070"
db:
  driver: sqlite
  path: /srv/hawaii.sqlite
  max_open_conns: 2
  max_idle_conns: 0
  conn_max_lifetime: 30s
  log_sql: true
mqtt:
  broker: mqtt.internal
  port: 1884
  topic: hawaii/dataset
`))

	got, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "prod", got.AppEnv)
	assert.Equal(t, slog.LevelWarn, got.LogLevel)
	assert.Equal(t, ":7070", got.HTTPAddr)
	assert.Equal(t, "sqlite", got.Driver)
	assert.Equal(t, "/srv/hawaii.sqlite", got.Path)
	assert.Equal(t, 2, got.MaxOpenConns)
	assert.Equal(t, 0, got.MaxIdleConns)
	assert.Equal(t, 30*time.Second, got.ConnMaxLifetime)
	assert.True(t, got.LogSQL)
	assert.Equal(t, "mqtt.internal", got.MQTTBroker)
	assert.Equal(t, 1884, got.MQTTPort)
	assert.Equal(t, "hawaii/dataset", got.MQTTTopic)
	assert.Equal(t, "surfsup-server", got.MQTTClientID)
}

func TestLoadFromEnv_EnvOverridesConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
http_addr: ":7070"
db:
  max_open_conns: 2
  log_sql: true
`))
	t.Setenv("HTTP_ADDR", ":6060")
	t.Setenv("DB_MAX_OPEN_CONNS", "16")
	t.Setenv("DB_LOG_SQL", "false")

	got, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":6060", got.HTTPAddr)
	assert.Equal(t, 16, got.MaxOpenConns)
	assert.False(t, got.LogSQL)
}

func TestLoadFromEnv_ConfigFileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "read CONFIG_FILE")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONFIG_FILE", writeConfigFile(t, "db: [unterminated"))

		_, err := LoadFromEnv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse CONFIG_FILE")
	})
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "DeBuG", want: slog.LevelDebug},
		{in: "  warn \n", want: slog.LevelWarn},
		{in: "", want: slog.LevelInfo, wantErr: true},
		{in: "warns", want: slog.LevelInfo, wantErr: true},
		{in: "1", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseLogLevel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
