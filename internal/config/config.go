package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// Driver is the database/sql driver name: "sqlite3" (mattn, cgo) or "sqlite" (modernc, pure Go).
	Driver string
	// DSN, when set, is passed to the driver as-is and Path is ignored.
	DSN             string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogSQL          bool

	// MQTTBroker empty disables the dataset announcer.
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string
	MQTTTopic    string
}

// fileConfig mirrors Config for the optional YAML file named by CONFIG_FILE.
// Environment variables take precedence over file values.
type fileConfig struct {
	AppEnv   string `yaml:"app_env"`
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`
	DB       struct {
		Driver          string `yaml:"driver"`
		DSN             string `yaml:"dsn"`
		Path            string `yaml:"path"`
		MaxOpenConns    *int   `yaml:"max_open_conns"`
		MaxIdleConns    *int   `yaml:"max_idle_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		LogSQL          *bool  `yaml:"log_sql"`
	} `yaml:"db"`
	MQTT struct {
		Broker   string `yaml:"broker"`
		Port     *int   `yaml:"port"`
		ClientID string `yaml:"client_id"`
		Topic    string `yaml:"topic"`
	} `yaml:"mqtt"`
}

func LoadFromEnv() (Config, error) {
	var file fileConfig
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		var err error
		file, err = readFile(path)
		if err != nil {
			return Config{}, err
		}
	}

	appEnv := lookup("APP_ENV", file.AppEnv, "dev")
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(lookup("LOG_LEVEL", file.LogLevel, "info"))
	if err != nil {
		return Config{}, err
	}

	driver := lookup("DB_DRIVER", file.DB.Driver, "sqlite3")
	switch driver {
	case "sqlite3", "sqlite":
	default:
		return Config{}, fmt.Errorf("invalid DB_DRIVER %q (allowed: sqlite3, sqlite)", driver)
	}

	maxOpenConns, err := lookupInt("DB_MAX_OPEN_CONNS", file.DB.MaxOpenConns, 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := lookupInt("DB_MAX_IDLE_CONNS", file.DB.MaxIdleConns, 4)
	if err != nil {
		return Config{}, err
	}

	connMaxLifetimeStr := lookup("DB_CONN_MAX_LIFETIME", file.DB.ConnMaxLifetime, "0s")
	connMaxLifetime, err := time.ParseDuration(connMaxLifetimeStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", connMaxLifetimeStr, err)
	}

	logSQL := false
	if file.DB.LogSQL != nil {
		logSQL = *file.DB.LogSQL
	}
	if s := strings.TrimSpace(os.Getenv("DB_LOG_SQL")); s != "" {
		logSQL, err = strconv.ParseBool(s)
		if err != nil {
			return Config{}, fmt.Errorf("invalid DB_LOG_SQL %q: %w", s, err)
		}
	}

	mqttPort, err := lookupInt("MQTT_PORT", file.MQTT.Port, 1883)
	if err != nil {
		return Config{}, err
	}
	if mqttPort <= 0 || mqttPort > 65535 {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %d (must be 1-65535)", mqttPort)
	}

	return Config{
		AppEnv:          appEnv,
		LogLevel:        level,
		HTTPAddr:        lookup("HTTP_ADDR", file.HTTPAddr, ":8080"),
		Driver:          driver,
		DSN:             lookup("DB_DSN", file.DB.DSN, ""),
		Path:            lookup("SQLITE_PATH", file.DB.Path, "Resources/hawaii.sqlite"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		LogSQL:          logSQL,
		MQTTBroker:      lookup("MQTT_BROKER", file.MQTT.Broker, ""),
		MQTTPort:        mqttPort,
		MQTTClientID:    lookup("MQTT_CLIENT_ID", file.MQTT.ClientID, "surfsup-server"),
		MQTTTopic:       lookup("MQTT_TOPIC", file.MQTT.Topic, "surfsup/dataset"),
	}, nil
}

func readFile(path string) (fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fileConfig{}, fmt.Errorf("parse CONFIG_FILE %q: %w", path, err)
	}
	return fc, nil
}

// lookup returns the trimmed env value, else the file value, else def.
func lookup(env, fileVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return def
}

func lookupInt(env string, fileVal *int, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(env))
	if s == "" {
		if fileVal != nil {
			return *fileVal, nil
		}
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", env, s, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
