// Package config loads process configuration from the environment, after
// reading an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"tableorders/pkg/logger"
	"tableorders/pkg/order"
)

// Server holds the order service configuration.
type Server struct {
	Port             string
	Tables           order.TableRange
	LogLevel         logger.Level
	OTELHost         string
	TraceProbability float64
	RedisAddr        string
	EventsChannel    string
}

// LoadDotEnv reads the given files (default .env) into the environment.
// Missing files are ignored; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// LoadServer builds the server configuration from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	var err error

	cfg.Port = getString("SERVER_PORT", "8000")

	start, err := getUint32("TABLE_RANGE_START", 1)
	if err != nil {
		return Server{}, err
	}
	end, err := getUint32("AVAILABLE_TABLES", 10000)
	if err != nil {
		return Server{}, err
	}
	if cfg.Tables, err = order.NewTableRange(start, end); err != nil {
		return Server{}, err
	}

	if cfg.LogLevel, err = logger.ParseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return Server{}, err
	}

	cfg.OTELHost = os.Getenv("OTEL_HOST")
	if cfg.TraceProbability, err = getFloat("TRACE_PROBABILITY", 1.0); err != nil {
		return Server{}, err
	}
	if cfg.TraceProbability < 0 || cfg.TraceProbability > 1 {
		return Server{}, fmt.Errorf("TRACE_PROBABILITY must be within [0, 1], got %v", cfg.TraceProbability)
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.EventsChannel = getString("ORDER_EVENTS_CHANNEL", "orders.events")

	return cfg, nil
}

// LoadGen holds the load generator settings that come from the environment.
// Tick settings come from command line flags.
type LoadGen struct {
	ServerHost string
	LogLevel   logger.Level
}

// LoadLoadGen builds the load generator configuration from the environment.
func LoadLoadGen() (LoadGen, error) {
	var cfg LoadGen
	cfg.ServerHost = os.Getenv("SERVER_HOST")
	if cfg.ServerHost == "" {
		return LoadGen{}, errors.New("SERVER_HOST is not set")
	}
	var err error
	if cfg.LogLevel, err = logger.ParseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return LoadGen{}, err
	}
	return cfg, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getUint32(key string, def uint32) (uint32, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	return uint32(n), nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", key, err)
	}
	return f, nil
}
