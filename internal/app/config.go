// Package app wires configuration, the logging router, and the run loops
// for the two binaries.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"planetfall/logging"
	"planetfall/logging/sinks"
)

// ServerConfig is the environment surface of the authoritative host.
type ServerConfig struct {
	Addr             string        `env:"PLANETFALL_ADDR" envDefault:":9700"`
	HTTPAddr         string        `env:"PLANETFALL_HTTP_ADDR" envDefault:":8080"`
	Seed             string        `env:"PLANETFALL_SEED" envDefault:"prospect"`
	MaxClients       int           `env:"PLANETFALL_MAX_CLIENTS" envDefault:"4"`
	AIFactions       int           `env:"PLANETFALL_AI_FACTIONS" envDefault:"1"`
	TickRate         int           `env:"PLANETFALL_TICK_RATE" envDefault:"15"`
	SnapshotTicks    int           `env:"PLANETFALL_SNAPSHOT_TICKS" envDefault:"10"`
	PlanetCount      int           `env:"PLANETFALL_PLANET_COUNT" envDefault:"12"`
	ClientTimeout    time.Duration `env:"PLANETFALL_CLIENT_TIMEOUT" envDefault:"6s"`
	ObserverFeed     bool          `env:"PLANETFALL_OBSERVER_FEED" envDefault:"true"`
	Metrics          bool          `env:"PLANETFALL_METRICS" envDefault:"true"`
	LogJSONPath      string        `env:"PLANETFALL_LOG_JSON"`
	LogDebug         bool          `env:"PLANETFALL_LOG_DEBUG"`
}

// ClientConfig is the environment surface of the headless client.
type ClientConfig struct {
	Server      string        `env:"PLANETFALL_SERVER" envDefault:"127.0.0.1:9700"`
	TickRate    int           `env:"PLANETFALL_TICK_RATE" envDefault:"15"`
	PeerTimeout time.Duration `env:"PLANETFALL_PEER_TIMEOUT" envDefault:"6s"`
	AutoPlay    bool          `env:"PLANETFALL_AUTOPLAY" envDefault:"true"`
	LogDebug    bool          `env:"PLANETFALL_LOG_DEBUG"`
}

// LoadServerConfig parses the server environment.
func LoadServerConfig() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse server env: %w", err)
	}
	return cfg, nil
}

// LoadClientConfig parses the client environment.
func LoadClientConfig() (ClientConfig, error) {
	var cfg ClientConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse client env: %w", err)
	}
	return cfg, nil
}

// newRouter builds the logging router with a console sink and, when a
// path is configured, a JSON file sink.
func newRouter(jsonPath string, debug bool) (*logging.Router, io.Closer, error) {
	cfg := logging.DefaultConfig()
	if debug {
		cfg.MinimumSeverity = logging.SeverityDebug
	}

	named := []logging.NamedSink{
		{Name: "console", Sink: sinks.NewConsoleSink(os.Stdout, cfg.Console)},
	}

	var closer io.Closer
	if jsonPath != "" {
		file, err := os.OpenFile(jsonPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = file
		named = append(named, logging.NamedSink{Name: "json", Sink: sinks.NewJSONSink(file, cfg.JSON)})
		cfg.EnabledSinks = append(cfg.EnabledSinks, "json")
	}

	router, err := logging.NewRouter(logging.SystemClock{}, cfg, named)
	if err != nil {
		return nil, nil, fmt.Errorf("construct logging router: %w", err)
	}
	return router, closer, nil
}
