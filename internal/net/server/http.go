package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"planetfall/internal/observability"
	"planetfall/internal/telemetry"
	"planetfall/logging"
)

// HTTPHandlerConfig wires the diagnostics surface.
type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Observability observability.Config
	Registry      *prometheus.Registry
	// RouterStats, when set, adds the logging router's delivery counters
	// to the diagnostics document.
	RouterStats func() logging.RouterStats
	// ObserveInterval throttles the websocket state feed.
	ObserveInterval time.Duration
}

var observeUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	// The feed is a same-host diagnostics tool, not a public surface.
	CheckOrigin: func(*http.Request) bool { return true },
}

// NewHTTPHandler builds the diagnostics mux: health, slot table, the
// optional websocket observer feed, and the optional metrics registry.
func NewHTTPHandler(hub *Hub, cfg HTTPHandlerConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	interval := cfg.ObserveInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w http.ResponseWriter, r *http.Request) {
		doc := struct {
			Diagnostics
			Logging *logging.RouterStats `json:"logging,omitempty"`
		}{Diagnostics: hub.Diagnostics(time.Now())}
		if cfg.RouterStats != nil {
			stats := cfg.RouterStats()
			doc.Logging = &stats
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			logger.Printf("failed to encode diagnostics: %v", err)
		}
	})

	if cfg.Observability.EnableObserverFeed {
		mux.HandleFunc("/observe", func(w http.ResponseWriter, r *http.Request) {
			conn, err := observeUpgrader.Upgrade(w, r, nil)
			if err != nil {
				logger.Printf("observer upgrade failed: %v", err)
				return
			}
			go serveObserver(hub, conn, interval, logger)
		})
	}

	if cfg.Observability.EnableMetrics && cfg.Registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}

	return mux
}

// serveObserver streams state snapshots until the peer goes away. The
// feed reads value copies only; it never touches hub internals.
func serveObserver(hub *Hub, conn *websocket.Conn, interval time.Duration, logger telemetry.Logger) {
	defer conn.Close()

	// Drain control frames so pings and close handshakes are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		snapshot := hub.StateSnapshot()
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(snapshot); err != nil {
			logger.Printf("observer feed ended: %v", err)
			return
		}
	}
}
