package observability

// Config captures opt-in observability toggles that wire into the server.
type Config struct {
	// EnableObserverFeed exposes the websocket state stream on /observe.
	EnableObserverFeed bool
	// EnableMetrics exposes the Prometheus registry on /metrics.
	EnableMetrics bool
}
