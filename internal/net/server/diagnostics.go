package server

import (
	"time"

	"planetfall/internal/game"
)

// SlotDiagnostics exposes one slot's liveness data.
type SlotDiagnostics struct {
	Faction       int32   `json:"faction"`
	Addr          string  `json:"addr,omitempty"`
	Active        bool    `json:"active"`
	SilentSeconds float64 `json:"silentSeconds,omitempty"`
}

// Diagnostics is the hub's health snapshot for the HTTP endpoint.
type Diagnostics struct {
	Tick    uint64            `json:"tick"`
	Planets int               `json:"planets"`
	Ships   int               `json:"ships"`
	Slots   []SlotDiagnostics `json:"slots"`
}

// Diagnostics copies the slot table for the diagnostics endpoint.
func (h *Hub) Diagnostics(now time.Time) Diagnostics {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := Diagnostics{
		Tick:    h.tick,
		Planets: len(h.state.Planets),
		Ships:   len(h.state.Ships),
		Slots:   make([]SlotDiagnostics, 0, len(h.slots)),
	}
	for _, s := range h.slots {
		d := SlotDiagnostics{Faction: int32(s.faction), Active: s.active}
		if s.active {
			d.Addr = s.addr.String()
			d.SilentSeconds = now.Sub(s.lastHeard).Seconds()
		}
		out.Slots = append(out.Slots, d)
	}
	return out
}

// StateSnapshot copies the authoritative state for the observer feed.
func (h *Hub) StateSnapshot() game.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Snapshot()
}
