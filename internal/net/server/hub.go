// Package server implements the authoritative hub: slot table, join
// handshake, the fixed-timestep simulation loop, and the three-tier
// replication path (full, snapshot, fleet launch).
package server

import (
	"context"
	"fmt"
	stdnet "net"
	"sync"
	"time"

	"planetfall/internal/ai"
	"planetfall/internal/game"
	pfnet "planetfall/internal/net"
	"planetfall/internal/proto"
	"planetfall/internal/telemetry"
	"planetfall/logging"
	lognet "planetfall/logging/network"
	logsim "planetfall/logging/simulation"
)

// HubConfig tunes the authoritative host.
type HubConfig struct {
	Addr             string
	Seed             string
	MaxClients       int
	AIFactions       int
	TickRate         int
	SnapshotInterval int // ticks between delta broadcasts
	AIPlanInterval   int // ticks between AI planning passes
	ClientTimeout    time.Duration
	MapWidth         float32
	MapHeight        float32
	PlanetCount      int

	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
}

// DefaultHubConfig returns the stock tuning.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Addr:             ":9700",
		Seed:             game.DefaultSeed,
		MaxClients:       4,
		AIFactions:       0,
		TickRate:         15,
		SnapshotInterval: 10,
		AIPlanInterval:   30,
		ClientTimeout:    6 * time.Second,
	}
}

func (c HubConfig) normalized() HubConfig {
	if c.Addr == "" {
		c.Addr = ":9700"
	}
	if c.Seed == "" {
		c.Seed = game.DefaultSeed
	}
	if c.MaxClients <= 0 {
		c.MaxClients = 4
	}
	if c.AIFactions < 0 {
		c.AIFactions = 0
	}
	if c.TickRate <= 0 {
		c.TickRate = 15
	}
	if c.SnapshotInterval <= 0 {
		c.SnapshotInterval = 10
	}
	if c.AIPlanInterval <= 0 {
		c.AIPlanInterval = 30
	}
	if c.ClientTimeout <= 0 {
		c.ClientTimeout = 6 * time.Second
	}
	if c.Logger == nil {
		c.Logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if c.Metrics == nil {
		c.Metrics = telemetry.NopMetrics{}
	}
	if c.Publisher == nil {
		c.Publisher = logging.NopPublisher()
	}
	return c
}

// Fraction of the origin garrison committed per launch.
const launchFraction = 0.5

var factionPalette = []game.Color{
	{R: 0xE5, G: 0x48, B: 0x3C},
	{R: 0x3C, G: 0x8F, B: 0xE5},
	{R: 0x46, G: 0xC1, B: 0x5A},
	{R: 0xE5, G: 0xB8, B: 0x3C},
	{R: 0xB0, G: 0x5C, B: 0xE0},
	{R: 0x40, G: 0xC8, B: 0xC0},
	{R: 0xE0, G: 0x6E, B: 0xA8},
	{R: 0x9A, G: 0xA0, B: 0x5A},
}

type slot struct {
	faction   game.FactionID
	addr      *stdnet.UDPAddr
	lastHeard time.Time
	active    bool
}

// Hub owns the authoritative state, the socket, and every client slot.
// The tick goroutine is the only writer; the mutex exists for the
// diagnostics and observer readers.
type Hub struct {
	mu       sync.Mutex
	cfg      HubConfig
	endpoint *pfnet.Endpoint

	state      *game.State
	seed       game.ReplaySeed
	slots      []slot
	aiPolicies map[game.FactionID]ai.Policy
	prevOwners []game.FactionID

	tick   uint64
	closed bool
}

// NewHub binds the socket and generates the authoritative starting state.
// A bind failure is fatal to session setup, never to the caller's process.
func NewHub(cfg HubConfig) (*Hub, error) {
	cfg = cfg.normalized()

	endpoint, err := pfnet.Listen(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("hub transport: %w", err)
	}

	total := cfg.MaxClients + cfg.AIFactions
	factions := make([]game.Faction, 0, total)
	for i := 0; i < total; i++ {
		factions = append(factions, game.Faction{
			ID:    game.FactionID(i),
			Color: factionPalette[i%len(factionPalette)],
		})
	}

	state := game.Generate(game.GenerateConfig{
		Seed:        cfg.Seed,
		Width:       cfg.MapWidth,
		Height:      cfg.MapHeight,
		PlanetCount: cfg.PlanetCount,
		Factions:    factions,
	})

	h := &Hub{
		cfg:        cfg,
		endpoint:   endpoint,
		state:      state,
		seed:       game.ReplaySeed(game.DeterministicSeedValue(cfg.Seed, "replay")),
		slots:      make([]slot, cfg.MaxClients),
		aiPolicies: make(map[game.FactionID]ai.Policy),
	}
	for i := range h.slots {
		h.slots[i].faction = game.FactionID(i)
	}
	for i := 0; i < cfg.AIFactions; i++ {
		h.aiPolicies[game.FactionID(cfg.MaxClients+i)] = ai.ReinforceOrRaid{}
	}
	h.rememberOwners()
	return h, nil
}

// LocalAddr reports the bound UDP address.
func (h *Hub) LocalAddr() stdnet.Addr {
	return h.endpoint.LocalAddr()
}

// Run drives the fixed-rate tick loop until the stop channel closes, then
// broadcasts the shutdown notice.
func (h *Hub) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / time.Duration(h.cfg.TickRate))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			h.Shutdown()
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(h.cfg.TickRate)
			}
			last = now
			h.Tick(now, dt)
		}
	}
}

// Tick runs one authoritative step: drain the socket, sweep dead slots,
// run AI planning, advance the simulation, broadcast on cadence.
func (h *Hub) Tick(now time.Time, dt float64) {
	started := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.tick++

	h.drainLocked(now)
	h.sweepTimeoutsLocked(now)

	if h.tick%uint64(h.cfg.AIPlanInterval) == 0 {
		h.runAILocked()
	}

	game.Advance(h.state, dt)
	h.publishCapturesLocked()

	if h.tick%uint64(h.cfg.SnapshotInterval) == 0 {
		h.broadcastSnapshotLocked()
	}
	h.cfg.Metrics.Store("server_tick", h.tick)
	h.cfg.Metrics.Store("server_ships", uint64(len(h.state.Ships)))
	h.cfg.Metrics.Store("server_tick_duration_us", uint64(time.Since(started).Microseconds()))
}

// Shutdown broadcasts ServerShutdown to every active slot and closes the
// transport. Idempotent.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	payload := proto.EncodeServerShutdown()
	for i := range h.slots {
		if h.slots[i].active {
			h.sendLocked(h.slots[i].addr, payload)
			h.slots[i].active = false
		}
	}
	h.endpoint.Close()
}

func (h *Hub) drainLocked(now time.Time) {
	for {
		data, from, ok, err := h.endpoint.Poll()
		if err != nil {
			if !h.closed {
				h.cfg.Logger.Printf("receive failed: %v", err)
			}
			return
		}
		if !ok {
			return
		}
		h.cfg.Metrics.Add("server_datagrams_received", 1)
		h.handleDatagramLocked(data, from, now)
	}
}

func (h *Hub) handleDatagramLocked(data []byte, from *stdnet.UDPAddr, now time.Time) {
	env, err := proto.Decode(data)
	if err != nil {
		h.cfg.Metrics.Add("server_decode_failures", 1)
		lognet.MalformedDatagram(context.Background(), h.cfg.Publisher, h.tick,
			h.slotRef(from), lognet.DatagramPayload{Length: len(data), Reason: err.Error()})
		return
	}

	if env.Kind == proto.KindText {
		if env.Text == pfnet.JoinRequest {
			h.handleJoinLocked(from, now)
		} else {
			h.cfg.Logger.Printf("ignoring text datagram %q from %s", env.Text, from)
		}
		return
	}

	idx := h.slotByAddrLocked(from)
	if idx < 0 {
		// Structured traffic from an unbound source: discard.
		return
	}
	h.slots[idx].lastHeard = now

	switch env.Kind {
	case proto.KindMoveOrder:
		h.applyMoveOrderLocked(h.slots[idx].faction, env.MoveOrder)
	case proto.KindClientDisconnect:
		h.releaseSlotLocked(idx, "client disconnect")
	default:
		lognet.SemanticDrop(context.Background(), h.cfg.Publisher, h.tick,
			h.slotRef(from), lognet.DatagramPayload{Kind: env.Kind.String(), Reason: "client-bound"})
	}
}

func (h *Hub) handleJoinLocked(from *stdnet.UDPAddr, now time.Time) {
	idx := h.slotByAddrLocked(from)
	if idx < 0 {
		for i := range h.slots {
			if !h.slots[i].active {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		h.sendLocked(from, []byte(pfnet.ServerFullReply))
		h.cfg.Metrics.Add("server_joins_rejected", 1)
		return
	}

	s := &h.slots[idx]
	s.addr = from
	s.lastHeard = now
	if !s.active {
		s.active = true
		lognet.SlotAssigned(context.Background(), h.cfg.Publisher, h.tick,
			h.factionRef(s.faction), from.String())
	}

	// Full first so the assignment lands against a valid state version.
	h.sendLocked(from, proto.EncodeFull(h.fullMessageLocked()))
	h.sendLocked(from, proto.EncodeAssignment(proto.Assignment{FactionID: s.faction}))
	h.cfg.Metrics.Add("server_joins_accepted", 1)
}

// applyMoveOrderLocked validates and executes one move command. Orders
// off the wire and orders from an AI policy take the identical path.
func (h *Hub) applyMoveOrderLocked(faction game.FactionID, order *proto.MoveOrder) {
	if order == nil {
		return
	}
	dest := int(order.Destination)
	if !h.state.PlanetIndexValid(dest) {
		logsim.LaunchRejected(context.Background(), h.cfg.Publisher, h.tick,
			h.factionRef(faction), logsim.LaunchPayload{Destination: dest, Reason: "destination out of range"})
		return
	}

	seen := make(map[uint32]struct{}, len(order.Origins))
	for _, rawOrigin := range order.Origins {
		if _, dup := seen[rawOrigin]; dup {
			continue
		}
		seen[rawOrigin] = struct{}{}

		origin := int(rawOrigin)
		if !h.state.PlanetIndexValid(origin) || origin == dest {
			continue
		}
		planet := &h.state.Planets[origin]
		if planet.Owner != faction {
			// Not this faction's planet; skip the origin, not the order.
			logsim.LaunchRejected(context.Background(), h.cfg.Publisher, h.tick,
				h.factionRef(faction), logsim.LaunchPayload{Origin: origin, Destination: dest, Reason: "not owner"})
			continue
		}
		count := int(planet.Garrison * launchFraction)
		if count < 1 {
			continue
		}

		// Capture the seed word before spawning; that exact word ships
		// with the event so every client replays the same draws.
		seedBefore := h.seed
		if !game.LaunchFleet(h.state, origin, dest, count, faction, &h.seed) {
			continue
		}
		h.broadcastLocked(proto.EncodeFleetLaunch(proto.FleetLaunch{
			Origin:      uint32(origin),
			Destination: uint32(dest),
			ShipCount:   int32(count),
			Owner:       faction,
			Seed:        seedBefore,
		}))
		h.cfg.Metrics.Add("server_fleet_launches", 1)
		logsim.FleetLaunched(context.Background(), h.cfg.Publisher, h.tick,
			h.factionRef(faction), logsim.LaunchPayload{
				Origin: origin, Destination: dest, ShipCount: count, Seed: uint32(seedBefore),
			})
	}
}

func (h *Hub) runAILocked() {
	for faction, policy := range h.aiPolicies {
		for _, intent := range policy.Plan(h.state, faction) {
			h.applyMoveOrderLocked(faction, &proto.MoveOrder{
				Destination: uint32(intent.Destination),
				Origins:     []uint32{uint32(intent.Origin)},
			})
		}
	}
}

func (h *Hub) sweepTimeoutsLocked(now time.Time) {
	for i := range h.slots {
		s := &h.slots[i]
		if s.active && now.Sub(s.lastHeard) > h.cfg.ClientTimeout {
			h.releaseSlotLocked(i, "timeout")
		}
	}
}

func (h *Hub) releaseSlotLocked(idx int, reason string) {
	s := &h.slots[idx]
	if !s.active {
		return
	}
	s.active = false
	s.addr = nil
	lognet.SlotReleased(context.Background(), h.cfg.Publisher, h.tick,
		h.factionRef(s.faction), reason)
	h.cfg.Metrics.Add("server_slots_released", 1)
}

func (h *Hub) publishCapturesLocked() {
	if len(h.prevOwners) != len(h.state.Planets) {
		h.rememberOwners()
		return
	}
	for i, planet := range h.state.Planets {
		if planet.Owner != h.prevOwners[i] && planet.Owner != game.NoFaction {
			h.cfg.Publisher.Publish(context.Background(), logging.Event{
				Type:     logsim.EventPlanetCaptured,
				Tick:     h.tick,
				Actor:    h.factionRef(planet.Owner),
				Severity: logging.SeverityInfo,
				Category: logging.CategorySimulation,
				Payload:  map[string]int{"planet": i},
			})
			h.cfg.Metrics.Add("server_planet_captures", 1)
		}
		h.prevOwners[i] = planet.Owner
	}
}

func (h *Hub) rememberOwners() {
	h.prevOwners = make([]game.FactionID, len(h.state.Planets))
	for i, planet := range h.state.Planets {
		h.prevOwners[i] = planet.Owner
	}
}

func (h *Hub) fullMessageLocked() proto.Full {
	snap := h.state.Snapshot()
	return proto.Full{
		Width:    snap.Width,
		Height:   snap.Height,
		Factions: snap.Factions,
		Planets:  snap.Planets,
		Ships:    snap.Ships,
	}
}

func (h *Hub) snapshotMessageLocked() proto.Snapshot {
	deltas := make([]game.PlanetDelta, len(h.state.Planets))
	for i, planet := range h.state.Planets {
		deltas[i] = game.PlanetDelta{
			Owner:    planet.Owner,
			Claimant: planet.Claimant,
			Garrison: planet.Garrison,
		}
	}
	return proto.Snapshot{
		Planets: deltas,
		Ships:   append([]game.Starship(nil), h.state.Ships...),
	}
}

func (h *Hub) broadcastSnapshotLocked() {
	payload := proto.EncodeSnapshot(h.snapshotMessageLocked())
	h.broadcastLocked(payload)
	h.cfg.Metrics.Add("server_snapshots_sent", 1)
}

func (h *Hub) broadcastLocked(payload []byte) {
	for i := range h.slots {
		if h.slots[i].active {
			h.sendLocked(h.slots[i].addr, payload)
		}
	}
}

func (h *Hub) sendLocked(to *stdnet.UDPAddr, payload []byte) {
	if err := h.endpoint.Send(to, payload); err != nil {
		// Fire-and-forget: log, never retry.
		h.cfg.Logger.Printf("send to %s failed: %v", to, err)
		return
	}
	h.cfg.Metrics.Add("server_datagrams_sent", 1)
}

func (h *Hub) slotByAddrLocked(addr *stdnet.UDPAddr) int {
	for i := range h.slots {
		if h.slots[i].active && pfnet.SameAddr(h.slots[i].addr, addr) {
			return i
		}
	}
	return -1
}

func (h *Hub) slotRef(addr *stdnet.UDPAddr) logging.EntityRef {
	if idx := h.slotByAddrLocked(addr); idx >= 0 {
		return h.factionRef(h.slots[idx].faction)
	}
	return logging.EntityRef{ID: addr.String(), Kind: logging.EntityKindSession}
}

func (h *Hub) factionRef(id game.FactionID) logging.EntityRef {
	return logging.EntityRef{ID: fmt.Sprintf("faction-%d", id), Kind: logging.EntityKindFaction}
}
