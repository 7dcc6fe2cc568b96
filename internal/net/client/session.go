// Package client implements the synchronizing side of the protocol: one
// Session owns the socket, the reconciliation phase machine, and the local
// copy of the simulation state.
//
// A Session is single-threaded by contract. All methods are called from
// the host tick loop; the shared state has exactly one writer, so no
// locking exists here.
package client

import (
	"context"
	"errors"
	"fmt"
	stdnet "net"
	"time"

	"planetfall/internal/game"
	pfnet "planetfall/internal/net"
	"planetfall/internal/proto"
	"planetfall/internal/telemetry"
	"planetfall/logging"
	lognet "planetfall/logging/network"
)

// Phase is the reconciliation phase deciding which packet kinds are
// accepted against the local state.
type Phase int

const (
	// PhaseIdle means no session is open.
	PhaseIdle Phase = iota
	// PhaseAwaitingFull means the local state is untrustworthy: only a
	// Full message (or Assignment) is meaningful. Entered on join, after
	// any failed validation, and on reconnect.
	PhaseAwaitingFull
	// PhaseSynced means incremental updates apply.
	PhaseSynced
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingFull:
		return "awaitingFull"
	case PhaseSynced:
		return "synced"
	default:
		return "unknown"
	}
}

// Teardown reasons surfaced to the presenter.
const (
	ReasonServerShutdown = "server shut down"
	ReasonPeerTimeout    = "connection lost"
	ReasonUserExit       = "disconnected"
)

// Presenter is the presentation collaborator. Implementations render
// frames and surface status lines; the session only tells it when the
// user-visible situation changes.
type Presenter interface {
	// Status surfaces a short user-visible status line.
	Status(text string)
	// ResetView clears transient selection/camera state. Called whenever
	// the state is wholesale replaced, because every held index just
	// became invalid.
	ResetView()
}

// NopPresenter discards presentation callbacks.
type NopPresenter struct{}

func (NopPresenter) Status(string) {}
func (NopPresenter) ResetView()    {}

// Config tunes a Session.
type Config struct {
	// Timeout is the liveness bound: exceeding it without any datagram
	// from the bound peer tears the session down like a server shutdown.
	Timeout time.Duration

	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Presenter Presenter
}

func (c Config) normalized() Config {
	if c.Timeout <= 0 {
		c.Timeout = 6 * time.Second
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
	if c.Presenter == nil {
		c.Presenter = NopPresenter{}
	}
	return c
}

// Session is one client connection: socket, bound peer, phase, and the
// local simulation copy.
type Session struct {
	cfg Config

	endpoint *pfnet.Endpoint
	peer     *stdnet.UDPAddr

	phase   Phase
	state   game.State
	faction game.FactionID

	lastHeard time.Time
	tick      uint64

	pendingJoin string
}

// New constructs an idle session.
func New(cfg Config) *Session {
	return &Session{
		cfg:     cfg.normalized(),
		faction: game.NoFaction,
	}
}

// Phase reports the current reconciliation phase.
func (s *Session) Phase() Phase { return s.phase }

// State exposes the local simulation copy. Valid to read between ticks
// only; any Full message replaces its collections wholesale.
func (s *Session) State() *game.State { return &s.state }

// FactionID reports which faction is "mine", or NoFaction before the
// first Assignment.
func (s *Session) FactionID() game.FactionID { return s.faction }

// LocalAddr reports the bound socket address, nil when idle.
func (s *Session) LocalAddr() stdnet.Addr {
	if s.endpoint == nil {
		return nil
	}
	return s.endpoint.LocalAddr()
}

// Join queues a join request for the given server address. At most one
// queued action is processed per tick; a second Join before the tick
// replaces the first.
func (s *Session) Join(addr string) {
	s.pendingJoin = addr
}

// Tick runs one iteration of the session: drain every pending datagram,
// process at most one queued user action, advance the local simulation by
// dt, and check liveness. Nothing in here blocks.
func (s *Session) Tick(now time.Time, dt float64) {
	s.tick++

	s.drain(now)

	if s.pendingJoin != "" {
		addr := s.pendingJoin
		s.pendingJoin = ""
		if err := s.open(addr, now); err != nil {
			s.cfg.Logger.Printf("join %s failed: %v", addr, err)
			s.cfg.Presenter.Status(fmt.Sprintf("join failed: %v", err))
		}
	}

	if s.phase == PhaseSynced && dt > 0 {
		game.Advance(&s.state, dt)
	}

	if s.phase != PhaseIdle && now.Sub(s.lastHeard) > s.cfg.Timeout {
		lognet.PeerTimeout(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), now.Sub(s.lastHeard).Seconds())
		s.teardown(ReasonPeerTimeout, false)
	}
}

// Disconnect performs the voluntary exit: one best-effort ClientDisconnect
// send so the peer slot frees promptly, then local teardown.
func (s *Session) Disconnect() {
	if s.phase == PhaseIdle {
		return
	}
	s.teardown(ReasonUserExit, true)
}

// ErrSelectionMismatch reports a MoveOrder whose claimed origin count
// disagrees with the selection actually supplied.
var ErrSelectionMismatch = errors.New("move order selection mismatch")

// SendMoveOrder encodes and sends one move command. The wire origin count
// is recomputed from the indices actually written; when the caller's
// claimed count disagrees, the order is aborted rather than sent
// malformed or oversized.
func (s *Session) SendMoveOrder(destination int, origins []int, claimed int) error {
	if s.phase != PhaseSynced {
		return fmt.Errorf("not synced")
	}
	if !s.state.PlanetIndexValid(destination) {
		return fmt.Errorf("destination %d out of range", destination)
	}

	written := make([]uint32, 0, len(origins))
	for _, origin := range origins {
		if !s.state.PlanetIndexValid(origin) || origin == destination {
			continue
		}
		written = append(written, uint32(origin))
	}
	if len(written) != claimed {
		return fmt.Errorf("%w: claimed %d wrote %d", ErrSelectionMismatch, claimed, len(written))
	}
	if len(written) == 0 {
		return nil
	}

	payload := proto.EncodeMoveOrder(proto.MoveOrder{
		Destination: uint32(destination),
		Origins:     written,
	})
	if err := s.endpoint.Send(s.peer, payload); err != nil {
		s.cfg.Logger.Printf("move order send failed: %v", err)
		return err
	}
	s.cfg.Metrics.Add("client_move_orders_sent", 1)
	return nil
}

func (s *Session) open(addr string, now time.Time) error {
	peer, err := stdnet.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	if s.endpoint != nil {
		s.endpoint.Close()
	}
	endpoint, err := pfnet.Listen(":0")
	if err != nil {
		return err
	}
	s.endpoint = endpoint
	s.peer = peer
	s.state.Reset()
	s.faction = game.NoFaction
	s.phase = PhaseAwaitingFull
	s.lastHeard = now

	if err := s.endpoint.Send(s.peer, []byte(pfnet.JoinRequest)); err != nil {
		s.cfg.Logger.Printf("join request send failed: %v", err)
	}
	s.cfg.Publisher.Publish(context.Background(), logging.Event{
		Type:     lognet.EventJoinSent,
		Tick:     s.tick,
		Actor:    s.sessionRef(),
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  map[string]string{"addr": addr},
	})
	s.cfg.Presenter.Status("connecting...")
	return nil
}

func (s *Session) drain(now time.Time) {
	if s.endpoint == nil {
		return
	}
	for {
		data, from, ok, err := s.endpoint.Poll()
		if err != nil {
			s.cfg.Logger.Printf("receive failed: %v", err)
			return
		}
		if !ok {
			return
		}
		if !pfnet.SameAddr(from, s.peer) {
			continue
		}
		s.lastHeard = now
		s.cfg.Metrics.Add("client_datagrams_received", 1)
		s.handle(data)
		if s.endpoint == nil {
			// The message tore the session down; the socket is gone.
			return
		}
	}
}

func (s *Session) handle(data []byte) {
	env, err := proto.Decode(data)
	if err != nil {
		s.cfg.Metrics.Add("client_decode_failures", 1)
		lognet.MalformedDatagram(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), lognet.DatagramPayload{Length: len(data), Reason: err.Error()})
		if env.Kind == proto.KindSnapshot {
			// A corrupt delta while synced means the stream can no longer
			// be trusted; fall back to awaiting a full resync.
			s.demote("malformed snapshot")
		}
		return
	}

	switch env.Kind {
	case proto.KindText:
		s.handleText(env.Text)
	case proto.KindFull:
		s.applyFull(env.Full)
	case proto.KindSnapshot:
		s.applySnapshot(env.Snapshot)
	case proto.KindAssignment:
		// Always processed regardless of phase: faction identity is
		// resolved by ID, which survives state replacement.
		s.faction = env.Assignment.FactionID
	case proto.KindFleetLaunch:
		s.applyFleetLaunch(env.FleetLaunch)
	case proto.KindServerShutdown:
		lognet.SessionClosed(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), ReasonServerShutdown)
		s.teardown(ReasonServerShutdown, false)
	case proto.KindClientDisconnect, proto.KindMoveOrder:
		// Server-bound kinds have no meaning here.
		lognet.SemanticDrop(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), lognet.DatagramPayload{Kind: env.Kind.String(), Reason: "server-bound"})
	}
}

func (s *Session) handleText(text string) {
	if text == pfnet.ServerFullReply {
		s.cfg.Publisher.Publish(context.Background(), logging.Event{
			Type:     lognet.EventJoinRejected,
			Tick:     s.tick,
			Actor:    s.sessionRef(),
			Severity: logging.SeverityWarn,
			Category: logging.CategoryNetwork,
		})
		s.teardown("server full", false)
		return
	}
	// Opaque pre-protocol status line; surface, never parse.
	s.cfg.Presenter.Status(text)
}

// applyFull replaces the state wholesale. Valid in both live phases: it
// is the AwaitingFull→Synced transition and the hard resync while Synced.
func (s *Session) applyFull(msg *proto.Full) {
	s.state.Width = msg.Width
	s.state.Height = msg.Height
	s.state.Factions = msg.Factions
	s.state.Planets = msg.Planets
	s.state.Ships = msg.Ships

	wasAwaiting := s.phase == PhaseAwaitingFull
	s.phase = PhaseSynced
	s.cfg.Metrics.Add("client_fulls_applied", 1)

	// Every previously held index is now invalid.
	s.cfg.Presenter.ResetView()
	if wasAwaiting {
		lognet.Synced(context.Background(), s.cfg.Publisher, s.tick, s.sessionRef())
		s.cfg.Presenter.Status("synchronized")
	}
}

func (s *Session) applySnapshot(msg *proto.Snapshot) {
	if s.phase != PhaseSynced {
		// A delta is meaningless without a base.
		lognet.SemanticDrop(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), lognet.DatagramPayload{Kind: "snapshot", Reason: "awaiting full"})
		return
	}
	if !s.state.ApplyPlanetDeltas(msg.Planets) {
		// Positional deltas for a different state version.
		s.demote("snapshot planet count mismatch")
		return
	}
	// Starship identity is not tracked across snapshots; replace wholesale.
	s.state.Ships = msg.Ships
	s.cfg.Metrics.Add("client_snapshots_applied", 1)
}

func (s *Session) applyFleetLaunch(msg *proto.FleetLaunch) {
	if s.phase != PhaseSynced {
		lognet.SemanticDrop(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), lognet.DatagramPayload{Kind: "fleetLaunch", Reason: "awaiting full"})
		return
	}
	seed := msg.Seed
	if !game.LaunchFleet(&s.state, int(msg.Origin), int(msg.Destination),
		int(msg.ShipCount), msg.Owner, &seed) {
		// Out-of-range indices for this state version: drop, never fail.
		// If this launch really happened upstream, the next snapshot
		// corrects us.
		lognet.SemanticDrop(context.Background(), s.cfg.Publisher, s.tick,
			s.sessionRef(), lognet.DatagramPayload{Kind: "fleetLaunch", Reason: "invalid indices"})
		return
	}
	s.cfg.Metrics.Add("client_launches_replayed", 1)
}

// demote falls back to AwaitingFull after a failed validation while
// keeping the session open: the next Full restores sync.
func (s *Session) demote(reason string) {
	if s.phase != PhaseSynced {
		return
	}
	s.phase = PhaseAwaitingFull
	lognet.DesyncDemotion(context.Background(), s.cfg.Publisher, s.tick,
		s.sessionRef(), reason)
	s.cfg.Presenter.Status("resynchronizing...")
}

// teardown closes the transport, clears state, and returns to the
// pre-join phase. Terminal for the session, not the process: a later
// Join starts fresh.
func (s *Session) teardown(reason string, sendDisconnect bool) {
	if sendDisconnect && s.endpoint != nil && s.peer != nil {
		// Fire-and-forget so the peer slot frees faster than the
		// timeout path; no retry.
		if err := s.endpoint.Send(s.peer, proto.EncodeClientDisconnect()); err != nil {
			s.cfg.Logger.Printf("disconnect send failed: %v", err)
		}
	}
	if s.endpoint != nil {
		s.endpoint.Close()
		s.endpoint = nil
	}
	s.peer = nil
	s.state.Reset()
	s.faction = game.NoFaction
	s.phase = PhaseIdle
	s.cfg.Presenter.ResetView()
	s.cfg.Presenter.Status(reason)
	lognet.SessionClosed(context.Background(), s.cfg.Publisher, s.tick,
		s.sessionRef(), reason)
}

func (s *Session) sessionRef() logging.EntityRef {
	return logging.EntityRef{ID: "client", Kind: logging.EntityKindSession}
}
