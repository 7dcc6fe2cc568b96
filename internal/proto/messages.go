// Package proto implements the fixed-layout binary wire format. Every
// datagram is one complete logical message: a 4-byte little-endian type
// tag followed by a fixed header and, for the variable-size records, a
// count-prefixed element array. Element counts arrive from the network
// and are validated against the received length before any element is
// read.
package proto

import (
	"errors"

	"planetfall/internal/game"
)

// Kind tags a decoded message. The zero value KindText marks datagrams
// that are not structured records: anything under 4 bytes or carrying an
// unknown tag is surfaced as opaque text (the pre-protocol status line
// fallback, e.g. "SERVER_FULL").
type Kind uint32

const (
	KindText             Kind = 0
	KindFull             Kind = 1
	KindSnapshot         Kind = 2
	KindAssignment       Kind = 3
	KindFleetLaunch      Kind = 4
	KindMoveOrder        Kind = 5
	KindClientDisconnect Kind = 6
	KindServerShutdown   Kind = 7
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindFull:
		return "full"
	case KindSnapshot:
		return "snapshot"
	case KindAssignment:
		return "assignment"
	case KindFleetLaunch:
		return "fleetLaunch"
	case KindMoveOrder:
		return "moveOrder"
	case KindClientDisconnect:
		return "clientDisconnect"
	case KindServerShutdown:
		return "serverShutdown"
	default:
		return "unknown"
	}
}

var (
	// ErrTruncated reports a datagram shorter than the fixed header its
	// tag requires.
	ErrTruncated = errors.New("proto: truncated message")
	// ErrLengthMismatch reports header counts implying a payload longer
	// than the bytes actually received.
	ErrLengthMismatch = errors.New("proto: declared counts exceed received length")
)

// Fixed wire sizes in bytes.
const (
	tagSize = 4

	fullHeaderSize     = tagSize + 4 + 4 + 4 + 4 + 4
	snapshotHeaderSize = tagSize + 4 + 4
	assignmentSize     = tagSize + 4
	fleetLaunchSize    = tagSize + 4 + 4 + 4 + 4 + 4
	moveOrderHeadSize  = tagSize + 4 + 4

	factionWireSize     = 4 + 3
	planetWireSize      = 4 + 4 + 4 + 4 + 4 + 4
	planetDeltaWireSize = 4 + 4 + 4
	shipWireSize        = 4 + 4 + 4 + 4 + 4 + 4
)

// Full is the complete-state resynchronization record. Applying it
// invalidates every index a client holds against the previous state.
type Full struct {
	Width, Height float32
	Factions      []game.Faction
	Planets       []game.Planet
	Ships         []game.Starship
}

// Snapshot is the periodic delta: mutable planet fields by position plus
// the entire current starship collection.
type Snapshot struct {
	Planets []game.PlanetDelta
	Ships   []game.Starship
}

// Assignment tells a client which faction it controls.
type Assignment struct {
	FactionID game.FactionID
}

// FleetLaunch replicates a launch as a compact command plus the replay
// seed captured immediately before the authoritative spawn.
type FleetLaunch struct {
	Origin      uint32
	Destination uint32
	ShipCount   int32
	Owner       game.FactionID
	Seed        game.ReplaySeed
}

// MoveOrder is the client command: send ships from each origin planet to
// the destination.
type MoveOrder struct {
	Destination uint32
	Origins     []uint32
}

// Envelope is one decoded datagram.
type Envelope struct {
	Kind        Kind
	Full        *Full
	Snapshot    *Snapshot
	Assignment  *Assignment
	FleetLaunch *FleetLaunch
	MoveOrder   *MoveOrder
	Text        string
}
