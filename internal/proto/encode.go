package proto

import (
	"encoding/binary"
	"math"

	"planetfall/internal/game"
)

var wire = binary.LittleEndian

type writer struct {
	buf []byte
}

func newWriter(size int) *writer {
	return &writer{buf: make([]byte, 0, size)}
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = wire.AppendUint32(w.buf, v) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *writer) ship(s game.Starship) {
	w.u32(uint32(s.Owner))
	w.u32(uint32(s.Target))
	w.f32(s.X)
	w.f32(s.Y)
	w.f32(s.VX)
	w.f32(s.VY)
}

// EncodeFull renders a complete-state record.
func EncodeFull(msg Full) []byte {
	size := fullHeaderSize +
		len(msg.Factions)*factionWireSize +
		len(msg.Planets)*planetWireSize +
		len(msg.Ships)*shipWireSize
	w := newWriter(size)

	w.u32(uint32(KindFull))
	w.f32(msg.Width)
	w.f32(msg.Height)
	w.u32(uint32(len(msg.Factions)))
	w.u32(uint32(len(msg.Planets)))
	w.u32(uint32(len(msg.Ships)))

	for _, f := range msg.Factions {
		w.u32(uint32(f.ID))
		w.u8(f.Color.R)
		w.u8(f.Color.G)
		w.u8(f.Color.B)
	}
	for _, p := range msg.Planets {
		w.f32(p.X)
		w.f32(p.Y)
		w.f32(p.Capacity)
		w.f32(p.Garrison)
		w.i32(int32(p.Owner))
		w.i32(int32(p.Claimant))
	}
	for _, s := range msg.Ships {
		w.ship(s)
	}
	return w.buf
}

// EncodeSnapshot renders a delta record.
func EncodeSnapshot(msg Snapshot) []byte {
	size := snapshotHeaderSize +
		len(msg.Planets)*planetDeltaWireSize +
		len(msg.Ships)*shipWireSize
	w := newWriter(size)

	w.u32(uint32(KindSnapshot))
	w.u32(uint32(len(msg.Planets)))
	w.u32(uint32(len(msg.Ships)))

	for _, d := range msg.Planets {
		w.i32(int32(d.Owner))
		w.i32(int32(d.Claimant))
		w.f32(d.Garrison)
	}
	for _, s := range msg.Ships {
		w.ship(s)
	}
	return w.buf
}

// EncodeAssignment renders a faction assignment.
func EncodeAssignment(msg Assignment) []byte {
	w := newWriter(assignmentSize)
	w.u32(uint32(KindAssignment))
	w.u32(uint32(msg.FactionID))
	return w.buf
}

// EncodeFleetLaunch renders a launch event.
func EncodeFleetLaunch(msg FleetLaunch) []byte {
	w := newWriter(fleetLaunchSize)
	w.u32(uint32(KindFleetLaunch))
	w.u32(msg.Origin)
	w.u32(msg.Destination)
	w.i32(msg.ShipCount)
	w.u32(uint32(msg.Owner))
	w.u32(uint32(msg.Seed))
	return w.buf
}

// EncodeMoveOrder renders a move command. The origin count on the wire is
// computed from the indices actually written, never from a caller claim.
func EncodeMoveOrder(msg MoveOrder) []byte {
	w := newWriter(moveOrderHeadSize + len(msg.Origins)*4)
	w.u32(uint32(KindMoveOrder))
	w.u32(msg.Destination)
	w.u32(uint32(len(msg.Origins)))
	for _, origin := range msg.Origins {
		w.u32(origin)
	}
	return w.buf
}

// EncodeClientDisconnect renders the voluntary-exit notice.
func EncodeClientDisconnect() []byte {
	w := newWriter(tagSize)
	w.u32(uint32(KindClientDisconnect))
	return w.buf
}

// EncodeServerShutdown renders the session-terminal shutdown notice.
func EncodeServerShutdown() []byte {
	w := newWriter(tagSize)
	w.u32(uint32(KindServerShutdown))
	return w.buf
}
