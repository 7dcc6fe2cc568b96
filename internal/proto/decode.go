package proto

import (
	"math"

	"planetfall/internal/game"
)

type reader struct {
	buf []byte
	off int
	ok  bool
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) u8() uint8 {
	if r.remaining() < 1 {
		r.ok = false
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u32() uint32 {
	if r.remaining() < 4 {
		r.ok = false
		return 0
	}
	v := wire.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

func (r *reader) i32() int32   { return int32(r.u32()) }
func (r *reader) f32() float32 { return math.Float32frombits(r.u32()) }

func (r *reader) ship() game.Starship {
	return game.Starship{
		Owner:  game.FactionID(r.u32()),
		Target: r.i32(),
		X:      r.f32(),
		Y:      r.f32(),
		VX:     r.f32(),
		VY:     r.f32(),
	}
}

// Decode parses one datagram. Datagrams under 4 bytes or with an unknown
// tag are returned as KindText, never an error: the transport is allowed
// to carry pre-protocol status lines and hostile garbage alike.
//
// For structured records the fixed header is length-checked first, then
// the header-embedded counts are validated against the received length
// before any element is read: the counts are corruption-controlled and
// must never drive an out-of-range read. On error the returned envelope
// still carries the declared Kind, so callers can react per message kind.
func Decode(buf []byte) (Envelope, error) {
	if len(buf) < tagSize {
		return Envelope{Kind: KindText, Text: string(buf)}, nil
	}

	kind := Kind(wire.Uint32(buf))
	switch kind {
	case KindFull:
		return decodeFull(buf)
	case KindSnapshot:
		return decodeSnapshot(buf)
	case KindAssignment:
		return decodeAssignment(buf)
	case KindFleetLaunch:
		return decodeFleetLaunch(buf)
	case KindMoveOrder:
		return decodeMoveOrder(buf)
	case KindClientDisconnect:
		return Envelope{Kind: KindClientDisconnect}, nil
	case KindServerShutdown:
		return Envelope{Kind: KindServerShutdown}, nil
	default:
		return Envelope{Kind: KindText, Text: string(buf)}, nil
	}
}

// payloadFits checks count*elemSize bytes are present past offset,
// computing in uint64 so hostile counts cannot overflow the check itself.
func payloadFits(buf []byte, offset int, counts ...[2]uint64) bool {
	need := uint64(offset)
	for _, c := range counts {
		need += c[0] * c[1]
	}
	return need <= uint64(len(buf))
}

func decodeFull(buf []byte) (Envelope, error) {
	if len(buf) < fullHeaderSize {
		return Envelope{Kind: KindFull}, ErrTruncated
	}
	r := &reader{buf: buf, off: tagSize, ok: true}
	width := r.f32()
	height := r.f32()
	factionCount := r.u32()
	planetCount := r.u32()
	shipCount := r.u32()

	if !payloadFits(buf, fullHeaderSize,
		[2]uint64{uint64(factionCount), factionWireSize},
		[2]uint64{uint64(planetCount), planetWireSize},
		[2]uint64{uint64(shipCount), shipWireSize},
	) {
		return Envelope{Kind: KindFull}, ErrLengthMismatch
	}

	msg := &Full{Width: width, Height: height}
	msg.Factions = make([]game.Faction, 0, factionCount)
	for i := uint32(0); i < factionCount; i++ {
		msg.Factions = append(msg.Factions, game.Faction{
			ID:    game.FactionID(r.u32()),
			Color: game.Color{R: r.u8(), G: r.u8(), B: r.u8()},
		})
	}
	msg.Planets = make([]game.Planet, 0, planetCount)
	for i := uint32(0); i < planetCount; i++ {
		msg.Planets = append(msg.Planets, game.Planet{
			X:        r.f32(),
			Y:        r.f32(),
			Capacity: r.f32(),
			Garrison: r.f32(),
			Owner:    game.FactionID(r.i32()),
			Claimant: game.FactionID(r.i32()),
		})
	}
	msg.Ships = make([]game.Starship, 0, shipCount)
	for i := uint32(0); i < shipCount; i++ {
		msg.Ships = append(msg.Ships, r.ship())
	}
	if !r.ok {
		return Envelope{Kind: KindFull}, ErrTruncated
	}
	return Envelope{Kind: KindFull, Full: msg}, nil
}

func decodeSnapshot(buf []byte) (Envelope, error) {
	if len(buf) < snapshotHeaderSize {
		return Envelope{Kind: KindSnapshot}, ErrTruncated
	}
	r := &reader{buf: buf, off: tagSize, ok: true}
	planetCount := r.u32()
	shipCount := r.u32()

	if !payloadFits(buf, snapshotHeaderSize,
		[2]uint64{uint64(planetCount), planetDeltaWireSize},
		[2]uint64{uint64(shipCount), shipWireSize},
	) {
		return Envelope{Kind: KindSnapshot}, ErrLengthMismatch
	}

	msg := &Snapshot{}
	msg.Planets = make([]game.PlanetDelta, 0, planetCount)
	for i := uint32(0); i < planetCount; i++ {
		msg.Planets = append(msg.Planets, game.PlanetDelta{
			Owner:    game.FactionID(r.i32()),
			Claimant: game.FactionID(r.i32()),
			Garrison: r.f32(),
		})
	}
	msg.Ships = make([]game.Starship, 0, shipCount)
	for i := uint32(0); i < shipCount; i++ {
		msg.Ships = append(msg.Ships, r.ship())
	}
	if !r.ok {
		return Envelope{Kind: KindSnapshot}, ErrTruncated
	}
	return Envelope{Kind: KindSnapshot, Snapshot: msg}, nil
}

func decodeAssignment(buf []byte) (Envelope, error) {
	if len(buf) < assignmentSize {
		return Envelope{Kind: KindAssignment}, ErrTruncated
	}
	r := &reader{buf: buf, off: tagSize, ok: true}
	return Envelope{Kind: KindAssignment, Assignment: &Assignment{
		FactionID: game.FactionID(r.u32()),
	}}, nil
}

func decodeFleetLaunch(buf []byte) (Envelope, error) {
	if len(buf) < fleetLaunchSize {
		return Envelope{Kind: KindFleetLaunch}, ErrTruncated
	}
	r := &reader{buf: buf, off: tagSize, ok: true}
	return Envelope{Kind: KindFleetLaunch, FleetLaunch: &FleetLaunch{
		Origin:      r.u32(),
		Destination: r.u32(),
		ShipCount:   r.i32(),
		Owner:       game.FactionID(r.u32()),
		Seed:        game.ReplaySeed(r.u32()),
	}}, nil
}

func decodeMoveOrder(buf []byte) (Envelope, error) {
	if len(buf) < moveOrderHeadSize {
		return Envelope{Kind: KindMoveOrder}, ErrTruncated
	}
	r := &reader{buf: buf, off: tagSize, ok: true}
	destination := r.u32()
	originCount := r.u32()

	if !payloadFits(buf, moveOrderHeadSize, [2]uint64{uint64(originCount), 4}) {
		return Envelope{Kind: KindMoveOrder}, ErrLengthMismatch
	}

	msg := &MoveOrder{Destination: destination}
	msg.Origins = make([]uint32, 0, originCount)
	for i := uint32(0); i < originCount; i++ {
		msg.Origins = append(msg.Origins, r.u32())
	}
	return Envelope{Kind: KindMoveOrder, MoveOrder: msg}, nil
}
