package proto

import (
	"bytes"
	"reflect"
	"testing"

	"planetfall/internal/game"
)

func sampleFull() Full {
	return Full{
		Width:  1280,
		Height: 720,
		Factions: []game.Faction{
			{ID: 0, Color: game.Color{R: 0xE5, G: 0x48, B: 0x3C}},
			{ID: 1, Color: game.Color{R: 0x3C, G: 0x8F, B: 0xE5}},
		},
		Planets: []game.Planet{
			{X: 100, Y: 200, Capacity: 50, Garrison: 25, Owner: 0, Claimant: game.NoFaction},
			{X: 640, Y: 360, Capacity: 32.5, Garrison: 8, Owner: game.NoFaction, Claimant: 1},
		},
		Ships: []game.Starship{
			{Owner: 1, Target: 0, X: 500, Y: 300, VX: -60, VY: 12},
		},
	}
}

func sampleSnapshot() Snapshot {
	return Snapshot{
		Planets: []game.PlanetDelta{
			{Owner: 0, Claimant: game.NoFaction, Garrison: 26.5},
			{Owner: 1, Claimant: 0, Garrison: 3},
		},
		Ships: []game.Starship{
			{Owner: 0, Target: 1, X: 120, Y: 220, VX: 55, VY: -30},
			{Owner: 1, Target: 0, X: 600, Y: 340, VX: -70, VY: 5},
		},
	}
}

func TestFullRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		msg  Full
	}{
		{"populated", sampleFull()},
		{"empty", Full{Width: 800, Height: 600,
			Factions: []game.Faction{}, Planets: []game.Planet{}, Ships: []game.Starship{}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode(EncodeFull(tc.msg))
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if env.Kind != KindFull {
				t.Fatalf("kind = %v, want full", env.Kind)
			}
			if !reflect.DeepEqual(*env.Full, tc.msg) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *env.Full, tc.msg)
			}
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	msg := sampleSnapshot()
	env, err := Decode(EncodeSnapshot(msg))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Kind != KindSnapshot {
		t.Fatalf("kind = %v, want snapshot", env.Kind)
	}
	if !reflect.DeepEqual(*env.Snapshot, msg) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", *env.Snapshot, msg)
	}
}

func TestAssignmentRoundTrip(t *testing.T) {
	env, err := Decode(EncodeAssignment(Assignment{FactionID: 3}))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Kind != KindAssignment || env.Assignment.FactionID != 3 {
		t.Fatalf("got %+v", env)
	}
}

func TestFleetLaunchRoundTrip(t *testing.T) {
	msg := FleetLaunch{Origin: 2, Destination: 7, ShipCount: 12, Owner: 1, Seed: 0xDEADBEEF}
	env, err := Decode(EncodeFleetLaunch(msg))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Kind != KindFleetLaunch {
		t.Fatalf("kind = %v, want fleetLaunch", env.Kind)
	}
	if *env.FleetLaunch != msg {
		t.Fatalf("round trip mismatch: got %+v want %+v", *env.FleetLaunch, msg)
	}
}

func TestMoveOrderRoundTrip(t *testing.T) {
	msg := MoveOrder{Destination: 4, Origins: []uint32{0, 1, 9}}
	buf := EncodeMoveOrder(msg)
	if want := moveOrderHeadSize + len(msg.Origins)*4; len(buf) != want {
		t.Fatalf("encoded size = %d, want %d", len(buf), want)
	}
	env, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Kind != KindMoveOrder || !reflect.DeepEqual(*env.MoveOrder, msg) {
		t.Fatalf("got %+v", env)
	}
}

func TestMoveOrderCountFollowsSlice(t *testing.T) {
	// The wire count is derived from the origins actually present, so a
	// decoded order can never claim more origins than were sent.
	buf := EncodeMoveOrder(MoveOrder{Destination: 1, Origins: []uint32{5}})
	if got := wire.Uint32(buf[8:]); got != 1 {
		t.Fatalf("wire origin count = %d, want 1", got)
	}
}

func TestReencodeReproducesBytes(t *testing.T) {
	// Decoding and re-encoding must reproduce the original datagram byte
	// for byte; the codec carries no hidden normalization.
	cases := []struct {
		name string
		buf  []byte
	}{
		{"full", EncodeFull(sampleFull())},
		{"snapshot", EncodeSnapshot(sampleSnapshot())},
		{"assignment", EncodeAssignment(Assignment{FactionID: 3})},
		{"fleetLaunch", EncodeFleetLaunch(FleetLaunch{Origin: 1, Destination: 2, ShipCount: 9, Owner: 0, Seed: 77})},
		{"moveOrder", EncodeMoveOrder(MoveOrder{Destination: 3, Origins: []uint32{0, 4}})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode(tc.buf)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			var again []byte
			switch env.Kind {
			case KindFull:
				again = EncodeFull(*env.Full)
			case KindSnapshot:
				again = EncodeSnapshot(*env.Snapshot)
			case KindAssignment:
				again = EncodeAssignment(*env.Assignment)
			case KindFleetLaunch:
				again = EncodeFleetLaunch(*env.FleetLaunch)
			case KindMoveOrder:
				again = EncodeMoveOrder(*env.MoveOrder)
			}
			if !bytes.Equal(again, tc.buf) {
				t.Fatalf("re-encode mismatch:\n got %x\nwant %x", again, tc.buf)
			}
		})
	}
}

func TestControlMessages(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		kind Kind
	}{
		{"clientDisconnect", EncodeClientDisconnect(), KindClientDisconnect},
		{"serverShutdown", EncodeServerShutdown(), KindServerShutdown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode(tc.buf)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if env.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", env.Kind, tc.kind)
			}
		})
	}
}

func TestShortAndUnknownDatagramsAreText(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		text string
	}{
		{"empty", nil, ""},
		{"join", []byte("JOIN"), ""},
		{"serverFull", []byte("SERVER_FULL"), "SERVER_FULL"},
		{"threeBytes", []byte{1, 2, 3}, "\x01\x02\x03"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, err := Decode(tc.buf)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if env.Kind != KindText {
				t.Fatalf("kind = %v, want text", env.Kind)
			}
			if tc.text != "" && env.Text != tc.text {
				t.Fatalf("text = %q, want %q", env.Text, tc.text)
			}
		})
	}

	// "JOIN" is exactly four bytes, so it parses as a tag; the tag value
	// is no known kind, and the bytes surface verbatim.
	env, err := Decode([]byte("JOIN"))
	if err != nil || env.Text != "JOIN" {
		t.Fatalf("JOIN fallback: env=%+v err=%v", env, err)
	}
}

func TestEveryTruncationIsRejected(t *testing.T) {
	// Cutting any structured datagram anywhere past the tag must yield an
	// error, never a partial decode or an out-of-range read.
	cases := []struct {
		name string
		buf  []byte
		kind Kind
	}{
		{"full", EncodeFull(sampleFull()), KindFull},
		{"snapshot", EncodeSnapshot(sampleSnapshot()), KindSnapshot},
		{"assignment", EncodeAssignment(Assignment{FactionID: 1}), KindAssignment},
		{"fleetLaunch", EncodeFleetLaunch(FleetLaunch{Origin: 1, Destination: 2, ShipCount: 3, Owner: 0, Seed: 42}), KindFleetLaunch},
		{"moveOrder", EncodeMoveOrder(MoveOrder{Destination: 2, Origins: []uint32{0, 1}}), KindMoveOrder},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for cut := tagSize; cut < len(tc.buf); cut++ {
				env, err := Decode(tc.buf[:cut])
				if err == nil {
					t.Fatalf("cut at %d decoded without error", cut)
				}
				if env.Kind != tc.kind {
					t.Fatalf("cut at %d: error envelope kind = %v, want %v", cut, env.Kind, tc.kind)
				}
			}
		})
	}
}

func TestHostileCountsRejected(t *testing.T) {
	// A header claiming more elements than the payload carries must fail
	// the length check before any element is read, including counts big
	// enough to overflow a 32-bit size computation.
	buf := EncodeSnapshot(Snapshot{})
	wire.PutUint32(buf[4:], 0xFFFFFFFF) // planet count
	env, err := Decode(buf)
	if err != ErrLengthMismatch {
		t.Fatalf("err = %v, want ErrLengthMismatch", err)
	}
	if env.Kind != KindSnapshot {
		t.Fatalf("kind = %v, want snapshot", env.Kind)
	}

	full := EncodeFull(Full{})
	wire.PutUint32(full[20:], 0xFFFFFFFF) // ship count
	if _, err := Decode(full); err != ErrLengthMismatch {
		t.Fatalf("full err = %v, want ErrLengthMismatch", err)
	}

	order := EncodeMoveOrder(MoveOrder{Destination: 0, Origins: []uint32{1}})
	wire.PutUint32(order[8:], 0xFFFFFFFF) // origin count
	if _, err := Decode(order); err != ErrLengthMismatch {
		t.Fatalf("move order err = %v, want ErrLengthMismatch", err)
	}
}

func TestTrailingBytesTolerated(t *testing.T) {
	// Extra bytes past the declared payload decode fine; the counts bound
	// what is read, not the datagram length.
	buf := append(EncodeAssignment(Assignment{FactionID: 2}), 0xAA, 0xBB)
	env, err := Decode(buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if env.Assignment.FactionID != 2 {
		t.Fatalf("faction = %d, want 2", env.Assignment.FactionID)
	}
}
