package game

// FactionID identifies a faction. IDs are stable across reconnects and
// across wholesale state replacement, unlike positions or pointers.
type FactionID int32

// NoFaction marks a neutral planet or an unresolved claimant.
const NoFaction FactionID = -1

// Color is the faction's display color.
type Color struct {
	R, G, B uint8
}

// Faction is a participant contesting the map.
type Faction struct {
	ID    FactionID
	Color Color
}

// Planet is a capture point. Owner and Claimant reference factions by ID;
// both may be NoFaction. Garrison is continuous because owned planets
// regenerate fractionally every tick.
type Planet struct {
	X, Y     float32
	Capacity float32
	Garrison float32
	Owner    FactionID
	Claimant FactionID
}

// Starship is a single ship in flight toward a target planet. Ships carry
// no identity across snapshots; the collection is replaced wholesale.
type Starship struct {
	Owner  FactionID
	Target int32
	X, Y   float32
	VX, VY float32
}

// State is the aggregate simulation state shared between server and
// clients. Factions, planets, and ships are positionally addressed, so any
// index is valid only against the state version it was generated for.
type State struct {
	Width, Height float32
	Factions      []Faction
	Planets       []Planet
	Ships         []Starship
}

// Reset releases all collections, returning the state to the empty shape
// that awaits a full resync.
func (s *State) Reset() {
	s.Width = 0
	s.Height = 0
	s.Factions = nil
	s.Planets = nil
	s.Ships = nil
}

// FactionByID resolves a faction by its stable ID.
func (s *State) FactionByID(id FactionID) (Faction, bool) {
	for _, f := range s.Factions {
		if f.ID == id {
			return f, true
		}
	}
	return Faction{}, false
}

// PlanetIndexValid reports whether idx addresses a planet in this state
// version.
func (s *State) PlanetIndexValid(idx int) bool {
	return idx >= 0 && idx < len(s.Planets)
}

// ClampGarrisons forces every garrison into [0, capacity]. The
// authoritative side runs this each tick; clients may transiently violate
// the range while awaiting correction.
func (s *State) ClampGarrisons() {
	for i := range s.Planets {
		p := &s.Planets[i]
		if p.Garrison < 0 {
			p.Garrison = 0
		}
		if p.Garrison > p.Capacity {
			p.Garrison = p.Capacity
		}
	}
}

// PlanetDelta carries the mutable planet fields resent by snapshots.
// Position and capacity never change after generation and are not resent.
type PlanetDelta struct {
	Owner    FactionID
	Claimant FactionID
	Garrison float32
}

// ApplyPlanetDeltas overwrites the mutable fields of each planet by
// position. It refuses mismatched lengths because deltas are positional
// and a mismatch means the snapshot was generated for a different state
// version.
func (s *State) ApplyPlanetDeltas(deltas []PlanetDelta) bool {
	if len(deltas) != len(s.Planets) {
		return false
	}
	for i, d := range deltas {
		p := &s.Planets[i]
		p.Owner = d.Owner
		p.Claimant = d.Claimant
		p.Garrison = d.Garrison
	}
	return true
}

// Snapshot copies the state into an independent value, used by tests and
// by the observer feed so the tick goroutine's state never escapes.
func (s *State) Snapshot() State {
	out := State{Width: s.Width, Height: s.Height}
	out.Factions = append([]Faction(nil), s.Factions...)
	out.Planets = append([]Planet(nil), s.Planets...)
	out.Ships = append([]Starship(nil), s.Ships...)
	return out
}
