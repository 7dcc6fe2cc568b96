package game

import "math"

// Advance steps the authoritative simulation by dt seconds: garrisons of
// owned planets regenerate toward capacity, starships fly their velocity
// vectors, and ships that reach their target planet resolve against its
// garrison.
//
// Only the server calls Advance for real; clients receive the results via
// snapshots. Arrival resolution: a ship reinforces a friendly planet,
// otherwise it attrits the garrison and marks its faction as claimant.
// When the garrison is exhausted, the claimant takes ownership.
func Advance(s *State, dt float64) {
	if s == nil || dt <= 0 {
		return
	}

	for i := range s.Planets {
		p := &s.Planets[i]
		if p.Owner == NoFaction {
			continue
		}
		p.Garrison += float32(regenPerSecond * dt)
		if p.Garrison > p.Capacity {
			p.Garrison = p.Capacity
		}
	}

	survivors := s.Ships[:0]
	for _, ship := range s.Ships {
		ship.X += ship.VX * float32(dt)
		ship.Y += ship.VY * float32(dt)

		target := int(ship.Target)
		if !s.PlanetIndexValid(target) {
			// Stale target index from a superseded state version.
			continue
		}
		p := &s.Planets[target]
		if math.Hypot(float64(ship.X-p.X), float64(ship.Y-p.Y)) > arrivalRadiusPx {
			survivors = append(survivors, ship)
			continue
		}
		resolveArrival(p, ship.Owner)
	}
	s.Ships = survivors

	s.ClampGarrisons()
}

func resolveArrival(p *Planet, attacker FactionID) {
	if p.Owner == attacker {
		p.Garrison++
		if p.Claimant == attacker {
			p.Claimant = NoFaction
		}
		return
	}

	p.Claimant = attacker
	p.Garrison--
	if p.Garrison < 0 {
		p.Owner = attacker
		p.Claimant = NoFaction
		p.Garrison = 1
	}
}
