package game

import "math"

// LaunchFleet removes count ships from the origin garrison and appends
// count starships fanned toward the destination, drawing jitter from seed.
//
// The routine is the determinism contract of the protocol: the server runs
// it once against the authoritative state, captures the seed word
// immediately beforehand, and ships that word inside the FleetLaunch
// event. Every client then replays the identical call. Exactly three
// draws are consumed per ship, in order: spawn angle, spawn radius,
// speed.
//
// It returns false and mutates nothing when origin equals destination,
// count is not positive, or either index is out of range for this state
// version.
func LaunchFleet(s *State, origin, destination, count int, owner FactionID, seed *ReplaySeed) bool {
	if s == nil || seed == nil {
		return false
	}
	if origin == destination || count <= 0 {
		return false
	}
	if !s.PlanetIndexValid(origin) || !s.PlanetIndexValid(destination) {
		return false
	}

	from := &s.Planets[origin]
	to := &s.Planets[destination]
	base := math.Atan2(float64(to.Y-from.Y), float64(to.X-from.X))

	for i := 0; i < count; i++ {
		angle := base + float64(seed.Float()-0.5)*launchFanRadians
		radius := launchRingMin + float64(seed.Float())*(launchRingMax-launchRingMin)
		speed := shipSpeedMin + float64(seed.Float())*(shipSpeedMax-shipSpeedMin)

		sin, cos := math.Sincos(angle)
		s.Ships = append(s.Ships, Starship{
			Owner:  owner,
			Target: int32(destination),
			X:      from.X + float32(cos*radius),
			Y:      from.Y + float32(sin*radius),
			VX:     float32(cos * speed),
			VY:     float32(sin * speed),
		})
	}

	from.Garrison -= float32(count)
	if from.Garrison < 0 {
		from.Garrison = 0
	}
	return true
}
