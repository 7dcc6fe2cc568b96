package game

import "math"

// GenerateConfig tunes deterministic map generation.
type GenerateConfig struct {
	Seed        string
	Width       float32
	Height      float32
	PlanetCount int
	Factions    []Faction
}

func (c GenerateConfig) normalized() GenerateConfig {
	if c.Seed == "" {
		c.Seed = DefaultSeed
	}
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}
	if c.PlanetCount < len(c.Factions) {
		c.PlanetCount = len(c.Factions)
	}
	if c.PlanetCount <= 0 {
		c.PlanetCount = defaultPlanetCount
	}
	return c
}

// Generate builds the authoritative starting state: one home planet per
// faction plus neutral planets, placed by a label-seeded RNG so the same
// seed always produces the same map.
func Generate(cfg GenerateConfig) *State {
	cfg = cfg.normalized()
	rng := NewDeterministicRNG(cfg.Seed, "map")

	s := &State{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Factions: append([]Faction(nil), cfg.Factions...),
		Planets:  make([]Planet, 0, cfg.PlanetCount),
	}

	place := func() (float32, float32) {
		var x, y float64
		for attempt := 0; attempt < placementRetries; attempt++ {
			x = planetMarginPx + rng.Float64()*(float64(cfg.Width)-2*planetMarginPx)
			y = planetMarginPx + rng.Float64()*(float64(cfg.Height)-2*planetMarginPx)
			if planetFits(s.Planets, x, y) {
				break
			}
		}
		return float32(x), float32(y)
	}

	for _, faction := range cfg.Factions {
		x, y := place()
		s.Planets = append(s.Planets, Planet{
			X: x, Y: y,
			Capacity: homePlanetCap,
			Garrison: homeGarrison,
			Owner:    faction.ID,
			Claimant: NoFaction,
		})
	}

	for len(s.Planets) < cfg.PlanetCount {
		x, y := place()
		capacity := planetMinCap + rng.Float64()*(planetMaxCap-planetMinCap)
		s.Planets = append(s.Planets, Planet{
			X: x, Y: y,
			Capacity: float32(capacity),
			Garrison: neutralGarrison,
			Owner:    NoFaction,
			Claimant: NoFaction,
		})
	}

	return s
}

func planetFits(planets []Planet, x, y float64) bool {
	for _, p := range planets {
		if math.Hypot(x-float64(p.X), y-float64(p.Y)) < planetSpacingPx {
			return false
		}
	}
	return true
}
