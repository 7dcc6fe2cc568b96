package game

const (
	// DefaultSeed feeds map generation when no seed is configured.
	DefaultSeed = "prospect"

	defaultWidth       = 1280.0
	defaultHeight      = 720.0
	defaultPlanetCount = 12

	planetMarginPx   = 64.0
	planetSpacingPx  = 96.0
	planetMinCap     = 20.0
	planetMaxCap     = 60.0
	homePlanetCap    = 50.0
	homeGarrison     = 25.0
	neutralGarrison  = 8.0
	placementRetries = 64

	// Garrison regeneration per second for owned planets.
	regenPerSecond = 0.5

	// Fleet launch fan. Three replay draws per ship: angle, radius, speed.
	launchFanRadians = 0.9
	launchRingMin    = 12.0
	launchRingMax    = 26.0
	shipSpeedMin     = 55.0
	shipSpeedMax     = 75.0

	arrivalRadiusPx = 10.0
)
