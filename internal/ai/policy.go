// Package ai produces move intents for a faction. Intents enter the
// identical MoveOrder path as human input; the protocol never
// distinguishes the two sources.
package ai

import "planetfall/internal/game"

// Intent is one origin→destination launch wish.
type Intent struct {
	Origin      int
	Destination int
}

// Policy plans zero or more intents for the given faction against the
// current state. Implementations must not mutate the state.
type Policy interface {
	Plan(state *game.State, faction game.FactionID) []Intent
}

// ReinforceOrRaid is the shipped policy: the strongest owned planet
// attacks the weakest planet held by someone else once its garrison
// clears the launch threshold. At most one intent per call keeps the
// order rate bounded by the tick rate.
type ReinforceOrRaid struct {
	// MinGarrison gates launches; zero means the default of 12.
	MinGarrison float32
}

func (p ReinforceOrRaid) threshold() float32 {
	if p.MinGarrison > 0 {
		return p.MinGarrison
	}
	return 12
}

func (p ReinforceOrRaid) Plan(state *game.State, faction game.FactionID) []Intent {
	if state == nil || faction == game.NoFaction {
		return nil
	}

	origin := -1
	var originGarrison float32
	for i, planet := range state.Planets {
		if planet.Owner != faction {
			continue
		}
		if origin == -1 || planet.Garrison > originGarrison {
			origin = i
			originGarrison = planet.Garrison
		}
	}
	if origin == -1 || originGarrison < p.threshold() {
		return nil
	}

	target := -1
	var targetGarrison float32
	for i, planet := range state.Planets {
		if planet.Owner == faction || i == origin {
			continue
		}
		if target == -1 || planet.Garrison < targetGarrison {
			target = i
			targetGarrison = planet.Garrison
		}
	}
	if target == -1 {
		return nil
	}

	return []Intent{{Origin: origin, Destination: target}}
}
