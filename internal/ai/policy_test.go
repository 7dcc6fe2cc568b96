package ai

import (
	"testing"

	"planetfall/internal/game"
)

// policyState: faction 0 owns planets 0 (strongest) and 1; planet 2 is
// the weakest non-owned target.
func policyState() *game.State {
	return &game.State{
		Planets: []game.Planet{
			{Capacity: 50, Garrison: 30, Owner: 0},
			{Capacity: 50, Garrison: 14, Owner: 0},
			{Capacity: 40, Garrison: 3, Owner: game.NoFaction},
			{Capacity: 40, Garrison: 20, Owner: 1},
		},
	}
}

func TestReinforceOrRaidPicksStrongestToWeakest(t *testing.T) {
	intents := ReinforceOrRaid{}.Plan(policyState(), 0)
	if len(intents) != 1 {
		t.Fatalf("intents = %d, want 1", len(intents))
	}
	if intents[0].Origin != 0 || intents[0].Destination != 2 {
		t.Fatalf("intent = %+v, want 0 -> 2", intents[0])
	}
}

func TestReinforceOrRaidRespectsThreshold(t *testing.T) {
	s := policyState()
	s.Planets[0].Garrison = 5
	s.Planets[1].Garrison = 5
	if intents := (ReinforceOrRaid{}).Plan(s, 0); intents != nil {
		t.Fatalf("planned below threshold: %+v", intents)
	}

	// A custom threshold re-enables the launch.
	intents := ReinforceOrRaid{MinGarrison: 4}.Plan(s, 0)
	if len(intents) != 1 {
		t.Fatalf("intents = %d, want 1", len(intents))
	}
}

func TestReinforceOrRaidNeedsBothSides(t *testing.T) {
	if intents := (ReinforceOrRaid{}).Plan(policyState(), 3); intents != nil {
		t.Fatalf("planned with no owned planets: %+v", intents)
	}

	allMine := &game.State{Planets: []game.Planet{
		{Capacity: 50, Garrison: 30, Owner: 1},
		{Capacity: 50, Garrison: 25, Owner: 1},
	}}
	if intents := (ReinforceOrRaid{}).Plan(allMine, 1); intents != nil {
		t.Fatalf("planned with no targets: %+v", intents)
	}

	if intents := (ReinforceOrRaid{}).Plan(nil, 0); intents != nil {
		t.Fatalf("planned against nil state: %+v", intents)
	}
	if intents := (ReinforceOrRaid{}).Plan(policyState(), game.NoFaction); intents != nil {
		t.Fatalf("planned for no faction: %+v", intents)
	}
}
