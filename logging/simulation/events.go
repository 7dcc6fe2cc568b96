// Package simulation catalogs the diagnostic events emitted by the
// authoritative world and the replay engine.
package simulation

import (
	"context"

	"planetfall/logging"
)

const (
	// EventFleetLaunched is emitted when a launch mutates the state.
	EventFleetLaunched logging.EventType = "simulation.fleet_launched"
	// EventLaunchRejected is emitted when a launch fails validation.
	EventLaunchRejected logging.EventType = "simulation.launch_rejected"
	// EventPlanetCaptured is emitted when ownership flips on arrival.
	EventPlanetCaptured logging.EventType = "simulation.planet_captured"
)

// LaunchPayload describes a fleet launch attempt.
type LaunchPayload struct {
	Origin      int    `json:"origin"`
	Destination int    `json:"destination"`
	ShipCount   int    `json:"shipCount"`
	Seed        uint32 `json:"seed,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// FleetLaunched publishes a successful launch.
func FleetLaunched(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LaunchPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventFleetLaunched,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}

// LaunchRejected publishes a launch that failed validation.
func LaunchRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LaunchPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventLaunchRejected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategorySimulation,
		Payload:  payload,
	})
}
