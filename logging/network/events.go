// Package network catalogs the diagnostic events emitted by the session
// and transport layer.
package network

import (
	"context"

	"planetfall/logging"
)

const (
	// EventJoinSent is emitted when a client sends the join request.
	EventJoinSent logging.EventType = "network.join_sent"
	// EventJoinRejected is emitted when the peer answers SERVER_FULL.
	EventJoinRejected logging.EventType = "network.join_rejected"
	// EventSynced is emitted when a full state message is applied.
	EventSynced logging.EventType = "network.synced"
	// EventMalformedDatagram is emitted when a datagram fails decoding.
	EventMalformedDatagram logging.EventType = "network.malformed_datagram"
	// EventSemanticDrop is emitted when a well-formed message is invalid
	// for the current reconciliation phase and is discarded.
	EventSemanticDrop logging.EventType = "network.semantic_drop"
	// EventDesyncDemotion is emitted when an invalid snapshot forces the
	// session back to awaiting a full resync.
	EventDesyncDemotion logging.EventType = "network.desync_demotion"
	// EventPeerTimeout is emitted when the liveness clock expires.
	EventPeerTimeout logging.EventType = "network.peer_timeout"
	// EventSessionClosed is emitted on disconnect or server shutdown.
	EventSessionClosed logging.EventType = "network.session_closed"
	// EventSlotAssigned is emitted by the server when a join claims a slot.
	EventSlotAssigned logging.EventType = "network.slot_assigned"
	// EventSlotReleased is emitted by the server when a slot is freed.
	EventSlotReleased logging.EventType = "network.slot_released"
)

// DatagramPayload describes a dropped or rejected datagram.
type DatagramPayload struct {
	Kind   string `json:"kind"`
	Length int    `json:"length"`
	Reason string `json:"reason,omitempty"`
}

// MalformedDatagram publishes a warning for a datagram that failed the
// codec's length or count validation.
func MalformedDatagram(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DatagramPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventMalformedDatagram,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// SemanticDrop publishes a debug event for a message rejected by the
// reconciliation phase machine.
func SemanticDrop(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DatagramPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventSemanticDrop,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNetwork,
		Payload:  payload,
	})
}

// DesyncDemotion publishes a warning when the session falls back to
// awaiting a full resync.
func DesyncDemotion(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventDesyncDemotion,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  DatagramPayload{Reason: reason},
	})
}

// PeerTimeout publishes the one-sided failure detection event.
func PeerTimeout(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, silentSeconds float64) {
	publish(ctx, pub, logging.Event{
		Type:     EventPeerTimeout,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNetwork,
		Payload:  map[string]float64{"silentSeconds": silentSeconds},
	})
}

// SessionClosed publishes the terminal session event with its reason.
func SessionClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventSessionClosed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  DatagramPayload{Reason: reason},
	})
}

// Synced publishes the transition into the synced phase.
func Synced(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef) {
	publish(ctx, pub, logging.Event{
		Type:     EventSynced,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
	})
}

// SlotAssigned publishes a server-side slot claim.
func SlotAssigned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, addr string) {
	publish(ctx, pub, logging.Event{
		Type:     EventSlotAssigned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  map[string]string{"addr": addr},
	})
}

// SlotReleased publishes a server-side slot release with its reason.
func SlotReleased(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, reason string) {
	publish(ctx, pub, logging.Event{
		Type:     EventSlotReleased,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNetwork,
		Payload:  DatagramPayload{Reason: reason},
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, event)
}
