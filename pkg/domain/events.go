package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeDead       EventType = "node_dead"
	EventCacheEvicted   EventType = "cache_evicted"
	EventCorruption     EventType = "tree_corruption"
	EventCaretMoved     EventType = "caret_moved"
	EventModeChanged    EventType = "mode_changed"
	EventUnitEmitted    EventType = "unit_emitted"
	EventNarrationState EventType = "narration_state"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// NewEventBase stamps an event base with the current time.
func NewEventBase(t EventType, sessionID string) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, SessionID: sessionID}
}

// TreeEvent reports facade-level facts about the external tree.
type TreeEvent struct {
	EventBase
	NodeID string `json:"node_id,omitempty"`
	Reason string `json:"reason,omitempty"`
	// Evicted is the number of cache entries dropped (EventCacheEvicted).
	Evicted int `json:"evicted,omitempty"`
}

// CaretEvent reports a caret movement produced by a command.
type CaretEvent struct {
	EventBase
	Command string `json:"command"`
	NodeID  string `json:"node_id"`
	Offset  int    `json:"offset"`
	Found   bool   `json:"found"`
}

// ModeEvent reports an applied mode change.
type ModeEvent struct {
	EventBase
	From   Mode   `json:"from"`
	To     Mode   `json:"to"`
	Reason string `json:"reason"`
}

// NarrationEvent reports narration progress.
type NarrationEvent struct {
	EventBase
	NarrationID string          `json:"narration_id"`
	Status      NarrationStatus `json:"status"`
	Cause       InterruptCause  `json:"cause,omitempty"`
	Unit        *ContentUnit    `json:"unit,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnTreeEvent      func(context.Context, *TreeEvent)
	OnCaretMoved     func(context.Context, *CaretEvent)
	OnModeChanged    func(context.Context, *ModeEvent)
	OnUnitEmitted    func(context.Context, *NarrationEvent)
	OnNarrationState func(context.Context, *NarrationEvent)
}

// Merge combines two hook sets; both callbacks run, h first.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnTreeEvent:      chain(h.OnTreeEvent, o.OnTreeEvent),
		OnCaretMoved:     chain(h.OnCaretMoved, o.OnCaretMoved),
		OnModeChanged:    chain(h.OnModeChanged, o.OnModeChanged),
		OnUnitEmitted:    chain(h.OnUnitEmitted, o.OnUnitEmitted),
		OnNarrationState: chain(h.OnNarrationState, o.OnNarrationState),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
