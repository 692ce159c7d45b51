package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/runner"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// StreamManager fans session events out to SSE subscribers. It is the Presenter of a
// served Narrator: presentations go to the subscribers of their session and to the HTTP
// request that produced them.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // SessionID -> set of channels
	logger      *slog.Logger
}

var _ ports.Presenter = (*StreamManager)(nil)

// NewStreamManager creates an empty manager. A nil logger discards logs.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the events of sessionID. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Subscribers returns the number of subscribers of sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends v, JSON encoded, to every subscriber of sessionID. Slow subscribers lose
// the message rather than block the narrator.
func (sm *StreamManager) Broadcast(sessionID, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("stream payload encode failed", "event", event, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "session_id", sessionID, "event", event)
		}
	}
}

// Present implements ports.Presenter.
func (sm *StreamManager) Present(ctx context.Context, req ports.PresentationRequest) error {
	p := runner.NewPresentation(req)
	if c, ok := ctx.Value(collectorKey{}).(*collector); ok {
		c.add(p)
	}
	sm.Broadcast(req.SessionID, "presentation", p)
	return nil
}

// Hooks streams mode changes and narration progress to the subscribers of each session.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnModeChanged: func(_ context.Context, e *domain.ModeEvent) {
			sm.Broadcast(e.SessionID, "mode", e)
		},
		OnUnitEmitted: func(_ context.Context, e *domain.NarrationEvent) {
			sm.Broadcast(e.SessionID, "unit", e)
		},
		OnNarrationState: func(_ context.Context, e *domain.NarrationEvent) {
			sm.Broadcast(e.SessionID, "narration", e)
		},
	}
}

type collectorKey struct{}

// collector gathers the presentations produced while serving one request.
type collector struct {
	mu   sync.Mutex
	reqs []runner.Presentation
}

func (c *collector) add(p runner.Presentation) {
	c.mu.Lock()
	c.reqs = append(c.reqs, p)
	c.mu.Unlock()
}

func (c *collector) list() []runner.Presentation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reqs == nil {
		return []runner.Presentation{}
	}
	return c.reqs
}

func withCollector(ctx context.Context) (context.Context, *collector) {
	c := &collector{}
	return context.WithValue(ctx, collectorKey{}, c), c
}
