package access

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// DefaultEvictionInterval is how often Start clears every cache.
const DefaultEvictionInterval = 60 * time.Second

// MaxAncestors bounds every upward walk, on top of the visited-identity check.
const MaxAncestors = 512

type offsetKey struct {
	id     string
	offset int
}

// Facade is a cached, failure-tolerant wrapper around a ports.TreeProvider.
//
// Every query returns a safe default (zero value, nil, false) when the provider fails, and
// remembers the node as dead so it is not contacted again until the caches are cleared.
// Caches are keyed by node identity and may be evicted at any time.
type Facade struct {
	provider ports.TreeProvider
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	interval time.Duration

	mu        sync.Mutex
	dead      map[string]struct{}
	attrs     map[string]map[string]string
	textAttrs map[offsetKey]map[string]string

	stopMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures the Facade.
type Option func(*Facade)

// WithLogger configures a logger for the Facade.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Facade) {
		f.logger = logger
	}
}

// WithHooks registers lifecycle hooks; only OnTreeEvent is used.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(f *Facade) {
		f.hooks = hooks
	}
}

// WithEvictionInterval overrides DefaultEvictionInterval. Zero or negative disables the evictor.
func WithEvictionInterval(d time.Duration) Option {
	return func(f *Facade) {
		f.interval = d
	}
}

// New creates a Facade over provider.
func New(provider ports.TreeProvider, opts ...Option) *Facade {
	f := &Facade{
		provider: provider,
		logger:   logging.NewNop(),
		interval: DefaultEvictionInterval,
	}
	f.reset()
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Facade) reset() {
	f.dead = make(map[string]struct{})
	f.attrs = make(map[string]map[string]string)
	f.textAttrs = make(map[offsetKey]map[string]string)
}

// Start launches the periodic evictor. It stops when ctx is done or Stop is called.
// Calling Start twice is a no-op.
func (f *Facade) Start(ctx context.Context) {
	if f.interval <= 0 {
		return
	}
	f.stopMu.Lock()
	defer f.stopMu.Unlock()
	if f.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				f.Clear()
			}
		}
	}(f.done)
}

// Stop halts the evictor and waits for it to exit.
func (f *Facade) Stop() {
	f.stopMu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.stopMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Clear drops every cache, including the dead-node set, and returns the number of entries removed.
func (f *Facade) Clear() int {
	f.mu.Lock()
	n := len(f.dead) + len(f.attrs) + len(f.textAttrs)
	f.reset()
	f.mu.Unlock()

	f.logger.Debug("tree caches evicted", "entries", n)
	if f.hooks.OnTreeEvent != nil {
		f.hooks.OnTreeEvent(context.Background(), &domain.TreeEvent{
			EventBase: domain.NewEventBase(domain.EventCacheEvicted, ""),
			Evicted:   n,
		})
	}
	return n
}

// Stats reports cache sizes.
type Stats struct {
	Dead           int `json:"dead"`
	Attributes     int `json:"attributes"`
	TextAttributes int `json:"text_attributes"`
}

// Stats returns the current cache sizes.
func (f *Facade) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{Dead: len(f.dead), Attributes: len(f.attrs), TextAttributes: len(f.textAttrs)}
}

// IsDead reports whether n is nil or known to be dead.
func (f *Facade) IsDead(n domain.Node) bool {
	if n == nil {
		return true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.dead[n.ID()]
	return ok
}

// fail records a provider failure. ErrNoText is a capability answer and never kills a node.
func (f *Facade) fail(n domain.Node, op string, err error) {
	if errors.Is(err, domain.ErrNoText) {
		return
	}
	f.mu.Lock()
	_, already := f.dead[n.ID()]
	f.dead[n.ID()] = struct{}{}
	f.mu.Unlock()
	if already {
		return
	}

	f.logger.Debug("node marked dead", "node", n.ID(), "op", op, "error", err)
	if f.hooks.OnTreeEvent != nil {
		f.hooks.OnTreeEvent(context.Background(), &domain.TreeEvent{
			EventBase: domain.NewEventBase(domain.EventNodeDead, ""),
			NodeID:    n.ID(),
			Reason:    op,
		})
	}
}

// Corrupt logs a structural violation of the tree. It never fails the caller.
func (f *Facade) Corrupt(n domain.Node, reason string) {
	cerr := domain.NewCorruption(n, reason)
	f.logger.Warn("tree corruption", "error", cerr)
	if f.hooks.OnTreeEvent != nil {
		f.hooks.OnTreeEvent(context.Background(), &domain.TreeEvent{
			EventBase: domain.NewEventBase(domain.EventCorruption, ""),
			NodeID:    cerr.NodeID,
			Reason:    reason,
		})
	}
}

// Role returns the role of n, or RoleUnknown.
func (f *Facade) Role(n domain.Node) domain.Role {
	if f.IsDead(n) {
		return domain.RoleUnknown
	}
	role, err := f.provider.Role(n)
	if err != nil {
		f.fail(n, "role", err)
		return domain.RoleUnknown
	}
	return role
}

// States returns the state set of n. A defunct node is marked dead.
func (f *Facade) States(n domain.Node) domain.StateSet {
	if f.IsDead(n) {
		return 0
	}
	states, err := f.provider.States(n)
	if err != nil {
		f.fail(n, "states", err)
		return 0
	}
	if states.Has(domain.StateDefunct) {
		f.fail(n, "states", domain.ErrStaleNode)
		return 0
	}
	return states
}

// Name returns the accessible name of n.
func (f *Facade) Name(n domain.Node) string {
	if f.IsDead(n) {
		return ""
	}
	name, err := f.provider.Name(n)
	if err != nil {
		f.fail(n, "name", err)
		return ""
	}
	return name
}

// Parent returns the parent of n, or nil for the root, dead nodes and self-parenting nodes.
func (f *Facade) Parent(n domain.Node) domain.Node {
	if f.IsDead(n) {
		return nil
	}
	parent, err := f.provider.Parent(n)
	if err != nil {
		f.fail(n, "parent", err)
		return nil
	}
	if parent != nil && domain.SameNode(parent, n) {
		f.Corrupt(n, "node is its own parent")
		return nil
	}
	return parent
}

// ChildCount returns the number of children of n.
func (f *Facade) ChildCount(n domain.Node) int {
	if f.IsDead(n) {
		return 0
	}
	count, err := f.provider.ChildCount(n)
	if err != nil {
		f.fail(n, "child_count", err)
		return 0
	}
	if count < 0 {
		f.Corrupt(n, "negative child count")
		return 0
	}
	return count
}

// Child returns the index-th child of n, or nil when out of range, dead or self-referencing.
func (f *Facade) Child(n domain.Node, index int) domain.Node {
	if f.IsDead(n) || index < 0 {
		return nil
	}
	child, err := f.provider.Child(n, index)
	if err != nil {
		f.fail(n, "child", err)
		return nil
	}
	if child != nil && domain.SameNode(child, n) {
		f.Corrupt(n, "node is its own child")
		return nil
	}
	return child
}

// Children returns the children of n in order, skipping holes.
func (f *Facade) Children(n domain.Node) []domain.Node {
	count := f.ChildCount(n)
	out := make([]domain.Node, 0, count)
	for i := range count {
		if c := f.Child(n, i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// SupportsText reports whether n exposes the text capability.
func (f *Facade) SupportsText(n domain.Node) bool {
	if f.IsDead(n) {
		return false
	}
	_, err := f.provider.TextLength(n)
	if err != nil {
		f.fail(n, "text_length", err)
		return false
	}
	return true
}

// TextLength returns the number of characters of n, or 0.
func (f *Facade) TextLength(n domain.Node) int {
	if f.IsDead(n) {
		return 0
	}
	length, err := f.provider.TextLength(n)
	if err != nil {
		f.fail(n, "text_length", err)
		return 0
	}
	return max(length, 0)
}

// Text returns the whole text of n as runes.
func (f *Facade) Text(n domain.Node) []rune {
	return []rune(f.Substring(n, 0, -1))
}

// Substring returns the characters of n in [start, end). end < 0 means "to the end".
func (f *Facade) Substring(n domain.Node, start, end int) string {
	if f.IsDead(n) {
		return ""
	}
	s, err := f.provider.Substring(n, start, end)
	if err != nil {
		f.fail(n, "substring", err)
		return ""
	}
	if !utf8.ValidString(s) {
		f.Corrupt(n, "substring is not valid UTF-8")
		return ""
	}
	return s
}

// Attributes returns the object attributes of n. Results are cached by identity.
// The returned map must not be modified.
func (f *Facade) Attributes(n domain.Node) map[string]string {
	if f.IsDead(n) {
		return nil
	}
	f.mu.Lock()
	cached, ok := f.attrs[n.ID()]
	f.mu.Unlock()
	if ok {
		return cached
	}

	attrs, err := f.provider.Attributes(n)
	if err != nil {
		f.fail(n, "attributes", err)
		return nil
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	f.mu.Lock()
	f.attrs[n.ID()] = attrs
	f.mu.Unlock()
	return attrs
}

// Attribute returns a single object attribute.
func (f *Facade) Attribute(n domain.Node, key string) string {
	return f.Attributes(n)[key]
}

// TextAttributes returns the text attributes in effect at offset. Results are cached.
func (f *Facade) TextAttributes(n domain.Node, offset int) map[string]string {
	if f.IsDead(n) {
		return nil
	}
	key := offsetKey{id: n.ID(), offset: offset}
	f.mu.Lock()
	cached, ok := f.textAttrs[key]
	f.mu.Unlock()
	if ok {
		return cached
	}

	attrs, err := f.provider.TextAttributes(n, offset)
	if err != nil {
		f.fail(n, "text_attributes", err)
		return nil
	}
	if attrs == nil {
		attrs = map[string]string{}
	}
	f.mu.Lock()
	f.textAttrs[key] = attrs
	f.mu.Unlock()
	return attrs
}

// SetCaret moves the application's caret. It reports whether the provider accepted it.
func (f *Facade) SetCaret(n domain.Node, offset int) bool {
	if f.IsDead(n) {
		return false
	}
	if err := f.provider.SetCaret(n, offset); err != nil {
		f.fail(n, "set_caret", err)
		return false
	}
	return true
}

// PerformAction invokes a named action on n.
func (f *Facade) PerformAction(n domain.Node, action string) bool {
	if f.IsDead(n) {
		return false
	}
	if err := f.provider.PerformAction(n, action); err != nil {
		f.fail(n, "perform_action", err)
		return false
	}
	return true
}
