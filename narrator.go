package narrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/caret"
	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/internal/mode"
	"github.com/aretw0/narrator/internal/navigation"
	"github.com/aretw0/narrator/internal/sayall"
	"github.com/aretw0/narrator/pkg/adapters/memory"
	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
	"github.com/aretw0/narrator/pkg/session"
	"github.com/aretw0/narrator/pkg/settings"
)

// Narrator is the high-level entry point of the library.
// It binds navigation sessions to documents of one accessibility tree and exposes the
// command surface shared by key bindings, the HTTP adapter and the CLI.
type Narrator struct {
	provider     ports.TreeProvider
	speech       ports.SpeechEngine
	presenter    ports.Presenter
	store        ports.SessionStore
	locker       ports.DistributedLocker
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	settingsPath string

	facade   *access.Facade
	nav      *navigation.Navigator
	sessions *session.Manager

	mu       sync.RWMutex
	settings settings.Settings
	docs     map[string]*document
}

// document is an open navigation session: its root and in-memory caret.
type document struct {
	sessionID string
	root      domain.Node
	carets    *caret.Navigator
	narration *sayall.Controller

	mu    sync.Mutex
	caret domain.Position
	// navigators is the last applied mode decision: caret and structural navigation run.
	navigators bool
}

func (d *document) position() domain.Position {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.caret
}

func (d *document) setCaret(p domain.Position) {
	d.mu.Lock()
	d.caret = p
	d.mu.Unlock()
}

func (d *document) navigatorsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.navigators
}

func (d *document) setNavigators(on bool) {
	d.mu.Lock()
	d.navigators = on
	d.mu.Unlock()
}

// Option defines a functional option for configuring the Narrator.
type Option func(*Narrator)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Narrator) {
		n.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(n *Narrator) {
		n.hooks = hooks
	}
}

// WithSessionStore persists navigation sessions in store instead of memory.
func WithSessionStore(store ports.SessionStore) Option {
	return func(n *Narrator) {
		n.store = store
	}
}

// WithLocker serialises session updates across processes.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(n *Narrator) {
		n.locker = locker
	}
}

// WithPresenter receives the presentation requests produced by commands.
func WithPresenter(p ports.Presenter) Option {
	return func(n *Narrator) {
		n.presenter = p
	}
}

// WithSettings replaces the default settings.
func WithSettings(s settings.Settings) Option {
	return func(n *Narrator) {
		n.settings = s
	}
}

// WithSettingsFile makes toggle commands write the settings back to path.
func WithSettingsFile(path string) Option {
	return func(n *Narrator) {
		n.settingsPath = path
	}
}

// New creates a Narrator reading provider and speaking through speech.
// speech may be nil, in which case say_all is not handled.
func New(provider ports.TreeProvider, speech ports.SpeechEngine, opts ...Option) *Narrator {
	n := &Narrator{
		provider: provider,
		speech:   speech,
		logger:   logging.NewNop(),
		settings: settings.Default(),
		docs:     make(map[string]*document),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.store == nil {
		n.store = memory.NewStore()
	}

	n.facade = access.New(provider,
		access.WithLogger(n.logger),
		access.WithHooks(n.hooks),
		access.WithEvictionInterval(n.settings.CacheEvictionInterval),
	)
	n.nav = navigation.New(n.facade, navigation.WithLogger(n.logger))

	sessionOpts := []session.Option{session.WithLogger(n.logger)}
	if n.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(n.locker))
	}
	n.sessions = session.NewManager(n.store, sessionOpts...)
	return n
}

// Start launches background work: the periodic eviction of the tree caches.
func (n *Narrator) Start(ctx context.Context) {
	n.facade.Start(ctx)
}

// Stop ends every running narration and halts background work.
func (n *Narrator) Stop() {
	n.mu.RLock()
	docs := make([]*document, 0, len(n.docs))
	for _, d := range n.docs {
		docs = append(docs, d)
	}
	n.mu.RUnlock()

	for _, d := range docs {
		d.narration.Stop()
	}
	n.facade.Stop()
}

// Settings returns a copy of the current settings.
func (n *Narrator) Settings() settings.Settings {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.settings
}

// Sessions returns the session manager backing the Narrator.
func (n *Narrator) Sessions() *session.Manager {
	return n.sessions
}

// Open enters the document rooted at root for sessionID. The stored session is reused
// when it belongs to the same document, and its caret is restored when the provider can
// resolve node IDs; otherwise the caret starts at the beginning of the document.
func (n *Narrator) Open(ctx context.Context, sessionID string, root domain.Node) (*domain.NavigationSession, error) {
	if root == nil {
		return nil, domain.ErrNoDocument
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session id cannot be empty")
	}

	s, err := n.sessions.LoadOrStart(ctx, sessionID, root.ID())
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	d, ok := n.docs[sessionID]
	if !ok {
		d = n.newDocument(sessionID)
		n.docs[sessionID] = d
	}
	n.mu.Unlock()

	d.narration.Stop()
	d.mu.Lock()
	d.root = root
	d.navigators = mode.NavigatorsActive(s.Mode)
	d.mu.Unlock()
	d.setCaret(n.restoreCaret(s, root))

	n.logger.Debug("document opened", "session", sessionID, "document", root.ID(), "caret", d.position().String())
	return s, nil
}

func (n *Narrator) newDocument(sessionID string) *document {
	d := &document{sessionID: sessionID}
	own := domain.LifecycleHooks{
		OnUnitEmitted: func(_ context.Context, e *domain.NarrationEvent) {
			if e.Unit != nil {
				d.setCaret(e.Unit.StartPosition())
			}
		},
		OnNarrationState: func(_ context.Context, e *domain.NarrationEvent) {
			if e.Status != domain.NarrationInterrupted {
				return
			}
			if st, ok := d.narration.State(); ok && st.ID == e.NarrationID && !st.Position.IsNull() {
				d.setCaret(st.Position)
			}
		},
	}
	d.carets = caret.New(n.nav,
		caret.WithLogger(n.logger),
		caret.WithHooks(n.hooks),
		caret.WithSessionID(sessionID),
	)
	d.narration = sayall.New(n.nav, n.speech,
		sayall.WithLogger(n.logger),
		sayall.WithHooks(own.Merge(n.hooks)),
		sayall.WithSessionID(sessionID),
	)
	return d
}

func (n *Narrator) restoreCaret(s *domain.NavigationSession, root domain.Node) domain.Position {
	resolver, ok := n.provider.(ports.NodeResolver)
	if !ok || s.CaretNodeID == "" {
		return n.nav.First(root)
	}
	node, err := resolver.Resolve(s.CaretNodeID)
	if err != nil || n.facade.IsDead(node) || !n.facade.IsInside(node, root) {
		return n.nav.First(root)
	}
	if p := n.nav.Normalize(domain.At(node, s.CaretOffset)); !p.IsNull() {
		return p
	}
	return n.nav.First(root)
}

// CloseDocument ends the session: the host application closed.
func (n *Narrator) CloseDocument(ctx context.Context, sessionID string) error {
	n.mu.Lock()
	d, ok := n.docs[sessionID]
	delete(n.docs, sessionID)
	n.mu.Unlock()

	if ok {
		d.narration.Stop()
	}
	return n.sessions.Delete(ctx, sessionID)
}

func (n *Narrator) document(sessionID string) (*document, error) {
	n.mu.RLock()
	d, ok := n.docs[sessionID]
	n.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no open document", domain.ErrSessionNotFound, sessionID)
	}
	return d, nil
}

func (d *document) documentRoot() domain.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root
}

// Interrupt tells the running narration of sessionID why it is being interrupted, e.g. a
// move_up keystroke the host did not route as a command. It returns false when nothing is
// being narrated.
func (n *Narrator) Interrupt(sessionID string, cause domain.InterruptCause) bool {
	d, err := n.document(sessionID)
	if err != nil {
		return false
	}
	return d.narration.Interrupt(cause)
}

// NarrationInfo describes the latest narration of a session.
type NarrationInfo struct {
	ID           string                 `json:"id"`
	Status       domain.NarrationStatus `json:"status"`
	UnitsEmitted int                    `json:"units_emitted"`
	Restarts     int                    `json:"restarts"`
	Cause        domain.InterruptCause  `json:"cause,omitempty"`
	Position     string                 `json:"position,omitempty"`
}

// Inspection is a snapshot of a navigation session.
type Inspection struct {
	Session *domain.NavigationSession `json:"session"`
	// Open reports whether this process holds the document of the session.
	Open  bool   `json:"open"`
	Caret string `json:"caret,omitempty"`
	// Navigators reports whether document navigation commands are active.
	Navigators bool           `json:"navigators"`
	Narration  *NarrationInfo `json:"narration,omitempty"`
}

// Inspect returns the stored session and, when the document is open here, its caret and
// narration state.
func (n *Narrator) Inspect(ctx context.Context, sessionID string) (*Inspection, error) {
	s, err := n.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := &Inspection{Session: s}

	d, err := n.document(sessionID)
	if err != nil {
		return out, nil
	}
	out.Open = true
	out.Caret = d.position().String()
	out.Navigators = d.navigatorsActive()
	if st, ok := d.narration.State(); ok {
		info := &NarrationInfo{
			ID:           st.ID,
			Status:       st.Status,
			UnitsEmitted: st.UnitsEmitted,
			Restarts:     st.Restarts,
			Cause:        st.Cause,
		}
		if !st.Position.IsNull() {
			info.Position = st.Position.String()
		}
		out.Narration = info
	}
	return out, nil
}

// Announce presents the announcements of a correction session in the order set by the
// correction_precedence setting.
func (n *Narrator) Announce(ctx context.Context, sessionID string, anns []settings.Announcement) error {
	var errs []error
	for _, a := range n.Settings().Policy().Order(anns) {
		if n.presenter == nil {
			break
		}
		req := ports.PresentationRequest{SessionID: sessionID, Command: "announce", Message: a.Text}
		if err := n.presenter.Present(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Narrator) present(ctx context.Context, notify bool, req ports.PresentationRequest) {
	if !notify || n.presenter == nil {
		return
	}
	if err := n.presenter.Present(ctx, req); err != nil {
		n.logger.Warn("presenter failed", "session", req.SessionID, "command", req.Command, "err", err)
	}
}
