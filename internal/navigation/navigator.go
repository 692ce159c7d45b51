package navigation

import (
	"log/slog"

	"github.com/aretw0/narrator/internal/access"
	"github.com/aretw0/narrator/internal/logging"
	"github.com/aretw0/narrator/pkg/domain"
)

const (
	// maxDepth bounds descent into nested objects.
	maxDepth = 256
	// maxSteps bounds every loop that repeatedly advances a position.
	maxSteps = 1 << 16
)

// Navigator moves a domain.Position through the document order of a tree.
//
// The order is defined over stops. A text node has one stop per character offset plus one
// at its end; the offset of an embedded object marker is replaced by the stops of the
// object it stands for. A node without text concatenates the stops of its children, and a
// leaf without text is a single stop at offset 0. Dead nodes have no stops.
type Navigator struct {
	f      *access.Facade
	logger *slog.Logger
}

// Option configures the Navigator.
type Option func(*Navigator)

// WithLogger configures a logger for the Navigator.
func WithLogger(logger *slog.Logger) Option {
	return func(nv *Navigator) {
		nv.logger = logger
	}
}

// New creates a Navigator reading the tree through f.
func New(f *access.Facade, opts ...Option) *Navigator {
	nv := &Navigator{f: f, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(nv)
	}
	return nv
}

// Facade returns the tree facade the navigator reads through.
func (nv *Navigator) Facade() *access.Facade {
	return nv.f
}

// Next returns the stop following pos in document order, or domain.NullPosition at the end.
// With skipSpace, whitespace stops and end-of-node stops are skipped. A non-nil restrictTo
// bounds the traversal to that subtree.
func (nv *Navigator) Next(pos domain.Position, skipSpace bool, restrictTo domain.Node) domain.Position {
	return nv.walker().next(pos, skipSpace, restrictTo)
}

// Previous is the mirror of Next.
func (nv *Navigator) Previous(pos domain.Position, skipSpace bool, restrictTo domain.Node) domain.Position {
	return nv.walker().previous(pos, skipSpace, restrictTo)
}

// First returns the first stop under root, or domain.NullPosition for an empty document.
func (nv *Navigator) First(root domain.Node) domain.Position {
	return nv.walker().firstStop(root, 0)
}

// Last returns the last stop under root, or domain.NullPosition for an empty document.
func (nv *Navigator) Last(root domain.Node) domain.Position {
	return nv.walker().lastStop(root, 0)
}

// Normalize maps pos onto a stop: containers map to their first stop, marker offsets to
// the first stop of the object. Stops are returned unchanged.
func (nv *Navigator) Normalize(pos domain.Position) domain.Position {
	return nv.walker().normalize(pos)
}

type flowInfo struct {
	text []rune
	flow bool
}

// walker memoizes provider answers for the duration of one operation.
type walker struct {
	nv       *Navigator
	f        *access.Facade
	flows    map[string]flowInfo
	blocks   map[string]domain.Node
	entering map[string]struct{}
}

func (nv *Navigator) walker() *walker {
	return &walker{
		nv:       nv,
		f:        nv.f,
		flows:    make(map[string]flowInfo),
		blocks:   make(map[string]domain.Node),
		entering: make(map[string]struct{}),
	}
}

// flow reports whether n lays its content out as text: it supports text and either has
// characters or has no children.
func (w *walker) flow(n domain.Node) ([]rune, bool) {
	if n == nil {
		return nil, false
	}
	if info, ok := w.flows[n.ID()]; ok {
		return info.text, info.flow
	}
	var info flowInfo
	if w.f.SupportsText(n) {
		info.text = w.f.Text(n)
		info.flow = len(info.text) > 0 || w.f.ChildCount(n) == 0
	}
	w.flows[n.ID()] = info
	return info.text, info.flow
}

// charAt returns the character at a character stop.
func (w *walker) charAt(pos domain.Position) (rune, bool) {
	text, ok := w.flow(pos.Node)
	if !ok {
		return 0, false
	}
	if pos.Offset < 0 || pos.Offset >= len(text) {
		return 0, false
	}
	return text[pos.Offset], true
}

func (w *walker) isSpaceStop(pos domain.Position) bool {
	text, ok := w.flow(pos.Node)
	if !ok {
		return false
	}
	if pos.Offset >= len(text) {
		return true
	}
	return isSpace(text[pos.Offset])
}

// markerChild returns the child standing for the marker at offset.
func (w *walker) markerChild(n domain.Node, text []rune, offset int) domain.Node {
	k := 0
	for _, r := range text[:offset] {
		if r == domain.EmbeddedObjectChar {
			k++
		}
	}
	child := w.f.Child(n, k)
	if child == nil {
		w.f.Corrupt(n, "embedded object marker without a child")
	}
	return child
}

// markerOffset returns the offset of the k-th marker in text, or -1.
func markerOffset(text []rune, k int) int {
	for i, r := range text {
		if r == domain.EmbeddedObjectChar {
			if k == 0 {
				return i
			}
			k--
		}
	}
	return -1
}

func (w *walker) enter(n domain.Node, depth int) bool {
	if depth > maxDepth {
		w.f.Corrupt(n, "object nesting too deep")
		return false
	}
	if _, ok := w.entering[n.ID()]; ok {
		w.f.Corrupt(n, "node contains itself")
		return false
	}
	w.entering[n.ID()] = struct{}{}
	return true
}

func (w *walker) leave(n domain.Node) {
	delete(w.entering, n.ID())
}

func (w *walker) firstStop(n domain.Node, depth int) domain.Position {
	if n == nil || w.f.IsDead(n) || !w.enter(n, depth) {
		return domain.NullPosition
	}
	defer w.leave(n)

	if text, ok := w.flow(n); ok {
		return w.scanForward(n, text, 0, depth)
	}
	count := w.f.ChildCount(n)
	if w.f.IsDead(n) {
		return domain.NullPosition
	}
	if count == 0 {
		return w.leafStop(n)
	}
	for i := range count {
		if p := w.firstStop(w.f.Child(n, i), depth+1); !p.IsNull() {
			return p
		}
	}
	return domain.NullPosition
}

// leafStop returns the single stop of a childless node without text. Empty layout
// containers have nothing to present and no stop.
func (w *walker) leafStop(n domain.Node) domain.Position {
	if w.f.Role(n).IsContainer() {
		return domain.NullPosition
	}
	return domain.At(n, 0)
}

func (w *walker) lastStop(n domain.Node, depth int) domain.Position {
	if n == nil || w.f.IsDead(n) || !w.enter(n, depth) {
		return domain.NullPosition
	}
	defer w.leave(n)

	if text, ok := w.flow(n); ok {
		return w.scanBackward(n, text, len(text), depth)
	}
	count := w.f.ChildCount(n)
	if w.f.IsDead(n) {
		return domain.NullPosition
	}
	if count == 0 {
		return w.leafStop(n)
	}
	for i := count - 1; i >= 0; i-- {
		if p := w.lastStop(w.f.Child(n, i), depth+1); !p.IsNull() {
			return p
		}
	}
	return domain.NullPosition
}

// scanForward returns the first stop of the text node n at or after offset from.
// Objects behind markers take priority over the marker offset itself.
func (w *walker) scanForward(n domain.Node, text []rune, from, depth int) domain.Position {
	for o := max(from, 0); o <= len(text); o++ {
		if o < len(text) && text[o] == domain.EmbeddedObjectChar {
			if p := w.firstStop(w.markerChild(n, text, o), depth+1); !p.IsNull() {
				return p
			}
			continue
		}
		return domain.At(n, o)
	}
	return domain.NullPosition
}

// scanBackward returns the last stop of the text node n at or before offset from.
func (w *walker) scanBackward(n domain.Node, text []rune, from, depth int) domain.Position {
	for o := min(from, len(text)); o >= 0; o-- {
		if o < len(text) && text[o] == domain.EmbeddedObjectChar {
			if p := w.lastStop(w.markerChild(n, text, o), depth+1); !p.IsNull() {
				return p
			}
			continue
		}
		return domain.At(n, o)
	}
	return domain.NullPosition
}

func (w *walker) normalize(pos domain.Position) domain.Position {
	if pos.IsNull() {
		return pos
	}
	if text, ok := w.flow(pos.Node); ok {
		off := max(0, min(pos.Offset, len(text)))
		return w.scanForward(pos.Node, text, off, 0)
	}
	if w.f.ChildCount(pos.Node) > 0 {
		return w.firstStop(pos.Node, 0)
	}
	return w.leafStop(pos.Node)
}

func (w *walker) next(pos domain.Position, skipSpace bool, restrictTo domain.Node) domain.Position {
	if pos.IsNull() {
		return domain.NullPosition
	}
	if restrictTo != nil && !w.f.IsInside(pos.Node, restrictTo) {
		return domain.NullPosition
	}
	cur := pos
	for range maxSteps {
		cur = w.stepForward(cur, restrictTo)
		if cur.IsNull() || !skipSpace || !w.isSpaceStop(cur) {
			return cur
		}
	}
	w.nv.logger.Warn("traversal did not progress", "from", pos.String())
	return domain.NullPosition
}

func (w *walker) previous(pos domain.Position, skipSpace bool, restrictTo domain.Node) domain.Position {
	if pos.IsNull() {
		return domain.NullPosition
	}
	if restrictTo != nil && !w.f.IsInside(pos.Node, restrictTo) {
		return domain.NullPosition
	}
	cur := pos
	for range maxSteps {
		cur = w.stepBackward(cur, restrictTo)
		if cur.IsNull() || !skipSpace || !w.isSpaceStop(cur) {
			return cur
		}
	}
	w.nv.logger.Warn("traversal did not progress", "from", pos.String())
	return domain.NullPosition
}

func (w *walker) stepForward(pos domain.Position, restrictTo domain.Node) domain.Position {
	n := pos.Node
	if text, ok := w.flow(n); ok {
		if pos.Offset < len(text) {
			if p := w.scanForward(n, text, pos.Offset+1, 0); !p.IsNull() {
				return p
			}
		}
		return w.after(n, restrictTo)
	}
	if w.f.ChildCount(n) > 0 {
		if p := w.firstStop(n, 0); !p.IsNull() {
			return p
		}
	}
	return w.after(n, restrictTo)
}

func (w *walker) stepBackward(pos domain.Position, restrictTo domain.Node) domain.Position {
	n := pos.Node
	if text, ok := w.flow(n); ok && pos.Offset > 0 {
		if p := w.scanBackward(n, text, pos.Offset-1, 0); !p.IsNull() {
			return p
		}
	}
	return w.before(n, restrictTo)
}

// after returns the first stop following the whole subtree of n.
func (w *walker) after(n domain.Node, restrictTo domain.Node) domain.Position {
	visited := make(map[string]struct{})
	for cur := n; cur != nil; {
		if restrictTo != nil && domain.SameNode(cur, restrictTo) {
			return domain.NullPosition
		}
		if _, seen := visited[cur.ID()]; seen || len(visited) > access.MaxAncestors {
			w.f.Corrupt(cur, "cycle while ascending")
			return domain.NullPosition
		}
		visited[cur.ID()] = struct{}{}

		parent := w.f.Parent(cur)
		if parent == nil {
			return domain.NullPosition
		}
		idx := w.f.IndexInParent(cur)
		if idx < 0 {
			return domain.NullPosition
		}
		if text, ok := w.flow(parent); ok {
			if m := markerOffset(text, idx); m >= 0 {
				return w.scanForward(parent, text, m+1, 0)
			}
			w.f.Corrupt(cur, "object has no marker in its parent's text")
			cur = parent
			continue
		}
		count := w.f.ChildCount(parent)
		for j := idx + 1; j < count; j++ {
			if p := w.firstStop(w.f.Child(parent, j), 1); !p.IsNull() {
				return p
			}
		}
		cur = parent
	}
	return domain.NullPosition
}

// before returns the last stop preceding the whole subtree of n.
func (w *walker) before(n domain.Node, restrictTo domain.Node) domain.Position {
	visited := make(map[string]struct{})
	for cur := n; cur != nil; {
		if restrictTo != nil && domain.SameNode(cur, restrictTo) {
			return domain.NullPosition
		}
		if _, seen := visited[cur.ID()]; seen || len(visited) > access.MaxAncestors {
			w.f.Corrupt(cur, "cycle while ascending")
			return domain.NullPosition
		}
		visited[cur.ID()] = struct{}{}

		parent := w.f.Parent(cur)
		if parent == nil {
			return domain.NullPosition
		}
		idx := w.f.IndexInParent(cur)
		if idx < 0 {
			return domain.NullPosition
		}
		if text, ok := w.flow(parent); ok {
			m := markerOffset(text, idx)
			if m < 0 {
				w.f.Corrupt(cur, "object has no marker in its parent's text")
			} else if m > 0 {
				if p := w.scanBackward(parent, text, m-1, 0); !p.IsNull() {
					return p
				}
			}
			cur = parent
			continue
		}
		for j := idx - 1; j >= 0; j-- {
			if p := w.lastStop(w.f.Child(parent, j), 1); !p.IsNull() {
				return p
			}
		}
		cur = parent
	}
	return domain.NullPosition
}
