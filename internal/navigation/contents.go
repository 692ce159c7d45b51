package navigation

import (
	"sort"

	"github.com/aretw0/narrator/pkg/domain"
)

// locate normalizes pos and returns it with the run holding it.
func (nv *Navigator) locate(pos domain.Position, root domain.Node) (*Run, domain.Position) {
	w := nv.walker()
	pos = w.normalize(pos)
	return w.runAt(pos, root), pos
}

// LineAt returns the line holding pos and the run it belongs to.
func (nv *Navigator) LineAt(pos domain.Position, root domain.Node) (Segment, *Run, bool) {
	r, pos := nv.locate(pos, root)
	if r == nil {
		return Segment{}, nil, false
	}
	seg, ok := r.LineAt(pos)
	return seg, r, ok
}

// WordAt returns the word under pos, or the word ending right before it.
func (nv *Navigator) WordAt(pos domain.Position, root domain.Node) (Segment, *Run, bool) {
	r, pos := nv.locate(pos, root)
	if r == nil {
		return Segment{}, nil, false
	}
	seg, ok := r.WordAt(pos)
	return seg, r, ok
}

// SentenceAt returns the sentence holding pos. The result may be blank when pos sits in
// whitespace between sentences.
func (nv *Navigator) SentenceAt(pos domain.Position, root domain.Node) (Segment, *Run, bool) {
	r, pos := nv.locate(pos, root)
	if r == nil {
		return Segment{}, nil, false
	}
	seg, ok := r.SentenceAt(pos)
	return seg, r, ok
}

// LineAt returns the line holding the stop pos.
func (r *Run) LineAt(pos domain.Position) (Segment, bool) {
	lines := r.Lines()
	if len(lines) == 0 {
		return Segment{}, false
	}
	return lines[r.LineIndex(lines, pos)], true
}

// WordAt returns the word under the stop pos, or the word ending right before it.
func (r *Run) WordAt(pos domain.Position) (Segment, bool) {
	ci := r.IndexOf(pos)
	words := r.Words()
	i := sort.Search(len(words), func(i int) bool { return words[i].To > ci })
	if i < len(words) && words[i].From <= ci {
		return words[i], true
	}
	if i > 0 && words[i-1].To == ci {
		return words[i-1], true
	}
	return Segment{}, false
}

// SentenceAt returns the sentence holding the stop pos.
func (r *Run) SentenceAt(pos domain.Position) (Segment, bool) {
	sentences := r.allSentences()
	if len(sentences) == 0 {
		// A run without characters (only end stops) is a single blank sentence.
		return Segment{Start: r.First(), End: r.Last()}, true
	}
	ci := r.IndexOf(pos)
	i := sort.Search(len(sentences), func(i int) bool { return sentences[i].To > ci })
	if i < len(sentences) {
		return sentences[i], true
	}
	return sentences[len(sentences)-1], true
}

// CharacterAt returns the character or object at pos as a unit.
func (nv *Navigator) CharacterAt(pos domain.Position) (domain.ContentUnit, bool) {
	w := nv.walker()
	pos = w.normalize(pos)
	if pos.IsNull() {
		return domain.ContentUnit{}, false
	}
	if ch, ok := w.charAt(pos); ok {
		return domain.ContentUnit{Node: pos.Node, Start: pos.Offset, End: pos.Offset + 1, Text: string(ch)}, true
	}
	if _, ok := w.flow(pos.Node); ok {
		// end of node
		return domain.ContentUnit{Node: pos.Node, Start: pos.Offset, End: pos.Offset}, true
	}
	return domain.ContentUnit{Node: pos.Node, Start: 0, End: 1, Text: nv.f.Name(pos.Node)}, true
}

// LineContentsAt returns the fragments of the line holding pos.
func (nv *Navigator) LineContentsAt(pos domain.Position, root domain.Node) []domain.ContentUnit {
	seg, _, _ := nv.LineAt(pos, root)
	return seg.Units
}

// WordContentsAt returns the fragments of the word at pos.
func (nv *Navigator) WordContentsAt(pos domain.Position, root domain.Node) []domain.ContentUnit {
	seg, _, _ := nv.WordAt(pos, root)
	return seg.Units
}

// SentenceContentsAt returns the fragments of the sentence holding pos.
func (nv *Navigator) SentenceContentsAt(pos domain.Position, root domain.Node) []domain.ContentUnit {
	seg, _, _ := nv.SentenceAt(pos, root)
	return seg.Units
}

// Cursor resolves segments for a sequence of nearby positions. It keeps the last run it
// built and reuses it while positions stay inside it and its text nodes keep their
// length. A Cursor is not safe for concurrent use.
type Cursor struct {
	nv     *Navigator
	root   domain.Node
	run    *Run
	builds int
}

// Cursor returns a Cursor bounded by root.
func (nv *Navigator) Cursor(root domain.Node) *Cursor {
	return &Cursor{nv: nv, root: root}
}

// RunAt returns the run holding pos.
func (c *Cursor) RunAt(pos domain.Position) (*Run, domain.Position) {
	if c.run != nil && c.run.Contains(pos) && c.run.fresh(pos) {
		return c.run, pos
	}
	r, p := c.nv.locate(pos, c.root)
	c.run = r
	if r != nil {
		c.builds++
	}
	return r, p
}

// SegmentAt returns the line or sentence holding pos.
func (c *Cursor) SegmentAt(pos domain.Position, g domain.Granularity) (Segment, bool) {
	r, pos := c.RunAt(pos)
	if r == nil {
		return Segment{}, false
	}
	if g == domain.GranularitySentence {
		return r.SentenceAt(pos)
	}
	return r.LineAt(pos)
}

// Next is Navigator.Next with skipSpace, answered from the cached run while it can be.
func (c *Cursor) Next(pos domain.Position) domain.Position {
	if c.run != nil {
		if p, ok := c.run.after(pos); ok && c.run.fresh(p) {
			return p
		}
	}
	return c.nv.Next(pos, true, c.root)
}

// Builds returns how many runs the cursor has built.
func (c *Cursor) Builds() int {
	return c.builds
}
