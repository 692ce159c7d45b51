package navigation

import (
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/rivo/uniseg"
)

// cell is one stop of a run. Character stops carry their character; objects (non-text
// leaves) carry the embedded object character; end-of-node stops carry nothing.
type cell struct {
	pos     domain.Position
	char    rune
	hasChar bool
	object  bool
}

// Run is the maximal sequence of consecutive stops that share one block ancestor.
// Lines, words and sentences never cross a run.
type Run struct {
	Block domain.Node

	w        *walker
	root     domain.Node
	cells    []cell
	text     []rune
	charCell []int // character index -> cell index
	cellChar []int // cell index -> index of the first character at or after the cell
	index    map[stopKey]int

	lines, words, sentences, allSents splitMemo
}

type stopKey struct {
	id     string
	offset int
}

func keyOf(pos domain.Position) stopKey {
	return stopKey{pos.Node.ID(), pos.Offset}
}

// splitMemo holds a split of the run once it has been computed.
type splitMemo struct {
	segs []Segment
	done bool
}

func (m *splitMemo) get(split func() []Segment) []Segment {
	if !m.done {
		m.segs, m.done = split(), true
	}
	return m.segs
}

// Segment is a line, word or sentence of a run.
type Segment struct {
	// Units are the trimmed fragments of the segment, one per node it touches.
	Units []domain.ContentUnit
	// Start is the stop of the first character; End is the stop a caret lands on when it
	// moves to the end of the segment.
	Start domain.Position
	End   domain.Position
	// From and To delimit the segment's characters in the run, [From, To).
	From, To int
	// Index is the ordinal of the segment in its run.
	Index int

	cellFrom, cellTo int
}

// Text returns the spoken text of the segment.
func (s Segment) Text() string {
	return domain.JoinText(s.Units)
}

// IsBlank reports whether the segment has nothing to present.
func (s Segment) IsBlank() bool {
	return len(s.Units) == 0
}

// RunAt returns the run containing pos, bounded by root. It returns nil when pos does not
// map onto any stop.
func (nv *Navigator) RunAt(pos domain.Position, root domain.Node) *Run {
	w := nv.walker()
	return w.runAt(w.normalize(pos), root)
}

// NextRun returns the run following r, or nil at the end of the document.
func (nv *Navigator) NextRun(r *Run) *Run {
	if r == nil || len(r.cells) == 0 {
		return nil
	}
	p := r.w.next(r.Last(), false, r.root)
	if p.IsNull() {
		return nil
	}
	return r.w.runAt(p, r.root)
}

// PreviousRun returns the run preceding r, or nil at the start of the document.
func (nv *Navigator) PreviousRun(r *Run) *Run {
	if r == nil || len(r.cells) == 0 {
		return nil
	}
	p := r.w.previous(r.First(), false, r.root)
	if p.IsNull() {
		return nil
	}
	return r.w.runAt(p, r.root)
}

// isBlock reports whether n starts a run of its own. The display attribute overrides the role.
func (w *walker) isBlock(n domain.Node) bool {
	switch w.f.Attribute(n, domain.AttrDisplay) {
	case "block":
		return true
	case "inline":
		return false
	}
	return w.f.Role(n).IsBlock()
}

// blockOf returns the nearest block ancestor-or-self of n, or nil.
func (w *walker) blockOf(n domain.Node) domain.Node {
	if b, ok := w.blocks[n.ID()]; ok {
		return b
	}
	var block domain.Node
	if w.isBlock(n) {
		block = n
	} else {
		block = w.f.FindAncestor(n, w.isBlock)
	}
	w.blocks[n.ID()] = block
	return block
}

func (w *walker) runAt(pos domain.Position, root domain.Node) *Run {
	if pos.IsNull() {
		return nil
	}
	block := w.blockOf(pos.Node)

	start := pos
	for range maxSteps {
		p := w.previous(start, false, root)
		if p.IsNull() || !domain.SameNode(w.blockOf(p.Node), block) {
			break
		}
		start = p
	}

	r := &Run{Block: block, w: w, root: root, index: make(map[stopKey]int)}
	for p := start; !p.IsNull(); p = w.next(p, false, root) {
		if _, dup := r.index[keyOf(p)]; dup || len(r.cells) >= maxSteps {
			w.f.Corrupt(p.Node, "run revisits a stop")
			break
		}
		if !domain.SameNode(w.blockOf(p.Node), block) {
			break
		}
		r.add(w.cellAt(p))
	}
	return r
}

func (w *walker) cellAt(p domain.Position) cell {
	if _, ok := w.flow(p.Node); ok {
		ch, has := w.charAt(p)
		return cell{pos: p, char: ch, hasChar: has}
	}
	return cell{pos: p, char: domain.EmbeddedObjectChar, hasChar: true, object: true}
}

func (r *Run) add(c cell) {
	r.index[keyOf(c.pos)] = len(r.cells)
	r.cells = append(r.cells, c)
	r.cellChar = append(r.cellChar, len(r.text))
	if c.hasChar {
		r.charCell = append(r.charCell, len(r.cells)-1)
		r.text = append(r.text, c.char)
	}
}

// First returns the first stop of the run.
func (r *Run) First() domain.Position { return r.cells[0].pos }

// Last returns the last stop of the run.
func (r *Run) Last() domain.Position { return r.cells[len(r.cells)-1].pos }

// Len returns the number of characters in the run.
func (r *Run) Len() int { return len(r.text) }

// String returns the characters of the run.
func (r *Run) String() string { return string(r.text) }

// Contains reports whether pos is a stop of the run.
func (r *Run) Contains(pos domain.Position) bool {
	return r.cellIndex(pos) >= 0
}

func (r *Run) cellIndex(pos domain.Position) int {
	if pos.IsNull() {
		return -1
	}
	if i, ok := r.index[keyOf(pos)]; ok {
		return i
	}
	return -1
}

// fresh reports whether the text node under pos still has the length the run was built
// with. Edits that keep the length are not detected.
func (r *Run) fresh(pos domain.Position) bool {
	text, ok := r.w.flow(pos.Node)
	if !ok {
		return !r.w.f.IsDead(pos.Node)
	}
	return r.w.f.TextLength(pos.Node) == len(text)
}

// after returns the first stop of the run following pos that is neither whitespace nor the
// end of a node. It reports false when the rest of the run has none.
func (r *Run) after(pos domain.Position) (domain.Position, bool) {
	i := r.cellIndex(pos)
	if i < 0 {
		return domain.NullPosition, false
	}
	for _, c := range r.cells[i+1:] {
		if c.object || (c.hasChar && !isSpace(c.char)) {
			return c.pos, true
		}
	}
	return domain.NullPosition, false
}

// IndexOf returns the character index of the stop pos: the index of its character, or of
// the next character for stops without one. Unknown positions map to 0.
func (r *Run) IndexOf(pos domain.Position) int {
	if i := r.cellIndex(pos); i >= 0 {
		return r.cellChar[i]
	}
	return 0
}

// endStop returns the stop just after the character at index to-1.
func (r *Run) endStop(to int) domain.Position {
	if to <= 0 {
		return r.First()
	}
	c := r.charCell[to-1] + 1
	if c >= len(r.cells) {
		c = len(r.cells) - 1
	}
	return r.cells[c].pos
}

func (r *Run) startStop(from int) domain.Position {
	if from >= len(r.charCell) {
		return r.Last()
	}
	return r.cells[r.charCell[from]].pos
}

// Lines splits the run after every newline character. A trailing piece without any
// character joins the previous line.
func (r *Run) Lines() []Segment {
	return r.lines.get(r.splitLines)
}

func (r *Run) splitLines() []Segment {
	type span struct{ a, b int } // cell range
	var spans []span
	a := 0
	for i, c := range r.cells {
		if c.hasChar && c.char == '\n' {
			spans = append(spans, span{a, i + 1})
			a = i + 1
		}
	}
	if a < len(r.cells) {
		if len(spans) > 0 && r.cellChar[a] == len(r.text) {
			spans[len(spans)-1].b = len(r.cells)
		} else {
			spans = append(spans, span{a, len(r.cells)})
		}
	}

	lines := make([]Segment, 0, len(spans))
	for i, s := range spans {
		from := r.cellChar[s.a]
		to := len(r.text)
		if s.b < len(r.cells) {
			to = r.cellChar[s.b]
		}
		end := r.cells[s.b-1].pos
		for j := s.a; j < s.b; j++ {
			if c := r.cells[j]; c.hasChar && c.char == '\n' {
				end = c.pos
				break
			}
		}
		lines = append(lines, Segment{
			Units:    r.units(from, to),
			Start:    r.cells[s.a].pos,
			End:      end,
			From:     from,
			To:       to,
			Index:    i,
			cellFrom: s.a,
			cellTo:   s.b,
		})
	}
	return lines
}

// LineIndex returns the index into Lines of the line holding pos.
func (r *Run) LineIndex(lines []Segment, pos domain.Position) int {
	c := r.cellIndex(pos)
	if c < 0 {
		return 0
	}
	i, found := slices.BinarySearchFunc(lines, c, func(l Segment, c int) int {
		switch {
		case c < l.cellFrom:
			return 1
		case c >= l.cellTo:
			return -1
		}
		return 0
	})
	if !found {
		return 0
	}
	return i
}

// Words returns the non-blank UAX #29 words of the run.
func (r *Run) Words() []Segment {
	return r.words.get(func() []Segment { return r.segments(uniseg.FirstWordInString, true) })
}

// Sentences returns the non-blank UAX #29 sentences of the run.
func (r *Run) Sentences() []Segment {
	return r.sentences.get(func() []Segment { return r.segments(uniseg.FirstSentenceInString, true) })
}

// allSentences also keeps blank sentences so the result tiles the run.
func (r *Run) allSentences() []Segment {
	return r.allSents.get(func() []Segment { return r.segments(uniseg.FirstSentenceInString, false) })
}

func (r *Run) segments(first func(string, int) (string, string, int), skipBlank bool) []Segment {
	var out []Segment
	rest := string(r.text)
	state := -1
	from := 0
	for len(rest) > 0 {
		var seg string
		seg, rest, state = first(rest, state)
		to := from + utf8.RuneCountInString(seg)
		if !skipBlank || !isBlank(r.text[from:to]) {
			out = append(out, Segment{
				Units: r.units(from, to),
				Start: r.startStop(from),
				End:   r.endStop(to),
				From:  from,
				To:    to,
				Index: len(out),
			})
		}
		from = to
	}
	return out
}

// units turns the characters [from, to) into trimmed per-node fragments.
func (r *Run) units(from, to int) []domain.ContentUnit {
	for from < to && isSpace(r.text[from]) {
		from++
	}
	for to > from && isSpace(r.text[to-1]) {
		to--
	}

	var out []domain.ContentUnit
	growing := false // the last fragment can still be extended
	for k := from; k < to; k++ {
		c := r.cells[r.charCell[k]]
		if c.object {
			out = append(out, domain.ContentUnit{Node: c.pos.Node, Start: 0, End: 1, Text: r.w.f.Name(c.pos.Node)})
			growing = false
			continue
		}
		if last := len(out) - 1; growing && domain.SameNode(out[last].Node, c.pos.Node) && out[last].End == c.pos.Offset {
			out[last].End++
			continue
		}
		out = append(out, domain.ContentUnit{Node: c.pos.Node, Start: c.pos.Offset, End: c.pos.Offset + 1})
		growing = true
	}

	kept := out[:0]
	for _, u := range out {
		if u.Len() <= 0 {
			continue
		}
		if text, ok := r.w.flow(u.Node); ok && u.End <= len(text) {
			u.Text = string(text[u.Start:u.End])
		}
		kept = append(kept, u)
	}
	return kept
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}

func isBlank(text []rune) bool {
	for _, r := range text {
		if !isSpace(r) {
			return false
		}
	}
	return true
}
