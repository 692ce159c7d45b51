package domain

import "fmt"

// ContentUnit is a fragment of extracted text: a node and the [Start, End) rune range it covers.
// For text nodes Text equals the node's substring at extraction time; it may go stale if the
// provider mutates the node later. Non-text objects produce {node, 0, 1, name}.
type ContentUnit struct {
	Node  Node   `json:"-"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Len returns the number of characters the unit covers.
func (u ContentUnit) Len() int {
	return u.End - u.Start
}

// StartPosition is the position of the first character of the unit.
func (u ContentUnit) StartPosition() Position {
	return At(u.Node, u.Start)
}

// EndPosition is the position just past the last character of the unit.
func (u ContentUnit) EndPosition() Position {
	return At(u.Node, u.End)
}

// Contains reports whether p falls inside the unit's range (end inclusive).
func (u ContentUnit) Contains(p Position) bool {
	return SameNode(u.Node, p.Node) && p.Offset >= u.Start && p.Offset <= u.End
}

func (u ContentUnit) String() string {
	return fmt.Sprintf("%s[%d:%d]%q", NodeID(u.Node), u.Start, u.End, u.Text)
}

// JoinText concatenates the text of a list of fragments.
func JoinText(units []ContentUnit) string {
	n := 0
	for _, u := range units {
		n += len(u.Text)
	}
	b := make([]byte, 0, n)
	for _, u := range units {
		b = append(b, u.Text...)
	}
	return string(b)
}

// VoiceHint tells the speech collaborator how a fragment should sound.
type VoiceHint string

const (
	VoiceDefault   VoiceHint = "default"
	VoiceHyperlink VoiceHint = "hyperlink"
	VoiceUppercase VoiceHint = "uppercase"
	VoiceSystem    VoiceHint = "system"
)

// Utterance is one item of a narration stream.
type Utterance struct {
	Unit  ContentUnit `json:"unit"`
	Voice VoiceHint   `json:"voice"`
	// Index is the ordinal of the line or sentence the fragment belongs to.
	Index int `json:"index"`
}

// Granularity selects the unit a narration reads at a time.
type Granularity string

const (
	GranularityLine     Granularity = "line"
	GranularitySentence Granularity = "sentence"
)
