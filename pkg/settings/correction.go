package settings

import "slices"

// AnnouncementKind tags what a correction-session announcement is about.
type AnnouncementKind string

const (
	// KindErrorWidget is the text of an error widget (spelling error, validation message).
	KindErrorWidget AnnouncementKind = "error_widget"
	// KindContextLine is the line holding the text being corrected.
	KindContextLine AnnouncementKind = "context_line"
)

// Announcement is one pending announcement of a correction session.
type Announcement struct {
	Kind AnnouncementKind
	Text string
}

// CorrectionPolicy orders announcements that change at the same time during a correction
// session. Announcements of the same kind keep their relative order.
type CorrectionPolicy struct {
	Precedence Precedence
}

// Policy returns the correction policy configured in s.
func (s Settings) Policy() CorrectionPolicy {
	return CorrectionPolicy{Precedence: s.CorrectionPrecedence}
}

// Order returns the announcements in presentation order.
func (p CorrectionPolicy) Order(anns []Announcement) []Announcement {
	first := KindErrorWidget
	if p.Precedence == ContextFirst {
		first = KindContextLine
	}
	out := slices.Clone(anns)
	slices.SortStableFunc(out, func(a, b Announcement) int {
		return rank(a.Kind, first) - rank(b.Kind, first)
	})
	return out
}

func rank(k, first AnnouncementKind) int {
	if k == first {
		return 0
	}
	return 1
}
