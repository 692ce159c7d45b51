package runner

import (
	"io"
	"os"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Style renders voice hints and system messages for a terminal.
// A plain Style leaves text untouched.
type Style struct {
	out *termenv.Output
}

// NewStyle creates a Style for w. color enables ANSI styling with the colour profile of
// the environment.
func NewStyle(w io.Writer, color bool) *Style {
	profile := termenv.Ascii
	if color {
		profile = termenv.EnvColorProfile()
	}
	return &Style{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Voice styles text the way its voice hint would sound.
func (s *Style) Voice(text string, v domain.VoiceHint) string {
	st := s.out.String(text)
	switch v {
	case domain.VoiceHyperlink:
		st = st.Underline().Foreground(s.out.Color("4"))
	case domain.VoiceUppercase:
		st = st.Bold()
	case domain.VoiceSystem:
		return s.Message(text)
	default:
		return text
	}
	return st.String()
}

// Message styles a system message.
func (s *Style) Message(text string) string {
	return s.out.String("[" + text + "]").Faint().Italic().String()
}
