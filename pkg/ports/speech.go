package ports

import (
	"context"
	"iter"

	"github.com/aretw0/narrator/pkg/domain"
)

// ProgressFunc is called by a SpeechEngine while it consumes a stream.
// It may be called from any goroutine. pos is the position currently being spoken
// (Progress), where speech stopped (Interrupted), or the end of the last unit (Completed).
type ProgressFunc func(pos domain.Position, sig domain.Signal)

// SpeechEngine consumes a lazy stream of utterances.
//
// Speak may deliver synchronously (returning after the stream is spoken) or asynchronously
// (returning immediately); the engine does not assume either. Exactly one of
// SignalInterrupted or SignalCompleted must be reported per call, after any number of
// SignalProgress reports. Stop asks the engine to abandon the current stream, which it
// reports as SignalInterrupted.
type SpeechEngine interface {
	Speak(ctx context.Context, stream iter.Seq[domain.Utterance], progress ProgressFunc) error
	Stop()
}

// Presenter receives outbound presentation requests: the caret or region changed and the
// given units should be shown (braille) or spoken (speech) to the user.
type Presenter interface {
	Present(ctx context.Context, req PresentationRequest) error
}

// PresentationRequest describes what changed and what to present.
type PresentationRequest struct {
	SessionID string
	Command   string
	Position  domain.Position
	Units     []domain.ContentUnit
	// Message is a neutral system message such as "location not found" or a mode change.
	Message string
}
