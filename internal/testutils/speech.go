package testutils

import (
	"context"
	"iter"
	"sync"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// Speech is a ports.SpeechEngine driven by the test. Speak only takes the stream; Step
// speaks one utterance and reports progress the way a real engine does from its own thread.
type Speech struct {
	mu         sync.Mutex
	next       func() (domain.Utterance, bool)
	stop       func()
	progress   ports.ProgressFunc
	progresses []ports.ProgressFunc
	last       domain.Position
	spoken     []domain.Utterance
}

var _ ports.SpeechEngine = (*Speech)(nil)

func (e *Speech) Speak(_ context.Context, stream iter.Seq[domain.Utterance], progress ports.ProgressFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.next, e.stop = iter.Pull(stream)
	e.progress = progress
	e.progresses = append(e.progresses, progress)
	return nil
}

// Stop reports an interruption at the last spoken position.
func (e *Speech) Stop() {
	e.mu.Lock()
	stop, progress, last := e.stop, e.progress, e.last
	e.stop = nil
	e.mu.Unlock()
	if stop == nil {
		return
	}
	stop()
	progress(last, domain.SignalInterrupted)
}

// Step speaks one utterance. It reports COMPLETED and returns false once the stream is done.
func (e *Speech) Step() bool {
	e.mu.Lock()
	next, progress, last := e.next, e.progress, e.last
	e.mu.Unlock()
	if next == nil {
		return false
	}
	u, ok := next()
	if !ok {
		progress(last, domain.SignalCompleted)
		return false
	}
	e.mu.Lock()
	e.spoken = append(e.spoken, u)
	e.last = u.Unit.StartPosition()
	e.mu.Unlock()
	progress(u.Unit.StartPosition(), domain.SignalProgress)
	return true
}

// Drain speaks until the stream ends.
func (e *Speech) Drain() {
	for range 1000 {
		if !e.Step() {
			return
		}
	}
}

// Spoken returns the utterances spoken so far.
func (e *Speech) Spoken() []domain.Utterance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.Utterance(nil), e.spoken...)
}

func (e *Speech) Texts() []string {
	spoken := e.Spoken()
	out := make([]string, 0, len(spoken))
	for _, u := range spoken {
		out = append(out, u.Unit.Text)
	}
	return out
}

// Progresses returns every progress callback handed to Speak, oldest first.
func (e *Speech) Progresses() []ports.ProgressFunc {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ports.ProgressFunc(nil), e.progresses...)
}
