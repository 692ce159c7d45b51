package runner

import (
	"context"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/aretw0/narrator/pkg/domain"
	"github.com/aretw0/narrator/pkg/ports"
)

// Console is a ports.SpeechEngine that "speaks" by writing one utterance per line.
//
// With a zero pace Speak is synchronous: it returns once the stream is written. With a pace
// it speaks in the background, waiting pace between utterances, so that Stop (or a command
// that interrupts the narration) can cut it short.
type Console struct {
	out   io.Writer
	style *Style
	pace  time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ ports.SpeechEngine = (*Console)(nil)

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithPace speaks asynchronously, waiting d after each utterance.
func WithPace(d time.Duration) ConsoleOption {
	return func(c *Console) {
		c.pace = d
	}
}

// WithStyle renders voice hints with s.
func WithStyle(s *Style) ConsoleOption {
	return func(c *Console) {
		c.style = s
	}
}

// NewConsole creates a console speech engine writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{out: w}
	for _, opt := range opts {
		opt(c)
	}
	if c.style == nil {
		c.style = NewStyle(w, false)
	}
	return c
}

// Speak implements ports.SpeechEngine. A stream still being spoken is abandoned.
func (c *Console) Speak(ctx context.Context, stream iter.Seq[domain.Utterance], progress ports.ProgressFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	prev := c.cancel
	c.cancel = cancel
	c.mu.Unlock()
	if prev != nil {
		prev()
	}

	if c.pace <= 0 {
		c.speak(ctx, stream, progress)
		return nil
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.speak(ctx, stream, progress)
	}()
	return nil
}

// Stop implements ports.SpeechEngine: the stream being spoken is abandoned and reported as
// interrupted.
func (c *Console) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Wait blocks until background speech has finished.
func (c *Console) Wait() {
	c.wg.Wait()
}

func (c *Console) speak(ctx context.Context, stream iter.Seq[domain.Utterance], progress ports.ProgressFunc) {
	next, stop := iter.Pull(stream)
	defer stop()

	last := domain.NullPosition
	end := domain.NullPosition
	for {
		// Pulling runs the producer, so a stopped narration must not pull again.
		if ctx.Err() != nil {
			progress(last, domain.SignalInterrupted)
			return
		}
		utt, ok := next()
		if !ok {
			break
		}
		fmt.Fprintln(c.out, c.style.Voice(utt.Unit.Text, utt.Voice))
		last, end = utt.Unit.StartPosition(), utt.Unit.EndPosition()
		progress(last, domain.SignalProgress)

		if c.pace > 0 {
			timer := time.NewTimer(c.pace)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}
	}
	if ctx.Err() != nil {
		progress(last, domain.SignalInterrupted)
		return
	}
	progress(end, domain.SignalCompleted)
}
