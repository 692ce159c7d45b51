package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithInput reads commands from in instead of Stdin.
func WithInput(in io.Reader) Option {
	return func(r *Runner) {
		r.input = in
	}
}

// WithOutput writes prompts and messages to w instead of Stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.output = w
	}
}

// WithRunnerStyle styles messages with s.
func WithRunnerStyle(s *Style) Option {
	return func(r *Runner) {
		r.style = s
	}
}

// WithKeyMap replaces DefaultKeyMap.
func WithKeyMap(keys map[string]string) Option {
	return func(r *Runner) {
		r.keys = keys
	}
}

// WithHeadless suppresses the prompt, for scripted input.
func WithHeadless(headless bool) Option {
	return func(r *Runner) {
		r.headless = headless
	}
}
