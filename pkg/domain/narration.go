package domain

// Signal is a progress notification sent by the speech collaborator.
type Signal string

const (
	// SignalProgress means the engine is mid-utterance at the reported position.
	SignalProgress Signal = "progress"
	// SignalInterrupted means speech stopped before the stream was exhausted.
	SignalInterrupted Signal = "interrupted"
	// SignalCompleted means every yielded utterance was spoken.
	SignalCompleted Signal = "completed"
)

// InterruptCause records why a narration was interrupted.
type InterruptCause string

const (
	CauseNone     InterruptCause = ""
	CauseMoveUp   InterruptCause = "move_up"
	CauseMoveDown InterruptCause = "move_down"
	CauseOther    InterruptCause = "other"
)

// NarrationStatus is the state of a narration session.
//
//	Idle -> Running -> {Interrupted, Completed}
//	Running -> Running (rewind / fast-forward restart)
type NarrationStatus string

const (
	NarrationIdle        NarrationStatus = "idle"
	NarrationRunning     NarrationStatus = "running"
	NarrationInterrupted NarrationStatus = "interrupted"
	NarrationCompleted   NarrationStatus = "completed"
)

// IsTerminal reports whether no further transition is possible.
func (s NarrationStatus) IsTerminal() bool {
	return s == NarrationInterrupted || s == NarrationCompleted
}
