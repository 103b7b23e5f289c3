package batch

import "github.com/xb0or/Gemini-TTS/internal/task"

// EventKind identifies what an Event describes.
type EventKind int

const (
	// EventTaskStarted is emitted when a task transitions to Running.
	EventTaskStarted EventKind = iota
	// EventTaskDone is emitted when a task's audio file was written.
	EventTaskDone
	// EventTaskFailed is emitted when a task's synthesis call failed.
	EventTaskFailed
	// EventTaskCancelled is emitted for each task skipped by a cancel.
	EventTaskCancelled
	// EventRunFinished carries the run summary. Exactly one per run.
	EventRunFinished
)

// Summary holds the outcome counts of a finished run.
// Done+Failed+Cancelled equals the number of tasks in the job.
type Summary struct {
	Done      int
	Failed    int
	Cancelled int
	// CancelledRun is true when the run ended due to a cancel request.
	CancelledRun bool
}

// Event is one progress notification pushed by the engine. Each task gets
// exactly one started event and exactly one terminal event; each run gets
// exactly one EventRunFinished.
type Event struct {
	Kind EventKind

	// Index is the 1-based task position; Total the job size. Unset for
	// EventRunFinished.
	Index int
	Total int

	Status     task.Status
	OutputPath string
	Message    string // failure message, set for EventTaskFailed

	Summary Summary // set for EventRunFinished
}

// Reporter receives the engine's ordered event stream. Implementations are
// called from the engine's worker goroutine and must not block for long.
type Reporter interface {
	Report(Event)
}

// NopReporter discards all events.
type NopReporter struct{}

// Report implements Reporter.
func (NopReporter) Report(Event) {}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Event)

// Report implements Reporter.
func (f ReporterFunc) Report(ev Event) { f(ev) }

// defaultEventBuffer is the channel capacity of an EventReporter.
const defaultEventBuffer = 64

// EventReporter bridges the engine worker to another goroutine over a
// bounded channel. The consumer must drain Events until it is closed;
// a full buffer blocks the engine rather than dropping events.
type EventReporter struct {
	ch chan Event
}

// NewEventReporter creates a channel-backed reporter. A non-positive size
// uses the default buffer.
func NewEventReporter(size int) *EventReporter {
	if size <= 0 {
		size = defaultEventBuffer
	}
	return &EventReporter{ch: make(chan Event, size)}
}

// Report implements Reporter.
func (r *EventReporter) Report(ev Event) {
	r.ch <- ev
}

// Events returns the receive side of the reporter.
func (r *EventReporter) Events() <-chan Event {
	return r.ch
}

// Close closes the event channel. Call it after the run returned; the
// engine never closes the channel itself.
func (r *EventReporter) Close() {
	close(r.ch)
}
