// Package task defines the batch task model, the task-list text codec
// and the output naming resolver.
package task

// Status represents the lifecycle state of a single task.
type Status string

const (
	// StatusPending means the task has not started yet.
	StatusPending Status = "Pending"

	// StatusRunning means the task is currently being synthesized.
	StatusRunning Status = "Running"

	// StatusDone means synthesis finished and the audio file was written.
	StatusDone Status = "Done"

	// StatusFailed means synthesis failed; the error is kept on the task.
	StatusFailed Status = "Failed"

	// StatusCancelled means the task was skipped due to a cancelled run.
	StatusCancelled Status = "Cancelled"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true if the task reached a final state.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed || s == StatusCancelled
}

// Task is one text-to-speech conversion request. Voice and OutputPath are
// optional: an empty Voice falls back to the job default, an empty
// OutputPath is resolved by ResolveOutput just before the task runs.
type Task struct {
	Text       string
	Voice      string
	OutputPath string

	Status Status
	Err    string // set only when Status is StatusFailed
}

// New creates a pending task.
func New(text, voice, outputPath string) Task {
	return Task{
		Text:       text,
		Voice:      voice,
		OutputPath: outputPath,
		Status:     StatusPending,
	}
}

// Clone returns a copy of the task list. The batch engine hands clones to
// callers so a running job's tasks are never shared.
func Clone(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	copy(out, tasks)
	return out
}
