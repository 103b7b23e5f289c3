package batch

import "errors"

// Run-level errors. Per-task synthesis failures never surface here; they
// are recorded on the task and reported through the Reporter.
var (
	// ErrMissingAPIKey means no credential is configured. The run aborts
	// before the first task; no synthesis call is made.
	ErrMissingAPIKey = errors.New("API key missing, configure it first")

	// ErrNoTasks means the job contains no runnable tasks.
	ErrNoTasks = errors.New("batch job has no tasks")

	// ErrAlreadyRunning means a run is already in progress on this runner.
	ErrAlreadyRunning = errors.New("batch job is already running")

	// ErrInvalidTransition means an operation was attempted in the wrong
	// run state.
	ErrInvalidTransition = errors.New("invalid batch state transition")

	// ErrNoVoice marks a task that has no voice of its own while the job
	// carries no default voice. The task fails; the run continues.
	ErrNoVoice = errors.New("no voice configured for task")
)
