// Package batch drives sequential execution of a text-to-speech job
// against a rate-limited synthesis backend.
package batch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/xb0or/Gemini-TTS/internal/task"
)

// Synthesizer is the synthesis client contract the engine drives. One call
// per task; the call blocks until the provider responds and the audio file
// is written.
type Synthesizer interface {
	// Preflight validates credentials and configuration without touching
	// the network. The engine calls it once before the first task.
	Preflight() error

	// Synthesize converts text spoken by voice into an audio file at
	// outputPath.
	Synthesize(ctx context.Context, text, voice, outputPath string) error
}

// Job is an ordered task list plus the run-level settings the engine reads
// at start: inter-task delay and the defaults tasks fall back to.
type Job struct {
	Tasks         []task.Task
	Delay         time.Duration
	DefaultVoice  string
	DefaultOutput string
}

// Runner executes a Job strictly in task order on the calling goroutine.
// Tasks are owned by the runner while a run is in progress; callers read
// them through Snapshot and must not mutate the job concurrently.
type Runner struct {
	mu    sync.Mutex
	job   Job
	state State

	synth    Synthesizer
	reporter Reporter

	cancelRequested atomic.Bool
	cancelCh        chan struct{}
	cancelOnce      *sync.Once
}

// NewRunner creates a runner for the given job. A nil reporter discards
// events.
func NewRunner(job Job, synth Synthesizer, reporter Reporter) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{
		job:        job,
		state:      StateIdle,
		synth:      synth,
		reporter:   reporter,
		cancelCh:   make(chan struct{}),
		cancelOnce: &sync.Once{},
	}
}

// State returns the current run state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Snapshot returns a copy of the job, including per-task statuses. Safe to
// call at any time.
func (r *Runner) Snapshot() Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := r.job
	snap.Tasks = task.Clone(r.job.Tasks)
	return snap
}

// Cancel requests a cooperative stop. It is idempotent and safe from any
// goroutine; the engine leaves Running on its own schedule at the next
// checkpoint and never interrupts an in-flight synthesis call.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning && r.state != StateCancelling {
		return
	}
	r.requestCancelLocked()
}

func (r *Runner) requestCancelLocked() {
	r.cancelRequested.Store(true)
	r.cancelOnce.Do(func() { close(r.cancelCh) })
	if r.state == StateRunning {
		r.setStateLocked(StateCancelling)
	}
}

// Run executes every task in order. Per-task synthesis failures do not
// abort the run; they are recorded on the task and reported. Run returns
// an error only for run-level preconditions: missing credentials, an empty
// job, or a run already in progress. Cancelling ctx is equivalent to
// calling Cancel.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.begin(); err != nil {
		return err
	}

	total := len(r.job.Tasks)
	log.Debug("batch run starting", "tasks", total, "delay", r.job.Delay)

	var sum Summary
	for i := range r.job.Tasks {
		if r.cancelPending(ctx) {
			r.markRemaining(i, &sum)
			r.finish(sum, true)
			return nil
		}

		r.runTask(ctx, i, total, &sum)

		if i < total-1 && !r.cancelPending(ctx) {
			r.pause(ctx)
		}
	}

	r.finish(sum, false)
	return nil
}

// begin checks run preconditions and moves the runner into StateRunning.
// Precondition failures happen before any task starts: no synthesis call
// is made and no event is emitted.
func (r *Runner) begin() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRunning || r.state == StateCancelling {
		return ErrAlreadyRunning
	}
	if len(r.job.Tasks) == 0 {
		return ErrNoTasks
	}
	if err := r.synth.Preflight(); err != nil {
		return fmt.Errorf("batch preflight: %w", err)
	}
	if !canTransition(r.state, StateRunning) {
		return ErrInvalidTransition
	}

	// Fresh run: reset statuses and the cancellation signal.
	for i := range r.job.Tasks {
		r.job.Tasks[i].Status = task.StatusPending
		r.job.Tasks[i].Err = ""
	}
	r.cancelRequested.Store(false)
	r.cancelCh = make(chan struct{})
	r.cancelOnce = &sync.Once{}

	r.setStateLocked(StateRunning)
	return nil
}

// runTask executes the i-th task: resolve the output path, invoke the
// synthesizer, record the terminal status and report it.
func (r *Runner) runTask(ctx context.Context, i, total int, sum *Summary) {
	r.mu.Lock()
	t := r.job.Tasks[i]
	outputPath := task.ResolveOutput(t, i+1, r.job.DefaultOutput)
	voice := t.Voice
	if voice == "" {
		voice = r.job.DefaultVoice
	}
	r.job.Tasks[i].OutputPath = outputPath
	r.job.Tasks[i].Status = task.StatusRunning
	r.mu.Unlock()

	r.reporter.Report(Event{
		Kind:       EventTaskStarted,
		Index:      i + 1,
		Total:      total,
		Status:     task.StatusRunning,
		OutputPath: outputPath,
	})

	err := ErrNoVoice
	if voice != "" {
		start := time.Now()
		err = r.synth.Synthesize(ctx, t.Text, voice, outputPath)
		log.Debug("synthesis call returned", "index", i+1, "elapsed", time.Since(start), "err", err)
	}

	r.mu.Lock()
	ev := Event{Index: i + 1, Total: total, OutputPath: outputPath}
	if err != nil {
		r.job.Tasks[i].Status = task.StatusFailed
		r.job.Tasks[i].Err = err.Error()
		ev.Kind = EventTaskFailed
		ev.Status = task.StatusFailed
		ev.Message = err.Error()
		sum.Failed++
	} else {
		r.job.Tasks[i].Status = task.StatusDone
		ev.Kind = EventTaskDone
		ev.Status = task.StatusDone
		sum.Done++
	}
	r.mu.Unlock()

	r.reporter.Report(ev)
}

// pause sleeps the configured inter-task delay. The sleep is interruptible
// by a cancel request or context cancellation; the caller re-checks the
// cancel flag immediately after waking.
func (r *Runner) pause(ctx context.Context) {
	if r.job.Delay <= 0 {
		return
	}

	timer := time.NewTimer(r.job.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-r.cancelCh:
	case <-ctx.Done():
	}
}

// cancelPending reports whether a stop was requested, folding context
// cancellation into the cooperative cancel flag.
func (r *Runner) cancelPending(ctx context.Context) bool {
	if ctx.Err() != nil {
		r.mu.Lock()
		r.requestCancelLocked()
		r.mu.Unlock()
	}
	return r.cancelRequested.Load()
}

// markRemaining marks tasks from index on as Cancelled and emits their
// terminal events.
func (r *Runner) markRemaining(from int, sum *Summary) {
	total := len(r.job.Tasks)

	r.mu.Lock()
	for i := from; i < total; i++ {
		r.job.Tasks[i].Status = task.StatusCancelled
		sum.Cancelled++
	}
	r.mu.Unlock()

	for i := from; i < total; i++ {
		r.reporter.Report(Event{
			Kind:   EventTaskCancelled,
			Index:  i + 1,
			Total:  total,
			Status: task.StatusCancelled,
		})
	}
}

// finish records the terminal run state and emits the summary event.
func (r *Runner) finish(sum Summary, cancelled bool) {
	sum.CancelledRun = cancelled

	r.mu.Lock()
	switch {
	case cancelled, r.state == StateCancelling:
		// Cancelled runs settle back to idle. A cancel that landed after
		// the last task left every task terminal but still ends in idle.
		if r.state == StateRunning {
			r.setStateLocked(StateCancelling)
		}
		r.setStateLocked(StateIdle)
	default:
		r.setStateLocked(StateCompleted)
	}
	r.mu.Unlock()

	log.Info("batch run finished",
		"done", sum.Done,
		"failed", sum.Failed,
		"cancelled", sum.Cancelled,
	)

	r.reporter.Report(Event{Kind: EventRunFinished, Summary: sum})
}

func (r *Runner) setStateLocked(to State) {
	if !canTransition(r.state, to) {
		log.Warn("illegal batch state transition", "from", r.state, "to", to)
		return
	}
	r.state = to
}
