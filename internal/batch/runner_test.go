package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xb0or/Gemini-TTS/internal/task"
)

type call struct {
	text   string
	voice  string
	output string
}

// mockSynth is a controllable Synthesizer for engine tests.
type mockSynth struct {
	mu           sync.Mutex
	preflightErr error
	failures     map[int]error // 1-based call number -> error to return
	hook         func(n int)   // runs after the n-th call is recorded
	block        chan struct{} // when set, Synthesize waits on it
	calls        []call
}

func (m *mockSynth) Preflight() error { return m.preflightErr }

func (m *mockSynth) Synthesize(ctx context.Context, text, voice, output string) error {
	m.mu.Lock()
	m.calls = append(m.calls, call{text, voice, output})
	n := len(m.calls)
	hook := m.hook
	block := m.block
	err := m.failures[n]
	m.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
		}
	}
	return err
}

func (m *mockSynth) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSynth) callAt(i int) call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[i]
}

// recorder collects every event the engine reports.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func testJob(n int) Job {
	tasks := make([]task.Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, task.New(fmt.Sprintf("text %d", i+1), "Puck", ""))
	}
	return Job{Tasks: tasks, DefaultOutput: "out.wav"}
}

// TestRunAllSuccess tests a full run where every task succeeds.
func TestRunAllSuccess(t *testing.T) {
	synth := &mockSynth{}
	rec := &recorder{}
	r := NewRunner(testJob(3), synth, rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := r.State(); got != StateCompleted {
		t.Errorf("State() = %v, want %v", got, StateCompleted)
	}
	if got := synth.callCount(); got != 3 {
		t.Errorf("synthesis calls = %d, want 3", got)
	}

	// Derived output paths are numbered by 1-based position.
	for i := 0; i < 3; i++ {
		want := fmt.Sprintf("out_%d.wav", i+1)
		if got := synth.callAt(i).output; got != want {
			t.Errorf("call %d output = %q, want %q", i+1, got, want)
		}
	}

	snap := r.Snapshot()
	for i, tk := range snap.Tasks {
		if tk.Status != task.StatusDone {
			t.Errorf("task %d status = %v, want %v", i+1, tk.Status, task.StatusDone)
		}
	}
}

// TestRunContinuesOnFailure tests that one failing task does not stop the
// run.
func TestRunContinuesOnFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	synth := &mockSynth{failures: map[int]error{2: boom}}
	rec := &recorder{}
	r := NewRunner(testJob(3), synth, rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := synth.callCount(); got != 3 {
		t.Errorf("synthesis calls = %d, want 3", got)
	}

	snap := r.Snapshot()
	wantStatus := []task.Status{task.StatusDone, task.StatusFailed, task.StatusDone}
	for i, want := range wantStatus {
		if snap.Tasks[i].Status != want {
			t.Errorf("task %d status = %v, want %v", i+1, snap.Tasks[i].Status, want)
		}
	}
	if snap.Tasks[1].Err != boom.Error() {
		t.Errorf("task 2 err = %q, want %q", snap.Tasks[1].Err, boom.Error())
	}

	var sum Summary
	for _, ev := range rec.all() {
		if ev.Kind == EventRunFinished {
			sum = ev.Summary
		}
	}
	if sum.Done != 2 || sum.Failed != 1 || sum.Cancelled != 0 {
		t.Errorf("summary = %+v, want 2 done, 1 failed, 0 cancelled", sum)
	}
}

// TestRunFailFast tests that a failing preflight aborts before any task:
// no synthesis call, no events.
func TestRunFailFast(t *testing.T) {
	synth := &mockSynth{preflightErr: ErrMissingAPIKey}
	rec := &recorder{}
	r := NewRunner(testJob(2), synth, rec)

	err := r.Run(context.Background())
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Run() error = %v, want %v", err, ErrMissingAPIKey)
	}

	if got := synth.callCount(); got != 0 {
		t.Errorf("synthesis calls = %d, want 0", got)
	}
	if got := len(rec.all()); got != 0 {
		t.Errorf("events = %d, want 0", got)
	}
	if got := r.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

// TestRunEmptyJob tests that a run with no tasks is rejected.
func TestRunEmptyJob(t *testing.T) {
	r := NewRunner(Job{}, &mockSynth{}, nil)
	if err := r.Run(context.Background()); !errors.Is(err, ErrNoTasks) {
		t.Errorf("Run() error = %v, want %v", err, ErrNoTasks)
	}
}

// TestRunAlreadyRunning tests that a second concurrent run is rejected.
func TestRunAlreadyRunning(t *testing.T) {
	release := make(chan struct{})
	synth := &mockSynth{block: release}
	r := NewRunner(testJob(1), synth, nil)

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	waitFor(t, func() bool { return r.State() == StateRunning })

	if err := r.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() error = %v, want %v", err, ErrAlreadyRunning)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first Run() error = %v", err)
	}
}

// TestCancelSkipsRemainingTasks tests that a cancel lets the current task
// finish, then marks the rest cancelled without further synthesis calls.
func TestCancelSkipsRemainingTasks(t *testing.T) {
	var r *Runner
	synth := &mockSynth{}
	synth.hook = func(n int) {
		if n == 1 {
			r.Cancel()
		}
	}
	rec := &recorder{}
	job := testJob(3)
	job.Delay = time.Minute
	r = NewRunner(job, synth, rec)

	start := time.Now()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancelled run took %v, the delay was not interrupted", elapsed)
	}

	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesis calls = %d, want 1", got)
	}
	if got := r.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}

	snap := r.Snapshot()
	wantStatus := []task.Status{task.StatusDone, task.StatusCancelled, task.StatusCancelled}
	for i, want := range wantStatus {
		if snap.Tasks[i].Status != want {
			t.Errorf("task %d status = %v, want %v", i+1, snap.Tasks[i].Status, want)
		}
	}

	var sum Summary
	for _, ev := range rec.all() {
		if ev.Kind == EventRunFinished {
			sum = ev.Summary
		}
	}
	if !sum.CancelledRun {
		t.Error("summary.CancelledRun = false, want true")
	}
	if sum.Done != 1 || sum.Cancelled != 2 {
		t.Errorf("summary = %+v, want 1 done, 2 cancelled", sum)
	}
}

// TestCancelDuringDelay tests a cancel that arrives while the engine is
// sleeping between tasks: the sleep wakes early, the remaining tasks are
// cancelled and no further synthesis call is made.
func TestCancelDuringDelay(t *testing.T) {
	var r *Runner
	synth := &mockSynth{}
	rec := &recorder{}
	cancelSent := make(chan struct{})

	// Fire the cancel shortly after the first task's terminal event, so
	// the engine has entered the inter-task sleep by the time it lands.
	rep := ReporterFunc(func(ev Event) {
		rec.Report(ev)
		if ev.Kind == EventTaskDone && ev.Index == 1 {
			go func() {
				time.Sleep(50 * time.Millisecond)
				r.Cancel()
				close(cancelSent)
			}()
		}
	})

	job := testJob(3)
	job.Delay = time.Minute
	r = NewRunner(job, synth, rep)

	start := time.Now()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	<-cancelSent
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("cancelled run took %v, the delay sleep was not interrupted", elapsed)
	}

	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesis calls = %d, want 1", got)
	}
	if got := r.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}

	snap := r.Snapshot()
	wantStatus := []task.Status{task.StatusDone, task.StatusCancelled, task.StatusCancelled}
	for i, want := range wantStatus {
		if snap.Tasks[i].Status != want {
			t.Errorf("task %d status = %v, want %v", i+1, snap.Tasks[i].Status, want)
		}
	}

	var sum Summary
	for _, ev := range rec.all() {
		if ev.Kind == EventRunFinished {
			sum = ev.Summary
		}
	}
	if sum.Done != 1 || sum.Failed != 0 || sum.Cancelled != 2 || !sum.CancelledRun {
		t.Errorf("summary = %+v, want 1 done, 0 failed, 2 cancelled, cancelled run", sum)
	}
}

// TestCancelIsIdempotent tests that repeated cancels are harmless,
// including on an idle runner.
func TestCancelIsIdempotent(t *testing.T) {
	r := NewRunner(testJob(1), &mockSynth{}, nil)

	// Cancel before any run is a no-op.
	r.Cancel()
	r.Cancel()
	if got := r.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := r.State(); got != StateCompleted {
		t.Errorf("State() = %v, want %v", got, StateCompleted)
	}
}

// TestContextCancelStopsRun tests that cancelling the context behaves like
// a cancel request.
func TestContextCancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	synth := &mockSynth{}
	synth.hook = func(n int) {
		if n == 1 {
			cancel()
		}
	}
	job := testJob(2)
	job.Delay = time.Minute
	r := NewRunner(job, synth, nil)

	if err := r.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesis calls = %d, want 1", got)
	}
	if got := r.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

// TestTaskWithoutVoiceFails tests that a task with no voice and no job
// default fails without a synthesis call while the run continues.
func TestTaskWithoutVoiceFails(t *testing.T) {
	synth := &mockSynth{}
	job := Job{
		Tasks: []task.Task{
			task.New("no voice here", "", ""),
			task.New("this one speaks", "Kore", ""),
		},
		DefaultOutput: "out.wav",
	}
	r := NewRunner(job, synth, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesis calls = %d, want 1", got)
	}

	snap := r.Snapshot()
	if snap.Tasks[0].Status != task.StatusFailed {
		t.Errorf("task 1 status = %v, want %v", snap.Tasks[0].Status, task.StatusFailed)
	}
	if snap.Tasks[0].Err != ErrNoVoice.Error() {
		t.Errorf("task 1 err = %q, want %q", snap.Tasks[0].Err, ErrNoVoice.Error())
	}
	if snap.Tasks[1].Status != task.StatusDone {
		t.Errorf("task 2 status = %v, want %v", snap.Tasks[1].Status, task.StatusDone)
	}
}

// TestDefaultVoiceFallback tests that tasks without a voice use the job
// default.
func TestDefaultVoiceFallback(t *testing.T) {
	synth := &mockSynth{}
	job := Job{
		Tasks: []task.Task{
			task.New("uses default", "", ""),
			task.New("has own", "Fenrir", ""),
		},
		DefaultVoice:  "Zephyr",
		DefaultOutput: "out.wav",
	}
	r := NewRunner(job, synth, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := synth.callAt(0).voice; got != "Zephyr" {
		t.Errorf("call 1 voice = %q, want %q", got, "Zephyr")
	}
	if got := synth.callAt(1).voice; got != "Fenrir" {
		t.Errorf("call 2 voice = %q, want %q", got, "Fenrir")
	}
}

// TestEventStream tests that every task gets exactly one started and one
// terminal event, and the run exactly one finished event, in order.
func TestEventStream(t *testing.T) {
	synth := &mockSynth{failures: map[int]error{2: errors.New("nope")}}
	rec := &recorder{}
	r := NewRunner(testJob(2), synth, rec)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	events := rec.all()
	wantKinds := []EventKind{
		EventTaskStarted, EventTaskDone,
		EventTaskStarted, EventTaskFailed,
		EventRunFinished,
	}
	if len(events) != len(wantKinds) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(wantKinds), events)
	}
	for i, want := range wantKinds {
		if events[i].Kind != want {
			t.Errorf("event %d kind = %v, want %v", i, events[i].Kind, want)
		}
	}
	if events[3].Message == "" {
		t.Error("failed event carries no message")
	}
}

// TestRerunAfterCompleted tests that a completed runner accepts a fresh
// run and resets task statuses.
func TestRerunAfterCompleted(t *testing.T) {
	synth := &mockSynth{}
	r := NewRunner(testJob(2), synth, nil)

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}

	if got := synth.callCount(); got != 4 {
		t.Errorf("synthesis calls = %d, want 4", got)
	}
	if got := r.State(); got != StateCompleted {
		t.Errorf("State() = %v, want %v", got, StateCompleted)
	}
}

// TestEventReporterBridges tests the channel-backed reporter end to end.
func TestEventReporterBridges(t *testing.T) {
	synth := &mockSynth{}
	reporter := NewEventReporter(0)
	r := NewRunner(testJob(2), synth, reporter)

	var events []Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range reporter.Events() {
			events = append(events, ev)
		}
	}()

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	reporter.Close()
	<-done

	// 2 started + 2 terminal + 1 finished.
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	if events[len(events)-1].Kind != EventRunFinished {
		t.Errorf("last event kind = %v, want %v", events[len(events)-1].Kind, EventRunFinished)
	}
}

// waitFor polls cond until it holds or the test times out.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}
