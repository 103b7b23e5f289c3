package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fsnotify/fsnotify"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/xb0or/Gemini-TTS/internal/batch"
	"github.com/xb0or/Gemini-TTS/internal/gemini"
	"github.com/xb0or/Gemini-TTS/internal/task"
)

var (
	batchDelay  float64
	batchVoice  string
	batchOutput string
	batchSpeed  float64
	batchWatch  bool

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Work with batch task files",
		Long: paragraph(
			fmt.Sprintf("\nRun or reformat %s files: one task per line as \"text | voice | output\", voice and output optional.", keyword("batch task")),
		),
	}

	batchRunCmd = &cobra.Command{
		Use:   "run [FILE]",
		Short: "Run every task in a batch file, one at a time",
		Long: paragraph(
			fmt.Sprintf("\n%s a batch file top to bottom. A failing task doesn't stop the run; Ctrl-C stops after the current task finishes. Without FILE the last used batch file is run again.", keyword("Run")),
		),
		Example: paragraph("gemini-tts batch run tasks.txt\ngemini-tts batch run tasks.txt --delay 2.5\ngemini-tts batch run tasks.txt --watch"),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runBatch,
	}

	batchFmtCmd = &cobra.Command{
		Use:   "fmt FILE",
		Short: "Rewrite a batch file in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatchFmt,
	}
)

func runBatch(cmd *cobra.Command, args []string) error {
	path := cfg.BatchTasksPath
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errors.New("no batch file given and none remembered from a previous run")
	}

	delay := cfg.Delay()
	if cmd.Flags().Changed("delay") {
		if batchDelay < 0 {
			batchDelay = 0
		}
		delay = time.Duration(batchDelay * float64(time.Second))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if batchWatch {
		rememberBatchRun(path, cmd.Flags().Changed("delay"), delay)
		return watchBatch(ctx, path, delay)
	}

	sum, err := runBatchOnce(ctx, path, delay)
	if err != nil {
		return err
	}
	rememberBatchRun(path, cmd.Flags().Changed("delay"), delay)

	if sum.Failed > 0 {
		return fmt.Errorf("%d task(s) failed", sum.Failed)
	}
	return nil
}

// rememberBatchRun persists the batch file, and the delay when it was set
// explicitly, so the next `batch run` can repeat them.
func rememberBatchRun(path string, delayChanged bool, delay time.Duration) {
	cfg.BatchTasksPath = path
	if delayChanged {
		cfg.MultiDelaySecs = delay.Seconds()
	}
	saveConfig()
}

// runBatchOnce loads the batch file and drives a single run, printing
// progress as the engine reports it.
func runBatchOnce(ctx context.Context, path string, delay time.Duration) (batch.Summary, error) {
	tasks, err := task.LoadFile(path)
	if err != nil {
		return batch.Summary{}, err
	}

	defaultVoice := batchVoice
	if defaultVoice == "" {
		defaultVoice = cfg.DefaultVoice
	}
	defaultOutput := batchOutput
	if defaultOutput == "" {
		defaultOutput = cfg.DefaultOutput
	}

	client := gemini.NewClient(gemini.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Speed:   batchSpeed,
	})

	reporter := batch.NewEventReporter(0)
	runner := batch.NewRunner(batch.Job{
		Tasks:         tasks,
		Delay:         delay,
		DefaultVoice:  defaultVoice,
		DefaultOutput: defaultOutput,
	}, client, reporter)

	var sum batch.Summary
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range reporter.Events() {
			printEvent(ev)
			if ev.Kind == batch.EventRunFinished {
				sum = ev.Summary
			}
		}
	}()

	err = runner.Run(ctx)
	reporter.Close()
	<-done
	return sum, err
}

// printEvent renders one engine event as a progress line.
func printEvent(ev batch.Event) {
	switch ev.Kind {
	case batch.EventTaskStarted:
		fmt.Printf("[%d/%d] speaking → %s\n", ev.Index, ev.Total, ev.OutputPath)
	case batch.EventTaskDone:
		size := ""
		if st, err := os.Stat(ev.OutputPath); err == nil {
			size = " (" + humanize.Bytes(uint64(st.Size())) + ")" //nolint:gosec
		}
		fmt.Printf("[%d/%d] %s %s%s\n", ev.Index, ev.Total, okStyle.Render("done"), ev.OutputPath, size)
	case batch.EventTaskFailed:
		fmt.Printf("[%d/%d] %s %s\n", ev.Index, ev.Total, errorStyle.Render("failed:"), ev.Message)
	case batch.EventTaskCancelled:
		fmt.Printf("[%d/%d] %s\n", ev.Index, ev.Total, subtleStyle.Render("cancelled"))
	case batch.EventRunFinished:
		s := ev.Summary
		line := fmt.Sprintf("%d done, %d failed, %d cancelled", s.Done, s.Failed, s.Cancelled)
		if s.CancelledRun {
			line += " (run cancelled)"
		}
		fmt.Println(paragraph(line))
	}
}

// watchBatch reruns the batch file whenever it changes on disk, until the
// context is cancelled. A short debounce absorbs editor save bursts.
func watchBatch(ctx context.Context, path string, delay time.Duration) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("unable to expand path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return fmt.Errorf("unable to resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("unable to create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	// Watch the directory: editors replace files on save, which would
	// silently drop a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("unable to watch %s: %w", filepath.Dir(abs), err)
	}

	runOnce := func() {
		if _, err := runBatchOnce(ctx, abs, delay); err != nil {
			fmt.Println(errorStyle.Render("run failed:"), err)
		}
	}

	fmt.Println(paragraph(fmt.Sprintf("Watching %s — edit and save to run again, Ctrl-C to quit.", keyword(abs))))
	runOnce()

	const debounce = 500 * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(debounce)
			armed = true
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Println(errorStyle.Render("watch error:"), err)
		case <-timer.C:
			armed = false
			runOnce()
		}
	}
}

func runBatchFmt(_ *cobra.Command, args []string) error {
	tasks, err := task.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := task.SaveFile(args[0], tasks); err != nil {
		return err
	}
	fmt.Printf("Formatted %s: %d task(s)\n", args[0], len(tasks))
	return nil
}

func init() {
	batchRunCmd.Flags().Float64VarP(&batchDelay, "delay", "d", 0, "seconds to wait between tasks (default from config)")
	batchRunCmd.Flags().StringVarP(&batchVoice, "voice", "v", "", "fallback voice for tasks without one (default from config)")
	batchRunCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "default output pattern for tasks without a path (default from config)")
	batchRunCmd.Flags().Float64Var(&batchSpeed, "speed", 1.0, "playback speed factor, 0.5 to 2.0")
	batchRunCmd.Flags().BoolVarP(&batchWatch, "watch", "w", false, "rerun whenever the batch file changes")

	batchCmd.AddCommand(batchRunCmd, batchFmtCmd)
}
