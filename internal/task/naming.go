package task

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	defaultStem   = "output"
	defaultSuffix = ".wav"
)

// ResolveOutput returns the output path for a task. An explicit path on the
// task wins. Otherwise the path is derived from the job's default output as
// "{stem}_{index}{suffix}", where index is the task's 1-based position in
// the job at resolution time. Resolution happens right before a task starts
// running, so a job edited after loading still numbers by position.
//
// Collisions with existing files or with another task's explicit path are
// not detected; the later write overwrites the earlier one.
func ResolveOutput(t Task, index int, defaultOutput string) string {
	if t.OutputPath != "" {
		return t.OutputPath
	}

	stem := defaultStem
	suffix := defaultSuffix
	dir := ""

	if defaultOutput != "" {
		dir = filepath.Dir(defaultOutput)
		base := filepath.Base(defaultOutput)
		if ext := filepath.Ext(base); ext != "" {
			suffix = ext
		}
		if s := strings.TrimSuffix(base, filepath.Ext(base)); s != "" {
			stem = s
		}
	}

	name := fmt.Sprintf("%s_%d%s", stem, index, suffix)
	if dir == "" || dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}
