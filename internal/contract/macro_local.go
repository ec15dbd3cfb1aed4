package contract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dmarten/relval/schema"
)

// LocalMacroRunner implements the ComparisonRunner interface by executing the
// external comparison macro through the local 'root' binary.
type LocalMacroRunner struct {
	macroPath string
	timeout   TimeoutFunc
}

var _ ComparisonRunner = &LocalMacroRunner{} // Compile-time check

// TimeoutFunc derives the per-task context. It exists so tests can observe
// cancellation without sleeping.
type TimeoutFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// ErrTaskTimedOut marks a task whose subprocess exceeded the configured
// bounded wait and was hard-killed.
var ErrTaskTimedOut = errors.New("comparison task timed out")

// NewLocalMacroRunner creates a runner for the given macro path. A zero
// timeout config yields an unbounded wait.
func NewLocalMacroRunner(cfg *Config) *LocalMacroRunner {
	timeout := func(ctx context.Context) (context.Context, context.CancelFunc) {
		if cfg.TaskTimeout <= 0 {
			return context.WithCancel(ctx)
		}
		return context.WithTimeout(ctx, cfg.TaskTimeout)
	}
	return &LocalMacroRunner{macroPath: cfg.MacroPath, timeout: timeout}
}

// Run executes the macro for one comparison task. Combined stdout/stderr is
// captured to rel_val.log inside the task's output directory; a non-zero exit
// is reported as an error but the log is preserved either way.
func (r *LocalMacroRunner) Run(ctx context.Context, task *schema.ComparisonTask) error {
	if r.macroPath == "" {
		return errors.New("no comparison macro configured, set macro-path")
	}

	args := macroInvocation(r.macroPath, task)

	runCtx, cancel := r.timeout(ctx)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "root", args...)
	cmd.Dir = task.OutputDir

	logPath := filepath.Join(task.OutputDir, schema.TaskLogFileName)
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("cannot create task log %s: %w", logPath, err)
	}
	defer func() { _ = logFile.Close() }()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after bounded wait, log at %s", ErrTaskTimedOut, logPath)
	}
	if err != nil {
		return fmt.Errorf("comparison routine failed (log at %s): %w", logPath, err)
	}
	return nil
}

// macroInvocation builds the 'root' argument list for one task. The macro
// signature is (files1, files2, testMask, chi2, relMeanDiff, relEntriesDiff,
// selectCritical, noPlots, thresholdsPath).
func macroInvocation(macroPath string, task *schema.ComparisonTask) []string {
	call := fmt.Sprintf("%s(\"%s\",\"%s\",%d,%v,%v,%v,%s,%s,\"%s\")",
		macroPath,
		strings.Join(task.Files1, ","),
		strings.Join(task.Files2, ","),
		task.TestMask,
		task.Chi2Threshold,
		task.RelMeanDiffThresh,
		task.RelEntriesThresh,
		rootBool(task.SelectCritical),
		rootBool(task.NoPlots),
		task.InThresholdsPath,
	)
	return []string{"-l", "-b", "-q", call}
}

// rootBool renders a boolean in the macro's dialect.
func rootBool(b bool) string {
	if b {
		return "kTRUE"
	}
	return "kFALSE"
}
