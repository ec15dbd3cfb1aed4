package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dmarten/relval/internal/contract"
	"github.com/dmarten/relval/schema"
	"golang.org/x/sync/errgroup"
)

// Dispatcher resolves a directory configuration into comparison tasks and
// fans them out to the comparison runner. Every task owns its output
// directory exclusively, which is what makes the bounded parallel dispatch
// safe without further coordination.
type Dispatcher struct {
	cfg            *contract.Config
	runner         contract.ComparisonRunner
	thresholdsPath string

	mu     sync.Mutex
	report *schema.RunReport
}

// NewDispatcher creates a dispatcher writing task records into report.
// thresholdsPath is the optional rebuilt prior-threshold file handed to every
// task, empty when unused.
func NewDispatcher(cfg *contract.Config, runner contract.ComparisonRunner, report *schema.RunReport, thresholdsPath string) *Dispatcher {
	return &Dispatcher{cfg: cfg, runner: runner, report: report, thresholdsPath: thresholdsPath}
}

// namedTask pairs a comparison task with its report coordinates.
type namedTask struct {
	group string
	name  string
	task  *schema.ComparisonTask

	// prepare runs inside the worker before the runner, e.g. synthetic
	// histogram construction for log-derived tasks. May be nil.
	prepare func() error
}

// newTask builds a task from the dispatcher's comparison settings.
func (d *Dispatcher) newTask(files1, files2 []string, outputDir string) *schema.ComparisonTask {
	return &schema.ComparisonTask{
		Files1:            files1,
		Files2:            files2,
		OutputDir:         outputDir,
		TestMask:          d.cfg.TestMask,
		Chi2Threshold:     d.cfg.Chi2Threshold,
		RelMeanDiffThresh: d.cfg.RelMeanDiffThreshold,
		RelEntriesThresh:  d.cfg.RelEntriesDiffThreshold,
		SelectCritical:    d.cfg.SelectCritical,
		NoPlots:           d.cfg.NoPlots,
		InThresholdsPath:  d.thresholdsPath,
	}
}

// DispatchFiles runs the plain two-file-set comparison straight into the
// run's output directory.
func (d *Dispatcher) DispatchFiles(ctx context.Context, files1, files2 []string, outputDir string) {
	task := d.newTask(files1, files2, outputDir)
	d.runTasks(ctx, []namedTask{{group: "files", name: "input", task: task}})
}

// DispatchConfig resolves every group and rule of the directory configuration
// against the two trees and runs the resulting tasks with a bounded worker
// pool. Rules that match nothing produce a warning record, never an error.
func (d *Dispatcher) DispatchConfig(ctx context.Context, dir1, dir2 string, dirCfg *schema.DirectoryConfig, outputRoot string) error {
	var tasks []namedTask
	for _, group := range dirCfg.Groups {
		for _, rule := range group.Rules {
			resolved, err := d.resolveRule(dir1, dir2, group.Name, rule, outputRoot)
			if err != nil {
				return err
			}
			tasks = append(tasks, resolved...)
		}
	}
	d.runTasks(ctx, tasks)
	return nil
}

// resolveRule expands one configured rule into zero or more tasks.
func (d *Dispatcher) resolveRule(dir1, dir2, groupName string, rule schema.ConfigRule, outputRoot string) ([]namedTask, error) {
	files, err := FindMutualFiles([]string{dir1, dir2}, rule.Rule.Pattern, rule.Rule.Grep)
	if err != nil {
		return nil, fmt.Errorf("group %q rule %q: %w", groupName, rule.Name, err)
	}
	if len(files) == 0 {
		contract.LogWarn(fmt.Sprintf("Nothing found for search path %q, continue", rule.Rule.Pattern), nil)
		d.record(groupName, rule.Name, "", schema.TaskWarning,
			fmt.Sprintf("glob pattern %q matched no mutual files", rule.Rule.Pattern))
		return nil, nil
	}

	ruleDir := filepath.Join(outputRoot, groupName, rule.Name)

	switch {
	case rule.Rule.LogMetrics != nil:
		return d.resolveLogRule(dir1, dir2, groupName, rule, ruleDir, files), nil

	case rule.Rule.PerFile:
		tasks := make([]namedTask, 0, len(files))
		for _, f := range files {
			outDir := filepath.Join(ruleDir, filepath.FromSlash(f)+"_dir")
			task := d.newTask(
				[]string{filepath.Join(dir1, filepath.FromSlash(f))},
				[]string{filepath.Join(dir2, filepath.FromSlash(f))},
				outDir,
			)
			tasks = append(tasks, namedTask{group: groupName, name: rule.Name + "/" + f, task: task})
		}
		return tasks, nil

	default:
		task := d.newTask(joinAll(dir1, files), joinAll(dir2, files), ruleDir)
		return []namedTask{{group: groupName, name: rule.Name, task: task}}, nil
	}
}

// resolveLogRule buckets the matched log files by combine pattern and sets up
// one synthetic-histogram comparison per non-empty bucket. An empty combine
// list means one bucket per file.
func (d *Dispatcher) resolveLogRule(dir1, dir2, groupName string, rule schema.ConfigRule, ruleDir string, files []string) []namedTask {
	lm := rule.Rule.LogMetrics

	type bucket struct {
		label string
		files []string
	}
	var buckets []bucket
	if len(lm.CombinePatterns) > 0 {
		for _, cp := range lm.CombinePatterns {
			var matched []string
			for _, f := range files {
				if containsPattern(f, cp) {
					matched = append(matched, f)
				}
			}
			if len(matched) == 0 {
				continue
			}
			buckets = append(buckets, bucket{label: cp, files: matched})
		}
	} else {
		for _, f := range files {
			buckets = append(buckets, bucket{label: f, files: []string{f}})
		}
	}

	tasks := make([]namedTask, 0, len(buckets))
	for _, b := range buckets {
		outDir := filepath.Join(ruleDir, filepath.FromSlash(b.label)+"_dir")
		out1 := filepath.Join(outDir, "file1.json")
		out2 := filepath.Join(outDir, "file2.json")
		in1 := joinAll(dir1, b.files)
		in2 := joinAll(dir2, b.files)
		task := d.newTask([]string{out1}, []string{out2}, outDir)
		tasks = append(tasks, namedTask{
			group: groupName,
			name:  rule.Name + "/" + b.label,
			task:  task,
			prepare: func() error {
				return buildLogHistograms(in1, in2, out1, out2, lm)
			},
		})
	}
	return tasks
}

// runTasks executes the tasks with a bounded worker pool. Task failures are
// recorded, never propagated; the fan-out always drains.
func (d *Dispatcher) runTasks(ctx context.Context, tasks []namedTask) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for _, nt := range tasks {
		g.Go(func() error {
			d.runOne(ctx, nt)
			return nil
		})
	}
	_ = g.Wait()
}

// runOne runs a single task and records its outcome.
func (d *Dispatcher) runOne(ctx context.Context, nt namedTask) {
	if err := os.MkdirAll(nt.task.OutputDir, 0o755); err != nil {
		d.record(nt.group, nt.name, nt.task.OutputDir, schema.TaskFailed,
			fmt.Sprintf("cannot create output directory: %v", err))
		return
	}
	if nt.prepare != nil {
		if err := nt.prepare(); err != nil {
			d.record(nt.group, nt.name, nt.task.OutputDir, schema.TaskFailed, err.Error())
			return
		}
	}

	err := d.runner.Run(ctx, nt.task)
	switch {
	case err == nil:
		d.record(nt.group, nt.name, nt.task.OutputDir, schema.TaskOK, "")
	case errors.Is(err, contract.ErrTaskTimedOut):
		d.record(nt.group, nt.name, nt.task.OutputDir, schema.TaskTimedOut, err.Error())
	default:
		// Fire-and-forget policy: the run proceeds, the gap shows up in
		// the report and during aggregation.
		contract.LogWarn(fmt.Sprintf("Comparison task %s/%s failed", nt.group, nt.name), err)
		d.record(nt.group, nt.name, nt.task.OutputDir, schema.TaskFailed, err.Error())
	}
}

// record appends a task record under the report lock.
func (d *Dispatcher) record(group, name, outputDir string, status schema.TaskStatus, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.report.Add(group, name, outputDir, status, detail)
}

// containsPattern reports whether a relative path contains the combine
// pattern substring.
func containsPattern(path, pattern string) bool {
	return pattern != "" && strings.Contains(path, pattern)
}

// joinAll joins every relative path onto the tree root.
func joinAll(tree string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, filepath.Join(tree, filepath.FromSlash(f)))
	}
	return out
}
