package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/validator"
)

// Outcome messages for test cases that never start.
const (
	MessageDocumentUnreadable = "FILE_NOT_FOUND_OR_INVALID_JSON"
	MessageExecutionFailed    = "EXECUTION_FAILED"
)

// RunTestCase executes one test case and returns its result. The test case
// log and any artifacts are written to outputDir (config.LogDir/<id> when
// empty). It never panics.
func (r *Runner) RunTestCase(ctx context.Context, id, outputDir string) (result core.TestCaseResult) {
	if outputDir == "" {
		outputDir = filepath.Join(r.config.LogDir, id)
	}
	start := r.config.Now()
	result = core.TestCaseResult{
		ID:          id,
		Status:      core.StatusRunning,
		StartTime:   start,
		FailedIndex: -1,
	}

	tlog, err := logger.New(filepath.Join(outputDir, id+".log"), r.config.LogLevel)
	if err != nil {
		r.log.Warn("Test case %s: %v; logging to application log", id, err)
		tlog = r.log
	} else {
		defer tlog.Close()
		result.LogPath = tlog.Path()
	}

	defer func() {
		if rec := recover(); rec != nil {
			tlog.Error("Test case %s panicked: %v\n%s", id, rec, debug.Stack())
			result.Outcome = core.Fail(fmt.Sprintf("%s: %v", MessageExecutionFailed, rec))
			result.Status = core.StatusErrored
			result.Category = core.ErrCategoryUnhandled
		}
		result.Duration = r.config.Now().Sub(start)
		tlog.Info("Test case %s finished: %s (%s)", id, result.Status, result.Outcome)
	}()

	tlog.Info("Processing test case: %s", id)
	ctx = core.WithRunInfo(ctx, core.RunInfo{TestCaseID: id, OutputDir: outputDir})
	ctx = logger.NewContext(ctx, tlog)

	cmds, err := r.prepare(id, tlog)
	if err != nil {
		r.fault(&result, err)
		tlog.Error("Test case %s not executed: %v", id, err)
		return result
	}
	result.TotalCommands = len(cmds)

	if r.config.Video && r.config.Recorders != nil {
		stop := r.startRecorders(id, outputDir, command.Targets(cmds), tlog)
		defer func() { result.Attachments = append(result.Attachments, stop()...) }()
	}

	r.execute(ctx, id, cmds, tlog, &result)
	return result
}

// prepare loads, validates and expands the test case document.
func (r *Runner) prepare(id string, tlog *logger.Logger) ([]command.Command, error) {
	raw, err := r.loader.LoadTestCaseRaw(id)
	if err != nil {
		return nil, err
	}
	if err := validator.ValidateTestCase(raw, id); err != nil {
		return nil, err
	}
	doc, err := command.ParseDocument(id, r.loader.TestCasePath(id), raw)
	if err != nil {
		return nil, err
	}
	return r.expander.WithLogger(tlog).Expand(doc.Commands)
}

// fault records an error that stopped the test case before or during
// execution.
func (r *Runner) fault(result *core.TestCaseResult, err error) {
	result.Category = core.CategoryOf(err)
	result.Status = core.StatusFor(core.Outcome{}, err)

	var ve *validator.ValidationError
	switch {
	case errors.Is(err, core.ErrDocumentNotFound), errors.Is(err, core.ErrInvalidJSON):
		result.Outcome = core.Fail(MessageDocumentUnreadable)
	case errors.As(err, &ve):
		result.Outcome = core.Fail(ve.Code)
	default:
		result.Outcome = action.FaultOutcome(err)
	}
}

// execute runs the expanded stream, stopping at the first unhandled failure.
func (r *Runner) execute(ctx context.Context, id string, cmds []command.Command, tlog *logger.Logger, result *core.TestCaseResult) {
	v := r.validator.WithLogger(tlog)
	cleanup := ""

	for i, cmd := range cmds {
		if cmd.Kind() == command.KindDirective {
			cleanup, _ = cmd.CleanupRef()
			result.Cleanup = cleanup
			tlog.Info("Cleanup fragment set: %s", cleanup)
			continue
		}

		if ctx.Err() != nil {
			result.Outcome = core.Fail(core.MessageCancelled)
			result.Status = core.StatusSkipped
			result.FailedIndex = i
			tlog.Warn("Test case %s cancelled before command %d", id, i)
			r.runCleanup(ctx, cleanup, tlog, result)
			return
		}

		tlog.Info("Executing command %d: %s", i, cmd.Label())
		cmdStart := r.config.Now()
		out, err := v.Validate(ctx, cmd)
		result.ExecutedCommands++
		if r.config.OnCommandComplete != nil {
			r.config.OnCommandComplete(id, i, cmd.Label(), out, r.config.Now().Sub(cmdStart).Milliseconds())
		}

		if err != nil {
			result.FailedIndex = i
			r.fault(result, err)
			r.runCleanup(ctx, cleanup, tlog, result)
			return
		}
		if !out.Success {
			tlog.Error("Command %d (%s) failed: %s", i, cmd.Label(), out.Message)
			result.Outcome = out
			result.Status = core.StatusFailed
			result.Category = core.ErrCategoryAction
			result.FailedIndex = i
			r.runCleanup(ctx, cleanup, tlog, result)
			return
		}
	}

	result.Outcome = core.Pass(core.MessageSuccess)
	result.Status = core.StatusPassed
}

// runCleanup dispatches every command of the cleanup fragment exactly once,
// bypassing retry and validation blocks. Outcomes are logged and otherwise
// ignored. Cleanup runs even when ctx is cancelled.
func (r *Runner) runCleanup(ctx context.Context, name string, tlog *logger.Logger, result *core.TestCaseResult) {
	if name == "" {
		return
	}
	tlog.Info("Running cleanup fragment: %s", name)
	ctx = context.WithoutCancel(ctx)

	doc, err := r.loader.LoadFragment(name)
	if err != nil {
		tlog.Warn("Cleanup fragment %s not loaded: %v", name, err)
		return
	}
	cmds, err := r.expander.WithLogger(tlog).Expand(doc.Commands)
	if err != nil {
		tlog.Warn("Cleanup fragment %s not expanded: %v", name, err)
		return
	}

	d := r.dispatcher.WithLogger(tlog)
	for _, cmd := range cmds {
		if cmd.Kind() == command.KindDirective {
			continue
		}
		op, err := d.Resolve(cmd)
		if err != nil {
			tlog.Warn("Cleanup command %s skipped: %v", cmd.Label(), err)
			continue
		}
		out := d.Invoke(ctx, op, cmd)
		tlog.Info("Cleanup command %s: %s", cmd.Label(), out)
	}
	result.CleanupExecuted = true
}

// startRecorders starts one recorder per target and returns a function that
// stops them all and reports the recordings written.
func (r *Runner) startRecorders(id, outputDir string, targets []string, tlog *logger.Logger) func() []core.Attachment {
	var started []Recorder
	for _, target := range targets {
		rec, err := r.config.Recorders.NewRecorder(id, target, outputDir)
		if err != nil {
			tlog.Warn("No recorder for %s: %v", target, err)
			continue
		}
		if err := rec.Start(); err != nil {
			tlog.Warn("Recording on %s failed to start: %v", target, err)
			continue
		}
		tlog.Info("Recording started on %s", target)
		started = append(started, rec)
	}

	return func() []core.Attachment {
		var attachments []core.Attachment
		for _, rec := range started {
			if err := rec.Stop(); err != nil {
				tlog.Warn("Recording stop failed: %v", err)
				continue
			}
			if p := rec.Path(); p != "" {
				attachments = append(attachments, core.NewVideoAttachment(p))
			}
		}
		return attachments
	}
}
