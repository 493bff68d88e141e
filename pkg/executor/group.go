package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/validator"
)

// RunStampFormat names the per-run log directory.
const RunStampFormat = "20060102_150405"

// RunGroupFile validates the group document at path and runs its test cases.
func (r *Runner) RunGroupFile(ctx context.Context, path string) (*core.GroupResult, error) {
	raw, err := r.loader.LoadRaw(path)
	if err != nil {
		r.log.Error("Test case group %s not loaded: %v", path, err)
		return nil, err
	}
	if err := validator.ValidateGroup(raw, r.config.GroupField); err != nil {
		r.log.Error("Test case group %s is invalid: %v", path, err)
		return nil, err
	}
	ids, err := command.ParseGroup(raw, r.config.GroupField)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return r.runGroup(ctx, name, ids), nil
}

// RunGroup runs the test cases in order. One test case's failure, invalid
// document or panic never stops the rest.
func (r *Runner) RunGroup(ctx context.Context, ids []string) *core.GroupResult {
	name := r.config.GroupName
	if name == "" {
		name = "group"
	}
	return r.runGroup(ctx, name, ids)
}

func (r *Runner) runGroup(ctx context.Context, name string, ids []string) *core.GroupResult {
	start := r.config.Now()
	group := &core.GroupResult{
		Name:      name,
		RunID:     uuid.NewString(),
		StartTime: start,
		OutputDir: filepath.Join(r.config.LogDir, start.Format(RunStampFormat)),
		TestCases: make([]core.TestCaseResult, 0, len(ids)),
	}
	r.log.Info("Running group %s (%d test cases), run %s", name, len(ids), group.RunID)

	for i, id := range ids {
		if ctx.Err() != nil {
			group.TestCases = append(group.TestCases, core.TestCaseResult{
				ID:          id,
				Status:      core.StatusSkipped,
				Outcome:     core.Fail("run cancelled"),
				StartTime:   r.config.Now(),
				FailedIndex: -1,
			})
			continue
		}

		if r.config.OnTestCaseStart != nil {
			r.config.OnTestCaseStart(i, len(ids), id)
		}
		tc := r.runIsolated(ctx, id, filepath.Join(group.OutputDir, id))

		switch {
		case tc.Status == core.StatusSkipped:
			r.log.Warn("Skipping test case %s: %s", id, tc.Outcome.Message)
		case tc.Status.IsSuccess():
			r.log.Info("Test case %s passed", id)
		default:
			r.log.Error("Test case %s %s: %s", id, tc.Status, tc.Outcome.Message)
		}
		if r.config.OnTestCaseEnd != nil {
			r.config.OnTestCaseEnd(tc)
		}
		group.TestCases = append(group.TestCases, tc)
	}

	group.Duration = r.config.Now().Sub(start)
	group.ComputeSummary()
	r.log.Info("Group %s finished: %d passed, %d failed, %d errored, %d skipped",
		name, group.Passed, group.Failed, group.Errored, group.Skipped)
	return group
}

// runIsolated runs one test case behind a second recovery boundary.
func (r *Runner) runIsolated(ctx context.Context, id, outputDir string) (tc core.TestCaseResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("Unexpected error in test case %s: %v\n%s", id, rec, debug.Stack())
			tc = core.TestCaseResult{
				ID:          id,
				Status:      core.StatusErrored,
				Category:    core.ErrCategoryUnhandled,
				Outcome:     core.Fail(fmt.Sprintf("%s: %v", core.ErrUnexpected.Code, rec)),
				StartTime:   r.config.Now(),
				FailedIndex: -1,
			}
		}
	}()
	return r.RunTestCase(ctx, id, outputDir)
}
