// Package executor runs test cases and test case groups: it expands command
// documents, dispatches each command through the outcome validator and
// applies cleanup-on-failure.
package executor

import (
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Recorder captures one device's screen for the span of a test case.
type Recorder interface {
	Start() error
	Stop() error
	Path() string // Output file, valid after Stop
}

// RecorderFactory creates a recorder for a device target.
type RecorderFactory interface {
	NewRecorder(testCaseID, target, outputDir string) (Recorder, error)
}

// RunnerConfig configures the test case and group runners.
type RunnerConfig struct {
	LogDir     string       // Root of per-run log directories
	LogLevel   logger.Level // Level for per-test-case logs
	GroupField string       // Group document key holding the id list
	GroupName  string       // Name reported for RunGroup

	Expand   command.ExpandOptions
	Validate ValidatorOptions

	// Recording hook; nil Recorders disables it
	Video     bool
	Recorders RecorderFactory

	// Live progress callbacks
	OnTestCaseStart   func(idx, total int, id string)
	OnCommandComplete func(id string, idx int, label string, outcome core.Outcome, durationMs int64)
	OnTestCaseEnd     func(result core.TestCaseResult)

	// Now supplies timestamps; nil uses time.Now
	Now func() time.Time
}

// Runner executes test cases against a handler registry.
type Runner struct {
	config     RunnerConfig
	loader     *command.Loader
	dispatcher *action.Dispatcher
	expander   *command.Expander
	validator  *Validator
	log        *logger.Logger
}

// New creates a Runner. log is the application logger; per-test-case logs
// are created under config.LogDir.
func New(loader *command.Loader, registry *action.Registry, log *logger.Logger, cfg RunnerConfig) *Runner {
	if cfg.GroupField == "" {
		cfg.GroupField = "all_test_case"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	dispatcher := action.NewDispatcher(registry, log)
	expander := command.NewExpander(loader, log, cfg.Expand)
	return &Runner{
		config:     cfg,
		loader:     loader,
		dispatcher: dispatcher,
		expander:   expander,
		validator:  NewValidator(dispatcher, expander, log, cfg.Validate),
		log:        log,
	}
}
