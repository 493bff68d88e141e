package executor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// fakeHandler records every call and answers through its func field.
type fakeHandler struct {
	mu      sync.Mutex
	calls   []command.Command
	process func(call int, cmd command.Command) core.Outcome
}

func (h *fakeHandler) Operations() map[string]action.Operation {
	return map[string]action.Operation{action.DefaultOperation: h.invoke}
}

func (h *fakeHandler) invoke(_ context.Context, cmd command.Command) core.Outcome {
	h.mu.Lock()
	h.calls = append(h.calls, cmd)
	n := len(h.calls)
	h.mu.Unlock()
	if h.process != nil {
		return h.process(n, cmd)
	}
	return core.Pass("ok")
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.calls)
}

// names returns the "name" field of each call.
func (h *fakeHandler) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.calls))
	for i, c := range h.calls {
		out[i] = c.GetString("name")
	}
	return out
}

func passing() *fakeHandler { return &fakeHandler{} }

func failing(msg string) *fakeHandler {
	return &fakeHandler{process: func(int, command.Command) core.Outcome { return core.Fail(msg) }}
}

// failFirst fails the first n calls, then succeeds.
func failFirst(n int) *fakeHandler {
	return &fakeHandler{process: func(call int, _ command.Command) core.Outcome {
		if call <= n {
			return core.Fail("not yet")
		}
		return core.Pass("ok")
	}}
}

// byName answers with the outcome mapped to the command's "name" field.
func byName(outcomes map[string]core.Outcome) *fakeHandler {
	return &fakeHandler{process: func(_ int, cmd command.Command) core.Outcome {
		if o, ok := outcomes[cmd.GetString("name")]; ok {
			return o
		}
		return core.Pass("ok")
	}}
}

// testEnv is a workspace with test_case/ and common/ directories.
type testEnv struct {
	t        *testing.T
	dir      string
	loader   *command.Loader
	registry *action.Registry
	sleeps   []time.Duration
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:        t,
		dir:      dir,
		loader:   command.NewLoader(filepath.Join(dir, "test_case"), filepath.Join(dir, "common")),
		registry: action.NewRegistry(),
	}
}

func (e *testEnv) handle(actionType string, h action.Handler) {
	e.registry.MustRegister(actionType, h)
}

func (e *testEnv) write(rel, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		e.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatal(err)
	}
	return path
}

func (e *testEnv) testCase(id, content string) {
	e.write(filepath.Join("test_case", id+".json"), content)
}

func (e *testEnv) fragment(name, content string) { e.write(filepath.Join("common", name), content) }

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func (e *testEnv) config() RunnerConfig {
	return RunnerConfig{
		LogDir:   filepath.Join(e.dir, "logs"),
		LogLevel: logger.LevelDebug,
		Now:      func() time.Time { return fixedNow },
		Validate: ValidatorOptions{Sleep: func(d time.Duration) { e.sleeps = append(e.sleeps, d) }},
	}
}

func (e *testEnv) runner(cfg RunnerConfig) *Runner {
	return New(e.loader, e.registry, logger.Discard(), cfg)
}

func (e *testEnv) validator(opts ValidatorOptions) *Validator {
	if opts.Sleep == nil {
		opts.Sleep = func(d time.Duration) { e.sleeps = append(e.sleeps, d) }
	}
	d := action.NewDispatcher(e.registry, logger.Discard())
	x := command.NewExpander(e.loader, logger.Discard(), command.ExpandOptions{})
	return NewValidator(d, x, logger.Discard(), opts)
}
