// Package mock provides dry-run action handlers for running command documents
// without a device.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// ResultField lets a command choose the message a dry run returns, so
// valid_match branches can be exercised.
const ResultField = "mock_result"

// Driver answers every operation it is registered for.
type Driver struct {
	// Configuration
	Config Config

	mu    sync.Mutex
	count int
	calls []string
}

// Config configures mock driver behavior.
type Config struct {
	// FailOnCall makes call N fail (1-indexed). 0 = never fail.
	FailOnCall int
	// CallDelay adds artificial delay per call
	CallDelay time.Duration
}

// New creates a new mock driver.
func New(cfg Config) *Driver {
	return &Driver{Config: cfg}
}

// Operation returns the dry-run operation.
func (d *Driver) Operation() action.Operation {
	return d.execute
}

// Mirror registers on dst every action type and operation of src, each
// backed by the dry-run operation.
func (d *Driver) Mirror(dst, src *action.Registry) error {
	for _, name := range src.Types() {
		ops := action.Ops{}
		for _, op := range src.Operations(name) {
			ops[op] = d.execute
		}
		if err := dst.Register(name, ops); err != nil {
			return err
		}
	}
	return nil
}

// Calls returns the labels of the commands executed so far.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func (d *Driver) execute(ctx context.Context, cmd command.Command) core.Outcome {
	d.mu.Lock()
	d.count++
	n := d.count
	d.calls = append(d.calls, cmd.Label())
	d.mu.Unlock()

	if d.Config.CallDelay > 0 {
		select {
		case <-ctx.Done():
			return action.Fail(ctx.Err())
		case <-time.After(d.Config.CallDelay):
		}
	}

	log := logger.FromContext(ctx)
	if d.Config.FailOnCall > 0 && n == d.Config.FailOnCall {
		log.Info("[dry-run] %s -> simulated failure", cmd.Label())
		return core.Fail(fmt.Sprintf("MOCK_FAILURE: call %d (%s)", n, cmd.Label()))
	}

	msg := cmd.GetString(ResultField)
	if msg == "" {
		msg = "Mock executed: " + cmd.Label()
	}
	log.Info("[dry-run] %s -> %s", cmd.Label(), msg)
	return core.Pass(msg)
}
