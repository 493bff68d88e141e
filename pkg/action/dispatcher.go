package action

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Dispatcher resolves commands against a Registry and invokes them.
type Dispatcher struct {
	registry *Registry
	log      *logger.Logger
}

// NewDispatcher creates a dispatcher over reg.
func NewDispatcher(reg *Registry, log *logger.Logger) *Dispatcher {
	return &Dispatcher{registry: reg, log: log}
}

// WithLogger returns a dispatcher sharing the registry that logs to log.
func (d *Dispatcher) WithLogger(log *logger.Logger) *Dispatcher {
	return &Dispatcher{registry: d.registry, log: log}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Resolve finds the operation for cmd. Errors are configuration faults and
// must not be retried.
func (d *Dispatcher) Resolve(cmd command.Command) (Operation, error) {
	actionType := cmd.ActionType()
	if actionType == "" {
		return nil, core.ErrMissingActionType.WithMessage(
			fmt.Sprintf("command has no %s: %v", command.KeyActionType, map[string]interface{}(cmd)))
	}
	return d.registry.Lookup(actionType, cmd.Operation(DefaultOperation))
}

// Invoke runs op, converting a panic into a failing outcome.
func (d *Dispatcher) Invoke(ctx context.Context, op Operation, cmd command.Command) (out core.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Handler %s panicked: %v\n%s", cmd.Label(), r, debug.Stack())
			out = core.Fail(fmt.Sprintf("%s: %v", TagUnexpected, r))
		}
	}()

	d.log.Debug("Invoking %s", cmd.Label())
	out = op(ctx, cmd)
	d.log.Debug("%s -> %s", cmd.Label(), out)
	return out
}

// Dispatch resolves and invokes cmd once.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) (core.Outcome, error) {
	op, err := d.Resolve(cmd)
	if err != nil {
		return FaultOutcome(err), err
	}
	return d.Invoke(ctx, op, cmd), nil
}

// FaultOutcome renders a resolution error as a failing outcome.
func FaultOutcome(err error) core.Outcome {
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Outcome()
	}
	return Fail(err)
}
