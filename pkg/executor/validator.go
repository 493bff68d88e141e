package executor

import (
	"context"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/retry"
)

// ValidatorOptions configures outcome interpretation.
type ValidatorOptions struct {
	// LegacyCoerce ignores sub-command failures inside success/failed/match
	// branches (unless the failing sub-command carries exit) and always
	// resolves a branch as success.
	LegacyCoerce bool

	// Sleep replaces the retry wait. Nil uses a context-aware timer.
	Sleep func(time.Duration)
}

// validationState tracks one command through interpretation.
type validationState int

const (
	stateDispatching validationState = iota
	stateBaseSucceeded
	stateBaseFailed
	stateValidatingSuccess
	stateValidatingFailed
	stateValidatingMatch
	stateResolved
)

func (s validationState) String() string {
	switch s {
	case stateDispatching:
		return "Dispatching"
	case stateBaseSucceeded:
		return "BaseSucceeded"
	case stateBaseFailed:
		return "BaseFailed"
	case stateValidatingSuccess:
		return "ValidatingSuccess"
	case stateValidatingFailed:
		return "ValidatingFailed"
	case stateValidatingMatch:
		return "ValidatingMatch"
	case stateResolved:
		return "Resolved"
	default:
		return "Unknown"
	}
}

// Validator dispatches a command with retry and interprets its outcome
// through the command's validation and valid_match blocks.
type Validator struct {
	dispatcher *action.Dispatcher
	expander   *command.Expander
	log        *logger.Logger
	opts       ValidatorOptions
}

// NewValidator creates a Validator.
func NewValidator(d *action.Dispatcher, e *command.Expander, log *logger.Logger, opts ValidatorOptions) *Validator {
	return &Validator{dispatcher: d, expander: e, log: log, opts: opts}
}

// WithLogger returns a validator whose whole chain logs to log.
func (v *Validator) WithLogger(log *logger.Logger) *Validator {
	return &Validator{
		dispatcher: v.dispatcher.WithLogger(log),
		expander:   v.expander.WithLogger(log),
		log:        log,
		opts:       v.opts,
	}
}

// Validate resolves one actionable command to its final outcome. The error
// is non-nil only for configuration faults (unknown action type, missing
// operation, fragment cycle); every other failure is a failing Outcome.
func (v *Validator) Validate(ctx context.Context, cmd command.Command) (core.Outcome, error) {
	switch cmd.Kind() {
	case command.KindReference:
		return v.runList(ctx, []command.Command{cmd})
	case command.KindDirective:
		v.log.Warn("Ignoring cleanup directive outside the top-level command list: %s", cmd.Label())
		return core.Pass(core.MessageSuccess), nil
	}

	op, err := v.dispatcher.Resolve(cmd)
	if err != nil {
		v.log.Error("Configuration fault for %s: %v", cmd.Label(), err)
		return action.FaultOutcome(err), err
	}

	v.transition(cmd, stateDispatching)
	base := retry.Do(ctx, func() core.Outcome {
		return v.dispatcher.Invoke(ctx, op, cmd)
	}, cmd.MaxRetry(), cmd.AttemptInterval(), v.retryOptions()...)

	if base.Success {
		v.transition(cmd, stateBaseSucceeded)
	} else {
		v.transition(cmd, stateBaseFailed)
		v.log.Info("Command %s failed: %s", cmd.Label(), base.Message)
	}

	final, err := v.interpret(ctx, cmd, base)
	if err != nil {
		return final, err
	}

	if cmd.Exit() {
		v.log.Info("Exit triggered by %s. Stopping further command execution.", cmd.Label())
		final = core.Fail(core.MessageExitTriggered)
	}
	v.transition(cmd, stateResolved)
	v.log.Debug("%s resolved: %s", cmd.Label(), final)
	return final, nil
}

// interpret applies the valid_match and validation blocks to base.
func (v *Validator) interpret(ctx context.Context, cmd command.Command, base core.Outcome) (core.Outcome, error) {
	if sub, ok := cmd.ValidMatch(base.Message); ok {
		v.transition(cmd, stateValidatingMatch)
		v.log.Debug("Processing valid_match commands for %s", base.Message)
		return v.branch(ctx, sub, core.MessageValidMatchExecuted)
	}

	val, hasValidation := cmd.Validation()
	switch {
	case base.Success && hasValidation && val.HasSuccess:
		v.transition(cmd, stateValidatingSuccess)
		return v.branch(ctx, val.Success, core.MessageValidationSuccess)

	case !base.Success && hasValidation && val.HasFailed:
		v.transition(cmd, stateValidatingFailed)
		return v.branch(ctx, val.Failed, core.MessageValidationHandled)

	case !base.Success:
		return core.Fail(core.MessageNoValidation + ": " + base.Message), nil

	default:
		return base, nil
	}
}

// branch runs a sub-command list and returns success with label when it
// completes.
func (v *Validator) branch(ctx context.Context, cmds []command.Command, label string) (core.Outcome, error) {
	out, err := v.runList(ctx, cmds)
	if err != nil || !out.Success {
		return out, err
	}
	return core.Pass(label), nil
}

// runList expands and validates cmds in order. The first failure ends the
// list; in legacy mode only exit outcomes do.
func (v *Validator) runList(ctx context.Context, cmds []command.Command) (core.Outcome, error) {
	expanded, err := v.expander.Expand(cmds)
	if err != nil {
		v.log.Error("Fragment expansion failed: %v", err)
		return action.FaultOutcome(err), err
	}

	for _, sub := range expanded {
		if sub.Kind() == command.KindDirective {
			v.log.Warn("Ignoring cleanup directive inside a validation block: %s", sub.Label())
			continue
		}
		if ctx.Err() != nil {
			return core.Fail(core.MessageCancelled), nil
		}

		out, err := v.Validate(ctx, sub)
		if err != nil {
			return out, err
		}
		if out.Success {
			continue
		}
		if v.opts.LegacyCoerce && !sub.Exit() {
			v.log.Warn("Ignoring failed sub-command %s: %s", sub.Label(), out.Message)
			continue
		}
		return out, nil
	}
	return core.Pass(core.MessageSuccess), nil
}

func (v *Validator) transition(cmd command.Command, s validationState) {
	v.log.Debug("[%s] %s", s, cmd.Label())
}

func (v *Validator) retryOptions() []retry.Option {
	opts := []retry.Option{retry.WithLogger(v.log)}
	if v.opts.Sleep != nil {
		opts = append(opts, retry.WithSleeper(v.opts.Sleep))
	}
	return opts
}
