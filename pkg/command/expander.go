package command

import (
	"fmt"
	"strings"

	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// DefaultMaxDepth bounds fragment nesting when ExpandOptions.MaxDepth is zero.
const DefaultMaxDepth = 32

// ExpandOptions configures fragment expansion.
type ExpandOptions struct {
	// Strict fails expansion on a missing or invalid fragment instead of
	// logging it and contributing no commands.
	Strict bool

	// MaxDepth bounds reference nesting. Zero means DefaultMaxDepth.
	MaxDepth int
}

// Expander flattens fragment references into leaf commands.
// Fragments are reloaded for every reference occurrence.
type Expander struct {
	loader FragmentLoader
	log    *logger.Logger
	opts   ExpandOptions
}

// NewExpander creates an expander.
func NewExpander(loader FragmentLoader, log *logger.Logger, opts ExpandOptions) *Expander {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Expander{loader: loader, log: log, opts: opts}
}

// WithLogger returns a copy of the expander writing to log.
func (e *Expander) WithLogger(log *logger.Logger) *Expander {
	c := *e
	c.log = log
	return &c
}

// Expand returns cmds with every reference replaced, recursively, by the
// commands of its fragment. Order is preserved and non-reference commands
// pass through unchanged. Cycles and excessive nesting are errors.
func (e *Expander) Expand(cmds []Command) ([]Command, error) {
	return e.expand(cmds, nil)
}

func (e *Expander) expand(cmds []Command, chain []string) ([]Command, error) {
	out := make([]Command, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.Kind() != KindReference {
			out = append(out, cmd)
			continue
		}

		name, _ := cmd.FragmentRef()
		if name == "" {
			if err := e.missing(name, fmt.Errorf("%s must be a non-empty string", KeyFragment)); err != nil {
				return nil, err
			}
			continue
		}

		for _, seen := range chain {
			if seen == name {
				path := strings.Join(append(append([]string{}, chain...), name), " -> ")
				return nil, core.ErrFragmentCycle.
					WithMessage(fmt.Sprintf("circular fragment reference: %s", path)).
					WithDetails(map[string]interface{}{"chain": path})
			}
		}
		if len(chain) >= e.opts.MaxDepth {
			return nil, core.ErrFragmentDepth.WithMessage(
				fmt.Sprintf("fragment %s exceeds max nesting depth %d", name, e.opts.MaxDepth))
		}

		doc, err := e.loader.LoadFragment(name)
		if err != nil {
			if err := e.missing(name, err); err != nil {
				return nil, err
			}
			continue
		}

		e.log.Info("Expanding fragment >>> %s", name)
		next := make([]string, len(chain), len(chain)+1)
		copy(next, chain)
		nested, err := e.expand(doc.Commands, append(next, name))
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

func (e *Expander) missing(name string, cause error) error {
	if e.opts.Strict {
		return core.ErrFragmentNotFound.
			WithMessage(fmt.Sprintf("invalid or missing fragment %q", name)).
			WithCause(cause)
	}
	e.log.Warn("Invalid or missing fragment %q: %v", name, cause)
	return nil
}
