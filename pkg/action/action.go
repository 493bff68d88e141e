// Package action resolves commands to registered handlers and invokes their
// operations.
package action

import (
	"context"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// DefaultOperation is invoked when a command declares no call_fun.
const DefaultOperation = "processCommand"

// Operation performs one named action on a command.
type Operation func(ctx context.Context, cmd command.Command) core.Outcome

// Handler exposes the named operations of one action type.
type Handler interface {
	Operations() map[string]Operation
}

// HandlerFunc adapts a single function to a Handler registered under
// DefaultOperation.
type HandlerFunc func(ctx context.Context, cmd command.Command) core.Outcome

// Operations implements Handler.
func (f HandlerFunc) Operations() map[string]Operation {
	return map[string]Operation{DefaultOperation: Operation(f)}
}

// Ops is a Handler backed by a literal operation table.
type Ops map[string]Operation

// Operations implements Handler.
func (o Ops) Operations() map[string]Operation {
	return o
}
