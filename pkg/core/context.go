package core

import "context"

type runInfoKey struct{}

// RunInfo identifies the test case a command executes under.
type RunInfo struct {
	TestCaseID string
	OutputDir  string // Directory for the test case's log and artifacts
}

// WithRunInfo returns a context carrying info.
func WithRunInfo(ctx context.Context, info RunInfo) context.Context {
	return context.WithValue(ctx, runInfoKey{}, info)
}

// RunInfoFrom returns the RunInfo stored in ctx, or the zero value.
func RunInfoFrom(ctx context.Context) RunInfo {
	info, _ := ctx.Value(runInfoKey{}).(RunInfo)
	return info
}
