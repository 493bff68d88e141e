package core

import (
	"context"
	"errors"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		err     error
		want    Status
	}{
		{"passed", Pass(MessageSuccess), nil, StatusPassed},
		{"failed", Fail("ELEMENT_NOT_FOUND"), nil, StatusFailed},
		{"validation fault", Fail("x"), ErrInvalidDocument, StatusSkipped},
		{"config fault", Fail("x"), ErrUnknownActionType, StatusErrored},
		{"unexpected", Fail("x"), errors.New("boom"), StatusErrored},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.outcome, tt.err); got != tt.want {
				t.Errorf("StatusFor() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGroupResult_ComputeSummary(t *testing.T) {
	g := &GroupResult{
		TestCases: []TestCaseResult{
			{ID: "tc1", Status: StatusPassed},
			{ID: "tc2", Status: StatusPassed},
			{ID: "tc3", Status: StatusFailed},
			{ID: "tc4", Status: StatusSkipped},
			{ID: "tc5", Status: StatusErrored},
		},
	}

	g.ComputeSummary()

	if g.Total != 5 {
		t.Errorf("Total = %d, want 5", g.Total)
	}
	if g.Passed != 2 {
		t.Errorf("Passed = %d, want 2", g.Passed)
	}
	if g.Failed != 1 {
		t.Errorf("Failed = %d, want 1", g.Failed)
	}
	if g.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", g.Skipped)
	}
	if g.Errored != 1 {
		t.Errorf("Errored = %d, want 1", g.Errored)
	}
	if g.Success() {
		t.Error("Success() = true, want false")
	}
}

func TestGroupResult_Status(t *testing.T) {
	tests := []struct {
		name  string
		cases []TestCaseResult
		want  Status
	}{
		{"empty", nil, StatusSkipped},
		{"all skipped", []TestCaseResult{{Status: StatusSkipped}}, StatusSkipped},
		{"passed with skipped", []TestCaseResult{{Status: StatusPassed}, {Status: StatusSkipped}}, StatusPassed},
		{"errored", []TestCaseResult{{Status: StatusPassed}, {Status: StatusErrored}}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &GroupResult{TestCases: tt.cases}
			g.ComputeSummary()
			if got := g.Status(); got != tt.want {
				t.Errorf("Status() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	if got := Pass("ok").String(); got != "success(ok)" {
		t.Errorf("String() = %q", got)
	}
	if got := Fail("bad").String(); got != "failed(bad)" {
		t.Errorf("String() = %q", got)
	}
}

func TestRunInfo_Context(t *testing.T) {
	if got := RunInfoFrom(context.Background()); got != (RunInfo{}) {
		t.Errorf("RunInfoFrom(empty) = %+v", got)
	}
	ctx := WithRunInfo(context.Background(), RunInfo{TestCaseID: "TC_001", OutputDir: "/tmp/x"})
	if got := RunInfoFrom(ctx); got.TestCaseID != "TC_001" || got.OutputDir != "/tmp/x" {
		t.Errorf("RunInfoFrom() = %+v", got)
	}
}
