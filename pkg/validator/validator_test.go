package validator

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func codeOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

func TestValidateTestCase_Valid(t *testing.T) {
	doc := decode(t, `{"command":[
		{"clean_up":"c.json"},
		{"common_command":"login.json"},
		{"widget_type":"button","validation":{"failed":[{"type":"x"}]},"valid_match":{"HOME":[{"type":"y"}]}}
	]}`)
	if err := ValidateTestCase(doc, "TC_001"); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
}

func TestValidateTestCase_Codes(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"not dictionary", `[1,2]`, "INVALID_JSON_NOT_DICTIONARY"},
		{"no command", `{}`, "INVALID_JSON_COMMAND_LIST_INVALID"},
		{"command not list", `{"command":{}}`, "INVALID_JSON_COMMAND_LIST_INVALID"},
		{"empty", `{"command":[]}`, "INVALID_JSON_COMMAND_LIST_EMPTY"},
		{"element not dict", `{"command":[{"type":"x"},"click"]}`, "INVALID_COMMAND_AT_INDEX_1"},
		{"directive extra key", `{"command":[{"clean_up":"c.json","type":"x"}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"directive not string", `{"command":[{"clean_up":1}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"reference not string", `{"command":[{"type":"x"},{"common_command":["a"]}]}`, "INVALID_COMMAND_AT_INDEX_1"},
		{"validation not dict", `{"command":[{"type":"x","validation":[]}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"validation empty", `{"command":[{"type":"x","validation":{}}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"validation success not list", `{"command":[{"type":"x","validation":{"success":{}}}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"nested bad command", `{"command":[{"type":"x","validation":{"failed":[3]}}]}`, "INVALID_COMMAND_AT_INDEX_0"},
		{"valid_match not dict", `{"command":[{"type":"x","valid_match":[]}]}`, "INVALID_COMMAND_AT_INDEX_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTestCase(decode(t, tt.json), "TC")
			if got := codeOf(err); got != tt.want {
				t.Errorf("code = %q, want %q (err %v)", got, tt.want, err)
			}
			if !core.IsCategory(err, core.ErrCategoryValidation) {
				t.Errorf("category = %v, want validation", core.CategoryOf(err))
			}
		})
	}
}

func TestValidateGroup(t *testing.T) {
	if err := ValidateGroup(decode(t, `{"all_test_case":["a","b"]}`), "all_test_case"); err != nil {
		t.Errorf("expected valid, got %v", err)
	}
	for _, in := range []string{`[]`, `{}`, `{"all_test_case":"a"}`, `{"all_test_case":["a",2]}`} {
		if err := ValidateGroup(decode(t, in), "all_test_case"); err == nil {
			t.Errorf("ValidateGroup(%s) expected error", in)
		}
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{File: "TC.json", Message: "bad"}
	if err.Error() != "TC.json: bad" {
		t.Errorf("Error() = %q", err.Error())
	}
}

// workspace lays out test_case/ and common/ under a temp dir.
func workspace(t *testing.T, cases, fragments map[string]string) *command.Loader {
	t.Helper()
	dir := t.TempDir()
	write := func(sub string, files map[string]string) {
		for name, content := range files {
			path := filepath.Join(dir, sub, name)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
	write("test_case", cases)
	write("common", fragments)
	return command.NewLoader(filepath.Join(dir, "test_case"), filepath.Join(dir, "common"))
}

func testRegistry() *action.Registry {
	r := action.NewRegistry()
	ok := func(context.Context, command.Command) core.Outcome { return core.Pass("ok") }
	r.MustRegister("button", action.HandlerFunc(ok))
	r.MustRegister("scroll", action.Ops{"up": ok})
	return r
}

func TestValidateTree_Valid(t *testing.T) {
	l := workspace(t,
		map[string]string{
			"TC_001.json": `{"command":[{"clean_up":"close.json"},{"common_command":"login.json"},{"widget_type":"button"}]}`,
			"TC_002.json": `{"command":[{"common_command":"login.json"}]}`,
		},
		map[string]string{
			"login.json":  `{"command":[{"widget_type":"button"},{"common_command":"submit.json"}]}`,
			"submit.json": `{"command":[{"widget_type":"scroll","call_fun":"up"}]}`,
			"close.json":  `{"command":[{"widget_type":"button"}]}`,
		})

	result := New(l, testRegistry()).ValidateTree([]string{"TC_001", "TC_002"})
	if !result.IsValid() {
		t.Fatalf("expected valid, got %v", result.Errors)
	}
	if len(result.TestCases) != 2 {
		t.Errorf("TestCases = %v", result.TestCases)
	}
	if len(result.Fragments) != 3 {
		t.Errorf("Fragments = %v, want each fragment once", result.Fragments)
	}
}

func TestValidateTree_CircularDependency(t *testing.T) {
	l := workspace(t,
		map[string]string{"TC.json": `{"command":[{"common_command":"a.json"}]}`},
		map[string]string{
			"a.json": `{"command":[{"common_command":"b.json"}]}`,
			"b.json": `{"command":[{"common_command":"a.json"}]}`,
		})

	result := New(l, nil).ValidateTree([]string{"TC"})
	if result.IsValid() {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(result.Errors[0].Error(), "a.json -> b.json -> a.json") {
		t.Errorf("error = %v", result.Errors[0])
	}
	if codeOf(result.Errors[0]) != CodeFragmentCycle {
		t.Errorf("code = %q", codeOf(result.Errors[0]))
	}
}

func TestValidateTree_MissingFragmentInValidationBlock(t *testing.T) {
	l := workspace(t,
		map[string]string{"TC.json": `{"command":[{"widget_type":"button","validation":{"failed":[{"common_command":"gone.json"}]}}]}`},
		nil)

	result := New(l, nil).ValidateTree([]string{"TC"})
	if len(result.Errors) != 1 || codeOf(result.Errors[0]) != CodeFragmentMissing {
		t.Errorf("Errors = %v", result.Errors)
	}
	if len(result.TestCases) != 0 {
		t.Errorf("invalid test case should not be listed: %v", result.TestCases)
	}
}

func TestValidateTree_UnknownActionAndOperation(t *testing.T) {
	l := workspace(t,
		map[string]string{
			"TC_A.json": `{"command":[{"widget_type":"swipe"}]}`,
			"TC_B.json": `{"command":[{"widget_type":"scroll","call_fun":"down"}]}`,
			"TC_C.json": `{"command":[{"widget_type":"button","valid_match":{"X":[{"xpath":"//a"}]}}]}`,
		}, nil)

	result := New(l, testRegistry()).ValidateTree([]string{"TC_A", "TC_B", "TC_C"})
	if len(result.Errors) != 3 {
		t.Fatalf("Errors = %v, want 3", result.Errors)
	}
	if codeOf(result.Errors[0]) != CodeUnknownAction || codeOf(result.Errors[1]) != CodeUnknownOperation {
		t.Errorf("codes = %q %q", codeOf(result.Errors[0]), codeOf(result.Errors[1]))
	}
}

func TestValidateTree_MissingAndInvalidTestCases(t *testing.T) {
	l := workspace(t,
		map[string]string{
			"bad.json":  `{"command":[]}`,
			"good.json": `{"command":[{"widget_type":"button"}]}`,
		}, nil)

	result := New(l, testRegistry()).ValidateTree([]string{"missing", "bad", "good"})
	if len(result.Errors) != 2 {
		t.Errorf("Errors = %v, want 2", result.Errors)
	}
	if len(result.TestCases) != 1 || result.TestCases[0] != "good" {
		t.Errorf("TestCases = %v", result.TestCases)
	}
}
