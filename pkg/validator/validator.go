// Package validator checks test case and group documents before execution.
// Structural checks run per document; tree validation also resolves fragment
// references and detects cycles.
package validator

import (
	"fmt"
	"strings"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
)

// Structural error codes.
const (
	CodeNotDictionary    = "INVALID_JSON_NOT_DICTIONARY"
	CodeCommandListInval = "INVALID_JSON_COMMAND_LIST_INVALID"
	CodeCommandListEmpty = "INVALID_JSON_COMMAND_LIST_EMPTY"
	CodeCommandAtIndex   = "INVALID_COMMAND_AT_INDEX_"
	CodeGroupInvalid     = "INVALID_TEST_CASE_GROUP"
	CodeFragmentMissing  = "FRAGMENT_NOT_FOUND"
	CodeFragmentCycle    = "FRAGMENT_CYCLE"
	CodeUnknownAction    = "UNKNOWN_ACTION_TYPE"
	CodeUnknownOperation = "NO_FUNCTION_FOUND"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Unwrap lets callers classify validation errors as validation faults.
func (e *ValidationError) Unwrap() error {
	return core.ErrInvalidDocument
}

// ValidateTestCase checks the shape of a decoded test case document.
func ValidateTestCase(data interface{}, id string) error {
	file := id + ".json"

	obj, ok := data.(map[string]interface{})
	if !ok {
		return &ValidationError{File: file, Code: CodeNotDictionary, Message: "test case must be a dictionary"}
	}
	list, ok := obj[command.KeyCommands].([]interface{})
	if !ok {
		return &ValidationError{File: file, Code: CodeCommandListInval, Message: `"command" must be a list`}
	}
	if len(list) == 0 {
		return &ValidationError{File: file, Code: CodeCommandListEmpty, Message: `"command" list is empty`}
	}

	for i, item := range list {
		if msg := checkCommand(item, fmt.Sprintf("command[%d]", i)); msg != "" {
			return &ValidationError{File: file, Code: fmt.Sprintf("%s%d", CodeCommandAtIndex, i), Message: msg}
		}
	}
	return nil
}

// ValidateGroup checks that data is a dictionary listing test case ids
// under field.
func ValidateGroup(data interface{}, field string) error {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return &ValidationError{File: "group", Code: CodeGroupInvalid, Message: "test case group must be a dictionary"}
	}
	list, ok := obj[field].([]interface{})
	if !ok {
		return &ValidationError{File: "group", Code: CodeGroupInvalid, Message: fmt.Sprintf("%q must be a list", field)}
	}
	for i, v := range list {
		if s, ok := v.(string); !ok || s == "" {
			return &ValidationError{File: "group", Code: CodeGroupInvalid, Message: fmt.Sprintf("%s[%d] must be a test case id", field, i)}
		}
	}
	return nil
}

// checkCommand returns a description of the first structural problem in
// one command, or "".
func checkCommand(item interface{}, path string) string {
	cmd, ok := item.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%s must be a dictionary", path)
	}

	if v, ok := cmd[command.KeyCleanup]; ok {
		if _, isStr := v.(string); !isStr {
			return fmt.Sprintf("%s: clean_up must be a string", path)
		}
		if len(cmd) > 1 {
			return fmt.Sprintf("%s: cleanup directive must only contain the clean_up key", path)
		}
		return ""
	}

	if v, ok := cmd[command.KeyFragment]; ok {
		if _, isStr := v.(string); !isStr {
			return fmt.Sprintf("%s: common_command must be a string", path)
		}
	}

	if v, ok := cmd[command.KeyValidation]; ok {
		if msg := checkValidation(v, path+".validation"); msg != "" {
			return msg
		}
	}

	if v, ok := cmd[command.KeyValidMatch]; ok {
		block, isMap := v.(map[string]interface{})
		if !isMap {
			return fmt.Sprintf("%s.valid_match must be a dictionary", path)
		}
		for label, sub := range block {
			if msg := checkList(sub, fmt.Sprintf("%s.valid_match.%s", path, label)); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func checkValidation(v interface{}, path string) string {
	block, ok := v.(map[string]interface{})
	if !ok {
		return fmt.Sprintf("%s must be a dictionary", path)
	}
	_, hasSuccess := block[command.KeySuccess]
	_, hasFailed := block[command.KeyFailed]
	if !hasSuccess && !hasFailed {
		return fmt.Sprintf("%s must have a success or failed section", path)
	}
	if hasSuccess {
		if msg := checkList(block[command.KeySuccess], path+".success"); msg != "" {
			return msg
		}
	}
	if hasFailed {
		if msg := checkList(block[command.KeyFailed], path+".failed"); msg != "" {
			return msg
		}
	}
	return ""
}

func checkList(v interface{}, path string) string {
	list, ok := v.([]interface{})
	if !ok {
		return fmt.Sprintf("%s must be a list", path)
	}
	for i, item := range list {
		if msg := checkCommand(item, fmt.Sprintf("%s[%d]", path, i)); msg != "" {
			return msg
		}
	}
	return ""
}

// Result contains the tree validation result.
type Result struct {
	// TestCases lists the ids that passed validation, in input order.
	TestCases []string
	// Fragments lists every fragment reached, in first-visit order.
	Fragments []string
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator walks test cases and the fragments they reference.
type Validator struct {
	loader   *command.Loader
	registry *action.Registry
}

// New creates a Validator. A nil registry skips action type checks.
func New(loader *command.Loader, registry *action.Registry) *Validator {
	return &Validator{loader: loader, registry: registry}
}

// ValidateTree validates each test case and every fragment reachable from it,
// reporting missing fragments, circular references and unknown action types.
func (v *Validator) ValidateTree(ids []string) *Result {
	result := &Result{}
	validated := make(map[string]bool)

	for _, id := range ids {
		before := len(result.Errors)
		file := id + ".json"

		raw, err := v.loader.LoadTestCaseRaw(id)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{File: file, Code: "FILE_NOT_FOUND_OR_INVALID_JSON", Message: err.Error()})
			continue
		}
		if err := ValidateTestCase(raw, id); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		doc, err := command.ParseDocument(id, v.loader.TestCasePath(id), raw)
		if err != nil {
			result.Errors = append(result.Errors, &ValidationError{File: file, Message: err.Error()})
			continue
		}

		v.walk(doc.Commands, file, result, validated, nil)
		if len(result.Errors) == before {
			result.TestCases = append(result.TestCases, id)
		}
	}
	return result
}

// walk checks commands and descends into fragments and sub-command lists.
func (v *Validator) walk(cmds []command.Command, file string, result *Result, validated map[string]bool, chain []string) {
	for _, cmd := range cmds {
		switch cmd.Kind() {
		case command.KindReference:
			name, _ := cmd.FragmentRef()
			v.validateFragment(name, file, result, validated, chain)
			continue
		case command.KindDirective:
			name, _ := cmd.CleanupRef()
			v.validateFragment(name, file, result, validated, chain)
			continue
		}

		v.checkAction(cmd, file, result)

		if val, ok := cmd.Validation(); ok {
			v.walk(val.Success, file, result, validated, chain)
			v.walk(val.Failed, file, result, validated, chain)
		}
		for _, label := range cmd.ValidMatchLabels() {
			sub, _ := cmd.ValidMatch(label)
			v.walk(sub, file, result, validated, chain)
		}
	}
}

func (v *Validator) checkAction(cmd command.Command, file string, result *Result) {
	if v.registry == nil {
		return
	}
	actionType := cmd.ActionType()
	if actionType == "" {
		result.Errors = append(result.Errors, &ValidationError{File: file, Code: CodeUnknownAction, Message: "command has no widget_type"})
		return
	}
	if !v.registry.Has(actionType) {
		result.Errors = append(result.Errors, &ValidationError{File: file, Code: CodeUnknownAction, Message: fmt.Sprintf("unknown action type %q", actionType)})
		return
	}
	if _, err := v.registry.Lookup(actionType, cmd.Operation(action.DefaultOperation)); err != nil {
		result.Errors = append(result.Errors, &ValidationError{File: file, Code: CodeUnknownOperation, Message: err.Error()})
	}
}

func (v *Validator) validateFragment(name, parent string, result *Result, validated map[string]bool, chain []string) {
	if name == "" {
		result.Errors = append(result.Errors, &ValidationError{File: parent, Code: CodeFragmentMissing, Message: "empty fragment reference"})
		return
	}

	// Check for circular dependency
	for _, ancestor := range chain {
		if ancestor == name {
			cycle := append(append([]string{}, chain...), name)
			result.Errors = append(result.Errors, &ValidationError{
				File:    name,
				Code:    CodeFragmentCycle,
				Message: fmt.Sprintf("circular dependency detected: %s", strings.Join(cycle, " -> ")),
			})
			return
		}
	}

	// Skip if already validated
	if validated[name] {
		return
	}

	doc, err := v.loader.LoadFragment(name)
	if err != nil {
		result.Errors = append(result.Errors, &ValidationError{
			File:    parent,
			Code:    CodeFragmentMissing,
			Message: fmt.Sprintf("invalid or missing fragment %s: %v", name, err),
		})
		return
	}

	validated[name] = true
	result.Fragments = append(result.Fragments, name)

	newChain := append(append([]string{}, chain...), name)
	v.walk(doc.Commands, name, result, validated, newChain)
}
