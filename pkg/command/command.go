// Package command defines the JSON command model and the loading and
// fragment expansion of command documents.
package command

import (
	"strconv"
	"strings"
	"time"
)

// Document keys.
const (
	KeyActionType      = "widget_type"
	KeyActionTypeAlias = "type"
	KeyOperation       = "call_fun"
	KeyFragment        = "common_command"
	KeyCleanup         = "clean_up"
	KeyTarget          = "base_path"
	KeyMaxRetry        = "max_retry"
	KeyAttemptInterval = "attempt_interval"
	KeyValidation      = "validation"
	KeyValidMatch      = "valid_match"
	KeyExit            = "exit"
	KeySuccess         = "success"
	KeyFailed          = "failed"
	KeyCommands        = "command"
)

// Kind is the shape of a Command.
type Kind int

const (
	KindActionable Kind = iota // Dispatched to a handler
	KindReference              // Replaced by a fragment's commands
	KindDirective              // Sets the cleanup fragment
)

func (k Kind) String() string {
	switch k {
	case KindActionable:
		return "actionable"
	case KindReference:
		return "reference"
	case KindDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Command is one JSON object from a command list.
type Command map[string]interface{}

// Kind classifies the command. A clean_up key makes it a directive, a
// common_command key a reference; everything else is actionable.
func (c Command) Kind() Kind {
	if _, ok := c[KeyCleanup]; ok {
		return KindDirective
	}
	if _, ok := c[KeyFragment]; ok {
		return KindReference
	}
	return KindActionable
}

// ActionType returns the handler discriminator.
func (c Command) ActionType() string {
	if s := c.GetString(KeyActionType); s != "" {
		return s
	}
	return c.GetString(KeyActionTypeAlias)
}

// Operation returns the named operation, or def when none is declared.
func (c Command) Operation(def string) string {
	if s := c.GetString(KeyOperation); s != "" {
		return s
	}
	return def
}

// FragmentRef returns the referenced fragment name.
func (c Command) FragmentRef() (string, bool) {
	s, ok := c[KeyFragment].(string)
	return s, ok && s != ""
}

// CleanupRef returns the cleanup fragment named by a directive.
func (c Command) CleanupRef() (string, bool) {
	s, ok := c[KeyCleanup].(string)
	return s, ok && s != ""
}

// Target returns the device base path the command acts on.
func (c Command) Target() string {
	return c.GetString(KeyTarget)
}

// MaxRetry returns the attempt count, at least 1.
func (c Command) MaxRetry() int {
	n, ok := c.GetInt(KeyMaxRetry)
	if !ok || n < 1 {
		return 1
	}
	return n
}

// AttemptInterval returns the pause between failed attempts.
func (c Command) AttemptInterval() time.Duration {
	f, ok := c.GetFloat(KeyAttemptInterval)
	if !ok || f <= 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}

// Validation holds the success/failed sub-command lists of a command.
type Validation struct {
	Success    []Command
	Failed     []Command
	HasSuccess bool
	HasFailed  bool
}

// Validation returns the command's validation block.
func (c Command) Validation() (Validation, bool) {
	block, ok := c[KeyValidation].(map[string]interface{})
	if !ok {
		return Validation{}, false
	}
	var v Validation
	if raw, ok := block[KeySuccess]; ok {
		v.Success, v.HasSuccess = List(raw)
	}
	if raw, ok := block[KeyFailed]; ok {
		v.Failed, v.HasFailed = List(raw)
	}
	return v, v.HasSuccess || v.HasFailed
}

// ValidMatch returns the sub-command list keyed by label.
func (c Command) ValidMatch(label string) ([]Command, bool) {
	block, ok := c[KeyValidMatch].(map[string]interface{})
	if !ok {
		return nil, false
	}
	raw, ok := block[label]
	if !ok {
		return nil, false
	}
	return List(raw)
}

// ValidMatchLabels returns the labels of the valid_match block.
func (c Command) ValidMatchLabels() []string {
	block, ok := c[KeyValidMatch].(map[string]interface{})
	if !ok {
		return nil
	}
	labels := make([]string, 0, len(block))
	for k := range block {
		labels = append(labels, k)
	}
	return labels
}

// Exit reports whether the exit flag is set (true or "YES").
func (c Command) Exit() bool {
	return c.GetBool(KeyExit)
}

// GetString returns a string field, or "".
func (c Command) GetString(key string) string {
	s, _ := c[key].(string)
	return s
}

// GetBool returns a boolean field, accepting "true"/"yes" strings.
func (c Command) GetBool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	default:
		return false
	}
}

// GetInt returns an integer field. JSON numbers and numeric strings are accepted.
func (c Command) GetInt(key string) (int, bool) {
	f, ok := c.GetFloat(key)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// GetFloat returns a numeric field.
func (c Command) GetFloat(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Has reports whether every key is present and non-empty.
func (c Command) Has(keys ...string) bool {
	for _, k := range keys {
		v, ok := c[k]
		if !ok || v == nil {
			return false
		}
		if s, isStr := v.(string); isStr && s == "" {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of the command.
func (c Command) Clone() Command {
	out := make(Command, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Label describes the command for logs.
func (c Command) Label() string {
	switch c.Kind() {
	case KindDirective:
		return "clean_up:" + c.GetString(KeyCleanup)
	case KindReference:
		return "common_command:" + c.GetString(KeyFragment)
	}
	op := c.GetString(KeyOperation)
	if op == "" {
		return c.ActionType()
	}
	return c.ActionType() + "." + op
}

// List converts a decoded JSON array into commands. Elements that are not
// objects are dropped; ok is false when raw is not an array.
func List(raw interface{}) ([]Command, bool) {
	items, ok := raw.([]interface{})
	if !ok {
		if cmds, isCmds := raw.([]Command); isCmds {
			return cmds, true
		}
		return nil, false
	}
	cmds := make([]Command, 0, len(items))
	for _, item := range items {
		if m, isMap := item.(map[string]interface{}); isMap {
			cmds = append(cmds, Command(m))
		}
	}
	return cmds, true
}

// Targets returns the distinct base paths in first-seen order.
func Targets(cmds []Command) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cmds {
		t := c.Target()
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
