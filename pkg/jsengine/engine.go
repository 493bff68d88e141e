// Package jsengine evaluates JavaScript for script commands.
package jsengine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Engine wraps a goja runtime with the globals scripts rely on:
// console, json(), http, sleep(), output and automation.
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]interface{}
	output    map[string]interface{}
	log       *logger.Logger
	info      map[string]interface{}
	mu        sync.Mutex
}

// New creates an engine whose console writes to log.
func New(log *logger.Logger) *Engine {
	e := &Engine{
		runtime:   goja.New(),
		variables: make(map[string]interface{}),
		output:    make(map[string]interface{}),
		log:       log,
		info:      make(map[string]interface{}),
	}
	e.setupBuiltins()
	return e
}

func (e *Engine) setupBuiltins() {
	e.setupConsole()
	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("http", e.httpModule())
	e.runtime.Set("output", e.output)
	e.runtime.Set("automation", e.automationObject())

	// sleep(ms) blocks the script; there is no event loop for timers.
	e.runtime.Set("sleep", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			time.Sleep(time.Duration(call.Arguments[0].ToInteger()) * time.Millisecond)
		}
		return goja.Undefined()
	})
}

// setupConsole routes console.log/warn/error to the logger.
func (e *Engine) setupConsole() {
	format := func(call goja.FunctionCall) string {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = fmt.Sprintf("%v", arg.Export())
		}
		return strings.Join(parts, " ")
	}

	console := e.runtime.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		e.log.Info("[js] %s", format(call))
		return goja.Undefined()
	})
	console.Set("warn", func(call goja.FunctionCall) goja.Value {
		e.log.Warn("[js] %s", format(call))
		return goja.Undefined()
	})
	console.Set("error", func(call goja.FunctionCall) goja.Value {
		e.log.Error("[js] %s", format(call))
		return goja.Undefined()
	})
	e.runtime.Set("console", console)
}

// jsonFunc returns the json() helper that parses a JSON string.
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}
		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", call.Arguments[0].String()))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	}
}

// automationObject exposes read-only run information (testCaseId, outputDir, target).
func (e *Engine) automationObject() *goja.Object {
	obj := e.runtime.NewObject()
	for _, key := range []string{"testCaseId", "outputDir", "target"} {
		key := key
		obj.DefineAccessorProperty(key, e.runtime.ToValue(func() interface{} {
			return e.info[key]
		}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	return obj
}

// SetInfo sets a value exposed on the automation object.
func (e *Engine) SetInfo(key string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.info[key] = value
}

// SetVariable sets a variable accessible in JS as a global.
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.variables[name] = value
	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables.
func (e *Engine) SetVariables(vars map[string]interface{}) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// GetOutput returns a copy of the output object.
func (e *Engine) GetOutput() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()

	source := e.output
	if v := e.runtime.Get("output"); v != nil && !goja.IsUndefined(v) {
		if m, ok := v.Export().(map[string]interface{}); ok {
			source = m
		}
	}
	result := make(map[string]interface{}, len(source))
	for k, v := range source {
		result[k] = v
	}
	return result
}

// Eval evaluates a script and returns its exported completion value.
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}

// EvalString evaluates a script and formats the result as a string.
func (e *Engine) EvalString(script string) (string, error) {
	result, err := e.Eval(script)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", result), nil
}

// Interrupt aborts a running script. Safe to call from another goroutine.
func (e *Engine) Interrupt(reason string) {
	e.runtime.Interrupt(reason)
}

// ExpandVariables replaces each ${expr} in text with its evaluated value.
// Expressions that fail to evaluate are left as-is.
func (e *Engine) ExpandVariables(text string) string {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			switch result[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		if depth != 0 {
			start = idx + 2
			continue
		}

		value, err := e.EvalString(result[idx+2 : end-1])
		if err != nil {
			start = end
			continue
		}
		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}
	return result
}
