package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/jsengine"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Script handler messages.
const (
	MsgScriptExecuted = "SCRIPT_EXECUTED"
	MsgScriptFalse    = "SCRIPT_RETURNED_FALSE"
	MsgScriptError    = "SCRIPT_ERROR"
)

// script evaluates JavaScript from "script" or "file". The completion value
// becomes the outcome message so valid_match can branch on it; a false
// completion value fails the command.
//
//	{"widget_type": "script", "script": "http.get(url).status == 200 ? 'UP' : 'DOWN'",
//	 "env": {"url": "http://rig.local/health"}, "timeout": 10}
func (h *handlers) script(ctx context.Context, cmd command.Command) core.Outcome {
	log := logger.FromContext(ctx)

	source, err := h.scriptSource(cmd)
	if err != nil {
		log.Error("Script source: %v", err)
		return core.Fail(MsgScriptError + ": " + err.Error())
	}
	if strings.TrimSpace(source) == "" {
		return core.Fail(action.MissingFields)
	}

	engine := jsengine.New(log)
	info := core.RunInfoFrom(ctx)
	engine.SetInfo("testCaseId", info.TestCaseID)
	engine.SetInfo("outputDir", info.OutputDir)
	engine.SetInfo("target", cmd.Target())
	if env, ok := cmd["env"].(map[string]interface{}); ok {
		engine.SetVariables(env)
	}

	if secs, ok := cmd.GetFloat("timeout"); ok && secs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, seconds(secs))
		defer cancel()
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			engine.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()

	start := time.Now()
	result, err := engine.Eval(source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return action.Fail(ctxErr)
		}
		log.Error("Script failed: %v", err)
		return core.Fail(MsgScriptError + ": " + err.Error())
	}

	for k, v := range engine.GetOutput() {
		log.Info("Script output %s = %v", k, v)
	}
	log.Debug("Script finished in %s -> %v", time.Since(start).Round(time.Millisecond), result)

	switch v := result.(type) {
	case nil:
		return core.Pass(MsgScriptExecuted)
	case bool:
		if !v {
			return core.Fail(MsgScriptFalse)
		}
		return core.Pass(MsgScriptExecuted)
	case string:
		if v == "" {
			return core.Pass(MsgScriptExecuted)
		}
		return core.Pass(v)
	}
	return core.Pass(fmt.Sprint(result))
}

func (h *handlers) scriptSource(cmd command.Command) (string, error) {
	if s := cmd.GetString("script"); s != "" {
		return s, nil
	}
	file := cmd.GetString("file")
	if file == "" {
		return "", nil
	}
	if !filepath.IsAbs(file) && h.config.ScriptDir != "" {
		file = filepath.Join(h.config.ScriptDir, file)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
