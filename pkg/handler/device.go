package handler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Device handler messages.
const (
	MsgAppActivated  = "APP_ACTIVATED"
	MsgAppTerminated = "APP_TERMINATED"
	MsgShellExecuted = "SHELL_EXECUTED"
	MsgSwiped        = "SWIPE_SUCCESSFUL"
	MsgDelayDone     = "DELAY_COMPLETED"
	MsgLaunched      = "ACTIVITY_LAUNCHED_SUCCESSFULLY"
	MsgApkInstalled  = "APK_INSTALLED"
)

// Screen size assumed by adb_swipe when the command names none.
const (
	defaultScreenWidth  = 1080
	defaultScreenHeight = 1920
)

func (h *handlers) activateApp(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 1, "bundle_id")
	if stop != nil {
		return *stop
	}

	id := cmd.GetString("bundle_id")
	logger.FromContext(ctx).Info("Activating app with bundle ID: %s", id)
	if err := dev.ActivateApp(ctx, id); err != nil {
		return core.Fail("ACTIVATE_APP_FAILED: " + err.Error())
	}
	return core.Pass(MsgAppActivated)
}

func (h *handlers) terminateApp(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 1, "bundle_id")
	if stop != nil {
		return *stop
	}

	id := cmd.GetString("bundle_id")
	logger.FromContext(ctx).Info("Terminating app with bundle ID: %s", id)
	if err := dev.TerminateApp(ctx, id); err != nil {
		return core.Fail("TERMINATE_APP_FAILED: " + err.Error())
	}
	return core.Pass(MsgAppTerminated)
}

// adbShell runs a shell command line on the device.
//
//	{"widget_type": "adb_shell", "base_path": "phone", "command": "input keyevent 3"}
func (h *handlers) adbShell(ctx context.Context, cmd command.Command) core.Outcome {
	line, ok := cmd["command"].(string)
	if !ok && cmd.Has("command") {
		return action.Fail(action.Invalid("command must be a string"))
	}

	dev, stop := h.prepare(ctx, cmd, 0, "command")
	if stop != nil {
		return *stop
	}

	parts := strings.Fields(line)
	if len(parts) == 0 {
		return core.Fail(action.MissingFields)
	}
	out, err := dev.Shell(ctx, parts[0], parts[1:]...)
	if err != nil {
		return core.Fail("SHELL_ERROR: " + err.Error())
	}

	log := logger.FromContext(ctx)
	log.Info("Shell: %s", line)
	if out = strings.TrimSpace(out); out != "" {
		log.Debug("Shell output: %s", out)
	}
	return core.Pass(MsgShellExecuted)
}

// adbSwipeXY swipes between absolute screen coordinates via `input swipe`.
func (h *handlers) adbSwipeXY(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "start_x", "start_y", "end_x", "end_y")
	if stop != nil {
		return *stop
	}

	args := []string{"swipe"}
	for _, key := range []string{"start_x", "start_y", "end_x", "end_y"} {
		v, ok := cmd.GetInt(key)
		if !ok {
			return action.Fail(action.Invalid("%s must be a number, got %v", key, cmd[key]))
		}
		args = append(args, strconv.Itoa(v))
	}
	duration, ok := cmd.GetInt("duration")
	if !ok {
		duration = 100
	}
	args = append(args, strconv.Itoa(duration))

	if _, err := dev.Shell(ctx, "input", args...); err != nil {
		return core.Fail("SWIPE_COMMAND_ERROR: " + err.Error())
	}
	logger.FromContext(ctx).Info("Swiped %s", strings.Join(args[1:], " "))
	return core.Pass(MsgSwiped)
}

// adbSwipe swipes horizontally across the middle of the screen, keeping a
// 10% margin at both edges.
//
//	{"widget_type": "adb_swipe", "base_path": "phone", "direction": "left", "duration": 300}
func (h *handlers) adbSwipe(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "direction")
	if stop != nil {
		return *stop
	}

	width, ok := cmd.GetInt("screen_width")
	if !ok {
		width = defaultScreenWidth
	}
	height, ok := cmd.GetInt("screen_height")
	if !ok {
		height = defaultScreenHeight
	}
	duration, ok := cmd.GetInt("duration")
	if !ok {
		duration = 300
	}

	direction := strings.ToLower(cmd.GetString("direction"))
	pad := width / 10
	var x1, x2 int
	switch direction {
	case "left":
		x1, x2 = width-pad, pad
	case "right":
		x1, x2 = pad, width-pad
	default:
		return core.Fail(fmt.Sprintf("INVALID_DIRECTION: '%s' (use 'left' or 'right')", direction))
	}

	y := strconv.Itoa(height / 2)
	args := []string{"swipe", strconv.Itoa(x1), y, strconv.Itoa(x2), y, strconv.Itoa(duration)}
	label := "SWIPE_" + strings.ToUpper(direction)
	if _, err := dev.Shell(ctx, "input", args...); err != nil {
		return core.Fail(label + "_FAIL: " + err.Error())
	}
	logger.FromContext(ctx).Info("Swiped %s (%s)", direction, strings.Join(args[1:], " "))
	return core.Pass(label + "_SUCCESS")
}

// adbLaunch starts an activity with `am start` and confirms it appears in
// the activity dump. activity_name may be ".Main", "com.pkg.Main" or a full
// "com.pkg/.Main" component.
//
//	{"widget_type": "adb_launch", "base_path": "phone",
//	 "package_name": "com.android.settings", "activity_name": ".Settings", "wait": 2}
func (h *handlers) adbLaunch(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "package_name", "activity_name")
	if stop != nil {
		return *stop
	}

	component := launchComponent(cmd.GetString("package_name"), cmd.GetString("activity_name"))
	log := logger.FromContext(ctx)
	log.Info("Launching %s", component)
	if _, err := dev.Shell(ctx, "am", "start", "-n", component); err != nil {
		return core.Fail("SHELL_ERROR: " + err.Error())
	}

	if secs, ok := cmd.GetFloat(FieldWait); ok && secs > 0 {
		if err := h.config.Sleep(ctx, seconds(secs)); err != nil {
			return action.Fail(err)
		}
	}

	dump, err := dev.Shell(ctx, "dumpsys", "activity", "activities")
	if err != nil {
		return core.Fail("ACTIVITY_CHECK_FAILED: " + err.Error())
	}
	short := component[strings.LastIndex(component, "/")+1:]
	if !strings.Contains(dump, short) {
		log.Warn("Activity %s not found in activity dump", component)
		return core.Fail("ACTIVITY_NOT_RUNNING: " + component)
	}
	return core.Pass(MsgLaunched)
}

func launchComponent(pkg, activity string) string {
	switch {
	case strings.Contains(activity, "/"):
		return activity
	case strings.HasPrefix(activity, "."):
		return pkg + "/" + pkg + activity
	default:
		return pkg + "/" + activity
	}
}

// adbInstall installs an APK through the mobile: installApp extension. The
// path must be readable by the Appium server; it is checked locally first
// since both usually share a host.
func (h *handlers) adbInstall(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "apk_path")
	if stop != nil {
		return *stop
	}

	path := cmd.GetString("apk_path")
	if _, err := os.Stat(path); err != nil {
		logger.FromContext(ctx).Error("APK %s: %v", path, err)
		return core.Fail("APK_FILE_NOT_FOUND: " + path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if _, err := dev.ExecuteMobile(ctx, "installApp", map[string]interface{}{"appPath": path}); err != nil {
		return core.Fail("INSTALL_ERROR: " + err.Error())
	}
	logger.FromContext(ctx).Info("Installed %s", path)
	return core.Pass(MsgApkInstalled)
}

// delay pauses the test case for duration seconds. It needs no device.
func (h *handlers) delay(ctx context.Context, cmd command.Command) core.Outcome {
	secs, ok := cmd.GetFloat("duration")
	if !ok {
		if !cmd.Has("duration") {
			return core.Fail(action.MissingFields)
		}
		return action.Fail(action.Invalid("duration must be a number, got %v", cmd["duration"]))
	}
	if secs < 0 {
		return action.Fail(action.Invalid("duration must not be negative"))
	}

	logger.FromContext(ctx).Debug("Waiting %.2fs", secs)
	if err := h.config.Sleep(ctx, seconds(secs)); err != nil {
		return action.Fail(err)
	}
	return core.Pass(MsgDelayDone)
}
