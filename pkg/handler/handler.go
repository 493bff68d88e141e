// Package handler provides the built-in action handlers: widget interactions
// over Appium, captures, device shell commands, delays and scripts.
package handler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/driver/appium"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
	"github.com/mohanavadivelu2/automation-framework/pkg/session"
)

// Command fields shared by the handlers.
const (
	FieldXPath       = "xpath"
	FieldWait        = "wait"
	FieldDelayBefore = "delay_before"
	FieldFileName    = "file_name"
)

// Device is the device surface the handlers drive.
type Device interface {
	WaitForElement(ctx context.Context, strategy, value string, timeout, poll time.Duration) (string, error)
	ClickElement(ctx context.Context, elementID string) error
	ClearElement(ctx context.Context, elementID string) error
	SendValue(ctx context.Context, elementID, text string) error
	GetElementRect(ctx context.Context, elementID string) (appium.Bounds, error)
	GetElementAttribute(ctx context.Context, elementID, name string) (string, error)
	ScreenSize() (int, int)
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, startX, startY, endX, endY, durationMs int) error
	Screenshot(ctx context.Context) ([]byte, error)
	Source(ctx context.Context) (string, error)
	ActivateApp(ctx context.Context, appID string) error
	TerminateApp(ctx context.Context, appID string) error
	Shell(ctx context.Context, command string, args ...string) (string, error)
	ExecuteMobile(ctx context.Context, command string, args map[string]interface{}) (interface{}, error)
}

var _ Device = (*appium.Client)(nil)

// Provider resolves a base_path to its device.
type Provider interface {
	Device(basePath string) (Device, bool)
}

// ProviderFunc adapts a function to a Provider.
type ProviderFunc func(basePath string) (Device, bool)

// Device implements Provider.
func (f ProviderFunc) Device(basePath string) (Device, bool) {
	return f(basePath)
}

// Sessions exposes a session manager as a Provider.
func Sessions(m *session.Manager) Provider {
	return ProviderFunc(func(basePath string) (Device, bool) {
		c, ok := m.Client(basePath)
		if !ok {
			return nil, false
		}
		return c, true
	})
}

// Config tunes the built-in handlers.
type Config struct {
	// CaptureDir receives screenshots and page sources when the run context
	// carries no output directory.
	CaptureDir string
	// ScriptDir resolves relative script files.
	ScriptDir string
	// Options holds the rig settings radio_button reads through check_for.
	Options map[string]interface{}
	// PollInterval is the element/text lookup poll period.
	PollInterval time.Duration
	// Sleep waits for d or until ctx is done; nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

type handlers struct {
	devices Provider
	config  Config
}

// RegisterDefaults registers every built-in action type on reg.
func RegisterDefaults(reg *action.Registry, devices Provider, cfg Config) error {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepCtx
	}
	h := &handlers{devices: devices, config: cfg}

	table := map[string]action.Handler{
		"button":                   action.HandlerFunc(h.button),
		"radio_button":             action.HandlerFunc(h.radioButton),
		"text":                     action.HandlerFunc(h.text),
		"scroll":                   action.HandlerFunc(h.scroll),
		"ios_scroll":               action.HandlerFunc(h.iosScroll),
		"text_search":              action.HandlerFunc(h.textSearch),
		"facet_page_source_search": action.HandlerFunc(h.facetSearch),
		"screenshot":               action.HandlerFunc(h.screenshot),
		"page_source":              action.HandlerFunc(h.pageSource),
		"activate_app":             action.HandlerFunc(h.activateApp),
		"terminate_app":            action.HandlerFunc(h.terminateApp),
		"adb":                      action.HandlerFunc(h.adbLaunch),
		"adb_launch":               action.HandlerFunc(h.adbLaunch),
		"adb_install":              action.HandlerFunc(h.adbInstall),
		"adb_shell":                action.HandlerFunc(h.adbShell),
		"adb_swipe":                action.HandlerFunc(h.adbSwipe),
		"adb_swipe_xy":             action.HandlerFunc(h.adbSwipeXY),
		"delay":                    action.HandlerFunc(h.delay),
		"script": action.Ops{
			action.DefaultOperation: h.script,
			"evaluate":              h.script,
		},
	}
	for _, name := range sortedKeys(table) {
		if err := reg.Register(name, table[name]); err != nil {
			return fmt.Errorf("register %s: %w", name, err)
		}
	}
	return nil
}

// prepare checks required fields, resolves the device for base_path and
// honours delay_before. A non-nil outcome means the command must stop.
func (h *handlers) prepare(ctx context.Context, cmd command.Command, defaultDelay float64, fields ...string) (Device, *core.Outcome) {
	log := logger.FromContext(ctx)

	required := append([]string{command.KeyTarget}, fields...)
	if missing := missingFields(cmd, required); len(missing) > 0 {
		log.Error("Missing required fields %v for %s", missing, cmd.Label())
		out := core.Fail(action.MissingFields)
		return nil, &out
	}

	dev, ok := h.devices.Device(cmd.Target())
	if !ok {
		log.Error("No device session for %q", cmd.Target())
		out := core.Fail(action.DriverNotFound)
		return nil, &out
	}

	if out := h.delayBefore(ctx, cmd, defaultDelay); out != nil {
		return nil, out
	}
	return dev, nil
}

func (h *handlers) delayBefore(ctx context.Context, cmd command.Command, def float64) *core.Outcome {
	secs, ok := cmd.GetFloat(FieldDelayBefore)
	if !ok {
		secs = def
	}
	if secs <= 0 {
		return nil
	}
	if err := h.config.Sleep(ctx, seconds(secs)); err != nil {
		out := action.Fail(err)
		return &out
	}
	return nil
}

// waitFor returns the wait field as a duration, or def seconds.
func waitFor(cmd command.Command, def float64) time.Duration {
	secs, ok := cmd.GetFloat(FieldWait)
	if !ok || secs < 0 {
		secs = def
	}
	return seconds(secs)
}

// findElement locates an element by xpath, mapping lookup failures to the
// ELEMENT_NOT_FOUND family of messages.
func (h *handlers) findElement(ctx context.Context, dev Device, xpath string, wait time.Duration) (string, *core.Outcome) {
	id, err := dev.WaitForElement(ctx, appium.ByXPath, xpath, wait, h.config.PollInterval)
	if err == nil {
		return id, nil
	}
	logger.FromContext(ctx).Warn("Element %s not found: %v", xpath, err)

	var out core.Outcome
	var wdErr *appium.WebDriverError
	switch {
	case errors.As(err, &wdErr) && wdErr.NotFound() && wait > 0:
		out = core.Fail("ELEMENT_NOT_FOUND_TIMEOUT")
	case errors.As(err, &wdErr) && wdErr.NotFound():
		out = core.Fail("ELEMENT_NOT_FOUND")
	default:
		out = action.Fail(err)
	}
	return "", &out
}

// captureDir returns the directory captures are written to.
func (h *handlers) captureDir(ctx context.Context) (string, error) {
	dir := h.config.CaptureDir
	if out := core.RunInfoFrom(ctx).OutputDir; out != "" {
		dir = out
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func (h *handlers) writeCapture(ctx context.Context, name string, data []byte) (string, error) {
	dir, err := h.captureDir(ctx)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func missingFields(cmd command.Command, fields []string) []string {
	var missing []string
	for _, f := range fields {
		if !cmd.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// boolOr returns a boolean field, or def when absent.
func boolOr(cmd command.Command, key string, def bool) bool {
	if _, ok := cmd[key]; !ok {
		return def
	}
	return cmd.GetBool(key)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func sortedKeys(m map[string]action.Handler) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
