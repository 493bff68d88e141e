package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mohanavadivelu2/automation-framework/pkg/action"
	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/driver/appium"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// Widget handler messages. Success messages double as valid_match labels.
const (
	MsgButtonClicked    = "BUTTON_CLICKED_SUCCESSFULLY"
	MsgTextEntered      = "TEXT_ENTERED_SUCCESSFULLY"
	MsgTextNotEditable  = "TEXT_FIELD_NOT_INTERACTABLE"
	MsgScrolled         = "SCROLL_SUCCESSFUL"
	MsgTextFound        = "TEXT_FOUND_SUCCESSFULLY"
	MsgTextFoundClicked = "TEXT_FOUND_AND_CLICKED_SUCCESSFULLY"
	MsgTextNotFound     = "TEXT_NOT_FOUND"
	MsgInvalidParameter = "INVALID_PARAMETER"
	MsgRadioSelected    = "RADIO_BUTTON_SELECTED"
	MsgUnsupportedCheck = "UNSUPPORTED_CHECK_FOR_VALUE"
	MsgIOSScrolled      = "SCROLL_SUCCESS"
)

const defaultSwipeDuration = 500 // ms

const iosScrollSettle = 2 * time.Second

// button clicks the element at xpath.
//
//	{"widget_type": "button", "base_path": "phone", "xpath": "//...", "wait": 10}
func (h *handlers) button(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 4, FieldXPath)
	if stop != nil {
		return *stop
	}

	xpath := cmd.GetString(FieldXPath)
	id, stop := h.findElement(ctx, dev, xpath, waitFor(cmd, 10))
	if stop != nil {
		return *stop
	}
	if err := dev.ClickElement(ctx, id); err != nil {
		return action.Fail(err)
	}

	logger.FromContext(ctx).Info("Clicked button at %s", xpath)
	return core.Pass(MsgButtonClicked)
}

// radioButton clicks yes_xpath when the config option named by check_for is
// set, no_xpath otherwise. A button whose value is already "1" is left as is.
//
//	{"widget_type": "radio_button", "base_path": "car", "check_for": "DRIVER_SIDE_LEFT",
//	 "yes_xpath": "//left", "no_xpath": "//right"}
func (h *handlers) radioButton(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "yes_xpath", "no_xpath")
	if stop != nil {
		return *stop
	}

	log := logger.FromContext(ctx)
	name := cmd.GetString("check_for")
	value, ok := h.config.Options[name]
	if !ok {
		log.Error("Unsupported check_for value: %q", name)
		return core.Fail(MsgUnsupportedCheck)
	}
	xpath := cmd.GetString("no_xpath")
	if isYes(value) {
		xpath = cmd.GetString("yes_xpath")
	}
	log.Debug("check_for %s = %v, using %s", name, value, xpath)

	id, stop := h.findElement(ctx, dev, xpath, waitFor(cmd, 4))
	if stop != nil {
		return *stop
	}
	selected, err := dev.GetElementAttribute(ctx, id, "value")
	if err != nil {
		log.Warn("Reading value of %s: %v", xpath, err)
	}
	if selected == "1" {
		log.Info("Radio button %s already selected", xpath)
		return core.Pass(MsgRadioSelected)
	}
	if err := dev.ClickElement(ctx, id); err != nil {
		return core.Fail("RADIO_BUTTON_CLICK_FAILED: " + err.Error())
	}

	log.Info("Selected radio button %s", xpath)
	return core.Pass(MsgRadioSelected)
}

// isYes reports whether an option value means enabled. Lists use their
// first element.
func isYes(v interface{}) bool {
	if list, ok := v.([]interface{}); ok {
		if len(list) == 0 {
			return false
		}
		v = list[0]
	}
	if v == nil {
		return false
	}
	switch strings.ToUpper(fmt.Sprint(v)) {
	case "YES", "TRUE", "ON", "ENABLED", "1", "Y":
		return true
	}
	return false
}

// text types into the field at xpath, clearing it first unless clear_first
// is false.
func (h *handlers) text(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 4, FieldXPath)
	if stop != nil {
		return *stop
	}

	xpath := cmd.GetString(FieldXPath)
	id, stop := h.findElement(ctx, dev, xpath, waitFor(cmd, 4))
	if stop != nil {
		return *stop
	}

	log := logger.FromContext(ctx)
	if boolOr(cmd, "clear_first", true) {
		if err := dev.ClearElement(ctx, id); err != nil {
			log.Warn("Clear failed for %s: %v", xpath, err)
			return core.Fail(MsgTextNotEditable)
		}
	}
	if err := dev.SendValue(ctx, id, cmd.GetString("text")); err != nil {
		log.Warn("Typing failed for %s: %v", xpath, err)
		return core.Fail(MsgTextNotEditable)
	}

	log.Info("Entered text into %s", xpath)
	return core.Pass(MsgTextEntered)
}

// scroll drags from the centre of the element at xpath by distance pixels.
func (h *handlers) scroll(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 2, FieldXPath)
	if stop != nil {
		return *stop
	}

	direction := strings.ToLower(cmd.GetString("direction"))
	if direction == "" {
		direction = "down"
	}
	distance, ok := cmd.GetInt("distance")
	if !ok {
		distance = 100
	}

	var dx, dy int
	switch direction {
	case "down":
		dy = distance
	case "up":
		dy = -distance
	case "right":
		dx = distance
	case "left":
		dx = -distance
	default:
		return core.Fail(fmt.Sprintf("%s: direction must be up, down, left or right, got %q", MsgInvalidParameter, direction))
	}

	xpath := cmd.GetString(FieldXPath)
	id, stop := h.findElement(ctx, dev, xpath, waitFor(cmd, 10))
	if stop != nil {
		return *stop
	}
	rect, err := dev.GetElementRect(ctx, id)
	if err != nil {
		return core.Fail("SCROLL_FAILED: " + err.Error())
	}

	x, y := rect.Center()
	if err := dev.Swipe(ctx, x, y, x+dx, y+dy, defaultSwipeDuration); err != nil {
		return core.Fail("SCROLL_FAILED: " + err.Error())
	}

	logger.FromContext(ctx).Info("Scrolled %s by %d pixels using xpath: %s", direction, distance, xpath)
	return core.Pass(MsgScrolled)
}

// iosScroll drags vertically through the middle of the screen, from 30% to
// 70% of its height for down and the reverse for up, then lets the content
// settle.
func (h *handlers) iosScroll(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 1)
	if stop != nil {
		return *stop
	}

	direction := strings.ToLower(cmd.GetString("direction"))
	if direction == "" {
		direction = "down"
	}
	if direction != "down" && direction != "up" {
		return core.Fail(fmt.Sprintf("%s: direction must be up or down, got %q", MsgInvalidParameter, direction))
	}
	duration, ok := cmd.GetFloat("duration")
	if !ok {
		duration = 0.5
	}

	width, height := dev.ScreenSize()
	if width <= 0 || height <= 0 {
		return core.Fail("SCROLL_FAILED: screen size unknown")
	}
	x := width / 2
	fromY, toY := height*3/10, height*7/10
	if direction == "up" {
		fromY, toY = toY, fromY
	}

	log := logger.FromContext(ctx)
	log.Info("Swiping %s from (%d, %d) to (%d, %d)", direction, x, fromY, x, toY)
	_, err := dev.ExecuteMobile(ctx, "dragFromToForDuration", map[string]interface{}{
		"duration": duration,
		"fromX":    x,
		"fromY":    fromY,
		"toX":      x,
		"toY":      toY,
	})
	if err != nil {
		return core.Fail("SCROLL_FAILED: " + err.Error())
	}
	if err := h.config.Sleep(ctx, iosScrollSettle); err != nil {
		return action.Fail(err)
	}
	return core.Pass(MsgIOSScrolled)
}

// textSearch looks for visible text in the page source and optionally taps it.
//
//	{"widget_type": "text_search", "base_path": "phone", "search_text": "OK",
//	 "partial_match": false, "click_element": true, "wait": 4}
func (h *handlers) textSearch(ctx context.Context, cmd command.Command) core.Outcome {
	method := strings.ToLower(cmd.GetString("search_method"))
	if method != "" && method != "native" {
		return core.Fail(fmt.Sprintf("%s: search_method must be 'native', got '%s'", MsgInvalidParameter, method))
	}

	dev, stop := h.prepare(ctx, cmd, 0, "search_text")
	if stop != nil {
		return *stop
	}

	log := logger.FromContext(ctx)
	text := cmd.GetString("search_text")
	partial := cmd.GetBool("partial_match")
	deadline := time.Now().Add(waitFor(cmd, 4))

	for {
		elem, err := h.locateText(ctx, dev, text, partial)
		if err != nil {
			return action.Fail(err)
		}
		if elem != nil {
			if !boolOr(cmd, "click_element", true) {
				log.Info("Text '%s' found", text)
				return core.Pass(MsgTextFound)
			}
			x, y := GetTapPoint(elem)
			if err := dev.Tap(ctx, x, y); err != nil {
				return action.Fail(err)
			}
			log.Info("Text '%s' found and clicked at (%d, %d)", text, x, y)
			return core.Pass(MsgTextFoundClicked)
		}
		if !time.Now().Before(deadline) {
			break
		}
		if err := h.config.Sleep(ctx, h.config.PollInterval); err != nil {
			return action.Fail(err)
		}
	}

	log.Warn("Text '%s' not found", text)
	return core.Fail(MsgTextNotFound)
}

func (h *handlers) locateText(ctx context.Context, dev Device, text string, partial bool) (*appium.ParsedElement, error) {
	source, err := dev.Source(ctx)
	if err != nil {
		return nil, err
	}
	elements, platform, err := appium.ParsePageSource(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", action.ErrInvalidValue, err)
	}
	return appium.DeepestMatchingElement(appium.FindByText(elements, platform, text, partial)), nil
}

// GetTapPoint returns the centre of the element's clickable container.
func GetTapPoint(elem *appium.ParsedElement) (int, int) {
	return appium.GetClickableElement(elem).Bounds.Center()
}
