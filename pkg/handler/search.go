package handler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/driver/appium"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

const iosStaticText = "XCUIElementTypeStaticText"

var stepLabel = regexp.MustCompile(`(?i)Step\s+(\d+)`)

// facetSearch saves the page source and looks for text_to_find in the iOS
// static texts of one "Step N" section, from that label up to "Step N+1".
// When parent_string names no step, or the step is not on screen, the whole
// page is searched.
//
//	{"widget_type": "facet_page_source_search", "base_path": "car",
//	 "parent_string": "Step 2", "text_to_find": "Failed"}
func (h *handlers) facetSearch(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 0, "parent_string", "text_to_find")
	if stop != nil {
		return *stop
	}

	log := logger.FromContext(ctx)
	parent := cmd.GetString("parent_string")
	text := cmd.GetString("text_to_find")

	source, err := dev.Source(ctx)
	if err != nil {
		return core.Fail("PAGE_SOURCE_SEARCH_FAILED: " + err.Error())
	}
	if path, err := h.writeCapture(ctx, fileName(cmd, "page_source.xml"), []byte(source)); err != nil {
		log.Warn("Page source not saved: %v", err)
	} else {
		log.Debug("Page source saved to %s", path)
	}

	elements, _, err := appium.ParsePageSource(source)
	if err != nil {
		return core.Fail("PAGE_SOURCE_SEARCH_FAILED: " + err.Error())
	}
	if sectionContains(elements, parent, text) {
		log.Info("Found '%s' under '%s'", text, parent)
		return core.Pass(fmt.Sprintf("TEXT_FOUND: '%s' under '%s'", text, parent))
	}
	log.Info("'%s' not found under '%s'", text, parent)
	return core.Fail(fmt.Sprintf("%s: '%s' under '%s'", MsgTextNotFound, text, parent))
}

// sectionContains reports whether a static text between the parent step
// label and the following one contains text. elements are in document order.
func sectionContains(elements []*appium.ParsedElement, parent, text string) bool {
	var texts []*appium.ParsedElement
	for _, e := range elements {
		if e.Type == iosStaticText {
			texts = append(texts, e)
		}
	}

	if m := stepLabel.FindStringSubmatch(parent); m != nil {
		n, _ := strconv.Atoi(m[1])
		texts = stepSection(texts, fmt.Sprintf("Step %d", n), fmt.Sprintf("Step %d", n+1))
	}
	for _, e := range texts {
		if strings.Contains(e.Value, text) {
			return true
		}
	}
	return false
}

// stepSection returns texts from the first label up to, not including, the
// next one. Without the first label every text is returned.
func stepSection(texts []*appium.ParsedElement, label, next string) []*appium.ParsedElement {
	start := -1
	for i, e := range texts {
		v := strings.TrimSpace(e.Value)
		switch {
		case start < 0 && v == label:
			start = i
		case start >= 0 && v == next:
			return texts[start:i]
		}
	}
	if start < 0 {
		return texts
	}
	return texts[start:]
}
