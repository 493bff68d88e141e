package handler

import (
	"context"

	"github.com/mohanavadivelu2/automation-framework/pkg/command"
	"github.com/mohanavadivelu2/automation-framework/pkg/core"
	"github.com/mohanavadivelu2/automation-framework/pkg/logger"
)

// screenshot saves a PNG into the test case output directory. The outcome
// message is the written path.
func (h *handlers) screenshot(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 4)
	if stop != nil {
		return *stop
	}

	png, err := dev.Screenshot(ctx)
	if err != nil {
		return core.Fail("SCREENSHOT_FAILED: " + err.Error())
	}
	path, err := h.writeCapture(ctx, fileName(cmd, "screenshot.png"), png)
	if err != nil {
		return core.Fail("SCREENSHOT_FAILED: " + err.Error())
	}

	logger.FromContext(ctx).Debug("Screenshot saved to %s", path)
	return core.Pass(path)
}

// pageSource saves the current UI hierarchy XML. The outcome message is the
// written path.
func (h *handlers) pageSource(ctx context.Context, cmd command.Command) core.Outcome {
	dev, stop := h.prepare(ctx, cmd, 2)
	if stop != nil {
		return *stop
	}

	source, err := dev.Source(ctx)
	if err != nil {
		return core.Fail("PAGE_SOURCE_FAILED: " + err.Error())
	}
	path, err := h.writeCapture(ctx, fileName(cmd, "page_source.xml"), []byte(source))
	if err != nil {
		return core.Fail("PAGE_SOURCE_FAILED: " + err.Error())
	}

	logger.FromContext(ctx).Debug("Page source saved to %s", path)
	return core.Pass(path)
}

func fileName(cmd command.Command, def string) string {
	if name := cmd.GetString(FieldFileName); name != "" {
		return name
	}
	return def
}
