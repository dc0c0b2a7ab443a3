package slotmon

import (
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
)

// Screenshot captures the visible viewport as PNG.
func (navigator *ChromeNavigator) Screenshot() ([]byte, error) {
	if navigator.Page == nil {
		return nil, errors.New("no page to capture")
	}
	return navigator.Page.Screenshot(false, nil)
}

// ElementScreenshot scrolls the element into view and captures it as PNG.
func (navigator *ChromeNavigator) ElementScreenshot(selector string) ([]byte, error) {
	if navigator.Page == nil {
		return nil, errors.New("no page to capture")
	}

	element, err := navigator.Page.Element(selector)
	if err != nil {
		return nil, errors.Wrapf(err, "element %s not found", selector)
	}

	if err := element.ScrollIntoView(); err != nil {
		return nil, err
	}

	return element.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
