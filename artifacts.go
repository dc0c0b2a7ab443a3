package slotmon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Artifacts writes per-checkpoint page sources and screenshots, so a failed
// run can be replayed from disk.
type Artifacts struct {
	// Root directory, "./artifacts" by default
	Dir string
}

func (a *Artifacts) root() string {
	if a.Dir == "" {
		return "artifacts"
	}
	return a.Dir
}

func (a *Artifacts) timePrefix() string {
	return time.Now().Format("2006-01-02 15-04-05.000000")
}

func (a *Artifacts) ScreenshotPath(name string) string {
	return filepath.Join(a.root(), "screenshots", fmt.Sprintf("%s-%s.png", a.timePrefix(), name))
}

func (a *Artifacts) pagePath(stage string) string {
	return filepath.Join(a.root(), "pages", fmt.Sprintf("%s-%s.html", a.timePrefix(), stage))
}

func (a *Artifacts) SaveImage(data []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (a *Artifacts) savePageSource(html, stage string) error {
	path := a.pagePath(stage)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(html), 0644)
}

// PageTrace saves the current page source and a screenshot under the
// checkpoint name. Failures are logged, tracing never breaks the flow.
func (a *Artifacts) PageTrace(navigator *ChromeNavigator, checkpoint string) {
	if navigator.Page == nil {
		return
	}

	if html, err := navigator.Page.HTML(); err == nil {
		if err := a.savePageSource(html, checkpoint); err != nil {
			log.Warn().Err(err).Str("checkpoint", checkpoint).Msg("Cannot save page source")
		}
	}

	screenshot, err := navigator.Screenshot()
	if err != nil {
		log.Warn().Err(err).Str("checkpoint", checkpoint).Msg("Cannot take screenshot")
		return
	}

	if err := a.SaveImage(screenshot, a.ScreenshotPath(checkpoint)); err != nil {
		log.Warn().Err(err).Str("checkpoint", checkpoint).Msg("Cannot save screenshot")
	}
}
