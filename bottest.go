package slotmon

import (
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

const BOT_TEST_URL = "https://bot.sannysoft.com/"

// BotTest opens a fingerprinting page and saves a screenshot of every result
// table, to verify the browser does not self-identify as automated.
func BotTest(navigator *ChromeNavigator, artifacts *Artifacts, holdOpen bool) error {
	if err := navigator.Navigate(BOT_TEST_URL); err != nil {
		return err
	}

	artifacts.PageTrace(navigator, "bot-test")

	tables, err := navigator.Page.Elements("table")
	if err != nil {
		return err
	}

	for i, table := range tables {
		if err := table.ScrollIntoView(); err != nil {
			continue
		}

		screenshot, err := table.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
		if err != nil {
			log.Warn().Err(err).Int("table", i).Msg("Cannot capture results table")
			continue
		}

		path := artifacts.ScreenshotPath(fmt.Sprintf("bot-test-table-%d", i))
		if err := artifacts.SaveImage(screenshot, path); err != nil {
			return err
		}
	}

	if holdOpen {
		log.Info().Msg("waiting 10 seconds before exit...")
		time.Sleep(time.Second * 10)
	}

	return nil
}
