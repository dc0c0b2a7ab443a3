package slotmon

import (
	"encoding/json"
	"os"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

// SaveCookies writes the browser cookies to a JSON file, so the next session
// can skip the anti-bot interstitial.
func (navigator *ChromeNavigator) SaveCookies(path string) error {
	if navigator.Browser == nil {
		return nil
	}

	cookies, err := navigator.Browser.GetCookies()
	if err != nil {
		return err
	}

	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// LoadCookies restores previously saved cookies. A missing file is not an
// error, it just means a fresh session.
func (navigator *ChromeNavigator) LoadCookies(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info().Str("path", path).Msg("Cookies file not found")
			return nil
		}
		return err
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return err
	}

	if navigator.Browser == nil {
		if err := navigator.createClientIfNeed(); err != nil {
			return err
		}
	}

	return navigator.Browser.SetCookies(proto.CookiesToParams(cookies))
}
