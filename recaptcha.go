package slotmon

import (
	"time"

	"github.com/nuveo/anticaptcha"
	"github.com/pkg/errors"
)

const (
	RECAPTCHA_SELECTOR      = "#g-recaptcha-response"
	RECAPTCHA_KEY_SELECTOR  = ".g-recaptcha"
	RECAPTCHA_KEY_ATTRIBUTE = "data-sitekey"

	RECAPTCHA_SOLVE_TIMEOUT = time.Second * 300
)

// HandleRecaptcha solves a classic recaptcha form if the page shows one.
// The scheduling site normally serves hcaptcha, but some deployments still
// fall back to recaptcha.
func (navigator *ChromeNavigator) HandleRecaptcha(apiKey string) error {
	if !navigator.hasRecaptcha() {
		return nil
	}
	return navigator.resolveRecaptcha(apiKey)
}

func (navigator *ChromeNavigator) hasRecaptcha() bool {
	res, err := navigator.Page.Eval(
		`selector => document.querySelectorAll(selector).length > 0 ? '1' : '0'`,
		RECAPTCHA_SELECTOR,
	)
	return err == nil && res.Value.Str() == "1"
}

func (navigator *ChromeNavigator) resolveRecaptcha(apiKey string) error {
	if apiKey == "" {
		return errors.New("no anticaptcha key")
	}

	recaptchaKey := navigator.getRecaptchaKey()
	if recaptchaKey == "" {
		return errors.New("recaptcha exists, but cannot find its key")
	}

	ac := &anticaptcha.Client{APIKey: apiKey}

	answer, err := ac.SendRecaptcha(navigator.Url, recaptchaKey, RECAPTCHA_SOLVE_TIMEOUT)
	if err != nil {
		return err
	}

	return navigator.enterRecaptchaAnswer(answer)
}

func (navigator *ChromeNavigator) getRecaptchaKey() string {
	element, err := navigator.Page.Element(RECAPTCHA_KEY_SELECTOR)
	if err != nil || element == nil {
		return ""
	}

	key, err := element.Attribute(RECAPTCHA_KEY_ATTRIBUTE)
	if err != nil || key == nil {
		return ""
	}
	return *key
}

func (navigator *ChromeNavigator) enterRecaptchaAnswer(answer string) error {
	_, err := navigator.Page.Eval(`(answer, selector) => {
		document.querySelector(selector).value = answer
		document.querySelector('form').submit()
	}`, answer, RECAPTCHA_SELECTOR)
	if err != nil {
		return err
	}

	return navigator.WaitTotalLoad()
}
