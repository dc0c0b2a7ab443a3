package hcaptcha

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/h2non/gentleman.v2"
)

const (
	DEFAULT_CAPTCHA_MARKER = `//h2[contains(text(), "Checking if the site connection is secure")]`

	CAPTCHA_IFRAME_SELECTOR = `iframe[src*="hcaptcha"]`

	HANDLE_WAIT_ROUNDS   = 10
	HANDLE_WAIT_INTERVAL = time.Millisecond * 500
)

var ErrUnknownCallback = errors.New("unknown callback name")

// Solver resolves the hcaptcha interstitial through the AntiCaptcha service.
// It expects InjectionScript to have run in the page, so the widget handle is
// readable from the published global; when it is not, the sitekey is read
// from the widget iframe src as a fallback.
type Solver struct {
	// AntiCaptcha API key
	apiKey string

	// Lazily created API client
	api *gentleman.Client
}

func New(apiKey string) *Solver {
	return &Solver{apiKey: apiKey}
}

// Is reports whether the captcha interstitial is shown on the page.
func (s *Solver) Is(page *rod.Page) bool {
	time.Sleep(time.Millisecond * 400)

	if has, _, err := page.HasX(DEFAULT_CAPTCHA_MARKER); err == nil && has {
		return true
	}

	elements, err := page.Elements(CAPTCHA_IFRAME_SELECTOR)
	return err == nil && len(elements) > 0
}

// Solve reads the widget parameters, obtains a token from AntiCaptcha and
// delivers it back into the page.
func (s *Solver) Solve(page *rod.Page) error {
	page.Activate()

	handle, err := s.readHandle(page)
	if err != nil {
		return err
	}

	siteKey := handle.SiteKey
	if siteKey == "" {
		if siteKey, err = s.siteKeyFromIframe(page); err != nil {
			return err
		}
	}

	info, err := page.Info()
	if err != nil {
		return errors.Wrap(err, "read page info")
	}

	log.Info().Str("sitekey", siteKey).Msg("Submitting captcha task to AntiCaptcha")

	task, err := s.createTask(info.URL, siteKey)
	if err != nil {
		return err
	}

	token, err := s.getTaskResult(task)
	if err != nil {
		return err
	}

	log.Info().Msg("Retrieved captcha solution")

	return s.resolveToken(page, handle, token)
}

// readHandle polls the global published by the injection script. The site
// renders the widget shortly after load, so a few rounds of waiting are
// normal. An absent handle is not fatal because of the iframe fallback.
func (s *Solver) readHandle(page *rod.Page) (*Handle, error) {
	for i := 0; i < HANDLE_WAIT_ROUNDS; i++ {
		data, err := page.Eval(`() => JSON.stringify(window.` + HandleGlobal + ` || null)`)
		if err != nil {
			return nil, errors.Wrap(err, "read widget handle")
		}

		raw := data.Value.Str()
		if raw != "" && raw != "null" {
			handle := new(Handle)
			if err := json.Unmarshal([]byte(raw), handle); err != nil {
				return nil, errors.Wrap(err, "decode widget handle")
			}
			return handle, nil
		}

		time.Sleep(HANDLE_WAIT_INTERVAL)
	}

	log.Warn().Msg("Widget handle not published, falling back to iframe sitekey")
	return new(Handle), nil
}

// The widget iframe embeds its configuration in the src fragment:
// https://newassets.hcaptcha.com/captcha/v1/.../static/hcaptcha.html#frame=checkbox&sitekey=...
func (s *Solver) siteKeyFromIframe(page *rod.Page) (string, error) {
	element, err := page.Element(CAPTCHA_IFRAME_SELECTOR)
	if err != nil {
		return "", errors.Wrap(err, "captcha iframe not found")
	}

	src, err := element.Attribute("src")
	if err != nil || src == nil {
		return "", errors.New("captcha iframe has no src")
	}

	return siteKeyFromSrc(*src)
}

func siteKeyFromSrc(src string) (string, error) {
	parsed, err := url.Parse(src)
	if err != nil {
		return "", errors.Wrap(err, "parse captcha iframe src")
	}

	values, err := url.ParseQuery(parsed.Fragment)
	if err != nil {
		return "", errors.Wrap(err, "parse captcha iframe fragment")
	}

	key := values.Get("sitekey")
	if key == "" {
		return "", errors.New("no sitekey in captcha iframe src")
	}
	return key, nil
}

// resolveToken writes the solution everywhere the page expects it and fires
// the widget callback by its published name.
func (s *Solver) resolveToken(page *rod.Page, handle *Handle, token string) error {
	_, err := page.Eval(`token => {
		for (const iframe of document.querySelectorAll('iframe')) {
			iframe.setAttribute('data-hcaptcha-response', token);
		}
		for (const area of document.querySelectorAll('textarea[name="h-captcha-response"]')) {
			area.textContent = token;
		}
	}`, token)
	if err != nil {
		return errors.Wrap(err, "insert captcha token")
	}

	name, ok := handle.CallbackName()
	if !ok {
		log.Warn().Msg("No callback name in widget handle, token inserted without callback")
		return nil
	}

	if !strings.HasPrefix(name, CallbackPrefix) {
		log.Debug().Str("callback", name).Msg("Executing page-level captcha callback")
	}

	_, err = page.Eval(`(name, token) => window[name](token)`, name, token)
	return errors.Wrap(err, "execute captcha callback")
}
