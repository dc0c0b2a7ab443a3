package slotmon

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/slotmon/slotmon/inject"
)

const (
	DEFAULT_BROWSER_NAVIGATION_TIMEOUT = 60
	CHALLENGE_TRIES_MAX_DURATION       = 180 // Challenge beat max duration, seconds
	CAPTCHA_SOLVE_MAX_ROUNDS           = 3
)

type ChromeNavigator struct {
	CommonNavigator

	Browser *rod.Browser
	Page    *rod.Page

	// Script injector attached to every created page
	Injector *inject.Injector
}

// Interface implementation
func (navigator *ChromeNavigator) Close() error {
	if navigator.Injector != nil {
		navigator.Injector.Stop()
	}

	var errPage, errBrowser error = navigator.closePage(), navigator.closeBrowser()
	if errPage != nil {
		return errPage
	}
	return errBrowser
}

func (navigator *ChromeNavigator) closePage() error {
	var err error
	if navigator.Page != nil {
		err = navigator.Page.Close()
		navigator.Page = nil
	}
	return err
}

func (navigator *ChromeNavigator) closeBrowser() error {
	var err error
	if navigator.Browser != nil {
		err = navigator.Browser.Close()
		navigator.Browser = nil
	}
	return err
}

// Interface implementation
func (navigator *ChromeNavigator) Navigate(url string) error {
	if err := navigator.writeAndFormatURL(url); err != nil {
		return err
	}

	navigator.initEmptyCrawler()

	return navigator.navigateUrl()
}

func (navigator *ChromeNavigator) SetInjector(injector *inject.Injector) {
	navigator.Injector = injector
}

// Evaluate script
func (navigator *ChromeNavigator) Evaluate(script string, args ...any) (string, error) {
	if err := navigator.createClientIfNeed(); err != nil {
		return "", err
	}

	result, err := navigator.Page.Eval(script, args...)
	if err != nil {
		return "", err
	}
	return result.Value.Str(), nil
}

func (navigator *ChromeNavigator) GetPage() *rod.Page {
	return navigator.Page
}

func (navigator *ChromeNavigator) GetActualUrl() string {
	if navigator.Page == nil {
		return navigator.Url
	}
	info, err := navigator.Page.Info()
	if err != nil {
		return navigator.Url
	}
	return info.URL
}

// Rebuild the crawler from the live page after clicks changed the DOM
func (navigator *ChromeNavigator) RefreshCrawler() error {
	if navigator.Page == nil {
		return nil
	}
	html, err := navigator.Page.HTML()
	if err != nil {
		return err
	}
	return navigator.createCrawlerFromHTML(html)
}

func (navigator *ChromeNavigator) navigateUrl() error {
	if navigator.Model.ClosePageEverytime && navigator.Page != nil {
		navigator.Page.Close()
		navigator.Page = nil
	}

	for i := 0; i < NAVIGATION_TRIES_COUNT; i++ {
		if i > 0 {
			navigator.Close()
		} else if !navigator.JustCreated && navigator.Model.DelayBeforeNavigate > 0 {
			time.Sleep(time.Second * time.Duration(navigator.Model.DelayBeforeNavigate))
		}

		if err := navigator.createClientIfNeed(); err != nil {
			navigator.LastError = err
			break
		}

		if err := navigator.WaitTotalLoad(navigator.Url); err != nil {
			navigator.LastError = err
			continue
		}

		if navigator.Model.DelayBeforeRead > 0 {
			time.Sleep(time.Second * time.Duration(navigator.Model.DelayBeforeRead))
		}

		if err := navigator.beatChallenge(); err != nil {
			navigator.LastError = err
			continue
		}

		if err := navigator.solveCaptcha(); err != nil {
			navigator.LastError = err
			continue
		}

		html, err := navigator.Page.HTML()
		if err != nil {
			navigator.LastError = errors.Wrap(err, "read HTML from page")
			continue
		}

		if err := navigator.createCrawlerFromHTML(html); err != nil {
			navigator.LastError = errors.Wrap(err, "create crawler from HTML")
			continue
		}

		if navigator.isValidResponse(navigator.NavigateStatus) {
			navigator.LastError = nil
			break
		}
	}

	return navigator.LastError
}

// Wait navigation response and sign page loaded
func (navigator *ChromeNavigator) WaitTotalLoad(url ...string) error {
	var action func() error
	if len(url) > 0 {
		action = func() error {
			return navigator.Page.Navigate(url[0])
		}
	}
	return navigator.waitTotalLoad(action)
}

// DoAndWaitLoad arms the navigation waiters first and only then runs the
// action that triggers the navigation, e.g. a form submit click. Otherwise a
// fast server can respond before the subscription exists
func (navigator *ChromeNavigator) DoAndWaitLoad(action func() error) error {
	if err := navigator.createClientIfNeed(); err != nil {
		return err
	}
	return navigator.waitTotalLoad(action)
}

func (navigator *ChromeNavigator) waitTotalLoad(action func() error) error {
	response, err := navigator.waitResponseAndLoad(action)
	if err != nil {
		return err
	}

	navigator.LastError = nil
	navigator.NavigateStatus = response.Response.Status
	return nil
}

func (navigator *ChromeNavigator) waitResponseAndLoad(action func() error) (*proto.NetworkResponseReceived, error) {
	response := proto.NetworkResponseReceived{}

	// Only the main frame document carries the navigation status, responses
	// of images, scripts and frames must not shadow it
	mainFrame := navigator.Page.FrameID
	waitResponse := navigator.Page.EachEvent(func(e *proto.NetworkResponseReceived) (stop bool) {
		if e.Type != proto.NetworkResourceTypeDocument || e.FrameID != mainFrame {
			return false
		}
		response = *e
		return true
	})

	timeoutResponse := time.NewTimer(navigator.calculateNavigationTimeout())

	responseReceived := make(chan any, 1)

	// Page load timeout. Armed only after the server response arrived
	timeoutLoad := time.NewTimer(navigator.calculateNavigationTimeout())
	timeoutLoad.Stop()

	waitLoad := make(chan error)

	go func() {
		waitResponse()
		responseReceived <- nil
		timeoutLoad.Reset(navigator.calculateNavigationTimeout())
	}()

	if navigator.Model.NavigationSelector == "" {
		waitEventLoad := navigator.Page.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)

		go func() {
			waitEventLoad()

			// The load event can fire before the navigation status is
			// processed, wait for the status too
			<-responseReceived

			waitLoad <- nil
		}()
	} else {
		go func() {
			waitLoad <- navigator.Page.WaitElementsMoreThan(navigator.Model.NavigationSelector, 0)
		}()
	}

	if action != nil {
		time.Sleep(time.Millisecond * 10)
		if err := action(); err != nil {
			return nil, err
		}
	}

	select {
	case err := <-waitLoad:
		return &response, err
	case <-timeoutResponse.C:
		return nil, errors.New("timeout response")
	case <-timeoutLoad.C:
		return nil, errors.New("timeout navigation")
	}
}

// If page is nil - create new page
func (navigator *ChromeNavigator) createClientIfNeed() error {
	if navigator.Page != nil {
		navigator.JustCreated = false
		return nil
	}

	if navigator.Browser == nil {
		var err error
		navigator.Browser, err = navigator.createBrowser()
		if err != nil {
			return err
		}
	}

	page, err := stealth.Page(navigator.Browser)
	if err != nil {
		return errors.Wrap(err, "create stealth page")
	}
	navigator.Page = page
	navigator.JustCreated = true

	if navigator.Model.UserAgent != "" {
		if err := navigator.Page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent: navigator.Model.UserAgent,
		}); err != nil {
			return err
		}
	}

	if navigator.Model.ScaleFactor > 0 {
		if err := navigator.Page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             1280,
			Height:            1080,
			DeviceScaleFactor: navigator.Model.ScaleFactor,
		}); err != nil {
			return err
		}
	}

	if navigator.Injector != nil {
		if err := navigator.Injector.Attach(navigator.Page); err != nil {
			return errors.Wrap(err, "attach script injector")
		}
	}

	return nil
}

func (navigator *ChromeNavigator) createBrowser() (*rod.Browser, error) {
	l := launcher.New().
		Headless(!navigator.Model.Visible).
		Set("blink-settings", fmt.Sprintf("imagesEnabled=%t", navigator.Model.ShowImages))

	if navigator.PrxGetter != nil {
		proxyvalue, err := navigator.PrxGetter.GetProxy()
		if err == nil && proxyvalue != "" {
			l.Proxy(proxyvalue)
		}
	}

	u, err := l.Launch()
	if err != nil {
		return nil, err
	}

	return rod.New().ControlURL(u).MustConnect().NoDefaultDevice(), nil
}

// Beat the challenge. Its something like Cloudflare protection.
func (navigator *ChromeNavigator) beatChallenge() error {
	if navigator.Model.ChallengeSelector == "" {
		return nil
	}

	var stopReloading atomic.Bool

	successChannel := make(chan error)

	go func() {
		for {
			if stopReloading.Load() {
				return
			}

			elements, err := navigator.Page.Elements(navigator.Model.ChallengeSelector)
			if err != nil {
				successChannel <- err
				return
			}

			if elements.Empty() {
				successChannel <- nil
				return
			}

			log.Debug().Msg("Challenge still present, waiting for reload")

			if err := navigator.WaitTotalLoad(); err != nil {
				successChannel <- err
				return
			}
		}
	}()

	timer := time.NewTimer(time.Second * CHALLENGE_TRIES_MAX_DURATION)

	select {
	case err := <-successChannel:
		stopReloading.Store(true)
		return err
	case <-timer.C:
		stopReloading.Store(true)
		return errors.New("unable to pass challenge form")
	}
}

// Solve captcha if presented
func (navigator *ChromeNavigator) solveCaptcha() error {
	if navigator.CptchSolver == nil {
		return nil
	}

	if navigator.Model.CaptchaSelector != "" {
		has, _, err := navigator.Page.Has(navigator.Model.CaptchaSelector)
		if err != nil {
			return err
		}
		if !has {
			return nil
		}
	}

	for round := 0; navigator.CptchSolver.Is(navigator.Page); round++ {
		if round >= CAPTCHA_SOLVE_MAX_ROUNDS {
			return errors.New("cannot solve captcha")
		}

		log.Info().Msg("Captcha detected, solving")

		if err := navigator.CptchSolver.Solve(navigator.Page); err != nil {
			return err
		}

		if err := navigator.waitAfterCaptcha(); err != nil {
			return err
		}
	}

	return nil
}

// The page reloads itself after the token is accepted
func (navigator *ChromeNavigator) waitAfterCaptcha() error {
	loaded := make(chan any, 1)

	go navigator.Page.EachEvent(func(e *proto.PageLoadEventFired) (stop bool) {
		loaded <- nil
		return true
	})()

	select {
	case <-loaded:
		return nil
	case <-time.After(time.Second * 30):
		return errors.New("timeout waiting for page to load")
	}
}
