package slotmon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/slotmon/slotmon/hcaptcha"
	"github.com/slotmon/slotmon/inject"
)

// Page whose response gets the interceptor script injected
const INJECT_PATH_SUFFIX = "AppWelcome.aspx"

// Monitor runs appointment checks and notifies about changes.
type Monitor struct {
	Model       *Model
	CheckConfig CheckConfig

	Solver      CaptchaSolver
	ProxyGetter ProxyGetter
	Notifier    *Notifier
	State       StateProvider
	Artifacts   *Artifacts

	// Cookie jar file shared between sessions
	CookiesPath string

	Period time.Duration
}

// CheckOnce runs a full check in a fresh browser session: restore cookies,
// scrape the calendar, diff against the stored state, notify, persist.
func (m *Monitor) CheckOnce() error {
	runLog := log.With().Str("run_id", uuid.NewString()).Logger()
	runLog.Debug().Msg("starting")

	navigator := m.createNavigator()
	defer func() {
		runLog.Debug().Msg("closing browser...")
		navigator.Close()
	}()

	if m.CookiesPath != "" {
		if err := navigator.LoadCookies(m.CookiesPath); err != nil {
			runLog.Warn().Err(err).Msg("Cannot load cookies")
		}
	}

	checker := NewChecker(navigator, m.Artifacts, m.CheckConfig)

	state, err := m.State.Get()
	if err != nil {
		return errors.Wrap(err, "read state")
	}

	result, err := checker.Check()
	if err != nil {
		m.Artifacts.PageTrace(navigator, "error")

		// keep the session unless we are stuck on the captcha screen
		if !checker.isCaptchaScreenPresent() {
			runLog.Info().Msg("saving cookies even with error occurred, because " +
				"captcha screen seems to be not present")
			m.saveCookies(navigator)
		}
		return err
	}

	if err := m.notify(state, result); err != nil {
		return err
	}

	if err := m.State.Save(&State{
		AvailableSlots: result.Slots,
		Timestamp:      time.Now().Unix(),
	}); err != nil {
		return errors.Wrap(err, "save state")
	}

	runLog.Info().Msg("check completed")

	m.saveCookies(navigator)

	return nil
}

func (m *Monitor) createNavigator() *ChromeNavigator {
	navigator := new(ChromeNavigator)
	navigator.SetModel(m.Model)

	if m.Solver != nil {
		navigator.SetCaptchaSolver(m.Solver)
	}
	if m.ProxyGetter != nil {
		navigator.SetProxyGetter(m.ProxyGetter)
	}

	injector := inject.New(hcaptcha.InjectionScript, INJECT_PATH_SUFFIX)

	// injected documents are re-fetched outside the browser, keep them on
	// the same proxy
	if client, err := ProxyHTTPClient(m.ProxyGetter); err != nil {
		log.Warn().Err(err).Msg("Cannot build proxy client for injection")
	} else {
		injector.Client = client
	}

	navigator.SetInjector(injector)

	return navigator
}

func (m *Monitor) notify(state *State, result *CheckResult) error {
	if m.Notifier == nil {
		return nil
	}

	currentDates := AvailableDates(result.Slots)
	baselineDates := AvailableDates(state.AvailableSlots)

	if DatesEqual(baselineDates, currentDates) {
		log.Debug().Msg("State did not change, do not notify")
	} else {
		log.Info().Msg("notifying about state change")

		if len(currentDates) > 0 {
			text, added := BuildNotificationText(
				baselineDates, currentDates, result.Slots, m.CheckConfig.SchedulingURL)

			if err := m.Notifier.NotifySlotsFound(text, result.Screenshots, added); err != nil {
				return err
			}
		} else {
			if err := m.Notifier.NotifyNoSlots(); err != nil {
				return err
			}
		}
	}

	if err := m.Notifier.UpdateStatus(time.Now()); err != nil {
		log.Warn().Err(err).Msg("Cannot update status message")
	}
	return nil
}

func (m *Monitor) saveCookies(navigator *ChromeNavigator) {
	if m.CookiesPath == "" {
		return
	}

	log.Info().Msg("saving cookies")
	if err := navigator.SaveCookies(m.CookiesPath); err != nil {
		log.Warn().Err(err).Msg("Cannot save cookies")
		return
	}
	log.Info().Msg("cookies saved")
}

// Run checks in a loop until the context is cancelled. Errors and panics of
// a single check are logged and the loop keeps going.
func (m *Monitor) Run(ctx context.Context) error {
	for {
		if err := m.checkProtected(); err != nil {
			log.Error().Err(err).Msg("An error occurred")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.Period):
		}
	}
}

func (m *Monitor) checkProtected() error {
	errChan := make(chan error, 1)

	go func() {
		defer handleErrorWithErrorChan(errChan)
		errChan <- m.CheckOnce()
	}()

	return <-errChan
}
