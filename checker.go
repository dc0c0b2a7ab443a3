package slotmon

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	MESSAGE_SELECTOR        = "#plhMain_lblMsg"
	CITY_SELECTOR           = "#plhMain_cboVAC"
	CATEGORY_SELECTOR       = "#plhMain_cboVisaCategory"
	SUBMIT_SELECTOR         = "#plhMain_btnSubmit"
	CALENDAR_SELECTOR       = "#plhMain_cldAppointment"
	OPEN_DAY_SELECTOR       = CALENDAR_SELECTOR + " .OpenDateAllocated"
	SLOT_TABLE_SELECTOR     = "#plhMain_gvSlot"
	BACK_SELECTOR           = "#plhMain_btnBack"
	CONFIRMATION_SELECTOR   = "#plhMain_cboConfirmation"
	GIVEN_NAME_SELECTOR     = "#plhMain_repAppVisaDetails_tbxFName_0"
	SURNAME_SELECTOR        = "#plhMain_repAppVisaDetails_tbxLName_0"
	CONTACT_NUMBER_SELECTOR = "#plhMain_repAppVisaDetails_tbxContactNumber_0"
	EMAIL_SELECTOR          = "#plhMain_repAppVisaDetails_tbxEmailAddress_0"

	CONFIRMATION_TEXT = "I confirm the above statement"

	ELEMENT_WAIT_TIMEOUT = time.Second * 10

	// Manual captcha solving window when no solver is configured
	MANUAL_CAPTCHA_WAIT   = time.Second * 60
	MANUAL_CAPTCHA_REPORT = time.Second * 10
)

var noDatesMarker = regexp.MustCompile(
	`(No date\(s\) available for appointment)|` +
		`(No Appointment slots available)|` +
		`(No date\(s\) available for current month)|` +
		`(Error in the application, please contact admin)`)

// Applicant is the contact data entered into the pre-calendar form. The site
// only uses it to gate the calendar, so generated values are fine.
type Applicant struct {
	GivenName     string `json:"given_name"`
	Surname       string `json:"surname"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

// Fill empty fields with generated data
func (a Applicant) withDefaults() Applicant {
	if a.GivenName == "" {
		a.GivenName = strings.ToUpper(gofakeit.FirstName())
	}
	if a.Surname == "" {
		a.Surname = strings.ToUpper(gofakeit.LastName())
	}
	if a.ContactNumber == "" {
		a.ContactNumber = gofakeit.Numerify("7917#######")
	}
	if a.Email == "" {
		a.Email = gofakeit.Email()
	}
	return a
}

type CheckConfig struct {
	SchedulingURL     string
	City              string
	Category          string
	AnticaptchaAPIKey string
	Applicant         Applicant
}

// Checker walks the scheduling site and collects every open slot with a
// screenshot of each month's calendar.
type Checker struct {
	Navigator *ChromeNavigator
	Artifacts *Artifacts
	Config    CheckConfig
}

func NewChecker(navigator *ChromeNavigator, artifacts *Artifacts, config CheckConfig) *Checker {
	return &Checker{
		Navigator: navigator,
		Artifacts: artifacts,
		Config:    config,
	}
}

func (c *Checker) Check() (*CheckResult, error) {
	if err := c.Navigator.Navigate(c.Config.SchedulingURL); err != nil {
		return nil, errors.Wrap(err, "open scheduling page")
	}

	c.Artifacts.PageTrace(c.Navigator, "loaded")

	if err := c.passCaptchaScreen(); err != nil {
		return nil, err
	}

	if err := c.clickAndWait(c.scheduleLink); err != nil {
		return nil, errors.Wrap(err, "open schedule form")
	}
	c.Artifacts.PageTrace(c.Navigator, "schedule-clicked")

	if c.Config.City != "" {
		if err := c.selectAndSubmit(CITY_SELECTOR, c.Config.City); err != nil {
			return nil, errors.Wrap(err, "select city")
		}
		c.Artifacts.PageTrace(c.Navigator, "city-submitted")
	}

	if err := c.selectAndSubmit(CATEGORY_SELECTOR, c.Config.Category); err != nil {
		return nil, errors.Wrap(err, "select visa category")
	}
	c.Artifacts.PageTrace(c.Navigator, "before-calendar")

	if c.noDatesAvailable() {
		return c.emptyResult()
	}

	log.Debug().Msg("Looks like there are some slots, getting the calendar")

	if err := c.fillApplicantForm(); err != nil {
		return nil, errors.Wrap(err, "fill applicant form")
	}
	c.Artifacts.PageTrace(c.Navigator, "calendar")

	// the no-dates marker can show up on this later stage too
	if c.noDatesAvailable() {
		return c.emptyResult()
	}

	return c.walkCalendar()
}

// The site sometimes serves a captcha interstitial instead of the welcome
// page. With a solver attached the navigator already handled it during
// Navigate; without one, leave a window for solving it by hand.
func (c *Checker) passCaptchaScreen() error {
	if !c.isCaptchaScreenPresent() {
		return nil
	}

	if c.Navigator.CptchSolver != nil {
		return errors.New("captcha screen still present after solving")
	}

	if err := c.Navigator.HandleRecaptcha(c.Config.AnticaptchaAPIKey); err != nil {
		log.Warn().Err(err).Msg("Recaptcha fallback failed")
	}

	if !c.isCaptchaScreenPresent() {
		return nil
	}

	log.Warn().Msgf("Detected captcha screen, adding %s wait time. "+
		"Manually solve the captcha (disable headless mode if required), "+
		"then the cookies will be saved for the next session", MANUAL_CAPTCHA_WAIT)

	deadline := time.Now().Add(MANUAL_CAPTCHA_WAIT)
	for time.Now().Before(deadline) {
		log.Warn().Msgf("%.0f seconds left...", time.Until(deadline).Seconds())
		time.Sleep(MANUAL_CAPTCHA_REPORT)
	}

	return nil
}

func (c *Checker) isCaptchaScreenPresent() bool {
	if c.Navigator.Page == nil {
		return false
	}
	has, _, err := c.Navigator.Page.HasX(
		`//h2[contains(text(), "Checking if the site connection is secure")]`)
	return err == nil && has
}

func (c *Checker) scheduleLink() (*rod.Element, error) {
	return c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).ElementR("a", "Schedule Appointment")
}

// Click an element and wait for the postback to finish. Every control on the
// site triggers a full ASP.NET form post, and fast postbacks can complete
// before a waiter armed after the click would see them, so the click itself
// runs inside DoAndWaitLoad
func (c *Checker) clickAndWait(find func() (*rod.Element, error)) error {
	element, err := find()
	if err != nil {
		return err
	}

	if err := c.Navigator.DoAndWaitLoad(func() error {
		return element.Click(proto.InputMouseButtonLeft, 1)
	}); err != nil {
		return err
	}

	return c.Navigator.RefreshCrawler()
}

func (c *Checker) selectAndSubmit(selector, option string) error {
	element, err := c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(selector)
	if err != nil {
		return err
	}

	if err := element.Select([]string{option}, true, rod.SelectorTypeText); err != nil {
		return err
	}

	return c.clickAndWait(func() (*rod.Element, error) {
		return c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(SUBMIT_SELECTOR)
	})
}

func (c *Checker) fillApplicantForm() error {
	applicant := c.Config.Applicant.withDefaults()

	fields := map[string]string{
		GIVEN_NAME_SELECTOR:     applicant.GivenName,
		SURNAME_SELECTOR:        applicant.Surname,
		CONTACT_NUMBER_SELECTOR: applicant.ContactNumber,
		EMAIL_SELECTOR:          applicant.Email,
	}

	for selector, value := range fields {
		element, err := c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(selector)
		if err != nil {
			return errors.Wrapf(err, "form field %s", selector)
		}
		if err := element.Input(value); err != nil {
			return err
		}
	}

	confirm, err := c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(CONFIRMATION_SELECTOR)
	if err != nil {
		return err
	}
	if err := confirm.Select([]string{CONFIRMATION_TEXT}, true, rod.SelectorTypeText); err != nil {
		return err
	}

	return c.clickAndWait(func() (*rod.Element, error) {
		return c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(SUBMIT_SELECTOR)
	})
}

func (c *Checker) noDatesAvailable() bool {
	if err := c.Navigator.RefreshCrawler(); err != nil {
		return false
	}
	return hasNoDatesMarker(c.Navigator.GetCrawler())
}

func (c *Checker) emptyResult() (*CheckResult, error) {
	log.Info().Msg("No slots found")

	result := &CheckResult{}
	if screenshot, err := c.Navigator.Screenshot(); err == nil {
		result.Screenshots = append(result.Screenshots, screenshot)
	}
	return result, nil
}

// walkCalendar pages through the months until the site reports no more dates.
func (c *Checker) walkCalendar() (*CheckResult, error) {
	result := &CheckResult{}

	for {
		screenshot, err := c.Navigator.ElementScreenshot(CALENDAR_SELECTOR)
		if err != nil {
			return nil, errors.Wrap(err, "calendar screenshot")
		}
		result.Screenshots = append(result.Screenshots, screenshot)

		slots, err := c.parseMonth()
		if err != nil {
			return nil, err
		}
		result.Slots = append(result.Slots, slots...)

		if err := c.clickAndWait(func() (*rod.Element, error) {
			return c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).ElementR("a", ">>")
		}); err != nil {
			return nil, errors.Wrap(err, "next month")
		}

		if c.noDatesAvailable() {
			break
		}

		c.Artifacts.PageTrace(c.Navigator, "calendar")
	}

	log.Debug().Msgf("available dates: %v", result.Slots)

	return result, nil
}

// parseMonth opens every allocated day of the current month and reads its
// slot times. Day elements go stale after each postback, so the day list is
// re-queried on every round.
func (c *Checker) parseMonth() ([]AvailableSlot, error) {
	if err := c.Navigator.RefreshCrawler(); err != nil {
		return nil, err
	}
	month := parseMonthName(c.Navigator.GetCrawler())

	parsed := make(map[int]bool)
	var slots []AvailableSlot

	for {
		day, link, err := c.nextUnparsedDay(parsed)
		if err != nil {
			return nil, err
		}
		if link == nil {
			break // parsed all
		}

		if err := c.Navigator.DoAndWaitLoad(func() error {
			return link.Click(proto.InputMouseButtonLeft, 1)
		}); err != nil {
			return nil, err
		}
		if err := c.Navigator.RefreshCrawler(); err != nil {
			return nil, err
		}

		times := parseDayTimes(c.Navigator.GetCrawler())

		if err := c.clickAndWait(func() (*rod.Element, error) {
			return c.Navigator.Page.Timeout(ELEMENT_WAIT_TIMEOUT).Element(BACK_SELECTOR)
		}); err != nil {
			return nil, errors.Wrap(err, "back from day view")
		}

		parsed[day] = true
		for _, slotTime := range times {
			slots = append(slots, AvailableSlot{Month: month, Day: day, Time: slotTime})
		}
	}

	return slots, nil
}

func (c *Checker) nextUnparsedDay(parsed map[int]bool) (int, *rod.Element, error) {
	elements, err := c.Navigator.Page.Elements(OPEN_DAY_SELECTOR)
	if err != nil {
		return 0, nil, err
	}

	for _, element := range elements {
		text, err := element.Text()
		if err != nil {
			continue
		}

		day, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || parsed[day] {
			continue
		}

		link, err := element.Element("a")
		if err != nil {
			continue
		}
		return day, link, nil
	}

	return 0, nil, nil
}

// ----------------------------- DOM parsing -----------------------------

func hasNoDatesMarker(doc *goquery.Document) bool {
	message := doc.Find(MESSAGE_SELECTOR)
	return message.Size() > 0 && noDatesMarker.MatchString(message.Text())
}

// The month name sits in the calendar's first row between the paging links
func parseMonthName(doc *goquery.Document) string {
	header := doc.Find(CALENDAR_SELECTOR + " tr").First().Text()
	header = strings.ReplaceAll(header, ">>", "")
	header = strings.ReplaceAll(header, "<<", "")
	return strings.TrimSpace(header)
}

// parseDayTimes reads the slot times table of an opened day, skipping the
// header row.
func parseDayTimes(doc *goquery.Document) []string {
	var times []string
	doc.Find(SLOT_TABLE_SELECTOR + " tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		if text := strings.TrimSpace(row.Text()); text != "" {
			times = append(times, text)
		}
	})
	return times
}
