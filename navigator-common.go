package slotmon

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const NAVIGATION_TRIES_COUNT int = 3

var (
	matchUrlHttp      *regexp.Regexp = regexp.MustCompile(`(?m)^https?:\/\/`)
	matchUrlFromSlash *regexp.Regexp = regexp.MustCompile(`(?m)\/.*`)
)

// Common data for navigators
type CommonNavigator struct {

	// Current url
	Url string

	// Current domen
	Domen string

	// Current protocol (HTTP, HTTPS)
	Protocol string

	// Last navigate status
	NavigateStatus int

	// Last navigate error
	LastError error

	// Navigation model
	Model *Model

	// Current DOM tree composed into query [github.com/PuerkitoBio/goquery] document
	Crawler *goquery.Document

	// Captcha solver
	CptchSolver CaptchaSolver

	// Proxy getter
	PrxGetter ProxyGetter

	// Check if this a just created client and only first URL
	JustCreated bool
}

// Interface method implementation

func (navigator *CommonNavigator) SetModel(model *Model) {
	navigator.Model = model
}

func (navigator *CommonNavigator) GetCrawler() *goquery.Document {
	if navigator.Crawler == nil {
		navigator.initEmptyCrawler()
	}
	return navigator.Crawler
}

func (navigator *CommonNavigator) GetNavigateStatus() int {
	return navigator.NavigateStatus
}

func (navigator *CommonNavigator) GetLastError() error {
	return navigator.LastError
}

func (navigator *CommonNavigator) SetCaptchaSolver(solver CaptchaSolver) {
	navigator.CptchSolver = solver
}

func (navigator *CommonNavigator) SetProxyGetter(getter ProxyGetter) {
	navigator.PrxGetter = getter
}

func (navigator *CommonNavigator) GetUrl() string {
	return navigator.Url
}

// Format link relative to the current domain
func (navigator *CommonNavigator) FormatUrl(href string) string {
	if regexp.MustCompile(`(?mi)^http`).MatchString(href) {
		return href
	}

	if regexp.MustCompile(`(?mi)^\?`).MatchString(href) {
		currentUrlWithoutQuery := regexp.MustCompile(`(?mi)\?.*`).ReplaceAllString(navigator.Url, "")
		return currentUrlWithoutQuery + href
	}

	protocol := navigator.Protocol
	if protocol == "" {
		protocol = "http"
	}

	if regexp.MustCompile(`(?mi)^/`).MatchString(href) {
		return fmt.Sprintf("%s://%s%s", protocol, navigator.Domen, href)
	} else {
		return fmt.Sprintf("%s://%s/%s", protocol, navigator.Domen, href)
	}
}

// Initialize empty crawler
func (navigator *CommonNavigator) initEmptyCrawler() {
	navigator.Crawler, _ = goquery.NewDocumentFromReader(bytes.NewBuffer([]byte("")))
}

// Writing initial data before navigate
func (navigator *CommonNavigator) writeAndFormatURL(url string) error {
	navigator.Url = navigator.FormatUrl(url)

	navigator.extractDomenName()
	navigator.extractProtocol()

	return nil
}

// Extract domen name from url
func (navigator *CommonNavigator) extractDomenName() {
	navigator.Domen = matchUrlHttp.ReplaceAllString(navigator.Url, "")
	navigator.Domen = matchUrlFromSlash.ReplaceAllString(navigator.Domen, "")
}

// Extract protocol type from url
func (navigator *CommonNavigator) extractProtocol() {
	if protocol := regexp.MustCompile(`(?mi)^https?`).FindString(navigator.Url); protocol != "" {
		navigator.Protocol = strings.ToLower(protocol)
	} else {
		navigator.Protocol = "http"
	}
}

// Create crawler from response
func (navigator *CommonNavigator) createCrawlerFromHTML(html string) error {
	crawler, err := goquery.NewDocumentFromReader(bytes.NewBuffer([]byte(html)))
	if err != nil {
		return err
	}

	navigator.Crawler = crawler
	return nil
}

// Valid responses 200 and 404
func (navigator *CommonNavigator) isValidResponse(code int) bool {
	return code == 200 || code == 404
}

func (navigator *CommonNavigator) calculateNavigationTimeout() time.Duration {
	if navigator.Model.NavigationTimeout > 0 {
		return time.Duration(navigator.Model.NavigationTimeout) * time.Second
	}
	return time.Minute
}
