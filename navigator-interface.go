package slotmon

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
)

type Navigator interface {
	// Set navigation model
	SetModel(model *Model)

	// Open URL
	Navigate(url string) error

	// Navigation status code
	GetNavigateStatus() int

	// DOM tree after navigation
	GetCrawler() *goquery.Document

	// Last error
	GetLastError() error

	// Close client
	Close() error

	// Set captcha solver
	SetCaptchaSolver(CaptchaSolver)

	// Set proxy getter
	SetProxyGetter(ProxyGetter)
}

// Interface for captcha solver.
//
// Instance for solver we must implement outside this package. We only use existing instance
type CaptchaSolver interface {

	// Check if the captcha is shown on the page
	Is(*rod.Page) bool

	// Solve captcha on the page
	Solve(*rod.Page) error
}

type ProxyGetter interface {

	// Get proxy.
	//
	// Returns proxy as string and error if has
	GetProxy() (string, error)
}

func NewNavigator(model *Model) Navigator {
	if model == nil {
		model = &Model{}
	}

	navigator := new(ChromeNavigator)
	navigator.SetModel(model)

	return navigator
}
