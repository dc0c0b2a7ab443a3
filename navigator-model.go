package slotmon

// Navigation model
type Model struct {
	// Chrome window visible
	Visible bool `json:"visible"`

	// Load images
	ShowImages bool `json:"show_images"`

	// Custom user agent
	UserAgent string `json:"user_agent"`

	// Seconds to wait for navigation. 0 - default timeout
	NavigationTimeout int `json:"navigation_timeout"`

	// Selector that signals the page is loaded. Empty - wait for load event
	NavigationSelector string `json:"navigation_selector"`

	// Pause before navigation, seconds
	DelayBeforeNavigate int `json:"delay_before_navigate"`

	// Pause after navigation before reading the page, seconds
	DelayBeforeRead int `json:"delay_before_read"`

	// Selector of the anti-bot challenge interstitial
	ChallengeSelector string `json:"challenge_selector"`

	// Selector that marks a captcha. Empty - solver decides itself
	CaptchaSelector string `json:"captcha_selector"`

	// Close the page before every navigation
	ClosePageEverytime bool `json:"close_page_everytime"`

	// Device scale factor for screenshots. 0 - browser default
	ScaleFactor float64 `json:"scale_factor"`
}
