package slotmon

import (
	"os"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// Live smoke test, needs a local Chrome. Enable with SLOTMON_LIVE_TEST=1.
func TestChromeNavigator(t *testing.T) {
	if os.Getenv("SLOTMON_LIVE_TEST") == "" {
		t.Skip("set SLOTMON_LIVE_TEST to run browser tests")
	}

	navigator := NewNavigator(&Model{
		ShowImages: true,
	})
	defer navigator.Close()

	if err := navigator.Navigate("https://bot.sannysoft.com/"); err != nil {
		t.Fatal(err)
	}

	if status := navigator.GetNavigateStatus(); status != 200 {
		t.Errorf("navigate status = %d", status)
	}

	if navigator.GetCrawler().Find("table").Size() == 0 {
		t.Error("no result tables parsed")
	}
}

// Click-triggered navigation must arm the waiters before the click and must
// read the status of the main frame document, not of images or scripts.
func TestDoAndWaitLoad(t *testing.T) {
	if os.Getenv("SLOTMON_LIVE_TEST") == "" {
		t.Skip("set SLOTMON_LIVE_TEST to run browser tests")
	}

	navigator := new(ChromeNavigator)
	navigator.SetModel(&Model{
		ShowImages: true,
	})
	defer navigator.Close()

	if err := navigator.Navigate("https://example.com/"); err != nil {
		t.Fatal(err)
	}

	link, err := navigator.Page.Timeout(time.Second * 10).Element("a")
	if err != nil {
		t.Fatal(err)
	}

	if err := navigator.DoAndWaitLoad(func() error {
		return link.Click(proto.InputMouseButtonLeft, 1)
	}); err != nil {
		t.Fatal(err)
	}

	if status := navigator.GetNavigateStatus(); status != 200 {
		t.Errorf("status after click = %d", status)
	}
}

func TestFormatUrl(t *testing.T) {
	navigator := new(CommonNavigator)
	if err := navigator.writeAndFormatURL("https://example.com/schedule/AppWelcome.aspx?q=1"); err != nil {
		t.Fatal(err)
	}

	cases := map[string]string{
		"https://other.com/x": "https://other.com/x",
		"/relative/path":      "https://example.com/relative/path",
		"page.aspx":           "https://example.com/page.aspx",
		"?step=2":             "https://example.com/schedule/AppWelcome.aspx?step=2",
	}

	for href, want := range cases {
		if got := navigator.FormatUrl(href); got != want {
			t.Errorf("FormatUrl(%q) = %q, want %q", href, got, want)
		}
	}
}
