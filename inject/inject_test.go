package inject

import (
	"net/http"
	"strings"
	"testing"
)

func TestInjectIntoHTML(t *testing.T) {
	page := `<html><head><title>t</title></head><body></body></html>`

	rewritten, done := InjectIntoHTML(page, "window.x = 1;")
	if !done {
		t.Fatal("document not rewritten")
	}

	want := "<script>\nwindow.x = 1;</script></head>"
	if !strings.Contains(rewritten, want) {
		t.Errorf("rewritten = %q", rewritten)
	}
	if strings.Count(rewritten, "</head>") != 1 {
		t.Error("head closed more than once")
	}
}

func TestHTTPClientConfigurable(t *testing.T) {
	injector := New("window.x = 1;", "AppWelcome.aspx")

	if injector.httpClient() != http.DefaultClient {
		t.Error("default should be http.DefaultClient")
	}

	proxied := &http.Client{}
	injector.Client = proxied
	if injector.httpClient() != proxied {
		t.Error("configured client ignored")
	}
}

func TestInjectIntoHTMLWithoutHead(t *testing.T) {
	page := `<html><body>no head here</body></html>`

	rewritten, done := InjectIntoHTML(page, "window.x = 1;")
	if done {
		t.Error("rewrite reported for document without head")
	}
	if rewritten != page {
		t.Error("document modified without head")
	}
}
