package hcaptcha

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSiteKeyFromSrc(t *testing.T) {
	src := "https://newassets.hcaptcha.com/captcha/v1/b1129b9/static/hcaptcha.html" +
		"#frame=checkbox&id=0aj4d&host=example.com&sitekey=10000000-ffff-ffff-ffff-000000000001"

	key, err := siteKeyFromSrc(src)
	if err != nil {
		t.Fatal(err)
	}
	if key != "10000000-ffff-ffff-ffff-000000000001" {
		t.Errorf("sitekey = %q", key)
	}

	if _, err := siteKeyFromSrc("https://example.com/frame#frame=checkbox"); err == nil {
		t.Error("expected error for src without sitekey")
	}
}

func TestHandleDecodesPageGlobalShape(t *testing.T) {
	// shape published by InjectionScript
	raw := `{"captchaType":"hcaptcha","widgetId":0,"containerId":"widget-div",` +
		`"sitekey":"abc123","callback":"hcaptchaCallback1693000000000"}`

	handle := new(Handle)
	if err := json.Unmarshal([]byte(raw), handle); err != nil {
		t.Fatal(err)
	}

	if handle.CaptchaType != CaptchaType || handle.SiteKey != "abc123" {
		t.Errorf("handle = %+v", handle)
	}
	name, ok := handle.CallbackName()
	if !ok || !strings.HasPrefix(name, CallbackPrefix) {
		t.Errorf("callback name = %q ok=%v", name, ok)
	}
}
