package hcaptcha

import (
	"strings"
	"testing"
	"time"
)

type renderRecorder struct {
	calls      int
	containers []string
	options    []RenderOptions
}

func (r *renderRecorder) render(container string, opts RenderOptions) int {
	r.calls++
	r.containers = append(r.containers, container)
	r.options = append(r.options, opts)
	return 0
}

func TestWrapRewritesFunctionCallback(t *testing.T) {
	in := NewInterceptor()
	recorder := new(renderRecorder)
	render := in.Wrap(recorder.render)

	var received string
	render("widget-div", RenderOptions{
		SiteKey:  "abc123",
		Callback: TokenFunc(func(token string) { received = token }),
	})

	handle, ok := in.Latest()
	if !ok {
		t.Fatal("no handle published")
	}

	if handle.CaptchaType != "hcaptcha" || handle.WidgetID != 0 {
		t.Errorf("unexpected handle tags: %+v", handle)
	}
	if handle.ContainerID != "widget-div" {
		t.Errorf("containerId = %q", handle.ContainerID)
	}
	if handle.SiteKey != "abc123" {
		t.Errorf("sitekey = %q", handle.SiteKey)
	}

	name, ok := handle.CallbackName()
	if !ok {
		t.Fatalf("callback is not a name: %#v", handle.Callback)
	}
	if !strings.HasPrefix(name, CallbackPrefix) {
		t.Errorf("generated name = %q", name)
	}

	// the original function must stay invocable under the generated name
	if err := in.Invoke(name, "token-1"); err != nil {
		t.Fatal(err)
	}
	if received != "token-1" {
		t.Errorf("callback received %q", received)
	}
}

func TestWrapForwardsToOriginalOnce(t *testing.T) {
	in := NewInterceptor()
	recorder := new(renderRecorder)
	render := in.Wrap(recorder.render)

	render("container-a", RenderOptions{
		SiteKey:  "key-a",
		Callback: TokenFunc(func(string) {}),
	})

	if recorder.calls != 1 {
		t.Fatalf("original render called %d times", recorder.calls)
	}
	if recorder.containers[0] != "container-a" {
		t.Errorf("forwarded container = %q", recorder.containers[0])
	}

	forwarded := recorder.options[0]
	if forwarded.SiteKey != "key-a" {
		t.Errorf("forwarded sitekey = %q", forwarded.SiteKey)
	}

	// forwarded options may differ from the input only in the callback field,
	// which carries the generated name
	handle, _ := in.Latest()
	if forwarded.Callback != handle.Callback {
		t.Errorf("forwarded callback %#v != published %#v", forwarded.Callback, handle.Callback)
	}
}

func TestWrapPassesNonFunctionCallbackThrough(t *testing.T) {
	in := NewInterceptor()
	recorder := new(renderRecorder)
	render := in.Wrap(recorder.render)

	render("div", RenderOptions{SiteKey: "k", Callback: "pageLevelHandler"})

	handle, _ := in.Latest()
	if handle.Callback != "pageLevelHandler" {
		t.Errorf("string callback rewritten: %#v", handle.Callback)
	}
	if recorder.options[0].Callback != "pageLevelHandler" {
		t.Errorf("forwarded callback rewritten: %#v", recorder.options[0].Callback)
	}

	render("div", RenderOptions{SiteKey: "k"})

	handle, _ = in.Latest()
	if handle.Callback != nil {
		t.Errorf("nil callback rewritten: %#v", handle.Callback)
	}
}

func TestLatestKeepsOnlyLastRender(t *testing.T) {
	in := NewInterceptor()
	recorder := new(renderRecorder)
	render := in.Wrap(recorder.render)

	render("first", RenderOptions{SiteKey: "key-1"})
	render("second", RenderOptions{SiteKey: "key-2"})

	handle, ok := in.Latest()
	if !ok {
		t.Fatal("no handle published")
	}
	if handle.SiteKey != "key-2" || handle.ContainerID != "second" {
		t.Errorf("latest handle = %+v", handle)
	}
}

func TestGeneratedNamesUniqueWithinSameInstant(t *testing.T) {
	in := NewInterceptor()
	frozen := time.Now()
	in.now = func() time.Time { return frozen }

	render := in.Wrap(func(string, RenderOptions) int { return 0 })

	names := make(map[string]bool)
	for i := 0; i < 10; i++ {
		render("div", RenderOptions{SiteKey: "k", Callback: TokenFunc(func(string) {})})
		handle, _ := in.Latest()
		name, _ := handle.CallbackName()
		if names[name] {
			t.Fatalf("name %q generated twice", name)
		}
		names[name] = true
	}
}

func TestInvokeUnknownName(t *testing.T) {
	in := NewInterceptor()
	if err := in.Invoke("hcaptchaCallback0", "token"); err != ErrUnknownCallback {
		t.Errorf("err = %v", err)
	}
}
