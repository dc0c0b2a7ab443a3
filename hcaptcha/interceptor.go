package hcaptcha

import (
	"strconv"
	"sync"
	"time"
)

const (
	// Provider tag written into every published handle
	CaptchaType = "hcaptcha"

	// Global name under which the page script publishes the handle
	HandleGlobal = "hcaptchaHandle"

	// Prefix for generated callback names
	CallbackPrefix = "hcaptchaCallback"
)

// RenderOptions is the options structure the widget's render entry point
// accepts. Callback may be nil, a string naming a page-level function, or a
// TokenFunc value.
type RenderOptions struct {
	SiteKey  string `json:"sitekey"`
	Callback any    `json:"callback,omitempty"`
}

// TokenFunc is a callback the hosting code expects to receive the solved
// captcha token.
type TokenFunc func(token string)

// RenderFunc is the widget library's render entry point. Returns the widget id.
type RenderFunc func(container string, opts RenderOptions) int

// Handle is the captured configuration of the most recently rendered widget.
// The JSON shape matches the global object the page script publishes, so the
// same type decodes what an external observer reads back from the page.
type Handle struct {
	CaptchaType string `json:"captchaType"`
	WidgetID    int    `json:"widgetId"`
	ContainerID string `json:"containerId"`
	SiteKey     string `json:"sitekey"`
	Callback    any    `json:"callback"`
}

// CallbackName returns the callback field if it holds a function name.
func (h *Handle) CallbackName() (string, bool) {
	name, ok := h.Callback.(string)
	return name, ok && name != ""
}

// Interceptor is an observation tap around a widget's render entry point.
// Each render call publishes a Handle to a single shared slot, overwriting
// the previous one. Function-valued callbacks are re-registered under a
// generated name so they stay invocable by name from outside the normal
// call path.
type Interceptor struct {
	mu        sync.Mutex
	handle    *Handle
	callbacks map[string]TokenFunc
	seq       uint64

	now func() time.Time
}

func NewInterceptor() *Interceptor {
	return &Interceptor{
		callbacks: make(map[string]TokenFunc),
		now:       time.Now,
	}
}

// Wrap wraps the render entry point once at setup time. The returned func
// captures the widget configuration before delegating and never alters the
// result. Options are forwarded as given except the callback field, which is
// replaced with the generated name when the original value was a function.
func (in *Interceptor) Wrap(render RenderFunc) RenderFunc {
	return func(container string, opts RenderOptions) int {
		in.capture(container, &opts)
		return render(container, opts)
	}
}

func (in *Interceptor) capture(container string, opts *RenderOptions) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if fn := asTokenFunc(opts.Callback); fn != nil {
		name := in.nextName()
		in.callbacks[name] = fn
		opts.Callback = name
	}

	in.handle = &Handle{
		CaptchaType: CaptchaType,
		WidgetID:    0,
		ContainerID: container,
		SiteKey:     opts.SiteKey,
		Callback:    opts.Callback,
	}
}

// Timestamp plus counter, so two widgets rendered within the same
// millisecond still get distinct names.
func (in *Interceptor) nextName() string {
	in.seq++
	ts := in.now().UnixMilli()
	return CallbackPrefix + strconv.FormatInt(ts, 10) + "_" + strconv.FormatUint(in.seq, 10)
}

// Latest returns the handle of the most recently rendered widget.
// Last write wins, no history is kept.
func (in *Interceptor) Latest() (Handle, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.handle == nil {
		return Handle{}, false
	}
	return *in.handle, true
}

// Callback looks up a re-registered callback by its generated name.
func (in *Interceptor) Callback(name string) (TokenFunc, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	fn, ok := in.callbacks[name]
	return fn, ok
}

// Invoke calls a re-registered callback with the solved token.
func (in *Interceptor) Invoke(name, token string) error {
	fn, ok := in.Callback(name)
	if !ok {
		return ErrUnknownCallback
	}
	fn(token)
	return nil
}

func asTokenFunc(v any) TokenFunc {
	switch fn := v.(type) {
	case TokenFunc:
		return fn
	case func(string):
		return fn
	default:
		return nil
	}
}
