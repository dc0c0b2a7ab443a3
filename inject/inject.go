// Package inject rewrites intercepted document responses so a script runs in
// the page before any of the page's own scripts. It replaces the external
// mitm proxy the checker would otherwise need.
package inject

import (
	"net/http"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

const INJECTED_HEADER = "X-Injected"

// Injector installs a hijack router on a page and injects the configured
// script into every document response whose URL path matches.
type Injector struct {
	// Script inserted before </head>
	Script string

	// Path suffix of documents to rewrite, e.g. "AppWelcome.aspx"
	PathSuffix string

	// Client used to re-fetch hijacked documents. Must route through the
	// same proxy as the browser, otherwise the one rewritten request leaves
	// with the host's real address
	Client *http.Client

	router *rod.HijackRouter
}

func (inj *Injector) httpClient() *http.Client {
	if inj.Client != nil {
		return inj.Client
	}
	return http.DefaultClient
}

func New(script, pathSuffix string) *Injector {
	return &Injector{
		Script:     script,
		PathSuffix: pathSuffix,
	}
}

// Attach starts hijacking on the page. Must be called before navigation.
func (inj *Injector) Attach(page *rod.Page) error {
	if inj.router != nil {
		return nil
	}

	router := page.HijackRequests()

	err := router.Add("*"+inj.PathSuffix+"*", proto.NetworkResourceTypeDocument, func(ctx *rod.Hijack) {
		if err := ctx.LoadResponse(inj.httpClient(), true); err != nil {
			log.Warn().Err(err).Msg("Load hijacked response failed")
			return
		}

		rewritten, done := InjectIntoHTML(ctx.Response.Body(), inj.Script)
		if !done {
			return
		}

		log.Info().Str("url", ctx.Request.URL().String()).Msg("Injecting script")

		ctx.Response.SetBody(rewritten)
		payload := ctx.Response.Payload()
		payload.ResponseHeaders = append(payload.ResponseHeaders, &proto.FetchHeaderEntry{
			Name:  INJECTED_HEADER,
			Value: "Yes",
		})
	})
	if err != nil {
		return err
	}

	go router.Run()
	inj.router = router

	return nil
}

// Stop removes the hijack router.
func (inj *Injector) Stop() error {
	if inj.router == nil {
		return nil
	}
	err := inj.router.Stop()
	inj.router = nil
	return err
}

// InjectIntoHTML inserts the script before the closing head tag. Reports
// whether the document was rewritten.
func InjectIntoHTML(html, script string) (string, bool) {
	if !strings.Contains(html, "</head>") {
		return html, false
	}
	return strings.Replace(html, "</head>", "<script>\n"+script+"</script></head>", 1), true
}
