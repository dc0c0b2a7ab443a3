package slotmon

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// StaticProxy is a ProxyGetter that always returns the same address.
type StaticProxy string

func (p StaticProxy) GetProxy() (string, error) {
	return string(p), nil
}

// ProxyHTTPClient builds an HTTP client routed through the getter's proxy so
// that requests made outside the browser keep the browser's egress address.
// A nil getter or an empty address yields http.DefaultClient.
func ProxyHTTPClient(getter ProxyGetter) (*http.Client, error) {
	if getter == nil {
		return http.DefaultClient, nil
	}

	address, err := getter.GetProxy()
	if err != nil {
		return nil, errors.Wrap(err, "Cannot get proxy address")
	}
	if address == "" {
		return http.DefaultClient, nil
	}

	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	proxyURL, err := url.Parse(address)
	if err != nil {
		return nil, errors.Wrapf(err, `Cannot parse proxy address "%s"`, address)
	}

	return &http.Client{
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}
