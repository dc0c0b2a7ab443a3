package slotmon

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestProxyHTTPClientRoutesThroughProxy(t *testing.T) {
	client, err := ProxyHTTPClient(StaticProxy("127.0.0.1:8080"))
	if err != nil {
		t.Fatal(err)
	}

	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("unexpected transport %T", client.Transport)
	}

	request := httptest.NewRequest(http.MethodGet,
		"https://visa.example.com/Global/appointment/AppWelcome.aspx", nil)

	proxyURL, err := transport.Proxy(request)
	if err != nil {
		t.Fatal(err)
	}
	if proxyURL == nil {
		t.Fatal("request not routed through the proxy")
	}
	if got := proxyURL.String(); got != "http://127.0.0.1:8080" {
		t.Errorf("wrong proxy %q", got)
	}
}

func TestProxyHTTPClientKeepsScheme(t *testing.T) {
	client, err := ProxyHTTPClient(StaticProxy("socks5://127.0.0.1:9050"))
	if err != nil {
		t.Fatal(err)
	}

	transport := client.Transport.(*http.Transport)
	request := httptest.NewRequest(http.MethodGet, "https://visa.example.com/", nil)

	proxyURL, err := transport.Proxy(request)
	if err != nil {
		t.Fatal(err)
	}
	if got := proxyURL.String(); got != "socks5://127.0.0.1:9050" {
		t.Errorf("wrong proxy %q", got)
	}
}

func TestProxyHTTPClientWithoutProxy(t *testing.T) {
	client, err := ProxyHTTPClient(nil)
	if err != nil {
		t.Fatal(err)
	}
	if client != http.DefaultClient {
		t.Error("nil getter should yield the default client")
	}

	client, err = ProxyHTTPClient(StaticProxy(""))
	if err != nil {
		t.Fatal(err)
	}
	if client != http.DefaultClient {
		t.Error("empty address should yield the default client")
	}
}
