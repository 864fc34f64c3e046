package config

import (
	"net/http"
	"net/url"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type proxyConfig struct {
	URL string `yaml:"url"`
}

func (cfg *proxyConfig) proxyTransport() (*http.Transport, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, nil
	}

	proxyURL, err := url.Parse(cfg.URL)

	if err != nil {
		return nil, err
	}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = http.ProxyURL(proxyURL)

	return tr, nil
}

// httpClient traces outgoing requests and routes them through the proxy
// when one is configured.
func httpClient(proxy *proxyConfig) (*http.Client, error) {
	var transport http.RoundTripper = http.DefaultTransport

	tr, err := proxy.proxyTransport()

	if err != nil {
		return nil, err
	}

	if tr != nil {
		transport = tr
	}

	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
	}, nil
}
