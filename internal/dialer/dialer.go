// Package dialer builds the outbound network dialer shared by the MTProto
// transport and the quote HTTP client.
package dialer

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
)

// DialFunc matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// FromURL returns a dial function for the given proxy URL. An empty URL
// dials directly. Supported schemes are those of golang.org/x/net/proxy
// (socks5, socks5h).
func FromURL(raw string) (DialFunc, error) {
	if raw == "" {
		var d net.Dialer
		return d.DialContext, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	d, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy %s: %w", u.Redacted(), err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("proxy %s does not support context dialing", u.Redacted())
	}
	return cd.DialContext, nil
}

// HTTPClient returns a client that dials through dial and gives up after
// timeout.
func HTTPClient(dial DialFunc, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if dial != nil {
		transport.DialContext = dial
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
