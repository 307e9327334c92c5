package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"

	"github.com/kova98/gigscout.api/models"
)

const (
	userAgent        = "GigScout/1.0 (+https://gigscout.com)"
	maxResponseBytes = 10 << 20
)

// ClientProvider supplies the HTTP client an adapter should use for its next
// request and receives the outcome so it can rotate away from bad routes.
type ClientProvider interface {
	Next(ctx context.Context) (*http.Client, string, error)
	MarkSuccess(host string)
	MarkFailure(host string)
	MarkRateLimited(host string)
	Stats() map[string]models.ProxyStats
}

// NewClientProvider returns a ProxyPool when proxy URLs are configured and a
// direct client otherwise.
func NewClientProvider(proxyURLs []string) (ClientProvider, error) {
	if len(proxyURLs) == 0 {
		client, err := newHTTPClient("")
		if err != nil {
			return nil, err
		}
		return NewDirectClient(client), nil
	}
	return NewProxyPool(proxyURLs)
}

// DirectClient is a ClientProvider that always returns the same client.
type DirectClient struct {
	client *http.Client
}

func NewDirectClient(client *http.Client) *DirectClient {
	return &DirectClient{client: client}
}

func (d *DirectClient) Next(ctx context.Context) (*http.Client, string, error) {
	return d.client, "direct", nil
}

func (d *DirectClient) MarkSuccess(string)                  {}
func (d *DirectClient) MarkFailure(string)                  {}
func (d *DirectClient) MarkRateLimited(string)              {}
func (d *DirectClient) Stats() map[string]models.ProxyStats { return nil }

func newHTTPClient(proxyURL string) (*http.Client, error) {
	client := &http.Client{Timeout: 15 * time.Second}

	if proxyURL == "" {
		return client, nil
	}

	parsedURL, err := url.Parse(proxyURL)
	if err != nil {
		return nil, err
	}
	if parsedURL.Scheme != "socks5" {
		return client, nil
	}

	var auth *proxy.Auth
	if parsedURL.User != nil {
		password, _ := parsedURL.User.Password()
		auth = &proxy.Auth{
			User:     parsedURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsedURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, err
	}

	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		},
	}
	slog.Debug("using SOCKS5 proxy", "proxy", parsedURL.Host)

	return client, nil
}

// fetch performs a GET through the provider and returns the body of a 2xx response.
func fetch(ctx context.Context, clients ClientProvider, rawURL string) ([]byte, error) {
	client, host, err := clients.Next(ctx)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		clients.MarkFailure(host)
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		clients.MarkRateLimited(host)
		return nil, fmt.Errorf("rate limited: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		clients.MarkFailure(host)
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		clients.MarkFailure(host)
		return nil, fmt.Errorf("read body: %w", err)
	}
	clients.MarkSuccess(host)

	return body, nil
}
