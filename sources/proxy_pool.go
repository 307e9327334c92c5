package sources

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kova98/gigscout.api/models"
)

const (
	defaultProxyMinInterval = 2 * time.Second
	defaultProxyCooldown    = 30 * time.Second
)

// ProxyPool hands out HTTP clients bound to SOCKS5 proxies in round robin,
// skipping proxies that were used too recently or are cooling down after a 429.
type ProxyPool struct {
	clients     []*http.Client
	hosts       []string
	index       atomic.Uint64
	cooldowns   map[int]time.Time
	lastUsed    map[int]time.Time
	successes   map[int]int
	failures    map[int]int
	mu          sync.RWMutex
	minInterval time.Duration // minimum time between uses of the same proxy
	cooldown    time.Duration
}

func NewProxyPool(proxyURLs []string) (*ProxyPool, error) {
	if len(proxyURLs) == 0 {
		return nil, errors.New("no proxy URLs provided")
	}

	clients := make([]*http.Client, 0, len(proxyURLs))
	hosts := make([]string, 0, len(proxyURLs))
	seen := make(map[string]bool)

	for _, proxyURL := range proxyURLs {
		if seen[proxyURL] {
			if parsed, err := url.Parse(proxyURL); err == nil {
				slog.Warn("duplicate proxy URL, skipping", "host", parsed.Host)
			}
			continue
		}
		seen[proxyURL] = true

		client, err := newHTTPClient(proxyURL)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)

		// Host only, never credentials.
		if parsed, err := url.Parse(proxyURL); err == nil {
			hosts = append(hosts, parsed.Host)
		} else {
			hosts = append(hosts, "unknown")
		}
	}

	slog.Info("proxy pool created", "count", len(clients), "hosts", hosts)

	return &ProxyPool{
		clients:     clients,
		hosts:       hosts,
		cooldowns:   make(map[int]time.Time),
		lastUsed:    make(map[int]time.Time),
		successes:   make(map[int]int),
		failures:    make(map[int]int),
		minInterval: defaultProxyMinInterval,
		cooldown:    defaultProxyCooldown,
	}, nil
}

// Next blocks until a proxy is available or ctx is done.
func (p *ProxyPool) Next(ctx context.Context) (*http.Client, string, error) {
	n := len(p.clients)

	for {
		p.mu.Lock()
		now := time.Now()

		for attempt := 0; attempt < n; attempt++ {
			idx := p.index.Add(1) - 1
			i := int(idx % uint64(n))

			if until, ok := p.cooldowns[i]; ok && now.Before(until) {
				continue
			}
			if last, ok := p.lastUsed[i]; ok && now.Sub(last) < p.minInterval {
				continue
			}

			p.lastUsed[i] = now
			p.mu.Unlock()
			return p.clients[i], p.hosts[i], nil
		}

		var soonest time.Time
		for i := 0; i < n; i++ {
			availableAt := p.lastUsed[i].Add(p.minInterval)
			if until, ok := p.cooldowns[i]; ok && until.After(availableAt) {
				availableAt = until
			}
			if soonest.IsZero() || availableAt.Before(soonest) {
				soonest = availableAt
			}
		}
		p.mu.Unlock()

		wait := time.Until(soonest)
		if wait <= 0 {
			continue
		}
		slog.Debug("all proxies busy, waiting", "wait_ms", wait.Milliseconds())
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, "", ctx.Err()
		case <-timer.C:
		}
	}
}

// MarkRateLimited puts a proxy on cooldown.
func (p *ProxyPool) MarkRateLimited(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := p.indexOf(host); i >= 0 {
		p.cooldowns[i] = time.Now().Add(p.cooldown)
		p.failures[i]++
		slog.Debug("proxy on cooldown", "host", host, "duration_seconds", p.cooldown.Seconds())
	}
}

func (p *ProxyPool) MarkSuccess(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := p.indexOf(host); i >= 0 {
		p.successes[i]++
	}
}

func (p *ProxyPool) MarkFailure(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i := p.indexOf(host); i >= 0 {
		p.failures[i]++
	}
}

// Stats returns success and failure counts keyed by proxy host.
func (p *ProxyPool) Stats() map[string]models.ProxyStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := make(map[string]models.ProxyStats, len(p.hosts))
	for i, h := range p.hosts {
		stats[h] = models.ProxyStats{
			Successes: p.successes[i],
			Failures:  p.failures[i],
		}
	}
	return stats
}

func (p *ProxyPool) indexOf(host string) int {
	for i, h := range p.hosts {
		if h == host {
			return i
		}
	}
	return -1
}
