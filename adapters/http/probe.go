package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/voxway/voxgate/ports"
)

// probeTimeout bounds each provider check.
const probeTimeout = 10 * time.Second

// ProbeTarget describes one provider endpoint to check.
type ProbeTarget struct {
	Provider string
	URL      string
	Header   http.Header
	HasKey   bool
}

// Prober checks provider reachability by hitting a cheap authenticated
// endpoint per provider.
type Prober struct {
	targets []ProbeTarget
	client  *http.Client
}

// NewProber creates a prober over the given targets.
func NewProber(targets []ProbeTarget) *Prober {
	return &Prober{
		targets: targets,
		client:  &http.Client{Timeout: probeTimeout},
	}
}

// Probe checks all targets concurrently.
func (p *Prober) Probe(ctx context.Context) []ports.ProviderHealth {
	results := make([]ports.ProviderHealth, len(p.targets))

	var wg sync.WaitGroup
	for i, target := range p.targets {
		wg.Add(1)
		go func(i int, target ProbeTarget) {
			defer wg.Done()
			results[i] = p.check(ctx, target)
		}(i, target)
	}
	wg.Wait()

	return results
}

func (p *Prober) check(ctx context.Context, target ProbeTarget) ports.ProviderHealth {
	h := ports.ProviderHealth{Provider: target.Provider, KeyConfigured: target.HasKey}
	if !target.HasKey {
		h.Error = "API key not configured"
		return h
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.URL, nil)
	if err != nil {
		h.Error = err.Error()
		return h
	}
	for k, vs := range target.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	h.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		h.Error = err.Error()
		return h
	}
	defer resp.Body.Close()

	// 401/403 still proves the service is reachable; the key may be
	// wrong but the endpoint responded.
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		h.OK = true
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		h.OK = true
		h.Error = fmt.Sprintf("HTTP %d (service alive, check key)", resp.StatusCode)
	default:
		h.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return h
}

var _ ports.HealthProber = (*Prober)(nil)
