package client

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"honeyfarmers/internal/app/port"
	"honeyfarmers/internal/infrastructure/configloader"

	"github.com/valyala/fasthttp"
)

// antelopeClientProvider implements the port.ChainClientProvider interface.
type antelopeClientProvider struct {
	clients        map[string]port.ChainClient
	mu             sync.Mutex
	http           *fasthttp.Client
	logger         port.Logger
	rpcCallTimeout time.Duration
}

// NewAntelopeClientProvider creates a provider sharing one fasthttp client across endpoints.
func NewAntelopeClientProvider(cfg *configloader.Config, logger port.Logger) port.ChainClientProvider {
	return &antelopeClientProvider{
		clients: make(map[string]port.ChainClient),
		http: &fasthttp.Client{
			Name:                "honeyfarmers",
			MaxConnsPerHost:     32,
			MaxIdleConnDuration: 30 * time.Second,
		},
		logger:         logger,
		rpcCallTimeout: time.Duration(cfg.Chain.RequestTimeoutMs) * time.Millisecond,
	}
}

// GetClient returns the cached client for endpoint, creating it on first use.
func (p *antelopeClientProvider) GetClient(endpoint string) (port.ChainClient, error) {
	key := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if key == "" {
		return nil, fmt.Errorf("empty chain endpoint")
	}
	if !strings.HasPrefix(key, "http://") && !strings.HasPrefix(key, "https://") {
		return nil, fmt.Errorf("chain endpoint %q must be an http(s) URL", endpoint)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if client, exists := p.clients[key]; exists {
		return client, nil
	}

	p.logger.Debug("Creating new Antelope client", "endpoint", key)
	client := NewAntelopeClient(p.http, key, p.rpcCallTimeout)
	p.clients[key] = client
	return client, nil
}
