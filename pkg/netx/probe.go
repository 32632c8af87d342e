// Package netx holds small networking helpers shared by clients.
package netx

import (
	"context"
	"net/http"
	"time"
)

// Probe checks whether the sync server answers its health endpoint. It backs
// the online indicator; a false result flips the client to offline mode
// without touching the local store.
type Probe struct {
	url    string
	client *http.Client
}

// NewProbe builds a probe for the server at baseURL. timeout bounds one
// check; zero defaults to 2s, probes must stay cheap.
func NewProbe(baseURL string, timeout time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Probe{
		url:    baseURL + "/healthz",
		client: &http.Client{Timeout: timeout},
	}
}

// Check reports reachability. Any transport error or non-2xx status counts
// as unreachable.
func (p *Probe) Check(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
