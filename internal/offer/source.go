package offer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source supplies the current offer snapshot. The pricing engine never fetches
// offers itself; a Source resolves the collaborator's registry into a plain
// in-memory slice before each pricing run.
type Source interface {
	Snapshot(ctx context.Context) ([]Offer, error)
}

// Doer performs an HTTP round trip. It lets callers plug in a client that
// layers retries and a circuit breaker over the plain transport.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPSource fetches the offer snapshot from the offer-storage collaborator's
// REST endpoint.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
	Doer    Doer
}

// Snapshot performs a GET against the collaborator and decodes the offer list.
func (s HTTPSource) Snapshot(ctx context.Context) ([]Offer, error) {
	url := strings.TrimRight(s.BaseURL, "/") + "/offers"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build offers request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	var resp *http.Response
	if s.Doer != nil {
		resp, err = s.Doer.Do(ctx, req)
	} else {
		client := s.Client
		if client == nil {
			client = &http.Client{Timeout: 5 * time.Second}
		}
		resp, err = client.Do(req)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch offers: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch offers: unexpected status %d", resp.StatusCode)
	}
	var payload struct {
		Data []Offer `json:"data"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read offers response: %w", err)
	}
	// Collaborators answer either a bare array or a data envelope.
	if err := json.Unmarshal(body, &payload); err != nil || payload.Data == nil {
		var bare []Offer
		if bareErr := json.Unmarshal(body, &bare); bareErr != nil {
			if err != nil {
				return nil, fmt.Errorf("decode offers response: %w", err)
			}
			return nil, fmt.Errorf("decode offers response: %w", bareErr)
		}
		return bare, nil
	}
	return payload.Data, nil
}

// StaticSource serves a fixed snapshot, handy for tests and seeded setups.
type StaticSource []Offer

// Snapshot returns the configured offers unchanged.
func (s StaticSource) Snapshot(context.Context) ([]Offer, error) {
	return []Offer(s), nil
}
