package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ipWhoisBaseURL = "http://ipwho.is/"

// IPWhois resolves locations via ipwho.is, the fallback HTTP provider.
type IPWhois struct {
	client  *http.Client
	baseURL string
}

// NewIPWhois creates an ipwho.is resolver with the given request timeout.
func NewIPWhois(timeout time.Duration) *IPWhois {
	return &IPWhois{
		client:  &http.Client{Timeout: timeout},
		baseURL: ipWhoisBaseURL,
	}
}

type ipWhoisResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Country    string `json:"country"`
	City       string `json:"city"`
	Connection struct {
		Org string `json:"org"`
	} `json:"connection"`
}

// Resolve implements Resolver.
func (p *IPWhois) Resolve(ctx context.Context, addr string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+addr, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("ipwho.is request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("ipwho.is status %d", resp.StatusCode)
	}

	var body ipWhoisResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode ipwho.is response: %w", err)
	}

	if !body.Success {
		return Location{}, fmt.Errorf("ipwho.is lookup failed: %s", body.Message)
	}
	if body.Country == "" && body.City == "" {
		return Location{}, ErrNotFound
	}

	return Location{Country: body.Country, City: body.City, Org: body.Connection.Org}, nil
}

// Name implements Resolver.
func (p *IPWhois) Name() string { return "ipwho.is" }
