package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const ipAPIBaseURL = "http://ip-api.com/json/"

// IPAPI resolves locations via ip-api.com (free tier, 45 req/min).
type IPAPI struct {
	client  *http.Client
	baseURL string
}

// NewIPAPI creates an ip-api.com resolver with the given request timeout.
func NewIPAPI(timeout time.Duration) *IPAPI {
	return &IPAPI{
		client:  &http.Client{Timeout: timeout},
		baseURL: ipAPIBaseURL,
	}
}

type ipAPIResponse struct {
	Status  string `json:"status"` // "success" or "fail"
	Message string `json:"message"`
	Country string `json:"country"`
	City    string `json:"city"`
	Org     string `json:"org"`
}

// Resolve implements Resolver.
func (p *IPAPI) Resolve(ctx context.Context, addr string) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+addr, nil)
	if err != nil {
		return Location{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("ip-api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("ip-api status %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, fmt.Errorf("decode ip-api response: %w", err)
	}

	if body.Status != "success" {
		return Location{}, fmt.Errorf("ip-api lookup failed: %s", body.Message)
	}
	if body.Country == "" && body.City == "" {
		return Location{}, ErrNotFound
	}

	return Location{Country: body.Country, City: body.City, Org: body.Org}, nil
}

// Name implements Resolver.
func (p *IPAPI) Name() string { return "ip-api" }
