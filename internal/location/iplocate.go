package location

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"weatherassistant/internal/httpx"
	"weatherassistant/internal/weather"
)

const defaultIPAPIBaseURL = "http://ip-api.com/json"

// IPLocator resolves coordinates from the caller's public IP. The last
// successful fix is cached and reused when the lookup fails.
type IPLocator struct {
	baseURL string
	httpCfg httpx.Config
	circuit *gobreaker.CircuitBreaker

	mu        sync.Mutex
	lastKnown *weather.Coordinates
}

func NewIPLocator(client *http.Client) *IPLocator {
	return &IPLocator{
		baseURL: defaultIPAPIBaseURL,
		httpCfg: httpx.Config{
			Client: client,
			Backoff: httpx.BackoffConfig{
				MaxRetries:      2,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: httpx.NewBreaker("ip-locator"),
	}
}

// Locate fetches a fresh fix, falling back to the last known one. Returns
// nil coordinates when neither is available.
func (l *IPLocator) Locate(ctx context.Context) (*weather.Coordinates, error) {
	coords, err := l.fetch(ctx)
	if err == nil {
		l.mu.Lock()
		l.lastKnown = coords
		l.mu.Unlock()
		return coords, nil
	}

	log.Printf("location: ip lookup failed: %v", err)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lastKnown != nil {
		c := *l.lastKnown
		return &c, nil
	}
	return nil, nil
}

func (l *IPLocator) fetch(ctx context.Context) (*weather.Coordinates, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, l.baseURL, nil)
	}

	resp, err := httpx.Do(ctx, l.httpCfg, l.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Status != "success" {
		return nil, httpx.ErrUnexpectedStatus
	}

	return &weather.Coordinates{Latitude: payload.Lat, Longitude: payload.Lon}, nil
}
