package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"weatherassistant/internal/httpx"
	"weatherassistant/internal/weather"
)

const defaultBaseURL = "https://weather-assistant-api.onrender.com"

// Client talks to the weather-assistant prediction API.
type Client struct {
	baseURL string
	httpCfg httpx.Config
	circuit *gobreaker.CircuitBreaker
}

// New creates a prediction API client. An empty baseURL selects the hosted
// instance.
func New(client *http.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		baseURL: baseURL,
		httpCfg: httpx.Config{
			Client: client,
			Backoff: httpx.BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: httpx.NewBreaker("predictor"),
	}
}

// Predict fetches a prediction report for the given coordinates.
func (c *Client) Predict(ctx context.Context, coords weather.Coordinates) (*weather.Report, error) {
	body := map[string]float64{
		"lat": coords.Latitude,
		"lon": coords.Longitude,
	}
	return c.predict(ctx, body)
}

// PredictManual scores caller-supplied observation features instead of a
// location lookup.
func (c *Client) PredictManual(ctx context.Context, features weather.Features) (*weather.Report, error) {
	body := map[string]weather.Features{
		"features": features,
	}
	return c.predict(ctx, body)
}

func (c *Client) predict(ctx context.Context, body interface{}) (*weather.Report, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.baseURL+"/predict", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}

	resp, err := httpx.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		if httpx.IsStatusError(err) {
			return nil, fmt.Errorf("%w: %v", weather.ErrUpstream, err)
		}
		return nil, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%w: %s", weather.ErrUpstream, apiErr.Error)
		}
		return nil, fmt.Errorf("%w: status %d", weather.ErrUpstream, resp.StatusCode)
	}

	var report weather.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", weather.ErrUpstream, err)
	}
	return &report, nil
}

// Health reports whether the API is up and its model is loaded.
func (c *Client) Health(ctx context.Context) (bool, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, c.baseURL+"/health", nil)
	}

	resp, err := httpx.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return false, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, nil
	}

	var payload struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return false, nil
	}
	return payload.Status == "ok" && payload.ModelLoaded, nil
}
