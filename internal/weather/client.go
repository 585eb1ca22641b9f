package weather

import (
	"context"
	"errors"
)

var (
	// ErrNetwork means the request never completed.
	ErrNetwork = errors.New("weather: network error")
	// ErrUpstream means the API answered with an error response.
	ErrUpstream = errors.New("weather: upstream error")
)

// Client abstracts the remote weather prediction API.
type Client interface {
	// Predict fetches a prediction report for the given coordinates.
	Predict(ctx context.Context, coords Coordinates) (*Report, error)
	// PredictManual scores caller-supplied observation features.
	PredictManual(ctx context.Context, features Features) (*Report, error)
	// Health reports whether the API is up and its model is loaded.
	Health(ctx context.Context) (bool, error)
}
