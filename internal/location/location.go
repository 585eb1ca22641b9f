package location

import (
	"context"

	"weatherassistant/internal/weather"
)

// Provider yields the best-known coordinates for this installation. A nil
// result with a nil error means no fix could be determined; callers treat
// that as "location unavailable", not as a failure.
type Provider interface {
	Locate(ctx context.Context) (*weather.Coordinates, error)
}

// Static always reports a fixed point, for deployments pinned to one place.
type Static struct {
	Coords weather.Coordinates
}

func (s Static) Locate(ctx context.Context) (*weather.Coordinates, error) {
	c := s.Coords
	return &c, nil
}
