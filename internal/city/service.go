package city

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kelvins/geocoder"

	"weatherassistant/internal/prefs"
)

// timestamp key written alongside the selection so clients can detect a
// change since their last read.
const keyCityChangedAt = "city_change_timestamp"

// Service persists the user's selected city and resolves city names to
// coordinates, falling back to geocoding for places outside the catalog.
type Service struct {
	prefs       prefs.Store
	geocoderKey string
	now         func() time.Time
}

func NewService(store prefs.Store, geocoderAPIKey string) *Service {
	return &Service{
		prefs:       store,
		geocoderKey: geocoderAPIKey,
		now:         time.Now,
	}
}

// Selected returns the persisted selection, or nil when no city is selected.
func (s *Service) Selected() (*City, error) {
	raw, ok, err := s.prefs.Get(prefs.KeySelectedCity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var c City
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("corrupt selected city entry: %w", err)
	}
	return &c, nil
}

// SaveSelected persists the selection; nil clears it. The change timestamp is
// updated either way.
func (s *Service) SaveSelected(c *City) error {
	if c == nil {
		if err := s.prefs.Remove(prefs.KeySelectedCity); err != nil {
			return err
		}
	} else {
		raw, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := s.prefs.Set(prefs.KeySelectedCity, string(raw)); err != nil {
			return err
		}
	}

	ms := s.now().UnixMilli()
	return s.prefs.Set(keyCityChangedAt, strconv.FormatInt(ms, 10))
}

// ChangedAt returns when the selection last changed, or the zero time if it
// never has.
func (s *Service) ChangedAt() (time.Time, error) {
	raw, ok, err := s.prefs.Get(keyCityChangedAt)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt city change timestamp: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// Resolve maps a city name to coordinates: catalog first, then the geocoding
// API when a key is configured.
func (s *Service) Resolve(name, country string) (*City, error) {
	if c, ok := Find(name, country); ok {
		return &c, nil
	}

	if s.geocoderKey == "" {
		return nil, fmt.Errorf("unknown city %q and no geocoder API key configured", name)
	}

	geocoder.ApiKey = s.geocoderKey
	loc, err := geocoder.Geocoding(geocoder.Address{City: name, Country: country})
	if err != nil {
		return nil, fmt.Errorf("geocoding %q: %w", name, err)
	}

	return &City{
		Name:      name,
		Country:   country,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}, nil
}
