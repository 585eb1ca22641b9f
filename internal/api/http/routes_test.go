package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"weatherassistant/internal/city"
	"weatherassistant/internal/location"
	"weatherassistant/internal/notify"
	"weatherassistant/internal/prefs"
	"weatherassistant/internal/weather"
)

type stubWeather struct{}

func (stubWeather) Predict(ctx context.Context, coords weather.Coordinates) (*weather.Report, error) {
	return &weather.Report{Success: true, Summary: "Clear, 21°C"}, nil
}

func (stubWeather) PredictManual(ctx context.Context, features weather.Features) (*weather.Report, error) {
	return &weather.Report{Success: true, Summary: "Manual"}, nil
}

func (stubWeather) Health(ctx context.Context) (bool, error) { return true, nil }

func newTestApp() *fiber.App {
	app := fiber.New()

	store := prefs.NewMemStore()
	cities := city.NewService(store, "")
	center := notify.NewCronCenter(notify.LogSink{})
	sched := notify.NewScheduler(center, stubWeather{}, cities, location.Static{}, store)

	RegisterRoutes(app, Deps{
		Weather:   stubWeather{},
		Cities:    cities,
		Scheduler: sched,
	})
	return app
}

// TestScheduleValidation verifies that the schedule endpoint enforces the
// expected hour/minute ranges.
func TestScheduleValidation(t *testing.T) {
	app := newTestApp()

	// Out-of-range hour should return 400.
	body := strings.NewReader(`{"enabled":true,"hour":24,"minute":0}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/schedule", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// Missing time fields should also return 400.
	body = strings.NewReader(`{"enabled":true}`)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/settings/schedule", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestScheduleEnableDisable(t *testing.T) {
	app := newTestApp()

	body := strings.NewReader(`{"enabled":true,"hour":8,"minute":30}`)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/settings/schedule", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// Disabling does not require a time.
	body = strings.NewReader(`{"enabled":false}`)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/settings/schedule", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestCurrentWeatherRequiresCoordinates(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather/current", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	// A catalog city name works in place of raw coordinates.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/weather/current?city=Ankara", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestManualPredictValidation(t *testing.T) {
	app := newTestApp()

	body := strings.NewReader(`{"temp":25}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/manual", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	body = strings.NewReader(`{"temp":25,"humidity":40,"wind_speed":3,"pressure":1013,"clouds":10,"uv_index":5}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/predict/manual", body)
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
}
