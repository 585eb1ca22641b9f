package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weatherassistant/internal/city"
	"weatherassistant/internal/notify"
	"weatherassistant/internal/weather"
)

var validate = validator.New()

// Deps are the collaborators the HTTP surface exposes to clients.
type Deps struct {
	Weather   weather.Client
	Cities    *city.Service
	Scheduler *notify.Scheduler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		coords, err := parseCoordsQuery(c, deps.Cities)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := deps.Weather.Predict(c.UserContext(), coords)
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(report)
	})

	v1.Post("/predict/manual", func(c *fiber.Ctx) error {
		var req manualPredictRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		report, err := deps.Weather.PredictManual(c.UserContext(), req.toFeatures())
		if err != nil {
			return upstreamError(err)
		}
		return c.JSON(report)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		if q := c.Query("q"); q != "" {
			return c.JSON(city.Search(q))
		}
		if country := c.Query("country"); country != "" {
			return c.JSON(city.ByCountry(country))
		}
		return c.JSON(city.GroupedByCountry())
	})

	v1.Get("/cities/countries", func(c *fiber.Ctx) error {
		return c.JSON(city.Countries())
	})

	v1.Get("/settings", func(c *fiber.Ctx) error {
		tod, err := deps.Scheduler.ScheduledTime()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read schedule")
		}
		selected, err := deps.Cities.Selected()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read selected city")
		}

		return c.JSON(fiber.Map{
			"enabled":      deps.Scheduler.Enabled(),
			"time":         tod,
			"selectedCity": selected,
		})
	})

	v1.Put("/settings/schedule", func(c *fiber.Ctx) error {
		var req scheduleRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if !req.Enabled {
			if err := deps.Scheduler.Disarm(); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to disable notifications")
			}
			return c.JSON(fiber.Map{"enabled": false})
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := deps.Scheduler.Arm(*req.Hour, *req.Minute); err != nil {
			if errors.Is(err, notify.ErrPermissionDenied) {
				return fiber.NewError(fiber.StatusForbidden, "notification permission not granted")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to schedule notifications")
		}

		return c.JSON(fiber.Map{
			"enabled": true,
			"time":    notify.TimeOfDay{Hour: *req.Hour, Minute: *req.Minute},
		})
	})

	v1.Post("/settings/city", func(c *fiber.Ctx) error {
		var req selectCityRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if req.Name == "" {
			if err := deps.Cities.SaveSelected(nil); err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to clear selected city")
			}
			return c.JSON(fiber.Map{"selectedCity": nil})
		}

		selected, err := deps.Cities.Resolve(req.Name, req.Country)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := deps.Cities.SaveSelected(selected); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to save selected city")
		}

		return c.JSON(fiber.Map{"selectedCity": selected})
	})

	v1.Post("/notifications/test", func(c *fiber.Ctx) error {
		if err := deps.Scheduler.SendTest(c.UserContext()); err != nil {
			if errors.Is(err, notify.ErrPermissionDenied) {
				return fiber.NewError(fiber.StatusForbidden, "notification permission not granted")
			}
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/notifications/status", func(c *fiber.Ctx) error {
		return c.JSON(deps.Scheduler.Status())
	})
}

func upstreamError(err error) error {
	if errors.Is(err, weather.ErrUpstream) {
		return fiber.NewError(fiber.StatusBadGateway, "weather api error")
	}
	return fiber.NewError(fiber.StatusBadGateway, "weather api unreachable")
}

// parseCoordsQuery accepts either lat/lon or a city name resolvable to
// coordinates.
func parseCoordsQuery(c *fiber.Ctx, cities *city.Service) (weather.Coordinates, error) {
	if name := c.Query("city"); name != "" {
		resolved, err := cities.Resolve(name, c.Query("country"))
		if err != nil {
			return weather.Coordinates{}, err
		}
		return weather.Coordinates{
			Latitude:  resolved.Latitude,
			Longitude: resolved.Longitude,
		}, nil
	}

	if c.Query("lat") == "" || c.Query("lon") == "" {
		return weather.Coordinates{}, errors.New("lat and lon query parameters are required (or pass city)")
	}

	q := coordsQuery{
		Lat: c.QueryFloat("lat"),
		Lon: c.QueryFloat("lon"),
	}
	if err := validate.Struct(q); err != nil {
		return weather.Coordinates{}, err
	}
	return weather.Coordinates{Latitude: q.Lat, Longitude: q.Lon}, nil
}

// coordsQuery holds query parameters for identifying a point.
type coordsQuery struct {
	Lat float64 `validate:"gte=-90,lte=90"`
	Lon float64 `validate:"gte=-180,lte=180"`
}

// scheduleRequest is the settings payload for the daily notification.
// Hour and minute are pointers so a zero value still satisfies "required".
type scheduleRequest struct {
	Enabled bool `json:"enabled"`
	Hour    *int `json:"hour" validate:"required,gte=0,lte=23"`
	Minute  *int `json:"minute" validate:"required,gte=0,lte=59"`
}

// selectCityRequest sets or clears the selected city. An empty name clears.
type selectCityRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// manualPredictRequest carries observation features entered by hand on the
// test screen.
type manualPredictRequest struct {
	Temp      *float64 `json:"temp" validate:"required,gte=-90,lte=60"`
	Humidity  *float64 `json:"humidity" validate:"required,gte=0,lte=100"`
	WindSpeed *float64 `json:"wind_speed" validate:"required,gte=0"`
	Pressure  *float64 `json:"pressure" validate:"required,gte=800,lte=1100"`
	Clouds    *float64 `json:"clouds" validate:"required,gte=0,lte=100"`
	UVIndex   *float64 `json:"uv_index" validate:"required,gte=0"`
}

func (r manualPredictRequest) toFeatures() weather.Features {
	return weather.Features{
		Temp:      *r.Temp,
		Humidity:  *r.Humidity,
		WindSpeed: *r.WindSpeed,
		Pressure:  *r.Pressure,
		Clouds:    *r.Clouds,
		UVIndex:   *r.UVIndex,
	}
}
