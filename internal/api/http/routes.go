package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/i474232898/weather-widget/internal/events"
	"github.com/i474232898/weather-widget/internal/weather"
	"github.com/i474232898/weather-widget/internal/widget"
)

var validate = validator.New()

const requestTimeout = 15 * time.Second

// WeatherClient is the weather client surface exposed over HTTP.
type WeatherClient interface {
	IsServiceInstalled(ctx context.Context) bool
	IsEnabled(ctx context.Context) bool
	Query(ctx context.Context) error
	Cached() *weather.Snapshot
	IconPack() (weather.IconPackState, string, string)
	ConditionImage(code int) weather.Image
	NamedImage(name string) weather.Image
}

// Widget is the widget surface exposed over HTTP.
type Widget interface {
	Panel() widget.Panel
	Preferences() widget.Preferences
	SetPreferences(p widget.Preferences)
}

// Deps are the collaborators of the routes. Registry, Publisher and Metrics
// are optional; the routes that need them are skipped when nil.
type Deps struct {
	Client    WeatherClient
	Widget    Widget
	Registry  *events.Registry
	Publisher events.Publisher
	Metrics   http.Handler
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics))
	}

	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		state, pkg, prefix := deps.Client.IconPack()
		resp := fiber.Map{
			"installed": deps.Client.IsServiceInstalled(ctx),
			"enabled":   deps.Client.IsEnabled(ctx),
			"cached":    deps.Client.Cached() != nil,
			"iconPack": fiber.Map{
				"state":   state.String(),
				"package": pkg,
				"prefix":  prefix,
			},
		}
		if deps.Registry != nil {
			resp["listeners"] = deps.Registry.Len()
			resp["subscribed"] = deps.Registry.Subscribed()
		}
		return c.JSON(resp)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		snapshot := deps.Client.Cached()
		if snapshot == nil {
			return fiber.NewError(fiber.StatusNotFound, "no weather data available")
		}
		return c.JSON(snapshot)
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()

		if err := deps.Client.Query(ctx); err != nil {
			if errors.Is(err, weather.ErrServiceUnavailable) {
				return fiber.NewError(fiber.StatusServiceUnavailable, "weather service unavailable")
			}
			return fiber.NewError(fiber.StatusBadGateway, "weather query failed")
		}
		snapshot := deps.Client.Cached()
		if snapshot == nil {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(snapshot)
	})

	v1.Get("/widget", func(c *fiber.Ctx) error {
		return c.JSON(deps.Widget.Panel())
	})

	v1.Get("/widget/preferences", func(c *fiber.Ctx) error {
		return c.JSON(deps.Widget.Preferences())
	})

	v1.Put("/widget/preferences", func(c *fiber.Ctx) error {
		var req preferencesRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		deps.Widget.SetPreferences(req.apply(deps.Widget.Preferences()))
		return c.JSON(deps.Widget.Panel())
	})

	v1.Get("/icons/condition/:code", func(c *fiber.Ctx) error {
		code, err := strconv.Atoi(c.Params("code"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "condition code must be an integer")
		}
		return sendImage(c, deps.Client.ConditionImage(code))
	})

	v1.Get("/icons/named/:name", func(c *fiber.Ctx) error {
		return sendImage(c, deps.Client.NamedImage(c.Params("name")))
	})

	if deps.Publisher != nil {
		v1.Post("/events", func(c *fiber.Ctx) error {
			var req eventRequest
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := validate.Struct(req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			ev, err := req.toEvent()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			if err := deps.Publisher.Publish(c.UserContext(), ev); err != nil {
				return fiber.NewError(fiber.StatusBadGateway, "failed to publish event")
			}
			return c.SendStatus(fiber.StatusAccepted)
		})
	}
}

func sendImage(c *fiber.Ctx, img weather.Image) error {
	c.Set(fiber.HeaderContentType, img.ContentType)
	if img.Placeholder {
		c.Set("X-Icon-Placeholder", "true")
	}
	return c.Send(img.Data)
}

// preferencesRequest carries a partial preferences update.
type preferencesRequest struct {
	ShowWeatherText  *bool `json:"showWeatherText"`
	ShowWindInfo     *bool `json:"showWindInfo"`
	ShowHumidityInfo *bool `json:"showHumidityInfo"`
}

func (r preferencesRequest) apply(p widget.Preferences) widget.Preferences {
	if r.ShowWeatherText != nil {
		p.ShowWeatherText = *r.ShowWeatherText
	}
	if r.ShowWindInfo != nil {
		p.ShowWindInfo = *r.ShowWindInfo
	}
	if r.ShowHumidityInfo != nil {
		p.ShowHumidityInfo = *r.ShowHumidityInfo
	}
	return p
}

// eventRequest is an injected weather notification.
type eventRequest struct {
	Action string `json:"action" validate:"required,oneof=update error"`
	Reason *int   `json:"reason" validate:"omitempty,min=0,max=2"`
}

func (r eventRequest) toEvent() (events.Event, error) {
	if r.Action == "update" {
		return events.Updated(), nil
	}
	if r.Reason == nil {
		return events.Event{}, errors.New("reason is required for error events")
	}
	return events.Error(events.ErrorReason(*r.Reason)), nil
}
