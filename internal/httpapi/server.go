// Package httpapi is the engine's optional HTTP facade: an echo server
// exposing the fhirmapper.Mapper over a small JSON API, wired with a
// request-id/logging/recovery middleware stack.
package httpapi

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pradeepkk321/fhir-mapper/internal/fhirmapper"
	"github.com/pradeepkk321/fhir-mapper/internal/mapping"
	"github.com/pradeepkk321/fhir-mapper/internal/platform/middleware"
)

// NewServer assembles the echo server: global middleware, health check,
// and the transform endpoint.
func NewServer(mapper *fhirmapper.Mapper, store *mapping.Store, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	h := &handler{mapper: mapper, store: store}

	e.GET("/healthz", h.health)
	e.POST("/transform/:mappingId", h.transform)
	e.POST("/reload", h.reload)

	return e
}
