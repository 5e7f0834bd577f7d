package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// RequestIDHeader is the header this middleware reads an inbound request id
// from, and writes the resolved id back onto the response with.
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with a correlation id: the inbound
// X-Request-ID header if present, otherwise a freshly generated uuid. The
// id is stashed on the echo context under "request_id" for Logger/Recovery
// to pick up, and echoed back on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(RequestIDHeader)
			if rid == "" {
				rid = uuid.New().String()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(RequestIDHeader, rid)
			return next(c)
		}
	}
}
