package transport

import (
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	mimeJSON        = "application/json"
	mimeEventStream = "text/event-stream"
)

// RepairAccept makes every session request acceptable to a streaming
// response. Some hosts send only application/json, or no Accept at all.
func RepairAccept() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			r.Header.Set(echo.HeaderAccept, repairAccept(r.Header.Get(echo.HeaderAccept)))
			return next(c)
		}
	}
}

func repairAccept(accept string) string {
	if strings.TrimSpace(accept) == "" {
		return mimeJSON + ", " + mimeEventStream
	}
	if strings.Contains(strings.ToLower(accept), mimeEventStream) {
		return accept
	}
	return accept + ", " + mimeEventStream
}
