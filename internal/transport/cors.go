package transport

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/server"
)

const headerProtocolVersion = "Mcp-Protocol-Version"

var (
	allowMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodDelete}, ", ")
	allowHeaders = strings.Join([]string{
		echo.HeaderContentType,
		echo.HeaderAccept,
		echo.HeaderAuthorization,
		server.HeaderKeySessionID,
		headerProtocolVersion,
		"Last-Event-ID",
	}, ", ")
)

// preflightMaxAge is how long browsers may cache a preflight answer, in seconds.
const preflightMaxAge = 86400

// OriginPolicy decides which origin, if any, a response is shared with.
type OriginPolicy struct {
	// Production restricts sharing to Allowed. Outside production every
	// origin is accepted.
	Production bool
	// Allowed lists exact origins without a trailing slash. "*" allows any
	// origin without credentials.
	Allowed []string
}

// Resolve returns the Access-Control-Allow-Origin value for a request
// origin and whether credentials may be shared. An empty value means no
// CORS headers are sent.
func (p OriginPolicy) Resolve(origin string) (allow string, credentials bool) {
	if !p.Production {
		if origin == "" {
			return "*", false
		}
		return origin, true
	}
	if origin != "" && slices.Contains(p.Allowed, strings.TrimRight(origin, "/")) {
		return origin, true
	}
	if slices.Contains(p.Allowed, "*") {
		return "*", false
	}
	return "", false
}

// Middleware applies the policy to every response.
func (p OriginPolicy) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.apply(c)
			return next(c)
		}
	}
}

func (p OriginPolicy) apply(c echo.Context) {
	h := c.Response().Header()
	h.Add(echo.HeaderVary, echo.HeaderOrigin)

	allow, credentials := p.Resolve(c.Request().Header.Get(echo.HeaderOrigin))
	if allow == "" {
		return
	}
	h.Set(echo.HeaderAccessControlAllowOrigin, allow)
	h.Set(echo.HeaderAccessControlExposeHeaders, server.HeaderKeySessionID)
	if credentials {
		h.Set(echo.HeaderAccessControlAllowCredentials, "true")
	}
}

// preflight answers OPTIONS on the session endpoint.
func preflight(c echo.Context) error {
	h := c.Response().Header()
	h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
	h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
	h.Set(echo.HeaderAccessControlExposeHeaders, server.HeaderKeySessionID)
	h.Set(echo.HeaderAccessControlMaxAge, strconv.Itoa(preflightMaxAge))
	return c.NoContent(http.StatusNoContent)
}
