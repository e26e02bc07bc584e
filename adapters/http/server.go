package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/satriahrh/shg-assistant/utils/log"
)

// NewServer builds the echo instance with the REST routes under /api/v1
// and, when ws is non-nil, the WebSocket endpoint at /ws.
func NewServer(h *ChatHandler, ws echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per second per client

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))

	e.Use(middleware.BodyLimit(MaxRequestSize))

	if ws != nil {
		wsGroup := e.Group("/ws")
		wsGroup.Use(h.sessions.Middleware)
		wsGroup.GET("", ws)
	}

	h.Register(e.Group("/api/v1"))
	return e
}

// requestContext copies the request id into the request context so
// log.WithCtx can pick it up downstream.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(log.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}
