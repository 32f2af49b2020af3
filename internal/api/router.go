package api

import (
	"net/http"

	"auction-client/internal/api/handlers"
	"auction-client/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type RouterDeps struct {
	Auction    *handlers.AuctionHandler
	Admin      *handlers.AdminHandler
	ViewStream *handlers.ViewStreamHandler
	Metrics    http.Handler
}

// NewRouter builds the local status server.
func NewRouter(deps RouterDeps, log logger.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log.Debug("Request received",
				"method", req.Method,
				"path", req.URL.Path,
				"remote_addr", c.RealIP(),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			return next(c)
		}
	})

	e.GET("/health", deps.Auction.Health)
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics))
	}

	// API routes
	v1 := e.Group("/api/v1")
	v1.GET("/auction", deps.Auction.GetAuction)
	v1.POST("/bids", deps.Auction.PlaceBid)
	if deps.ViewStream != nil {
		v1.GET("/auction/stream", deps.ViewStream.HandleConnection)
	}

	if deps.Admin != nil {
		admin := v1.Group("/admin")
		admin.GET("/auctions", deps.Admin.ListAuctions)
		admin.POST("/auctions", deps.Admin.CreateAuction)
		admin.GET("/auctions/:id/stats", deps.Admin.AuctionStats)
		admin.POST("/auctions/:id/start", deps.Admin.StartAuction)
		admin.POST("/auctions/:id/pause", deps.Admin.PauseAuction)
		admin.POST("/auctions/:id/resume", deps.Admin.ResumeAuction)
		admin.POST("/auctions/:id/close", deps.Admin.CloseAuction)
		admin.POST("/auctions/:id/extend", deps.Admin.ExtendAuction)
	}

	return e
}
