package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/handler"
	"github.com/iliyamo/seat-booking/internal/logging"
	"github.com/iliyamo/seat-booking/internal/middleware"
	"github.com/iliyamo/seat-booking/internal/service"
)

// Deps is everything the routes need.  Redis may be nil, in which case the
// booking routes are not rate limited.
type Deps struct {
	Cfg       config.Config
	Users     handler.UserStore
	Sessions  handler.SessionStore
	Alloc     *service.Allocator
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Log       hclog.Logger
}

// RegisterRoutes installs the validator and every route of the API on e.
// Only health, login and signup are reachable without a token.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.Validator = handler.Validator{}
	log := logging.OrNull(d.Log)

	// Used by load balancers and the compose healthcheck.
	e.GET("/healthz", handler.Health)

	auth := handler.NewAuthHandler(d.Cfg, d.Users, d.Sessions, log.Named("auth"))
	profile := handler.NewProfileHandler(d.Cfg, d.Users, d.Sessions, log.Named("user"))
	seats := handler.NewSeatHandler(d.Alloc, log.Named("seats"))
	booking := handler.NewBookingHandler(d.Alloc, log.Named("booking"))

	g := e.Group("/auth")
	g.POST("/login", auth.Login)
	g.POST("/signin", auth.Signup)

	jwt := middleware.JWTAuth(d.Cfg.JWTSecret, d.Sessions)
	g.POST("/logout", auth.Logout, jwt)

	e.GET("/seats", seats.List, jwt)
	e.GET("/seats/:id", seats.Get, jwt)

	e.GET("/user", profile.Get, jwt)
	e.PUT("/user", profile.Update, jwt)
	e.PUT("/user/resetpassword", profile.ResetPassword, jwt)

	// The limiter runs after JWTAuth so user based bucket keys resolve.
	b := e.Group("/booking", jwt, middleware.NewTokenBucket(d.RateLimit, d.Redis, log.Named("ratelimit")))
	b.GET("", booking.Mine)
	b.POST("/book", booking.Book)
	b.DELETE("/cancel", booking.Cancel)
}
