package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/campussports/facility-booking/internal/config"
	"github.com/campussports/facility-booking/internal/handler"
	"github.com/campussports/facility-booking/internal/middleware"
	"github.com/campussports/facility-booking/internal/model"
)

// API bundles every handler plus the cross-cutting pieces the routes
// need.  Redis may be nil, in which case rate limiting and response
// caching are skipped.
type API struct {
	Auth       *handler.AuthHandler
	Facilities *handler.FacilityHandler
	Bookings   *handler.BookingHandler
	Gym        *handler.GymHandler
	Matches    *handler.MatchHandler
	Invites    *handler.InviteHandler

	JWTSecret string
	Redis     *redis.Client
	CacheCfg  config.CacheConfig
	RateCfg   config.RateLimitConfig
}

// Register wires every route onto the Echo instance.
func (api *API) Register(e *echo.Echo) {
	e.GET("/healthz", handler.Health)

	if api.Redis != nil && api.RateCfg.Enabled {
		e.Use(middleware.RateLimit(api.Redis, api.RateCfg))
	}
	cached := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if api.Redis != nil && api.CacheCfg.Enabled {
		cached = middleware.CacheGET(api.Redis, api.CacheCfg)
	}

	api.registerAuth(e)
	api.registerFacilities(e, cached)
	api.registerBookings(e)
	api.registerGym(e)
	api.registerMatches(e, cached)
	api.registerInvites(e)
}

// registerAuth mounts the token endpoints.  Register/login/refresh and
// logout are public; /v1/me requires a valid access token.
func (api *API) registerAuth(e *echo.Echo) {
	g := e.Group("/v1/auth")
	g.POST("/register", api.Auth.Register)
	g.POST("/login", api.Auth.Login)
	g.POST("/refresh", api.Auth.Refresh)
	g.POST("/refresh-access", api.Auth.RefreshAccess)
	g.POST("/logout", api.Auth.Logout)

	auth := e.Group("/v1", middleware.JWTAuth([]byte(api.JWTSecret)))
	auth.GET("/me", api.Auth.Me)
}

// registerFacilities mounts the public catalog (cached) and admin CRUD.
// Mutations invalidate the cached listings so a layout change is visible
// immediately.
func (api *API) registerFacilities(e *echo.Echo, cached echo.MiddlewareFunc) {
	e.GET("/v1/facilities", api.Facilities.List, cached)
	e.GET("/v1/facilities/:name", api.Facilities.Get, cached)

	admin := e.Group("/v1/facilities",
		middleware.JWTAuth([]byte(api.JWTSecret)),
		middleware.RequireRole(model.RoleAdmin))
	if api.Redis != nil && api.CacheCfg.Enabled {
		admin.Use(middleware.InvalidateCache(api.Redis, "/v1/facilities"))
	}
	admin.POST("", api.Facilities.Create)
	admin.PUT("/:id", api.Facilities.Update)
	admin.DELETE("/:id", api.Facilities.Delete)
}

// registerBookings mounts the reservation endpoints.  Everything is
// behind JWT; expire/extend enforce owner-or-admin in the handler, while
// delete and sweep are admin only.
func (api *API) registerBookings(e *echo.Echo) {
	g := e.Group("/v1/bookings", middleware.JWTAuth([]byte(api.JWTSecret)))
	g.POST("", api.Bookings.Create)
	g.GET("", api.Bookings.List)
	g.GET("/active", api.Bookings.Active)
	g.POST("/:id/expire", api.Bookings.Expire)
	g.POST("/:id/extend", api.Bookings.Extend)

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	g.DELETE("/:id", api.Bookings.Delete, adminOnly)
	g.POST("/sweep", api.Bookings.Sweep, adminOnly)
}

func (api *API) registerGym(e *echo.Echo) {
	g := e.Group("/v1/gym", middleware.JWTAuth([]byte(api.JWTSecret)))
	g.POST("/scan", api.Gym.Scan)
	g.GET("/stats", api.Gym.Stats)
}

// registerMatches mounts the public scoreboard (cached) and admin CRUD.
func (api *API) registerMatches(e *echo.Echo, cached echo.MiddlewareFunc) {
	e.GET("/v1/matches", api.Matches.List, cached)

	admin := e.Group("/v1/matches",
		middleware.JWTAuth([]byte(api.JWTSecret)),
		middleware.RequireRole(model.RoleAdmin))
	if api.Redis != nil && api.CacheCfg.Enabled {
		admin.Use(middleware.InvalidateCache(api.Redis, "/v1/matches"))
	}
	admin.POST("", api.Matches.Create)
	admin.PUT("/:id", api.Matches.Update)
	admin.DELETE("/:id", api.Matches.Delete)
}

func (api *API) registerInvites(e *echo.Echo) {
	g := e.Group("/v1/invites", middleware.JWTAuth([]byte(api.JWTSecret)))
	g.GET("", api.Invites.List)
	g.POST("", api.Invites.Create)
	g.POST("/:id/hide", api.Invites.Hide)
	g.DELETE("/:id", api.Invites.Delete)
}
