package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecosort/waste-bank/internal/handler"
	"github.com/ecosort/waste-bank/internal/middleware"
	"github.com/ecosort/waste-bank/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: the health check used by load balancers and the
// Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers account and session routes.  Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid access token.
// The limiter guards login against credential stuffing; register and
// refresh share it because each hits bcrypt or the token table.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token in the body, so it does not need a JWT.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterOTP registers the email verification routes.  Both are
// unauthenticated (the account cannot log in before verifying) and sit
// behind the rate limiter because issuance sends an email per request.
func RegisterOTP(e *echo.Echo, o *handler.OTPHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/send-otp", o.SendOTP)
	g.POST("/verify-otp", o.VerifyOTP)
}

// RegisterWaste registers the intake routes.  Upload authenticates with
// device credentials carried in the body, never a user JWT, so it lives
// outside the protected groups; the limiter throttles misbehaving devices
// by IP.  The record lookup is admin-only.
func RegisterWaste(e *echo.Echo, w *handler.WasteHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	e.POST("/v1/waste/upload", w.Upload, limiter)

	admin := e.Group("/v1/waste")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/:id", w.GetByID)
}

// RegisterUser registers the normal_user self-service routes.  Stats sit
// behind the response cache because they aggregate over waste_data.
func RegisterUser(e *echo.Echo, u *handler.UserHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/user")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleNormalUser))
	g.GET("/waste", u.WasteHistory)
	g.GET("/rewards", u.Rewards)
	g.GET("/qrcode", u.QRCode)
	g.GET("/stats", u.Stats, cache)
}

// RegisterBuyer registers the buyer-facing read-only views.
func RegisterBuyer(e *echo.Echo, b *handler.BuyerHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/buyer")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleBuyer, model.RoleAdmin))
	g.GET("/recyclables", b.Recyclables)
	g.GET("/stats", b.Stats, cache)
}

// RegisterAdmin registers the administration surface.  Every route
// requires the admin role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleAdmin))
	g.GET("/overview", a.Overview, cache)
	g.GET("/users", a.ListUsers)
	g.GET("/users/:id", a.GetUser)
	g.DELETE("/users/:id", a.DeleteUser)
	g.GET("/devices", a.ListDevices)
	g.POST("/devices", a.RegisterDevice)
	g.PUT("/devices/:device_id/deactivate", a.DeactivateDevice)
}
