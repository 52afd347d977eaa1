// Package router wires the HTTP routes of the booking API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/handler"
    "github.com/iliyamo/game-server-booking/internal/middleware"
)

// Handlers groups every handler the route table needs.
type Handlers struct {
    Auth       *handler.AuthHandler
    Booking    *handler.BookingHandler
    Status     *handler.StatusHandler
    Preference *handler.PreferenceHandler
    Admin      *handler.AdminHandler
    Callback   *handler.CallbackHandler
}

// Register sets up the full route table: health check, auth, the
// provisioning callback, the authenticated command surface under /v1 and
// the operator surface under /v1/admin.  The rate limiter wraps only the
// command surface; the callback must never be throttled.
func Register(e *echo.Echo, h Handlers, jwtSecret, adminRole string, limiter echo.MiddlewareFunc) {
    e.GET("/healthz", handler.Health)

    // gateway callback, authenticated by shared secret inside the handler
    e.POST("/booking/callback", h.Callback.ServerStatus)

    auth := e.Group("/v1/auth")
    auth.POST("/register", h.Auth.Register)
    auth.POST("/login", h.Auth.Login)

    v1 := e.Group("/v1", middleware.JWTAuth(jwtSecret))
    if limiter != nil {
        v1.Use(limiter)
    }
    v1.GET("/me", h.Auth.Me)

    // discovery and capacity
    v1.GET("/status", h.Status.Status)
    v1.GET("/status/:region", h.Status.StatusRegion)
    v1.GET("/regions/search", h.Status.SearchRegions)
    v1.GET("/regions/:region/tiers/search", h.Status.SearchTiers)
    v1.GET("/variants", h.Status.Variants)

    // booking commands
    v1.POST("/bookings", h.Booking.Book)
    v1.DELETE("/bookings", h.Booking.Unbook)
    v1.POST("/bookings/resend", h.Booking.Resend)
    v1.DELETE("/reservations", h.Booking.Unreserve)
    v1.POST("/rcon", h.Booking.Rcon)
    v1.GET("/demos", h.Booking.Demos)
    v1.GET("/logs", h.Booking.Logs)

    // preferences
    v1.GET("/preferences", h.Preference.Get)
    v1.PUT("/preferences", h.Preference.Set)

    // operator surface
    admin := v1.Group("/admin", middleware.RequireRole(adminRole))
    admin.POST("/bookings", h.Admin.Book)
    admin.GET("/bookings", h.Admin.Overview)
    admin.GET("/bookings/:id", h.Admin.BookingDetail)
    admin.DELETE("/bookings/:user", h.Admin.Unbook)
    admin.GET("/users/:user", h.Admin.UserStatus)
    admin.GET("/regions/:region", h.Admin.RegionStatus)
}
