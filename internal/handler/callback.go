package handler

import (
    "errors"
    "log"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
    "github.com/iliyamo/game-server-booking/internal/provision"
    "github.com/iliyamo/game-server-booking/internal/repository"
)

// CallbackHandler receives status-change callbacks from the provisioning
// gateway.  The endpoint is unauthenticated at the routing level but
// requires the shared gateway secret in the Authorization header.
type CallbackHandler struct {
    Engine *booking.Engine
    Secret string
}

func NewCallbackHandler(engine *booking.Engine, secret string) *CallbackHandler {
    return &CallbackHandler{Engine: engine, Secret: secret}
}

// ServerStatus handles POST /booking/callback?status=<state>.  The body
// is the gateway's server record.  Unknown servers return 404 so the
// gateway stops retrying; transient states are acknowledged without
// action.
func (h *CallbackHandler) ServerStatus(c echo.Context) error {
    if c.Request().Header.Get("Authorization") != "Bearer "+h.Secret {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid secret"})
    }

    status := provision.ParseServerStatus(c.QueryParam("status"))
    if status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
    }

    var server provision.Server
    if err := c.Bind(&server); err != nil || server.ID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid server payload"})
    }

    err := h.Engine.HandleServerStatusChange(c.Request().Context(), &server, status)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "no booking for server"})
        }
        log.Printf("callback: reconcile %s (%s) failed: %v", server.ID, status, err)
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reconcile failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
