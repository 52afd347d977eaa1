package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/provision"
    "github.com/iliyamo/game-server-booking/internal/timeutil"
)

// BookingHandler exposes the user-facing booking commands.  The engine
// carries the lifecycle semantics; the handler only translates HTTP and
// renders warnings.  The concrete gateway client is kept alongside the
// engine for the sidecar file listings, which are not part of the
// engine's lifecycle contract.
type BookingHandler struct {
    Engine  *booking.Engine
    Gateway *provision.Client
}

func NewBookingHandler(engine *booking.Engine, gateway *provision.Client) *BookingHandler {
    return &BookingHandler{Engine: engine, Gateway: gateway}
}

type bookReq struct {
    Region    string `json:"region"`
    Tier      string `json:"tier"`
    Variant   string `json:"variant,omitempty"`
    ReserveIn string `json:"reserve_in,omitempty"` // relative, e.g. "2h30m"
}

// Book handles POST /v1/bookings.  With reserve_in set the request is
// scheduled; otherwise provisioning starts immediately.  Validation
// failures surface as 409 with the warning text verbatim.
func (h *BookingHandler) Book(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    ctx := c.Request().Context()
    if req.Region == "" {
        req.Region = h.Engine.PreferredRegion(ctx, member.ID)
    }
    if req.Region == "" {
        req.Region = h.Engine.Catalog().DefaultRegion()
    }
    if req.Tier == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier required"})
    }

    opts := booking.Options{
        BookingFor: member,
        BookingBy:  member,
        Region:     req.Region,
        Tier:       req.Tier,
        Variant:    req.Variant,
    }
    if req.ReserveIn != "" {
        at, err := timeutil.ParseRelative(req.ReserveIn, time.Now().UTC())
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reserve_in, use forms like 30m or 2h30m"})
        }
        opts.ReserveAt = &at
    }

    if err := h.Engine.ValidateBookRequest(ctx, opts); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validation failed"})
    }
    if err := h.Engine.CreateBookingRequest(ctx, opts); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"status": "accepted"})
}

// Unbook handles DELETE /v1/bookings, tearing down the caller's active
// booking.
func (h *BookingHandler) Unbook(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Engine.DestroyUserBooking(c.Request().Context(), member.ID, false); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unbook failed"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"status": "closing"})
}

// Unreserve handles DELETE /v1/reservations, cancelling the caller's
// scheduled reservation.
func (h *BookingHandler) Unreserve(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Engine.CancelReservation(c.Request().Context(), member.ID); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unreserve failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "cancelled"})
}

// Resend handles POST /v1/bookings/resend, re-delivering the connection
// details for the caller's running booking.
func (h *BookingHandler) Resend(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    if err := h.Engine.SendBookingDetails(c.Request().Context(), member.ID); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "resend failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "sent"})
}

type rconReq struct {
    Command string `json:"command"`
}

// Rcon handles POST /v1/rcon, relaying one remote command to the
// caller's running server and returning its raw response.
func (h *BookingHandler) Rcon(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req rconReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Command) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "command required"})
    }
    out, err := h.Engine.RconCommand(c.Request().Context(), member.ID, req.Command)
    if err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "rcon failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"response": out})
}

// Demos handles GET /v1/demos, listing the demo files recorded on the
// caller's server.
func (h *BookingHandler) Demos(c echo.Context) error {
    return h.listFiles(c, h.Gateway.ListServerDemos)
}

// Logs handles GET /v1/logs, listing the log files on the caller's
// server.
func (h *BookingHandler) Logs(c echo.Context) error {
    return h.listFiles(c, h.Gateway.ListServerLogs)
}

// listFiles resolves the caller's running server and fetches a sidecar
// file listing for it.
func (h *BookingHandler) listFiles(c echo.Context, list func(ctx context.Context, id string) ([]string, error)) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx := c.Request().Context()
    active, err := h.Engine.Store().ListActiveByUser(ctx, member.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if len(active) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no active booking"})
    }
    if active[0].Status != model.StatusRunning {
        return c.JSON(http.StatusConflict, echo.Map{"warning": "server is not running yet"})
    }
    files, err := list(ctx, active[0].Server)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "file listing failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"files": files})
}
