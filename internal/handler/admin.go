package handler

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/repository"
)

// AdminHandler serves the operator surface: booking on behalf of users
// and the status summaries.
type AdminHandler struct {
    Engine *booking.Engine
    Admin  *booking.AdminService
    Users  *repository.UserRepo
}

func NewAdminHandler(engine *booking.Engine, admin *booking.AdminService, users *repository.UserRepo) *AdminHandler {
    return &AdminHandler{Engine: engine, Admin: admin, Users: users}
}

type adminBookReq struct {
    User    string `json:"user"`
    Region  string `json:"region"`
    Tier    string `json:"tier"`
    Variant string `json:"variant,omitempty"`
}

// Book handles POST /v1/admin/bookings, booking a server for another
// user.  The admin path skips the reservation and restriction checks but
// still honors tier limits; restrictions apply to the target user's own
// account, not the operator's.
func (h *AdminHandler) Book(c echo.Context) error {
    operator, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req adminBookReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.User == "" || req.Region == "" || req.Tier == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user, region and tier required"})
    }

    ctx := c.Request().Context()
    target, err := h.Users.ResolveMember(ctx, req.User)
    if err != nil {
        if errors.Is(err, repository.ErrUserNotFound) {
            target = catalog.Member{ID: req.User}
        } else {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
    }

    opts := booking.Options{
        BookingFor: target,
        BookingBy:  operator,
        Region:     req.Region,
        Tier:       req.Tier,
        Variant:    req.Variant,
    }
    if err := h.Admin.ValidateBookRequest(ctx, opts); err != nil {
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

// Unbook handles DELETE /v1/admin/bookings/:user, tearing down another
// user's active booking with the operator wording.
func (h *AdminHandler) Unbook(c echo.Context) error {
    user := c.Param("user")
    if err := h.Engine.DestroyUserBooking(c.Request().Context(), user, true); err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unbook failed"})
    }
    return c.JSON(http.StatusAccepted, echo.Map{"status": "closing"})
}

// Overview handles GET /v1/admin/bookings, listing every active booking.
func (h *AdminHandler) Overview(c echo.Context) error {
    overview, err := h.Admin.Overview(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": overview})
}

// UserStatus handles GET /v1/admin/users/:user.
func (h *AdminHandler) UserStatus(c echo.Context) error {
    status, err := h.Admin.StatusForUser(c.Request().Context(), c.Param("user"))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, status)
}

// RegionStatus handles GET /v1/admin/regions/:region.
func (h *AdminHandler) RegionStatus(c echo.Context) error {
    status, err := h.Admin.StatusForRegion(c.Request().Context(), c.Param("region"))
    if err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, status)
}

// BookingDetail handles GET /v1/admin/bookings/:id, the full view of one
// booking including its live server state.
func (h *AdminHandler) BookingDetail(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    b, err := h.Engine.Store().GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    detail, err := h.Admin.DetailFor(ctx, b)
    if err != nil {
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "gateway query failed"})
    }
    return c.JSON(http.StatusOK, detail)
}
