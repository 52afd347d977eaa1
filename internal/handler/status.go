package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
)

// StatusHandler serves the public capacity and discovery surface.
type StatusHandler struct {
    Engine *booking.Engine
}

func NewStatusHandler(engine *booking.Engine) *StatusHandler {
    return &StatusHandler{Engine: engine}
}

// Status handles GET /v1/status: per-tier usage across all visible
// regions plus the region tag list.
func (h *StatusHandler) Status(c echo.Context) error {
    usage, err := h.Engine.Usage(c.Request().Context(), "")
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "tags":    h.Engine.Catalog().AllTags(),
        "regions": usage,
    })
}

// StatusRegion handles GET /v1/status/:region for one region, accepting
// aliases.
func (h *StatusHandler) StatusRegion(c echo.Context) error {
    usage, err := h.Engine.Usage(c.Request().Context(), c.Param("region"))
    if err != nil {
        if handled, herr := respondWarning(c, err); handled {
            return herr
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"regions": usage})
}

// SearchRegions handles GET /v1/regions/search?q= for command
// autocompletion.
func (h *StatusHandler) SearchRegions(c echo.Context) error {
    q := c.QueryParam("q")
    return c.JSON(http.StatusOK, echo.Map{"regions": h.Engine.Catalog().SearchRegions(q)})
}

// SearchTiers handles GET /v1/regions/:region/tiers/search?q=.
func (h *StatusHandler) SearchTiers(c echo.Context) error {
    region := c.Param("region")
    q := c.QueryParam("q")
    return c.JSON(http.StatusOK, echo.Map{"tiers": h.Engine.Catalog().SearchTiers(region, q)})
}

// Variants handles GET /v1/variants, listing the configured game-mode
// presets.
func (h *StatusHandler) Variants(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{"variants": h.Engine.Catalog().Variants()})
}
