package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/catalog"
    "github.com/iliyamo/game-server-booking/internal/model"
    "github.com/iliyamo/game-server-booking/internal/repository"
)

// settableKeys are the preference keys a user may write, with whether
// writes are gated by a catalog setting spec.  Ungated keys are open to
// everyone.
var settableKeys = map[string]bool{
    model.PrefServerPassword:     true,
    model.PrefServerRconPassword: true,
    model.PrefServerValveSdr:     true,
    model.PrefServerHostname:     true,
    model.PrefServerTvName:       true,
    model.PrefServerMap:          false,
    model.PrefServerGitRepo:      false,
    model.PrefServerGitKey:       false,
    model.PrefBookingRegion:      false,
}

// PreferenceHandler serves the per-user server customization store.
type PreferenceHandler struct {
    Prefs   *repository.PreferenceRepo
    Catalog *catalog.Catalog
}

func NewPreferenceHandler(prefs *repository.PreferenceRepo, cat *catalog.Catalog) *PreferenceHandler {
    return &PreferenceHandler{Prefs: prefs, Catalog: cat}
}

// Get handles GET /v1/preferences, returning every stored value for the
// caller.
func (h *PreferenceHandler) Get(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    values, err := h.Prefs.GetAll(c.Request().Context(), member.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "preference store unavailable"})
    }
    return c.JSON(http.StatusOK, echo.Map{"preferences": values})
}

// Set handles PUT /v1/preferences with a flat key→value body.  Unknown
// keys are rejected; gated keys additionally require the caller's access
// spec to allow the override.
func (h *PreferenceHandler) Set(c echo.Context) error {
    member, err := currentMember(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body map[string]string
    if err := c.Bind(&body); err != nil || len(body) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx := c.Request().Context()
    for key, value := range body {
        gated, known := settableKeys[key]
        if !known {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown preference " + key})
        }
        if gated && !h.Catalog.SettingAllowed(key, member) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "your account may not override " + key})
        }
        if key == model.PrefServerValveSdr {
            enabled, err := strconv.ParseBool(value)
            if err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": key + " must be true or false"})
            }
            if err := h.Prefs.SetBool(ctx, member.ID, key, enabled); err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "preference store unavailable"})
            }
            continue
        }
        if err := h.Prefs.Set(ctx, member.ID, key, value); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "preference store unavailable"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "saved"})
}
