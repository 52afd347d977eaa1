package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/game-server-booking/internal/booking"
    "github.com/iliyamo/game-server-booking/internal/catalog"
)

// currentMember builds the authenticated member from the claims JWTAuth
// stored in the context.  The username keys booking records; the roles
// are what catalog access specs are evaluated against.
func currentMember(c echo.Context) (catalog.Member, error) {
    username, _ := c.Get("username").(string)
    if username == "" {
        return catalog.Member{}, echo.ErrUnauthorized
    }
    roles, _ := c.Get("roles").([]string)
    return catalog.Member{ID: username, Roles: roles}, nil
}

// respondWarning renders a WarningMessage as a 409 with its text verbatim
// and reports whether err was one.  Operational errors pass through for
// the generic 500 path.
func respondWarning(c echo.Context, err error) (bool, error) {
    warn, ok := err.(*booking.WarningMessage)
    if !ok {
        return false, nil
    }
    return true, c.JSON(http.StatusConflict, echo.Map{"warning": warn.Text})
}
