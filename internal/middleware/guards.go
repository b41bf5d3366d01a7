package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/models"
)

// RoleAllowed reports whether the identity's role is in the allowed
// set. Pure function, no side effects.
func RoleAllowed(identity common.Identity, allowed ...models.Role) bool {
	for _, role := range allowed {
		if identity.Role == role {
			return true
		}
	}
	return false
}

// SameTenant reports whether the identity belongs to the tenant owning
// the resource. Role and tenant checks are independent: an admin of one
// city never passes this for another city's resources.
func SameTenant(identity common.Identity, resourceCityID uuid.UUID) bool {
	return identity.CityID == resourceCityID
}

// RequireSameTenant is the handler-side guard wrapping SameTenant into
// the fixed 403 response.
func RequireSameTenant(identity common.Identity, resourceCityID uuid.UUID) error {
	if !SameTenant(identity, resourceCityID) {
		return echo.NewHTTPError(http.StatusForbidden, "Not authorized to access this city's resources")
	}
	return nil
}
