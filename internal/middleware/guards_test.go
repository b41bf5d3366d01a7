package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"porchboard/internal/common"
	"porchboard/internal/models"
)

func TestRoleAllowed(t *testing.T) {
	admin := common.Identity{Role: models.RoleAdmin}
	creator := common.Identity{Role: models.RoleEventCreator}
	visitor := common.Identity{Role: models.RoleVisitor}

	assert.True(t, RoleAllowed(admin, models.RoleAdmin))
	assert.True(t, RoleAllowed(creator, models.RoleAdmin, models.RoleEventCreator))

	assert.False(t, RoleAllowed(creator, models.RoleAdmin))
	assert.False(t, RoleAllowed(visitor, models.RoleAdmin, models.RoleEventCreator))
	assert.False(t, RoleAllowed(admin))
}

func TestSameTenant(t *testing.T) {
	cityA, cityB := uuid.New(), uuid.New()

	assert.True(t, SameTenant(common.Identity{CityID: cityA}, cityA))
	assert.False(t, SameTenant(common.Identity{CityID: cityA}, cityB))
}

func TestSameTenant_AdminOfAnotherCityDenied(t *testing.T) {
	// Role checks never substitute for tenant checks.
	cityA, cityB := uuid.New(), uuid.New()
	foreignAdmin := common.Identity{UserID: uuid.New(), CityID: cityA, Role: models.RoleAdmin}

	assert.False(t, SameTenant(foreignAdmin, cityB))
	assert.Error(t, RequireSameTenant(foreignAdmin, cityB))
}

func TestRequireSameTenant_Forbidden(t *testing.T) {
	err := RequireSameTenant(common.Identity{CityID: uuid.New()}, uuid.New())

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func requireRoleResult(t *testing.T, identity *common.Identity, allowed ...models.Role) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if identity != nil {
		req = req.WithContext(common.WithIdentity(req.Context(), *identity))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireRole(allowed...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return handler(c)
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	identity := common.Identity{UserID: uuid.New(), CityID: uuid.New(), Role: models.RoleAdmin}
	assert.NoError(t, requireRoleResult(t, &identity, models.RoleAdmin))
}

func TestRequireRole_ForbidsOtherRole(t *testing.T) {
	identity := common.Identity{UserID: uuid.New(), CityID: uuid.New(), Role: models.RoleEventCreator}
	err := requireRoleResult(t, &identity, models.RoleAdmin)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestRequireRole_MissingIdentity(t *testing.T) {
	err := requireRoleResult(t, nil, models.RoleAdmin)

	var httpErr *echo.HTTPError
	assert.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}
