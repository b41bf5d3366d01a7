package handlers

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/middleware"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
	"porchboard/internal/services"
)

// UserHandlers handles profile and city-membership management.
type UserHandlers struct {
	userService services.UserService
}

func NewUserHandlers(userService services.UserService) *UserHandlers {
	return &UserHandlers{userService: userService}
}

// Me handles GET /api/users/me
func (h *UserHandlers) Me(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	profile, err := h.userService.Me(ctx, identity.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load profile")
	}

	return common.JSONSuccess(c, http.StatusOK, profile)
}

type UpdateMeRequest struct {
	Name            *string `json:"name,omitempty"`
	Email           *string `json:"email,omitempty"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
	NewPassword     *string `json:"newPassword,omitempty"`
}

// UpdateMe handles PATCH /api/users/me
func (h *UserHandlers) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req UpdateMeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email != nil && !common.ValidateEmail(*req.Email) {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid email is required")
	}
	if req.NewPassword != nil && len(*req.NewPassword) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "New password must be at least 8 characters")
	}

	user, err := h.userService.UpdateProfile(ctx, identity.UserID, services.ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if errors.Is(err, repositories.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already in use")
	}
	if errors.Is(err, services.ErrWrongPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Current password is incorrect")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update profile")
	}

	return common.JSONSuccess(c, http.StatusOK, user)
}

// ListByCity handles GET /api/users/city/:cityId
func (h *UserHandlers) ListByCity(c echo.Context) error {
	ctx := c.Request().Context()

	cityID, err := common.ValidateUUIDParam(c.Param("cityId"), "cityId")
	if err != nil {
		return err
	}

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	if err := middleware.RequireSameTenant(identity, cityID); err != nil {
		return err
	}

	users, err := h.userService.ListByCity(ctx, cityID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list users")
	}

	return common.JSONSuccess(c, http.StatusOK, users)
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeRole handles PATCH /api/users/:id/role. Admins assign roles
// within their own city; never to themselves.
func (h *UserHandlers) ChangeRole(c echo.Context) error {
	ctx := c.Request().Context()

	targetID, err := common.ValidateUUIDParam(c.Param("id"), "user id")
	if err != nil {
		return err
	}

	identity, ok := common.IdentityFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req ChangeRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	user, err := h.userService.ChangeRole(ctx, identity.UserID, identity.CityID, targetID, models.Role(req.Role))
	if errors.Is(err, services.ErrInvalidRole) {
		return echo.NewHTTPError(http.StatusBadRequest, "Role must be ADMIN or EVENT_CREATOR")
	}
	if errors.Is(err, services.ErrSelfRoleChange) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot modify your own role")
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update role")
	}

	return common.JSONSuccess(c, http.StatusOK, user)
}
