package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"porchboard/internal/common"
	"porchboard/internal/models"
	"porchboard/internal/repositories"
	"porchboard/internal/services"
)

// AuthHandlers handles registration and login.
type AuthHandlers struct {
	authService services.AuthService
}

func NewAuthHandlers(authService services.AuthService) *AuthHandlers {
	return &AuthHandlers{authService: authService}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	CityID   string `json:"cityId"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authPayload struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register handles POST /api/auth/register
func (h *AuthHandlers) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if !common.ValidateEmail(req.Email) {
		return echo.NewHTTPError(http.StatusBadRequest, "A valid email is required")
	}
	if len(req.Password) < 8 {
		return echo.NewHTTPError(http.StatusBadRequest, "Password must be at least 8 characters")
	}
	if len(req.Name) < 2 {
		return echo.NewHTTPError(http.StatusBadRequest, "Name must be at least 2 characters")
	}
	cityID, err := common.ValidateUUIDParam(req.CityID, "cityId")
	if err != nil {
		return err
	}
	role := models.Role(req.Role)
	if !role.Registerable() {
		return echo.NewHTTPError(http.StatusBadRequest, "Role must be ADMIN or EVENT_CREATOR")
	}

	user, token, err := h.authService.Register(c.Request().Context(), services.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		CityID:   cityID,
		Role:     role,
	})
	if errors.Is(err, repositories.ErrEmailTaken) {
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	return common.JSONSuccess(c, http.StatusCreated, authPayload{User: user, Token: token})
}

// Login handles POST /api/auth/login
func (h *AuthHandlers) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Email and password are required")
	}

	user, token, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	return common.JSONSuccess(c, http.StatusOK, authPayload{User: user, Token: token})
}
